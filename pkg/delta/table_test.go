package delta

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/deltabox/pkg/errors"
	"github.com/TFMV/deltabox/pkg/proto"
	"github.com/TFMV/deltabox/pkg/session"
)

// fakeEngine answers plans at the Executor seam, routing on the extension
// variant the way a real engine would.
type fakeEngine struct {
	plans []*proto.Relation

	historyLen     int
	deltaPaths     map[string]bool
	restoreVersion int64 // current table version, echoed in restore metrics
	failWith       error
}

func (f *fakeEngine) Execute(_ context.Context, _ string, plan *proto.Relation) (*session.Rows, error) {
	f.plans = append(f.plans, plan)
	if f.failWith != nil {
		return nil, f.failWith
	}

	d, err := plan.UnpackExtension()
	if err != nil {
		return nil, err
	}

	switch {
	case d.Scan != nil:
		return singleColumn("value", arrow.PrimitiveTypes.Int64, int64(1)), nil
	case d.DescribeHistory != nil:
		rows := &session.Rows{Schema: arrow.NewSchema([]arrow.Field{
			{Name: "version", Type: arrow.PrimitiveTypes.Int64},
			{Name: "operation", Type: arrow.BinaryTypes.String},
		}, nil)}
		for v := f.historyLen - 1; v >= 0; v-- {
			rows.Values = append(rows.Values, []interface{}{int64(v), "WRITE"})
		}
		return rows, nil
	case d.DescribeDetail != nil:
		return singleColumn("format", arrow.BinaryTypes.String, "delta"), nil
	case d.ConvertToDelta != nil:
		return singleColumn("identifier", arrow.BinaryTypes.String, "delta.`/data/raw`"), nil
	case d.RestoreTable != nil:
		return singleColumn("table_size_after_restore", arrow.PrimitiveTypes.Int64, f.restoreVersion), nil
	case d.IsDeltaTable != nil:
		return singleColumn("isDeltaTable", arrow.FixedWidthTypes.Boolean, f.deltaPaths[d.IsDeltaTable.Path]), nil
	}
	return &session.Rows{}, nil
}

func (f *fakeEngine) Close() error { return nil }

func singleColumn(name string, typ arrow.DataType, value interface{}) *session.Rows {
	return &session.Rows{
		Schema: arrow.NewSchema([]arrow.Field{{Name: name, Type: typ}}, nil),
		Values: [][]interface{}{{value}},
	}
}

func newFakeSession() (*session.Session, *fakeEngine) {
	engine := &fakeEngine{
		historyLen: 10,
		deltaPaths: map[string]bool{"/a-real-table": true},
	}
	return session.New(engine, nil), engine
}

// extensionBytes strips plan identity so two submissions can be compared
// on the schema message alone.
func extensionBytes(t *testing.T, plan *proto.Relation) []byte {
	t.Helper()
	require.NotNil(t, plan.Extension)
	return plan.Extension.Value
}

func TestForPathReference(t *testing.T) {
	s, engine := newFakeSession()

	tbl := ForPath(s, "/data/events")
	require.NotNil(t, tbl.Ref().Path)
	assert.Equal(t, "/data/events", tbl.Ref().Path.Path)
	assert.Empty(t, tbl.Ref().TableOrViewName)
	assert.Empty(t, engine.plans, "construction must not contact the engine")

	rows, err := tbl.DF().Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rows.NumRows())

	d, err := engine.plans[0].UnpackExtension()
	require.NoError(t, err)
	require.NotNil(t, d.Scan)
	assert.Equal(t, tbl.Ref(), d.Scan.Table)
}

func TestForPathWithStorageOptions(t *testing.T) {
	s, _ := newFakeSession()

	conf := map[string]string{"fs.s3a.access.key": "k", "custom.key": "v"}
	tbl := ForPathWithStorageOptions(s, "/data/events", conf)
	require.NotNil(t, tbl.Ref().Path)
	assert.Equal(t, conf, tbl.Ref().Path.StorageConf)
}

func TestForNameReference(t *testing.T) {
	s, _ := newFakeSession()

	tbl := ForName(s, "sales.orders")
	assert.Equal(t, "sales.orders", tbl.Ref().TableOrViewName)
	assert.Nil(t, tbl.Ref().Path)
}

func TestAsIsLocal(t *testing.T) {
	s, engine := newFakeSession()

	tbl := ForName(s, "sales.orders")
	aliased := tbl.As("o")
	assert.Empty(t, engine.plans, "aliasing must not contact the engine")
	assert.Same(t, tbl.Ref(), aliased.Ref())
	assert.Same(t, tbl.DF().Plan(), aliased.DF().Plan())
	assert.Equal(t, "o", aliased.DF().AliasName())
}

func TestHistoryFull(t *testing.T) {
	s, _ := newFakeSession()
	tbl := ForName(s, "sales.orders")

	ds, err := tbl.History()
	require.NoError(t, err)
	rows, err := ds.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, rows.NumRows())

	// newest first
	v, err := rows.Int64(0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(9), v)
}

func TestHistoryLimitIsClientSide(t *testing.T) {
	s, engine := newFakeSession()
	tbl := ForName(s, "sales.orders")

	full, err := tbl.History()
	require.NoError(t, err)
	limited, err := tbl.History(5)
	require.NoError(t, err)

	fullRows, err := full.Collect(context.Background())
	require.NoError(t, err)
	limitedRows, err := limited.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, fullRows.NumRows())
	assert.Equal(t, 5, limitedRows.NumRows())

	// both submissions carried the identical schema message
	require.Len(t, engine.plans, 2)
	assert.Equal(t, extensionBytes(t, engine.plans[0]), extensionBytes(t, engine.plans[1]))

	d, err := engine.plans[1].UnpackExtension()
	require.NoError(t, err)
	require.NotNil(t, d.DescribeHistory)
	assert.Nil(t, d.DescribeHistory.Limit, "limit is never pushed into the message")
}

func TestHistoryLimitZero(t *testing.T) {
	s, _ := newFakeSession()
	tbl := ForName(s, "sales.orders")

	ds, err := tbl.History(0)
	require.NoError(t, err)
	rows, err := ds.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rows.NumRows())
}

func TestHistoryNegativeLimit(t *testing.T) {
	s, engine := newFakeSession()
	tbl := ForName(s, "sales.orders")

	_, err := tbl.History(-1)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrNegativeLimit))
	assert.Empty(t, engine.plans)
}

func TestHistoryTooManyLimits(t *testing.T) {
	s, _ := newFakeSession()
	tbl := ForName(s, "sales.orders")

	_, err := tbl.History(1, 2)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInvalidLimit))
}

func TestDetail(t *testing.T) {
	s, engine := newFakeSession()
	tbl := ForPath(s, "/data/events")

	rows, err := tbl.Detail().Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rows.NumRows())

	format, err := rows.String(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "delta", format)

	d, err := engine.plans[0].UnpackExtension()
	require.NoError(t, err)
	require.NotNil(t, d.DescribeDetail)
}

func TestRestoreToVersionMessage(t *testing.T) {
	s, engine := newFakeSession()
	tbl := ForName(s, "sales.orders")

	_, err := tbl.RestoreToVersion(context.Background(), 7)
	require.NoError(t, err)

	d, err := engine.plans[0].UnpackExtension()
	require.NoError(t, err)
	require.NotNil(t, d.RestoreTable)
	require.NotNil(t, d.RestoreTable.Version)
	assert.Equal(t, int64(7), *d.RestoreTable.Version)
	assert.Nil(t, d.RestoreTable.Timestamp)
}

func TestRestoreToTimestampMessage(t *testing.T) {
	s, engine := newFakeSession()
	tbl := ForName(s, "sales.orders")

	_, err := tbl.RestoreToTimestamp(context.Background(), "2025-11-01 00:00:00")
	require.NoError(t, err)

	d, err := engine.plans[0].UnpackExtension()
	require.NoError(t, err)
	require.NotNil(t, d.RestoreTable)
	require.NotNil(t, d.RestoreTable.Timestamp)
	assert.Equal(t, "2025-11-01 00:00:00", *d.RestoreTable.Timestamp)
	assert.Nil(t, d.RestoreTable.Version)
}

func TestRestoreCapturesResult(t *testing.T) {
	s, engine := newFakeSession()
	engine.restoreVersion = 7
	tbl := ForName(s, "sales.orders")

	metrics, err := tbl.RestoreToVersion(context.Background(), 7)
	require.NoError(t, err)

	// the table mutates again afterward
	engine.restoreVersion = 3

	rows, err := metrics.Collect(context.Background())
	require.NoError(t, err)
	v, err := rows.Int64(0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v, "restore result is captured, not re-evaluated")
	assert.Len(t, engine.plans, 1, "collecting captured metrics must not re-contact the engine")
}

func TestIsDeltaTable(t *testing.T) {
	s, _ := newFakeSession()

	ok, err := IsDeltaTable(context.Background(), s, "/a-real-table")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = IsDeltaTable(context.Background(), s, "/not-a-table")
	require.NoError(t, err, "a negative answer is a result, not a failure")
	assert.False(t, ok)
}

func TestIsDeltaTableAccessFailure(t *testing.T) {
	s, engine := newFakeSession()
	engine.failWith = errors.New(errors.CommonNotFound, "path does not exist")

	_, err := IsDeltaTable(context.Background(), s, "/gone")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, session.ErrExecuteFailed))
}

func TestIsDeltaTableActive(t *testing.T) {
	session.ClearActive()
	t.Cleanup(session.ClearActive)

	_, err := IsDeltaTableActive(context.Background(), "/a-real-table")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, session.ErrNoActiveSession))

	s, _ := newFakeSession()
	session.SetActive(s)

	ok, err := IsDeltaTableActive(context.Background(), "/a-real-table")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConvertToDelta(t *testing.T) {
	s, engine := newFakeSession()

	tbl, err := ConvertToDelta(context.Background(), s, "parquet.`/data/raw`",
		WithPartitionSchemaDDL("date DATE"))
	require.NoError(t, err)
	assert.Equal(t, "delta.`/data/raw`", tbl.Ref().TableOrViewName)

	d, err := engine.plans[0].UnpackExtension()
	require.NoError(t, err)
	require.NotNil(t, d.ConvertToDelta)
	assert.Equal(t, "parquet.`/data/raw`", d.ConvertToDelta.Identifier)
	require.NotNil(t, d.ConvertToDelta.PartitionSchemaString)
	assert.Equal(t, "date DATE", *d.ConvertToDelta.PartitionSchemaString)
	assert.Nil(t, d.ConvertToDelta.PartitionSchemaStruct)
}

func TestConvertToDeltaStructSchema(t *testing.T) {
	s, engine := newFakeSession()

	st := &proto.StructType{Fields: []*proto.StructField{
		{Name: "date", DataType: "date", Nullable: true},
	}}
	_, err := ConvertToDelta(context.Background(), s, "parquet.`/data/raw`",
		WithPartitionSchema(st))
	require.NoError(t, err)

	d, err := engine.plans[0].UnpackExtension()
	require.NoError(t, err)
	assert.Equal(t, st, d.ConvertToDelta.PartitionSchemaStruct)
	assert.Nil(t, d.ConvertToDelta.PartitionSchemaString)
}

func TestConvertToDeltaConflictingSchemas(t *testing.T) {
	s, engine := newFakeSession()

	_, err := ConvertToDelta(context.Background(), s, "parquet.`/data/raw`",
		WithPartitionSchemaDDL("date DATE"),
		WithPartitionSchema(&proto.StructType{}))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrConflictingPartitionSchema))
	assert.Empty(t, engine.plans)
}
