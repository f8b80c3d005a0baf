package session

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/deltabox/pkg/errors"
)

func detailIPC(t *testing.T) []byte {
	t.Helper()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "format", Type: arrow.BinaryTypes.String},
		{Name: "numFiles", Type: arrow.PrimitiveTypes.Int64},
		{Name: "partitioned", Type: arrow.FixedWidthTypes.Boolean},
		{Name: "sizeInBytes", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).Append("delta")
	b.Field(1).(*array.Int64Builder).Append(42)
	b.Field(2).(*array.BooleanBuilder).Append(true)
	b.Field(3).(*array.Int64Builder).AppendNull()

	rec := b.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestRowsFromIPC(t *testing.T) {
	rows, err := RowsFromIPC(detailIPC(t))
	require.NoError(t, err)

	assert.Equal(t, 1, rows.NumRows())
	assert.Equal(t, []string{"format", "numFiles", "partitioned", "sizeInBytes"}, rows.Columns())

	format, err := rows.String(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "delta", format)

	numFiles, err := rows.Int64(0, rows.ColumnIndex("numFiles"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), numFiles)

	partitioned, err := rows.Bool(0, rows.ColumnIndex("partitioned"))
	require.NoError(t, err)
	assert.True(t, partitioned)

	assert.Nil(t, rows.Values[0][3], "nulls decode to nil")
}

func TestRowsFromIPCEmpty(t *testing.T) {
	rows, err := RowsFromIPC(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, rows.NumRows())
	assert.Nil(t, rows.Schema)
}

func TestRowsFromIPCGarbage(t *testing.T) {
	_, err := RowsFromIPC([]byte("not an ipc stream"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrDecodeFailed))
}

func TestRowsAccessErrors(t *testing.T) {
	rows, err := RowsFromIPC(detailIPC(t))
	require.NoError(t, err)

	_, err = rows.Bool(5, 0)
	assert.True(t, errors.HasCode(err, ErrRowOutOfRange))

	_, err = rows.Bool(0, 9)
	assert.True(t, errors.HasCode(err, ErrColumnOutOfRange))

	_, err = rows.Bool(0, 0) // format column is a string
	assert.True(t, errors.HasCode(err, ErrValueTypeInvalid))

	assert.Equal(t, -1, rows.ColumnIndex("missing"))
}

func TestRowsTruncated(t *testing.T) {
	rows := historyRows(4)
	assert.Equal(t, 4, rows.truncated(-1).NumRows())
	assert.Equal(t, 4, rows.truncated(10).NumRows())
	assert.Equal(t, 2, rows.truncated(2).NumRows())
	assert.Equal(t, 0, rows.truncated(0).NumRows())
}
