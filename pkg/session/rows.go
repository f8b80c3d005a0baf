package session

import (
	"bytes"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/TFMV/deltabox/pkg/errors"
)

// Rows is a fully materialized result: schema plus row-major values.
// Values holds Go scalars for the common Arrow types and the Arrow string
// rendering for everything else; nulls are nil.
type Rows struct {
	Schema *arrow.Schema
	Values [][]interface{}
}

// NumRows returns the row count.
func (r *Rows) NumRows() int {
	return len(r.Values)
}

// Columns returns the column names in schema order.
func (r *Rows) Columns() []string {
	if r.Schema == nil {
		return nil
	}
	names := make([]string, r.Schema.NumFields())
	for i := 0; i < r.Schema.NumFields(); i++ {
		names[i] = r.Schema.Field(i).Name
	}
	return names
}

// ColumnIndex returns the index of the named column, or -1.
func (r *Rows) ColumnIndex(name string) int {
	if r.Schema == nil {
		return -1
	}
	for i := 0; i < r.Schema.NumFields(); i++ {
		if r.Schema.Field(i).Name == name {
			return i
		}
	}
	return -1
}

// Bool returns the value at (row, col) as a bool.
func (r *Rows) Bool(row, col int) (bool, error) {
	v, err := r.value(row, col)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, errors.Newf(ErrValueTypeInvalid, "value at (%d,%d) is %T, not bool", row, col, v)
	}
	return b, nil
}

// String returns the value at (row, col) as a string.
func (r *Rows) String(row, col int) (string, error) {
	v, err := r.value(row, col)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Newf(ErrValueTypeInvalid, "value at (%d,%d) is %T, not string", row, col, v)
	}
	return s, nil
}

// Int64 returns the value at (row, col) as an int64.
func (r *Rows) Int64(row, col int) (int64, error) {
	v, err := r.value(row, col)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, errors.Newf(ErrValueTypeInvalid, "value at (%d,%d) is %T, not int64", row, col, v)
	}
	return n, nil
}

func (r *Rows) value(row, col int) (interface{}, error) {
	if row < 0 || row >= len(r.Values) {
		return nil, errors.Newf(ErrRowOutOfRange, "row %d of %d", row, len(r.Values))
	}
	if col < 0 || col >= len(r.Values[row]) {
		return nil, errors.Newf(ErrColumnOutOfRange, "column %d of %d", col, len(r.Values[row]))
	}
	return r.Values[row][col], nil
}

func (r *Rows) truncated(limit int) *Rows {
	if limit < 0 || limit >= len(r.Values) {
		return r
	}
	return &Rows{Schema: r.Schema, Values: r.Values[:limit]}
}

// RowsFromIPC decodes a complete Arrow IPC stream into Rows. An empty
// payload is an empty result.
func RowsFromIPC(data []byte) (*Rows, error) {
	if len(data) == 0 {
		return &Rows{}, nil
	}

	rdr, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(ErrDecodeFailed, err, "failed to open result stream")
	}
	defer rdr.Release()

	rows := &Rows{Schema: rdr.Schema()}
	for rdr.Next() {
		rec := rdr.Record()
		for i := 0; i < int(rec.NumRows()); i++ {
			row := make([]interface{}, rec.NumCols())
			for j, col := range rec.Columns() {
				row[j] = columnValue(col, i)
			}
			rows.Values = append(rows.Values, row)
		}
	}
	if err := rdr.Err(); err != nil {
		return nil, errors.Wrap(ErrDecodeFailed, err, "failed to decode result stream")
	}
	return rows, nil
}

func columnValue(col arrow.Array, i int) interface{} {
	if col.IsNull(i) {
		return nil
	}
	switch c := col.(type) {
	case *array.Boolean:
		return c.Value(i)
	case *array.Int32:
		return c.Value(i)
	case *array.Int64:
		return c.Value(i)
	case *array.Float64:
		return c.Value(i)
	case *array.String:
		return c.Value(i)
	case *array.Timestamp:
		return c.Value(i).ToTime(col.DataType().(*arrow.TimestampType).Unit)
	default:
		// maps, structs, lists: keep the Arrow rendering
		return col.ValueStr(i)
	}
}
