package proto

import (
	"sort"

	"github.com/go-faster/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Marshal/Unmarshal below are hand-maintained against delta.proto and
// relation.proto. Encoding is deterministic: fields in number order, map
// entries sorted by key. Unknown fields are skipped on decode so newer
// engines can add fields without breaking older clients.

func appendStringField(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendStringMapField(b []byte, num protowire.Number, m map[string]string) []byte {
	if len(m) == 0 {
		return b
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var entry []byte
		entry = appendStringField(entry, 1, k)
		entry = appendStringField(entry, 2, m[k])
		b = appendBytesField(b, num, entry)
	}
	return b
}

func consumeString(b []byte) (string, int, error) {
	v, n := protowire.ConsumeString(b)
	if n < 0 {
		return "", 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeBytes(b []byte) ([]byte, int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeVarint(b []byte) (uint64, int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func skipField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}

func consumeStringMapEntry(b []byte, m map[string]string) error {
	var key, val string
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case 1:
			v, n, err := consumeString(b)
			if err != nil {
				return err
			}
			key, b = v, b[n:]
		case 2:
			v, n, err := consumeString(b)
			if err != nil {
				return err
			}
			val, b = v, b[n:]
		default:
			n, err := skipField(num, typ, b)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	m[key] = val
	return nil
}

// ---- DeltaRelation ----

func (m *DeltaRelation) Marshal() ([]byte, error) {
	if m.variantCount() > 1 {
		return nil, errors.New("delta relation: more than one variant set")
	}
	var b []byte
	var err error
	switch {
	case m.Scan != nil:
		b, err = appendChild(b, 1, m.Scan.Marshal)
	case m.DescribeHistory != nil:
		b, err = appendChild(b, 2, m.DescribeHistory.Marshal)
	case m.DescribeDetail != nil:
		b, err = appendChild(b, 3, m.DescribeDetail.Marshal)
	case m.ConvertToDelta != nil:
		b, err = appendChild(b, 4, m.ConvertToDelta.Marshal)
	case m.RestoreTable != nil:
		b, err = appendChild(b, 5, m.RestoreTable.Marshal)
	case m.IsDeltaTable != nil:
		b, err = appendChild(b, 6, m.IsDeltaTable.Marshal)
	}
	return b, err
}

func appendChild(b []byte, num protowire.Number, marshal func() ([]byte, error)) ([]byte, error) {
	child, err := marshal()
	if err != nil {
		return nil, err
	}
	return appendBytesField(b, num, child), nil
}

func (m *DeltaRelation) Unmarshal(b []byte) error {
	*m = DeltaRelation{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if num >= 1 && num <= 6 {
			child, n, err := consumeBytes(b)
			if err != nil {
				return err
			}
			b = b[n:]
			// oneof: a later field displaces an earlier one
			*m = DeltaRelation{}
			switch num {
			case 1:
				m.Scan = &Scan{}
				err = m.Scan.Unmarshal(child)
			case 2:
				m.DescribeHistory = &DescribeHistory{}
				err = m.DescribeHistory.Unmarshal(child)
			case 3:
				m.DescribeDetail = &DescribeDetail{}
				err = m.DescribeDetail.Unmarshal(child)
			case 4:
				m.ConvertToDelta = &ConvertToDelta{}
				err = m.ConvertToDelta.Unmarshal(child)
			case 5:
				m.RestoreTable = &RestoreTable{}
				err = m.RestoreTable.Unmarshal(child)
			case 6:
				m.IsDeltaTable = &IsDeltaTable{}
				err = m.IsDeltaTable.Unmarshal(child)
			}
			if err != nil {
				return err
			}
			continue
		}
		n, err := skipField(num, typ, b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// ---- DeltaTable / TablePath ----

func (m *DeltaTable) Marshal() ([]byte, error) {
	if m.variantCount() > 1 {
		return nil, errors.New("delta table: both name and path set")
	}
	var b []byte
	if m.TableOrViewName != "" {
		b = appendStringField(b, 1, m.TableOrViewName)
	}
	if m.Path != nil {
		child, err := m.Path.Marshal()
		if err != nil {
			return nil, err
		}
		b = appendBytesField(b, 2, child)
	}
	return b, nil
}

func (m *DeltaTable) Unmarshal(b []byte) error {
	*m = DeltaTable{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case 1:
			v, n, err := consumeString(b)
			if err != nil {
				return err
			}
			b = b[n:]
			*m = DeltaTable{TableOrViewName: v}
		case 2:
			child, n, err := consumeBytes(b)
			if err != nil {
				return err
			}
			b = b[n:]
			p := &TablePath{}
			if err := p.Unmarshal(child); err != nil {
				return err
			}
			*m = DeltaTable{Path: p}
		default:
			n, err := skipField(num, typ, b)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

func (m *TablePath) Marshal() ([]byte, error) {
	var b []byte
	if m.Path != "" {
		b = appendStringField(b, 1, m.Path)
	}
	b = appendStringMapField(b, 2, m.StorageConf)
	return b, nil
}

func (m *TablePath) Unmarshal(b []byte) error {
	*m = TablePath{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case 1:
			v, n, err := consumeString(b)
			if err != nil {
				return err
			}
			m.Path, b = v, b[n:]
		case 2:
			entry, n, err := consumeBytes(b)
			if err != nil {
				return err
			}
			b = b[n:]
			if m.StorageConf == nil {
				m.StorageConf = make(map[string]string)
			}
			if err := consumeStringMapEntry(entry, m.StorageConf); err != nil {
				return err
			}
		default:
			n, err := skipField(num, typ, b)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

// ---- operation variants ----

func (m *Scan) Marshal() ([]byte, error) {
	return marshalTableOnly(m.Table)
}

func (m *Scan) Unmarshal(b []byte) error {
	t, err := unmarshalTableOnly(b)
	if err != nil {
		return err
	}
	*m = Scan{Table: t}
	return nil
}

func (m *DescribeHistory) Marshal() ([]byte, error) {
	b, err := marshalTableOnly(m.Table)
	if err != nil {
		return nil, err
	}
	if m.Limit != nil {
		b = appendVarintField(b, 2, uint64(*m.Limit))
	}
	return b, nil
}

func (m *DescribeHistory) Unmarshal(b []byte) error {
	*m = DescribeHistory{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case 1:
			child, n, err := consumeBytes(b)
			if err != nil {
				return err
			}
			b = b[n:]
			m.Table = &DeltaTable{}
			if err := m.Table.Unmarshal(child); err != nil {
				return err
			}
		case 2:
			v, n, err := consumeVarint(b)
			if err != nil {
				return err
			}
			b = b[n:]
			limit := int32(v)
			m.Limit = &limit
		default:
			n, err := skipField(num, typ, b)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

func (m *DescribeDetail) Marshal() ([]byte, error) {
	return marshalTableOnly(m.Table)
}

func (m *DescribeDetail) Unmarshal(b []byte) error {
	t, err := unmarshalTableOnly(b)
	if err != nil {
		return err
	}
	*m = DescribeDetail{Table: t}
	return nil
}

func (m *ConvertToDelta) Marshal() ([]byte, error) {
	if m.PartitionSchemaString != nil && m.PartitionSchemaStruct != nil {
		return nil, errors.New("convert to delta: both partition schema forms set")
	}
	var b []byte
	if m.Identifier != "" {
		b = appendStringField(b, 1, m.Identifier)
	}
	if m.PartitionSchemaString != nil {
		b = appendStringField(b, 2, *m.PartitionSchemaString)
	}
	if m.PartitionSchemaStruct != nil {
		child, err := m.PartitionSchemaStruct.Marshal()
		if err != nil {
			return nil, err
		}
		b = appendBytesField(b, 3, child)
	}
	return b, nil
}

func (m *ConvertToDelta) Unmarshal(b []byte) error {
	*m = ConvertToDelta{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case 1:
			v, n, err := consumeString(b)
			if err != nil {
				return err
			}
			m.Identifier, b = v, b[n:]
		case 2:
			v, n, err := consumeString(b)
			if err != nil {
				return err
			}
			b = b[n:]
			m.PartitionSchemaString, m.PartitionSchemaStruct = &v, nil
		case 3:
			child, n, err := consumeBytes(b)
			if err != nil {
				return err
			}
			b = b[n:]
			st := &StructType{}
			if err := st.Unmarshal(child); err != nil {
				return err
			}
			m.PartitionSchemaString, m.PartitionSchemaStruct = nil, st
		default:
			n, err := skipField(num, typ, b)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

func (m *RestoreTable) Marshal() ([]byte, error) {
	b, err := marshalTableOnly(m.Table)
	if err != nil {
		return nil, err
	}
	// zero or both present is representable; the engine decides
	if m.Version != nil {
		b = appendVarintField(b, 2, uint64(*m.Version))
	}
	if m.Timestamp != nil {
		b = appendStringField(b, 3, *m.Timestamp)
	}
	return b, nil
}

func (m *RestoreTable) Unmarshal(b []byte) error {
	*m = RestoreTable{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case 1:
			child, n, err := consumeBytes(b)
			if err != nil {
				return err
			}
			b = b[n:]
			m.Table = &DeltaTable{}
			if err := m.Table.Unmarshal(child); err != nil {
				return err
			}
		case 2:
			v, n, err := consumeVarint(b)
			if err != nil {
				return err
			}
			b = b[n:]
			version := int64(v)
			m.Version, m.Timestamp = &version, nil
		case 3:
			v, n, err := consumeString(b)
			if err != nil {
				return err
			}
			b = b[n:]
			m.Version, m.Timestamp = nil, &v
		default:
			n, err := skipField(num, typ, b)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

func (m *IsDeltaTable) Marshal() ([]byte, error) {
	var b []byte
	if m.Path != "" {
		b = appendStringField(b, 1, m.Path)
	}
	return b, nil
}

func (m *IsDeltaTable) Unmarshal(b []byte) error {
	*m = IsDeltaTable{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case 1:
			v, n, err := consumeString(b)
			if err != nil {
				return err
			}
			m.Path, b = v, b[n:]
		default:
			n, err := skipField(num, typ, b)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

// ---- StructType ----

func (m *StructType) Marshal() ([]byte, error) {
	var b []byte
	for _, f := range m.Fields {
		child, err := f.Marshal()
		if err != nil {
			return nil, err
		}
		b = appendBytesField(b, 1, child)
	}
	return b, nil
}

func (m *StructType) Unmarshal(b []byte) error {
	*m = StructType{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case 1:
			child, n, err := consumeBytes(b)
			if err != nil {
				return err
			}
			b = b[n:]
			f := &StructField{}
			if err := f.Unmarshal(child); err != nil {
				return err
			}
			m.Fields = append(m.Fields, f)
		default:
			n, err := skipField(num, typ, b)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

func (m *StructField) Marshal() ([]byte, error) {
	var b []byte
	if m.Name != "" {
		b = appendStringField(b, 1, m.Name)
	}
	if m.DataType != "" {
		b = appendStringField(b, 2, m.DataType)
	}
	if m.Nullable {
		b = appendVarintField(b, 3, 1)
	}
	return b, nil
}

func (m *StructField) Unmarshal(b []byte) error {
	*m = StructField{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case 1:
			v, n, err := consumeString(b)
			if err != nil {
				return err
			}
			m.Name, b = v, b[n:]
		case 2:
			v, n, err := consumeString(b)
			if err != nil {
				return err
			}
			m.DataType, b = v, b[n:]
		case 3:
			v, n, err := consumeVarint(b)
			if err != nil {
				return err
			}
			m.Nullable, b = v != 0, b[n:]
		default:
			n, err := skipField(num, typ, b)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

func marshalTableOnly(t *DeltaTable) ([]byte, error) {
	var b []byte
	if t == nil {
		return b, nil
	}
	child, err := t.Marshal()
	if err != nil {
		return nil, err
	}
	return appendBytesField(b, 1, child), nil
}

func unmarshalTableOnly(b []byte) (*DeltaTable, error) {
	var table *DeltaTable
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case 1:
			child, n, err := consumeBytes(b)
			if err != nil {
				return nil, err
			}
			b = b[n:]
			table = &DeltaTable{}
			if err := table.Unmarshal(child); err != nil {
				return nil, err
			}
		default:
			n, err := skipField(num, typ, b)
			if err != nil {
				return nil, err
			}
			b = b[n:]
		}
	}
	return table, nil
}
