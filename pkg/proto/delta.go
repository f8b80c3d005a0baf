// Package proto holds the hand-maintained wire types for the delta relation
// extension. Field numbers are fixed and documented in delta.proto; any
// change there is a wire-compatibility break with existing engines.
package proto

// DeltaRelation is the closed union of table operations carried in the
// relation extension slot. Exactly one field must be set; Marshal rejects
// anything else, Unmarshal follows proto oneof semantics (last field wins).
type DeltaRelation struct {
	Scan            *Scan            // field 1
	DescribeHistory *DescribeHistory // field 2
	DescribeDetail  *DescribeDetail  // field 3
	ConvertToDelta  *ConvertToDelta  // field 4
	RestoreTable    *RestoreTable    // field 5
	IsDeltaTable    *IsDeltaTable    // field 6
}

// DeltaTable identifies the table an operation targets: either a storage
// path (with optional filesystem configuration) or a qualified name known
// to the engine's catalog, never both.
type DeltaTable struct {
	TableOrViewName string     // field 1
	Path            *TablePath // field 2
}

// TablePath is a path-based table reference.
type TablePath struct {
	Path        string            // field 1
	StorageConf map[string]string // field 2
}

// Scan reads the rows currently visible in the table.
type Scan struct {
	Table *DeltaTable // field 1
}

// DescribeHistory enumerates past commits, newest first.
//
// Limit exists on the wire for engines that push truncation down; the
// client in this repo never sets it and truncates after evaluation instead.
type DescribeHistory struct {
	Table *DeltaTable // field 1
	Limit *int32      // field 2
}

// DescribeDetail reports table metadata (format, name, size, ...) as a
// single row.
type DescribeDetail struct {
	Table *DeltaTable // field 1
}

// ConvertToDelta converts an existing non-transactional table in place and
// returns the resulting table identifier as a row. At most one of the two
// partition schema fields may be set.
type ConvertToDelta struct {
	Identifier            string      // field 1
	PartitionSchemaString *string     // field 2
	PartitionSchemaStruct *StructType // field 3
}

// RestoreTable rolls a table back to an earlier point in its history and
// returns execution metrics as a row.
//
// The schema permits zero or both of Version/Timestamp; validation is the
// engine's job and is deliberately not duplicated here.
type RestoreTable struct {
	Table     *DeltaTable // field 1
	Version   *int64      // field 2
	Timestamp *string     // field 3
}

// IsDeltaTable yields a single boolean row: whether the path is the root of
// a table in this format.
type IsDeltaTable struct {
	Path string // field 1
}

// StructType is a minimal typed partition schema.
type StructType struct {
	Fields []*StructField // field 1
}

// StructField is one column of a StructType.
type StructField struct {
	Name     string // field 1
	DataType string // field 2
	Nullable bool   // field 3
}

// NewPathTable builds a path-based table reference.
func NewPathTable(path string, storageConf map[string]string) *DeltaTable {
	return &DeltaTable{Path: &TablePath{Path: path, StorageConf: storageConf}}
}

// NewNamedTable builds a name-based table reference.
func NewNamedTable(name string) *DeltaTable {
	return &DeltaTable{TableOrViewName: name}
}

func (m *DeltaRelation) variantCount() int {
	n := 0
	if m.Scan != nil {
		n++
	}
	if m.DescribeHistory != nil {
		n++
	}
	if m.DescribeDetail != nil {
		n++
	}
	if m.ConvertToDelta != nil {
		n++
	}
	if m.RestoreTable != nil {
		n++
	}
	if m.IsDeltaTable != nil {
		n++
	}
	return n
}

func (m *DeltaTable) variantCount() int {
	n := 0
	if m.TableOrViewName != "" {
		n++
	}
	if m.Path != nil {
		n++
	}
	return n
}
