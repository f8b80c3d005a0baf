package delta

import (
	"context"

	"github.com/TFMV/deltabox/pkg/errors"
	"github.com/TFMV/deltabox/pkg/proto"
	"github.com/TFMV/deltabox/pkg/session"
)

// ConvertOption configures a ConvertToDelta call.
type ConvertOption func(*proto.ConvertToDelta)

// WithPartitionSchemaDDL supplies the partition schema as a DDL string,
// e.g. "date DATE, region STRING".
func WithPartitionSchemaDDL(ddl string) ConvertOption {
	return func(m *proto.ConvertToDelta) {
		m.PartitionSchemaString = &ddl
	}
}

// WithPartitionSchema supplies the partition schema as a typed struct.
func WithPartitionSchema(st *proto.StructType) ConvertOption {
	return func(m *proto.ConvertToDelta) {
		m.PartitionSchemaStruct = st
	}
}

// ConvertToDelta converts an existing non-transactional table in place.
// The identifier names the source, e.g. "parquet.`/data/raw`". Conversion
// is a mutating command: it runs to completion before this returns, and
// the resulting table is handed back as a name-referenced Table.
func ConvertToDelta(ctx context.Context, s *session.Session, identifier string, opts ...ConvertOption) (*Table, error) {
	msg := &proto.ConvertToDelta{Identifier: identifier}
	for _, opt := range opts {
		opt(msg)
	}
	if msg.PartitionSchemaString != nil && msg.PartitionSchemaStruct != nil {
		return nil, errors.New(ErrConflictingPartitionSchema, "partition schema given both as DDL and as struct")
	}

	ds := s.Relation(func(r *proto.Relation) {
		_ = r.PackExtension(&proto.DeltaRelation{ConvertToDelta: msg})
	})
	rows, err := ds.Collect(ctx)
	if err != nil {
		return nil, err
	}
	if rows.NumRows() == 0 {
		return nil, errors.New(ErrEmptyResult, "engine returned no rows for conversion")
	}
	name, err := rows.String(0, 0)
	if err != nil {
		return nil, err
	}
	return ForName(s, name), nil
}
