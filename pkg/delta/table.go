// Package delta offers one operation per variant of the delta relation
// extension: scan, history, detail, convert, restore, and the
// is-delta-table check. It builds the extension messages, packs them into
// the generic relation envelope, and submits them through a session.
// Validation of operation semantics (restore targets, conversion sources,
// table existence) is the engine's job and is not duplicated here.
package delta

import (
	"context"

	"github.com/TFMV/deltabox/pkg/errors"
	"github.com/TFMV/deltabox/pkg/proto"
	"github.com/TFMV/deltabox/pkg/session"
)

// Table is a live reference to a delta table: a lazy scan over its current
// rows plus the wire reference used to address it in follow-up operations.
// The value is immutable; derivations return new Tables.
type Table struct {
	df  *session.Dataset
	ref *proto.DeltaTable
}

// ForPath references the table rooted at a storage path.
func ForPath(s *session.Session, path string) *Table {
	return forTable(s, proto.NewPathTable(path, nil))
}

// ForPathWithStorageOptions is ForPath with per-table filesystem
// configuration. By convention keys carry filesystem-access prefixes
// (fs., s3., azure., gs.); anything else passes through untouched and
// means whatever the engine decides it means.
func ForPathWithStorageOptions(s *session.Session, path string, storageConf map[string]string) *Table {
	return forTable(s, proto.NewPathTable(path, storageConf))
}

// ForName references a table by its catalog-qualified name.
func ForName(s *session.Session, name string) *Table {
	return forTable(s, proto.NewNamedTable(name))
}

func forTable(s *session.Session, ref *proto.DeltaTable) *Table {
	df := s.Relation(func(r *proto.Relation) {
		// cannot fail: ref comes from a constructor, so exactly one
		// access type is set
		_ = r.PackExtension(&proto.DeltaRelation{Scan: &proto.Scan{Table: ref}})
	})
	return &Table{df: df, ref: ref}
}

// DF returns the lazy scan over the rows currently visible in the table.
func (t *Table) DF() *session.Dataset {
	return t.df
}

// Ref returns the wire reference this table was constructed with.
func (t *Table) Ref() *proto.DeltaTable {
	return t.ref
}

// As returns the same table under an alias. This is a local projection of
// the existing result handle; no remote call is made.
func (t *Table) As(alias string) *Table {
	return &Table{df: t.df.Alias(alias), ref: t.ref}
}

// History enumerates past commits, newest first, as a lazy dataset. An
// optional limit must be non-negative and is applied client-side after
// remote evaluation; the submitted message is identical with or without
// it. History(0) yields zero rows.
func (t *Table) History(limit ...int) (*session.Dataset, error) {
	if len(limit) > 1 {
		return nil, errors.New(ErrInvalidLimit, "at most one limit may be given")
	}
	ds := t.relation(&proto.DeltaRelation{
		DescribeHistory: &proto.DescribeHistory{Table: t.ref},
	})
	if len(limit) == 1 {
		if limit[0] < 0 {
			return nil, errors.Newf(ErrNegativeLimit, "history limit must be non-negative, got %d", limit[0])
		}
		ds = ds.Limit(limit[0])
	}
	return ds, nil
}

// Detail reports the table's metadata (format, name, size, ...) as a
// single-row lazy dataset.
func (t *Table) Detail() *session.Dataset {
	return t.relation(&proto.DeltaRelation{
		DescribeDetail: &proto.DescribeDetail{Table: t.ref},
	})
}

// RestoreToVersion rolls the table back to an earlier version and returns
// the execution metrics row. Restore mutates the table, so the result is
// collected immediately and re-wrapped as a local dataset: later mutations
// cannot change what this call returned.
func (t *Table) RestoreToVersion(ctx context.Context, version int64) (*session.Dataset, error) {
	return t.restore(ctx, &proto.RestoreTable{Table: t.ref, Version: &version})
}

// RestoreToTimestamp rolls the table back to the state at the given
// timestamp. See RestoreToVersion for result semantics.
func (t *Table) RestoreToTimestamp(ctx context.Context, timestamp string) (*session.Dataset, error) {
	return t.restore(ctx, &proto.RestoreTable{Table: t.ref, Timestamp: &timestamp})
}

func (t *Table) restore(ctx context.Context, msg *proto.RestoreTable) (*session.Dataset, error) {
	rows, err := t.relation(&proto.DeltaRelation{RestoreTable: msg}).Collect(ctx)
	if err != nil {
		return nil, err
	}
	return session.NewLocalDataset(rows), nil
}

func (t *Table) relation(d *proto.DeltaRelation) *session.Dataset {
	return t.df.Session().Relation(func(r *proto.Relation) {
		_ = r.PackExtension(d)
	})
}

// IsDeltaTable reports whether path is the root of a delta table. A false
// answer is a result, not an error; failures are reserved for actual
// access problems surfaced by the engine.
func IsDeltaTable(ctx context.Context, s *session.Session, path string) (bool, error) {
	ds := s.Relation(func(r *proto.Relation) {
		_ = r.PackExtension(&proto.DeltaRelation{
			IsDeltaTable: &proto.IsDeltaTable{Path: path},
		})
	})
	rows, err := ds.Collect(ctx)
	if err != nil {
		return false, err
	}
	if rows.NumRows() == 0 {
		return false, errors.New(ErrEmptyResult, "engine returned no rows for is-delta-table check")
	}
	return rows.Bool(0, 0)
}

// IsDeltaTableActive is IsDeltaTable through the process-wide active
// session. Absence of one is a usage error.
func IsDeltaTableActive(ctx context.Context, path string) (bool, error) {
	s, err := session.Active()
	if err != nil {
		return false, err
	}
	return IsDeltaTable(ctx, s, path)
}
