package session

import (
	"context"

	"github.com/TFMV/deltabox/pkg/proto"
)

// Dataset is a lazily-evaluated remote result set. Derivations (Limit,
// Alias) are cheap local projections; only Collect talks to the engine.
//
// A dataset backed by already-materialized rows (NewLocalDataset) never
// re-contacts the engine: restore-style commands use this to freeze their
// result before the table can change underneath them.
type Dataset struct {
	sess  *Session
	plan  *proto.Relation
	limit int // -1 means no cap
	alias string
	local *Rows
}

// Plan exposes the underlying wire plan. Derived datasets share it.
func (d *Dataset) Plan() *proto.Relation {
	return d.plan
}

// Session returns the owning session, or nil for local datasets.
func (d *Dataset) Session() *Session {
	return d.sess
}

func (d *Dataset) clone() *Dataset {
	c := *d
	return &c
}

// Limit returns a derived dataset capped to n rows. The cap is applied
// client-side after evaluation; the submitted plan is unchanged.
func (d *Dataset) Limit(n int) *Dataset {
	c := d.clone()
	if n < 0 {
		n = 0
	}
	if c.limit < 0 || n < c.limit {
		c.limit = n
	}
	return c
}

// Alias returns a derived dataset under a new name. No remote call.
func (d *Dataset) Alias(name string) *Dataset {
	c := d.clone()
	c.alias = name
	return c
}

// AliasName returns the alias, or "".
func (d *Dataset) AliasName() string {
	return d.alias
}

// Collect materializes the dataset into an in-memory row collection.
func (d *Dataset) Collect(ctx context.Context) (*Rows, error) {
	rows := d.local
	if rows == nil {
		var err error
		rows, err = d.sess.execute(ctx, d.plan)
		if err != nil {
			return nil, err
		}
	}
	return rows.truncated(d.limit), nil
}

// NewLocalDataset re-wraps a materialized row collection into a dataset.
// Collect returns the captured rows as-is, without remote work.
func NewLocalDataset(rows *Rows) *Dataset {
	return &Dataset{local: rows, limit: -1}
}
