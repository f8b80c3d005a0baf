// Package client is the high-level entry point used by the CLI: it owns
// configuration, the session life cycle, and convenience wrappers that
// materialize table operations into plain row collections.
package client

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/zap"

	"github.com/TFMV/deltabox/client/config"
	"github.com/TFMV/deltabox/pkg/delta"
	"github.com/TFMV/deltabox/pkg/errors"
	"github.com/TFMV/deltabox/pkg/session"
)

// Client wraps a session against one engine endpoint
type Client struct {
	config    *config.Config
	sess      *session.Session
	logger    zerolog.Logger
	connected bool
}

// QueryResult represents the materialized result of a table operation
type QueryResult struct {
	Columns  []string
	Rows     [][]interface{}
	RowCount int64
	Duration time.Duration
}

// New creates a new deltabox client
func New(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		config: cfg,
		logger: logger,
	}
}

// Connect establishes the engine session and registers it as the
// process-wide active session.
func (c *Client) Connect(ctx context.Context) error {
	c.logger.Debug().Str("endpoint", c.config.Endpoint()).Msg("Connecting to engine")

	sess, err := session.Dial(ctx, &session.Options{
		Addr:        c.config.Endpoint(),
		DialTimeout: c.config.Server.Timeout,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		return errors.Wrap(ErrConnectionFailed, err, "failed to connect to engine")
	}

	c.sess = sess
	c.connected = true
	session.SetActive(sess)
	c.logger.Info().Str("endpoint", c.config.Endpoint()).Msg("Connected to engine")
	return nil
}

// Close closes the client connection
func (c *Client) Close() error {
	if !c.connected {
		return nil
	}
	c.logger.Debug().Msg("Closing client connection")
	c.connected = false
	session.ClearActive()
	return c.sess.Close()
}

// Session exposes the underlying session for direct library use.
func (c *Client) Session() *session.Session {
	return c.sess
}

// History returns the commit history of a table, newest first. limit < 0
// means no limit.
func (c *Client) History(ctx context.Context, table string, limit int) (*QueryResult, error) {
	if !c.connected {
		return nil, errors.New(ErrClientNotConnected, "client not connected to engine")
	}
	c.logger.Debug().Str("table", table).Int("limit", limit).Msg("Fetching history")

	start := time.Now()
	var (
		ds  *session.Dataset
		err error
	)
	if limit < 0 {
		ds, err = c.table(table).History()
	} else {
		ds, err = c.table(table).History(limit)
	}
	if err != nil {
		return nil, errors.Wrap(ErrHistoryFailed, err, "failed to build history request")
	}

	rows, err := ds.Collect(ctx)
	if err != nil {
		return nil, errors.Wrap(ErrHistoryFailed, err, "failed to fetch history")
	}
	return resultFromRows(rows, start), nil
}

// Detail returns the table's metadata row.
func (c *Client) Detail(ctx context.Context, table string) (*QueryResult, error) {
	if !c.connected {
		return nil, errors.New(ErrClientNotConnected, "client not connected to engine")
	}
	c.logger.Debug().Str("table", table).Msg("Fetching detail")

	start := time.Now()
	rows, err := c.table(table).Detail().Collect(ctx)
	if err != nil {
		return nil, errors.Wrap(ErrDetailFailed, err, "failed to fetch detail")
	}
	return resultFromRows(rows, start), nil
}

// RestoreToVersion rolls a table back to the given version and returns the
// restore metrics row.
func (c *Client) RestoreToVersion(ctx context.Context, table string, version int64) (*QueryResult, error) {
	if !c.connected {
		return nil, errors.New(ErrClientNotConnected, "client not connected to engine")
	}
	c.logger.Info().Str("table", table).Int64("version", version).Msg("Restoring table")

	start := time.Now()
	ds, err := c.table(table).RestoreToVersion(ctx, version)
	if err != nil {
		return nil, errors.Wrap(ErrRestoreFailed, err, "failed to restore table")
	}
	rows, err := ds.Collect(ctx)
	if err != nil {
		return nil, errors.Wrap(ErrRestoreFailed, err, "failed to read restore metrics")
	}
	return resultFromRows(rows, start), nil
}

// RestoreToTimestamp rolls a table back to its state at the given
// timestamp.
func (c *Client) RestoreToTimestamp(ctx context.Context, table, timestamp string) (*QueryResult, error) {
	if !c.connected {
		return nil, errors.New(ErrClientNotConnected, "client not connected to engine")
	}
	c.logger.Info().Str("table", table).Str("timestamp", timestamp).Msg("Restoring table")

	start := time.Now()
	ds, err := c.table(table).RestoreToTimestamp(ctx, timestamp)
	if err != nil {
		return nil, errors.Wrap(ErrRestoreFailed, err, "failed to restore table")
	}
	rows, err := ds.Collect(ctx)
	if err != nil {
		return nil, errors.Wrap(ErrRestoreFailed, err, "failed to read restore metrics")
	}
	return resultFromRows(rows, start), nil
}

// Convert converts a non-transactional table in place and returns the
// resulting table identifier.
func (c *Client) Convert(ctx context.Context, identifier, partitionDDL string) (string, error) {
	if !c.connected {
		return "", errors.New(ErrClientNotConnected, "client not connected to engine")
	}
	c.logger.Info().Str("identifier", identifier).Msg("Converting table")

	var opts []delta.ConvertOption
	if partitionDDL != "" {
		opts = append(opts, delta.WithPartitionSchemaDDL(partitionDDL))
	}
	tbl, err := delta.ConvertToDelta(ctx, c.sess, identifier, opts...)
	if err != nil {
		return "", errors.Wrap(ErrConvertFailed, err, "conversion failed")
	}
	return tbl.Ref().TableOrViewName, nil
}

// IsDelta reports whether the path is the root of a delta table.
func (c *Client) IsDelta(ctx context.Context, path string) (bool, error) {
	if !c.connected {
		return false, errors.New(ErrClientNotConnected, "client not connected to engine")
	}

	ok, err := delta.IsDeltaTable(ctx, c.sess, path)
	if err != nil {
		return false, errors.Wrap(ErrCheckFailed, err, "is-delta check failed")
	}
	return ok, nil
}

// table resolves a CLI-style table argument: anything that looks like a
// location becomes a path reference, everything else a qualified name.
func (c *Client) table(arg string) *delta.Table {
	if strings.HasPrefix(arg, "/") || strings.Contains(arg, "://") {
		return delta.ForPath(c.sess, arg)
	}
	return delta.ForName(c.sess, arg)
}

func resultFromRows(rows *session.Rows, start time.Time) *QueryResult {
	return &QueryResult{
		Columns:  rows.Columns(),
		Rows:     rows.Values,
		RowCount: int64(rows.NumRows()),
		Duration: time.Since(start),
	}
}
