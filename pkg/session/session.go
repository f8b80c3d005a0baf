// Package session is the client's view of a remote query engine: it owns
// the channel a relation plan travels over and the lazy result sets that
// come back. It knows nothing about the delta extension itself; pkg/delta
// builds the plans, this package moves them.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TFMV/deltabox/pkg/errors"
	"github.com/TFMV/deltabox/pkg/proto"
)

// Executor is the opaque channel a session submits plans through. The
// production implementation speaks gRPC; tests substitute fakes at this
// seam.
type Executor interface {
	Execute(ctx context.Context, sessionID string, plan *proto.Relation) (*Rows, error)
	Close() error
}

// Options configures a session.
type Options struct {
	// Addr is the engine endpoint, host:port. Used by Dial only.
	Addr string

	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration

	// Logger defaults to zap.NewNop().
	Logger *zap.Logger
}

// SetDefaults fills in zero-valued options.
func (o *Options) SetDefaults() *Options {
	if o.Addr == "" {
		o.Addr = "127.0.0.1:15002"
	}
	if o.DialTimeout == 0 {
		o.DialTimeout = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Session submits relation plans to a remote engine and hands back lazy
// result sets. Safe for concurrent use.
type Session struct {
	id     string
	exec   Executor
	logger *zap.Logger

	planID int64
	closed atomic.Bool
}

// New creates a session over an existing executor.
func New(exec Executor, opts *Options) *Session {
	if opts == nil {
		opts = &Options{}
	}
	opts.SetDefaults()
	return &Session{
		id:     uuid.NewString(),
		exec:   exec,
		logger: opts.Logger,
	}
}

// Dial connects to a remote engine over gRPC and wraps the connection in a
// session.
func Dial(ctx context.Context, opts *Options) (*Session, error) {
	if opts == nil {
		opts = &Options{}
	}
	opts.SetDefaults()
	exec, err := dialExecutor(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(ErrDialFailed, err, "failed to dial engine")
	}
	return New(exec, opts), nil
}

// ID returns the session identifier sent with every plan.
func (s *Session) ID() string {
	return s.id
}

// Relation produces a lazy remote result set from a plan built by mutate.
// No remote work happens until the dataset is collected.
func (s *Session) Relation(mutate func(*proto.Relation)) *Dataset {
	plan := &proto.Relation{
		Common: &proto.RelationCommon{PlanID: atomic.AddInt64(&s.planID, 1)},
	}
	mutate(plan)
	return &Dataset{sess: s, plan: plan, limit: -1}
}

// Close releases the underlying channel. Collecting datasets created from
// a closed session fails with ErrSessionClosed.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.exec.Close()
}

func (s *Session) execute(ctx context.Context, plan *proto.Relation) (*Rows, error) {
	if s.closed.Load() {
		return nil, errors.New(ErrSessionClosed, "session is closed")
	}
	var planID int64
	if plan.Common != nil {
		planID = plan.Common.PlanID
	}
	s.logger.Debug("submitting plan",
		zap.String("session_id", s.id),
		zap.Int64("plan_id", planID))

	rows, err := s.exec.Execute(ctx, s.id, plan)
	if err != nil {
		return nil, errors.Wrap(ErrExecuteFailed, err, "remote evaluation failed")
	}
	return rows, nil
}

// Active-session registry. Explicit session threading is preferred
// everywhere; this exists only for call sites that mirror the engine's
// implicit-session convention.
var (
	activeMu sync.RWMutex
	active   *Session
)

// SetActive installs s as the process-wide active session.
func SetActive(s *Session) {
	activeMu.Lock()
	defer activeMu.Unlock()
	active = s
}

// ClearActive removes the active session.
func ClearActive() {
	activeMu.Lock()
	defer activeMu.Unlock()
	active = nil
}

// Active returns the process-wide active session. Absence is a usage
// error, not a data error.
func Active() (*Session, error) {
	activeMu.RLock()
	defer activeMu.RUnlock()
	if active == nil {
		return nil, errors.New(ErrNoActiveSession, "no active session; call session.SetActive first")
	}
	return active, nil
}
