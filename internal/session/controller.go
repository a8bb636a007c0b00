// Package session owns the identity of the active conversation session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/priyanshu2307/Newschat/internal/client"
	"github.com/priyanshu2307/Newschat/internal/logging"
	"github.com/priyanshu2307/Newschat/internal/models"
	"go.uber.org/zap"
)

// State is the controller's lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateBootstrapping
	StateActive
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBootstrapping:
		return "bootstrapping"
	case StateActive:
		return "active"
	case StateUnavailable:
		return "unavailable"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrNotReady is returned by Bootstrap when the service is not ready.
	ErrNotReady = errors.New("session: service is not ready")
	// ErrBusy is returned while a session is being created.
	ErrBusy = errors.New("session: session creation already in progress")
)

// Creator mints new sessions on the answering service.
type Creator interface {
	CreateSession(ctx context.Context) (string, error)
}

// ChangeFunc is called after the active session id has been replaced.
type ChangeFunc func(ctx context.Context, sessionID string)

// Opts holds parameters for creating a Controller.
type Opts struct {
	Creator  Creator    // required
	OnChange ChangeFunc // optional
	Logger   *zap.Logger
}

// Snapshot is a consistent view of the controller.
type Snapshot struct {
	State     State
	SessionID string // the active id; kept during a reset until the new one is confirmed
	Err       error  // the last creation failure, cleared on success
}

// Controller creates and replaces the active session. The id is only ever
// swapped after the service confirms a new session.
type Controller struct {
	creator  Creator
	onChange ChangeFunc
	logger   *zap.Logger

	mu    sync.Mutex
	state State
	id    string
	err   error
}

// NewController creates a Controller in StateUninitialized.
func NewController(opts Opts) (*Controller, error) {
	if opts.Creator == nil {
		return nil, fmt.Errorf("session: creator is required")
	}
	return &Controller{
		creator:  opts.Creator,
		onChange: opts.OnChange,
		logger:   logging.OrNop(opts.Logger).Named("session"),
	}, nil
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.state, SessionID: c.id, Err: c.err}
}

// SessionID returns the active id, or "" when there is none.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Bootstrap creates the first session once the service reads ready. It is a
// no-op when a session is already active.
func (c *Controller) Bootstrap(ctx context.Context, status models.SystemStatus) error {
	c.mu.Lock()
	switch c.state {
	case StateBootstrapping:
		c.mu.Unlock()
		return ErrBusy
	case StateActive:
		c.mu.Unlock()
		return nil
	}
	if !status.Ready {
		c.err = ErrNotReady
		c.mu.Unlock()
		return ErrNotReady
	}
	c.state = StateBootstrapping
	c.mu.Unlock()

	return c.create(ctx, "bootstrap")
}

// Reset replaces the active session with a new one. The old session is
// abandoned, not deleted. On failure the previous session stays active; with
// no previous session the controller becomes unavailable.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateBootstrapping {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateBootstrapping
	c.mu.Unlock()

	return c.create(ctx, "reset")
}

// create runs with the state already set to StateBootstrapping.
func (c *Controller) create(ctx context.Context, op string) error {
	id, err := c.creator.CreateSession(ctx)

	c.mu.Lock()
	if err != nil {
		if c.id != "" {
			c.state = StateActive
		} else {
			c.state = StateUnavailable
		}
		c.err = err
		kept := c.id
		c.mu.Unlock()

		c.logger.Warn("session creation failed",
			zap.String("op", op),
			zap.Stringer("kind", client.KindOf(err)),
			zap.String("session_id", kept),
			zap.Error(err))
		return fmt.Errorf("session: %s: %w", op, err)
	}

	prev := c.id
	c.state = StateActive
	c.id = id
	c.err = nil
	c.mu.Unlock()

	c.logger.Info("session active",
		zap.String("op", op), zap.String("session_id", id), zap.String("previous", prev))
	if c.onChange != nil {
		c.onChange(ctx, id)
	}
	return nil
}
