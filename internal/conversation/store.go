// Package conversation holds the message log of the active session and
// reconciles optimistic local appends with the service's answers.
//
// The log is append-only between loads: a user message is appended before
// the service is asked, and the exchange's outcome (answer or system notice)
// is appended after it. Nothing already in the log is edited or removed,
// except by LoadHistory and a successful Clear, which replace it wholesale.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/priyanshu2307/Newschat/internal/client"
	"github.com/priyanshu2307/Newschat/internal/logging"
	"github.com/priyanshu2307/Newschat/internal/models"
	"github.com/priyanshu2307/Newschat/internal/retry"
	"go.uber.org/zap"
)

// Rejections. Each is a KindInvalid client error and leaves the log alone.
var (
	ErrEmptyMessage    = client.Invalid("send", errors.New("message is empty"))
	ErrExchangePending = client.Invalid("send", errors.New("an exchange is already in flight"))
	ErrNoSession       = client.Invalid("send", errors.New("no active session"))
	ErrBusy            = client.Invalid("conversation", errors.New("history is being loaded or cleared"))
)

// Backend is the subset of the service used by the store.
type Backend interface {
	FetchHistory(ctx context.Context, sessionID string) ([]models.Message, error)
	PostMessage(ctx context.Context, sessionID, text string) (models.Message, error)
	ClearHistory(ctx context.Context, sessionID string) error
}

// Recorder receives every message appended to a live log.
type Recorder interface {
	Record(ctx context.Context, sessionID string, msg models.Message) error
}

// Opts holds parameters for creating a Store.
type Opts struct {
	Backend  Backend      // required
	Retry    retry.Policy // applied to FetchHistory and ClearHistory only
	Recorder Recorder     // optional
	OnUpdate func()       // optional; called after every change to the snapshot
	Logger   *zap.Logger
}

// Snapshot is a consistent copy of the store's state.
type Snapshot struct {
	SessionID string
	Messages  []models.Message
	Pending   bool // an exchange is in flight
	Busy      bool // history is being loaded or cleared
	Notice    *Notice
}

// Store owns the conversation log for one session at a time.
type Store struct {
	backend  Backend
	retry    retry.Policy
	recorder Recorder
	onUpdate func()
	logger   *zap.Logger

	mu        sync.Mutex
	sessionID string
	messages  []models.Message
	pending   *Exchange
	busy      bool
	notice    *Notice
	seq       int
	// epoch changes with every LoadHistory; results that arrive under an
	// older epoch are dropped.
	epoch uint64
}

// NewStore creates an empty Store with no session.
func NewStore(opts Opts) (*Store, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("conversation: backend is required")
	}
	return &Store{
		backend:  opts.Backend,
		retry:    opts.Retry,
		recorder: opts.Recorder,
		onUpdate: opts.OnUpdate,
		logger:   logging.OrNop(opts.Logger).Named("conversation"),
		messages: []models.Message{},
	}, nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		SessionID: s.sessionID,
		Messages:  append([]models.Message{}, s.messages...),
		Pending:   s.pending != nil,
		Busy:      s.busy,
	}
	if s.notice != nil {
		n := *s.notice
		snap.Notice = &n
	}
	return snap
}

// DismissNotice clears the current notice.
func (s *Store) DismissNotice() {
	s.mu.Lock()
	s.notice = nil
	s.mu.Unlock()
	s.notify()
}

// SessionChanged reloads the log for a new session id. It matches the
// session controller's change callback.
func (s *Store) SessionChanged(ctx context.Context, sessionID string) {
	_ = s.LoadHistory(ctx, sessionID)
}

// LoadHistory makes sessionID current and replaces the log with the
// service's history for it. Any exchange in flight for the previous session
// is abandoned. On failure the log is left empty and a notice is set; the
// session stays current.
func (s *Store) LoadHistory(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	if s.pending != nil {
		s.logger.Info("abandoning exchange on session change",
			zap.String("session_id", s.sessionID), zap.Int("seq", s.pending.Seq))
	}
	s.sessionID = sessionID
	s.messages = []models.Message{}
	s.pending = nil
	s.notice = nil
	s.busy = true
	s.mu.Unlock()
	s.notify()

	history, err := retry.Value(ctx, s.retry, client.OpFetchHistory,
		func(ctx context.Context) ([]models.Message, error) {
			return s.backend.FetchHistory(ctx, sessionID)
		})

	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.logger.Debug("dropping stale history", zap.String("session_id", sessionID))
		return nil
	}
	s.busy = false
	if err != nil {
		s.notice = newNotice(client.OpFetchHistory, err)
		s.logger.Warn("history load failed",
			zap.String("session_id", sessionID),
			zap.Stringer("kind", client.KindOf(err)),
			zap.Error(err))
		return fmt.Errorf("conversation: load history: %w", err)
	}
	s.messages = append([]models.Message{}, history...)
	s.logger.Debug("history loaded",
		zap.String("session_id", sessionID), zap.Int("messages", len(history)))
	return nil
}

// Send appends text as a user message, asks the service, and appends the
// answer or a system notice. It returns an error only when the message is
// rejected before anything is appended; otherwise the returned Exchange is
// terminal. PostMessage is never retried.
func (s *Store) Send(ctx context.Context, text string) (*Exchange, error) {
	s.mu.Lock()
	switch {
	case strings.TrimSpace(text) == "":
		s.mu.Unlock()
		return nil, ErrEmptyMessage
	case s.sessionID == "":
		s.mu.Unlock()
		return nil, ErrNoSession
	case s.pending != nil:
		s.mu.Unlock()
		return nil, ErrExchangePending
	case s.busy:
		s.mu.Unlock()
		return nil, ErrBusy
	}

	s.seq++
	ex := &Exchange{Seq: s.seq, SessionID: s.sessionID, Text: text}
	ex.begin()
	user := models.UserMessage(text)
	s.messages = append(s.messages, user)
	s.pending = ex
	s.mu.Unlock()
	s.notify()

	s.record(ctx, ex.SessionID, user)

	reply, err := s.backend.PostMessage(ctx, ex.SessionID, text)
	switch {
	case client.IsKind(err, client.KindCanceled):
		ex.fail(err)
		s.logger.Debug("exchange cancelled",
			zap.String("session_id", ex.SessionID), zap.Int("seq", ex.Seq))
	case err != nil:
		ex.fail(err)
		s.logger.Warn("exchange failed",
			zap.String("session_id", ex.SessionID),
			zap.Int("seq", ex.Seq),
			zap.Stringer("kind", client.KindOf(err)),
			zap.Error(err))
	default:
		ex.settle(reply)
	}

	applied := s.apply(ex)
	s.notify()
	if !applied {
		s.logger.Info("discarding outcome of abandoned exchange",
			zap.String("session_id", ex.SessionID), zap.Int("seq", ex.Seq), zap.Stringer("state", ex.State))
		return ex, nil
	}
	s.record(ctx, ex.SessionID, ex.Reply)
	return ex, nil
}

// apply appends a terminal exchange's reply and clears the pending slot. It
// reports false when the exchange was abandoned by a session change.
func (s *Store) apply(ex *Exchange) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != ex {
		ex.Discarded = true
		return false
	}
	s.messages = append(s.messages, ex.Reply)
	s.pending = nil
	return true
}

// Clear empties the service-side history and then the local log. On failure
// the local log is untouched and a notice is set.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.sessionID == "":
		s.mu.Unlock()
		return ErrNoSession
	case s.pending != nil:
		s.mu.Unlock()
		return ErrExchangePending
	case s.busy:
		s.mu.Unlock()
		return ErrBusy
	}
	sessionID, epoch := s.sessionID, s.epoch
	s.busy = true
	s.mu.Unlock()
	s.notify()

	err := retry.Do(ctx, s.retry, client.OpClearHistory, func(ctx context.Context) error {
		return s.backend.ClearHistory(ctx, sessionID)
	})

	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil
	}
	s.busy = false
	if err != nil {
		s.notice = newNotice(client.OpClearHistory, err)
		s.logger.Warn("clear failed",
			zap.String("session_id", sessionID),
			zap.Stringer("kind", client.KindOf(err)),
			zap.Error(err))
		return fmt.Errorf("conversation: clear: %w", err)
	}
	s.messages = []models.Message{}
	s.notice = nil
	s.logger.Info("history cleared", zap.String("session_id", sessionID))
	return nil
}

func (s *Store) notify() {
	if s.onUpdate != nil {
		s.onUpdate()
	}
}

func (s *Store) record(ctx context.Context, sessionID string, msg models.Message) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, sessionID, msg); err != nil {
		s.logger.Warn("transcript record failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}
