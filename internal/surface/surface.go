// Package surface routes user actions to the session controller and the
// conversation store, and derives what should be shown from their state.
package surface

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/priyanshu2307/Newschat/internal/client"
	"github.com/priyanshu2307/Newschat/internal/conversation"
	"github.com/priyanshu2307/Newschat/internal/logging"
	"github.com/priyanshu2307/Newschat/internal/models"
	"github.com/priyanshu2307/Newschat/internal/session"
	"go.uber.org/zap"
)

// Phase is the coarse screen the user is looking at.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseOffline
	PhaseSessionUnavailable
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseOffline:
		return "offline"
	case PhaseSessionUnavailable:
		return "session_unavailable"
	case PhaseReady:
		return "ready"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

var (
	// ErrOffline is returned by actions attempted after an offline reading.
	ErrOffline = errors.New("surface: service is offline")
	// ErrInputDisabled is returned when the current phase takes no input.
	ErrInputDisabled = errors.New("surface: input is disabled")
)

const pendingNotice = "Still waiting for the previous answer. Your message was not sent."

// StatusChecker is the one-shot readiness probe.
type StatusChecker interface {
	Check(ctx context.Context) models.SystemStatus
	Result() (models.SystemStatus, bool)
}

// SessionController owns the active session id.
type SessionController interface {
	Bootstrap(ctx context.Context, status models.SystemStatus) error
	Reset(ctx context.Context) error
	Snapshot() session.Snapshot
}

// ConversationStore owns the message log.
type ConversationStore interface {
	Send(ctx context.Context, text string) (*conversation.Exchange, error)
	Clear(ctx context.Context) error
	Snapshot() conversation.Snapshot
	DismissNotice()
}

// Opts holds parameters for creating a Surface.
type Opts struct {
	Monitor    StatusChecker     // required
	Controller SessionController // required
	Store      ConversationStore // required
	Logger     *zap.Logger
}

// RenderState is everything needed to draw the screen.
type RenderState struct {
	Phase        Phase
	Status       models.SystemStatus
	StatusKnown  bool
	SessionID    string
	Messages     []models.Message
	Pending      bool
	InputEnabled bool
	CanSubmit    bool
	Draft        string
	Notice       string
}

// Surface holds no business state beyond the input draft and the notice
// it is currently showing.
type Surface struct {
	monitor    StatusChecker
	controller SessionController
	store      ConversationStore
	logger     *zap.Logger

	mu     sync.Mutex
	draft  string
	notice string
}

// New creates a Surface.
func New(opts Opts) (*Surface, error) {
	if opts.Monitor == nil || opts.Controller == nil || opts.Store == nil {
		return nil, fmt.Errorf("surface: monitor, controller and store are required")
	}
	return &Surface{
		monitor:    opts.Monitor,
		controller: opts.Controller,
		store:      opts.Store,
		logger:     logging.OrNop(opts.Logger).Named("surface"),
	}, nil
}

// Start takes the readiness reading and, when the service is ready,
// bootstraps the first session.
func (s *Surface) Start(ctx context.Context) error {
	status := s.monitor.Check(ctx)
	if !status.Ready {
		s.logger.Info("service offline at startup")
		return nil
	}
	if err := s.controller.Bootstrap(ctx, status); err != nil {
		s.setNotice(sessionNotice(err, false))
		return fmt.Errorf("surface: start: %w", err)
	}
	return nil
}

// SetDraft replaces the input draft.
func (s *Surface) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

// Submit sends the draft. The draft is cleared as soon as the message is
// accepted and restored if it is rejected.
func (s *Surface) Submit(ctx context.Context) (*conversation.Exchange, error) {
	view := s.View()
	if view.Pending {
		s.setNotice(pendingNotice)
		return nil, conversation.ErrExchangePending
	}
	if !view.InputEnabled {
		return nil, ErrInputDisabled
	}
	if strings.TrimSpace(view.Draft) == "" {
		return nil, conversation.ErrEmptyMessage
	}

	s.mu.Lock()
	text := s.draft
	s.draft = ""
	s.notice = ""
	s.mu.Unlock()

	ex, err := s.store.Send(ctx, text)
	if err != nil {
		s.mu.Lock()
		if s.draft == "" {
			s.draft = text
		}
		s.mu.Unlock()
		if errors.Is(err, conversation.ErrExchangePending) {
			s.setNotice(pendingNotice)
		}
		return nil, err
	}
	return ex, nil
}

// ClearChat clears the conversation. Failures surface through the store's
// notice.
func (s *Surface) ClearChat(ctx context.Context) error {
	if s.View().Phase != PhaseReady {
		return ErrInputDisabled
	}
	s.setNotice("")
	err := s.store.Clear(ctx)
	if errors.Is(err, conversation.ErrExchangePending) {
		s.setNotice("Wait for the current answer before clearing the conversation.")
	}
	return err
}

// NewSession replaces the active session. On failure the previous session
// stays usable.
func (s *Surface) NewSession(ctx context.Context) error {
	phase := s.View().Phase
	if phase == PhaseOffline {
		return ErrOffline
	}
	if phase == PhaseLoading {
		return session.ErrBusy
	}
	s.setNotice("")
	if err := s.controller.Reset(ctx); err != nil {
		kept := s.controller.Snapshot().SessionID != ""
		s.setNotice(sessionNotice(err, kept))
		return err
	}
	return nil
}

// Retry re-attempts session creation after it failed.
func (s *Surface) Retry(ctx context.Context) error {
	status, ok := s.monitor.Result()
	if !ok {
		return session.ErrBusy
	}
	if !status.Ready {
		return ErrOffline
	}
	s.setNotice("")
	if err := s.controller.Bootstrap(ctx, status); err != nil {
		s.setNotice(sessionNotice(err, false))
		return err
	}
	return nil
}

// DismissNotice hides the current notice.
func (s *Surface) DismissNotice() {
	s.setNotice("")
	s.store.DismissNotice()
}

// View derives the render state.
func (s *Surface) View() RenderState {
	s.mu.Lock()
	draft, notice := s.draft, s.notice
	s.mu.Unlock()

	st := RenderState{Draft: draft}
	status, known := s.monitor.Result()
	st.Status, st.StatusKnown = status, known

	sess := s.controller.Snapshot()
	switch {
	case !known:
		st.Phase = PhaseLoading
	case !status.Ready:
		st.Phase = PhaseOffline
	case sess.SessionID != "":
		st.Phase = PhaseReady
	case sess.State == session.StateUnavailable:
		st.Phase = PhaseSessionUnavailable
	default:
		st.Phase = PhaseLoading
	}

	conv := s.store.Snapshot()
	st.SessionID = sess.SessionID
	if conv.SessionID == sess.SessionID {
		st.Messages = conv.Messages
		st.Pending = conv.Pending
	} else {
		st.Messages = []models.Message{}
	}

	st.InputEnabled = st.Phase == PhaseReady &&
		sess.State == session.StateActive &&
		conv.SessionID == sess.SessionID &&
		!conv.Pending && !conv.Busy
	st.CanSubmit = st.InputEnabled && strings.TrimSpace(draft) != ""

	st.Notice = notice
	if st.Notice == "" && conv.Notice != nil {
		st.Notice = conv.Notice.Text
	}
	return st
}

func (s *Surface) setNotice(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = text
}

func sessionNotice(err error, kept bool) string {
	var reason string
	switch client.KindOf(err) {
	case client.KindUnreachable:
		reason = "the news service could not be reached"
	case client.KindTimeout:
		reason = "the news service took too long to respond"
	case client.KindCanceled:
		reason = "the request was cancelled"
	default:
		reason = "the news service returned an error"
	}
	if errors.Is(err, session.ErrBusy) {
		reason = "a session is already being created"
	}
	if kept {
		return fmt.Sprintf("Couldn't start a new session: %s. You are still in your previous conversation.", reason)
	}
	return fmt.Sprintf("Couldn't start a session: %s. Use /retry to try again.", reason)
}
