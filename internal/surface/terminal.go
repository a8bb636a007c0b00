package surface

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/priyanshu2307/Newschat/internal/logging"
	"go.uber.org/zap"
)

const helpText = `Type a question and press Enter to send it.
Commands:
  /clear    clear the conversation
  /new      start a new session
  /retry    retry starting a session
  /dismiss  hide the current notice
  /help     show this help
  /quit     leave`

// TerminalOpts holds parameters for creating a Terminal.
type TerminalOpts struct {
	Surface  *Surface  // required
	Renderer *Renderer // required
	// Updates signals that conversation state changed in the background,
	// e.g. the conversation store's OnUpdate hook. Optional.
	Updates <-chan struct{}
	Logger  *zap.Logger
}

// Terminal runs a Surface as a line-oriented chat.
type Terminal struct {
	surface  *Surface
	renderer *Renderer
	updates  <-chan struct{}
	logger   *zap.Logger

	// what has been written so far
	sessionID string
	printed   int
	pending   bool
	notice    string
}

// NewTerminal creates a Terminal.
func NewTerminal(opts TerminalOpts) (*Terminal, error) {
	if opts.Surface == nil || opts.Renderer == nil {
		return nil, fmt.Errorf("surface: terminal: surface and renderer are required")
	}
	return &Terminal{
		surface:  opts.Surface,
		renderer: opts.Renderer,
		updates:  opts.Updates,
		logger:   logging.OrNop(opts.Logger).Named("terminal"),
	}, nil
}

// Run starts the surface and reads lines from in until EOF, /quit or ctx is
// done. Input keeps being read while an answer is awaited; messages typed in
// that window are rejected, not queued. An exchange abandoned by /new does
// not block the new session.
func (t *Terminal) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := t.surface.Start(ctx); err != nil {
		t.logger.Warn("start failed", zap.Error(err))
	}
	view := t.surface.View()
	t.renderer.Render(out, view)
	t.sync(view)
	if view.Phase == PhaseOffline {
		return nil
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	// Each submission goroutine reports the session it was sent on.
	done := make(chan string)
	inFlight := make(map[string]int)
	outstanding := 0
	wait := func() {
		for ; outstanding > 0; outstanding-- {
			inFlight[<-done]--
		}
	}

	for {
		select {
		case <-ctx.Done():
			wait()
			return nil

		case id := <-done:
			outstanding--
			inFlight[id]--
			t.refresh(out)

		case <-t.updates:
			t.refresh(out)

		case line, ok := <-lines:
			if !ok {
				if outstanding > 0 {
					wait()
					t.refresh(out)
				}
				return nil
			}
			quit, sessionID := t.handle(ctx, out, strings.TrimSpace(line), inFlight, done)
			if sessionID != "" {
				outstanding++
				inFlight[sessionID]++
			}
			t.refresh(out)
			if quit {
				cancel()
				wait()
				return nil
			}
		}
	}
}

// handle dispatches one input line. It reports whether the user asked to
// quit and, when an exchange was started in the background, the session it
// was sent on.
func (t *Terminal) handle(ctx context.Context, out io.Writer, line string, inFlight map[string]int, done chan<- string) (quit bool, started string) {
	switch line {
	case "":
		return false, ""
	case "/quit", "/exit":
		return true, ""
	case "/help":
		fmt.Fprintln(out, helpText)
	case "/clear":
		if err := t.surface.ClearChat(ctx); err != nil {
			t.logger.Debug("clear rejected", zap.Error(err))
		}
	case "/new":
		if err := t.surface.NewSession(ctx); err != nil {
			t.logger.Debug("new session failed", zap.Error(err))
		}
	case "/retry":
		if err := t.surface.Retry(ctx); err != nil {
			t.logger.Debug("retry failed", zap.Error(err))
		}
	case "/dismiss":
		t.surface.DismissNotice()
	default:
		if strings.HasPrefix(line, "/") {
			fmt.Fprintf(out, "Unknown command %s. Type /help for the list.\n", line)
			return false, ""
		}
		view := t.surface.View()
		// A submission still starting up is not Pending yet, so the
		// session's own count is checked too.
		if view.Pending || inFlight[view.SessionID] > 0 {
			t.surface.setNotice(pendingNotice)
			return false, ""
		}
		t.surface.SetDraft(line)
		if !t.surface.View().CanSubmit {
			_, err := t.surface.Submit(ctx)
			t.logger.Debug("submit rejected", zap.Error(err))
			t.surface.SetDraft("")
			return false, ""
		}
		sessionID := view.SessionID
		go func() {
			if _, err := t.surface.Submit(ctx); err != nil {
				t.logger.Debug("submit rejected", zap.Error(err))
			}
			done <- sessionID
		}()
		return false, sessionID
	}
	return false, ""
}

// refresh writes whatever changed since the last write.
func (t *Terminal) refresh(out io.Writer) {
	view := t.surface.View()

	if view.SessionID != t.sessionID {
		if t.sessionID != "" && view.SessionID != "" {
			fmt.Fprintln(out, t.renderer.dim.Sprint("--- new session ---"))
			if len(view.Messages) == 0 {
				fmt.Fprintln(out, t.renderer.Welcome())
			}
		} else if msg := t.renderer.Phase(view); msg != "" {
			fmt.Fprintln(out, msg)
		}
		t.printed = 0
	} else if len(view.Messages) < t.printed {
		fmt.Fprintln(out, t.renderer.dim.Sprint("--- conversation cleared ---"))
		if len(view.Messages) == 0 {
			fmt.Fprintln(out, t.renderer.Welcome())
		}
		t.printed = 0
	}

	for _, m := range view.Messages[t.printed:] {
		fmt.Fprintln(out, t.renderer.Message(m))
	}
	if view.Pending && !t.pending {
		fmt.Fprintln(out, t.renderer.Pending())
	}
	if view.Notice != "" && view.Notice != t.notice {
		fmt.Fprintln(out, t.renderer.Notice(view.Notice))
	}
	t.sync(view)
}

func (t *Terminal) sync(view RenderState) {
	t.sessionID = view.SessionID
	t.printed = len(view.Messages)
	t.pending = view.Pending
	t.notice = view.Notice
}
