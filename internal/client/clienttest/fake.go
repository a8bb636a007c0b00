// Package clienttest provides a scripted in-memory stand-in for the answering
// service client.
package clienttest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/priyanshu2307/Newschat/internal/client"
	"github.com/priyanshu2307/Newschat/internal/models"
)

// Post records one PostMessage call that reached the fake backend.
type Post struct {
	SessionID string
	Text      string
}

// Fake implements the status, session and conversation backend interfaces.
// Failures are scripted per operation with FailNext; operations can be held
// open with Hold to observe in-flight state.
type Fake struct {
	mu        sync.Mutex
	status    models.StatusReport
	ids       []string
	minted    int
	histories map[string][]models.Message
	expired   map[string]bool
	replies   []string
	failures  map[string][]error
	calls     map[string]int
	posts     []Post
	cleared   []string
	gates     map[string]chan struct{}
	entered   map[string]chan struct{}
}

// NewFake returns a Fake that reports itself online with no articles and
// mints session ids "session-1", "session-2", ...
func NewFake() *Fake {
	return &Fake{
		status:    models.StatusReport{Status: models.StatusOnline},
		histories: make(map[string][]models.Message),
		expired:   make(map[string]bool),
		failures:  make(map[string][]error),
		calls:     make(map[string]int),
		gates:     make(map[string]chan struct{}),
		entered:   make(map[string]chan struct{}),
	}
}

// Err builds a client error of the given kind, as the real client would.
func Err(op string, kind client.Kind) error {
	return &client.Error{Op: op, Kind: kind, Err: fmt.Errorf("scripted %s", kind)}
}

// SetStatus sets the report returned by ProbeStatus.
func (f *Fake) SetStatus(report models.StatusReport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = report
}

// QueueSessionIDs sets the ids returned by the next CreateSession calls.
func (f *Fake) QueueSessionIDs(ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, ids...)
}

// SetHistory seeds the backend log for a session.
func (f *Fake) SetHistory(sessionID string, msgs ...models.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histories[sessionID] = append([]models.Message(nil), msgs...)
}

// History returns the backend log for a session.
func (f *Fake) History(sessionID string) []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Message(nil), f.histories[sessionID]...)
}

// Expire makes the backend forget a session: later session-scoped calls
// fail with KindNotFound.
func (f *Fake) Expire(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired[sessionID] = true
	delete(f.histories, sessionID)
}

// QueueReplies sets the assistant replies for the next PostMessage calls.
// Without a queued reply the fake answers "echo: <text>".
func (f *Fake) QueueReplies(replies ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, replies...)
}

// FailNext makes the next call to op fail with err. Calls queue up, so
// FailNext twice fails the next two calls.
func (f *Fake) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = append(f.failures[op], err)
}

// Hold makes calls to op block until Release(op) or their context ends.
func (f *Fake) Hold(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gates[op] == nil {
		f.gates[op] = make(chan struct{})
	}
}

// Release unblocks every call held on op.
func (f *Fake) Release(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g := f.gates[op]; g != nil {
		close(g)
		delete(f.gates, op)
	}
}

// Entered returns a channel that receives once each time a call to op
// starts.
func (f *Fake) Entered(op string) <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enteredLocked(op)
}

func (f *Fake) enteredLocked(op string) chan struct{} {
	ch := f.entered[op]
	if ch == nil {
		ch = make(chan struct{}, 64)
		f.entered[op] = ch
	}
	return ch
}

// Calls returns how many times op has been invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Posts returns every PostMessage call in order.
func (f *Fake) Posts() []Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Post(nil), f.posts...)
}

// PostCount returns the number of PostMessage calls.
func (f *Fake) PostCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

// LastPost returns the most recent PostMessage call, or nil.
func (f *Fake) LastPost() *Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.posts) == 0 {
		return nil
	}
	p := f.posts[len(f.posts)-1]
	return &p
}

// Cleared returns the session ids successfully cleared, in order.
func (f *Fake) Cleared() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cleared...)
}

// enter counts the call, announces it, waits on any hold, and pops a scripted
// failure.
func (f *Fake) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	select {
	case f.enteredLocked(op) <- struct{}{}:
	default:
	}
	gate := f.gates[op]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			kind := client.KindCanceled
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				kind = client.KindTimeout
			}
			return &client.Error{Op: op, Kind: kind, Err: ctx.Err()}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if q := f.failures[op]; len(q) > 0 {
		f.failures[op] = q[1:]
		return q[0]
	}
	return nil
}

func (f *Fake) checkSession(op, sessionID string) error {
	if sessionID == "" {
		return client.Invalid(op, errors.New("session id is empty"))
	}
	if f.expired[sessionID] {
		return &client.Error{Op: op, Kind: client.KindNotFound, StatusCode: 404, Err: errors.New("session not found")}
	}
	return nil
}

// ProbeStatus returns the configured report.
func (f *Fake) ProbeStatus(ctx context.Context) (models.StatusReport, error) {
	if err := f.enter(ctx, client.OpProbeStatus); err != nil {
		return models.StatusReport{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

// CreateSession returns the next queued id or mints one.
func (f *Fake) CreateSession(ctx context.Context) (string, error) {
	if err := f.enter(ctx, client.OpCreateSession); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var id string
	if len(f.ids) > 0 {
		id, f.ids = f.ids[0], f.ids[1:]
	} else {
		f.minted++
		id = fmt.Sprintf("session-%d", f.minted)
	}
	if _, ok := f.histories[id]; !ok {
		f.histories[id] = nil
	}
	return id, nil
}

// FetchHistory returns a copy of the seeded log.
func (f *Fake) FetchHistory(ctx context.Context, sessionID string) ([]models.Message, error) {
	if err := f.enter(ctx, client.OpFetchHistory); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkSession(client.OpFetchHistory, sessionID); err != nil {
		return nil, err
	}
	return append([]models.Message{}, f.histories[sessionID]...), nil
}

// PostMessage records the call and answers with the next reply. A
// successful exchange is appended to the backend log like the real service.
func (f *Fake) PostMessage(ctx context.Context, sessionID, text string) (models.Message, error) {
	f.mu.Lock()
	f.posts = append(f.posts, Post{SessionID: sessionID, Text: text})
	f.mu.Unlock()

	if err := f.enter(ctx, client.OpPostMessage); err != nil {
		return models.Message{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkSession(client.OpPostMessage, sessionID); err != nil {
		return models.Message{}, err
	}
	if strings.TrimSpace(text) == "" {
		return models.Message{}, client.Invalid(client.OpPostMessage, errors.New("message is empty"))
	}

	reply := "echo: " + text
	if len(f.replies) > 0 {
		reply, f.replies = f.replies[0], f.replies[1:]
	}
	msg := models.AssistantMessage(reply)
	f.histories[sessionID] = append(f.histories[sessionID], models.UserMessage(text), msg)
	return msg, nil
}

// ClearHistory empties the backend log for a session.
func (f *Fake) ClearHistory(ctx context.Context, sessionID string) error {
	if err := f.enter(ctx, client.OpClearHistory); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkSession(client.OpClearHistory, sessionID); err != nil {
		return err
	}
	f.histories[sessionID] = nil
	f.cleared = append(f.cleared, sessionID)
	return nil
}
