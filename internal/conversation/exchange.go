package conversation

import (
	"fmt"

	"github.com/priyanshu2307/Newschat/internal/models"
)

// ExchangeState tracks one user message through to its reply.
type ExchangeState int

const (
	ExchangeIdle ExchangeState = iota
	ExchangeSending
	ExchangeSettled // the service answered
	ExchangeFailed  // a system notice stands in for the answer
)

func (s ExchangeState) String() string {
	switch s {
	case ExchangeIdle:
		return "idle"
	case ExchangeSending:
		return "sending"
	case ExchangeSettled:
		return "settled"
	case ExchangeFailed:
		return "failed"
	}
	return fmt.Sprintf("exchange_state(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s ExchangeState) Terminal() bool {
	return s == ExchangeSettled || s == ExchangeFailed
}

// Exchange is one user message and its outcome.
type Exchange struct {
	Seq       int
	SessionID string
	Text      string
	State     ExchangeState

	// Reply is the message appended after the user's: the assistant answer
	// when settled, a system notice when failed.
	Reply models.Message
	Err   error

	// Discarded is set when the session changed before the outcome arrived;
	// Reply was then not appended anywhere.
	Discarded bool
}

func (e *Exchange) transition(to ExchangeState) {
	ok := false
	switch e.State {
	case ExchangeIdle:
		ok = to == ExchangeSending
	case ExchangeSending:
		ok = to.Terminal()
	}
	if !ok {
		panic(fmt.Sprintf("conversation: exchange %d: illegal transition %s -> %s", e.Seq, e.State, to))
	}
	e.State = to
}

func (e *Exchange) begin() {
	e.transition(ExchangeSending)
}

func (e *Exchange) settle(reply models.Message) {
	e.transition(ExchangeSettled)
	e.Reply = reply
}

func (e *Exchange) fail(err error) {
	e.transition(ExchangeFailed)
	e.Err = err
	e.Reply = models.SystemMessage(FailureText(err))
}
