package conversation

import (
	"fmt"

	"github.com/priyanshu2307/Newschat/internal/client"
)

// DefaultFailureText is the system message for a failed exchange when
// nothing more specific applies.
const DefaultFailureText = "Sorry, there was an error processing your message. Please try again."

// CanceledText is the system message for an exchange the user abandoned.
const CanceledText = "Request cancelled before an answer arrived."

// FailureText returns the user-facing system message for a failed exchange.
// A timeout is reported as a failure; the message is never resent.
func FailureText(err error) string {
	switch client.KindOf(err) {
	case client.KindTimeout:
		return "Sorry, the answer took too long to arrive. Your message may not have been processed. Please try again."
	case client.KindUnreachable:
		return "Sorry, the news service could not be reached. Please check your connection and try again."
	case client.KindNotFound:
		return "Sorry, this conversation has expired. Start a new session to keep chatting."
	case client.KindCanceled:
		return CanceledText
	}
	return DefaultFailureText
}

// Notice is a dismissible report of a failure that did not produce a log
// entry.
type Notice struct {
	Op   string
	Kind client.Kind
	Text string
}

func newNotice(op string, err error) *Notice {
	kind := client.KindOf(err)
	var text string
	switch op {
	case client.OpFetchHistory:
		text = fmt.Sprintf("Couldn't load the conversation history: %s.", reason(kind))
	case client.OpClearHistory:
		text = fmt.Sprintf("Couldn't clear the conversation: %s. Nothing was changed.", reason(kind))
	default:
		text = fmt.Sprintf("Something went wrong: %s.", reason(kind))
	}
	return &Notice{Op: op, Kind: kind, Text: text}
}

func reason(kind client.Kind) string {
	switch kind {
	case client.KindUnreachable:
		return "the news service could not be reached"
	case client.KindTimeout:
		return "the news service took too long to respond"
	case client.KindNotFound:
		return "the session has expired"
	case client.KindInvalid:
		return "the request was invalid"
	case client.KindCanceled:
		return "the request was cancelled"
	}
	return "the news service returned an error"
}
