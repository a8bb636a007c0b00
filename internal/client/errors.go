package client

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies why a backend operation failed.
type Kind int

const (
	// KindServiceError means the backend answered but indicated failure, or
	// answered with something the client could not understand.
	KindServiceError Kind = iota
	// KindUnreachable means no response arrived: no route, refused connection, reset.
	KindUnreachable
	// KindNotFound means the session id is unknown to the backend (e.g. expired).
	KindNotFound
	// KindTimeout means the request deadline passed before a response arrived.
	KindTimeout
	// KindInvalid means the input was rejected locally before any request was made.
	KindInvalid
	// KindCanceled means the caller gave up on the request, e.g. on Ctrl-C.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindServiceError:
		return "service_error"
	case KindUnreachable:
		return "unreachable"
	case KindNotFound:
		return "not_found"
	case KindTimeout:
		return "timeout"
	case KindInvalid:
		return "invalid"
	case KindCanceled:
		return "canceled"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the failure returned by every Client operation.
type Error struct {
	Op         string // "probe_status", "create_session", ...
	Kind       Kind
	StatusCode int // HTTP status when the backend answered, else 0
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("client: %s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err. Errors that did not come from this
// package are reported as KindServiceError.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindServiceError
}

// IsKind reports whether err is a client Error of kind k.
func IsKind(err error, k Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == k
}

// Invalid builds a KindInvalid error for input rejected before any request.
func Invalid(op string, err error) *Error {
	return &Error{Op: op, Kind: KindInvalid, Err: err}
}

// classifyTransport maps an error from http.Client.Do onto a Kind.
func classifyTransport(ctx context.Context, err error) Kind {
	if isTimeout(ctx, err) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return KindCanceled
	}
	return KindUnreachable
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
