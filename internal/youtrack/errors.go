package youtrack

import (
	"errors"
	"fmt"
)

// Failure kinds. Every *Error wraps exactly one of them, so callers can
// branch with errors.Is.
var (
	ErrTransport  = errors.New("transport failure")
	ErrAuth       = errors.New("authentication failed")
	ErrHTTPStatus = errors.New("unexpected http status")
	ErrParse      = errors.New("malformed response")
)

// Error describes why an operation returned its empty result.
type Error struct {
	Op         string // operation name, e.g. "get projects"
	Kind       error  // one of the Err* kinds
	StatusCode int    // set for ErrAuth and ErrHTTPStatus
	Response   string // error body, when it was read
	Err        error  // underlying cause, if any
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func transportError(op string, err error) *Error {
	return &Error{Op: op, Kind: ErrTransport, Err: err}
}

func statusError(op string, status int) *Error {
	return &Error{Op: op, Kind: ErrHTTPStatus, StatusCode: status}
}

func parseError(op string, err error) *Error {
	return &Error{Op: op, Kind: ErrParse, Err: err}
}
