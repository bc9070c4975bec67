// Package apperrors provides the application error type used across the
// server. It extends the standard error interface with error chaining and an
// HTTP status code so handlers can map domain failures to responses without
// switching on error values.
package apperrors

import (
	"errors"
	"strings"
)

// Error is the interface implemented by all application errors. Methods that
// produce errors return Error to support chaining. An Error created from
// another Error inherits its status code unless overridden.
type Error interface {
	error
	Unwrap() error // support for errors.Is / errors.As

	New(msg string) Error          // derives a fresh error using the current one as template
	Msg(msg string) Error          // wraps the current error under a new message
	Err(errs ...error) Error       // attaches additional causes to the current error
	SetStatusCode(code int) Error  // sets the HTTP status code
	StatusCode() int               // returns the HTTP status code
	ErrorAll() string              // message including all attached causes
}

type appError struct {
	msg        string
	base       error
	causes     []error
	statuscode int
}

// New creates a root-level error with the given message and no status code.
func New(msg string) Error {
	return &appError{msg: msg}
}

func (e *appError) Error() string {
	return e.msg
}

// ErrorAll returns the message followed by every attached cause.
func (e *appError) ErrorAll() string {
	if len(e.causes) == 0 {
		return e.msg
	}
	var b strings.Builder
	b.WriteString(e.msg)
	for _, err := range e.causes {
		b.WriteString("; ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *appError) Unwrap() error {
	return e.base
}

// New derives a fresh error that matches the current error under errors.Is
// and inherits its status code.
func (e *appError) New(msg string) Error {
	return &appError{
		msg:        msg,
		base:       e,
		statuscode: e.statuscode,
	}
}

// Msg wraps the current error under a new message, keeping it as a cause.
func (e *appError) Msg(msg string) Error {
	return &appError{
		msg:        msg,
		base:       e,
		causes:     append([]error{e}, e.causes...),
		statuscode: e.statuscode,
	}
}

// Err attaches additional causes while keeping the current message.
func (e *appError) Err(errs ...error) Error {
	return &appError{
		msg:        e.msg,
		base:       e,
		causes:     append([]error{e}, errs...),
		statuscode: e.statuscode,
	}
}

// SetStatusCode returns a copy with the given HTTP status code.
func (e *appError) SetStatusCode(code int) Error {
	cp := *e
	cp.statuscode = code
	return &cp
}

func (e *appError) StatusCode() int {
	return e.statuscode
}

// Is reports whether target matches the base error or any attached cause.
func (e *appError) Is(target error) bool {
	if target == nil {
		return false
	}
	if errors.Is(e.base, target) {
		return true
	}
	for _, err := range e.causes {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
