// Package kernelerr is the kernel's error representation: every
// recoverable failure is reported as a *Error carrying the abi.Status
// it maps to, plus an optional cause and captured stack trace, so
// callers can use errors.Is/errors.As against abi.Status codes.
package kernelerr

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/dgaur/dx-kernel/abi"
)

// Error is the kernel's error type.
type Error struct {
	Status     abi.Status
	Message    string
	Cause      error
	StackTrace string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Status, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Status, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same Status code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Status == t.Status
	}
	if s, ok := target.(abi.Status); ok {
		return e.Status == s
	}
	return false
}

// WithContext prefixes Message with context, keeping Status and Cause.
func (e *Error) WithContext(context string) *Error {
	return &Error{
		Status:     e.Status,
		Message:    fmt.Sprintf("%s: %s", context, e.Message),
		Cause:      e.Cause,
		StackTrace: e.StackTrace,
	}
}

// New creates an Error with no wrapped cause.
func New(status abi.Status, message string) *Error {
	return &Error{
		Status:     status,
		Message:    message,
		StackTrace: captureStackTrace(),
	}
}

// Wrap attaches status and message to an existing error. Returns nil
// if err is nil, so it composes with `if err := ...; err != nil`.
func Wrap(err error, status abi.Status, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Status:     status,
		Message:    message,
		Cause:      err,
		StackTrace: captureStackTrace(),
	}
}

// Is reports whether err's Status matches status, unwrapping through
// any chain of wrapped causes. A nil err never matches.
func Is(err error, status abi.Status) bool {
	return errors.Is(err, status)
}

// captureStackTrace captures the caller's stack, trimming the frames
// inside this package.
func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	stack := string(buf[:n])

	lines := strings.Split(stack, "\n")
	if len(lines) > 4 {
		lines = lines[4:]
	}
	return strings.Join(lines, "\n")
}
