// Package apperr carries the error kinds surfaced to API callers. Every
// *Error exposes its kind through Extensions, which graphql-go copies into
// the "extensions.code" field of the response.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	Unauthenticated Code = "UNAUTHENTICATED"
	BadUserInput    Code = "BAD_USER_INPUT"
	NotFound        Code = "NOT_FOUND"
	Conflict        Code = "CONFLICT"
	Forbidden       Code = "FORBIDDEN"
	Downstream      Code = "DOWNSTREAM_UNAVAILABLE"
	Internal        Code = "INTERNAL_SERVER_ERROR"
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Extensions is read by graphql-go when rendering resolver errors.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": string(e.Code)}
}

func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func Unauthenticatedf(format string, args ...interface{}) *Error {
	return New(Unauthenticated, format, args...)
}

func Invalidf(format string, args ...interface{}) *Error {
	return New(BadUserInput, format, args...)
}

func NotFoundf(format string, args ...interface{}) *Error {
	return New(NotFound, format, args...)
}

func Conflictf(format string, args ...interface{}) *Error {
	return New(Conflict, format, args...)
}

func Forbiddenf(format string, args ...interface{}) *Error {
	return New(Forbidden, format, args...)
}

// CodeOf returns the kind of err, or Internal for anything untyped.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Public converts err into something safe to return to a caller: typed
// errors pass through, everything else collapses to a generic internal error.
func Public(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Code: Internal, Message: "internal server error"}
}
