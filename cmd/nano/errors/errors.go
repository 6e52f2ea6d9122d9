// Package errors maps failures to the CLI's exit status codes.
package errors

import (
	"errors"
	"fmt"

	"github.com/go-kivik/nano/chttp"
)

// Exit status codes
const (
	// ErrUnknown indicates a failure which fits no other category.
	ErrUnknown = 1
	// ErrUsage indicates an incorrect command, option, or unparseable
	// configuration or input.
	ErrUsage = 2
	// ErrConnection indicates that the server could not be reached, or the
	// connection failed mid-response.
	ErrConnection = 3
	// ErrNotFound indicates that the server responded with a 404 error.
	ErrNotFound = 4
	// ErrRemote indicates that the server rejected the request with any
	// other error status.
	ErrRemote = 5
	// ErrDecode indicates that the server's response could not be decoded.
	ErrDecode = 6
)

type statusErr struct {
	error
	code int
}

func (e *statusErr) Unwrap() error {
	return e.error
}

func (e *statusErr) ExitStatus() int {
	return e.code
}

// WithCode wraps err with an exit status code.
func WithCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &statusErr{
		error: err,
		code:  code,
	}
}

// Code returns a new error with an error code. If err is an existing error, it
// is wrapped with the error code. All other values are passed to fmt.Sprint.
//
// If err is a single nil value, nil is returned.
func Code(code int, err ...interface{}) error {
	if len(err) == 1 {
		if err[0] == nil {
			return nil
		}
		if e, ok := err[0].(error); ok {
			return WithCode(e, code)
		}
	}
	return &statusErr{
		error: errors.New(fmt.Sprint(err...)),
		code:  code,
	}
}

// Codef wraps the output of fmt.Errorf with a code.
func Codef(code int, format string, args ...interface{}) error {
	return &statusErr{
		error: fmt.Errorf(format, args...),
		code:  code,
	}
}

// InspectErrorCode returns the exit status for err.
func InspectErrorCode(err error) int {
	if err == nil {
		return 0
	}
	exitErr := new(statusErr)
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus()
	}
	var httpErr *chttp.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode() == 404 {
			return ErrNotFound
		}
		return ErrRemote
	}
	var transportErr *chttp.TransportError
	if errors.As(err, &transportErr) {
		return ErrConnection
	}
	var decodeErr *chttp.DecodeError
	if errors.As(err, &decodeErr) {
		return ErrDecode
	}
	var argErr *chttp.ArgError
	if errors.As(err, &argErr) {
		return ErrUsage
	}
	return ErrUnknown
}
