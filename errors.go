package nano

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/go-kivik/nano/chttp"
)

func missingArg(arg string) error {
	return &chttp.ArgError{Err: errors.Errorf("nano: %s required", arg)}
}

func badArg(format string, args ...interface{}) error {
	return &chttp.ArgError{Err: errors.Errorf("nano: "+format, args...)}
}

type statusCoder interface {
	StatusCode() int
}

// HTTPStatus returns the HTTP status code associated with err. Errors raised
// by this package carry a status: the server's status for remote rejections,
// 502 for transport and decode failures, and 400 for invalid arguments. A
// nil error returns 0, and any other error 500.
func HTTPStatus(err error) int {
	if err == nil {
		return 0
	}
	var coder statusCoder
	if errors.As(err, &coder) {
		return coder.StatusCode()
	}
	return http.StatusInternalServerError
}

// IsRemote reports whether err is a rejection sent by the server.
func IsRemote(err error) bool {
	var httpErr *chttp.HTTPError
	return errors.As(err, &httpErr)
}

// ErrorCode returns the server's error code, such as "conflict", for a
// remote rejection, or "" for any other error.
func ErrorCode(err error) string {
	var httpErr *chttp.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.ErrorCode
	}
	return ""
}

// IsNotFound reports whether the server answered 404 Not Found.
func IsNotFound(err error) bool {
	return IsRemote(err) && HTTPStatus(err) == http.StatusNotFound
}

// IsConflict reports whether the server answered 409 Conflict.
func IsConflict(err error) bool {
	return IsRemote(err) && HTTPStatus(err) == http.StatusConflict
}
