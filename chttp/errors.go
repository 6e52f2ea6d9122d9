package chttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type statusCoder interface {
	StatusCode() int
}

// HTTPError is returned when the server answers with a status outside of the
// 2xx range.
type HTTPError struct {
	// Response is the response received from the server. Its body has been
	// consumed and closed.
	Response *http.Response `json:"-"`

	// ErrorCode is the "error" member of the response body, such as
	// "not_found" or "conflict".
	ErrorCode string `json:"error"`

	// Reason is the "reason" member of the response body.
	Reason string `json:"reason"`

	// Detail holds the raw response body when it is not of the
	// {"error","reason"} form.
	Detail json.RawMessage `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Reason == "" {
		if e.ErrorCode != "" {
			return fmt.Sprintf("%s: %s", http.StatusText(e.StatusCode()), e.ErrorCode)
		}
		return http.StatusText(e.StatusCode())
	}
	if statusText := http.StatusText(e.StatusCode()); statusText != "" {
		return fmt.Sprintf("%s: %s", statusText, e.Reason)
	}
	return e.Reason
}

// StatusCode returns the HTTP status code of the response.
func (e *HTTPError) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

// maxErrorBody caps how much of an error response is retained.
const maxErrorBody = 1 << 20

// ResponseError returns an error from an *http.Response if the status code
// indicates failure. The body is consumed and closed in that case.
func ResponseError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	httpErr := &HTTPError{Response: resp}
	if resp.Body == nil {
		return httpErr
	}
	defer CloseBody(resp.Body)
	if resp.Request != nil && resp.Request.Method == http.MethodHead {
		return httpErr
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return httpErr
	}
	var envelope struct {
		Error  *string `json:"error"`
		Reason *string `json:"reason"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		httpErr.ErrorCode = *envelope.Error
		if envelope.Reason != nil {
			httpErr.Reason = *envelope.Reason
		}
		return httpErr
	}
	if json.Valid(body) {
		httpErr.Detail = body
	} else {
		httpErr.Detail, _ = json.Marshal(string(body))
	}
	return httpErr
}

// TransportError indicates that the request could not be completed, because
// of a network, TLS or timeout failure, or because the response body could
// not be read.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error { return e.Err }

// StatusCode returns 502 Bad Gateway.
func (e *TransportError) StatusCode() int { return http.StatusBadGateway }

// DecodeError indicates that a response, or a change record, was received
// but could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error { return e.Err }

// StatusCode returns 502 Bad Gateway.
func (e *DecodeError) StatusCode() int { return http.StatusBadGateway }

// ArgError indicates that a request could not be built from the arguments
// provided, and was never sent.
type ArgError struct {
	Err error
}

func (e *ArgError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *ArgError) Unwrap() error { return e.Err }

// StatusCode returns 400 Bad Request.
func (e *ArgError) StatusCode() int { return http.StatusBadRequest }
