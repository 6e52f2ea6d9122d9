package chttp

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestHTTPErrorError(t *testing.T) {
	tests := []struct {
		name     string
		input    *HTTPError
		expected string
	}{
		{
			name:     "No reason",
			input:    &HTTPError{Response: &http.Response{StatusCode: 400}},
			expected: "Bad Request",
		},
		{
			name: "Reason, HTTP code",
			input: &HTTPError{
				Response: &http.Response{StatusCode: 400},
				Reason:   "Bad stuff",
			},
			expected: "Bad Request: Bad stuff",
		},
		{
			name: "error code only",
			input: &HTTPError{
				Response:  &http.Response{StatusCode: 409},
				ErrorCode: "conflict",
			},
			expected: "Conflict: conflict",
		},
		{
			name: "Non-HTTP code",
			input: &HTTPError{
				Response: &http.Response{StatusCode: 604},
				Reason:   "Bad stuff",
			},
			expected: "Bad stuff",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.input.Error(); result != tt.expected {
				t.Errorf("Unexpected result: %s", result)
			}
		})
	}
}

func TestResponseError(t *testing.T) {
	tests := []struct {
		name     string
		resp     *http.Response
		expected *HTTPError
	}{
		{
			name: "non error",
			resp: &http.Response{StatusCode: 201},
		},
		{
			name: "redirect is an error",
			resp: &http.Response{StatusCode: 304, Body: Body("")},
			expected: &HTTPError{
				Response: &http.Response{StatusCode: 304},
			},
		},
		{
			name: "HEAD error",
			resp: &http.Response{
				StatusCode: http.StatusNotFound,
				Request:    &http.Request{Method: "HEAD"},
				Body:       Body(""),
			},
			expected: &HTTPError{
				Response: &http.Response{StatusCode: http.StatusNotFound},
			},
		},
		{
			name: "standard envelope",
			resp: &http.Response{
				StatusCode: http.StatusNotFound,
				Request:    &http.Request{Method: "GET"},
				Body:       Body(`{"error":"not_found","reason":"missing"}`),
			},
			expected: &HTTPError{
				Response:  &http.Response{StatusCode: http.StatusNotFound},
				ErrorCode: "not_found",
				Reason:    "missing",
			},
		},
		{
			name: "non-standard JSON body",
			resp: &http.Response{
				StatusCode: http.StatusInternalServerError,
				Body:       Body(`{"oops":[1,2]}` + "\n"),
			},
			expected: &HTTPError{
				Response: &http.Response{StatusCode: http.StatusInternalServerError},
				Detail:   json.RawMessage(`{"oops":[1,2]}`),
			},
		},
		{
			name: "plain text body",
			resp: &http.Response{
				StatusCode: http.StatusBadGateway,
				Body:       Body("upstream down"),
			},
			expected: &HTTPError{
				Response: &http.Response{StatusCode: http.StatusBadGateway},
				Detail:   json.RawMessage(`"upstream down"`),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ResponseError(tt.resp)
			if tt.expected == nil {
				if err != nil {
					t.Fatalf("Unexpected error: %s", err)
				}
				return
			}
			httpErr, ok := err.(*HTTPError)
			if !ok {
				t.Fatalf("Unexpected error type: %T", err)
			}
			if httpErr.StatusCode() != tt.expected.StatusCode() {
				t.Errorf("Unexpected status: %d", httpErr.StatusCode())
			}
			if d := cmp.Diff(tt.expected, httpErr, cmpopts.IgnoreFields(HTTPError{}, "Response")); d != "" {
				t.Error(d)
			}
		})
	}
}

func TestErrorStatusCodes(t *testing.T) {
	tests := []struct {
		err    statusCoder
		status int
	}{
		{&TransportError{}, http.StatusBadGateway},
		{&DecodeError{}, http.StatusBadGateway},
		{&ArgError{}, http.StatusBadRequest},
		{&HTTPError{Response: &http.Response{StatusCode: 412}}, http.StatusPreconditionFailed},
	}
	for _, tt := range tests {
		if got := tt.err.StatusCode(); got != tt.status {
			t.Errorf("%T: got %d, want %d", tt.err, got, tt.status)
		}
	}
}
