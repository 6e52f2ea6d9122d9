package chttp

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gitlab.com/flimzy/testy"
)

func TestHTTPResponse(t *testing.T) {
	tests := []struct {
		name      string
		trace     func(t *testing.T) *ClientTrace
		resp      *http.Response
		finalResp *http.Response
	}{
		{
			name:      "no hook defined",
			trace:     func(_ *testing.T) *ClientTrace { return &ClientTrace{} },
			resp:      &http.Response{StatusCode: 200},
			finalResp: &http.Response{StatusCode: 200},
		},
		{
			name: "HTTPResponse/cloned response",
			trace: func(t *testing.T) *ClientTrace {
				return &ClientTrace{
					HTTPResponse: func(r *http.Response) {
						if r.StatusCode != 200 {
							t.Errorf("Unexpected status code: %d", r.StatusCode)
						}
						r.StatusCode = 0
						if r.Body != nil {
							t.Errorf("non-nil body")
						}
					},
				}
			},
			resp:      &http.Response{StatusCode: 200, Body: Body("testing")},
			finalResp: &http.Response{StatusCode: 200, Body: Body("testing")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trace := tt.trace(t)
			trace.httpResponse(tt.resp)
			if d := testy.DiffHTTPResponse(tt.finalResp, tt.resp); d != nil {
				t.Error(d)
			}
		})
	}
}

func TestHTTPRequest(t *testing.T) {
	var seen *http.Request
	var seenResp *http.Response
	ctx := WithClientTrace(context.Background(), &ClientTrace{
		HTTPRequest:  func(r *http.Request) { seen = r },
		HTTPResponse: func(r *http.Response) { seenResp = r },
	})
	c := newTestClient(&http.Response{StatusCode: 200, Body: Body("{}")}, nil)
	res, err := c.DoReq(ctx, http.MethodPut, "/db", &Options{Body: strings.NewReader("x")})
	if err != nil {
		t.Fatal(err)
	}
	CloseBody(res.Body)
	if seen == nil {
		t.Fatal("request hook not called")
	}
	if seen.Body != nil {
		t.Error("request body was not cleared")
	}
	if d := cmp.Diff("http://example.com/db", seen.URL.String()); d != "" {
		t.Error(d)
	}
	if seenResp == nil || seenResp.StatusCode != 200 || seenResp.Body != nil {
		t.Errorf("Unexpected traced response: %+v", seenResp)
	}
}

func TestWithClientTraceNil(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic")
		}
	}()
	_ = WithClientTrace(context.Background(), nil)
}
