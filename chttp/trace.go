package chttp

import (
	"context"
	"net/http"
)

type clientTraceContextKey struct{}

// ContextClientTrace returns the ClientTrace associated with the
// provided context. If none, it returns nil.
func ContextClientTrace(ctx context.Context) *ClientTrace {
	trace, _ := ctx.Value(clientTraceContextKey{}).(*ClientTrace)
	return trace
}

// ClientTrace is a set of hooks to run at various stages of an outgoing
// HTTP request. Any particular hook may be nil. Functions may be
// called concurrently from different goroutines and some may be called
// after the request has completed or failed.
type ClientTrace struct {
	// HTTPRequest is called with a clone of the *http.Request just before it
	// is sent, with the body set to nil.
	HTTPRequest func(*http.Request)

	// HTTPResponse is called with a clone of the *http.Response received
	// from the server, with the body set to nil. Response bodies are never
	// buffered for tracing, as a changes feed may not end.
	HTTPResponse func(*http.Response)
}

// WithClientTrace returns a new context based on the provided parent
// ctx. HTTP client requests made with the returned context will use
// the provided trace hooks.
func WithClientTrace(ctx context.Context, trace *ClientTrace) context.Context {
	if trace == nil {
		panic("nil trace")
	}
	return context.WithValue(ctx, clientTraceContextKey{}, trace)
}

func (t *ClientTrace) httpRequest(r *http.Request) {
	if t.HTTPRequest == nil {
		return
	}
	clone := r.Clone(r.Context())
	clone.Body = nil
	t.HTTPRequest(clone)
}

func (t *ClientTrace) httpResponse(r *http.Response) {
	if t.HTTPResponse == nil {
		return
	}
	clone := &http.Response{}
	*clone = *r
	clone.Body = nil
	t.HTTPResponse(clone)
}
