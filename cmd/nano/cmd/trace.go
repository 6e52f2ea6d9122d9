package cmd

import (
	"bytes"
	"net/http"
	"net/http/httputil"

	"github.com/go-kivik/nano/chttp"
)

func (r *root) clientTrace() *chttp.ClientTrace {
	r.trace = &chttp.ClientTrace{}
	return r.trace
}

// setTrace installs the --verbose hooks. Response bodies are not dumped, as
// that would buffer streaming changes feeds.
func (r *root) setTrace() {
	if r.trace == nil || !r.conf.Verbose {
		return
	}
	r.trace.HTTPRequest = r.traceHTTPRequest
	r.trace.HTTPResponse = r.traceHTTPResponse
}

func (r *root) traceHTTPRequest(req *http.Request) {
	dump, _ := httputil.DumpRequestOut(req, false)
	r.dump(">", dump)
}

func (r *root) traceHTTPResponse(resp *http.Response) {
	dump, _ := httputil.DumpResponse(resp, false)
	r.dump("<", dump)
}

func (r *root) dump(prefix string, dump []byte) {
	for _, line := range bytes.Split(dump, []byte("\n")) {
		if line = bytes.TrimRight(line, "\r"); len(line) > 0 {
			r.log.Infof("%s %s", prefix, string(line))
		}
	}
}
