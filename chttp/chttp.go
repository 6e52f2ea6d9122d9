// Package chttp provides a minimal HTTP driver backend for communicating with
// CouchDB servers.
package chttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-kivik/nano/log"
)

const typeJSON = "application/json"

// The default UserAgent values
const (
	UserAgent = "nano-chttp"
	Version   = "0.1.0"
)

// Client represents a client connection. It embeds an *http.Client
type Client struct {
	// UserAgents is appended to set the User-Agent header. Typically it should
	// contain pairs of product name and version.
	UserAgents []string

	*http.Client

	rawDSN   string
	dsn      *url.URL
	basePath string
	auth     Authenticator
	authMU   sync.Mutex
	log      log.Logger
}

// New returns a connection to a remote CouchDB server. If credentials are
// included in the URL, requests will be authenticated using HTTP Basic Auth.
//
// The passed *http.Client is copied, so that authenticators may replace the
// transport without affecting other users of the same client. The connection
// pool of the underlying transport is still shared. If client is nil,
// http.DefaultClient is used.
func New(client *http.Client, dsn string) (*Client, error) {
	dsnURL, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	user := dsnURL.User
	dsnURL.User = nil
	if client == nil {
		client = http.DefaultClient
	}
	hc := *client
	c := &Client{
		Client:   &hc,
		dsn:      dsnURL,
		basePath: strings.TrimSuffix(dsnURL.Path, "/"),
		rawDSN:   dsn,
		log:      log.NewNil(),
	}
	if user != nil {
		password, _ := user.Password()
		if err := c.SetAuth(&BasicAuth{
			Username: user.Username(),
			Password: password,
		}); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func parseDSN(dsn string) (*url.URL, error) {
	if dsn == "" {
		return nil, &ArgError{Err: fmt.Errorf("no URL specified")}
	}
	if !strings.HasPrefix(dsn, "http://") && !strings.HasPrefix(dsn, "https://") {
		dsn = "http://" + dsn
	}
	dsnURL, err := url.Parse(dsn)
	if err != nil {
		return nil, &ArgError{Err: err}
	}
	if dsnURL.Path == "" {
		dsnURL.Path = "/"
	}
	return dsnURL, nil
}

// SetAuth installs a, replacing any previously installed authenticator.
func (c *Client) SetAuth(a Authenticator) error {
	if old, ok := c.auth.(interface{ restore(*Client) }); ok {
		old.restore(c)
	}
	if err := a.Authenticate(c); err != nil {
		return err
	}
	c.auth = a
	return nil
}

// SetLogger sets the logger used for per-request debug output.
func (c *Client) SetLogger(l log.Logger) {
	if l == nil {
		l = log.NewNil()
	}
	c.log = l
}

// DSN returns the unparsed DSN used to connect.
func (c *Client) DSN() string {
	return c.rawDSN
}

// URL returns the base URL of the server, without credentials.
func (c *Client) URL() *url.URL {
	u := *c.dsn
	return &u
}

// DoJSON combines DoReq() and, ResponseError(), and (*json.Decoder).Decode(),
// closing the response body.
func (c *Client) DoJSON(ctx context.Context, method, path string, opts *Options, i interface{}) error {
	res, err := c.DoError(ctx, method, path, opts)
	if err != nil {
		return err
	}
	if res.Body != nil {
		defer CloseBody(res.Body)
	}
	return DecodeJSON(res, i)
}

// DecodeJSON unmarshals the response body into i. Any failure is reported as
// a *DecodeError.
func DecodeJSON(r *http.Response, i interface{}) error {
	if r.Body == nil {
		return &DecodeError{Err: io.ErrUnexpectedEOF}
	}
	if err := json.NewDecoder(r.Body).Decode(i); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// NewRequest returns a new *http.Request to the CouchDB server, and the
// specified path. The host, schema, etc, of the specified path are ignored.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader, opts *Options) (*http.Request, error) {
	reqPath, err := url.Parse(c.path(path))
	if err != nil {
		return nil, &ArgError{Err: err}
	}
	u := *c.dsn
	u.Path = reqPath.Path
	u.RawPath = reqPath.RawPath
	u.RawQuery = reqPath.RawQuery
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, &ArgError{Err: err}
	}
	req.Header.Add("User-Agent", c.userAgent())
	setHeaders(req, opts)
	setQuery(req, opts)
	return req, nil
}

func (c *Client) path(path string) string {
	if c.basePath == "" {
		return "/" + strings.TrimPrefix(path, "/")
	}
	return c.basePath + "/" + strings.TrimPrefix(path, "/")
}

// DoReq does an HTTP request. An error is returned only if there was an error
// processing the request. In particular, an error status code, such as 400
// or 500, does _not_ cause an error to be returned.
func (c *Client) DoReq(ctx context.Context, method, path string, opts *Options) (*http.Response, error) {
	if method == "" {
		return nil, &ArgError{Err: fmt.Errorf("chttp: method required")}
	}
	var body io.Reader
	if opts != nil {
		switch {
		case opts.JSON != nil:
			buf, err := json.Marshal(opts.JSON)
			if err != nil {
				return nil, &ArgError{Err: err}
			}
			body = bytes.NewReader(buf)
		case opts.Body != nil:
			body = opts.Body
		}
	}
	req, err := c.NewRequest(ctx, method, path, body, opts)
	if err != nil {
		return nil, err
	}
	trace := ContextClientTrace(ctx)
	if trace != nil {
		trace.httpRequest(req)
	}
	start := time.Now()
	response, err := c.Do(req)
	if err != nil {
		c.log.Debugf("%s %s: %s", req.Method, req.URL, err)
		return nil, netError(err)
	}
	c.log.Debugf("%s %s: %s (%s)", req.Method, req.URL, response.Status, time.Since(start).Round(time.Millisecond))
	if trace != nil {
		trace.httpResponse(response)
	}
	return response, nil
}

func netError(err error) error {
	if err == nil {
		return nil
	}
	if urlErr, ok := err.(*url.Error); ok {
		// If this error was generated by an authenticator or one of the
		// package's own helpers, unwrap it to preserve its status code.
		if _, ok := urlErr.Err.(statusCoder); ok {
			return urlErr.Err
		}
	}
	if _, ok := err.(statusCoder); ok {
		return err
	}
	return &TransportError{Err: err}
}

// DoError is the same as DoReq(), followed by checking the response for error
// status codes.
func (c *Client) DoError(ctx context.Context, method, path string, opts *Options) (*http.Response, error) {
	res, err := c.DoReq(ctx, method, path, opts)
	if err != nil {
		return res, err
	}
	if err := ResponseError(res); err != nil {
		return res, err
	}
	return res, nil
}

// setHeaders sets default headers, and those specified in opts.
func setHeaders(req *http.Request, opts *Options) {
	accept := typeJSON
	contentType := typeJSON
	if opts != nil {
		if opts.Accept != "" {
			accept = opts.Accept
		}
		if opts.ContentType != "" {
			contentType = opts.ContentType
		}
		for k, v := range opts.Header {
			if _, ok := req.Header[k]; !ok {
				req.Header[k] = v
			}
		}
	}
	req.Header.Add("Accept", accept)
	req.Header.Add("Content-Type", contentType)
}

func setQuery(req *http.Request, opts *Options) {
	if opts == nil || len(opts.Query) == 0 {
		return
	}
	if req.URL.RawQuery == "" {
		req.URL.RawQuery = opts.Query.Encode()
		return
	}
	req.URL.RawQuery = strings.Join([]string{req.URL.RawQuery, opts.Query.Encode()}, "&")
}

// CloseBody drains and closes a response body, so the connection may be
// reused.
func CloseBody(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<16))
	_ = body.Close()
}

func (c *Client) userAgent() string {
	ua := fmt.Sprintf("%s/%s (Language=%s; Platform=%s/%s)",
		UserAgent, Version, runtime.Version(), runtime.GOARCH, runtime.GOOS)
	return strings.Join(append([]string{ua}, c.UserAgents...), " ")
}
