package nano

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"gitlab.com/flimzy/testy"

	"github.com/go-kivik/nano/chttp"
	"github.com/go-kivik/nano/log"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		dsn    string
		opts   []Option
		status int
		err    string
	}{
		{
			name:   "empty dsn",
			status: http.StatusBadRequest,
			err:    "no URL specified",
		},
		{
			name:   "bad purge concurrency",
			dsn:    "http://localhost:5984/",
			opts:   []Option{WithPurgeConcurrency(0)},
			status: http.StatusBadRequest,
			err:    "nano: purge concurrency must be positive, got 0",
		},
		{
			name: "success",
			dsn:  "http://localhost:5984/",
			opts: []Option{WithUserAgent("test/1.0"), WithLogger(log.NewNil())},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.dsn, tt.opts...)
			testy.StatusError(t, tt.err, tt.status, err)
			if c.purgeConcurrency < 1 {
				t.Errorf("Unexpected purge concurrency: %d", c.purgeConcurrency)
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	c := newCustomClient(func(req *http.Request) (*http.Response, error) {
		if ua := req.Header.Get("User-Agent"); !strings.HasSuffix(ua, " nano/"+Version+" test/1.0") {
			return nil, errors.Errorf("unexpected user agent %q", ua)
		}
		return jsonResponse(200, `[]`), nil
	}, WithUserAgent("test/1.0"))
	if _, err := c.AllDBs(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestWithAuth(t *testing.T) {
	c := newCustomClient(func(req *http.Request) (*http.Response, error) {
		if u, p, ok := req.BasicAuth(); !ok || u != "bob" || p != "pw" {
			return jsonResponse(401, `{"error":"unauthorized","reason":"You are not authorized."}`), nil
		}
		return jsonResponse(200, `{"couchdb":"Welcome"}`), nil
	}, WithAuth(&chttp.BasicAuth{Username: "bob", Password: "pw"}))
	if _, err := c.Info(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestInfo(t *testing.T) {
	tests := []struct {
		name     string
		client   *Client
		expected *ServerInfo
		status   int
		err      string
	}{
		{
			name:   "network error",
			client: newTestClient(nil, errors.New("connection refused")),
			status: http.StatusBadGateway,
			err:    `Get "http://example.com/": connection refused`,
		},
		{
			name: "success",
			client: newTestClient(jsonResponse(200, `{"couchdb":"Welcome","version":"3.3.3","git_sha":"40afbcfc7",
				"uuid":"abc","features":["access-ready","partitioned"],"vendor":{"name":"The Apache Software Foundation"}}`), nil),
			expected: func() *ServerInfo {
				i := &ServerInfo{
					CouchDB:  "Welcome",
					Version:  "3.3.3",
					GitSHA:   "40afbcfc7",
					UUID:     "abc",
					Features: []string{"access-ready", "partitioned"},
				}
				i.Vendor.Name = "The Apache Software Foundation"
				return i
			}(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.client.Info(context.Background())
			testy.StatusError(t, tt.err, tt.status, err)
			if d := cmp.Diff(tt.expected, result); d != "" {
				t.Error(d)
			}
		})
	}
}

func TestAllDBs(t *testing.T) {
	c := newTestClient(jsonResponse(200, `["_replicator","_users","foo"]`), nil)
	result, err := c.AllDBs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"_replicator", "_users", "foo"}, result); d != "" {
		t.Error(d)
	}
}

func TestCreateDB(t *testing.T) {
	tests := []struct {
		name   string
		dbName string
		opts   *CreateDBOptions
		client *Client
		status int
		err    string
	}{
		{
			name:   "missing name",
			client: newTestClient(nil, nil),
			status: http.StatusBadRequest,
			err:    "nano: dbName required",
		},
		{
			name:   "partitioned",
			dbName: "foo",
			opts:   &CreateDBOptions{Partitioned: Some(true)},
			client: newCustomClient(func(req *http.Request) (*http.Response, error) {
				if req.Method != http.MethodPut || req.URL.String() != "http://example.com/foo?partitioned=true" {
					return nil, errors.Errorf("unexpected request %s %s", req.Method, req.URL)
				}
				return jsonResponse(201, `{"ok":true}`), nil
			}),
		},
		{
			name:   "exists",
			dbName: "foo",
			client: newTestClient(jsonResponse(412, `{"error":"file_exists","reason":"The database could not be created, the file already exists."}`), nil),
			status: http.StatusPreconditionFailed,
			err:    "Precondition Failed: The database could not be created, the file already exists.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.client.CreateDB(context.Background(), tt.dbName, tt.opts)
			testy.StatusError(t, tt.err, tt.status, err)
		})
	}
}

func TestDestroyDB(t *testing.T) {
	c := newCustomClient(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodDelete || req.URL.EscapedPath() != "/a%2Fb" {
			return nil, errors.Errorf("unexpected request %s %s", req.Method, req.URL)
		}
		return jsonResponse(200, `{"ok":true}`), nil
	})
	if err := c.DestroyDB(context.Background(), "a/b"); err != nil {
		t.Fatal(err)
	}
}

func TestCreateAndConnectDB(t *testing.T) {
	tests := []struct {
		name    string
		resp    *http.Response
		created bool
		handle  bool
		status  int
		err     string
	}{
		{
			name:    "created",
			resp:    jsonResponse(201, `{"ok":true}`),
			created: true,
			handle:  true,
		},
		{
			name:   "already exists",
			resp:   jsonResponse(412, `{"error":"file_exists","reason":"The database could not be created, the file already exists."}`),
			handle: true,
		},
		{
			name:   "other precondition failure",
			resp:   jsonResponse(412, `{"error":"other","reason":"nope"}`),
			status: http.StatusPreconditionFailed,
			err:    "Precondition Failed: nope",
		},
		{
			name:   "unauthorized",
			resp:   jsonResponse(401, `{"error":"unauthorized","reason":"You are not a server admin."}`),
			status: http.StatusUnauthorized,
			err:    "Unauthorized: You are not a server admin.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			l := log.New()
			l.SetErr(buf)
			l.SetDebug(true)
			c := newTestClient(tt.resp, nil)
			c.log = l
			db, created, err := c.CreateAndConnectDB(context.Background(), "foo", nil)
			if created != tt.created {
				t.Errorf("Unexpected created: %v", created)
			}
			if (db != nil) != tt.handle {
				t.Errorf("Unexpected handle: %v", db)
			}
			testy.StatusError(t, tt.err, tt.status, err)
			if db.Name() != "foo" {
				t.Errorf("Unexpected name: %s", db.Name())
			}
		})
	}
}
