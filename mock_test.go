package nano

import (
	"io"
	"net/http"
	"strings"
)

type customTransport func(*http.Request) (*http.Response, error)

var _ http.RoundTripper = customTransport(nil)

func (t customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t(req)
}

func newCustomClient(fn func(*http.Request) (*http.Response, error), opts ...Option) *Client {
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: customTransport(fn)})}, opts...)
	c, err := New("http://example.com/", opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func newTestClient(resp *http.Response, err error) *Client {
	return newCustomClient(func(req *http.Request) (*http.Response, error) {
		if req.Body != nil {
			_, _ = io.Copy(io.Discard, req.Body)
			_ = req.Body.Close()
		}
		if err != nil {
			return nil, err
		}
		resp.Request = req
		return resp, nil
	})
}

func newCustomDB(fn func(*http.Request) (*http.Response, error)) *DB {
	return newCustomClient(fn).DB("testdb")
}

func newTestDB(resp *http.Response, err error) *DB {
	return newTestClient(resp, err).DB("testdb")
}

func Body(str string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(str))
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       Body(body),
	}
}
