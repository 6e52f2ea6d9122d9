package chttp

import (
	"context"
	"net/http"
	"time"
)

// SessionCookieName is the name of the CouchDB session cookie.
const SessionCookieName = "AuthSession"

// CookieAuth provides CouchDB Cookie auth services as described at
// http://docs.couchdb.org/en/stable/api/server/authn.html#cookie-authentication
//
// CookieAuth stores authentication state after use, so should not be re-used.
type CookieAuth struct {
	Username string `json:"name"`
	Password string `json:"password"`

	client *Client
	// transport stores the original transport that is overridden by this auth
	// mechanism
	transport  http.RoundTripper
	authExpiry *time.Time
}

var _ Authenticator = &CookieAuth{}

// Authenticate installs the cookie jar and the session-negotiating transport.
// The session itself is requested lazily, on the first request.
func (a *CookieAuth) Authenticate(c *Client) error {
	a.client = c
	a.setCookieJar()
	a.transport = c.Transport
	if a.transport == nil {
		a.transport = http.DefaultTransport
	}
	c.Transport = a
	return nil
}

func (a *CookieAuth) restore(c *Client) {
	c.Transport = a.transport
}

// Cookie returns the current session cookie if found, or nil if not.
func (a *CookieAuth) Cookie() *http.Cookie {
	if a.client == nil {
		return nil
	}
	for _, cookie := range a.client.Jar.Cookies(a.client.dsn) {
		if cookie.Name == SessionCookieName {
			return cookie
		}
	}
	return nil
}

type authInProgressKey struct{}

// RoundTrip fulfills the http.RoundTripper interface. It (re-)authenticates
// when the cookie has expired or is not yet set. It also drops the auth
// cookie on a 401 response, so that follow up requests can try to
// authenticate again.
func (a *CookieAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := a.authenticate(req); err != nil {
		return nil, err
	}
	res, err := a.transport.RoundTrip(req)
	if err != nil {
		return res, err
	}
	if res != nil && res.StatusCode == http.StatusUnauthorized {
		if cookie := a.Cookie(); cookie != nil {
			// set to expire yesterday to allow us to ditch it
			cookie.Expires = time.Now().AddDate(0, 0, -1)
			a.client.Jar.SetCookies(a.client.dsn, []*http.Cookie{cookie})
			a.client.authMU.Lock()
			a.authExpiry = nil
			a.client.authMU.Unlock()
		}
	}
	return res, nil
}

// shouldAuth returns true if there is no cookie set, or if it has expired.
func (a *CookieAuth) shouldAuth(req *http.Request) bool {
	if _, err := req.Cookie(SessionCookieName); err == nil {
		return false
	}
	if a.authExpiry == nil {
		return true
	}
	if !a.authExpiry.IsZero() {
		return a.authExpiry.Before(time.Now())
	}
	// The server did not include an expiry time in the session cookie, so the
	// session is kept until the server rejects it.
	return false
}

func (a *CookieAuth) authenticate(req *http.Request) error {
	ctx := req.Context()
	if inProg, _ := ctx.Value(authInProgressKey{}).(bool); inProg {
		return nil
	}
	a.client.authMU.Lock()
	defer a.client.authMU.Unlock()
	if !a.shouldAuth(req) {
		return nil
	}

	ctx = context.WithValue(ctx, authInProgressKey{}, true)
	res, err := a.client.DoError(ctx, http.MethodPost, "/_session", &Options{JSON: a})
	if err != nil {
		return err
	}
	CloseBody(res.Body)
	for _, cookie := range res.Cookies() {
		if cookie.Name == SessionCookieName {
			expiry := cookie.Expires
			if !expiry.IsZero() {
				expiry = expiry.Add(-time.Minute)
			}
			a.authExpiry = &expiry
			break
		}
	}
	cookies := req.Cookies()
	req.Header.Del("Cookie")
	for _, cookie := range cookies {
		if cookie.Name != SessionCookieName {
			req.AddCookie(cookie)
		}
	}
	if c := a.Cookie(); c != nil {
		req.AddCookie(c)
	}
	return nil
}
