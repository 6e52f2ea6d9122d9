package chttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gitlab.com/flimzy/testy"
)

func TestBasicAuth(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "abc123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = fmt.Fprint(w, `{"userCtx":{"name":"admin"}}`)
	}))
	t.Cleanup(s.Close)

	c, err := New(nil, strings.Replace(s.URL, "http://", "http://admin:abc123@", 1))
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateAuth(context.Background(), "admin", c); err != nil {
		t.Fatal(err)
	}
	err = ValidateAuth(context.Background(), "bob", c)
	testy.StatusError(t, `auth response for unexpected user "admin"`, http.StatusBadGateway, err)
}

func TestSetAuthReplaces(t *testing.T) {
	c := newTestClient(nil, nil)
	if err := c.SetAuth(&BasicAuth{Username: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := c.SetAuth(&BasicAuth{Username: "b"}); err != nil {
		t.Fatal(err)
	}
	ba, ok := c.Transport.(*BasicAuth)
	if !ok {
		t.Fatalf("Unexpected transport: %T", c.Transport)
	}
	if ba.Username != "b" {
		t.Errorf("Unexpected username: %s", ba.Username)
	}
	if _, ok := ba.transport.(customTransport); !ok {
		t.Errorf("authenticators were stacked: %T", ba.transport)
	}
}

func TestCookieAuth(t *testing.T) {
	var sessions int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/_session" && r.Method == http.MethodPost {
			atomic.AddInt32(&sessions, 1)
			var creds CookieAuth
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Password != "abc123" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = fmt.Fprint(w, `{"error":"unauthorized","reason":"Name or password is incorrect."}`)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:    SessionCookieName,
				Value:   "token",
				Path:    "/",
				Expires: time.Now().Add(10 * time.Minute),
			})
			_, _ = fmt.Fprint(w, `{"ok":true}`)
			return
		}
		if cookie, err := r.Cookie(SessionCookieName); err != nil || cookie.Value != "token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = fmt.Fprint(w, `{"userCtx":{"name":"admin"}}`)
	}))
	t.Cleanup(s.Close)

	t.Run("success", func(t *testing.T) {
		atomic.StoreInt32(&sessions, 0)
		c, err := New(nil, s.URL)
		if err != nil {
			t.Fatal(err)
		}
		auth := &CookieAuth{Username: "admin", Password: "abc123"}
		if err := c.SetAuth(auth); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 2; i++ {
			if err := ValidateAuth(context.Background(), "admin", c); err != nil {
				t.Fatal(err)
			}
		}
		if n := atomic.LoadInt32(&sessions); n != 1 {
			t.Errorf("Expected one session request, got %d", n)
		}
		if cookie := auth.Cookie(); cookie == nil || cookie.Value != "token" {
			t.Errorf("Unexpected cookie: %v", cookie)
		}
	})
	t.Run("bad password", func(t *testing.T) {
		c, err := New(nil, s.URL)
		if err != nil {
			t.Fatal(err)
		}
		if err := c.SetAuth(&CookieAuth{Username: "admin", Password: "wrong"}); err != nil {
			t.Fatal(err)
		}
		err = ValidateAuth(context.Background(), "admin", c)
		testy.StatusError(t, "Unauthorized: Name or password is incorrect.", http.StatusUnauthorized, err)
	})
}
