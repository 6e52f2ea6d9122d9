package chttp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/publicsuffix"
)

// Authenticator is an interface that provides authentication to a server.
type Authenticator interface {
	Authenticate(*Client) error
}

// ValidateAuth validates that the requested username is authenticated.
func ValidateAuth(ctx context.Context, username string, client *Client) error {
	// Cookies may be filtered by a proxy, or a misconfigured client, so a
	// final request confirms that auth took effect.
	result := struct {
		Ctx struct {
			Name string `json:"name"`
		} `json:"userCtx"`
	}{}
	if err := client.DoJSON(ctx, http.MethodGet, "/_session", nil, &result); err != nil {
		return err
	}
	if result.Ctx.Name != username {
		return &DecodeError{Err: fmt.Errorf("auth response for unexpected user %q", result.Ctx.Name)}
	}
	return nil
}

func (a *CookieAuth) setCookieJar() {
	// If a jar is already set, just use it
	if a.client.Jar != nil {
		return
	}
	// cookiejar.New never returns an error
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	a.client.Jar = jar
}
