package solver

import (
	"context"
	"net/http"
	"net/url"
)

// CookieSource supplies the value sent in the X-CSRFToken header.
type CookieSource interface {
	CSRFToken(ctx context.Context) (string, error)
}

// StaticToken is a fixed token, typically from the configuration file.
type StaticToken string

// CSRFToken implements CookieSource.
func (s StaticToken) CSRFToken(context.Context) (string, error) {
	return string(s), nil
}

// JarToken reads the token cookie from a cookie jar, such as the jar the
// quiz page was fetched with.
type JarToken struct {
	Jar  http.CookieJar
	URL  *url.URL
	Name string
}

// CSRFToken implements CookieSource. A missing cookie yields "".
func (s JarToken) CSRFToken(context.Context) (string, error) {
	if s.Jar == nil || s.URL == nil {
		return "", nil
	}
	for _, c := range s.Jar.Cookies(s.URL) {
		if c.Name == s.Name {
			return c.Value, nil
		}
	}
	return "", nil
}

// TokenFunc adapts a function to CookieSource.
type TokenFunc func(ctx context.Context) (string, error)

// CSRFToken implements CookieSource.
func (f TokenFunc) CSRFToken(ctx context.Context) (string, error) {
	return f(ctx)
}

// FirstToken returns the first non-empty token of sources.
type FirstToken []CookieSource

// CSRFToken implements CookieSource.
func (f FirstToken) CSRFToken(ctx context.Context) (string, error) {
	for _, s := range f {
		tok, err := s.CSRFToken(ctx)
		if err != nil {
			return "", err
		}
		if tok != "" {
			return tok, nil
		}
	}
	return "", nil
}
