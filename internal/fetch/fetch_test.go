package fetch

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/nao1215/quizsolve/internal/config"
)

const pageHTML = `<html><body><div class="box box-default question"></div></body></html>`

func TestFetch_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "quiz.html")
	if err := os.WriteFile(path, []byte(pageHTML), 0600); err != nil {
		t.Fatal(err)
	}

	f, err := New()
	if err != nil {
		t.Fatal(err)
	}
	p, err := f.Fetch(t.Context(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(p.Body) != pageHTML || p.URL != nil || p.Source != path {
		t.Errorf("unexpected page %+v", p)
	}
}

func TestFetch_MissingFile(t *testing.T) {
	t.Parallel()

	f, _ := New()
	if _, err := f.Fetch(t.Context(), filepath.Join(t.TempDir(), "nope.html")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestFetch_URLWithSiteConfig(t *testing.T) {
	t.Parallel()

	var gotCookie, gotHeader, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotHeader = r.Header.Get("X-Quiz")
		gotUA = r.Header.Get("User-Agent")
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "fromsite", Path: "/"})
		_, _ = w.Write([]byte(pageHTML))
	}))
	defer srv.Close()

	f, err := New(
		WithUserAgent("quizsolve-test"),
		WithSite(config.SiteConfig{Cookie: "sessionid=abc", Headers: map[string]string{"X-Quiz": "1"}}),
	)
	if err != nil {
		t.Fatal(err)
	}

	p, err := f.Fetch(t.Context(), srv.URL+"/test/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(p.Body) != pageHTML {
		t.Errorf("unexpected body %q", p.Body)
	}
	if !strings.Contains(gotCookie, "sessionid=abc") {
		t.Errorf("site cookie not sent: %q", gotCookie)
	}
	if gotHeader != "1" || gotUA != "quizsolve-test" {
		t.Errorf("headers not sent: %q %q", gotHeader, gotUA)
	}

	u, _ := url.Parse(srv.URL)
	var found bool
	for _, c := range f.Jar().Cookies(u) {
		if c.Name == "csrftoken" && c.Value == "fromsite" {
			found = true
		}
	}
	if !found {
		t.Error("expected csrftoken cookie in shared jar")
	}
}

func TestFetch_StatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f, _ := New()
	_, err := f.Fetch(t.Context(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 StatusError, got %v", err)
	}
}

func TestFetch_TooLarge(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("a"), 100))
	}))
	defer srv.Close()

	f, _ := New(WithMaxBodySize(50))
	if _, err := f.Fetch(t.Context(), srv.URL); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}

	f, _ = New(WithMaxBodySize(100))
	if _, err := f.Fetch(t.Context(), srv.URL); err != nil {
		t.Errorf("body at the limit should pass, got %v", err)
	}
}

func TestFetch_ContentEncodings(t *testing.T) {
	t.Parallel()

	var zbuf bytes.Buffer
	zw, err := zstd.NewWriter(&zbuf)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = zw.Write([]byte(pageHTML))
	_ = zw.Close()

	var gbuf bytes.Buffer
	gw := gzip.NewWriter(&gbuf)
	_, _ = gw.Write([]byte(pageHTML))
	_ = gw.Close()

	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{name: "zstd", encoding: "zstd", body: zbuf.Bytes()},
		{name: "gzip", encoding: "gzip", body: gbuf.Bytes()},
		{name: "identity", encoding: "", body: []byte(pageHTML)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				_, _ = w.Write(tt.body)
			}))
			defer srv.Close()

			f, _ := New()
			p, err := f.Fetch(t.Context(), srv.URL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(p.Body) != pageHTML {
				t.Errorf("body = %q", p.Body)
			}
		})
	}
}

func TestFetch_InvalidSiteCookie(t *testing.T) {
	t.Parallel()

	f, _ := New(WithSite(config.SiteConfig{Cookie: "=novalue"}))
	if _, err := f.Fetch(t.Context(), "http://127.0.0.1:1/"); err == nil {
		t.Error("expected error for malformed cookie")
	}
}
