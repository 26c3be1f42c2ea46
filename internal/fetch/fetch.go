// Package fetch loads quiz pages from files or URLs.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/nao1215/quizsolve/internal/config"
	"github.com/nao1215/quizsolve/internal/proxy"
)

// ErrTooLarge is returned when a page exceeds the body size limit.
var ErrTooLarge = errors.New("page exceeds the maximum body size")

// StatusError reports a non-2xx response for a page URL.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to fetch %s: HTTP %d", e.URL, e.StatusCode)
}

// Page is a loaded quiz page.
type Page struct {
	// Source is the file path or URL the page came from.
	Source string
	// URL is set for pages fetched over HTTP, after redirects.
	URL  *url.URL
	Body []byte
}

// Reader returns the page body as a reader.
func (p *Page) Reader() io.Reader {
	return bytes.NewReader(p.Body)
}

// Fetcher loads pages. Its cookie jar is meant to be shared with the solver
// client so that cookies set by the quiz site reach the solving API.
type Fetcher struct {
	client  *resty.Client
	jar     http.CookieJar
	maxBody int64
	site    config.SiteConfig
	logger  *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout bounds each page request.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.SetTimeout(d)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.client.SetHeader("User-Agent", ua)
		}
	}
}

// WithMaxBodySize limits the page size. Zero or less means no limit.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBody = n
	}
}

// WithProxy sends requests through a SOCKS5 proxy.
func WithProxy(d *proxy.Dialer) Option {
	return func(f *Fetcher) {
		if d != nil {
			f.client.SetTransport(d.Transport())
		}
	}
}

// WithSite applies per-site headers and cookies.
func WithSite(site config.SiteConfig) Option {
	return func(f *Fetcher) {
		f.site = site
		for k, v := range site.Headers {
			f.client.SetHeader(k, v)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher with its own cookie jar.
func New(opts ...Option) (*Fetcher, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	f := &Fetcher{
		client: resty.New().
			SetCookieJar(jar).
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
			SetHeader("Accept", "text/html,application/xhtml+xml").
			SetHeader("Accept-Encoding", "zstd, gzip"),
		jar:     jar,
		maxBody: config.DefaultMaxBodySize,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Jar returns the cookie jar used for page requests.
func (f *Fetcher) Jar() http.CookieJar {
	return f.jar
}

// Fetch loads source, an http(s) URL or a file path.
func (f *Fetcher) Fetch(ctx context.Context, source string) (*Page, error) {
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return f.fetchURL(ctx, u)
	}
	return f.readFile(source)
}

func (f *Fetcher) readFile(path string) (*Page, error) {
	file, err := os.Open(path) //nolint:gosec // the path is given by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer file.Close()

	body, err := f.readLimited(file)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("page read", "path", path, "bytes", len(body))
	return &Page{Source: path, Body: body}, nil
}

func (f *Fetcher) fetchURL(ctx context.Context, u *url.URL) (*Page, error) {
	if cookie := strings.TrimSpace(f.site.Cookie); cookie != "" {
		cookies, err := http.ParseCookie(cookie)
		if err != nil {
			return nil, fmt.Errorf("invalid cookie in site configuration: %w", err)
		}
		f.jar.SetCookies(u, cookies)
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &StatusError{URL: u.String(), StatusCode: resp.StatusCode()}
	}

	body, closeBody, err := decode(raw, resp.Header().Get("Content-Encoding"))
	if err != nil {
		return nil, err
	}
	defer closeBody()

	data, err := f.readLimited(body)
	if err != nil {
		return nil, err
	}

	final := u
	if r := resp.RawResponse; r != nil && r.Request != nil && r.Request.URL != nil {
		final = r.Request.URL
	}
	f.logger.Debug("page fetched",
		"url", final.String(),
		"status", resp.StatusCode(),
		"bytes", len(data),
		"set_cookie", resp.Header().Get("Set-Cookie"),
	)
	return &Page{Source: u.String(), URL: final, Body: data}, nil
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	if f.maxBody <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read page: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	if int64(len(data)) > f.maxBody {
		return nil, ErrTooLarge
	}
	return data, nil
}

// decode unwraps a zstd or gzip content encoding.
func decode(r io.Reader, encoding string) (io.Reader, func(), error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "zstd":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: failed to create reader: %w", err)
		}
		return dec, dec.Close, nil
	case "gzip", "x-gzip":
		dec, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: failed to create reader: %w", err)
		}
		return dec, func() { dec.Close() }, nil
	default:
		return r, func() {}, nil
	}
}
