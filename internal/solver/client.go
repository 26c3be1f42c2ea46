package solver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"

	"github.com/nao1215/quizsolve/internal/model"
)

const (
	// HeaderCSRFToken carries the CSRF cookie value.
	HeaderCSRFToken = "X-CSRFToken"

	contentTypeJSON = "application/json; charset=UTF-8"

	// maxErrorBody limits how much of an error response is kept.
	maxErrorBody = 512
)

// Client posts questions to the solving API.
type Client struct {
	endpoint string
	tokens   CookieSource
	http     *req.Client
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request. Zero disables the client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithCookieJar shares a cookie jar with the client so that cookies set by
// the quiz site travel with the solve request.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.http.SetCookieJar(jar)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.http.SetUserAgent(ua)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New returns a client for endpoint. tokens may be nil, in which case an
// empty X-CSRFToken header is sent.
func New(endpoint string, tokens CookieSource, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		tokens:   tokens,
		http:     req.C().SetTimeout(0),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Solve sends questions in a single POST and returns the decoded response
// with defaults filled in. It returns *ServerError, *NetworkError or
// *ParseError on failure.
func (c *Client) Solve(ctx context.Context, questions []model.Question) (*model.SolveResponse, error) {
	if c.endpoint == "" {
		return nil, ErrNoEndpoint
	}

	token := ""
	if c.tokens != nil {
		var err error
		if token, err = c.tokens.CSRFToken(ctx); err != nil {
			return nil, fmt.Errorf("failed to read CSRF token: %w", err)
		}
	}
	if token == "" {
		c.logger.Warn("no CSRF token available, sending request without one")
	}

	if questions == nil {
		questions = []model.Question{}
	}
	body, err := json.Marshal(model.SolveRequest(questions))
	if err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}

	c.logger.Debug("sending solve request", "endpoint", c.endpoint, "questions", len(questions), "bytes", len(body))

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentTypeJSON).
		SetHeader(HeaderCSRFToken, token).
		SetBodyBytes(body).
		Post(c.endpoint)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	data, err := resp.ToBytes()
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	c.logger.Debug("solve response received", "status", resp.StatusCode, "bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(data)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &ServerError{StatusCode: resp.StatusCode, Body: snippet}
	}

	var out model.SolveResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ParseError{Err: err}
	}
	out.Normalize()
	return &out, nil
}
