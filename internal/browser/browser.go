// Package browser drives a Chrome tab over the DevTools protocol so that a
// run can operate on the live quiz page instead of a static copy.
//
// The page is read once as HTML and solved on that copy; the recorded
// mutations are then replayed in the tab, where the selected inputs fire
// real change events.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/nao1215/quizsolve/internal/config"
	"github.com/nao1215/quizsolve/internal/page"
)

// DefaultMirrorInterval is how often Mirror pushes new mutations to the tab.
const DefaultMirrorInterval = 100 * time.Millisecond

// Session is one browser with one tab.
type Session struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *slog.Logger
}

type options struct {
	headless  bool
	userAgent string
	proxy     string
	logger    *slog.Logger
}

// Option configures a Session.
type Option func(*options)

// WithHeadless runs Chrome without a window.
func WithHeadless(headless bool) Option {
	return func(o *options) { o.headless = headless }
}

// WithUserAgent overrides the browser's User-Agent.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithProxy routes the browser through a SOCKS5 proxy ("host:port").
func WithProxy(address string) Option {
	return func(o *options) { o.proxy = address }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// allocatorOptions builds the Chrome command line flags.
func allocatorOptions(o options) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", o.headless))
	if o.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(o.userAgent))
	}
	if o.proxy != "" {
		opts = append(opts, chromedp.ProxyServer("socks5://"+o.proxy))
	}
	return opts
}

// New starts Chrome. The browser lives until Close is called or ctx ends.
func New(ctx context.Context, opts ...Option) (*Session, error) {
	o := options{headless: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(o)...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			o.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	// Run with no actions starts the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Session{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc, logger: o.logger}, nil
}

// Close shuts the browser down.
func (s *Session) Close() {
	s.cancelTab()
	s.cancelAlloc()
}

// run executes actions in the tab, aborting when ctx ends.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Open navigates to url, waits until the body is ready plus settle, and
// returns the rendered HTML.
func (s *Session) Open(ctx context.Context, url string, settle time.Duration) (string, error) {
	var html string
	err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", url, err)
	}
	s.logger.Debug("page opened", "url", url, "bytes", len(html))
	return html, nil
}

// Cookie returns the value of the named cookie for the current page, or "".
func (s *Session) Cookie(ctx context.Context, name string) (string, error) {
	var value string
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			if c.Name == name {
				value = c.Value
				return nil
			}
		}
		return nil
	}))
	if err != nil {
		return "", fmt.Errorf("failed to read cookie %s: %w", name, err)
	}
	return value, nil
}

// Replay performs muts in the tab.
func (s *Session) Replay(ctx context.Context, muts []page.Mutation, sel config.Selectors) error {
	if len(muts) == 0 {
		return nil
	}
	script, err := Script(muts, sel)
	if err != nil {
		return err
	}
	var applied int
	if err := s.run(ctx, chromedp.Evaluate(script, &applied)); err != nil {
		return fmt.Errorf("failed to replay page changes: %w", err)
	}
	s.logger.Debug("page changes replayed", "mutations", len(muts), "applied", applied)
	return nil
}

// Mirror replays the mutations appended to log while a run is in progress,
// so that staggered selections appear one by one in the tab. The returned
// function stops mirroring and flushes what is left.
func (s *Session) Mirror(ctx context.Context, log *page.MutationLog, sel config.Selectors, interval time.Duration) (stop func() error) {
	if interval <= 0 {
		interval = DefaultMirrorInterval
	}

	var (
		mu   sync.Mutex
		sent int
		err  error
	)
	flush := func() {
		mu.Lock()
		defer mu.Unlock()
		pending := log.Since(sent)
		if len(pending) == 0 {
			return
		}
		if rerr := s.Replay(ctx, pending, sel); rerr != nil {
			if err == nil {
				err = rerr
			}
			return
		}
		sent += len(pending)
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				flush()
			}
		}
	}()

	return func() error {
		close(done)
		<-finished
		flush()
		mu.Lock()
		defer mu.Unlock()
		return err
	}
}
