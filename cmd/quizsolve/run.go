package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/quizsolve/internal/browser"
	"github.com/nao1215/quizsolve/internal/config"
	"github.com/nao1215/quizsolve/internal/fetch"
	applog "github.com/nao1215/quizsolve/internal/log"
	"github.com/nao1215/quizsolve/internal/model"
	"github.com/nao1215/quizsolve/internal/notify"
	"github.com/nao1215/quizsolve/internal/page"
	"github.com/nao1215/quizsolve/internal/pipeline"
	"github.com/nao1215/quizsolve/internal/proxy"
	"github.com/nao1215/quizsolve/internal/report"
	"github.com/nao1215/quizsolve/internal/solver"
)

// errRunsFailed is returned when at least one page could not be solved.
var errRunsFailed = errors.New("one or more quiz pages failed")

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [file-or-url...]",
		Short: "Solve one or more quiz pages",
		Long: `Run extracts every multiple-choice question of a quiz page, sends them to
the solving API with the page's CSRF token and selects the returned answers.

Answers are selected one after another (--stagger apart). A status banner
is inserted at the top of the page and a run report is printed at the end.

In static mode the page is read from a file or fetched over HTTP and the
solved HTML can be written with --output. With --browser the page is opened
in Chrome and the answers are selected in the live tab.

Examples:
  # Solve a saved page and write the result
  quizsolve run quiz.html -o solved.html

  # Fetch a page using the cookies from the configuration file
  quizsolve run https://student.example.edu/test/42

  # Solve in a visible Chrome window
  quizsolve run --browser --headless=false https://student.example.edu/test/42

  # Solve several pages, four at a time, and print a JSON report
  quizsolve run --json a.html b.html c.html d.html e.html

  # Use another solving API
  quizsolve run --endpoint https://solver.example.com/ai-solve/ quiz.html`,
		Args: cobra.ArbitraryArgs,
		RunE: runRunCmd,
	}

	// Solving API flags
	cmd.Flags().StringP("endpoint", "E", config.DefaultEndpoint,
		"Solving API URL")
	cmd.Flags().String("csrf-cookie", config.DefaultCSRFCookie,
		"Cookie whose value is sent as X-CSRFToken")
	cmd.Flags().String("csrf-token", "",
		"Send this X-CSRFToken instead of the cookie value")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for page and solve requests (0 means none)")

	// Behavior flags
	cmd.Flags().DurationP("stagger", "s", config.DefaultStaggerInterval,
		"Delay step between answer selections")
	cmd.Flags().Duration("auto-delay", config.DefaultAutoRunDelay,
		"Browser mode: wait after page load before solving")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of quiz pages solved at the same time")

	// Fetch flags
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address for page requests (e.g., 127.0.0.1:1080)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent sent when fetching pages")
	cmd.Flags().Int64("max-body", config.DefaultMaxBodySize,
		"Maximum page size in bytes (0 means no limit)")

	// Browser flags
	cmd.Flags().BoolP("browser", "B", false,
		"Open the page in Chrome and solve it live")
	cmd.Flags().Bool("headless", true,
		"Browser mode: run Chrome without a window")

	// Output flags
	cmd.Flags().StringP("output", "o", "",
		"Write the solved HTML to this file (static mode, single page)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("report", "r", "",
		"Write the run report to this file (creates directories if needed)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .quizsolve in current or home directory)")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.New(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runSolve(ctx, cfg, cmd.ErrOrStderr(), logger)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// buildConfig creates a Config from defaults, the configuration file and
// cobra command flags. Flags the user set explicitly win over the file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	// Otherwise silently continue without one.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	if flags.Changed("endpoint") || cfg.Endpoint == "" {
		if cfg.Endpoint, err = flags.GetString("endpoint"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("csrf-cookie") || cfg.CSRFCookie == "" {
		if cfg.CSRFCookie, err = flags.GetString("csrf-cookie"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("stagger") {
		if cfg.StaggerInterval, err = flags.GetDuration("stagger"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("auto-delay") {
		if cfg.AutoRunDelay, err = flags.GetDuration("auto-delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}

	if cfg.CSRFToken, err = flags.GetString("csrf-token"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body"); err != nil {
		return nil, err
	}
	if cfg.Browser, err = flags.GetBool("browser"); err != nil {
		return nil, err
	}
	if cfg.Headless, err = flags.GetBool("headless"); err != nil {
		return nil, err
	}
	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Sources = args

	return cfg, nil
}

// runner solves quiz pages with one configuration.
type runner struct {
	cfg    *config.Config
	dialer *proxy.Dialer
	status io.Writer
	logger *slog.Logger
}

// runSolve solves every source and writes the run reports.
func runSolve(ctx context.Context, cfg *config.Config, status io.Writer, logger *slog.Logger) error {
	r := &runner{cfg: cfg, logger: logger}
	// Several pages at once would garble a single status line.
	if len(cfg.Sources) == 1 {
		r.status = status
	}

	if cfg.ProxyAddress != "" {
		dialer, err := proxy.New(cfg.ProxyAddress)
		if err != nil {
			return fmt.Errorf("failed to configure proxy: %w", err)
		}
		if st := dialer.Check(ctx); st != proxy.StatusOK {
			return fmt.Errorf("proxy check failed: %s (make sure a SOCKS5 proxy is running at %s): %w",
				st, cfg.ProxyAddress, st.Err())
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
		r.dialer = dialer
	}

	logger.Info("starting run",
		"sources", len(cfg.Sources),
		"browser", cfg.Browser,
		"concurrency", cfg.Concurrency,
	)

	var reports []*model.RunReport
	if len(cfg.Sources) == 1 {
		rep, err := r.solveSource(ctx, cfg.Sources[0])
		if rep == nil {
			return err
		}
		reports = []*model.RunReport{rep}
	} else {
		bp := pipeline.NewBatchProcessor(r.solveSource,
			pipeline.WithConcurrency(cfg.Concurrency),
			pipeline.WithBatchLogger(logger),
		)
		var err error
		reports, err = bp.ProcessBatch(ctx, cfg.Sources)
		if err != nil && ctx.Err() == nil {
			return err
		}
	}

	if err := outputReport(cfg, reports); err != nil {
		return err
	}

	for _, rep := range reports {
		if !rep.Succeeded() {
			return errRunsFailed
		}
	}
	return nil
}

// solveSource performs one run over source in the configured mode.
func (r *runner) solveSource(ctx context.Context, source string) (*model.RunReport, error) {
	site := r.cfg.SiteConfigs.GetSiteConfig(source)
	if r.cfg.Browser {
		return r.solveLive(ctx, source, site)
	}
	return r.solveStatic(ctx, source, site)
}

// endpointFor returns the solving API for a site, preferring the site's own.
func (r *runner) endpointFor(site config.SiteConfig) string {
	if site.Endpoint != "" {
		return site.Endpoint
	}
	return r.cfg.Endpoint
}

// staticToken is the configured token, site first.
func (r *runner) staticToken(site config.SiteConfig) solver.StaticToken {
	if r.cfg.CSRFToken != "" {
		return solver.StaticToken(r.cfg.CSRFToken)
	}
	return solver.StaticToken(site.CSRFToken)
}

// notifierFor combines the page banner, the terminal line and the log.
func (r *runner) notifierFor(doc page.Document, logger *slog.Logger) notify.Notifier {
	n := notify.Multi{notify.NewPage(doc), notify.Log{Logger: logger}}
	if r.status != nil {
		n = append(n, notify.NewTerminal(r.status))
	}
	return n
}

// solveStatic fetches the page, solves it in memory and optionally writes
// the result back to disk.
func (r *runner) solveStatic(ctx context.Context, source string, site config.SiteConfig) (*model.RunReport, error) {
	logger := r.logger.With("source", source)

	fetcher, err := fetch.New(
		fetch.WithTimeout(r.cfg.Timeout),
		fetch.WithUserAgent(r.cfg.UserAgent),
		fetch.WithMaxBodySize(r.cfg.MaxBodySize),
		fetch.WithProxy(r.dialer),
		fetch.WithSite(site),
		fetch.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	pg, err := fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}

	sel := r.cfg.Selectors.Merge(site.Selectors)
	doc, err := page.Parse(pg.Reader(), sel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}

	tokens := solver.FirstToken{r.staticToken(site)}
	if pg.URL != nil {
		tokens = append(tokens, solver.JarToken{Jar: fetcher.Jar(), URL: pg.URL, Name: r.cfg.CSRFCookie})
	}
	sv := solver.New(r.endpointFor(site), tokens,
		solver.WithTimeout(r.cfg.Timeout),
		solver.WithCookieJar(fetcher.Jar()),
		solver.WithUserAgent(r.cfg.UserAgent),
		solver.WithLogger(logger),
	)

	orch := pipeline.NewOrchestrator(sv,
		pipeline.WithInterval(r.cfg.StaggerInterval),
		pipeline.WithOrchestratorLogger(logger),
	)
	rep, runErr := orch.Run(ctx, source, doc, r.notifierFor(doc, logger))

	if r.cfg.OutputFile != "" {
		if err := writeHTML(r.cfg.OutputFile, doc); err != nil {
			return rep, err
		}
		logger.Info("solved page written", "path", r.cfg.OutputFile)
	}
	return rep, runErr
}

// solveLive opens the page in Chrome, solves the rendered HTML and mirrors
// every change into the tab while the run is in progress.
func (r *runner) solveLive(ctx context.Context, source string, site config.SiteConfig) (*model.RunReport, error) {
	logger := r.logger.With("source", source)

	opts := []browser.Option{
		browser.WithHeadless(r.cfg.Headless),
		browser.WithUserAgent(r.cfg.UserAgent),
		browser.WithLogger(logger),
	}
	if r.dialer != nil {
		opts = append(opts, browser.WithProxy(r.dialer.Address()))
	}
	sess, err := browser.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	html, err := sess.Open(ctx, source, r.cfg.AutoRunDelay)
	if err != nil {
		return nil, err
	}

	sel := r.cfg.Selectors.Merge(site.Selectors)
	doc, err := page.ParseString(html, sel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}

	tokens := solver.FirstToken{
		r.staticToken(site),
		solver.TokenFunc(func(ctx context.Context) (string, error) {
			return sess.Cookie(ctx, r.cfg.CSRFCookie)
		}),
	}
	sv := solver.New(r.endpointFor(site), tokens,
		solver.WithTimeout(r.cfg.Timeout),
		solver.WithUserAgent(r.cfg.UserAgent),
		solver.WithLogger(logger),
	)

	orch := pipeline.NewOrchestrator(sv,
		pipeline.WithInterval(r.cfg.StaggerInterval),
		pipeline.WithOrchestratorLogger(logger),
	)

	stop := sess.Mirror(ctx, doc.Log(), sel, 0)
	rep, runErr := orch.Run(ctx, source, doc, r.notifierFor(doc, logger))
	if err := stop(); err != nil {
		logger.Warn("failed to update the live page", "error", err)
	}

	if !r.cfg.Headless && ctx.Err() == nil {
		logger.Info("leaving the browser open; press Ctrl+C to quit")
		<-ctx.Done()
	}
	return rep, runErr
}

// writeHTML renders doc to path with owner-only permissions.
func writeHTML(path string, doc *page.HTMLDocument) error {
	f, err := createPrivate(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := doc.Render(f); err != nil {
		return fmt.Errorf("failed to write solved page: %w", err)
	}
	return nil
}

// createPrivate creates or truncates path with 0600 permissions, making
// parent directories as needed. Pages and reports may hold session data.
func createPrivate(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // path is given by the user
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// outputReport writes the run reports in the requested format.
func outputReport(cfg *config.Config, reports []*model.RunReport) error {
	var output io.Writer = os.Stdout
	if cfg.ReportFile != "" {
		f, err := createPrivate(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}
	return writeReports(output, cfg, reports)
}

// writeReports picks the writer for the configured format.
func writeReports(output io.Writer, cfg *config.Config, reports []*model.RunReport) error {
	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	var err error
	if len(reports) == 1 {
		_, err = w.Write(reports[0])
	} else {
		_, err = w.WriteAll(reports)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
