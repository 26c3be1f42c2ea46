package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate and ServerConfig.Validate so
// callers can use errors.Is for programmatic handling.
var (
	// ErrNoSource is returned when no quiz page (file path or URL) is given.
	ErrNoSource = errors.New("no quiz page specified: provide a file path or URL")

	// ErrInvalidEndpoint is returned when the solver endpoint is not an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("invalid solver endpoint: must be an absolute http or https URL")

	// ErrInvalidTimeout is returned when a timeout is negative.
	// Zero means no timeout beyond the platform default.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidStaggerInterval is returned when the stagger interval is negative.
	ErrInvalidStaggerInterval = errors.New("invalid stagger interval: must be non-negative")

	// ErrInvalidAutoRunDelay is returned when the auto-run delay is negative.
	ErrInvalidAutoRunDelay = errors.New("invalid auto-run delay: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrEmptySelector is returned when a required page selector is blank.
	ErrEmptySelector = errors.New("invalid selectors: block, heading, row and control selectors are required")

	// ErrEmptyCSRFCookie is returned when no CSRF cookie name is configured.
	ErrEmptyCSRFCookie = errors.New("invalid csrf cookie name: must not be empty")

	// ErrBrowserOutput is returned when an output file is requested in browser mode,
	// where the live page itself is modified.
	ErrBrowserOutput = errors.New("--output cannot be used with --browser: the live page is modified instead")

	// ErrBrowserSource is returned when browser mode is given a file instead of a URL.
	ErrBrowserSource = errors.New("--browser requires http or https URLs")

	// ErrMultipleOutput is returned when --output is combined with several sources.
	ErrMultipleOutput = errors.New("--output can only be used with a single quiz page")

	// ErrInvalidConcurrency is returned when the concurrency is below one.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidListenAddress is returned when the server listen address is empty.
	ErrInvalidListenAddress = errors.New("invalid listen address: must not be empty")

	// ErrInvalidMaxQuestions is returned when the per-request question limit is not positive.
	ErrInvalidMaxQuestions = errors.New("invalid max questions: must be positive")
)
