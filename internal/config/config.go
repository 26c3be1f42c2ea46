package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "quizsolve"

	// DefaultEndpoint is the solving API's URL when neither a flag nor the
	// configuration file names one. It matches the listen address of
	// `quizsolve serve`.
	DefaultEndpoint = "http://127.0.0.1:8000/ai-solve/"

	// DefaultCSRFCookie is the cookie whose value is sent as X-CSRFToken.
	DefaultCSRFCookie = "csrftoken"

	// DefaultTimeout of zero leaves the solve call without a client-side
	// deadline, matching a browser fetch.
	DefaultTimeout = 0 * time.Second

	// DefaultStaggerInterval spaces out answer selections: solution i is
	// applied i*DefaultStaggerInterval after the response arrives.
	DefaultStaggerInterval = 100 * time.Millisecond

	// DefaultAutoRunDelay is how long browser mode waits after the page has
	// loaded before the run fires on its own.
	DefaultAutoRunDelay = 2 * time.Second

	// DefaultUserAgent identifies quizsolve when it fetches quiz pages.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) quizsolve/1.0 (+https://github.com/nao1215/quizsolve)"

	// DefaultMaxBodySize limits the size of a fetched quiz page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultListenAddress is where `quizsolve serve` listens.
	DefaultListenAddress = "127.0.0.1:8000"

	// DefaultPrimaryModel is the Anthropic model tried first by the server.
	DefaultPrimaryModel = "claude-sonnet-4-5"

	// DefaultBackupModel is the Gemini model tried when the primary fails.
	DefaultBackupModel = "gemini-1.5-flash"

	// DefaultLLMTimeout bounds a single model call, retries included.
	DefaultLLMTimeout = 30 * time.Second

	// DefaultMaxQuestions caps the size of one solve request.
	DefaultMaxQuestions = 200

	// DefaultConcurrency is how many quiz pages a multi-source run
	// processes at once.
	DefaultConcurrency = 4
)

// Selectors are the CSS selectors describing the quiz page's markup.
// A block contains one heading; its body contains answer rows, each holding
// a label and one selectable control whose value is the answer position.
type Selectors struct {
	// Block matches one question container.
	Block string `yaml:"block,omitempty"`

	// Heading matches the question text element inside a block.
	Heading string `yaml:"heading,omitempty"`

	// Body narrows the area inside a block where answer rows live.
	// Empty means the whole block.
	Body string `yaml:"body,omitempty"`

	// Row matches one answer row inside the body.
	Row string `yaml:"row,omitempty"`

	// Label matches the answer text inside a row. Empty means the row's text.
	Label string `yaml:"label,omitempty"`

	// Control matches the selectable input inside a row or block.
	Control string `yaml:"control,omitempty"`
}

// DefaultSelectors returns the selectors for the stock quiz markup:
//
//	<div class="box box-default question">
//	  <h3 class="box-title">question</h3>
//	  <div class="box-body">
//	    <p><input type="radio" value="17"> <span class="qv">answer</span></p>
//	  </div>
//	</div>
func DefaultSelectors() Selectors {
	return Selectors{
		Block:   ".box.box-default.question",
		Heading: "h3.box-title",
		Body:    ".box-body",
		Row:     "p",
		Label:   ".qv",
		Control: `input[type="radio"], input[type="checkbox"]`,
	}
}

// Config holds all options of a solve run. It is populated from defaults,
// the configuration file and CLI flags, in that order of increasing priority.
type Config struct {
	// Sources are the quiz pages: file paths or http(s) URLs.
	// In browser mode every source must be a URL.
	Sources []string

	// Concurrency is how many sources are processed at once.
	Concurrency int

	// Endpoint is the URL of the solving API.
	Endpoint string

	// CSRFCookie is the name of the cookie carrying the CSRF token.
	CSRFCookie string

	// CSRFToken, when set, is sent as X-CSRFToken instead of the cookie value.
	CSRFToken string

	// Timeout bounds the solve request. Zero means no client-side timeout.
	Timeout time.Duration

	// StaggerInterval is the delay step between answer selections.
	StaggerInterval time.Duration

	// AutoRunDelay is the wait after page load before a browser-mode run.
	AutoRunDelay time.Duration

	// Selectors describe the quiz markup.
	Selectors Selectors

	// ProxyAddress routes page fetches through a SOCKS5 proxy ("host:port").
	// Empty means direct connections.
	ProxyAddress string

	// UserAgent is sent when fetching the quiz page.
	UserAgent string

	// MaxBodySize limits the fetched page size in bytes.
	MaxBodySize int64

	// Browser drives a live Chrome tab instead of rewriting static HTML.
	Browser bool

	// Headless runs Chrome without a window in browser mode.
	Headless bool

	// OutputFile receives the rewritten HTML. Empty means the page is not
	// written back (static mode only).
	OutputFile string

	// JSONReport selects JSON run reports. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown run reports. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the run report destination. Empty means stdout.
	ReportFile string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the configuration file given on the command line.
	ConfigFilePath string

	// SiteConfigs holds the configuration file contents.
	SiteConfigs *File
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Endpoint:        DefaultEndpoint,
		CSRFCookie:      DefaultCSRFCookie,
		Timeout:         DefaultTimeout,
		StaggerInterval: DefaultStaggerInterval,
		AutoRunDelay:    DefaultAutoRunDelay,
		Selectors:       DefaultSelectors(),
		UserAgent:       DefaultUserAgent,
		MaxBodySize:     DefaultMaxBodySize,
		Headless:        true,
		Concurrency:     DefaultConcurrency,
	}
}

// ApplyFile copies the global settings of a configuration file over the
// current values. Empty file values leave the current value in place.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.SiteConfigs = f
	if f.Endpoint != "" {
		c.Endpoint = f.Endpoint
	}
	if f.CSRFCookie != "" {
		c.CSRFCookie = f.CSRFCookie
	}
	if f.StaggerInterval != nil {
		c.StaggerInterval = *f.StaggerInterval
	}
	if f.AutoRunDelay != nil {
		c.AutoRunDelay = *f.AutoRunDelay
	}
	if f.Proxy != "" {
		c.ProxyAddress = f.Proxy
	}
	c.Selectors = c.Selectors.Merge(f.Selectors)
}

// Merge returns s with every non-empty selector of override applied.
func (s Selectors) Merge(override Selectors) Selectors {
	if override.Block != "" {
		s.Block = override.Block
	}
	if override.Heading != "" {
		s.Heading = override.Heading
	}
	if override.Body != "" {
		s.Body = override.Body
	}
	if override.Row != "" {
		s.Row = override.Row
	}
	if override.Label != "" {
		s.Label = override.Label
	}
	if override.Control != "" {
		s.Control = override.Control
	}
	return s
}

// IsURL reports whether source is an http(s) URL rather than a file.
func IsURL(source string) bool {
	return isHTTPURL(source)
}

// XDGDataDir returns the XDG data directory for quizsolve.
// On Linux: ~/.local/share/quizsolve
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for quizsolve.
// On Linux: ~/.config/quizsolve
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks that the run configuration is usable and returns the
// first problem found.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSource
	}
	for _, src := range c.Sources {
		if strings.TrimSpace(src) == "" {
			return ErrNoSource
		}
		if c.Browser && !isHTTPURL(src) {
			return ErrBrowserSource
		}
	}
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if !isHTTPURL(c.Endpoint) {
		return ErrInvalidEndpoint
	}
	if strings.TrimSpace(c.CSRFCookie) == "" {
		return ErrEmptyCSRFCookie
	}
	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if c.StaggerInterval < 0 {
		return ErrInvalidStaggerInterval
	}
	if c.AutoRunDelay < 0 {
		return ErrInvalidAutoRunDelay
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Selectors.Block == "" || c.Selectors.Heading == "" || c.Selectors.Row == "" || c.Selectors.Control == "" {
		return ErrEmptySelector
	}
	if c.Browser && c.OutputFile != "" {
		return ErrBrowserOutput
	}
	if c.OutputFile != "" && len(c.Sources) > 1 {
		return ErrMultipleOutput
	}
	return nil
}

// ServerConfig holds the options of the solving API server.
type ServerConfig struct {
	// ListenAddress is the "host:port" the HTTP server binds.
	ListenAddress string

	// AnthropicAPIKey enables the primary solver. Empty disables it.
	AnthropicAPIKey string

	// PrimaryModel is the Anthropic model name.
	PrimaryModel string

	// GeminiAPIKey enables the backup solver. Empty disables it.
	GeminiAPIKey string

	// BackupModel is the Gemini model name.
	BackupModel string

	// LLMTimeout bounds each model call including retries.
	LLMTimeout time.Duration

	// CacheDir holds the answer-cache database. Empty disables caching.
	CacheDir string

	// MaxQuestions caps the number of questions in one request.
	MaxQuestions int

	// Verbose enables debug logging.
	Verbose bool
}

// NewServerConfig creates a ServerConfig with default values.
func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		ListenAddress: DefaultListenAddress,
		PrimaryModel:  DefaultPrimaryModel,
		BackupModel:   DefaultBackupModel,
		LLMTimeout:    DefaultLLMTimeout,
		CacheDir:      XDGDataDir(),
		MaxQuestions:  DefaultMaxQuestions,
	}
}

// Validate checks that the server configuration is usable.
func (c *ServerConfig) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return ErrInvalidListenAddress
	}
	if c.LLMTimeout < 0 {
		return ErrInvalidTimeout
	}
	if c.MaxQuestions <= 0 {
		return ErrInvalidMaxQuestions
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
