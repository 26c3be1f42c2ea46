package config

import (
	"maps"
	"net/url"
	"strings"
	"time"

	"dario.cat/mergo"
)

// SiteConfig holds settings for one quiz site, keyed by host name.
type SiteConfig struct {
	// Cookie is sent when fetching pages from the site and is visible to the
	// CSRF lookup. Format: "name=value" or "name1=value1; name2=value2".
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent when fetching pages from the site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// CSRFToken overrides the token read from the CSRF cookie.
	CSRFToken string `yaml:"csrfToken,omitempty"`

	// Endpoint overrides the solving API endpoint for this site.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Selectors override the global selectors for this site.
	Selectors Selectors `yaml:"selectors,omitempty"`
}

// File represents the structure of the .quizsolve configuration file.
type File struct {
	// Endpoint is the solving API URL.
	Endpoint string `yaml:"endpoint,omitempty"`

	// CSRFCookie is the CSRF cookie name.
	CSRFCookie string `yaml:"csrfCookie,omitempty"`

	// StaggerInterval is the delay step between answer selections.
	StaggerInterval *time.Duration `yaml:"staggerInterval,omitempty"`

	// AutoRunDelay is the browser-mode wait after page load.
	AutoRunDelay *time.Duration `yaml:"autoRunDelay,omitempty"`

	// Proxy is a SOCKS5 proxy address for page fetches.
	Proxy string `yaml:"proxy,omitempty"`

	// Selectors describe the quiz markup.
	Selectors Selectors `yaml:"selectors,omitempty"`

	// Sites maps host names (e.g. "student.example.edu") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the settings for the host of source (a URL or a bare
// host name), merged over the defaults. Unknown hosts get the defaults.
func (cf *File) GetSiteConfig(source string) SiteConfig {
	result := cloneSiteConfig(cf.Defaults)

	site, ok := cf.Sites[hostOf(source)]
	if !ok {
		return result
	}

	// Errors only arise from mismatched types, which cannot happen here.
	_ = mergo.Merge(&result, cloneSiteConfig(site), mergo.WithOverride) //nolint:errcheck // same-type merge
	return result
}

func cloneSiteConfig(s SiteConfig) SiteConfig {
	s.Headers = maps.Clone(s.Headers)
	return s
}

// hostOf extracts the lower-cased host name from a URL or returns the input
// unchanged when it is already a host.
func hostOf(source string) string {
	source = strings.TrimSpace(source)
	if u, err := url.Parse(source); err == nil && u.Host != "" {
		return strings.ToLower(u.Hostname())
	}
	return strings.ToLower(source)
}
