package log

import (
	"regexp"
	"strings"
)

// MaskValue replaces a redacted value.
const MaskValue = "***REDACTED***"

// secretKeys are attribute keys whose value is always redacted.
var secretKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"x-api-key":           true,
	"x-goog-api-key":      true,
	"x-csrftoken":         true,
	"csrftoken":           true,
	"csrf_token":          true,
	"password":            true,
	"api_key":             true,
	"apikey":              true,
	"sessionid":           true,
	"session_id":          true,
}

// secretKeywords redact any key containing them. The bare word "key" is not
// listed: cache_key and sort_key are not secrets.
var secretKeywords = []string{
	"password", "secret", "token", "csrf", "auth", "credential", "api_key", "apikey",
}

// cookieKeys hold cookie strings; only the values of each pair are masked.
var cookieKeys = map[string]bool{
	"cookie":     true,
	"cookies":    true,
	"set-cookie": true,
	"set_cookie": true,
}

var secretValuePatterns = []*regexp.Regexp{
	// Anthropic API keys
	regexp.MustCompile(`^sk-ant-[A-Za-z0-9_-]+$`),
	// Google API keys
	regexp.MustCompile(`^AIza[0-9A-Za-z_-]{35}$`),
	// Authorization header values
	regexp.MustCompile(`(?i)^(bearer|basic)\s+\S+$`),
	// JWT
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	// Django CSRF tokens and similar long opaque strings
	regexp.MustCompile(`^[A-Za-z0-9]{32,}$`),
}

// isSecretKey reports whether the value under key must be hidden entirely.
func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	if secretKeys[key] {
		return true
	}
	for _, word := range secretKeywords {
		if strings.Contains(key, word) {
			return true
		}
	}
	return false
}

// isIdentifierKey reports whether key names a lookup key such as a cache
// key, whose hex value would otherwise look like a token. Secret keys
// ("api_key") are matched by isSecretKey first.
func isIdentifierKey(key string) bool {
	key = strings.ToLower(key)
	return key == "key" || strings.HasSuffix(key, "_key") || strings.HasSuffix(key, "-key")
}

// isCookieKey reports whether key carries a cookie header.
func isCookieKey(key string) bool {
	return cookieKeys[strings.ToLower(key)]
}

// looksSecret reports whether value has the shape of a credential.
func looksSecret(value string) bool {
	for _, re := range secretValuePatterns {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// redactCookie masks every value of a "name=value; name2=value2" string.
func redactCookie(cookie string) string {
	pairs := strings.Split(cookie, ";")
	for i, pair := range pairs {
		name, _, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		pairs[i] = name + "=" + MaskValue
	}
	return strings.Join(pairs, ";")
}
