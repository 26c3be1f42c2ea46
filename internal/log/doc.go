// Package log builds the slog loggers used by quizsolve.
//
// Every logger returned here wraps its output handler in a Handler that
// redacts secrets before they are written. Two kinds of secret reach the
// logs in practice: the CSRF token and session cookies of the quiz site,
// and the API keys of the language models used by the solving server.
//
// Redaction works on attribute keys (cookie, x-csrftoken, api_key, ...) and
// on attribute values that look like credentials regardless of their key
// (Anthropic and Google API keys, bearer tokens, long opaque tokens).
// Cookie headers are rewritten pair by pair so the cookie names survive:
//
//	logger := log.New(os.Stderr, verbose)
//	logger.Debug("page fetched", "set_cookie", "csrftoken=abc; sessionid=def")
//	// set_cookie="csrftoken=***REDACTED***; sessionid=***REDACTED***"
//
// The level is Warn by default and Debug in verbose mode.
package log
