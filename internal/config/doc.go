// Package config provides configuration structures and utilities for quizsolve.
// It defines the options of a solve run (solver endpoint, CSRF handling,
// page selectors, pacing, report output), the options of the solving API
// server, and the YAML configuration file with per-site overrides.
package config
