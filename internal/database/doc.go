// Package database provides the SQLite answer cache used by the solving API.
//
// An answer chosen by a language model is stored under a hash of the
// question text and its options, so the same question asked again, by the
// same page or another user, is answered without a model call. The database
// is a single file (modernc.org/sqlite, no cgo) in the XDG data directory.
package database
