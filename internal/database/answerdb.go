package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/quizsolve/internal/model"
)

// FileName is the database file created inside the cache directory.
const FileName = "answers.db"

// AnswerDB stores model answers keyed by question.
type AnswerDB struct {
	db     *sql.DB
	dbPath string
	ttl    time.Duration
}

// Options configures AnswerDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so readers do not block the writer.
	EnableWAL bool

	// TTL ignores entries older than this. Zero keeps entries forever.
	TTL time.Duration
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Entry is one cached answer.
type Entry struct {
	Key        string
	Question   string
	Answer     string
	Confidence string
	Source     string
	Hits       int
	UpdatedAt  time.Time
}

// Open opens or creates the answer database in dir.
func Open(dir string, opts Options) (*AnswerDB, error) {
	dbPath := filepath.Join(dir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AnswerDB{db: db, dbPath: dbPath, ttl: opts.TTL}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Close closes the database connection.
func (adb *AnswerDB) Close() error {
	return adb.db.Close()
}

// Path returns the database file path.
func (adb *AnswerDB) Path() string {
	return adb.dbPath
}

func (adb *AnswerDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS answers (
		key TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		confidence TEXT,
		source TEXT,
		hits INTEGER NOT NULL DEFAULT 0,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_answers_timestamp ON answers(timestamp);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// Key returns the cache key of q: an xxh3 hash over the whitespace-collapsed
// question text and every option's position and text, in order.
func Key(q model.Question) string {
	var b strings.Builder
	b.WriteString(strings.Join(strings.Fields(q.Question), " "))
	for _, a := range q.Answers {
		b.WriteByte(0x1e)
		b.WriteString(a.Position)
		b.WriteByte(0x1f)
		b.WriteString(strings.Join(strings.Fields(a.Text), " "))
	}
	sum := xxh3.HashString128(b.String()).Bytes()
	return hex.EncodeToString(sum[:])
}

// Get returns the cached answer of q, or nil when there is none, it has
// expired, or it no longer names one of q's options. A hit is counted.
func (adb *AnswerDB) Get(ctx context.Context, q model.Question) (*Entry, error) {
	query := `
	SELECT key, question, answer, confidence, source, hits, timestamp
	FROM answers
	WHERE key = ?
	`
	args := []any{Key(q)}
	if adb.ttl > 0 {
		query += " AND timestamp > datetime('now', ?)"
		args = append(args, fmt.Sprintf("-%d seconds", int(adb.ttl.Seconds())))
	}

	var (
		e         Entry
		timestamp string
		conf, src sql.NullString
	)
	err := adb.db.QueryRowContext(ctx, query, args...).Scan(
		&e.Key,
		&e.Question,
		&e.Answer,
		&conf,
		&src,
		&e.Hits,
		&timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached answer: %w", err)
	}
	if !q.HasPosition(e.Answer) {
		return nil, nil
	}
	e.Confidence = conf.String
	e.Source = src.String
	e.UpdatedAt = parseTimestamp(timestamp)

	if _, err := adb.db.ExecContext(ctx, "UPDATE answers SET hits = hits + 1 WHERE key = ?", e.Key); err != nil {
		return nil, fmt.Errorf("failed to count cache hit: %w", err)
	}
	e.Hits++

	return &e, nil
}

// Put stores answer for q, replacing an existing entry.
func (adb *AnswerDB) Put(ctx context.Context, q model.Question, answer, confidence, source string) error {
	query := `
	INSERT INTO answers (key, question, answer, confidence, source)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		answer = excluded.answer,
		confidence = excluded.confidence,
		source = excluded.source,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err := adb.db.ExecContext(ctx, query, Key(q), q.Question, answer, confidence, source)
	if err != nil {
		return fmt.Errorf("failed to store answer: %w", err)
	}
	return nil
}

// Count returns the number of stored answers.
func (adb *AnswerDB) Count(ctx context.Context) (int, error) {
	var n int
	if err := adb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM answers").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count answers: %w", err)
	}
	return n, nil
}

// Purge deletes entries older than age and returns how many were removed.
func (adb *AnswerDB) Purge(ctx context.Context, age time.Duration) (int64, error) {
	res, err := adb.db.ExecContext(ctx,
		"DELETE FROM answers WHERE timestamp <= datetime('now', ?)",
		fmt.Sprintf("-%d seconds", int(age.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge answers: %w", err)
	}
	return res.RowsAffected()
}

// timestampFormats are the layouts SQLite may return, most specific first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when no layout matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
