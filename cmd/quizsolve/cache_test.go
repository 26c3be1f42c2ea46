package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/quizsolve/internal/database"
	"github.com/nao1215/quizsolve/internal/model"
)

func seedCache(t *testing.T, dir string, n int) {
	t.Helper()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	defer db.Close()

	for i := range n {
		q := model.Question{
			Index:    i + 1,
			Question: "Question " + string(rune('A'+i)),
			Answers:  []model.Answer{{Text: "yes", Position: "1"}, {Text: "no", Position: "2"}},
		}
		if err := db.Put(context.Background(), q, "1", "high", "AI-Claude"); err != nil {
			t.Fatalf("failed to seed cache: %v", err)
		}
	}
}

func runCache(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewCacheCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCacheCmd(t *testing.T) {
	t.Parallel()

	t.Run("shows entries", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		seedCache(t, dir, 3)

		out, err := runCache(t, "--cache-dir", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Entries:      3") {
			t.Errorf("unexpected output:\n%s", out)
		}
		if strings.Contains(out, "Purged") {
			t.Errorf("did not expect a purge line:\n%s", out)
		}
	})

	t.Run("purges everything", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		seedCache(t, dir, 2)

		out, err := runCache(t, "--cache-dir", dir, "--purge", "0s", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, `"purged": 2`) || !strings.Contains(out, `"entries": 0`) {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("keeps recent answers", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		seedCache(t, dir, 2)

		out, err := runCache(t, "--cache-dir", dir, "--purge", "24h")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Entries:      2") || !strings.Contains(out, "Purged:       0") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("missing cache", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "none")
		if _, err := runCache(t, "--cache-dir", dir); err == nil {
			t.Fatal("expected error for a missing cache")
		}
	})

	t.Run("negative purge age", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		seedCache(t, dir, 1)
		if _, err := runCache(t, "--cache-dir", dir, "--purge", "-1h"); err == nil {
			t.Fatal("expected error for a negative age")
		}
	})
}

func TestFormatAge(t *testing.T) {
	t.Parallel()

	if got := formatAge(0); got != "now" {
		t.Errorf("formatAge(0) = %q", got)
	}
	if got := formatAge(90 * 60 * 1e9); got != "1h30m0s" {
		t.Errorf("formatAge(90m) = %q", got)
	}
}
