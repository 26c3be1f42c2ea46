package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/quizsolve/internal/config"
)

func TestNewServeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()
	if cmd.Use != "serve" {
		t.Errorf("expected use 'serve', got %q", cmd.Use)
	}

	defaults := map[string]string{
		"listen":        config.DefaultListenAddress,
		"primary-model": config.DefaultPrimaryModel,
		"backup-model":  config.DefaultBackupModel,
		"llm-timeout":   config.DefaultLLMTimeout.String(),
		"no-cache":      "false",
		"log-format":    "text",
		"env-file":      ".env",
	}
	for name, want := range defaults {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("expected %s flag", name)
			continue
		}
		if flag.DefValue != want {
			t.Errorf("%s default = %q, want %q", name, flag.DefValue, want)
		}
	}
}

// The environment is process-wide, so these tests do not run in parallel.
func TestBuildServerConfig(t *testing.T) {
	t.Setenv(envAnthropicKey, "sk-ant-test")
	t.Setenv(envGeminiKey, "")

	cmd := NewServeCmd()
	err := cmd.ParseFlags([]string{"-l", "0.0.0.0:9000", "--llm-timeout", "5s", "--no-cache", "--max-questions", "10"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := buildServerConfig(cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("ListenAddress = %q", cfg.ListenAddress)
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Errorf("LLMTimeout = %s", cfg.LLMTimeout)
	}
	if cfg.CacheDir != "" {
		t.Errorf("expected caching disabled, got CacheDir %q", cfg.CacheDir)
	}
	if cfg.MaxQuestions != 10 {
		t.Errorf("MaxQuestions = %d", cfg.MaxQuestions)
	}
	if cfg.AnthropicAPIKey != "sk-ant-test" || cfg.GeminiAPIKey != "" {
		t.Errorf("unexpected API keys: %q, %q", cfg.AnthropicAPIKey, cfg.GeminiAPIKey)
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv(envGeminiKey, "")
	os.Unsetenv(envGeminiKey) //nolint:errcheck

	t.Run("missing file is ignored", func(t *testing.T) {
		if err := loadEnvFile(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("empty path is ignored", func(t *testing.T) {
		if err := loadEnvFile(""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("loads variables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte(envGeminiKey+"=from-file\n"), 0600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		if err := loadEnvFile(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := os.Getenv(envGeminiKey); got != "from-file" {
			t.Errorf("%s = %q, want from-file", envGeminiKey, got)
		}
	})
}

func TestNewServerLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{format: "text", want: "msg=hello"},
		{format: "", want: "msg=hello"},
		{format: "json", want: `"msg":"hello"`},
		{format: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger, err := newServerLogger(&buf, tt.format, false)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			logger.Warn("hello")
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected %q in %q", tt.want, buf.String())
			}
		})
	}
}

func TestChainOptions(t *testing.T) {
	t.Parallel()

	t.Run("no keys and no cache", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewServerConfig()
		cfg.CacheDir = ""

		opts, closeCache, err := chainOptions(cfg, discardLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer closeCache()
		// Only the logger option.
		if len(opts) != 1 {
			t.Errorf("expected 1 option, got %d", len(opts))
		}
	})

	t.Run("keys and cache", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewServerConfig()
		cfg.CacheDir = t.TempDir()
		cfg.AnthropicAPIKey = "sk-ant-test"
		cfg.GeminiAPIKey = "gemini-test"

		opts, closeCache, err := chainOptions(cfg, discardLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer closeCache()
		if len(opts) != 4 {
			t.Errorf("expected 4 options, got %d", len(opts))
		}
		if _, err := os.Stat(filepath.Join(cfg.CacheDir, "answers.db")); err != nil {
			t.Errorf("expected the cache database to be created: %v", err)
		}
	})
}
