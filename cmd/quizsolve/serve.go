package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nao1215/quizsolve/internal/config"
	"github.com/nao1215/quizsolve/internal/database"
	"github.com/nao1215/quizsolve/internal/llm"
	applog "github.com/nao1215/quizsolve/internal/log"
	"github.com/nao1215/quizsolve/internal/server"
	"github.com/nao1215/quizsolve/internal/solve"
)

// Environment variables read by the serve command.
const (
	envAnthropicKey = "ANTHROPIC_API_KEY"
	envGeminiKey    = "GEMINI_API_KEY"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the solving API",
		Long: `Serve runs the HTTP solving API that "quizsolve run" talks to.

POST /ai-solve/ accepts a JSON array of questions and answers each one with
the first strategy that succeeds:
  1. the answer cache
  2. Claude (ANTHROPIC_API_KEY)
  3. Gemini (GEMINI_API_KEY)
  4. a heuristic guess

API keys are read from the environment. A .env file in the current
directory is loaded first when present.

Examples:
  # Listen on the default address
  ANTHROPIC_API_KEY=sk-... quizsolve serve

  # Listen on all interfaces with JSON logs
  quizsolve serve -l 0.0.0.0:8000 --log-format json

  # Disable the answer cache
  quizsolve serve --no-cache`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddress,
		"Address to listen on")
	cmd.Flags().String("env-file", ".env",
		"File with environment variables to load (ignored when missing)")
	cmd.Flags().String("primary-model", config.DefaultPrimaryModel,
		"Claude model tried first")
	cmd.Flags().String("backup-model", config.DefaultBackupModel,
		"Gemini model tried when Claude fails")
	cmd.Flags().Duration("llm-timeout", config.DefaultLLMTimeout,
		"Time limit for one model, retries included")
	cmd.Flags().String("cache-dir", config.XDGDataDir(),
		"Directory of the answer cache database")
	cmd.Flags().Bool("no-cache", false,
		"Do not cache answers")
	cmd.Flags().Int("max-questions", config.DefaultMaxQuestions,
		"Maximum number of questions in one request")
	cmd.Flags().String("log-format", "text",
		"Log format: text or json")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return err
	}
	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	cfg, err := buildServerConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logFormat, err := cmd.Flags().GetString("log-format")
	if err != nil {
		return err
	}
	logger, err := newServerLogger(cmd.ErrOrStderr(), logFormat, cfg.Verbose)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	opts, closeCache, err := chainOptions(cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	chain := solve.NewChain(opts...)
	logger.Info("solver ready", "stages", chain.StageNames())

	srv := server.New(chain,
		server.WithMaxQuestions(cfg.MaxQuestions),
		server.WithLogger(logger),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s/ai-solve/\n", cfg.ListenAddress)
	return srv.ListenAndServe(ctx, cfg.ListenAddress)
}

// loadEnvFile loads path into the environment. Variables already set win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// buildServerConfig creates a ServerConfig from the environment and flags.
func buildServerConfig(cmd *cobra.Command) (*config.ServerConfig, error) {
	cfg := config.NewServerConfig()
	flags := cmd.Flags()

	var err error
	if cfg.ListenAddress, err = flags.GetString("listen"); err != nil {
		return nil, err
	}
	if cfg.PrimaryModel, err = flags.GetString("primary-model"); err != nil {
		return nil, err
	}
	if cfg.BackupModel, err = flags.GetString("backup-model"); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = flags.GetDuration("llm-timeout"); err != nil {
		return nil, err
	}
	if cfg.CacheDir, err = flags.GetString("cache-dir"); err != nil {
		return nil, err
	}
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return nil, err
	}
	if noCache {
		cfg.CacheDir = ""
	}
	if cfg.MaxQuestions, err = flags.GetInt("max-questions"); err != nil {
		return nil, err
	}

	cfg.AnthropicAPIKey = os.Getenv(envAnthropicKey)
	cfg.GeminiAPIKey = os.Getenv(envGeminiKey)
	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// newServerLogger returns a redacting logger in the requested format.
func newServerLogger(w io.Writer, format string, verbose bool) (*slog.Logger, error) {
	switch format {
	case "text", "":
		return applog.New(w, verbose), nil
	case "json":
		return applog.NewJSON(w, verbose), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}

// chainOptions builds the solving stages from cfg. Models without an API
// key are left out. The returned function closes the answer cache.
func chainOptions(cfg *config.ServerConfig, logger *slog.Logger) ([]solve.Option, func(), error) {
	opts := []solve.Option{solve.WithLogger(logger)}
	closeCache := func() {}

	if cfg.CacheDir != "" {
		db, err := database.Open(cfg.CacheDir, database.DefaultOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open answer cache: %w", err)
		}
		logger.Info("answer cache opened", "path", db.Path())
		opts = append(opts, solve.WithCache(solve.DBCache{DB: db}))
		closeCache = func() {
			if err := db.Close(); err != nil {
				logger.Warn("failed to close answer cache", "error", err)
			}
		}
	}

	retry := []llm.RetryOption{llm.WithRetryLogger(logger)}

	if cfg.AnthropicAPIKey != "" {
		claude, err := llm.NewAnthropic(cfg.AnthropicAPIKey, cfg.PrimaryModel)
		if err != nil {
			closeCache()
			return nil, nil, err
		}
		opts = append(opts, solve.WithPrimary(llm.WithRetry(claude, cfg.LLMTimeout, retry...)))
	} else {
		logger.Warn("primary model disabled", "reason", envAnthropicKey+" is not set")
	}

	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGemini(cfg.GeminiAPIKey, cfg.BackupModel)
		if err != nil {
			closeCache()
			return nil, nil, err
		}
		opts = append(opts, solve.WithBackup(llm.WithRetry(gemini, cfg.LLMTimeout, retry...)))
	} else {
		logger.Warn("backup model disabled", "reason", envGeminiKey+" is not set")
	}

	return opts, closeCache, nil
}
