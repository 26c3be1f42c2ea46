package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/nao1215/quizsolve/internal/config"
	"github.com/nao1215/quizsolve/internal/database"
)

// cacheStatus is the JSON form of the cache command output.
type cacheStatus struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
	Purged  int64  `json:"purged"`
}

// NewCacheCmd creates the cache command.
// This command inspects and trims the answer cache used by the serve command.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or purge the answer cache",
		Long: `Cache shows how many answers the solving API has cached and can remove old ones.

"quizsolve serve" stores every model answer keyed by the question and its
options, so the same question is not sent to a model twice.

Examples:
  # Show the cache location and size
  quizsolve cache

  # Remove answers older than 30 days
  quizsolve cache --purge 720h

  # Remove every cached answer
  quizsolve cache --purge 0s

  # Output in JSON format
  quizsolve cache --json`,
		Args: cobra.NoArgs,
		RunE: runCacheCmd,
	}

	cmd.Flags().String("cache-dir", config.XDGDataDir(),
		"Directory of the answer cache database")
	cmd.Flags().Duration("purge", -1,
		"Remove answers older than this age (0s removes all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")

	return cmd
}

// runCacheCmd executes the cache command.
func runCacheCmd(cmd *cobra.Command, _ []string) error {
	dir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return err
	}
	purge, err := cmd.Flags().GetDuration("purge")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// Inspecting must not create an empty database as a side effect.
	if _, err := os.Stat(filepath.Join(dir, database.FileName)); os.IsNotExist(err) {
		return fmt.Errorf("no answer cache in %s (run \"quizsolve serve\" first)", dir)
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dir, opts)
	if err != nil {
		return fmt.Errorf("failed to open answer cache: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	status := cacheStatus{Path: db.Path()}

	if cmd.Flags().Changed("purge") {
		if purge < 0 {
			return fmt.Errorf("invalid purge age %s: must be non-negative", purge)
		}
		status.Purged, err = db.Purge(ctx, purge)
		if err != nil {
			return fmt.Errorf("failed to purge answer cache: %w", err)
		}
	}

	status.Entries, err = db.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count cached answers: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	fmt.Fprintf(out, "Answer cache: %s\n", status.Path)
	fmt.Fprintf(out, "Entries:      %d\n", status.Entries)
	if cmd.Flags().Changed("purge") {
		fmt.Fprintf(out, "Purged:       %d (older than %s)\n", status.Purged, formatAge(purge))
	}
	return nil
}

// formatAge renders a purge age, with "now" for zero.
func formatAge(d time.Duration) string {
	if d == 0 {
		return "now"
	}
	return d.String()
}
