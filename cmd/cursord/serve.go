package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pairprog/cursord/pkg/agent"
	"github.com/pairprog/cursord/pkg/cursor"
	"github.com/pairprog/cursord/pkg/engine/anthropic"
	"github.com/pairprog/cursord/pkg/screen"
	"github.com/pairprog/cursord/pkg/server"
	"github.com/pairprog/cursord/pkg/store/sqlite"
)

func newServeCmd() *cobra.Command {
	var (
		addr           string
		dbPath         string
		model          string
		maxTokens      int
		thinkingBudget int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the cursord HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey := os.Getenv("ANTHROPIC_API_KEY")
			if apiKey == "" {
				return errors.New("ANTHROPIC_API_KEY environment variable not set")
			}

			provider, err := anthropic.New(apiKey)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return err
			}
			runs, err := sqlite.New(dbPath)
			if err != nil {
				return err
			}
			defer runs.Close()

			capturer := &screen.Capturer{}
			loop := agent.New(provider, capturer, agent.Config{
				Model:          model,
				MaxTokens:      maxTokens,
				ThinkingBudget: thinkingBudget,
			})
			executor := cursor.NewExecutor(&cursor.XdoDevice{})

			srv := server.New(loop, executor, capturer, runs)
			if err := srv.Start(addr); err != nil {
				slog.Error("Server failed", "error", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8377", "Listen address")
	cmd.Flags().StringVar(&dbPath, "db", defaultDBPath(), "Path to the run-history database")
	cmd.Flags().StringVar(&model, "model", "claude-sonnet-4-20250514", "Model identifier")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 2048, "Max tokens per engine call")
	cmd.Flags().IntVar(&thinkingBudget, "thinking-budget", 1024, "Reasoning token budget (0 disables)")

	return cmd
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cursord.db"
	}
	return filepath.Join(home, ".cursord", "runs.db")
}
