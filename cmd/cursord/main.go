package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env if present; real env vars win.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "cursord",
		Short: "Local pair-programming cursor service",
		Long: `cursord runs a local HTTP service that turns natural-language
programming goals into mouse-cursor actions, delegating visual reasoning
to a remote vision model.`,
		SilenceUsage: true,
	}

	verbose := rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cobra.OnInitialize(func() {
		level := slog.LevelInfo
		if *verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	})

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDoCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
