package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/tabguard/internal/app"
	"github.com/MrSnakeDoc/tabguard/internal/config"
	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/logger"
	"github.com/MrSnakeDoc/tabguard/internal/metrics"
	"github.com/MrSnakeDoc/tabguard/internal/sources/settingsfile"
	"github.com/MrSnakeDoc/tabguard/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "tabguard",
	Short:   "Keeps the number of open browser tabs under control",
	Version: version.String(),
	RunE:    runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daemon the browser extension talks to (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("❌ tabguard failed to start: %w", err)
	}
	return a.Run(ctx)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the metrics summary of the last 7 days as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := logger.New("error", false)

		backend, client, err := app.OpenBackend(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		if client != nil {
			defer func() { _ = client.Close() }()
		}

		summary, err := metrics.New(backend, domain.RealClock{}, log).Summarize(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Work with settings files",
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Validate a YAML or TOML settings file and print the effective settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := settingsfile.NewLoader(args[0]).Load()
		if err != nil {
			return err
		}
		effective := doc.File.Merge(domain.DefaultSettings())
		if err := effective.Validate(); err != nil {
			return err
		}

		out, err := yaml.Marshal(effective)
		if err != nil {
			return fmt.Errorf("failed to render settings: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s is valid (digest %016x)\n%s", args[0], doc.Digest, out)
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsCheckCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(settingsCmd)
}
