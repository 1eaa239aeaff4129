// Package cmd implements the faleproxy CLI using Cobra.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/faleproxy/core/fetch"
	"github.com/gaurav-prasanna/faleproxy/internal/config"
	"github.com/gaurav-prasanna/faleproxy/internal/logging"
	"github.com/gaurav-prasanna/faleproxy/internal/metrics"
)

// Persistent flag variables.
var (
	flagConfig      string
	flagTarget      string
	flagReplacement string
	flagLogLevel    string
	flagLogFormat   string
)

// Loaded by PersistentPreRunE before any subcommand runs.
var (
	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "faleproxy",
	Short: "Faleproxy: rewrite web pages, swapping one term for another while keeping its case",
	Long: `Faleproxy fetches web pages and replaces every occurrence of a term
(Yale by default) with another (Fale), preserving the casing of each match.
Only visible text and titles change; links, attributes and scripts are kept.

Usage:
  faleproxy serve [flags]
  faleproxy rewrite <url> [flags]`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "YAML config file")
	pf.StringVar(&flagTarget, "target", "", "Term to replace (default \"Yale\")")
	pf.StringVar(&flagReplacement, "replacement", "", "Replacement term (default \"Fale\")")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: console or json")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig layers flags over config.Load and puts the logger on the
// command context.
func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("target") {
		c.Terms.Target = flagTarget
	}
	if flags.Changed("replacement") {
		c.Terms.Replacement = flagReplacement
	}
	if flags.Changed("log-level") {
		c.Log.Level = config.NormalizeLogLevel(flagLogLevel)
	}
	if flags.Changed("log-format") {
		c.Log.Format = config.NormalizeLogFormat(flagLogFormat)
	}
	if err := c.Validate(); err != nil {
		return err
	}

	cfg = c
	logger = logging.New(os.Stderr, cfg.Log)
	cmd.SetContext(logger.WithContext(cmd.Context()))
	return nil
}

// newFetcher builds the HTTP fetcher from the loaded configuration.
func newFetcher(rec metrics.Recorder) *fetch.HTTPFetcher {
	return fetch.New(fetch.Options{
		Timeout:      cfg.Fetch.Timeout,
		UserAgent:    cfg.Fetch.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		Retry:        cfg.Fetch.Retry.Policy(),
		Recorder:     rec,
	})
}
