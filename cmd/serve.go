package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/faleproxy/core/rewrite"
	"github.com/gaurav-prasanna/faleproxy/internal/metrics"
	"github.com/gaurav-prasanna/faleproxy/internal/server"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	Long: `Serve starts the faleproxy web service: an index page at /, POST /fetch
to rewrite a page, /healthz and Prometheus metrics at /metrics.

The listen address comes from --addr, then PORT, then the config file
(default :3001).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address, e.g. :3001 or 127.0.0.1:8080")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = flagAddr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewPrometheusRecorder(reg)

	srv := server.New(cfg.Server, server.Options{
		Fetcher:  newFetcher(rec),
		Rewriter: rewrite.New(cfg.Terms, rec),
		Recorder: rec,
		Metrics:  rec.Handler(),
		Logger:   logger,
	})

	logger.Info().
		Str("target", cfg.Terms.Target).
		Str("replacement", cfg.Terms.Replacement).
		Msg("starting faleproxy")
	return srv.Run(cmd.Context())
}
