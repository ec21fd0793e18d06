package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/cryptobot/internal/httpapi"
	"github.com/rustyeddy/cryptobot/journal"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve backtests over HTTP",
	Long: `Start the JSON API.

Routes:
  GET  /health
  GET  /api/v1/strategies
  POST /api/v1/backtests   body: configuration overrides as JSON
  GET  /api/v1/runs        when journal.type is sqlite
  GET  /api/v1/runs/:id

The loaded configuration supplies the defaults for every request. The data
source and journal always come from it.

Example:
  cryptobot serve -c backtest.yaml --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	log, err := setLogger(cmd, cfg.Log)
	if err != nil {
		return err
	}

	srv := &httpapi.Server{Defaults: cfg, Logger: log}

	j, err := journal.Open(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if j != nil {
		defer j.Close()
		srv.Journal = j
		if store, ok := j.(httpapi.RunStore); ok {
			srv.Runs = store
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, serveAddr)
}
