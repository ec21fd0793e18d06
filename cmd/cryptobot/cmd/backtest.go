package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/cryptobot/backtest"
	"github.com/rustyeddy/cryptobot/config"
	"github.com/rustyeddy/cryptobot/feed"
	"github.com/rustyeddy/cryptobot/journal"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a moving-average crossover backtest",
	Long: `Fetch daily bars for a symbol, replay them through the selected strategy
and print the final portfolio value.

Supported strategies:
  - sma-cross: enter on a fast/slow SMA up-cross, exit on the down-cross
  - ema-cross: the same rule on exponential averages
  - noop:      never trades (baseline)

Examples:
  cryptobot backtest
  cryptobot backtest --csv data/BTC-USD.csv --fast 10 --slow 30 --trades
  cryptobot backtest --symbol ETH-USD --start 2021-01-01 --end 2022-01-01 --db runs.sqlite
  cryptobot backtest --csv data/BTC-USD.csv --equity-csv equity.csv`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

var (
	btShowTrades bool
	btEquityCSV  string
)

// backtestFlags maps config keys to flag names.
var backtestFlags = map[string]string{
	"symbol":                 "symbol",
	"start_date":             "start",
	"end_date":               "end",
	"strategy.name":          "strategy",
	"strategy.fast_period":   "fast",
	"strategy.slow_period":   "slow",
	"broker.starting_cash":   "cash",
	"broker.sizing_fraction": "fraction",
	"broker.lot_size":        "lot",
	"run.close_at_end":       "close-at-end",
	"data.source":            "source",
	"data.csv_path":          "csv",
	"data.cache_dir":         "cache-dir",
	"journal.db_path":        "db",
}

func init() {
	rootCmd.AddCommand(backtestCmd)

	d := config.Default()
	f := backtestCmd.Flags()
	f.StringP("symbol", "s", d.Symbol, "symbol to backtest")
	f.String("start", d.StartDate, "first day (inclusive, YYYY-MM-DD)")
	f.String("end", d.EndDate, "last day (exclusive, YYYY-MM-DD)")
	f.String("strategy", d.Strategy.Name, "strategy name (sma-cross, ema-cross, noop)")
	f.Int("fast", d.Strategy.FastPeriod, "fast moving-average period")
	f.Int("slow", d.Strategy.SlowPeriod, "slow moving-average period")
	f.Float64("cash", d.Broker.StartingCash, "starting cash")
	f.Float64("fraction", d.Broker.SizingFraction, "fraction of cash committed per entry")
	f.Float64("lot", d.Broker.LotSize, "lot size, e.g. 0.001; 0 means whole units")
	f.Bool("close-at-end", d.Run.CloseAtEnd, "liquidate an open position on the last bar")
	f.String("source", d.Data.Source, "data source: alpaca or csv")
	f.String("csv", "", "read bars from this CSV file (implies --source csv)")
	f.String("cache-dir", d.Data.CacheDir, "Parquet cache directory for remote data")
	f.StringP("db", "d", "", "journal the run to this SQLite file")
	f.BoolVar(&btShowTrades, "trades", false, "list every closed trade")
	f.StringVar(&btEquityCSV, "equity-csv", "", "write the per-bar equity trace to this CSV file")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	v, err := newViper(cmd, backtestFlags)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("csv") && !flags.Changed("source") {
		v.Set("data.source", "csv")
	}
	if flags.Changed("db") {
		v.Set("journal.type", "sqlite")
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	log, err := setLogger(cmd, cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher, err := feed.FromConfig(cfg.Data)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	runner := &backtest.Runner{
		Fetcher:    fetcher,
		Presenters: []backtest.Presenter{backtest.TextPresenter{W: out, Trades: btShowTrades}},
		Logger:     log,
	}

	j, err := journal.Open(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	var jp *journal.Presenter
	if j != nil {
		defer j.Close()
		raw, err := cfg.RedactedYAML()
		if err != nil {
			return err
		}
		jp = &journal.Presenter{J: j, Config: raw, Logger: log}
		runner.Presenters = append(runner.Presenters, jp)
	}
	if btEquityCSV != "" {
		runner.Presenters = append(runner.Presenters, backtest.PresenterFunc(func(_ context.Context, res *backtest.Result) error {
			var runID string
			if jp != nil {
				runID = jp.LastRunID
			}
			return writeEquityFile(btEquityCSV, runID, res)
		}))
	}

	if _, err := runner.Run(ctx, cfg); err != nil {
		if errors.Is(err, feed.ErrNoData) {
			fmt.Fprintln(out, "no results available")
		}
		return err
	}

	if jp != nil {
		fmt.Fprintf(out, "✓ Journaled run %s\n", jp.LastRunID)
	}
	return nil
}

func writeEquityFile(path, runID string, res *backtest.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("equity csv: %w", err)
	}
	if err := journal.WriteEquityCSV(f, runID, res); err != nil {
		_ = f.Close()
		return fmt.Errorf("equity csv: %w", err)
	}
	return f.Close()
}
