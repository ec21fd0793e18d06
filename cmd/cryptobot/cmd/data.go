package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/cryptobot/feed"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Download and cache historical bars",
}

var dataFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch daily bars and write them as CSV",
	Long: `Fetch the configured symbol and date range from the data source and write
the bars as CSV. With --cache-dir the bars are also kept as Parquet so later
backtests run offline.

Example:
  cryptobot data fetch --symbol BTC-USD --start 2020-01-01 --end 2021-01-01 -o data/BTC-USD.csv`,
	Args: cobra.NoArgs,
	RunE: runDataFetch,
}

var dataOutput string

var dataFlags = map[string]string{
	"symbol":         "symbol",
	"start_date":     "start",
	"end_date":       "end",
	"data.cache_dir": "cache-dir",
}

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataFetchCmd)

	f := dataFetchCmd.Flags()
	f.StringP("symbol", "s", "BTC-USD", "symbol to fetch")
	f.String("start", "2020-01-01", "first day (inclusive, YYYY-MM-DD)")
	f.String("end", "2021-01-01", "last day (exclusive, YYYY-MM-DD)")
	f.String("cache-dir", "", "Parquet cache directory")
	f.StringVarP(&dataOutput, "output", "o", "", "CSV output path (default stdout)")
}

func runDataFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, dataFlags)
	if err != nil {
		return err
	}
	log, err := setLogger(cmd, cfg.Log)
	if err != nil {
		return err
	}

	fetcher, err := feed.FromConfig(cfg.Data)
	if err != nil {
		return err
	}
	start, end, err := cfg.Range()
	if err != nil {
		return err
	}

	rows, err := fetcher.Fetch(cmd.Context(), cfg.Symbol, start, end)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w for %s", feed.ErrNoData, cfg.Symbol)
	}

	w := cmd.OutOrStdout()
	if dataOutput != "" {
		f, err := os.Create(dataOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := feed.WriteCSV(w, rows); err != nil {
		return err
	}
	log.Info("wrote bars", "symbol", cfg.Symbol, "rows", len(rows), "output", dataOutput)
	return nil
}
