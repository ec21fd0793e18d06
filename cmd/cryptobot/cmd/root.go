package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rustyeddy/cryptobot/config"
	"github.com/rustyeddy/cryptobot/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "cryptobot",
	Short: "Moving-average crossover backtester for daily crypto bars",
	Long: `Cryptobot replays daily OHLCV bars through a moving-average crossover
strategy against a simulated long-only cash broker and reports the final
portfolio value and every trade.

Bars come from a CSV file or from Alpaca market data (cached as Parquet).
Runs can be journaled to SQLite or CSV and served over HTTP.

Settings are read from a YAML or JSON file (--config), then CRYPTOBOT_*
environment variables, then command flags.`,
	SilenceUsage: true,
}

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
}

// loadConfig merges defaults, the config file, CRYPTOBOT_* variables and the
// command flags named in bindings (config key -> flag name).
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	v, err := newViper(cmd, bindings)
	if err != nil {
		return nil, err
	}
	return config.FromViper(v)
}

func newViper(cmd *cobra.Command, bindings map[string]string) (*viper.Viper, error) {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return nil, err
	}

	all := map[string]string{
		"log.level":  "log-level",
		"log.format": "log-format",
	}
	for key, name := range bindings {
		all[key] = name
	}
	for key, name := range all {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// setLogger installs the configured logger as the slog default.
func setLogger(cmd *cobra.Command, cfg config.LogConfig) (*slog.Logger, error) {
	log, err := logging.New(cmd.ErrOrStderr(), cfg.Level, cfg.Format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)
	return log, nil
}
