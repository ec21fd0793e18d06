package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// CRYPTOBOT_BROKER_STARTING_CASH.
const EnvPrefix = "CRYPTOBOT"

// NewViper returns a viper instance seeded with Default() and reading
// CRYPTOBOT_* environment variables. If path is set the file is merged over
// the defaults.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

// SetDefaults registers every key of c so that environment variables and
// flags can override keys missing from the file.
func SetDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("symbol", c.Symbol)
	v.SetDefault("start_date", c.StartDate)
	v.SetDefault("end_date", c.EndDate)

	v.SetDefault("strategy.name", c.Strategy.Name)
	v.SetDefault("strategy.fast_period", c.Strategy.FastPeriod)
	v.SetDefault("strategy.slow_period", c.Strategy.SlowPeriod)

	v.SetDefault("broker.starting_cash", c.Broker.StartingCash)
	v.SetDefault("broker.sizing_fraction", c.Broker.SizingFraction)
	v.SetDefault("broker.lot_size", c.Broker.LotSize)

	v.SetDefault("run.close_at_end", c.Run.CloseAtEnd)

	v.SetDefault("data.source", c.Data.Source)
	v.SetDefault("data.csv_path", c.Data.CSVPath)
	v.SetDefault("data.cache_dir", c.Data.CacheDir)
	v.SetDefault("data.timeout", c.Data.Timeout)
	v.SetDefault("data.retries", c.Data.Retries)
	v.SetDefault("data.rate_per_minute", c.Data.RatePerMinute)
	v.SetDefault("data.alpaca.key_id", c.Data.Alpaca.KeyID)
	v.SetDefault("data.alpaca.secret_key", c.Data.Alpaca.SecretKey)
	v.SetDefault("data.alpaca.base_url", c.Data.Alpaca.BaseURL)
	v.SetDefault("data.alpaca.feed", c.Data.Alpaca.Feed)

	v.SetDefault("journal.type", c.Journal.Type)
	v.SetDefault("journal.trades_file", c.Journal.TradesFile)
	v.SetDefault("journal.equity_file", c.Journal.EquityFile)
	v.SetDefault("journal.db_path", c.Journal.DBPath)

	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
}

// FromViper decodes and validates the merged configuration.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
