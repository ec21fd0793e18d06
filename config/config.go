// Package config defines the backtest configuration file, its defaults and
// its validation rules.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// DateLayout is the format of start_date and end_date.
const DateLayout = "2006-01-02"

// Config represents a complete backtest configuration
type Config struct {
	Symbol    string `json:"symbol" yaml:"symbol" mapstructure:"symbol"`
	StartDate string `json:"start_date" yaml:"start_date" mapstructure:"start_date"`
	EndDate   string `json:"end_date" yaml:"end_date" mapstructure:"end_date"`

	Strategy StrategyConfig `json:"strategy" yaml:"strategy" mapstructure:"strategy"`
	Broker   BrokerConfig   `json:"broker" yaml:"broker" mapstructure:"broker"`
	Run      RunConfig      `json:"run" yaml:"run" mapstructure:"run"`
	Data     DataConfig     `json:"data" yaml:"data" mapstructure:"data"`
	Journal  JournalConfig  `json:"journal" yaml:"journal" mapstructure:"journal"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}

// StrategyConfig selects the strategy and its moving-average periods
type StrategyConfig struct {
	Name       string `json:"name" yaml:"name" mapstructure:"name"`
	FastPeriod int    `json:"fast_period" yaml:"fast_period" mapstructure:"fast_period"`
	SlowPeriod int    `json:"slow_period" yaml:"slow_period" mapstructure:"slow_period"`
}

// BrokerConfig contains the simulated account parameters
type BrokerConfig struct {
	StartingCash   float64 `json:"starting_cash" yaml:"starting_cash" mapstructure:"starting_cash"`
	SizingFraction float64 `json:"sizing_fraction" yaml:"sizing_fraction" mapstructure:"sizing_fraction"`
	LotSize        float64 `json:"lot_size,omitempty" yaml:"lot_size,omitempty" mapstructure:"lot_size"` // 0 = whole units
}

// RunConfig controls how a run ends
type RunConfig struct {
	CloseAtEnd bool `json:"close_at_end" yaml:"close_at_end" mapstructure:"close_at_end"`
}

// DataConfig selects where bars come from
type DataConfig struct {
	Source        string       `json:"source" yaml:"source" mapstructure:"source"` // "csv" or "alpaca"
	CSVPath       string       `json:"csv_path,omitempty" yaml:"csv_path,omitempty" mapstructure:"csv_path"`
	CacheDir      string       `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty" mapstructure:"cache_dir"`
	Timeout       string       `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"` // e.g. "30s"
	Retries       int          `json:"retries" yaml:"retries" mapstructure:"retries"`
	RatePerMinute int          `json:"rate_per_minute,omitempty" yaml:"rate_per_minute,omitempty" mapstructure:"rate_per_minute"`
	Alpaca        AlpacaConfig `json:"alpaca" yaml:"alpaca" mapstructure:"alpaca"`
}

// AlpacaConfig holds market data credentials. Keys are usually supplied
// through CRYPTOBOT_DATA_ALPACA_KEY_ID and CRYPTOBOT_DATA_ALPACA_SECRET_KEY.
type AlpacaConfig struct {
	KeyID     string `json:"key_id,omitempty" yaml:"key_id,omitempty" mapstructure:"key_id"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty" mapstructure:"secret_key"`
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
	Feed      string `json:"feed,omitempty" yaml:"feed,omitempty" mapstructure:"feed"`
}

// JournalConfig contains journaling parameters. An empty Type disables it.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type" mapstructure:"type"` // "", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty" mapstructure:"trades_file"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty" mapstructure:"equity_file"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty" mapstructure:"db_path"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"` // "text" or "json"
}

// Range parses the configured dates. The end date is exclusive.
func (c *Config) Range() (start, end time.Time, err error) {
	start, err = time.Parse(DateLayout, c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date: %w", err)
	}
	end, err = time.Parse(DateLayout, c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date: %w", err)
	}
	return start, end, nil
}

// FetchTimeout converts data.timeout to a duration. Empty means no timeout.
func (d DataConfig) FetchTimeout() (time.Duration, error) {
	if d.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(d.Timeout)
}

// LoadFromFile loads configuration from a file (JSON or YAML)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON document over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	// Try YAML first, fall back to JSON
	err := yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, else JSON)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// RedactedYAML renders the configuration with API credentials blanked, for
// storing alongside a run.
func (c *Config) RedactedYAML() ([]byte, error) {
	cp := *c
	if cp.Data.Alpaca.KeyID != "" {
		cp.Data.Alpaca.KeyID = "REDACTED"
	}
	if cp.Data.Alpaca.SecretKey != "" {
		cp.Data.Alpaca.SecretKey = "REDACTED"
	}
	return yaml.Marshal(&cp)
}

// Validate checks if the configuration is valid. Every error wraps
// ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	start, end, err := c.Range()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("start_date must be before end_date")
	}

	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if c.Strategy.FastPeriod <= 0 {
		return fmt.Errorf("strategy.fast_period must be positive")
	}
	if c.Strategy.SlowPeriod <= c.Strategy.FastPeriod {
		return fmt.Errorf("strategy.slow_period must be greater than strategy.fast_period")
	}

	if c.Broker.StartingCash <= 0 {
		return fmt.Errorf("broker.starting_cash must be positive")
	}
	if c.Broker.SizingFraction <= 0 || c.Broker.SizingFraction > 1 {
		return fmt.Errorf("broker.sizing_fraction must be in (0, 1]")
	}
	if c.Broker.LotSize < 0 {
		return fmt.Errorf("broker.lot_size must not be negative")
	}

	switch c.Data.Source {
	case "csv":
		if c.Data.CSVPath == "" {
			return fmt.Errorf("data.csv_path required for csv source")
		}
	case "alpaca":
	default:
		return fmt.Errorf("data.source must be 'csv' or 'alpaca'")
	}
	if c.Data.Retries < 0 {
		return fmt.Errorf("data.retries must not be negative")
	}
	if c.Data.RatePerMinute < 0 {
		return fmt.Errorf("data.rate_per_minute must not be negative")
	}
	if _, err := c.Data.FetchTimeout(); err != nil {
		return fmt.Errorf("data.timeout: %w", err)
	}

	switch c.Journal.Type {
	case "":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be empty, 'csv' or 'sqlite'")
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Symbol:    "BTC-USD",
		StartDate: "2020-01-01",
		EndDate:   "2021-01-01",
		Strategy: StrategyConfig{
			Name:       "sma-cross",
			FastPeriod: 10,
			SlowPeriod: 30,
		},
		Broker: BrokerConfig{
			StartingCash:   10000,
			SizingFraction: 0.95,
		},
		Data: DataConfig{
			Source:        "alpaca",
			CacheDir:      "./data/cache",
			Timeout:       "30s",
			Retries:       3,
			RatePerMinute: 200,
			Alpaca: AlpacaConfig{
				Feed: "sip",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
