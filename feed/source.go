package feed

import (
	"fmt"
	"time"

	"github.com/rustyeddy/cryptobot/config"
)

// FromConfig builds the fetcher described by cfg. Remote sources get the
// retry and rate-limit wrapper, and the Parquet cache when cache_dir is set.
func FromConfig(cfg config.DataConfig) (Fetcher, error) {
	switch cfg.Source {
	case "csv":
		return CSVFile{Path: cfg.CSVPath}, nil

	case "alpaca":
		timeout, err := cfg.FetchTimeout()
		if err != nil {
			return nil, fmt.Errorf("data.timeout: %w", err)
		}
		var f Fetcher = Retrying{
			Source: NewAlpaca(AlpacaOptions{
				APIKey:    cfg.Alpaca.KeyID,
				APISecret: cfg.Alpaca.SecretKey,
				BaseURL:   cfg.Alpaca.BaseURL,
				Feed:      cfg.Alpaca.Feed,
			}),
			Attempts:  cfg.Retries + 1,
			BaseDelay: time.Second,
			Timeout:   timeout,
			Limiter:   NewRateLimiter(cfg.RatePerMinute),
		}
		if cfg.CacheDir != "" {
			f = Cached{Source: f, Store: NewParquetStore(cfg.CacheDir)}
		}
		return f, nil

	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Source)
	}
}
