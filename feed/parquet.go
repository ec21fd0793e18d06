package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/rustyeddy/cryptobot/market"
)

// BarRecord is the Parquet schema for cached bars.
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// ParquetStore keeps fetched bars on disk, one file per symbol and range:
//
//	<DataDir>/<SYMBOL>/<start>_<end>.parquet
type ParquetStore struct {
	DataDir string
}

func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// Path returns the cache file for symbol and range. Open bounds are written
// as "open".
func (s *ParquetStore) Path(symbol string, start, end time.Time) string {
	name := fmt.Sprintf("%s_%s.parquet", rangeKey(start), rangeKey(end))
	return filepath.Join(s.DataDir, safeSymbol(symbol), name)
}

// Read loads cached rows. ok is false when nothing is cached.
func (s *ParquetStore) Read(symbol string, start, end time.Time) (rows []market.RawRow, ok bool, err error) {
	path := s.Path(symbol, start, end)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	recs, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}

	rows = make([]market.RawRow, len(recs))
	for i, r := range recs {
		rows[i] = market.RawRow{
			Time:   time.UnixMilli(r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	return rows, true, nil
}

// Write replaces the cached rows for symbol and range.
func (s *ParquetStore) Write(symbol string, start, end time.Time, rows []market.RawRow) error {
	path := s.Path(symbol, start, end)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", filepath.Dir(path), err)
	}

	recs := make([]BarRecord, len(rows))
	for i, r := range rows {
		recs[i] = BarRecord{
			Symbol:    symbol,
			Timestamp: r.Time.UnixMilli(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		}
	}

	// Readers only ever see a complete file.
	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, recs); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

func rangeKey(t time.Time) string {
	if t.IsZero() {
		return "open"
	}
	return t.UTC().Format("20060102")
}

func safeSymbol(symbol string) string {
	return strings.NewReplacer("/", "-", string(filepath.Separator), "-").Replace(strings.ToUpper(symbol))
}

// Cached serves rows from Store when present and otherwise fetches them from
// Source and stores them. Empty results are not cached.
type Cached struct {
	Source Fetcher
	Store  *ParquetStore
}

func (c Cached) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]market.RawRow, error) {
	log := slog.Default().With("symbol", symbol)

	rows, ok, err := c.Store.Read(symbol, start, end)
	if err != nil {
		log.Warn("bar cache unreadable, refetching", "error", err)
	} else if ok {
		log.Debug("bar cache hit", "rows", len(rows))
		return rows, nil
	}

	rows, err = c.Source.Fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		if err := c.Store.Write(symbol, start, end, rows); err != nil {
			log.Warn("bar cache write failed", "error", err)
		}
	}
	return rows, nil
}
