package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/cryptobot/market"
)

// CSVFile reads OHLCV bars from a CSV file:
//
//	time,open,high,low,close,volume
//
// A header row is optional. When present, columns are matched by name
// (case-insensitive; "date" and "timestamp" are accepted for time, other
// columns such as "Adj Close" are ignored). time is RFC3339, RFC3339Nano or
// 2006-01-02. Blank rows and rows containing "null" are skipped.
//
// If Path is a directory the file is <Path>/<symbol>.csv.
type CSVFile struct {
	Path string
}

var csvColumns = []string{"time", "open", "high", "low", "close", "volume"}

func (c CSVFile) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]market.RawRow, error) {
	path := c.Path
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, symbol+".csv")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer f.Close()

	rows, err := readCSV(ctx, f, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, path, err)
	}
	return rows, nil
}

func readCSV(ctx context.Context, src io.Reader, start, end time.Time) ([]market.RawRow, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	idx := map[string]int{"time": 0, "open": 1, "high": 2, "low": 3, "close": 4, "volume": 5}
	sawFirst := false
	line := 0

	var out []market.RawRow
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		// Allow a single header row
		if !sawFirst {
			sawFirst = true
			if hdr, ok := parseHeader(row); ok {
				idx = hdr
				continue
			}
		}

		rr, ok, err := parseBarRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !ok || !inRange(rr.Time, start, end) {
			continue
		}
		out = append(out, rr)
	}
	return out, nil
}

func parseHeader(row []string) (map[string]int, bool) {
	first := strings.ToLower(strings.TrimSpace(row[0]))
	if first != "time" && first != "date" && first != "timestamp" && first != "datetime" {
		return nil, false
	}

	idx := make(map[string]int, len(csvColumns))
	for i, name := range row {
		switch n := strings.ToLower(strings.TrimSpace(name)); n {
		case "date", "timestamp", "datetime":
			idx["time"] = i
		default:
			if _, dup := idx[n]; !dup {
				idx[n] = i
			}
		}
	}
	for _, col := range csvColumns {
		if col == "volume" {
			continue
		}
		if _, ok := idx[col]; !ok {
			return nil, false
		}
	}
	return idx, true
}

func parseBarRow(row []string, idx map[string]int) (market.RawRow, bool, error) {
	field := func(name string) (string, bool) {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return "", false
		}
		v := strings.TrimSpace(row[i])
		return v, v != "" && !strings.EqualFold(v, "null")
	}

	ts, ok := field("time")
	if !ok {
		return market.RawRow{}, false, nil
	}
	t, err := parseTime(ts)
	if err != nil {
		return market.RawRow{}, false, err
	}

	rr := market.RawRow{Time: t}
	targets := []struct {
		name string
		dst  *float64
		opt  bool
	}{
		{"open", &rr.Open, false},
		{"high", &rr.High, false},
		{"low", &rr.Low, false},
		{"close", &rr.Close, false},
		{"volume", &rr.Volume, true},
	}
	for _, tg := range targets {
		v, ok := field(tg.name)
		if !ok {
			if tg.opt {
				continue
			}
			return market.RawRow{}, false, nil
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return market.RawRow{}, false, fmt.Errorf("bad %s %q: %w", tg.name, v, err)
		}
		*tg.dst = x
	}
	return rr, true, nil
}

// parseTime accepts RFC3339, RFC3339Nano or a bare date.
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

// WriteCSV writes rows in the format CSVFile reads.
func WriteCSV(w io.Writer, rows []market.RawRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Time.UTC().Format(time.RFC3339),
			strconv.FormatFloat(r.Open, 'f', -1, 64),
			strconv.FormatFloat(r.High, 'f', -1, 64),
			strconv.FormatFloat(r.Low, 'f', -1, 64),
			strconv.FormatFloat(r.Close, 'f', -1, 64),
			strconv.FormatFloat(r.Volume, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
