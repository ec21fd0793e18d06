package journal

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rustyeddy/cryptobot/backtest"
)

var (
	tradeHeader  = []string{"run_id", "seq", "symbol", "quantity", "entry_price", "exit_price", "open_time", "close_time", "realized_pl", "reason"}
	equityHeader = []string{"run_id", "bar", "time", "close", "cash", "quantity", "value"}
)

var _ Journal = (*CSVJournal)(nil)

// CSVJournal appends runs to a trades file and an equity file. Run summaries
// are not kept; use the SQLite journal for those.
type CSVJournal struct {
	mu     sync.Mutex
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		_ = tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := tw.Write(tradeHeader); err != nil {
		return nil, err
	}
	if err := ew.Write(equityHeader); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{trades: tw, equity: ew, tf: tf, ef: ef}, nil
}

func (j *CSVJournal) RecordRun(_ context.Context, run Run, res *backtest.Result) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, t := range tradeRecords(run.RunID, res) {
		err := j.trades.Write([]string{
			t.RunID,
			strconv.Itoa(t.Seq),
			t.Symbol,
			t.Quantity.String(),
			t.EntryPrice.String(),
			t.ExitPrice.String(),
			t.OpenTime.UTC().Format(time.RFC3339),
			t.CloseTime.UTC().Format(time.RFC3339),
			t.RealizedPL.String(),
			t.Reason,
		})
		if err != nil {
			return err
		}
	}
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}

	for _, e := range equitySnapshots(run.RunID, res) {
		if err := j.equity.Write(equityRow(e)); err != nil {
			return err
		}
	}
	j.equity.Flush()
	return j.equity.Error()
}

// WriteEquityCSV writes the per-bar trace of res to w in the same layout as
// the CSV journal's equity file, header included. runID may be empty.
func WriteEquityCSV(w io.Writer, runID string, res *backtest.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(equityHeader); err != nil {
		return err
	}
	for _, e := range equitySnapshots(runID, res) {
		if err := cw.Write(equityRow(e)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func equityRow(e EquitySnapshot) []string {
	return []string{
		e.RunID,
		strconv.Itoa(e.Index),
		e.Time.UTC().Format(time.RFC3339),
		e.Close.String(),
		e.Cash.String(),
		e.Quantity.String(),
		e.Value.String(),
	}
}

func (j *CSVJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	if err := j.ef.Close(); err != nil {
		return err
	}
	return nil
}
