package backtest

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Presenter receives a finished Result. Rendering and storage live behind it.
type Presenter interface {
	Present(ctx context.Context, r *Result) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, r *Result) error

func (f PresenterFunc) Present(ctx context.Context, r *Result) error { return f(ctx, r) }

// TextPresenter prints the plain-text report to W.
type TextPresenter struct {
	W io.Writer

	// Trades also lists every closed trade.
	Trades bool
}

func (p TextPresenter) Present(_ context.Context, r *Result) error {
	PrintResult(p.W, r)
	if p.Trades {
		PrintTrades(p.W, r)
	}
	return nil
}

func PrintResult(w io.Writer, r *Result) {
	s := r.Summary()

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Symbol:        %s\n", r.Symbol)
	fmt.Fprintf(w, "Bars:          %d (warmup %d)\n", r.Bars, r.Warmup)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", s.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", s.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", s.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", s.WinRate)
	if s.Rejections > 0 {
		fmt.Fprintf(w, "Rejected:      %d\n", s.Rejections)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Cash:    %s\n", r.StartingCash.StringFixed(2))
	fmt.Fprintf(w, "End Cash:      %s\n", r.FinalCash.StringFixed(2))
	fmt.Fprintf(w, "Net P/L:       %s\n", s.NetPL.StringFixed(2))
	fmt.Fprintf(w, "Return:        %.2f%%\n", s.ReturnPct)
	if s.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", s.ProfitFactor)
	}
	if s.MaxDrawdownPct > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", s.MaxDrawdownPct)
	}

	if !r.Position.Flat() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Open Position")
		fmt.Fprintln(w, "--------------------------------------------------")
		fmt.Fprintf(w, "Quantity:      %s\n", r.Position.Quantity)
		fmt.Fprintf(w, "Entry Price:   %s\n", r.Position.EntryPrice)
		fmt.Fprintf(w, "Entry Time:    %s\n", r.Position.EntryTime.Format(time.RFC3339))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Final Portfolio Value: %s\n", r.FinalValue.StringFixed(2))
	fmt.Fprintln(w)
}

func PrintTrades(w io.Writer, r *Result) {
	if len(r.Trades) == 0 {
		fmt.Fprintln(w, "No closed trades.")
		return
	}
	fmt.Fprintf(w, "%-4s %-20s %-20s %12s %12s %12s %12s  %s\n",
		"#", "Entry", "Exit", "Qty", "Entry Px", "Exit Px", "P/L", "Reason")
	for _, t := range r.Trades {
		fmt.Fprintf(w, "%-4d %-20s %-20s %12s %12s %12s %12s  %s\n",
			t.Seq,
			t.EntryTime.Format(time.RFC3339),
			t.ExitTime.Format(time.RFC3339),
			t.Quantity.String(),
			t.EntryPrice.StringFixed(2),
			t.ExitPrice.StringFixed(2),
			t.PnL.StringFixed(2),
			t.Reason,
		)
	}
}
