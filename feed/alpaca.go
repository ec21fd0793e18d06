package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/rustyeddy/cryptobot/market"
)

// barsClient is the part of marketdata.Client the Alpaca fetcher uses.
type barsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
	GetCryptoBars(symbol string, req marketdata.GetCryptoBarsRequest) ([]marketdata.CryptoBar, error)
}

var _ barsClient = (*marketdata.Client)(nil)

// AlpacaOptions configures the Alpaca market data client.
type AlpacaOptions struct {
	APIKey    string
	APISecret string
	BaseURL   string // empty for the default data endpoint
	Feed      string // stock feed, e.g. "sip" or "iex"
}

// Alpaca fetches daily bars from Alpaca market data. Symbols written as
// BASE-QUOTE or BASE/QUOTE (BTC-USD, ETH/USD) are crypto pairs; anything
// else is treated as a stock ticker.
type Alpaca struct {
	client barsClient
	feed   string
	log    *slog.Logger
}

func NewAlpaca(opts AlpacaOptions) *Alpaca {
	return &Alpaca{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    opts.APIKey,
			APISecret: opts.APISecret,
			BaseURL:   opts.BaseURL,
		}),
		feed: opts.Feed,
		log:  slog.Default().With("fetcher", "alpaca"),
	}
}

func (a *Alpaca) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]market.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	if pair, ok := CryptoPair(symbol); ok {
		bars, err := a.client.GetCryptoBars(pair, marketdata.GetCryptoBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: alpaca crypto bars %s: %v", ErrFetch, pair, err)
		}
		// The client takes no context; report a deadline that passed mid-call.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: alpaca crypto bars %s: %w", ErrFetch, pair, err)
		}
		a.log.Debug("fetched crypto bars", "symbol", pair, "count", len(bars))
		return cryptoRows(bars, start, end), nil
	}

	bars, err := a.client.GetBars(strings.ToUpper(symbol), marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
		Feed:      marketdata.Feed(a.feed),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: alpaca bars %s: %v", ErrFetch, symbol, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: alpaca bars %s: %w", ErrFetch, symbol, err)
	}
	a.log.Debug("fetched stock bars", "symbol", symbol, "count", len(bars))
	return stockRows(bars, start, end), nil
}

// CryptoPair converts BTC-USD or btc/usd into Alpaca's BTC/USD form.
func CryptoPair(symbol string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, sep := range []string{"/", "-"} {
		base, quote, ok := strings.Cut(s, sep)
		if ok && base != "" && quote != "" {
			return base + "/" + quote, true
		}
	}
	return "", false
}

func cryptoRows(bars []marketdata.CryptoBar, start, end time.Time) []market.RawRow {
	out := make([]market.RawRow, 0, len(bars))
	for _, b := range bars {
		if !inRange(b.Timestamp, start, end) {
			continue
		}
		out = append(out, market.RawRow{
			Time:   b.Timestamp.UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	return out
}

func stockRows(bars []marketdata.Bar, start, end time.Time) []market.RawRow {
	out := make([]market.RawRow, 0, len(bars))
	for _, b := range bars {
		if !inRange(b.Timestamp, start, end) {
			continue
		}
		out = append(out, market.RawRow{
			Time:   b.Timestamp.UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		})
	}
	return out
}
