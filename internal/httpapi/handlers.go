package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rustyeddy/cryptobot/backtest"
	"github.com/rustyeddy/cryptobot/config"
	"github.com/rustyeddy/cryptobot/feed"
	"github.com/rustyeddy/cryptobot/journal"
	"github.com/rustyeddy/cryptobot/market"
	"github.com/rustyeddy/cryptobot/strategies"
)

// statusFor maps run errors to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, config.ErrInvalidConfig):
		return http.StatusUnprocessableEntity, "INVALID_CONFIG"
	case errors.Is(err, market.ErrInvalidData):
		return http.StatusUnprocessableEntity, "INVALID_DATA"
	case errors.Is(err, feed.ErrNoData):
		return http.StatusNotFound, "NO_DATA"
	case errors.Is(err, journal.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

func (s *Server) listStrategies(c *gin.Context) {
	d := s.defaults()
	c.JSON(http.StatusOK, gin.H{
		"strategies": strategies.Supported,
		"defaults": gin.H{
			"name":        d.Strategy.Name,
			"fast_period": d.Strategy.FastPeriod,
			"slow_period": d.Strategy.SlowPeriod,
		},
	})
}

func (s *Server) defaults() *config.Config {
	if s.Defaults != nil {
		return s.Defaults
	}
	return config.Default()
}

// runBacktest handles POST /api/v1/backtests. The body is a configuration
// document merged over the server defaults. The data source, journal and log
// sections always come from the server.
func (s *Server) runBacktest(c *gin.Context) {
	base := s.defaults()
	cfg := *base
	if err := c.ShouldBindJSON(&cfg); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	cfg.Data = base.Data
	cfg.Journal = base.Journal
	cfg.Log = base.Log

	if err := cfg.Validate(); err != nil {
		writeError(c, http.StatusUnprocessableEntity, "INVALID_CONFIG", err.Error())
		return
	}

	newFetcher := s.NewFetcher
	if newFetcher == nil {
		newFetcher = feed.FromConfig
	}
	fetcher, err := newFetcher(cfg.Data)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DATA_SOURCE", err.Error())
		return
	}

	runner := &backtest.Runner{Fetcher: fetcher, Logger: s.logger()}
	var jp *journal.Presenter
	if s.Journal != nil {
		raw, err := cfg.RedactedYAML()
		if err != nil {
			writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
			return
		}
		jp = &journal.Presenter{J: s.Journal, Config: raw, Logger: s.logger()}
		runner.Presenters = append(runner.Presenters, jp)
	}

	res, err := runner.Run(c.Request.Context(), &cfg)
	if err != nil {
		status, code := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger().Error("backtest failed", "symbol", cfg.Symbol, "err", err)
		}
		writeError(c, status, code, err.Error())
		return
	}

	resp := BacktestResponse{Summary: res.Summary(), Result: res}
	if jp != nil {
		resp.RunID = jp.LastRunID
	}
	times := make([]time.Time, len(res.Equity))
	for i, p := range res.Equity {
		times[i] = p.Time
	}
	resp.Chart, err = newChart(times, res.Closes(), cfg.Strategy.FastPeriod, cfg.Strategy.SlowPeriod)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listRuns(c *gin.Context) {
	limit := 50
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := s.Runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		status, code := statusFor(err)
		writeError(c, status, code, err.Error())
		return
	}

	out := make([]RunResponse, len(runs))
	for i, r := range runs {
		out[i] = runResponse(r)
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

func (s *Server) getRun(c *gin.Context) {
	ctx := c.Request.Context()
	runID := c.Param("id")

	run, err := s.Runs.GetRun(ctx, runID)
	if err != nil {
		status, code := statusFor(err)
		writeError(c, status, code, err.Error())
		return
	}
	trades, err := s.Runs.ListTrades(ctx, runID)
	if err != nil {
		status, code := statusFor(err)
		writeError(c, status, code, err.Error())
		return
	}

	equity, err := s.Runs.ListEquity(ctx, runID)
	if err != nil {
		status, code := statusFor(err)
		writeError(c, status, code, err.Error())
		return
	}

	resp := runResponse(run)
	for _, t := range trades {
		resp.TradeList = append(resp.TradeList, tradeResponse(t))
	}
	times := make([]time.Time, len(equity))
	closes := make([]float64, len(equity))
	for i, e := range equity {
		resp.Equity = append(resp.Equity, equityResponse(e))
		times[i] = e.Time
		closes[i] = e.Close.InexactFloat64()
	}

	// Runs journaled without their configuration have no periods to chart.
	if len(run.Config) > 0 {
		cfg, err := config.Parse(run.Config)
		if err != nil {
			s.logger().Warn("stored config unreadable", "run_id", runID, "err", err)
		} else if resp.Chart, err = newChart(times, closes, cfg.Strategy.FastPeriod, cfg.Strategy.SlowPeriod); err != nil {
			writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}
