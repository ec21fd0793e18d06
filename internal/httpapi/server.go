// Package httpapi serves backtests over HTTP with gin.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/rustyeddy/cryptobot/config"
	"github.com/rustyeddy/cryptobot/feed"
	"github.com/rustyeddy/cryptobot/journal"
)

// RunStore is the read side of the SQLite journal.
type RunStore interface {
	GetRun(ctx context.Context, runID string) (journal.Run, error)
	ListRuns(ctx context.Context, limit int) ([]journal.Run, error)
	ListTrades(ctx context.Context, runID string) ([]journal.TradeRecord, error)
	ListEquity(ctx context.Context, runID string) ([]journal.EquitySnapshot, error)
}

// Server holds what the handlers need. Zero fields fall back to defaults.
type Server struct {
	// Defaults is the configuration request bodies are merged over.
	Defaults *config.Config

	// NewFetcher builds the data source for a request. feed.FromConfig when nil.
	NewFetcher func(config.DataConfig) (feed.Fetcher, error)

	// Journal records each run when set.
	Journal journal.Journal

	// Runs enables the /runs endpoints when set.
	Runs RunStore

	Logger *slog.Logger
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Router returns the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.logger()))
	r.Use(recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/strategies", s.listStrategies)
		api.POST("/backtests", s.runBacktest)
		if s.Runs != nil {
			api.GET("/runs", s.listRuns)
			api.GET("/runs/:id", s.getRun)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "no route for "+c.Request.URL.Path)
	})
	return r
}

// Handler wraps the router with permissive CORS for browser clients.
func (s *Server) Handler() http.Handler {
	return cors.Default().Handler(s.Router())
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger().Info("api listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		msg := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			msg = s
		}
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", msg)
		c.Abort()
	})
}

func writeError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: msg}})
}
