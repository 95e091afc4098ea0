// Package httpapi exposes the triage pipeline and the review queue over
// HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nhle/mail-triage/internal/ingest"
	"github.com/nhle/mail-triage/internal/metrics"
	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Pipeline is the part of ingest.Service the API drives.
type Pipeline interface {
	Process(ctx context.Context, email model.IncomingEmail) (*ingest.Outcome, error)
}

// Server serves the triage API.
type Server struct {
	pipeline Pipeline
	store    store.Store
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time

	engine *gin.Engine
}

// NewServer builds the router. m must not be nil; logger may be.
func NewServer(p Pipeline, s store.Store, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &Server{
		pipeline: p,
		store:    s,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
	srv.engine = srv.routes()
	return srv
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Recovery(s.logger), AccessLog(s.logger), HTTPMetrics(s.metrics))

	r.GET("/", s.health)
	r.POST("/analyze", s.analyze)
	r.POST("/status", s.updateStatus)
	r.GET("/pending", s.pending)
	r.GET("/emails/:id", s.getEmail)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	return r
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("http api shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
