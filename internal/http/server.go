package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
)

const shutdownGrace = 10 * time.Second

// Server wraps the router with a graceful serve loop. Run blocks until the
// context is cancelled, then drains in-flight requests before returning.
type Server struct {
	Engine *gin.Engine

	log *logger.Logger
}

func NewServer(cfg RouterConfig) *Server {
	return &Server{Engine: NewRouter(cfg), log: cfg.Log}
}

func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Engine,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		s.log.Info("Shutting down HTTP server...")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
