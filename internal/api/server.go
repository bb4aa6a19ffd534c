// internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"demand-radar/internal/common/config"
	"demand-radar/internal/common/logger"
)

// Default timeout values.
const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 60 * time.Second
	defaultIdleTimeout  = 120 * time.Second
)

// Server wraps the HTTP server with lifecycle management.
type Server struct {
	router *gin.Engine
	server *http.Server
	logger logger.Logger
	cfg    config.ServerConfig
}

// NewServer builds the router with standard middleware, mounts all routes
// and returns a server ready to start.
func NewServer(cfg config.ServerConfig, handler *Handler, log logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Recovery first so panics in later middleware are caught too.
	router.Use(RecoveryMiddleware(log))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(log))

	SetupRoutes(router, handler, cfg)

	readTimeout := defaultReadTimeout
	if cfg.ReadTimeout > 0 {
		readTimeout = time.Duration(cfg.ReadTimeout) * time.Second
	}
	writeTimeout := defaultWriteTimeout
	if cfg.WriteTimeout > 0 {
		writeTimeout = time.Duration(cfg.WriteTimeout) * time.Second
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	return &Server{
		router: router,
		server: httpServer,
		logger: log,
		cfg:    cfg,
	}
}

// Router returns the underlying gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the server until it is shut down. ErrServerClosed is not an
// error here.
func (s *Server) Start() error {
	s.logger.Info("starting http server", map[string]interface{}{
		"address":       s.server.Addr,
		"read_timeout":  s.server.ReadTimeout.String(),
		"write_timeout": s.server.WriteTimeout.String(),
		"auth_enabled":  s.cfg.AuthEnabled(),
	})

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := 30 * time.Second
	if s.cfg.ShutdownTimeout > 0 {
		timeout = time.Duration(s.cfg.ShutdownTimeout) * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info("shutting down http server", map[string]interface{}{
		"timeout": timeout.String(),
	})
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("http server stopped", map[string]interface{}{
		"address": s.server.Addr,
	})
	return nil
}
