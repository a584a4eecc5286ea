// Package server exposes the validation engine over HTTP.
package server

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/bobmcallan/navcheck/internal/app"
	"github.com/bobmcallan/navcheck/internal/common"
)

// Server serves the validation API for one App.
type Server struct {
	app    *app.App
	http   *http.Server
	logger *common.Logger
}

// NewServer builds the route table and middleware stack for a.
func NewServer(a *app.App) *Server {
	cfg := a.Config.Server
	s := &Server{app: a, logger: a.Logger}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.http = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      applyMiddleware(mux, a.Logger, cfg),
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
		IdleTimeout:  cfg.GetIdleTimeout(),
	}
	return s
}

// Handler returns the wrapped mux, for httptest.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start blocks serving requests until Shutdown.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.http.Addr).Msg("Validation API listening")
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
