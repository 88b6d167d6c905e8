// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package web serves the login, registration and protected pages.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/gatehouse-auth/gatehouse/internal/auth"
	"github.com/gatehouse-auth/gatehouse/internal/observability"
	"github.com/gatehouse-auth/gatehouse/internal/session"
)

// AuthService is the account logic the handlers drive. *auth.Service
// satisfies it.
type AuthService interface {
	Register(ctx context.Context, reg auth.Registration) (*auth.Account, error)
	Authenticate(ctx context.Context, creds auth.Credentials) (*auth.Account, error)
	Account(ctx context.Context, id int64) (*auth.Account, error)
}

// Deps are the collaborators a Server needs.
type Deps struct {
	Auth     AuthService
	Sessions *session.Store
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// Server is the public HTTP server.
type Server struct {
	addr       string
	auth       AuthService
	sessions   *session.Store
	metrics    *observability.Metrics
	logger     *slog.Logger
	engine     *gin.Engine
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer wires the routes. addr is used by Start.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Auth == nil {
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("auth service is required")
	}
	if deps.Sessions == nil {
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("session store is required")
	}
	if deps.Metrics == nil {
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("metrics are required")
	}

	s := &Server{
		addr:     addr,
		auth:     deps.Auth,
		sessions: deps.Sessions,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, oops.Code("WEB_TEMPLATES_INVALID").Wrap(err)
	}

	engine := gin.New()
	engine.SetHTMLTemplate(tmpl)
	engine.Use(
		s.requestID(),
		s.tracing(),
		s.accessLog(),
		gin.CustomRecoveryWithWriter(nil, s.recovered),
		s.sessions.Middleware(),
	)
	s.routes(engine)
	s.engine = engine
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins serving. The returned channel receives a serve error, if
// any, and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("WEB_ALREADY_RUNNING").Errorf("web server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("WEB_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("web server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("web server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.running.Store(true)
		return oops.With("operation", "shutdown_web_server").Wrap(err)
	}
	s.logger.Info("web server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
