// Package server exposes the service over HTTP.  The wire contract —
// endpoints, header name, JSON shapes, and error messages — is frozen; the
// web client depends on it verbatim.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/brightroom/brightroom/auth"
	"github.com/brightroom/brightroom/config"
	"github.com/brightroom/brightroom/core"
	"github.com/brightroom/brightroom/enhance"
	"github.com/brightroom/brightroom/store"
)

// SessionHeader carries the session token on authenticated requests.
// The name is historical: the token began life as a CSRF token and the
// client still sends it under that header.
const SessionHeader = "CSRF-Token"

// Server wires the HTTP surface.
type Server struct {
	echo     *echo.Echo
	cfg      config.Config
	log      *slog.Logger
	auth     *auth.Authenticator
	history  *store.History
	assets   core.AssetStore
	enhancer *enhance.Dispatcher
}

// New builds a fully routed Server.
func New(
	cfg config.Config,
	log *slog.Logger,
	authn *auth.Authenticator,
	history *store.History,
	assets core.AssetStore,
	enhancer *enhance.Dispatcher,
) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log,
		auth:     authn,
		history:  history,
		assets:   assets,
		enhancer: enhancer,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(s.requestLogger())

	api := e.Group("/api")
	api.POST("/login", s.login)
	api.POST("/register", s.register)

	authed := api.Group("", s.requireSession)
	authed.PUT("/profile", s.updateProfile)
	// The body limit is advisory: it bounds the transfer before the upload
	// is read, with slack for multipart framing.  The authoritative per-file
	// check happens on receipt in enhanceImage.
	authed.POST("/enhance", s.enhanceImage,
		middleware.BodyLimit(strconv.FormatInt(cfg.MaxUploadBytes+1<<20, 10)))
	authed.GET("/history", s.listHistory)
	authed.POST("/history", s.appendHistory)
	authed.DELETE("/history", s.clearHistory)

	e.Static("/uploads", cfg.UploadDir)
	e.GET("/healthz", s.health)

	s.echo = e
	return s
}

// Handler returns the root http.Handler, used by tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start begins serving and blocks until the listener fails or is closed.
func (s *Server) Start() error { return s.echo.Start(s.cfg.Addr) }

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error { return s.echo.Shutdown(ctx) }

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"processed": s.enhancer.ProcessedCount(),
		"errors":    s.enhancer.ErrorCount(),
	})
}
