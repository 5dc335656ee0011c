package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"mediguard/internal/core"
	"mediguard/internal/http/middleware"
)

// EventSource lists recent audit events.  It is satisfied by db.EventLog and
// is nil when no database is configured.
type EventSource interface {
	Recent(ctx context.Context, limit int) ([]core.Event, error)
}

// Server bundles together the dependencies required by HTTP handlers.  It
// implements http.Handler so it can be mounted directly or served by echo.
type Server struct {
	Sessions *core.Registry
	Triage   *core.TriageService
	Events   EventSource
	Log      zerolog.Logger

	echo *echo.Echo
	now  func() time.Time
}

// NewServer constructs a Server with its routes and middleware installed.
func NewServer(sessions *core.Registry, triage *core.TriageService, events EventSource, logger zerolog.Logger) *Server {
	s := &Server{
		Sessions: sessions,
		Triage:   triage,
		Events:   events,
		Log:      logger,
		now:      time.Now,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))

	e.GET("/healthz", s.handleHealth)
	s.RegisterRoutes(e.Group("/api"))

	s.echo = e
	return s
}

// RegisterRoutes mounts the session API on g.
func (s *Server) RegisterRoutes(g *echo.Group) {
	g.POST("/sessions", s.handleCreateSession)
	g.GET("/sessions/:id", s.handleGetSession)
	g.DELETE("/sessions/:id", s.handleEndSession)
	g.PUT("/sessions/:id/profile", s.handlePutProfile)
	g.POST("/sessions/:id/messages", s.handlePostMessage)
	g.POST("/sessions/:id/emergency/dismiss", s.handleDismiss)
	g.GET("/sessions/:id/verdict", s.handleVerdict)
	g.GET("/sessions/:id/report", s.handleReport)

	g.GET("/rules", s.handleRules)
	g.GET("/events", s.handleEvents)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
