// Package server exposes the advisory pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lithammer/shortuuid/v4"

	"github.com/ASGawde/AgriGPT/ai/metrics"
	"github.com/ASGawde/AgriGPT/internal/profile"
	"github.com/ASGawde/AgriGPT/store/interactionlog"
)

// QueryRouter is the orchestration surface the HTTP handlers call.
type QueryRouter interface {
	RouteQuery(ctx context.Context, query, imagePath string) string
}

// HealthPinger reports upstream LLM reachability for the health endpoint.
type HealthPinger interface {
	Ping(ctx context.Context) error
}

// Server is the AgriGPT HTTP server.
type Server struct {
	e       *echo.Echo
	Profile *profile.Profile

	router    QueryRouter
	history   *interactionlog.Log
	weather   *WeatherService
	pinger    HealthPinger
	metrics   *metrics.Exporter
	startTime time.Time
}

// Option configures optional server collaborators.
type Option func(*Server)

// WithHistory attaches the interaction log backing the history endpoint.
func WithHistory(log *interactionlog.Log) Option {
	return func(s *Server) { s.history = log }
}

// WithWeather attaches the weather proxy service.
func WithWeather(w *WeatherService) Option {
	return func(s *Server) { s.weather = w }
}

// WithHealthPinger attaches the upstream reachability probe.
func WithHealthPinger(p HealthPinger) Option {
	return func(s *Server) { s.pinger = p }
}

// WithMetrics attaches the metrics exporter and its /metrics endpoint.
func WithMetrics(m *metrics.Exporter) Option {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates the HTTP server around the query router.
func NewServer(_ context.Context, instanceProfile *profile.Profile, router QueryRouter, opts ...Option) (*Server, error) {
	e := echo.New()
	e.Debug = instanceProfile.IsDev()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: shortuuid.New,
	}))

	s := &Server{
		e:         e,
		Profile:   instanceProfile,
		router:    router,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.e.GET("/healthz", s.healthzHandler)

	apiV1 := s.e.Group("/api/v1")
	apiV1.GET("/health", s.healthHandler)
	apiV1.POST("/ask/text", s.askTextHandler)
	apiV1.POST("/ask/image", s.askImageHandler)
	apiV1.POST("/ask/chat", s.askChatHandler)
	apiV1.GET("/history", s.historyHandler)
	apiV1.GET("/weather/current", s.weatherHandler)

	if s.metrics != nil {
		s.e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}

// Start launches the listener in the background and returns immediately.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.e.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// Shutdown gracefully stops the server, draining in-flight requests.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.e.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	slog.Info("agrigpt stopped properly")
}

// Echo exposes the underlying echo instance for handler tests.
func (s *Server) Echo() *echo.Echo {
	return s.e
}
