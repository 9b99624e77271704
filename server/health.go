package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type healthModels struct {
	TextModel   string `json:"text_model"`
	VisionModel string `json:"vision_model"`
}

type healthDependencies struct {
	LLMAPI string `json:"llm_api"`
}

// HealthResponse reports service liveness, uptime, and upstream status.
type HealthResponse struct {
	Status        string             `json:"status"`
	Service       string             `json:"service"`
	Timestamp     string             `json:"timestamp"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	Models        healthModels       `json:"models"`
	Dependencies  healthDependencies `json:"dependencies"`
}

// healthzHandler is the bare liveness probe.
func (s *Server) healthzHandler(c echo.Context) error {
	return c.String(http.StatusOK, "Service ready.")
}

// healthHandler reports uptime, the configured models, and whether the
// upstream LLM endpoint is reachable.
func (s *Server) healthHandler(c echo.Context) error {
	llmStatus := "unknown"
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			llmStatus = "unreachable"
		} else {
			llmStatus = "reachable"
		}
	}

	return c.JSON(http.StatusOK, HealthResponse{
		Status:        "OK",
		Service:       "AgriGPT Backend",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Models: healthModels{
			TextModel:   s.Profile.TextModel,
			VisionModel: s.Profile.VisionModel,
		},
		Dependencies: healthDependencies{LLMAPI: llmStatus},
	})
}
