package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ASGawde/AgriGPT/store/interactionlog"
)

const defaultHistoryLimit = 50

// HistoryResponse wraps the most recent interaction records.
type HistoryResponse struct {
	Total   int                    `json:"total"`
	Entries []interactionlog.Entry `json:"entries"`
}

// historyHandler serves GET /api/v1/history, newest entries last.
func (s *Server) historyHandler(c echo.Context) error {
	if s.history == nil {
		return echo.NewHTTPError(http.StatusNotFound, "interaction history is not configured")
	}

	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit parameter")
		}
		limit = parsed
	}

	entries := s.history.Entries()
	total := len(entries)
	if total > limit {
		entries = entries[total-limit:]
	}

	return c.JSON(http.StatusOK, HistoryResponse{
		Total:   total,
		Entries: entries,
	})
}
