package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "adminpanel/internal/errors"
	"adminpanel/internal/service"
)

// StatsHandler serves dashboard statistics.
type StatsHandler struct {
	statsService service.StatsService
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Overview godoc
// @Summary Aggregated dashboard statistics
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope
// @Router /stats/overview [get]
func (h *StatsHandler) Overview(c echo.Context) error {
	overview, err := h.statsService.Overview(c.Request().Context())
	if err != nil {
		return fail(c, apperrors.MapErrorToHTTP(err))
	}
	return respond(c, http.StatusOK, "", overview)
}
