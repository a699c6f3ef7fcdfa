package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "adminpanel/internal/errors"
	"adminpanel/internal/repository"
	"adminpanel/internal/service"
)

const (
	defaultLogPageSize = 50
	maxLogPageSize     = 500
	defaultCleanupDays = 90
)

// ActivityLogHandler serves the audit-log views.
type ActivityLogHandler struct {
	logService service.ActivityLogService
}

// NewActivityLogHandler creates a new activity-log handler.
func NewActivityLogHandler(logService service.ActivityLogService) *ActivityLogHandler {
	return &ActivityLogHandler{logService: logService}
}

// logFilter builds a repository filter from query parameters. Bad values are
// ignored rather than rejected; the defaults always yield a valid query.
func logFilter(c echo.Context) repository.ActivityLogFilter {
	filter := repository.ActivityLogFilter{Limit: defaultLogPageSize}

	filter.Action = c.QueryParam("action")
	if raw := c.QueryParam("actor_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.ActorID = &id
		}
	}
	if raw := c.QueryParam("since"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.Since = &t
		}
	}
	if raw := c.QueryParam("until"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.Until = &t
		}
	}
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= maxLogPageSize {
			filter.Limit = n
		}
	}
	if raw := c.QueryParam("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			filter.Offset = n
		}
	}
	return filter
}

// List godoc
// @Summary List activity-log entries
// @Tags logs
// @Produce json
// @Security BearerAuth
// @Param action query string false "Filter by action"
// @Param actor_id query string false "Filter by actor id"
// @Param since query string false "RFC3339 lower bound"
// @Param until query string false "RFC3339 upper bound"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} Envelope
// @Router /logs [get]
func (h *ActivityLogHandler) List(c echo.Context) error {
	filter := logFilter(c)
	entries, total, err := h.logService.List(c.Request().Context(), filter)
	if err != nil {
		return fail(c, apperrors.MapErrorToHTTP(err))
	}
	return respond(c, http.StatusOK, "", echo.Map{
		"entries": entries,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

// Export godoc
// @Summary Export activity-log entries as CSV
// @Tags logs
// @Produce text/csv
// @Security BearerAuth
// @Param action query string false "Filter by action"
// @Param since query string false "RFC3339 lower bound"
// @Param until query string false "RFC3339 upper bound"
// @Success 200 {string} string "CSV payload"
// @Router /logs/export [get]
func (h *ActivityLogHandler) Export(c echo.Context) error {
	filter := logFilter(c)
	filter.Limit = 0 // export everything matching

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="activity-log.csv"`)
	res.WriteHeader(http.StatusOK)

	if _, err := h.logService.ExportCSV(c.Request().Context(), res, filter, actorID(c), requestMeta(c)); err != nil {
		// headers already sent; nothing better than aborting the stream
		return err
	}
	return nil
}

// Cleanup godoc
// @Summary Delete activity-log entries older than N days
// @Tags logs
// @Produce json
// @Security BearerAuth
// @Param days query int false "Age threshold in days (default 90)"
// @Success 200 {object} Envelope
// @Router /logs/cleanup [delete]
func (h *ActivityLogHandler) Cleanup(c echo.Context) error {
	days := defaultCleanupDays
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return failWith(c, http.StatusBadRequest, "days must be a positive integer", apperrors.CodeBadRequest)
		}
		days = n
	}

	deleted, err := h.logService.Cleanup(c.Request().Context(), days, actorID(c), requestMeta(c))
	if err != nil {
		return fail(c, apperrors.MapErrorToHTTP(err))
	}
	return respond(c, http.StatusOK, "cleanup complete", echo.Map{
		"deleted":         deleted,
		"older_than_days": days,
	})
}
