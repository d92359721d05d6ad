// Package http provides HTTP handlers for audit event operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/captoken/internal/audit/http/dto"
	auditUseCase "github.com/allisson/captoken/internal/audit/usecase"
	"github.com/allisson/captoken/internal/httputil"
)

// EventHandler handles HTTP requests for audit event operations.
type EventHandler struct {
	eventUseCase auditUseCase.EventUseCase
	logger       *slog.Logger
}

// NewEventHandler creates a new audit event handler with required dependencies.
func NewEventHandler(eventUseCase auditUseCase.EventUseCase, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		eventUseCase: eventUseCase,
		logger:       logger,
	}
}

// ListHandler retrieves audit events with pagination support and optional time-based filtering.
// GET /v1/audit-events?offset=0&limit=50&created_at_from=2026-02-01T00:00:00Z&created_at_to=2026-02-14T23:59:59Z
// Requires the audit:read operation. Returns 200 OK with a paginated event list ordered by
// created_at descending (newest first). Accepts optional created_at_from and created_at_to
// query parameters in RFC3339 format. Timestamps are converted to UTC. Both boundaries are
// inclusive (>= and <=).
func (h *EventHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var createdAtFrom *time.Time
	if fromStr := c.Query("created_at_from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			httputil.HandleBadRequestGin(c,
				fmt.Errorf("invalid created_at_from format: must be RFC3339 (e.g., 2026-02-01T00:00:00Z)"),
				h.logger)
			return
		}
		utcTime := parsed.UTC()
		createdAtFrom = &utcTime
	}

	var createdAtTo *time.Time
	if toStr := c.Query("created_at_to"); toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			httputil.HandleBadRequestGin(c,
				fmt.Errorf("invalid created_at_to format: must be RFC3339 (e.g., 2026-02-14T23:59:59Z)"),
				h.logger)
			return
		}
		utcTime := parsed.UTC()
		createdAtTo = &utcTime
	}

	if createdAtFrom != nil && createdAtTo != nil && createdAtFrom.After(*createdAtTo) {
		httputil.HandleBadRequestGin(c,
			fmt.Errorf("created_at_from must be before or equal to created_at_to"),
			h.logger)
		return
	}

	events, err := h.eventUseCase.List(c.Request.Context(), offset, limit, createdAtFrom, createdAtTo)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapEventsToListResponse(events)
	c.JSON(http.StatusOK, response)
}
