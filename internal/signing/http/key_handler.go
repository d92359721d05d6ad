// Package http provides HTTP handlers for signing key rotation and
// inspection.
package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/allisson/captoken/internal/audit/domain"
	authHTTP "github.com/allisson/captoken/internal/auth/http"
	apperrors "github.com/allisson/captoken/internal/errors"
	"github.com/allisson/captoken/internal/httputil"
	signingDomain "github.com/allisson/captoken/internal/signing/domain"
	"github.com/allisson/captoken/internal/signing/http/dto"
	signingUseCase "github.com/allisson/captoken/internal/signing/usecase"
	customValidation "github.com/allisson/captoken/internal/validation"
)

// AuditRecorder accepts audit events for durable recording. A recording
// failure is logged and never reverses the rotation it describes.
type AuditRecorder interface {
	Record(ctx context.Context, event *auditDomain.Event) error
}

// KeyHandler handles HTTP requests for signing key operations. Key
// operations are not path-scoped, so the route middleware's operation
// possession check is the whole authorization decision.
type KeyHandler struct {
	signingKeyUseCase signingUseCase.SigningKeyUseCase
	audit             AuditRecorder
	defaultOverlap    time.Duration
	logger            *slog.Logger
}

// NewKeyHandler creates a new KeyHandler instance.
func NewKeyHandler(
	signingKeyUseCase signingUseCase.SigningKeyUseCase,
	audit AuditRecorder,
	defaultOverlap time.Duration,
	logger *slog.Logger,
) *KeyHandler {
	return &KeyHandler{
		signingKeyUseCase: signingKeyUseCase,
		audit:             audit,
		defaultOverlap:    defaultOverlap,
		logger:            logger,
	}
}

// RotateHandler handles POST /v1/keys/rotate requests. The previous key
// keeps validating tokens for the overlap period; an empty body rotates
// with the server's configured overlap.
func (h *KeyHandler) RotateHandler(c *gin.Context) {
	var req dto.RotateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	client, ok := authHTTP.GetClient(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	overlap := h.defaultOverlap
	if req.OverlapSeconds > 0 {
		overlap = time.Duration(req.OverlapSeconds) * time.Second
	}

	result, err := h.signingKeyUseCase.Rotate(c.Request.Context(), overlap)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.recordRotation(c, client.ID, result)

	c.JSON(http.StatusOK, dto.RotateKeyResponse{
		KeyID:               result.NewKeyID.String(),
		PreviousKeyNotAfter: result.PreviousNotAfter,
	})
}

// ListHandler handles GET /v1/keys requests. The response carries metadata
// only; key material never leaves the signing packages.
func (h *KeyHandler) ListHandler(c *gin.Context) {
	keys, err := h.signingKeyUseCase.List(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapKeysToListResponse(keys, time.Now().UTC()))
}

// recordRotation audits a completed rotation.
func (h *KeyHandler) recordRotation(c *gin.Context, clientID uuid.UUID, result *signingDomain.RotationResult) {
	if h.audit == nil {
		return
	}

	event := &auditDomain.Event{
		RequestID:    httputil.RequestID(c),
		ClientID:     clientID,
		Action:       auditDomain.ActionKeyRotate,
		Granted:      true,
		SigningKeyID: result.NewKeyID,
		Metadata: map[string]any{
			"previous_key_id":        result.PreviousKeyID.String(),
			"previous_key_not_after": result.PreviousNotAfter.Format(time.RFC3339),
		},
	}
	if err := h.audit.Record(c.Request.Context(), event); err != nil && h.logger != nil {
		h.logger.Error("failed to record audit event",
			slog.String("action", string(auditDomain.ActionKeyRotate)),
			slog.Any("error", err),
		)
	}
}
