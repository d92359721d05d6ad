// Package http provides HTTP middleware and utilities for authentication.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/allisson/captoken/internal/auth/domain"
	"github.com/allisson/captoken/internal/auth/http/dto"
	authUseCase "github.com/allisson/captoken/internal/auth/usecase"
	apperrors "github.com/allisson/captoken/internal/errors"
	"github.com/allisson/captoken/internal/httputil"
	customValidation "github.com/allisson/captoken/internal/validation"
)

// TokenHandler handles HTTP requests for access token operations.
// It coordinates token issuance with the TokenUseCase.
type TokenHandler struct {
	tokenUseCase authUseCase.TokenUseCase
	logger       *slog.Logger
}

// NewTokenHandler creates a new token handler with required dependencies.
func NewTokenHandler(
	tokenUseCase authUseCase.TokenUseCase,
	logger *slog.Logger,
) *TokenHandler {
	return &TokenHandler{
		tokenUseCase: tokenUseCase,
		logger:       logger,
	}
}

// LoginHandler exchanges client credentials for a short-lived access token.
// POST /v1/auth/token - No authentication required (this is the authentication endpoint).
// Returns 200 OK with the token and its expiration time.
func (h *TokenHandler) LoginHandler(c *gin.Context) {
	var req dto.IssueTokenRequest

	// Parse and bind JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	// Validate request
	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	// Parse client ID as UUID
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		httputil.HandleErrorGin(c,
			apperrors.Wrap(apperrors.ErrInvalidInput, "client_id must be a valid UUID"),
			h.logger)
		return
	}

	// Create input for use case
	input := &authDomain.IssueTokenInput{
		ClientID:     clientID,
		ClientSecret: req.ClientSecret,
	}

	// Call use case
	output, err := h.tokenUseCase.Issue(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return response with token and expiration
	response := dto.IssueTokenResponse{
		Token:     output.PlainToken,
		ExpiresAt: output.ExpiresAt,
	}

	c.JSON(http.StatusOK, response)
}
