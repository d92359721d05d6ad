// Package http provides HTTP handlers for capability token issuance,
// validation and stored policy management.
package http

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/allisson/captoken/internal/auth/domain"
	authHTTP "github.com/allisson/captoken/internal/auth/http"
	capabilityDomain "github.com/allisson/captoken/internal/capability/domain"
	"github.com/allisson/captoken/internal/capability/http/dto"
	capabilityUseCase "github.com/allisson/captoken/internal/capability/usecase"
	apperrors "github.com/allisson/captoken/internal/errors"
	"github.com/allisson/captoken/internal/httputil"
	customValidation "github.com/allisson/captoken/internal/validation"
)

// TokenHandler handles HTTP requests for capability token issuance and validation.
type TokenHandler struct {
	tokenUseCase capabilityUseCase.TokenUseCase
	logger       *slog.Logger
}

// NewTokenHandler creates a new capability token handler with required dependencies.
func NewTokenHandler(tokenUseCase capabilityUseCase.TokenUseCase, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		tokenUseCase: tokenUseCase,
		logger:       logger,
	}
}

// IssueHandler mints a signed capability token.
// POST /v1/tokens - Requires the token:issue operation on a grant covering the
// requested resource path.
// Returns 200 OK with the encoded token and its expiry. The token is returned
// exactly once and never stored.
func (h *TokenHandler) IssueHandler(c *gin.Context) {
	var req dto.IssueTokenRequest

	if err := c.ShouldBindJSON(&req); err != nil {
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

	// The route middleware only checks operation possession; the grant's path
	// pattern is evaluated here, where the requested path is known.
	if !client.IsAllowed(req.ResourcePath, authDomain.OperationTokenIssue) {
		h.logger.Debug("token issuance refused: path not granted",
			slog.String("client_id", client.ID.String()),
			slog.String("resource_path", req.ResourcePath))
		httputil.HandleErrorGin(c, authDomain.ErrOperationNotGranted, h.logger)
		return
	}

	input := &capabilityDomain.IssueTokenInput{
		RequestID:    httputil.RequestID(c),
		ClientID:     client.ID,
		ResourcePath: req.ResourcePath,
		MatchMode:    capabilityDomain.MatchMode(req.MatchMode),
		Permissions:  dto.MapPermissions(req.Permissions),
		TTL:          time.Duration(req.TTLSeconds) * time.Second,
		StartsOn:     req.StartsOn,
		ExpiresOn:    req.ExpiresOn,
		HTTPSOnly:    true,
	}
	if req.HTTPSOnly != nil {
		input.HTTPSOnly = *req.HTTPSOnly
	}

	if req.PolicyID != "" {
		policyID, err := uuid.Parse(req.PolicyID)
		if err != nil {
			httputil.HandleErrorGin(
				c,
				apperrors.Wrap(apperrors.ErrInvalidInput, "policy_id must be a valid UUID"),
				h.logger,
			)
			return
		}
		input.PolicyID = policyID
	}

	if req.IPRange != "" {
		ipRange, err := parseIPRange(req.IPRange)
		if err != nil {
			httputil.HandleErrorGin(
				c,
				apperrors.Wrap(apperrors.ErrInvalidInput, "ip_range must be an IP address or CIDR range"),
				h.logger,
			)
			return
		}
		input.IPRange = ipRange
	}

	output, err := h.tokenUseCase.Issue(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.IssueTokenResponse{
		Token:     output.Token,
		ExpiresOn: output.ExpiresOn,
	})
}

// CheckHandler decides whether a presented token grants the requested access.
// POST /v1/check - Requires the token:check operation on a grant covering the
// requested path.
// Returns 200 OK with a bare granted flag. A malformed or failing token is a
// denial, not an error: 400 is reserved for a syntactically invalid request
// body, and non-200 errors mean the service could not decide.
func (h *TokenHandler) CheckHandler(c *gin.Context) {
	var req dto.CheckRequest

	if err := c.ShouldBindJSON(&req); err != nil {
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

	if !client.IsAllowed(req.Path, authDomain.OperationTokenCheck) {
		h.logger.Debug("token check refused: path not granted",
			slog.String("client_id", client.ID.String()),
			slog.String("path", req.Path))
		httputil.HandleErrorGin(c, authDomain.ErrOperationNotGranted, h.logger)
		return
	}

	input := &capabilityDomain.CheckInput{
		RequestID:  httputil.RequestID(c),
		ClientID:   client.ID,
		Token:      req.Token,
		Path:       req.Path,
		Permission: capabilityDomain.Permission(req.Permission),
		Protocol:   req.Protocol,
	}

	if req.CallerIP != "" {
		callerIP, err := netip.ParseAddr(req.CallerIP)
		if err != nil {
			httputil.HandleErrorGin(
				c,
				apperrors.Wrap(apperrors.ErrInvalidInput, "caller_ip must be a valid IP address"),
				h.logger,
			)
			return
		}
		input.CallerIP = callerIP
	}

	result, err := h.tokenUseCase.Check(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.CheckResponse{Granted: result.Granted})
}

// parseIPRange parses a single IP address or a CIDR range into a prefix.
// A bare address becomes a full-length prefix covering only that address.
func parseIPRange(s string) (netip.Prefix, error) {
	if prefix, err := netip.ParsePrefix(s); err == nil {
		return prefix.Masked(), nil
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
