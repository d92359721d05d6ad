package http

import (
	"fmt"
	"log/slog"
	"net/http"

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

// PolicyHandler handles HTTP requests for stored policy management.
//
// Reads (get, list) are scoped by operation possession alone: policy:read is
// an operator capability. Writes (create, revoke) additionally require a grant
// whose path pattern covers the policy's resource prefix.
type PolicyHandler struct {
	policyUseCase capabilityUseCase.PolicyUseCase
	logger        *slog.Logger
}

// NewPolicyHandler creates a new policy handler with required dependencies.
func NewPolicyHandler(policyUseCase capabilityUseCase.PolicyUseCase, logger *slog.Logger) *PolicyHandler {
	return &PolicyHandler{
		policyUseCase: policyUseCase,
		logger:        logger,
	}
}

// CreateHandler stores a new access policy.
// POST /v1/policies - Requires the policy:write operation on a grant covering
// the resource prefix.
// Returns 201 Created with the stored policy, or 409 Conflict when the prefix
// already carries the maximum number of unexpired policies.
func (h *PolicyHandler) CreateHandler(c *gin.Context) {
	var req dto.CreatePolicyRequest

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

	if !client.IsAllowed(req.ResourcePrefix, authDomain.OperationPolicyWrite) {
		h.logger.Debug("policy creation refused: prefix not granted",
			slog.String("client_id", client.ID.String()),
			slog.String("resource_prefix", req.ResourcePrefix))
		httputil.HandleErrorGin(c, authDomain.ErrOperationNotGranted, h.logger)
		return
	}

	input := &capabilityDomain.CreatePolicyInput{
		RequestID:      httputil.RequestID(c),
		ClientID:       client.ID,
		ResourcePrefix: req.ResourcePrefix,
		Permissions:    dto.MapPermissions(req.Permissions),
		StartsOn:       req.StartsOn,
		ExpiresOn:      req.ExpiresOn,
	}

	policy, err := h.policyUseCase.Create(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapPolicyToResponse(policy))
}

// GetHandler retrieves a policy by ID, including revoked and expired ones.
// GET /v1/policies/:id - Requires the policy:read operation.
// Returns 200 OK with the policy.
func (h *PolicyHandler) GetHandler(c *gin.Context) {
	policyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(
			c,
			apperrors.Wrap(apperrors.ErrInvalidInput, "policy id must be a valid UUID"),
			h.logger,
		)
		return
	}

	policy, err := h.policyUseCase.Get(c.Request.Context(), policyID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPolicyToResponse(policy))
}

// ListHandler retrieves policies with pagination and an optional prefix filter.
// GET /v1/policies?resource_prefix=/a/b&offset=0&limit=50 - Requires the
// policy:read operation.
// Returns 200 OK with a paginated policy list, newest first.
func (h *PolicyHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	resourcePrefix := c.Query("resource_prefix")
	if resourcePrefix != "" && !customValidation.IsResourcePath(resourcePrefix) {
		httputil.HandleBadRequestGin(c,
			fmt.Errorf("invalid resource_prefix parameter: must be an absolute resource path"),
			h.logger)
		return
	}

	policies, err := h.policyUseCase.List(c.Request.Context(), resourcePrefix, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPoliciesToListResponse(policies))
}

// RevokeHandler expires a policy immediately, invalidating every outstanding
// token that references it.
// DELETE /v1/policies/:id - Requires the policy:write operation on a grant
// covering the policy's resource prefix.
// Returns 204 No Content. Revoking an already expired policy is idempotent
// and still returns 204.
func (h *PolicyHandler) RevokeHandler(c *gin.Context) {
	policyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(
			c,
			apperrors.Wrap(apperrors.ErrInvalidInput, "policy id must be a valid UUID"),
			h.logger,
		)
		return
	}

	client, ok := authHTTP.GetClient(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	// The prefix the grant must cover lives on the policy row, so the policy
	// is loaded before authorization. Unknown IDs return 404 either way.
	policy, err := h.policyUseCase.Get(c.Request.Context(), policyID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if !client.IsAllowed(policy.ResourcePrefix, authDomain.OperationPolicyWrite) {
		h.logger.Debug("policy revocation refused: prefix not granted",
			slog.String("client_id", client.ID.String()),
			slog.String("policy_id", policyID.String()),
			slog.String("resource_prefix", policy.ResourcePrefix))
		httputil.HandleErrorGin(c, authDomain.ErrOperationNotGranted, h.logger)
		return
	}

	input := &capabilityDomain.RevokePolicyInput{
		RequestID: httputil.RequestID(c),
		ClientID:  client.ID,
		PolicyID:  policyID,
	}

	if err := h.policyUseCase.Revoke(c.Request.Context(), input); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}
