// Package http provides HTTP middleware and utilities for authentication.
package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/captoken/internal/auth/domain"
	authService "github.com/allisson/captoken/internal/auth/service"
	authUseCase "github.com/allisson/captoken/internal/auth/usecase"
	apperrors "github.com/allisson/captoken/internal/errors"
	"github.com/allisson/captoken/internal/httputil"
)

// AuthenticationMiddleware provides authentication via Bearer token in the Authorization header.
//
// The middleware:
// 1. Extracts the Bearer token from the Authorization header (case-insensitive)
// 2. Hashes the token using tokenService.HashToken()
// 3. Validates the token using tokenUseCase.Authenticate()
// 4. Stores the authenticated client in the request context
// 5. Allows downstream handlers to access the client via GetClient()
//
// Authorization header format: "Bearer <token>" (case-insensitive "bearer")
//
// Error handling:
//   - Missing Authorization header → 401 Unauthorized
//   - Malformed Authorization header → 401 Unauthorized
//   - Invalid/expired/revoked token → 401 Unauthorized (from TokenUseCase.Authenticate)
//   - Inactive client → 401 Unauthorized (from TokenUseCase.Authenticate)
//   - Other errors → 500 Internal Server Error
func AuthenticationMiddleware(
	tokenUseCase authUseCase.TokenUseCase,
	tokenService authService.TokenService,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Parse Bearer token (case-insensitive)
		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		plainToken := authHeader[len(bearerPrefix):]
		if plainToken == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Hash the token for lookup
		tokenHash := tokenService.HashToken(plainToken)

		// Authenticate using the token hash
		client, err := tokenUseCase.Authenticate(c.Request.Context(), tokenHash)
		if err != nil {
			logger.Debug("authentication failed",
				slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		// Store authenticated client in context
		ctx := WithClient(c.Request.Context(), client)
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authentication successful",
			slog.String("client_id", client.ID.String()),
			slog.String("client_name", client.Name))

		// Continue to next handler
		c.Next()
	}
}

// AuthorizationMiddleware requires the authenticated client to hold the given
// operation in at least one of its grants.
//
// This middleware MUST be used after AuthenticationMiddleware, as it requires an
// authenticated client to be present in the request context.
//
// This is a possession check only: the control-plane route path says nothing
// about which resource the request targets, so the grant's path pattern cannot
// be evaluated here. Handlers and use cases that know the resource path from
// the request body call Client.IsAllowed with it.
//
// Error handling:
//   - No client in context → 401 Unauthorized (AuthenticationMiddleware not run)
//   - No grant carries the operation → 403 Forbidden
func AuthorizationMiddleware(
	operation authDomain.Operation,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Retrieve authenticated client from context
		client, ok := GetClient(c.Request.Context())
		if !ok || client == nil {
			logger.Debug("authorization failed: no authenticated client in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !client.HasOperation(operation) {
			logger.Debug("authorization failed: operation not granted",
				slog.String("client_id", client.ID.String()),
				slog.String("client_name", client.Name),
				slog.String("operation", string(operation)))
			httputil.HandleErrorGin(c, authDomain.ErrOperationNotGranted, logger)
			c.Abort()
			return
		}

		logger.Debug("authorization successful",
			slog.String("client_id", client.ID.String()),
			slog.String("client_name", client.Name),
			slog.String("operation", string(operation)))

		// Continue to next handler
		c.Next()
	}
}
