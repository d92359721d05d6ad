package domain

import (
	"github.com/allisson/captoken/internal/errors"
)

// Authentication and authorization errors.
var (
	// ErrClientNotFound indicates a client with the specified ID was not found.
	ErrClientNotFound = errors.Wrap(errors.ErrNotFound, "client not found")

	// ErrAccessTokenNotFound indicates an access token with the specified hash was not found.
	ErrAccessTokenNotFound = errors.Wrap(errors.ErrNotFound, "access token not found")

	// ErrInvalidCredentials indicates authentication failed. The same error covers
	// unknown client IDs, wrong secrets, and invalid or expired access tokens so
	// callers cannot enumerate which part failed.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrClientInactive indicates the client exists but is deactivated.
	ErrClientInactive = errors.Wrap(errors.ErrUnauthorized, "client is not active")

	// ErrOperationNotGranted indicates the authenticated client lacks a grant for
	// the requested operation.
	ErrOperationNotGranted = errors.Wrap(errors.ErrForbidden, "operation not granted")
)
