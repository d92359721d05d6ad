// Package usecase defines business logic interfaces for authentication and authorization operations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/captoken/internal/auth/domain"
)

// ClientRepository defines persistence operations for authentication clients.
// Implementations must support transaction-aware operations via context propagation.
type ClientRepository interface {
	// Create stores a new client in the repository.
	Create(ctx context.Context, client *authDomain.Client) error

	// Update modifies an existing client in the repository.
	Update(ctx context.Context, client *authDomain.Client) error

	// Get retrieves a client by ID. Returns ErrClientNotFound if not found.
	Get(ctx context.Context, clientID uuid.UUID) (*authDomain.Client, error)
}

// AccessTokenRepository defines persistence operations for access tokens.
// Implementations must support transaction-aware operations via context propagation.
type AccessTokenRepository interface {
	// Create stores a new access token in the repository.
	Create(ctx context.Context, token *authDomain.AccessToken) error

	// GetByTokenHash retrieves an access token by its SHA-256 hash.
	// Returns ErrAccessTokenNotFound if not found.
	GetByTokenHash(ctx context.Context, tokenHash string) (*authDomain.AccessToken, error)

	// CountExpiredBefore counts tokens whose expiry is strictly before the cutoff.
	CountExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteExpiredBefore removes tokens whose expiry is strictly before the cutoff
	// and returns the number of deleted rows.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ClientUseCase defines business logic operations for managing authentication clients.
// It orchestrates client lifecycle including secret generation and grant management.
type ClientUseCase interface {
	// Create generates a new authentication client with a cryptographically secure secret.
	// The secret is automatically generated and stored as an Argon2id hash.
	//
	// Returns the client ID and plain text secret. The plain secret is only returned once
	// and should be securely transmitted to the client administrator. The hashed version
	// is stored in the database for future authentication.
	Create(
		ctx context.Context,
		createClientInput *authDomain.CreateClientInput,
	) (*authDomain.CreateClientOutput, error)

	// Update modifies an existing client's configuration including name, active status,
	// and authorization grants. The client ID and secret remain unchanged.
	//
	// Returns ErrClientNotFound if the specified client doesn't exist.
	Update(ctx context.Context, clientID uuid.UUID, updateClientInput *authDomain.UpdateClientInput) error

	// Get retrieves a client by ID including its hashed secret and authorization grants.
	// The returned Client contains the hashed secret, not the plain text version.
	//
	// Returns ErrClientNotFound if the specified client doesn't exist.
	Get(ctx context.Context, clientID uuid.UUID) (*authDomain.Client, error)
}

// TokenUseCase defines business logic operations for access token issuance,
// validation, and cleanup.
type TokenUseCase interface {
	// Issue exchanges client credentials for a new access token. Returns
	// ErrInvalidCredentials for unknown clients and wrong secrets alike, and
	// ErrClientInactive for deactivated clients.
	Issue(
		ctx context.Context,
		issueTokenInput *authDomain.IssueTokenInput,
	) (*authDomain.IssueTokenOutput, error)

	// Authenticate validates an access token hash and returns the owning client.
	// Returns ErrInvalidCredentials if the token is unknown, expired, or revoked.
	Authenticate(ctx context.Context, tokenHash string) (*authDomain.Client, error)

	// CleanupExpired removes access tokens that expired more than the given number
	// of days ago. With dryRun, only counts the tokens that would be removed.
	CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error)
}
