// Package usecase implements business logic for the signing key lifecycle.
//
// Use cases coordinate the repository (encrypted key rows) with the keeper
// (material encryption) and keep decrypted material in an in-memory cache.
// Activation windows are never cached; every decision about whether a key may
// sign or verify reads the window from the store, so a rotation on one node
// takes effect on all nodes at the next read.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	signingDomain "github.com/allisson/captoken/internal/signing/domain"
)

// SigningKeyRepository defines the interface for signing key persistence.
type SigningKeyRepository interface {
	// Create stores a new signing key.
	Create(ctx context.Context, key *signingDomain.SigningKey) error

	// Update modifies an existing signing key's activation window.
	Update(ctx context.Context, key *signingDomain.SigningKey) error

	// Get retrieves a signing key by ID, including retired keys.
	// Returns domain.ErrSigningKeyNotFound if no key exists with the given ID.
	Get(ctx context.Context, keyID uuid.UUID) (*signingDomain.SigningKey, error)

	// GetActive retrieves the newest key whose activation window is open at
	// the given instant. Returns domain.ErrNoActiveKey if no window is open.
	GetActive(ctx context.Context, now time.Time) (*signingDomain.SigningKey, error)

	// List retrieves all signing keys ordered by creation time descending.
	List(ctx context.Context) ([]*signingDomain.SigningKey, error)
}

// SigningKeyUseCase defines the interface for signing key operations.
type SigningKeyUseCase interface {
	// Create generates and stores the initial signing key with an open-ended
	// activation window. Returns domain.ErrKeyAlreadyExists if an active key
	// is already present; later keys must be introduced through Rotate.
	Create(ctx context.Context) (*signingDomain.SigningKey, error)

	// Rotate introduces a new signing key effective immediately and closes
	// the previous key's window after the overlap period. Both writes happen
	// in one transaction. Returns domain.ErrNoActiveKey when there is no key
	// to rotate away from.
	Rotate(ctx context.Context, overlap time.Duration) (*signingDomain.RotationResult, error)

	// Active returns the current signing key with decrypted material populated.
	Active(ctx context.Context) (*signingDomain.SigningKey, error)

	// Get returns a signing key by ID with decrypted material populated.
	// Retired keys are returned so previously signed tokens stay checkable.
	Get(ctx context.Context, keyID uuid.UUID) (*signingDomain.SigningKey, error)

	// List returns all signing keys without decrypting material.
	List(ctx context.Context) ([]*signingDomain.SigningKey, error)

	// Close zeros all cached key material.
	Close()
}
