// Package domain defines the signing key model used to authenticate capability tokens.
//
// Signing keys hold 32 bytes of random material, encrypted at rest by a KMS
// keeper. A key signs new tokens while its activation window is open and keeps
// verifying previously issued tokens until the window closes. Rotation opens a
// new key immediately and schedules the previous key to retire after an overlap
// period, so tokens signed shortly before the rotation remain verifiable.
package domain

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// KeyMaterialSize is the size in bytes of signing key material (256 bits).
const KeyMaterialSize = 32

// SigningKey is an HMAC signing key for capability tokens.
type SigningKey struct {
	ID                uuid.UUID  // Unique identifier (UUIDv7), referenced by tokens
	EncryptedMaterial []byte     // Key material encrypted by the keeper
	Material          []byte     // Plaintext material (populated after decryption, never persisted)
	NotBefore         time.Time  // Instant the activation window opens
	NotAfter          *time.Time // Instant the window closes; nil means open-ended
	CreatedAt         time.Time
}

// UsableAt reports whether the key's activation window is open at the given instant.
func (s *SigningKey) UsableAt(now time.Time) bool {
	if now.Before(s.NotBefore) {
		return false
	}
	return !s.RetiredAt(now)
}

// RetiredAt reports whether the key's window has closed at the given instant.
func (s *SigningKey) RetiredAt(now time.Time) bool {
	return s.NotAfter != nil && !now.Before(*s.NotAfter)
}

// RotationResult reports the outcome of a signing key rotation.
type RotationResult struct {
	NewKeyID         uuid.UUID // Key now signing new tokens
	PreviousKeyID    uuid.UUID // Key scheduled to retire
	PreviousNotAfter time.Time // Instant the previous key stops verifying
}

// Keeper encrypts and decrypts signing key material at rest.
// *secrets.Keeper from gocloud.dev implements it.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// MaterialCache holds decrypted signing key material with thread-safe access.
// Material is immutable once a key is created, so cached entries never go
// stale. Activation windows are not cached; they must be read from the store.
type MaterialCache struct {
	materials sync.Map // Thread-safe map of key ID to material
}

// Get retrieves cached material for a key by its UUID.
func (c *MaterialCache) Get(id uuid.UUID) ([]byte, bool) {
	if material, ok := c.materials.Load(id); ok {
		return material.([]byte), ok
	}

	return nil, false
}

// Put stores decrypted material for a key.
func (c *MaterialCache) Put(id uuid.UUID, material []byte) {
	c.materials.Store(id, material)
}

// Close securely clears all cached material.
func (c *MaterialCache) Close() {
	// Zero all material before clearing
	c.materials.Range(func(key, value interface{}) bool {
		if material, ok := value.([]byte); ok {
			Zero(material)
		}
		return true
	})
	c.materials.Clear()
}

// NewMaterialCache creates an empty MaterialCache.
func NewMaterialCache() *MaterialCache {
	return &MaterialCache{}
}
