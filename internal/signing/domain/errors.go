package domain

import (
	"github.com/allisson/captoken/internal/errors"
)

// Signing key errors.
var (
	// ErrSigningKeyNotFound indicates a signing key with the specified ID was not found.
	ErrSigningKeyNotFound = errors.Wrap(errors.ErrNotFound, "signing key not found")

	// ErrNoActiveKey indicates no signing key has an open activation window.
	// Token issuance cannot proceed until a key is created or rotated in.
	ErrNoActiveKey = errors.Wrap(errors.ErrUnavailable, "no active signing key")

	// ErrInvalidKeyMaterial indicates decrypted key material has the wrong size.
	ErrInvalidKeyMaterial = errors.Wrap(errors.ErrInvalidInput, "invalid signing key material")

	// ErrKeyAlreadyExists indicates an initial signing key was requested while an
	// active key exists. Subsequent keys must be introduced through rotation.
	ErrKeyAlreadyExists = errors.Wrap(errors.ErrConflict, "active signing key already exists")
)
