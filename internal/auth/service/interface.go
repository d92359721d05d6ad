// Package service provides credential services for client authentication.
//
// Client secrets are hashed with argon2id before storage; access tokens are
// stored only as SHA-256 lookup hashes. Plain values exist in memory at
// creation time and are returned to the caller exactly once.
package service

// SecretService defines operations for client secret generation and validation.
type SecretService interface {
	// GenerateSecret creates a new cryptographically secure random secret.
	// Returns both the plain secret (shown to the operator once at client
	// creation) and the hashed version stored in the database.
	GenerateSecret() (plainSecret string, hashedSecret string, error error)

	// HashSecret hashes a plain secret for storage. Used when a client's
	// secret is regenerated.
	HashSecret(plainSecret string) (hashedSecret string, error error)

	// CompareSecret compares a plain secret against a stored hash.
	// The comparison is constant-time.
	CompareSecret(plainSecret string, hashedSecret string) bool
}

// TokenService defines operations for access token generation and hashing.
// Access tokens are bearer credentials; only their SHA-256 hash is stored
// and the hash doubles as the database lookup key during authentication.
type TokenService interface {
	// GenerateToken creates a new cryptographically secure random token.
	// Returns both the plain token (returned to the client once at login)
	// and the hash stored in the database.
	GenerateToken() (plainToken string, tokenHash string, error error)

	// HashToken hashes a presented token so it can be looked up by hash.
	HashToken(plainToken string) string
}
