package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccessToken represents a short-lived bearer credential exchanged for client
// credentials. Only the SHA-256 hash of the token value is stored.
type AccessToken struct {
	ID        uuid.UUID
	TokenHash string
	ClientID  uuid.UUID
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// IssueTokenInput contains the client credentials exchanged for an access token.
type IssueTokenInput struct {
	ClientID     uuid.UUID
	ClientSecret string
}

// IssueTokenOutput contains the result of issuing an access token.
// SECURITY: The plain token is only returned once and must be saved securely.
type IssueTokenOutput struct {
	PlainToken string
	ExpiresAt  time.Time
}
