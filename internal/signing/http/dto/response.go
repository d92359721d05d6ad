package dto

import (
	"time"

	signingDomain "github.com/allisson/captoken/internal/signing/domain"
)

// RotateKeyResponse reports the outcome of a signing key rotation.
type RotateKeyResponse struct {
	KeyID               string    `json:"key_id"`
	PreviousKeyNotAfter time.Time `json:"previous_key_not_after"`
}

// KeyResponse carries signing key metadata. Key material never appears in
// responses; Status is derived from the activation window at mapping time.
type KeyResponse struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"` // "pending", "active" or "retired"
	NotBefore time.Time  `json:"not_before"`
	NotAfter  *time.Time `json:"not_after,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// MapKeyToResponse converts a domain signing key to its response metadata.
func MapKeyToResponse(key *signingDomain.SigningKey, now time.Time) KeyResponse {
	status := "active"
	switch {
	case now.Before(key.NotBefore):
		status = "pending"
	case key.RetiredAt(now):
		status = "retired"
	}

	return KeyResponse{
		ID:        key.ID.String(),
		Status:    status,
		NotBefore: key.NotBefore,
		NotAfter:  key.NotAfter,
		CreatedAt: key.CreatedAt,
	}
}

// ListKeysResponse represents a list of signing keys.
type ListKeysResponse struct {
	Data []KeyResponse `json:"data"`
}

// MapKeysToListResponse converts domain signing keys to a list response.
func MapKeysToListResponse(keys []*signingDomain.SigningKey, now time.Time) ListKeysResponse {
	data := make([]KeyResponse, 0, len(keys))
	for _, key := range keys {
		data = append(data, MapKeyToResponse(key, now))
	}

	return ListKeysResponse{Data: data}
}
