// Package domain defines the audit event model: an append-only,
// tamper-evident record of every security-relevant decision the service
// makes.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies which operation produced an audit event.
type Action string

const (
	// ActionTokenIssue records a capability token issuance.
	ActionTokenIssue Action = "token_issue"

	// ActionTokenCheck records a token validation decision.
	ActionTokenCheck Action = "token_check"

	// ActionPolicyCreate records a stored policy creation.
	ActionPolicyCreate Action = "policy_create"

	// ActionPolicyRevoke records a stored policy revocation.
	ActionPolicyRevoke Action = "policy_revoke"

	// ActionKeyRotate records a signing key rotation.
	ActionKeyRotate Action = "key_rotate"
)

// Event records a single security-relevant decision. Permissions carry the
// canonical letter encoding and DenyReason the validator's internal reason
// string; both are empty when they do not apply to the action.
//
// Signature is an HMAC over the event's canonical byte form, computed at
// write time with a key derived from the signing key identified by
// AuditKeyID. Events written while no signing key existed have an empty
// signature and a nil AuditKeyID.
type Event struct {
	ID           uuid.UUID
	RequestID    uuid.UUID
	ClientID     uuid.UUID
	Action       Action
	Granted      bool
	DenyReason   string
	ResourcePath string
	Permissions  string
	PolicyID     uuid.UUID
	SigningKeyID uuid.UUID
	CallerIP     string
	Metadata     map[string]any
	CreatedAt    time.Time
	Signature    []byte
	AuditKeyID   uuid.UUID
}

// VerifyReport summarizes a signature verification sweep over a range of
// stored events.
type VerifyReport struct {
	Total      int
	Valid      int
	Invalid    int
	Unsigned   int
	InvalidIDs []uuid.UUID
}
