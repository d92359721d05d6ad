// Package service implements audit event signing.
package service

import (
	auditDomain "github.com/allisson/captoken/internal/audit/domain"
)

// EventSigner signs audit events and verifies stored signatures. The key
// material is the raw signing key; a dedicated signature key is derived from
// it so audit signing never reuses the token signing key directly.
type EventSigner interface {
	// Sign computes the signature over the event's canonical byte form.
	Sign(keyMaterial []byte, event *auditDomain.Event) ([]byte, error)

	// Verify recomputes the signature and compares it with the stored one.
	// Returns ErrSignatureInvalid on mismatch.
	Verify(keyMaterial []byte, event *auditDomain.Event) error
}
