package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxActivePoliciesPerPrefix bounds how many unexpired policies a single
// resource prefix can carry at once. The bound keeps the revocation surface
// reviewable: an operator can always enumerate what is revocable on a prefix.
const MaxActivePoliciesPerPrefix = 5

// Policy is a stored access policy tokens can reference. Revoking a policy
// sets ExpiresOn to the revocation instant; the row stays behind for the
// audit trail until the compactor removes it.
type Policy struct {
	ID             uuid.UUID
	ResourcePrefix string
	Permissions    []Permission
	StartsOn       time.Time
	ExpiresOn      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ActiveAt reports whether the policy grants access at the given instant.
func (p *Policy) ActiveAt(now time.Time) bool {
	return !now.Before(p.StartsOn) && now.Before(p.ExpiresOn)
}

// CreatePolicyInput carries a policy creation request into the use case
// layer. RequestID and ClientID identify the caller for the audit trail.
type CreatePolicyInput struct {
	RequestID      uuid.UUID
	ClientID       uuid.UUID
	ResourcePrefix string
	Permissions    []Permission
	StartsOn       time.Time
	ExpiresOn      time.Time
}

// RevokePolicyInput carries a policy revocation request into the use case
// layer.
type RevokePolicyInput struct {
	RequestID uuid.UUID
	ClientID  uuid.UUID
	PolicyID  uuid.UUID
}
