// Package usecase implements capability token issuance, validation, and
// stored policy management.
//
// Policy reads on the validation path always go to the store; nothing is
// cached. A revocation takes effect for every subsequent check as soon as
// its transaction commits, which is the property stored policies exist to
// provide.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/captoken/internal/audit/domain"
	capabilityDomain "github.com/allisson/captoken/internal/capability/domain"
	signingDomain "github.com/allisson/captoken/internal/signing/domain"
)

// PolicyRepository defines persistence operations for stored access policies.
type PolicyRepository interface {
	// Create inserts a new policy.
	Create(ctx context.Context, policy *capabilityDomain.Policy) error

	// Get retrieves a policy by ID, including revoked and expired ones.
	// Returns domain.ErrPolicyNotFound if no policy exists with the given ID.
	Get(ctx context.Context, policyID uuid.UUID) (*capabilityDomain.Policy, error)

	// Update rewrites a policy's permissions and validity window.
	Update(ctx context.Context, policy *capabilityDomain.Policy) error

	// List retrieves policies newest first with pagination. An empty
	// resourcePrefix lists policies for every prefix.
	List(ctx context.Context, resourcePrefix string, offset, limit int) ([]*capabilityDomain.Policy, error)

	// CountUnexpired counts policies on a prefix whose expiry is still in the
	// future. Must run inside a transaction; implementations serialize
	// concurrent creators on the same prefix until the transaction ends.
	CountUnexpired(ctx context.Context, resourcePrefix string, now time.Time) (int, error)

	// DeleteExpiredBefore removes policies whose expiry predates the cutoff
	// and returns how many rows were deleted.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SigningKeyProvider supplies signing keys with decrypted material. Satisfied
// by the signing key use case.
type SigningKeyProvider interface {
	// Active returns the newest usable key with material loaded.
	// Returns domain.ErrNoActiveKey when every key is retired or absent.
	Active(ctx context.Context) (*signingDomain.SigningKey, error)

	// Get returns a key by ID with material loaded, including retired keys:
	// tokens signed by a retired key must still verify so the denial can say
	// why.
	Get(ctx context.Context, keyID uuid.UUID) (*signingDomain.SigningKey, error)
}

// AuditRecorder accepts audit events for durable recording. Failures are
// surfaced to the caller, which logs them and continues: audit emission never
// blocks a decision.
type AuditRecorder interface {
	Record(ctx context.Context, event *auditDomain.Event) error
}

// PolicyUseCase defines business operations for stored access policies.
type PolicyUseCase interface {
	// Create stores a new policy, enforcing the per-prefix bound on unexpired
	// policies. Returns domain.ErrPolicyLimitExceeded when the bound is hit.
	Create(ctx context.Context, input *capabilityDomain.CreatePolicyInput) (*capabilityDomain.Policy, error)

	// Get retrieves a policy by ID.
	Get(ctx context.Context, policyID uuid.UUID) (*capabilityDomain.Policy, error)

	// List retrieves policies newest first, optionally filtered by prefix.
	List(ctx context.Context, resourcePrefix string, offset, limit int) ([]*capabilityDomain.Policy, error)

	// Revoke expires a policy now, invalidating every outstanding token that
	// references it. Revoking an already expired policy is a no-op.
	Revoke(ctx context.Context, input *capabilityDomain.RevokePolicyInput) error

	// Compact deletes policies that expired more than the retention period
	// ago and returns how many were removed.
	Compact(ctx context.Context) (int64, error)
}

// TokenUseCase issues and validates capability tokens.
type TokenUseCase interface {
	// Issue mints a signed token for the requested scope. Policy-scoped
	// requests must fit inside the referenced policy's permissions and window.
	Issue(ctx context.Context, input *capabilityDomain.IssueTokenInput) (*capabilityDomain.IssueTokenOutput, error)

	// Check decides whether a presented token grants the requested access.
	// Token-level failures come back as a denied CheckResult, never as an
	// error; errors are reserved for malformed requests and store
	// unavailability.
	Check(ctx context.Context, input *capabilityDomain.CheckInput) (*capabilityDomain.CheckResult, error)
}
