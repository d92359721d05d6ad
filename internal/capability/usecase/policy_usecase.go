package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/captoken/internal/audit/domain"
	capabilityDomain "github.com/allisson/captoken/internal/capability/domain"
	"github.com/allisson/captoken/internal/database"
	apperrors "github.com/allisson/captoken/internal/errors"
	"github.com/allisson/captoken/internal/validation"
)

// defaultCompactionRetention keeps expired policies around for thirty days so
// audits can still resolve recently revoked policy IDs.
const defaultCompactionRetention = 720 * time.Hour

// policyUseCase implements the PolicyUseCase interface.
type policyUseCase struct {
	txManager  database.TxManager
	policyRepo PolicyRepository
	audit      AuditRecorder
	logger     *slog.Logger
	retention  time.Duration
}

// NewPolicyUseCase creates a policy use case. A non-positive retention falls
// back to the thirty day default.
func NewPolicyUseCase(
	txManager database.TxManager,
	policyRepo PolicyRepository,
	audit AuditRecorder,
	logger *slog.Logger,
	retention time.Duration,
) PolicyUseCase {
	if retention <= 0 {
		retention = defaultCompactionRetention
	}
	return &policyUseCase{
		txManager:  txManager,
		policyRepo: policyRepo,
		audit:      audit,
		logger:     logger,
		retention:  retention,
	}
}

// Create stores a new policy after checking the per-prefix bound. The count
// and the insert share a transaction so concurrent creators on the same
// prefix cannot both squeeze under the bound.
func (p *policyUseCase) Create(
	ctx context.Context,
	input *capabilityDomain.CreatePolicyInput,
) (*capabilityDomain.Policy, error) {
	now := time.Now().UTC().Truncate(time.Second)

	if !validation.IsResourcePath(input.ResourcePrefix) {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "resource prefix must be an absolute resource path")
	}

	permissions, err := capabilityDomain.NormalizePermissions(input.Permissions)
	if err != nil {
		return nil, err
	}
	if len(permissions) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "at least one permission is required")
	}

	startsOn := input.StartsOn.UTC().Truncate(time.Second)
	if input.StartsOn.IsZero() {
		startsOn = now
	}
	if input.ExpiresOn.IsZero() {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "expires_on is required")
	}
	expiresOn := input.ExpiresOn.UTC().Truncate(time.Second)
	if !expiresOn.After(startsOn) {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "expires_on must be after starts_on")
	}

	policy := &capabilityDomain.Policy{
		ID:             uuid.Must(uuid.NewV7()),
		ResourcePrefix: input.ResourcePrefix,
		Permissions:    permissions,
		StartsOn:       startsOn,
		ExpiresOn:      expiresOn,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = p.txManager.WithTx(ctx, func(txCtx context.Context) error {
		count, err := p.policyRepo.CountUnexpired(txCtx, policy.ResourcePrefix, now)
		if err != nil {
			return err
		}
		if count >= capabilityDomain.MaxActivePoliciesPerPrefix {
			return capabilityDomain.ErrPolicyLimitExceeded
		}
		return p.policyRepo.Create(txCtx, policy)
	})
	if err != nil {
		return nil, err
	}

	p.recordAudit(ctx, &auditDomain.Event{
		RequestID:    input.RequestID,
		ClientID:     input.ClientID,
		Action:       auditDomain.ActionPolicyCreate,
		Granted:      true,
		ResourcePath: policy.ResourcePrefix,
		Permissions:  capabilityDomain.EncodePermissions(policy.Permissions),
		PolicyID:     policy.ID,
		Metadata: map[string]any{
			"starts_on":  policy.StartsOn.Format(time.RFC3339),
			"expires_on": policy.ExpiresOn.Format(time.RFC3339),
		},
	})

	return policy, nil
}

// Get retrieves a policy by ID, including revoked and expired ones.
func (p *policyUseCase) Get(ctx context.Context, policyID uuid.UUID) (*capabilityDomain.Policy, error) {
	return p.policyRepo.Get(ctx, policyID)
}

// List retrieves policies newest first, optionally filtered by prefix.
func (p *policyUseCase) List(
	ctx context.Context,
	resourcePrefix string,
	offset, limit int,
) ([]*capabilityDomain.Policy, error) {
	return p.policyRepo.List(ctx, resourcePrefix, offset, limit)
}

// Revoke expires a policy at the current instant. Every token referencing the
// policy stops validating as soon as the transaction commits. Revoking an
// already expired policy succeeds without changing anything.
func (p *policyUseCase) Revoke(ctx context.Context, input *capabilityDomain.RevokePolicyInput) error {
	now := time.Now().UTC().Truncate(time.Second)

	var revoked *capabilityDomain.Policy
	err := p.txManager.WithTx(ctx, func(txCtx context.Context) error {
		policy, err := p.policyRepo.Get(txCtx, input.PolicyID)
		if err != nil {
			return err
		}
		if !policy.ExpiresOn.After(now) {
			return nil
		}

		policy.ExpiresOn = now
		policy.UpdatedAt = now
		if err := p.policyRepo.Update(txCtx, policy); err != nil {
			return err
		}
		revoked = policy
		return nil
	})
	if err != nil {
		return err
	}

	if revoked != nil {
		p.recordAudit(ctx, &auditDomain.Event{
			RequestID:    input.RequestID,
			ClientID:     input.ClientID,
			Action:       auditDomain.ActionPolicyRevoke,
			Granted:      true,
			ResourcePath: revoked.ResourcePrefix,
			Permissions:  capabilityDomain.EncodePermissions(revoked.Permissions),
			PolicyID:     revoked.ID,
		})
	}

	return nil
}

// Compact deletes policies that expired more than the retention period ago.
func (p *policyUseCase) Compact(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-p.retention)
	return p.policyRepo.DeleteExpiredBefore(ctx, cutoff)
}

// recordAudit emits an audit event without letting a failure surface: the
// primary operation already happened.
func (p *policyUseCase) recordAudit(ctx context.Context, event *auditDomain.Event) {
	if p.audit == nil {
		return
	}
	if err := p.audit.Record(ctx, event); err != nil && p.logger != nil {
		p.logger.Error("failed to record audit event",
			slog.String("action", string(event.Action)),
			slog.Any("error", err),
		)
	}
}
