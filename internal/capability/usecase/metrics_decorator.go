package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	capabilityDomain "github.com/allisson/captoken/internal/capability/domain"
	"github.com/allisson/captoken/internal/metrics"
)

// policyUseCaseWithMetrics decorates PolicyUseCase with metrics instrumentation.
type policyUseCaseWithMetrics struct {
	next    PolicyUseCase
	metrics metrics.BusinessMetrics
}

// NewPolicyUseCaseWithMetrics wraps a PolicyUseCase with metrics recording.
func NewPolicyUseCaseWithMetrics(useCase PolicyUseCase, m metrics.BusinessMetrics) PolicyUseCase {
	return &policyUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Create records metrics for policy creation.
func (p *policyUseCaseWithMetrics) Create(
	ctx context.Context,
	input *capabilityDomain.CreatePolicyInput,
) (*capabilityDomain.Policy, error) {
	start := time.Now()
	policy, err := p.next.Create(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "capability", "policy_create", status)
	p.metrics.RecordDuration(ctx, "capability", "policy_create", time.Since(start), status)

	return policy, err
}

// Get records metrics for policy lookups.
func (p *policyUseCaseWithMetrics) Get(ctx context.Context, policyID uuid.UUID) (*capabilityDomain.Policy, error) {
	start := time.Now()
	policy, err := p.next.Get(ctx, policyID)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "capability", "policy_get", status)
	p.metrics.RecordDuration(ctx, "capability", "policy_get", time.Since(start), status)

	return policy, err
}

// List records metrics for policy listing.
func (p *policyUseCaseWithMetrics) List(
	ctx context.Context,
	resourcePrefix string,
	offset, limit int,
) ([]*capabilityDomain.Policy, error) {
	start := time.Now()
	policies, err := p.next.List(ctx, resourcePrefix, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "capability", "policy_list", status)
	p.metrics.RecordDuration(ctx, "capability", "policy_list", time.Since(start), status)

	return policies, err
}

// Revoke records metrics for policy revocation.
func (p *policyUseCaseWithMetrics) Revoke(ctx context.Context, input *capabilityDomain.RevokePolicyInput) error {
	start := time.Now()
	err := p.next.Revoke(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "capability", "policy_revoke", status)
	p.metrics.RecordDuration(ctx, "capability", "policy_revoke", time.Since(start), status)

	return err
}

// Compact records metrics for expired policy cleanup.
func (p *policyUseCaseWithMetrics) Compact(ctx context.Context) (int64, error) {
	start := time.Now()
	deleted, err := p.next.Compact(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "capability", "policy_compact", status)
	p.metrics.RecordDuration(ctx, "capability", "policy_compact", time.Since(start), status)

	return deleted, err
}

// tokenUseCaseWithMetrics decorates TokenUseCase with metrics instrumentation.
type tokenUseCaseWithMetrics struct {
	next    TokenUseCase
	metrics metrics.BusinessMetrics
}

// NewTokenUseCaseWithMetrics wraps a TokenUseCase with metrics recording.
func NewTokenUseCaseWithMetrics(useCase TokenUseCase, m metrics.BusinessMetrics) TokenUseCase {
	return &tokenUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Issue records metrics for token issuance.
func (t *tokenUseCaseWithMetrics) Issue(
	ctx context.Context,
	input *capabilityDomain.IssueTokenInput,
) (*capabilityDomain.IssueTokenOutput, error) {
	start := time.Now()
	output, err := t.next.Issue(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	t.metrics.RecordOperation(ctx, "capability", "token_issue", status)
	t.metrics.RecordDuration(ctx, "capability", "token_issue", time.Since(start), status)

	return output, err
}

// Check records metrics for token validation. A denied check is still a
// successful operation; only request or store failures count as errors.
func (t *tokenUseCaseWithMetrics) Check(
	ctx context.Context,
	input *capabilityDomain.CheckInput,
) (*capabilityDomain.CheckResult, error) {
	start := time.Now()
	result, err := t.next.Check(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	t.metrics.RecordOperation(ctx, "capability", "token_check", status)
	t.metrics.RecordDuration(ctx, "capability", "token_check", time.Since(start), status)

	return result, err
}
