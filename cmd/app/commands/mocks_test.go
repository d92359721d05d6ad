package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/captoken/internal/audit/domain"
	authDomain "github.com/allisson/captoken/internal/auth/domain"
	capabilityDomain "github.com/allisson/captoken/internal/capability/domain"
	signingDomain "github.com/allisson/captoken/internal/signing/domain"
)

type mockEventUseCase struct {
	mock.Mock
}

func (m *mockEventUseCase) Record(ctx context.Context, event *auditDomain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockEventUseCase) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.Event, error) {
	args := m.Called(ctx, offset, limit, createdAtFrom, createdAtTo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.Event), args.Error(1)
}

func (m *mockEventUseCase) VerifyBatch(
	ctx context.Context,
	start, end time.Time,
) (*auditDomain.VerifyReport, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.VerifyReport), args.Error(1)
}

func (m *mockEventUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	args := m.Called(ctx, days, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

type mockPolicyUseCase struct {
	mock.Mock
}

func (m *mockPolicyUseCase) Create(
	ctx context.Context,
	input *capabilityDomain.CreatePolicyInput,
) (*capabilityDomain.Policy, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capabilityDomain.Policy), args.Error(1)
}

func (m *mockPolicyUseCase) Get(ctx context.Context, policyID uuid.UUID) (*capabilityDomain.Policy, error) {
	args := m.Called(ctx, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capabilityDomain.Policy), args.Error(1)
}

func (m *mockPolicyUseCase) List(
	ctx context.Context,
	resourcePrefix string,
	offset, limit int,
) ([]*capabilityDomain.Policy, error) {
	args := m.Called(ctx, resourcePrefix, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*capabilityDomain.Policy), args.Error(1)
}

func (m *mockPolicyUseCase) Revoke(ctx context.Context, input *capabilityDomain.RevokePolicyInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *mockPolicyUseCase) Compact(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockClientUseCase struct {
	mock.Mock
}

func (m *mockClientUseCase) Create(
	ctx context.Context,
	createClientInput *authDomain.CreateClientInput,
) (*authDomain.CreateClientOutput, error) {
	args := m.Called(ctx, createClientInput)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.CreateClientOutput), args.Error(1)
}

func (m *mockClientUseCase) Update(
	ctx context.Context,
	clientID uuid.UUID,
	updateClientInput *authDomain.UpdateClientInput,
) error {
	args := m.Called(ctx, clientID, updateClientInput)
	return args.Error(0)
}

func (m *mockClientUseCase) Get(ctx context.Context, clientID uuid.UUID) (*authDomain.Client, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Client), args.Error(1)
}

type mockAuthTokenUseCase struct {
	mock.Mock
}

func (m *mockAuthTokenUseCase) Issue(
	ctx context.Context,
	issueTokenInput *authDomain.IssueTokenInput,
) (*authDomain.IssueTokenOutput, error) {
	args := m.Called(ctx, issueTokenInput)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.IssueTokenOutput), args.Error(1)
}

func (m *mockAuthTokenUseCase) Authenticate(ctx context.Context, tokenHash string) (*authDomain.Client, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Client), args.Error(1)
}

func (m *mockAuthTokenUseCase) CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error) {
	args := m.Called(ctx, days, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

type mockSigningKeyUseCase struct {
	mock.Mock
}

func (m *mockSigningKeyUseCase) Create(ctx context.Context) (*signingDomain.SigningKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signingDomain.SigningKey), args.Error(1)
}

func (m *mockSigningKeyUseCase) Rotate(
	ctx context.Context,
	overlap time.Duration,
) (*signingDomain.RotationResult, error) {
	args := m.Called(ctx, overlap)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signingDomain.RotationResult), args.Error(1)
}

func (m *mockSigningKeyUseCase) Active(ctx context.Context) (*signingDomain.SigningKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signingDomain.SigningKey), args.Error(1)
}

func (m *mockSigningKeyUseCase) Get(ctx context.Context, keyID uuid.UUID) (*signingDomain.SigningKey, error) {
	args := m.Called(ctx, keyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signingDomain.SigningKey), args.Error(1)
}

func (m *mockSigningKeyUseCase) List(ctx context.Context) ([]*signingDomain.SigningKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*signingDomain.SigningKey), args.Error(1)
}

func (m *mockSigningKeyUseCase) Close() {
	m.Called()
}
