package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	capabilityDomain "github.com/allisson/captoken/internal/capability/domain"
	"github.com/allisson/captoken/internal/capability/usecase"
	"github.com/allisson/captoken/internal/metrics"
)

// mockBusinessMetrics is a local mock for metrics.BusinessMetrics to avoid dependency issues.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

// mockPolicyUseCase is a mock implementation of PolicyUseCase for testing.
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

// mockTokenUseCase is a mock implementation of TokenUseCase for testing.
type mockTokenUseCase struct {
	mock.Mock
}

func (m *mockTokenUseCase) Issue(
	ctx context.Context,
	input *capabilityDomain.IssueTokenInput,
) (*capabilityDomain.IssueTokenOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capabilityDomain.IssueTokenOutput), args.Error(1)
}

func (m *mockTokenUseCase) Check(
	ctx context.Context,
	input *capabilityDomain.CheckInput,
) (*capabilityDomain.CheckResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capabilityDomain.CheckResult), args.Error(1)
}

func TestPolicyUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Create success", func(t *testing.T) {
		mockNext := &mockPolicyUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewPolicyUseCaseWithMetrics(mockNext, mockMetrics)

		input := &capabilityDomain.CreatePolicyInput{ResourcePrefix: "/containers/logs"}
		policy := &capabilityDomain.Policy{ID: uuid.Must(uuid.NewV7())}

		mockNext.On("Create", ctx, input).Return(policy, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "capability", "policy_create", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "capability", "policy_create", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		result, err := uc.Create(ctx, input)
		assert.NoError(t, err)
		assert.Equal(t, policy, result)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Create error", func(t *testing.T) {
		mockNext := &mockPolicyUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewPolicyUseCaseWithMetrics(mockNext, mockMetrics)

		input := &capabilityDomain.CreatePolicyInput{ResourcePrefix: "/containers/logs"}

		mockNext.On("Create", ctx, input).Return(nil, errors.New("boom")).Once()
		mockMetrics.On("RecordOperation", ctx, "capability", "policy_create", "error").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "capability", "policy_create", mock.AnythingOfType("time.Duration"), "error").
			Return().
			Once()

		_, err := uc.Create(ctx, input)
		assert.Error(t, err)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Get success", func(t *testing.T) {
		mockNext := &mockPolicyUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewPolicyUseCaseWithMetrics(mockNext, mockMetrics)

		policyID := uuid.Must(uuid.NewV7())
		policy := &capabilityDomain.Policy{ID: policyID}

		mockNext.On("Get", ctx, policyID).Return(policy, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "capability", "policy_get", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "capability", "policy_get", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		result, err := uc.Get(ctx, policyID)
		assert.NoError(t, err)
		assert.Equal(t, policy, result)
	})

	t.Run("List success", func(t *testing.T) {
		mockNext := &mockPolicyUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewPolicyUseCaseWithMetrics(mockNext, mockMetrics)

		policies := []*capabilityDomain.Policy{{ID: uuid.Must(uuid.NewV7())}}

		mockNext.On("List", ctx, "/containers", 0, 10).Return(policies, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "capability", "policy_list", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "capability", "policy_list", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		result, err := uc.List(ctx, "/containers", 0, 10)
		assert.NoError(t, err)
		assert.Equal(t, policies, result)
	})

	t.Run("Revoke success", func(t *testing.T) {
		mockNext := &mockPolicyUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewPolicyUseCaseWithMetrics(mockNext, mockMetrics)

		input := &capabilityDomain.RevokePolicyInput{PolicyID: uuid.Must(uuid.NewV7())}

		mockNext.On("Revoke", ctx, input).Return(nil).Once()
		mockMetrics.On("RecordOperation", ctx, "capability", "policy_revoke", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "capability", "policy_revoke", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		err := uc.Revoke(ctx, input)
		assert.NoError(t, err)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Compact success", func(t *testing.T) {
		mockNext := &mockPolicyUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewPolicyUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("Compact", ctx).Return(int64(7), nil).Once()
		mockMetrics.On("RecordOperation", ctx, "capability", "policy_compact", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "capability", "policy_compact", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		deleted, err := uc.Compact(ctx)
		assert.NoError(t, err)
		assert.Equal(t, int64(7), deleted)
	})
}

func TestTokenUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Issue success", func(t *testing.T) {
		mockNext := &mockTokenUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewTokenUseCaseWithMetrics(mockNext, mockMetrics)

		input := &capabilityDomain.IssueTokenInput{ResourcePath: "/containers/logs"}
		output := &capabilityDomain.IssueTokenOutput{Token: "se=..."}

		mockNext.On("Issue", ctx, input).Return(output, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "capability", "token_issue", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "capability", "token_issue", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		result, err := uc.Issue(ctx, input)
		assert.NoError(t, err)
		assert.Equal(t, output, result)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Issue error", func(t *testing.T) {
		mockNext := &mockTokenUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewTokenUseCaseWithMetrics(mockNext, mockMetrics)

		input := &capabilityDomain.IssueTokenInput{ResourcePath: "/containers/logs"}

		mockNext.On("Issue", ctx, input).Return(nil, errors.New("boom")).Once()
		mockMetrics.On("RecordOperation", ctx, "capability", "token_issue", "error").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "capability", "token_issue", mock.AnythingOfType("time.Duration"), "error").
			Return().
			Once()

		_, err := uc.Issue(ctx, input)
		assert.Error(t, err)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Check denied still records success", func(t *testing.T) {
		mockNext := &mockTokenUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewTokenUseCaseWithMetrics(mockNext, mockMetrics)

		input := &capabilityDomain.CheckInput{Token: "bogus"}
		denied := &capabilityDomain.CheckResult{Granted: false, Reason: capabilityDomain.DenyMalformed}

		mockNext.On("Check", ctx, input).Return(denied, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "capability", "token_check", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "capability", "token_check", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		result, err := uc.Check(ctx, input)
		assert.NoError(t, err)
		assert.False(t, result.Granted)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Check error", func(t *testing.T) {
		mockNext := &mockTokenUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewTokenUseCaseWithMetrics(mockNext, mockMetrics)

		input := &capabilityDomain.CheckInput{Token: "bogus"}

		mockNext.On("Check", ctx, input).Return(nil, errors.New("store down")).Once()
		mockMetrics.On("RecordOperation", ctx, "capability", "token_check", "error").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "capability", "token_check", mock.AnythingOfType("time.Duration"), "error").
			Return().
			Once()

		_, err := uc.Check(ctx, input)
		assert.Error(t, err)
		mockMetrics.AssertExpectations(t)
	})
}
