package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/goleak"

	capabilityDomain "github.com/allisson/captoken/internal/capability/domain"
)

// mockCompactablePolicyUseCase implements PolicyUseCase for compactor tests.
type mockCompactablePolicyUseCase struct {
	mock.Mock
}

func (m *mockCompactablePolicyUseCase) Create(
	ctx context.Context,
	input *capabilityDomain.CreatePolicyInput,
) (*capabilityDomain.Policy, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capabilityDomain.Policy), args.Error(1)
}

func (m *mockCompactablePolicyUseCase) Get(
	ctx context.Context,
	policyID uuid.UUID,
) (*capabilityDomain.Policy, error) {
	args := m.Called(ctx, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capabilityDomain.Policy), args.Error(1)
}

func (m *mockCompactablePolicyUseCase) List(
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

func (m *mockCompactablePolicyUseCase) Revoke(
	ctx context.Context,
	input *capabilityDomain.RevokePolicyInput,
) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *mockCompactablePolicyUseCase) Compact(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestNewPolicyCompactor(t *testing.T) {
	t.Run("DefaultInterval", func(t *testing.T) {
		compactor := NewPolicyCompactor(&mockCompactablePolicyUseCase{}, nil, 0)
		assert.Equal(t, defaultCompactionInterval, compactor.interval)
	})

	t.Run("CustomInterval", func(t *testing.T) {
		compactor := NewPolicyCompactor(&mockCompactablePolicyUseCase{}, nil, time.Minute)
		assert.Equal(t, time.Minute, compactor.interval)
	})
}

func TestPolicyCompactor_Start_ContextCancellation(t *testing.T) {
	compactor := NewPolicyCompactor(&mockCompactablePolicyUseCase{}, nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := compactor.Start(ctx)
	assert.Equal(t, context.Canceled, err)
}

func TestPolicyCompactor_Start_RunsCompaction(t *testing.T) {
	defer goleak.VerifyNone(t)

	mockUseCase := &mockCompactablePolicyUseCase{}
	compacted := make(chan struct{}, 1)
	mockUseCase.On("Compact", mock.Anything).
		Run(func(args mock.Arguments) {
			select {
			case compacted <- struct{}{}:
			default:
			}
		}).
		Return(int64(2), nil)

	compactor := NewPolicyCompactor(mockUseCase, nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- compactor.Start(ctx)
	}()

	select {
	case <-compacted:
	case <-time.After(2 * time.Second):
		t.Fatal("compaction never ran")
	}
	cancel()

	select {
	case err := <-errCh:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(2 * time.Second):
		t.Fatal("compactor did not stop after cancellation")
	}
	mockUseCase.AssertExpectations(t)
}

func TestPolicyCompactor_RunOnce_ErrorIsTolerated(t *testing.T) {
	mockUseCase := &mockCompactablePolicyUseCase{}
	mockUseCase.On("Compact", mock.Anything).Return(int64(0), assert.AnError).Once()

	compactor := NewPolicyCompactor(mockUseCase, nil, time.Hour)
	compactor.runOnce(context.Background())

	mockUseCase.AssertExpectations(t)
}
