package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/captoken/internal/metrics"
	signingDomain "github.com/allisson/captoken/internal/signing/domain"
)

// signingKeyUseCaseWithMetrics decorates SigningKeyUseCase with metrics instrumentation.
type signingKeyUseCaseWithMetrics struct {
	next    SigningKeyUseCase
	metrics metrics.BusinessMetrics
}

// NewSigningKeyUseCaseWithMetrics wraps a SigningKeyUseCase with metrics recording.
func NewSigningKeyUseCaseWithMetrics(
	useCase SigningKeyUseCase,
	m metrics.BusinessMetrics,
) SigningKeyUseCase {
	return &signingKeyUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Create records metrics for initial key creation.
func (s *signingKeyUseCaseWithMetrics) Create(ctx context.Context) (*signingDomain.SigningKey, error) {
	start := time.Now()
	key, err := s.next.Create(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signing", "key_create", status)
	s.metrics.RecordDuration(ctx, "signing", "key_create", time.Since(start), status)

	return key, err
}

// Rotate records metrics for key rotation.
func (s *signingKeyUseCaseWithMetrics) Rotate(
	ctx context.Context,
	overlap time.Duration,
) (*signingDomain.RotationResult, error) {
	start := time.Now()
	result, err := s.next.Rotate(ctx, overlap)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signing", "key_rotate", status)
	s.metrics.RecordDuration(ctx, "signing", "key_rotate", time.Since(start), status)

	return result, err
}

// Active records metrics for active key lookups.
func (s *signingKeyUseCaseWithMetrics) Active(ctx context.Context) (*signingDomain.SigningKey, error) {
	start := time.Now()
	key, err := s.next.Active(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signing", "key_active", status)
	s.metrics.RecordDuration(ctx, "signing", "key_active", time.Since(start), status)

	return key, err
}

// Get records metrics for key lookups by ID.
func (s *signingKeyUseCaseWithMetrics) Get(
	ctx context.Context,
	keyID uuid.UUID,
) (*signingDomain.SigningKey, error) {
	start := time.Now()
	key, err := s.next.Get(ctx, keyID)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signing", "key_get", status)
	s.metrics.RecordDuration(ctx, "signing", "key_get", time.Since(start), status)

	return key, err
}

// List records metrics for key listing.
func (s *signingKeyUseCaseWithMetrics) List(ctx context.Context) ([]*signingDomain.SigningKey, error) {
	start := time.Now()
	keys, err := s.next.List(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signing", "key_list", status)
	s.metrics.RecordDuration(ctx, "signing", "key_list", time.Since(start), status)

	return keys, err
}

// Close passes through to the wrapped use case.
func (s *signingKeyUseCaseWithMetrics) Close() {
	s.next.Close()
}
