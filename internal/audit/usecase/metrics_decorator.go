package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/captoken/internal/audit/domain"
	"github.com/allisson/captoken/internal/metrics"
)

// eventUseCaseWithMetrics decorates EventUseCase with metrics instrumentation.
type eventUseCaseWithMetrics struct {
	next    EventUseCase
	metrics metrics.BusinessMetrics
}

// NewEventUseCaseWithMetrics wraps an EventUseCase with metrics recording.
func NewEventUseCaseWithMetrics(
	useCase EventUseCase,
	m metrics.BusinessMetrics,
) EventUseCase {
	return &eventUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Record records metrics for audit event recording.
func (e *eventUseCaseWithMetrics) Record(ctx context.Context, event *auditDomain.Event) error {
	start := time.Now()
	err := e.next.Record(ctx, event)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "audit", "event_record", status)
	e.metrics.RecordDuration(ctx, "audit", "event_record", time.Since(start), status)

	return err
}

// List records metrics for audit event listing.
func (e *eventUseCaseWithMetrics) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.Event, error) {
	start := time.Now()
	events, err := e.next.List(ctx, offset, limit, createdAtFrom, createdAtTo)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "audit", "event_list", status)
	e.metrics.RecordDuration(ctx, "audit", "event_list", time.Since(start), status)

	return events, err
}

// VerifyBatch records metrics for signature verification sweeps.
func (e *eventUseCaseWithMetrics) VerifyBatch(
	ctx context.Context,
	startAt, endAt time.Time,
) (*auditDomain.VerifyReport, error) {
	start := time.Now()
	report, err := e.next.VerifyBatch(ctx, startAt, endAt)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "audit", "event_verify", status)
	e.metrics.RecordDuration(ctx, "audit", "event_verify", time.Since(start), status)

	return report, err
}

// DeleteOlderThan records metrics for retention cleanups.
func (e *eventUseCaseWithMetrics) DeleteOlderThan(
	ctx context.Context,
	days int,
	dryRun bool,
) (int64, error) {
	start := time.Now()
	deleted, err := e.next.DeleteOlderThan(ctx, days, dryRun)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "audit", "event_delete", status)
	e.metrics.RecordDuration(ctx, "audit", "event_delete", time.Since(start), status)

	return deleted, err
}
