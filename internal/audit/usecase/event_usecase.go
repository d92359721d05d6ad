package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/captoken/internal/audit/domain"
	auditService "github.com/allisson/captoken/internal/audit/service"
	apperrors "github.com/allisson/captoken/internal/errors"
	signingDomain "github.com/allisson/captoken/internal/signing/domain"
)

// verifyBatchSize bounds how many events a verification sweep loads per page.
const verifyBatchSize = 500

// eventUseCase implements EventUseCase.
type eventUseCase struct {
	eventRepo   EventRepository
	signingKeys SigningKeyProvider
	signer      auditService.EventSigner
}

// Record stamps the event with a UUIDv7 identifier and timestamp, signs it
// with the active signing key and persists it. When no signing key exists yet
// the event is stored unsigned; any other key resolution failure aborts the
// recording so a keeper outage cannot silently produce unsigned rows.
func (e *eventUseCase) Record(ctx context.Context, event *auditDomain.Event) error {
	event.ID = uuid.Must(uuid.NewV7())
	event.CreatedAt = time.Now().UTC()

	key, err := e.signingKeys.Active(ctx)
	switch {
	case err == nil:
		signature, signErr := e.signer.Sign(key.Material, event)
		if signErr != nil {
			return apperrors.Wrap(signErr, "failed to sign audit event")
		}
		event.Signature = signature
		event.AuditKeyID = key.ID
	case errors.Is(err, signingDomain.ErrNoActiveKey):
		// Nothing to sign with. Keep the event, leave it unsigned.
		event.Signature = nil
		event.AuditKeyID = uuid.Nil
	default:
		return apperrors.Wrap(err, "failed to resolve audit signing key")
	}

	if err := e.eventRepo.Create(ctx, event); err != nil {
		return apperrors.Wrap(err, "failed to create audit event")
	}

	return nil
}

// List retrieves audit events newest first with pagination and optional
// inclusive time filters.
func (e *eventUseCase) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.Event, error) {
	events, err := e.eventRepo.List(ctx, offset, limit, createdAtFrom, createdAtTo)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit events")
	}

	return events, nil
}

// VerifyBatch sweeps every event created inside [start, end] and recomputes
// its signature. Key material is resolved once per distinct audit key. An
// event whose audit key no longer exists counts as invalid: keys are never
// deleted, so a dangling reference means the row was altered.
func (e *eventUseCase) VerifyBatch(
	ctx context.Context,
	start, end time.Time,
) (*auditDomain.VerifyReport, error) {
	report := &auditDomain.VerifyReport{}
	keys := make(map[uuid.UUID]*signingDomain.SigningKey)

	for offset := 0; ; offset += verifyBatchSize {
		events, err := e.eventRepo.List(ctx, offset, verifyBatchSize, &start, &end)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to load audit events for verification")
		}

		for _, event := range events {
			report.Total++

			if len(event.Signature) == 0 {
				report.Unsigned++
				continue
			}

			key, ok := keys[event.AuditKeyID]
			if !ok {
				key, err = e.signingKeys.Get(ctx, event.AuditKeyID)
				if err != nil {
					if errors.Is(err, signingDomain.ErrSigningKeyNotFound) {
						report.Invalid++
						report.InvalidIDs = append(report.InvalidIDs, event.ID)
						continue
					}
					return nil, apperrors.Wrap(err, "failed to resolve audit key material")
				}
				keys[event.AuditKeyID] = key
			}

			if err := e.signer.Verify(key.Material, event); err != nil {
				if errors.Is(err, auditDomain.ErrSignatureInvalid) {
					report.Invalid++
					report.InvalidIDs = append(report.InvalidIDs, event.ID)
					continue
				}
				return nil, apperrors.Wrap(err, "failed to verify audit event signature")
			}

			report.Valid++
		}

		if len(events) < verifyBatchSize {
			break
		}
	}

	return report, nil
}

// DeleteOlderThan removes events older than the given number of days. In
// dry-run mode it only counts the rows that a real run would delete.
func (e *eventUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days <= 0 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "days must be positive")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	if dryRun {
		count, err := e.eventRepo.CountOlderThan(ctx, cutoff)
		if err != nil {
			return 0, apperrors.Wrap(err, "failed to count audit events")
		}
		return count, nil
	}

	deleted, err := e.eventRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit events")
	}

	return deleted, nil
}

// NewEventUseCase creates a new EventUseCase with the provided dependencies.
func NewEventUseCase(
	eventRepo EventRepository,
	signingKeys SigningKeyProvider,
	signer auditService.EventSigner,
) EventUseCase {
	return &eventUseCase{
		eventRepo:   eventRepo,
		signingKeys: signingKeys,
		signer:      signer,
	}
}
