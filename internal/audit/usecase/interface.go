// Package usecase implements business logic for recording, listing and
// verifying audit events.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/captoken/internal/audit/domain"
	signingDomain "github.com/allisson/captoken/internal/signing/domain"
)

// EventRepository defines persistence operations for audit events.
type EventRepository interface {
	Create(ctx context.Context, event *auditDomain.Event) error
	List(
		ctx context.Context,
		offset, limit int,
		createdAtFrom, createdAtTo *time.Time,
	) ([]*auditDomain.Event, error)
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SigningKeyProvider resolves signing keys with decrypted material. Record
// signs with the active key; verification resolves each event's recorded
// audit key, including retired ones.
type SigningKeyProvider interface {
	Active(ctx context.Context) (*signingDomain.SigningKey, error)
	Get(ctx context.Context, keyID uuid.UUID) (*signingDomain.SigningKey, error)
}

// EventUseCase defines business operations for audit events.
type EventUseCase interface {
	// Record stamps, signs and persists an audit event. Events recorded while
	// no signing key exists are stored unsigned. Recording failure never
	// reverses the decision it describes; callers log and continue.
	Record(ctx context.Context, event *auditDomain.Event) error

	// List retrieves events newest first with pagination and optional
	// inclusive time filters (nil means no filter).
	List(
		ctx context.Context,
		offset, limit int,
		createdAtFrom, createdAtTo *time.Time,
	) ([]*auditDomain.Event, error)

	// VerifyBatch recomputes signatures for every event created inside
	// [start, end] and reports valid, invalid and unsigned counts. Invalid
	// event IDs are listed for investigation.
	VerifyBatch(ctx context.Context, start, end time.Time) (*auditDomain.VerifyReport, error)

	// DeleteOlderThan removes events older than the given number of days and
	// returns how many were (or would be, in dry-run mode) removed.
	DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error)
}
