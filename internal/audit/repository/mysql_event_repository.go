package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/captoken/internal/audit/domain"
	"github.com/allisson/captoken/internal/database"
	apperrors "github.com/allisson/captoken/internal/errors"
)

// MySQLEventRepository implements audit event persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLEventRepository struct {
	db *sql.DB
}

// Create inserts a new audit event into the MySQL database using BINARY(16)
// for UUIDs. Zero-valued optional UUIDs, nil metadata and nil signatures are
// stored as NULL.
func (m *MySQLEventRepository) Create(ctx context.Context, event *auditDomain.Event) error {
	querier := database.GetTx(ctx, m.db)

	var metadataJSON []byte
	var err error

	// Handle nil metadata as NULL
	if event.Metadata != nil {
		metadataJSON, err = json.Marshal(event.Metadata)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit event metadata")
		}
	}

	query := `INSERT INTO audit_events (id, request_id, client_id, action, granted, deny_reason,
				  resource_path, permissions, policy_id, signing_key_id, caller_ip, metadata,
				  created_at, signature, audit_key_id)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := event.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit event id")
	}

	requestID, err := event.RequestID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit event request_id")
	}

	clientID, err := event.ClientID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit event client_id")
	}

	policyID, err := nullableBinaryUUID(event.PolicyID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit event policy_id")
	}

	signingKeyID, err := nullableBinaryUUID(event.SigningKeyID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit event signing_key_id")
	}

	auditKeyID, err := nullableBinaryUUID(event.AuditKeyID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit event audit_key_id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		requestID,
		clientID,
		string(event.Action),
		event.Granted,
		event.DenyReason,
		event.ResourcePath,
		event.Permissions,
		policyID,
		signingKeyID,
		event.CallerIP,
		metadataJSON,
		event.CreatedAt,
		event.Signature,
		auditKeyID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit event")
	}

	return nil
}

// List retrieves audit events ordered by created_at descending (newest first)
// with pagination and optional time-based filtering. Accepts createdAtFrom and
// createdAtTo as optional filters (nil means no filter). Both boundaries are
// inclusive. Returns empty slice if no events found. UUIDs are stored as
// BINARY(16) and must be unmarshaled.
func (m *MySQLEventRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.Event, error) {
	querier := database.GetTx(ctx, m.db)

	// Build dynamic WHERE clause based on provided filters
	var conditions []string
	var args []interface{}

	if createdAtFrom != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *createdAtFrom)
	}

	if createdAtTo != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *createdAtTo)
	}

	query := `SELECT id, request_id, client_id, action, granted, deny_reason, resource_path,
				  permissions, policy_id, signing_key_id, caller_ip, metadata, created_at,
				  signature, audit_key_id
			  FROM audit_events`

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit events")
	}
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	events := make([]*auditDomain.Event, 0)
	for rows.Next() {
		event, err := scanMySQLEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit events")
	}

	return events, nil
}

// CountOlderThan returns the number of audit events created strictly before
// the cutoff. Used for retention dry runs.
func (m *MySQLEventRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	var count int64
	err := querier.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM audit_events WHERE created_at < ?`,
		cutoff,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count audit events")
	}

	return count, nil
}

// DeleteOlderThan removes audit events created strictly before the cutoff and
// returns the number of deleted rows.
func (m *MySQLEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM audit_events WHERE created_at < ?`,
		cutoff,
	)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit events")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get deleted audit events count")
	}

	return deleted, nil
}

// scanMySQLEvent scans a single audit event row, unmarshaling BINARY(16)
// UUIDs and mapping NULL optional columns back to their zero values.
func scanMySQLEvent(rows *sql.Rows) (*auditDomain.Event, error) {
	var event auditDomain.Event
	var idBinary, requestIDBinary, clientIDBinary []byte
	var policyIDBinary, signingKeyIDBinary, auditKeyIDBinary []byte
	var action string
	var metadataJSON []byte

	err := rows.Scan(
		&idBinary,
		&requestIDBinary,
		&clientIDBinary,
		&action,
		&event.Granted,
		&event.DenyReason,
		&event.ResourcePath,
		&event.Permissions,
		&policyIDBinary,
		&signingKeyIDBinary,
		&event.CallerIP,
		&metadataJSON,
		&event.CreatedAt,
		&event.Signature,
		&auditKeyIDBinary,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan audit event")
	}

	// Unmarshal UUIDs from BINARY(16)
	if err := event.ID.UnmarshalBinary(idBinary); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal audit event id")
	}

	if err := event.RequestID.UnmarshalBinary(requestIDBinary); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal audit event request_id")
	}

	if err := event.ClientID.UnmarshalBinary(clientIDBinary); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal audit event client_id")
	}

	// NULL optional UUIDs scan as nil slices and stay zero-valued
	if policyIDBinary != nil {
		if err := event.PolicyID.UnmarshalBinary(policyIDBinary); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit event policy_id")
		}
	}

	if signingKeyIDBinary != nil {
		if err := event.SigningKeyID.UnmarshalBinary(signingKeyIDBinary); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit event signing_key_id")
		}
	}

	if auditKeyIDBinary != nil {
		if err := event.AuditKeyID.UnmarshalBinary(auditKeyIDBinary); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit event audit_key_id")
		}
	}

	event.Action = auditDomain.Action(action)

	// Unmarshal metadata if not NULL
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &event.Metadata); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit event metadata")
		}
	}

	return &event, nil
}

// nullableBinaryUUID maps the zero UUID to a database NULL, otherwise to its
// BINARY(16) form.
func nullableBinaryUUID(id uuid.UUID) ([]byte, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return id.MarshalBinary()
}

// NewMySQLEventRepository creates a new MySQL audit event repository.
func NewMySQLEventRepository(db *sql.DB) *MySQLEventRepository {
	return &MySQLEventRepository{db: db}
}
