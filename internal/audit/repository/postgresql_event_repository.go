// Package repository implements audit event persistence for PostgreSQL and MySQL.
//
// Events are append-only. Signatures and signing key references are stored
// verbatim so a verification sweep can recompute them later. All methods are
// transaction-aware via database.GetTx().
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/captoken/internal/audit/domain"
	"github.com/allisson/captoken/internal/database"
	apperrors "github.com/allisson/captoken/internal/errors"
)

// PostgreSQLEventRepository implements audit event persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLEventRepository struct {
	db *sql.DB
}

// Create inserts a new audit event into the PostgreSQL database. Zero-valued
// optional UUIDs (policy, signing key, audit key) are stored as NULL, nil
// metadata as NULL and a nil signature as NULL so unsigned events stay
// distinguishable from events signed with an empty payload.
func (p *PostgreSQLEventRepository) Create(ctx context.Context, event *auditDomain.Event) error {
	querier := database.GetTx(ctx, p.db)

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
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = querier.ExecContext(
		ctx,
		query,
		event.ID,
		event.RequestID,
		event.ClientID,
		string(event.Action),
		event.Granted,
		event.DenyReason,
		event.ResourcePath,
		event.Permissions,
		nullableUUID(event.PolicyID),
		nullableUUID(event.SigningKeyID),
		event.CallerIP,
		metadataJSON,
		event.CreatedAt,
		event.Signature,
		nullableUUID(event.AuditKeyID),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit event")
	}

	return nil
}

// List retrieves audit events ordered by created_at descending (newest first)
// with pagination and optional time-based filtering. Accepts createdAtFrom and
// createdAtTo as optional filters (nil means no filter). Both boundaries are
// inclusive. Returns empty slice if no events found.
func (p *PostgreSQLEventRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.Event, error) {
	querier := database.GetTx(ctx, p.db)

	// Build dynamic WHERE clause based on provided filters
	var conditions []string
	var args []interface{}

	if createdAtFrom != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *createdAtFrom)
	}

	if createdAtTo != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)+1))
		args = append(args, *createdAtTo)
	}

	query := `SELECT id, request_id, client_id, action, granted, deny_reason, resource_path,
				  permissions, policy_id, signing_key_id, caller_ip, metadata, created_at,
				  signature, audit_key_id
			  FROM audit_events`

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
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
		event, err := scanPostgresEvent(rows)
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
func (p *PostgreSQLEventRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var count int64
	err := querier.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM audit_events WHERE created_at < $1`,
		cutoff,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count audit events")
	}

	return count, nil
}

// DeleteOlderThan removes audit events created strictly before the cutoff and
// returns the number of deleted rows.
func (p *PostgreSQLEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM audit_events WHERE created_at < $1`,
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

// scanPostgresEvent scans a single audit event row, mapping NULL optional
// columns back to their zero values.
func scanPostgresEvent(rows *sql.Rows) (*auditDomain.Event, error) {
	var event auditDomain.Event
	var action string
	var policyID, signingKeyID, auditKeyID uuid.NullUUID
	var metadataJSON []byte

	err := rows.Scan(
		&event.ID,
		&event.RequestID,
		&event.ClientID,
		&action,
		&event.Granted,
		&event.DenyReason,
		&event.ResourcePath,
		&event.Permissions,
		&policyID,
		&signingKeyID,
		&event.CallerIP,
		&metadataJSON,
		&event.CreatedAt,
		&event.Signature,
		&auditKeyID,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan audit event")
	}

	event.Action = auditDomain.Action(action)
	event.PolicyID = policyID.UUID
	event.SigningKeyID = signingKeyID.UUID
	event.AuditKeyID = auditKeyID.UUID

	// Unmarshal metadata if not NULL
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &event.Metadata); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit event metadata")
		}
	}

	return &event, nil
}

// nullableUUID maps the zero UUID to a database NULL.
func nullableUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

// NewPostgreSQLEventRepository creates a new PostgreSQL audit event repository.
func NewPostgreSQLEventRepository(db *sql.DB) *PostgreSQLEventRepository {
	return &PostgreSQLEventRepository{db: db}
}
