// Package repository provides data persistence implementations for stored
// access policies.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	capabilityDomain "github.com/allisson/captoken/internal/capability/domain"
	"github.com/allisson/captoken/internal/database"
	apperrors "github.com/allisson/captoken/internal/errors"
)

// PostgreSQLPolicyRepository implements Policy persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
//
// Revoked and expired policies are regular rows with expires_on in the past;
// they stay in the table until compaction so that audits can still resolve
// them by ID.
type PostgreSQLPolicyRepository struct {
	db *sql.DB
}

// NewPostgreSQLPolicyRepository creates a new PostgreSQL Policy repository.
func NewPostgreSQLPolicyRepository(db *sql.DB) *PostgreSQLPolicyRepository {
	return &PostgreSQLPolicyRepository{db: db}
}

// Create inserts a new Policy into the PostgreSQL database. Permissions are
// stored in their canonical letter encoding.
func (p *PostgreSQLPolicyRepository) Create(ctx context.Context, policy *capabilityDomain.Policy) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO policies (id, resource_prefix, permissions, starts_on, expires_on, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		policy.ID,
		policy.ResourcePrefix,
		capabilityDomain.EncodePermissions(policy.Permissions),
		policy.StartsOn,
		policy.ExpiresOn,
		policy.CreatedAt,
		policy.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create policy")
	}

	return nil
}

// Get retrieves a Policy by ID, including revoked and expired policies.
// Returns domain.ErrPolicyNotFound if no policy exists with the given ID.
func (p *PostgreSQLPolicyRepository) Get(ctx context.Context, policyID uuid.UUID) (*capabilityDomain.Policy, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, resource_prefix, permissions, starts_on, expires_on, created_at, updated_at
			  FROM policies
			  WHERE id = $1`

	var policy capabilityDomain.Policy
	var permissions string
	err := querier.QueryRowContext(ctx, query, policyID).Scan(
		&policy.ID,
		&policy.ResourcePrefix,
		&permissions,
		&policy.StartsOn,
		&policy.ExpiresOn,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, capabilityDomain.ErrPolicyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get policy")
	}

	policy.Permissions, err = capabilityDomain.DecodePermissions(permissions)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decode policy permissions")
	}

	return &policy, nil
}

// Update rewrites a policy's permissions and validity window. Revocation is
// an Update that moves expires_on to the current time.
func (p *PostgreSQLPolicyRepository) Update(ctx context.Context, policy *capabilityDomain.Policy) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE policies
			  SET permissions = $1, starts_on = $2, expires_on = $3, updated_at = $4
			  WHERE id = $5`

	_, err := querier.ExecContext(
		ctx,
		query,
		capabilityDomain.EncodePermissions(policy.Permissions),
		policy.StartsOn,
		policy.ExpiresOn,
		policy.UpdatedAt,
		policy.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update policy")
	}

	return nil
}

// List retrieves policies ordered by ID descending (newest first) with
// pagination. An empty resourcePrefix lists policies for every prefix.
func (p *PostgreSQLPolicyRepository) List(
	ctx context.Context,
	resourcePrefix string,
	offset, limit int,
) ([]*capabilityDomain.Policy, error) {
	querier := database.GetTx(ctx, p.db)

	var rows *sql.Rows
	var err error
	if resourcePrefix == "" {
		query := `SELECT id, resource_prefix, permissions, starts_on, expires_on, created_at, updated_at
				  FROM policies
				  ORDER BY id DESC
				  LIMIT $1 OFFSET $2`
		rows, err = querier.QueryContext(ctx, query, limit, offset)
	} else {
		query := `SELECT id, resource_prefix, permissions, starts_on, expires_on, created_at, updated_at
				  FROM policies
				  WHERE resource_prefix = $1
				  ORDER BY id DESC
				  LIMIT $2 OFFSET $3`
		rows, err = querier.QueryContext(ctx, query, resourcePrefix, limit, offset)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list policies")
	}
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	policies := make([]*capabilityDomain.Policy, 0)
	for rows.Next() {
		var policy capabilityDomain.Policy
		var permissions string

		err := rows.Scan(
			&policy.ID,
			&policy.ResourcePrefix,
			&permissions,
			&policy.StartsOn,
			&policy.ExpiresOn,
			&policy.CreatedAt,
			&policy.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan policy")
		}

		policy.Permissions, err = capabilityDomain.DecodePermissions(permissions)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to decode policy permissions")
		}

		policies = append(policies, &policy)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate policies")
	}

	return policies, nil
}

// CountUnexpired counts policies on a resource prefix whose expiry is still
// in the future. Must run inside a transaction: it takes a transaction-scoped
// advisory lock on the prefix so concurrent creators on the same prefix are
// serialized until the transaction commits, keeping the per-prefix bound
// exact under contention.
func (p *PostgreSQLPolicyRepository) CountUnexpired(
	ctx context.Context,
	resourcePrefix string,
	now time.Time,
) (int, error) {
	querier := database.GetTx(ctx, p.db)

	if _, err := querier.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, resourcePrefix); err != nil {
		return 0, apperrors.Wrap(err, "failed to lock resource prefix")
	}

	query := `SELECT COUNT(*) FROM policies WHERE resource_prefix = $1 AND expires_on > $2`

	var count int
	if err := querier.QueryRowContext(ctx, query, resourcePrefix, now).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count policies")
	}

	return count, nil
}

// DeleteExpiredBefore removes policies whose expiry predates the cutoff and
// returns how many rows were deleted.
func (p *PostgreSQLPolicyRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM policies WHERE expires_on < $1`, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired policies")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read deleted policy count")
	}

	return deleted, nil
}
