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

// MySQLPolicyRepository implements Policy persistence for MySQL.
// Uses BINARY(16) for UUIDs with transaction support via database.GetTx().
type MySQLPolicyRepository struct {
	db *sql.DB
}

// NewMySQLPolicyRepository creates a new MySQL Policy repository.
func NewMySQLPolicyRepository(db *sql.DB) *MySQLPolicyRepository {
	return &MySQLPolicyRepository{db: db}
}

// Create inserts a new Policy into the MySQL database.
func (m *MySQLPolicyRepository) Create(ctx context.Context, policy *capabilityDomain.Policy) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO policies (id, resource_prefix, permissions, starts_on, expires_on, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	id, err := policy.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal policy id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
func (m *MySQLPolicyRepository) Get(ctx context.Context, policyID uuid.UUID) (*capabilityDomain.Policy, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, resource_prefix, permissions, starts_on, expires_on, created_at, updated_at
			  FROM policies
			  WHERE id = ?`

	id, err := policyID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal policy id")
	}

	var policy capabilityDomain.Policy
	var rawID []byte
	var permissions string
	err = querier.QueryRowContext(ctx, query, id).Scan(
		&rawID,
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

	if err := policy.ID.UnmarshalBinary(rawID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal policy id")
	}
	policy.Permissions, err = capabilityDomain.DecodePermissions(permissions)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decode policy permissions")
	}

	return &policy, nil
}

// Update rewrites a policy's permissions and validity window.
func (m *MySQLPolicyRepository) Update(ctx context.Context, policy *capabilityDomain.Policy) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE policies
			  SET permissions = ?, starts_on = ?, expires_on = ?, updated_at = ?
			  WHERE id = ?`

	id, err := policy.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal policy id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		capabilityDomain.EncodePermissions(policy.Permissions),
		policy.StartsOn,
		policy.ExpiresOn,
		policy.UpdatedAt,
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update policy")
	}

	return nil
}

// List retrieves policies ordered by ID descending with pagination. An empty
// resourcePrefix lists policies for every prefix.
func (m *MySQLPolicyRepository) List(
	ctx context.Context,
	resourcePrefix string,
	offset, limit int,
) ([]*capabilityDomain.Policy, error) {
	querier := database.GetTx(ctx, m.db)

	var rows *sql.Rows
	var err error
	if resourcePrefix == "" {
		query := `SELECT id, resource_prefix, permissions, starts_on, expires_on, created_at, updated_at
				  FROM policies
				  ORDER BY id DESC
				  LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, limit, offset)
	} else {
		query := `SELECT id, resource_prefix, permissions, starts_on, expires_on, created_at, updated_at
				  FROM policies
				  WHERE resource_prefix = ?
				  ORDER BY id DESC
				  LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, resourcePrefix, limit, offset)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list policies")
	}
	defer func() {
		_ = rows.Close()
	}()

	policies := make([]*capabilityDomain.Policy, 0)
	for rows.Next() {
		var policy capabilityDomain.Policy
		var rawID []byte
		var permissions string

		err := rows.Scan(
			&rawID,
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

		if err := policy.ID.UnmarshalBinary(rawID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal policy id")
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
// in the future. Must run inside a transaction: the locking read serializes
// concurrent creators on the same prefix until the transaction commits.
func (m *MySQLPolicyRepository) CountUnexpired(
	ctx context.Context,
	resourcePrefix string,
	now time.Time,
) (int, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM policies WHERE resource_prefix = ? AND expires_on > ? FOR UPDATE`

	var count int
	if err := querier.QueryRowContext(ctx, query, resourcePrefix, now).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count policies")
	}

	return count, nil
}

// DeleteExpiredBefore removes policies whose expiry predates the cutoff.
func (m *MySQLPolicyRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM policies WHERE expires_on < ?`, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired policies")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read deleted policy count")
	}

	return deleted, nil
}
