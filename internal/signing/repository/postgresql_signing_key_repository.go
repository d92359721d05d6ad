// Package repository implements signing key persistence for PostgreSQL and MySQL.
//
// Each repository stores encrypted key material alongside the key's activation
// window. Plaintext material never reaches this layer. All methods are
// transaction-aware via database.GetTx(), which key rotation relies on to
// retire the previous key and introduce the new one atomically.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/captoken/internal/database"
	apperrors "github.com/allisson/captoken/internal/errors"
	signingDomain "github.com/allisson/captoken/internal/signing/domain"
)

// PostgreSQLSigningKeyRepository implements signing key persistence for PostgreSQL.
//
// Uses the native UUID type for key IDs and BYTEA for encrypted material.
// Activation windows are stored as TIMESTAMPTZ with a nullable not_after.
type PostgreSQLSigningKeyRepository struct {
	db *sql.DB
}

// Create inserts a new signing key into the PostgreSQL database.
func (p *PostgreSQLSigningKeyRepository) Create(ctx context.Context, key *signingDomain.SigningKey) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO signing_keys (id, encrypted_material, not_before, not_after, created_at)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := querier.ExecContext(
		ctx,
		query,
		key.ID,
		key.EncryptedMaterial,
		key.NotBefore,
		key.NotAfter,
		key.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create signing key")
	}
	return nil
}

// Update modifies an existing signing key's activation window.
//
// Rotation uses this to close the previous key's window. Encrypted material
// is immutable and intentionally not updatable.
func (p *PostgreSQLSigningKeyRepository) Update(ctx context.Context, key *signingDomain.SigningKey) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE signing_keys
			  SET not_before = $1,
			  	  not_after = $2
			  WHERE id = $3`

	_, err := querier.ExecContext(
		ctx,
		query,
		key.NotBefore,
		key.NotAfter,
		key.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update signing key")
	}

	return nil
}

// Get retrieves a signing key by ID.
//
// Returns domain.ErrSigningKeyNotFound if no key exists with the given ID.
// Retired keys are returned; callers decide whether a closed window matters.
func (p *PostgreSQLSigningKeyRepository) Get(
	ctx context.Context,
	keyID uuid.UUID,
) (*signingDomain.SigningKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, encrypted_material, not_before, not_after, created_at
			  FROM signing_keys
			  WHERE id = $1`

	var key signingDomain.SigningKey
	err := querier.QueryRowContext(ctx, query, keyID).Scan(
		&key.ID,
		&key.EncryptedMaterial,
		&key.NotBefore,
		&key.NotAfter,
		&key.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, signingDomain.ErrSigningKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get signing key")
	}

	return &key, nil
}

// GetActive retrieves the signing key whose activation window is open at the
// given instant. When rotation leaves two keys inside an overlap period, the
// most recently created one wins.
//
// Returns domain.ErrNoActiveKey if no window is open.
func (p *PostgreSQLSigningKeyRepository) GetActive(
	ctx context.Context,
	now time.Time,
) (*signingDomain.SigningKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, encrypted_material, not_before, not_after, created_at
			  FROM signing_keys
			  WHERE not_before <= $1 AND (not_after IS NULL OR not_after > $1)
			  ORDER BY created_at DESC
			  LIMIT 1`

	var key signingDomain.SigningKey
	err := querier.QueryRowContext(ctx, query, now).Scan(
		&key.ID,
		&key.EncryptedMaterial,
		&key.NotBefore,
		&key.NotAfter,
		&key.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, signingDomain.ErrNoActiveKey
		}
		return nil, apperrors.Wrap(err, "failed to get active signing key")
	}

	return &key, nil
}

// List retrieves all signing keys ordered by creation time descending (newest first).
func (p *PostgreSQLSigningKeyRepository) List(ctx context.Context) ([]*signingDomain.SigningKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, encrypted_material, not_before, not_after, created_at
			  FROM signing_keys
			  ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var keys []*signingDomain.SigningKey
	for rows.Next() {
		var key signingDomain.SigningKey

		err := rows.Scan(
			&key.ID,
			&key.EncryptedMaterial,
			&key.NotBefore,
			&key.NotAfter,
			&key.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		keys = append(keys, &key)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

// NewPostgreSQLSigningKeyRepository creates a new PostgreSQL signing key repository instance.
func NewPostgreSQLSigningKeyRepository(db *sql.DB) *PostgreSQLSigningKeyRepository {
	return &PostgreSQLSigningKeyRepository{db: db}
}
