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

// MySQLSigningKeyRepository implements signing key persistence for MySQL.
// Uses BINARY(16) for UUIDs and BLOB for encrypted material with transaction support.
type MySQLSigningKeyRepository struct {
	db *sql.DB
}

// Create inserts a new signing key into the MySQL database.
func (m *MySQLSigningKeyRepository) Create(ctx context.Context, key *signingDomain.SigningKey) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO signing_keys (id, encrypted_material, not_before, not_after, created_at)
			  VALUES (?, ?, ?, ?, ?)`

	id, err := key.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal signing key id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
func (m *MySQLSigningKeyRepository) Update(ctx context.Context, key *signingDomain.SigningKey) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE signing_keys
			  SET not_before = ?,
			  	  not_after = ?
			  WHERE id = ?`

	id, err := key.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal signing key id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		key.NotBefore,
		key.NotAfter,
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update signing key")
	}

	return nil
}

// Get retrieves a signing key by ID, including retired keys.
func (m *MySQLSigningKeyRepository) Get(
	ctx context.Context,
	keyID uuid.UUID,
) (*signingDomain.SigningKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, encrypted_material, not_before, not_after, created_at
			  FROM signing_keys
			  WHERE id = ?`

	id, err := keyID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal signing key id")
	}

	var key signingDomain.SigningKey
	var rawID []byte
	err = querier.QueryRowContext(ctx, query, id).Scan(
		&rawID,
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

	if err := key.ID.UnmarshalBinary(rawID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal signing key id")
	}

	return &key, nil
}

// GetActive retrieves the newest signing key with an open activation window.
// Returns domain.ErrNoActiveKey if no window is open.
func (m *MySQLSigningKeyRepository) GetActive(
	ctx context.Context,
	now time.Time,
) (*signingDomain.SigningKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, encrypted_material, not_before, not_after, created_at
			  FROM signing_keys
			  WHERE not_before <= ? AND (not_after IS NULL OR not_after > ?)
			  ORDER BY created_at DESC
			  LIMIT 1`

	var key signingDomain.SigningKey
	var rawID []byte
	err := querier.QueryRowContext(ctx, query, now, now).Scan(
		&rawID,
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

	if err := key.ID.UnmarshalBinary(rawID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal signing key id")
	}

	return &key, nil
}

// List retrieves all signing keys ordered by creation time descending (newest first).
func (m *MySQLSigningKeyRepository) List(ctx context.Context) ([]*signingDomain.SigningKey, error) {
	querier := database.GetTx(ctx, m.db)

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
		var rawID []byte

		err := rows.Scan(
			&rawID,
			&key.EncryptedMaterial,
			&key.NotBefore,
			&key.NotAfter,
			&key.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if err := key.ID.UnmarshalBinary(rawID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal signing key id")
		}

		keys = append(keys, &key)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

// NewMySQLSigningKeyRepository creates a new MySQL signing key repository instance.
func NewMySQLSigningKeyRepository(db *sql.DB) *MySQLSigningKeyRepository {
	return &MySQLSigningKeyRepository{db: db}
}
