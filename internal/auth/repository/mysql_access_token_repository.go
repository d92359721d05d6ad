package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	authDomain "github.com/allisson/captoken/internal/auth/domain"
	"github.com/allisson/captoken/internal/database"
	apperrors "github.com/allisson/captoken/internal/errors"
)

// MySQLAccessTokenRepository implements AccessToken persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLAccessTokenRepository struct {
	db *sql.DB
}

// Create inserts a new AccessToken into the MySQL database using BINARY(16) for UUIDs.
func (m *MySQLAccessTokenRepository) Create(ctx context.Context, token *authDomain.AccessToken) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO access_tokens (id, token_hash, client_id, expires_at, revoked_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	id, err := token.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal access token id")
	}

	clientID, err := token.ClientID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal client id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		token.TokenHash,
		clientID,
		token.ExpiresAt,
		token.RevokedAt,
		token.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create access token")
	}
	return nil
}

// GetByTokenHash retrieves an AccessToken by its SHA-256 hash from the MySQL database.
// Returns ErrAccessTokenNotFound if no token with the hash exists.
func (m *MySQLAccessTokenRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.AccessToken, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, token_hash, client_id, expires_at, revoked_at, created_at
			  FROM access_tokens WHERE token_hash = ?`

	var token authDomain.AccessToken
	var idBytes []byte
	var clientIDBytes []byte

	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&idBytes,
		&token.TokenHash,
		&clientIDBytes,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrAccessTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get access token")
	}

	if err := token.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal access token id")
	}

	if err := token.ClientID.UnmarshalBinary(clientIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal client id")
	}

	return &token, nil
}

// CountExpiredBefore counts access tokens whose expiry is strictly before the cutoff.
// Used for dry-run cleanup previews.
func (m *MySQLAccessTokenRepository) CountExpiredBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM access_tokens WHERE expires_at < ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired access tokens")
	}

	return count, nil
}

// DeleteExpiredBefore removes access tokens whose expiry is strictly before the cutoff.
// Returns the number of deleted rows.
func (m *MySQLAccessTokenRepository) DeleteExpiredBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM access_tokens WHERE expires_at < ?`

	result, err := querier.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired access tokens")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read deleted access token count")
	}

	return deleted, nil
}

// NewMySQLAccessTokenRepository creates a new MySQL AccessToken repository.
func NewMySQLAccessTokenRepository(db *sql.DB) *MySQLAccessTokenRepository {
	return &MySQLAccessTokenRepository{db: db}
}
