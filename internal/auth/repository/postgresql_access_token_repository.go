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

// PostgreSQLAccessTokenRepository implements AccessToken persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLAccessTokenRepository struct {
	db *sql.DB
}

// Create inserts a new AccessToken into the PostgreSQL database.
func (p *PostgreSQLAccessTokenRepository) Create(ctx context.Context, token *authDomain.AccessToken) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO access_tokens (id, token_hash, client_id, expires_at, revoked_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.TokenHash,
		token.ClientID,
		token.ExpiresAt,
		token.RevokedAt,
		token.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create access token")
	}
	return nil
}

// GetByTokenHash retrieves an AccessToken by its SHA-256 hash from the PostgreSQL database.
// Returns ErrAccessTokenNotFound if no token with the hash exists.
func (p *PostgreSQLAccessTokenRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.AccessToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, token_hash, client_id, expires_at, revoked_at, created_at
			  FROM access_tokens WHERE token_hash = $1`

	var token authDomain.AccessToken

	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.TokenHash,
		&token.ClientID,
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

	return &token, nil
}

// CountExpiredBefore counts access tokens whose expiry is strictly before the cutoff.
// Used for dry-run cleanup previews.
func (p *PostgreSQLAccessTokenRepository) CountExpiredBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM access_tokens WHERE expires_at < $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired access tokens")
	}

	return count, nil
}

// DeleteExpiredBefore removes access tokens whose expiry is strictly before the cutoff.
// Returns the number of deleted rows.
func (p *PostgreSQLAccessTokenRepository) DeleteExpiredBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM access_tokens WHERE expires_at < $1`

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

// NewPostgreSQLAccessTokenRepository creates a new PostgreSQL AccessToken repository.
func NewPostgreSQLAccessTokenRepository(db *sql.DB) *PostgreSQLAccessTokenRepository {
	return &PostgreSQLAccessTokenRepository{db: db}
}
