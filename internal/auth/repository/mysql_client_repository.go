package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	authDomain "github.com/allisson/captoken/internal/auth/domain"
	"github.com/allisson/captoken/internal/database"
	apperrors "github.com/allisson/captoken/internal/errors"
)

// MySQLClientRepository implements Client persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
// Grants are stored as a JSON document alongside the client row.
type MySQLClientRepository struct {
	db *sql.DB
}

// Create inserts a new Client into the MySQL database using BINARY(16) for UUIDs.
// Returns an error if UUID/grant marshaling or database insertion fails.
func (m *MySQLClientRepository) Create(ctx context.Context, client *authDomain.Client) error {
	querier := database.GetTx(ctx, m.db)

	grantsJSON, err := json.Marshal(client.Grants)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal client grants")
	}

	query := `INSERT INTO clients (id, secret, name, is_active, grants, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	id, err := client.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal client id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		client.Secret,
		client.Name,
		client.IsActive,
		grantsJSON,
		client.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create client")
	}
	return nil
}

// Update modifies an existing Client in the MySQL database using BINARY(16) for UUIDs.
// Returns an error if UUID/grant marshaling or database update fails.
func (m *MySQLClientRepository) Update(ctx context.Context, client *authDomain.Client) error {
	querier := database.GetTx(ctx, m.db)

	grantsJSON, err := json.Marshal(client.Grants)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal client grants")
	}

	query := `UPDATE clients
			  SET secret = ?,
			  	  name = ?,
				  is_active = ?,
				  grants = ?
			  WHERE id = ?`

	id, err := client.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal client id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		client.Secret,
		client.Name,
		client.IsActive,
		grantsJSON,
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update client")
	}

	return nil
}

// Get retrieves a Client by ID from the MySQL database using BINARY(16) for UUIDs.
// Returns ErrClientNotFound if the client doesn't exist, or an error if UUID/grant
// unmarshaling or database query fails.
func (m *MySQLClientRepository) Get(ctx context.Context, clientID uuid.UUID) (*authDomain.Client, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, secret, name, is_active, grants, created_at FROM clients WHERE id = ?`

	id, err := clientID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal client id")
	}

	var client authDomain.Client
	var idBytes []byte
	var grantsJSON []byte

	err = querier.QueryRowContext(ctx, query, id).Scan(
		&idBytes,
		&client.Secret,
		&client.Name,
		&client.IsActive,
		&grantsJSON,
		&client.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrClientNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get client")
	}

	if err := client.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal client id")
	}

	if err := json.Unmarshal(grantsJSON, &client.Grants); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal client grants")
	}

	return &client, nil
}

// NewMySQLClientRepository creates a new MySQL Client repository.
func NewMySQLClientRepository(db *sql.DB) *MySQLClientRepository {
	return &MySQLClientRepository{db: db}
}
