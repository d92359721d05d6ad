// Package usecase implements business logic orchestration for authentication operations.
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/captoken/internal/auth/domain"
	authService "github.com/allisson/captoken/internal/auth/service"
	apperrors "github.com/allisson/captoken/internal/errors"
)

// clientUseCase implements ClientUseCase interface for managing client authentication.
type clientUseCase struct {
	clientRepo    ClientRepository
	secretService authService.SecretService
}

// validateGrants checks that every grant has a non-empty path and only known operations.
func validateGrants(grants []authDomain.Grant) error {
	if len(grants) == 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "at least one grant is required")
	}

	for i, grant := range grants {
		if grant.Path == "" {
			return apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("grant %d: path is required", i))
		}
		if len(grant.Operations) == 0 {
			return apperrors.Wrap(
				apperrors.ErrInvalidInput,
				fmt.Sprintf("grant %d: at least one operation is required", i),
			)
		}
		for _, op := range grant.Operations {
			if !op.IsValid() {
				return apperrors.Wrap(
					apperrors.ErrInvalidInput,
					fmt.Sprintf("grant %d: unknown operation %q", i, op),
				)
			}
		}
	}

	return nil
}

// Create generates and persists a new Client with a random secret.
// Returns the client ID and plain text secret. The plain secret is only returned once
// and must be securely stored by the caller. The hashed version is stored in the database.
func (c *clientUseCase) Create(
	ctx context.Context,
	createClientInput *authDomain.CreateClientInput,
) (*authDomain.CreateClientOutput, error) {
	if createClientInput.Name == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "name is required")
	}
	if err := validateGrants(createClientInput.Grants); err != nil {
		return nil, err
	}

	// Generate a secure random secret
	plainSecret, hashedSecret, err := c.secretService.GenerateSecret()
	if err != nil {
		return nil, err
	}

	// Create the client entity
	client := &authDomain.Client{
		ID:        uuid.Must(uuid.NewV7()),
		Secret:    hashedSecret,
		Name:      createClientInput.Name,
		IsActive:  createClientInput.IsActive,
		Grants:    createClientInput.Grants,
		CreatedAt: time.Now().UTC(),
	}

	// Persist the client
	if err := c.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}

	// Return the client ID and plain secret
	return &authDomain.CreateClientOutput{
		ID:          client.ID,
		PlainSecret: plainSecret,
	}, nil
}

// Update modifies an existing client's configuration.
// Only Name, IsActive, and Grants can be updated. The client secret and ID remain unchanged.
func (c *clientUseCase) Update(
	ctx context.Context,
	clientID uuid.UUID,
	updateClientInput *authDomain.UpdateClientInput,
) error {
	if updateClientInput.Name == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "name is required")
	}
	if err := validateGrants(updateClientInput.Grants); err != nil {
		return err
	}

	// Get the existing client
	client, err := c.clientRepo.Get(ctx, clientID)
	if err != nil {
		return err
	}

	// Update mutable fields
	client.Name = updateClientInput.Name
	client.IsActive = updateClientInput.IsActive
	client.Grants = updateClientInput.Grants

	// Persist the updated client
	return c.clientRepo.Update(ctx, client)
}

// Get retrieves a client by ID.
// Returns ErrClientNotFound if the client doesn't exist.
func (c *clientUseCase) Get(ctx context.Context, clientID uuid.UUID) (*authDomain.Client, error) {
	return c.clientRepo.Get(ctx, clientID)
}

// NewClientUseCase creates a new ClientUseCase with the provided dependencies.
func NewClientUseCase(
	clientRepo ClientRepository,
	secretService authService.SecretService,
) ClientUseCase {
	return &clientUseCase{
		clientRepo:    clientRepo,
		secretService: secretService,
	}
}
