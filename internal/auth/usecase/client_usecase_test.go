package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/captoken/internal/auth/domain"
	apperrors "github.com/allisson/captoken/internal/errors"
)

// mockSecretService is a mock implementation of SecretService for testing.
type mockSecretService struct {
	mock.Mock
}

func (m *mockSecretService) GenerateSecret() (plainSecret string, hashedSecret string, error error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockSecretService) HashSecret(plainSecret string) (hashedSecret string, error error) {
	args := m.Called(plainSecret)
	return args.String(0), args.Error(1)
}

func (m *mockSecretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	args := m.Called(plainSecret, hashedSecret)
	return args.Bool(0)
}

// mockClientRepository is a mock implementation of ClientRepository for testing.
type mockClientRepository struct {
	mock.Mock
}

func (m *mockClientRepository) Create(ctx context.Context, client *authDomain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *mockClientRepository) Update(ctx context.Context, client *authDomain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *mockClientRepository) Get(ctx context.Context, clientID uuid.UUID) (*authDomain.Client, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Client), args.Error(1)
}

func testGrants() []authDomain.Grant {
	return []authDomain.Grant{
		{
			Path:       "/containers/logs/*",
			Operations: []authDomain.Operation{authDomain.OperationTokenIssue, authDomain.OperationTokenCheck},
		},
	}
}

func TestClientUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_CreateNewClient", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockSecretService := &mockSecretService{}

		plainSecret := "test-plain-secret-abc123"                  //nolint:gosec // test fixture, not a real credential
		hashedSecret := "$argon2id$v=19$m=65536,t=3,p=4$test-hash" //nolint:gosec // test fixture, not a real credential

		input := &authDomain.CreateClientInput{
			Name:     "log-agent",
			IsActive: true,
			Grants:   testGrants(),
		}

		mockSecretService.On("GenerateSecret").
			Return(plainSecret, hashedSecret, nil).
			Once()

		mockClientRepo.On("Create", ctx, mock.MatchedBy(func(client *authDomain.Client) bool {
			return client.Name == input.Name &&
				client.IsActive &&
				client.Secret == hashedSecret &&
				len(client.Grants) == 1 &&
				client.ID != uuid.Nil
		})).
			Return(nil).
			Once()

		uc := NewClientUseCase(mockClientRepo, mockSecretService)

		output, err := uc.Create(ctx, input)
		assert.NoError(t, err)
		assert.NotNil(t, output)
		assert.NotEqual(t, uuid.Nil, output.ID)
		assert.Equal(t, plainSecret, output.PlainSecret)

		mockSecretService.AssertExpectations(t)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Error_EmptyName", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockSecretService := &mockSecretService{}

		uc := NewClientUseCase(mockClientRepo, mockSecretService)

		output, err := uc.Create(ctx, &authDomain.CreateClientInput{
			Name:   "",
			Grants: testGrants(),
		})
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		mockSecretService.AssertNotCalled(t, "GenerateSecret")
		mockClientRepo.AssertNotCalled(t, "Create")
	})

	t.Run("Error_NoGrants", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockSecretService := &mockSecretService{}

		uc := NewClientUseCase(mockClientRepo, mockSecretService)

		output, err := uc.Create(ctx, &authDomain.CreateClientInput{
			Name:   "log-agent",
			Grants: nil,
		})
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Error_GrantMissingPath", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockSecretService := &mockSecretService{}

		uc := NewClientUseCase(mockClientRepo, mockSecretService)

		output, err := uc.Create(ctx, &authDomain.CreateClientInput{
			Name: "log-agent",
			Grants: []authDomain.Grant{
				{Path: "", Operations: []authDomain.Operation{authDomain.OperationTokenIssue}},
			},
		})
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Error_GrantWithoutOperations", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockSecretService := &mockSecretService{}

		uc := NewClientUseCase(mockClientRepo, mockSecretService)

		output, err := uc.Create(ctx, &authDomain.CreateClientInput{
			Name: "log-agent",
			Grants: []authDomain.Grant{
				{Path: "/containers/*", Operations: []authDomain.Operation{}},
			},
		})
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Error_GrantUnknownOperation", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockSecretService := &mockSecretService{}

		uc := NewClientUseCase(mockClientRepo, mockSecretService)

		output, err := uc.Create(ctx, &authDomain.CreateClientInput{
			Name: "log-agent",
			Grants: []authDomain.Grant{
				{Path: "/containers/*", Operations: []authDomain.Operation{"token:mint"}},
			},
		})
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Contains(t, err.Error(), "token:mint")
	})

	t.Run("Error_SecretGenerationFails", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockSecretService := &mockSecretService{}

		expectedErr := errors.New("random source exhausted")

		mockSecretService.On("GenerateSecret").
			Return("", "", expectedErr).
			Once()

		uc := NewClientUseCase(mockClientRepo, mockSecretService)

		output, err := uc.Create(ctx, &authDomain.CreateClientInput{
			Name:   "log-agent",
			Grants: testGrants(),
		})
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.Equal(t, expectedErr, err)

		mockClientRepo.AssertNotCalled(t, "Create")
	})

	t.Run("Error_RepositoryCreateFails", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockSecretService := &mockSecretService{}

		expectedErr := errors.New("database error")

		mockSecretService.On("GenerateSecret").
			Return("plain", "hashed", nil).
			Once()

		mockClientRepo.On("Create", ctx, mock.AnythingOfType("*domain.Client")).
			Return(expectedErr).
			Once()

		uc := NewClientUseCase(mockClientRepo, mockSecretService)

		output, err := uc.Create(ctx, &authDomain.CreateClientInput{
			Name:   "log-agent",
			Grants: testGrants(),
		})
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.Equal(t, expectedErr, err)
	})
}

func TestClientUseCase_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_UpdateExistingClient", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockSecretService := &mockSecretService{}

		clientID := uuid.Must(uuid.NewV7())
		existingClient := &authDomain.Client{
			ID:       clientID,
			Secret:   "hashed-secret",
			Name:     "old-name",
			IsActive: true,
			Grants:   testGrants(),
		}

		newGrants := []authDomain.Grant{
			{Path: "*", Operations: []authDomain.Operation{authDomain.OperationAuditRead}},
		}

		mockClientRepo.On("Get", ctx, clientID).
			Return(existingClient, nil).
			Once()

		mockClientRepo.On("Update", ctx, mock.MatchedBy(func(client *authDomain.Client) bool {
			return client.ID == clientID &&
				client.Name == "new-name" &&
				!client.IsActive &&
				client.Secret == "hashed-secret" &&
				len(client.Grants) == 1 &&
				client.Grants[0].Path == "*"
		})).
			Return(nil).
			Once()

		uc := NewClientUseCase(mockClientRepo, mockSecretService)

		err := uc.Update(ctx, clientID, &authDomain.UpdateClientInput{
			Name:     "new-name",
			IsActive: false,
			Grants:   newGrants,
		})
		assert.NoError(t, err)

		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Error_ClientNotFound", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockSecretService := &mockSecretService{}

		clientID := uuid.Must(uuid.NewV7())

		mockClientRepo.On("Get", ctx, clientID).
			Return(nil, authDomain.ErrClientNotFound).
			Once()

		uc := NewClientUseCase(mockClientRepo, mockSecretService)

		err := uc.Update(ctx, clientID, &authDomain.UpdateClientInput{
			Name:   "new-name",
			Grants: testGrants(),
		})
		assert.Error(t, err)
		assert.ErrorIs(t, err, authDomain.ErrClientNotFound)

		mockClientRepo.AssertNotCalled(t, "Update")
	})

	t.Run("Error_InvalidGrants", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockSecretService := &mockSecretService{}

		uc := NewClientUseCase(mockClientRepo, mockSecretService)

		err := uc.Update(ctx, uuid.Must(uuid.NewV7()), &authDomain.UpdateClientInput{
			Name:   "new-name",
			Grants: nil,
		})
		assert.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		mockClientRepo.AssertNotCalled(t, "Get")
	})
}

func TestClientUseCase_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_GetExistingClient", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockSecretService := &mockSecretService{}

		clientID := uuid.Must(uuid.NewV7())
		expectedClient := &authDomain.Client{
			ID:       clientID,
			Name:     "log-agent",
			IsActive: true,
			Grants:   testGrants(),
		}

		mockClientRepo.On("Get", ctx, clientID).
			Return(expectedClient, nil).
			Once()

		uc := NewClientUseCase(mockClientRepo, mockSecretService)

		client, err := uc.Get(ctx, clientID)
		assert.NoError(t, err)
		assert.Equal(t, expectedClient, client)
	})

	t.Run("Error_ClientNotFound", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockSecretService := &mockSecretService{}

		clientID := uuid.Must(uuid.NewV7())

		mockClientRepo.On("Get", ctx, clientID).
			Return(nil, authDomain.ErrClientNotFound).
			Once()

		uc := NewClientUseCase(mockClientRepo, mockSecretService)

		client, err := uc.Get(ctx, clientID)
		assert.Error(t, err)
		assert.Nil(t, client)
		assert.ErrorIs(t, err, authDomain.ErrClientNotFound)
	})
}
