package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/captoken/internal/auth/domain"
	"github.com/allisson/captoken/internal/config"
	apperrors "github.com/allisson/captoken/internal/errors"
)

// mockTokenService is a mock implementation of TokenService for testing.
type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) GenerateToken() (plainToken string, tokenHash string, error error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockTokenService) HashToken(plainToken string) string {
	args := m.Called(plainToken)
	return args.String(0)
}

// mockAccessTokenRepository is a mock implementation of AccessTokenRepository for testing.
type mockAccessTokenRepository struct {
	mock.Mock
}

func (m *mockAccessTokenRepository) Create(ctx context.Context, token *authDomain.AccessToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockAccessTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*authDomain.AccessToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.AccessToken), args.Error(1)
}

func (m *mockAccessTokenRepository) CountExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAccessTokenRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		AuthTokenExpiration: 4 * time.Hour,
	}
}

func TestTokenUseCase_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_IssueToken", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		client := &authDomain.Client{
			ID:       clientID,
			Secret:   "hashed-secret",
			Name:     "log-agent",
			IsActive: true,
			Grants:   testGrants(),
		}

		plainToken := "generated-plain-token"
		tokenHash := "sha256-hash-of-token"

		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		mockSecretService.On("CompareSecret", "client-secret", "hashed-secret").
			Return(true).
			Once()

		mockTokenService.On("GenerateToken").
			Return(plainToken, tokenHash, nil).
			Once()

		before := time.Now().UTC()
		mockTokenRepo.On("Create", ctx, mock.MatchedBy(func(token *authDomain.AccessToken) bool {
			return token.ID != uuid.Nil &&
				token.TokenHash == tokenHash &&
				token.ClientID == clientID &&
				token.RevokedAt == nil &&
				token.ExpiresAt.After(before.Add(3*time.Hour))
		})).
			Return(nil).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		output, err := uc.Issue(ctx, &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: "client-secret",
		})
		assert.NoError(t, err)
		assert.NotNil(t, output)
		assert.Equal(t, plainToken, output.PlainToken)
		assert.WithinDuration(t, before.Add(4*time.Hour), output.ExpiresAt, 2*time.Second)

		mockClientRepo.AssertExpectations(t)
		mockSecretService.AssertExpectations(t)
		mockTokenService.AssertExpectations(t)
		mockTokenRepo.AssertExpectations(t)
	})

	t.Run("Error_ClientNotFound", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())

		mockClientRepo.On("Get", ctx, clientID).
			Return(nil, authDomain.ErrClientNotFound).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		output, err := uc.Issue(ctx, &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: "client-secret",
		})
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredentials)

		mockSecretService.AssertNotCalled(t, "CompareSecret")
	})

	t.Run("Error_ClientInactive", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		client := &authDomain.Client{
			ID:       clientID,
			Secret:   "hashed-secret",
			Name:     "log-agent",
			IsActive: false,
			Grants:   testGrants(),
		}

		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		output, err := uc.Issue(ctx, &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: "client-secret",
		})
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.ErrorIs(t, err, authDomain.ErrClientInactive)

		mockSecretService.AssertNotCalled(t, "CompareSecret")
	})

	t.Run("Error_InvalidSecret", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		client := &authDomain.Client{
			ID:       clientID,
			Secret:   "hashed-secret",
			Name:     "log-agent",
			IsActive: true,
			Grants:   testGrants(),
		}

		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		mockSecretService.On("CompareSecret", "wrong-secret", "hashed-secret").
			Return(false).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		output, err := uc.Issue(ctx, &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: "wrong-secret",
		})
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredentials)

		mockTokenService.AssertNotCalled(t, "GenerateToken")
	})

	t.Run("Error_TokenGenerationFails", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		client := &authDomain.Client{
			ID:       clientID,
			Secret:   "hashed-secret",
			Name:     "log-agent",
			IsActive: true,
			Grants:   testGrants(),
		}

		expectedErr := errors.New("random source exhausted")

		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		mockSecretService.On("CompareSecret", "client-secret", "hashed-secret").
			Return(true).
			Once()

		mockTokenService.On("GenerateToken").
			Return("", "", expectedErr).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		output, err := uc.Issue(ctx, &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: "client-secret",
		})
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.Equal(t, expectedErr, err)

		mockTokenRepo.AssertNotCalled(t, "Create")
	})

	t.Run("Error_RepositoryCreateFails", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		client := &authDomain.Client{
			ID:       clientID,
			Secret:   "hashed-secret",
			Name:     "log-agent",
			IsActive: true,
			Grants:   testGrants(),
		}

		expectedErr := errors.New("database error")

		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		mockSecretService.On("CompareSecret", "client-secret", "hashed-secret").
			Return(true).
			Once()

		mockTokenService.On("GenerateToken").
			Return("plain", "hash", nil).
			Once()

		mockTokenRepo.On("Create", ctx, mock.AnythingOfType("*domain.AccessToken")).
			Return(expectedErr).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		output, err := uc.Issue(ctx, &authDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: "client-secret",
		})
		assert.Error(t, err)
		assert.Nil(t, output)
		assert.Equal(t, expectedErr, err)
	})
}

func TestTokenUseCase_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ValidToken", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		client := &authDomain.Client{
			ID:       clientID,
			Secret:   "hashed-secret",
			Name:     "log-agent",
			IsActive: true,
			Grants:   testGrants(),
		}
		token := &authDomain.AccessToken{
			ID:        uuid.Must(uuid.NewV7()),
			TokenHash: "token-hash",
			ClientID:  clientID,
			ExpiresAt: time.Now().UTC().Add(time.Hour),
			CreatedAt: time.Now().UTC(),
		}

		mockTokenRepo.On("GetByTokenHash", ctx, "token-hash").
			Return(token, nil).
			Once()

		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		got, err := uc.Authenticate(ctx, "token-hash")
		assert.NoError(t, err)
		assert.Equal(t, client, got)

		mockTokenRepo.AssertExpectations(t)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Error_TokenNotFound", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		mockTokenRepo.On("GetByTokenHash", ctx, "unknown-hash").
			Return(nil, authDomain.ErrAccessTokenNotFound).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		got, err := uc.Authenticate(ctx, "unknown-hash")
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredentials)

		mockClientRepo.AssertNotCalled(t, "Get")
	})

	t.Run("Error_TokenExpired", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		token := &authDomain.AccessToken{
			ID:        uuid.Must(uuid.NewV7()),
			TokenHash: "token-hash",
			ClientID:  uuid.Must(uuid.NewV7()),
			ExpiresAt: time.Now().UTC().Add(-time.Minute),
			CreatedAt: time.Now().UTC().Add(-5 * time.Hour),
		}

		mockTokenRepo.On("GetByTokenHash", ctx, "token-hash").
			Return(token, nil).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		got, err := uc.Authenticate(ctx, "token-hash")
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredentials)

		mockClientRepo.AssertNotCalled(t, "Get")
	})

	t.Run("Error_TokenRevoked", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		revokedAt := time.Now().UTC().Add(-time.Minute)
		token := &authDomain.AccessToken{
			ID:        uuid.Must(uuid.NewV7()),
			TokenHash: "token-hash",
			ClientID:  uuid.Must(uuid.NewV7()),
			ExpiresAt: time.Now().UTC().Add(time.Hour),
			RevokedAt: &revokedAt,
			CreatedAt: time.Now().UTC(),
		}

		mockTokenRepo.On("GetByTokenHash", ctx, "token-hash").
			Return(token, nil).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		got, err := uc.Authenticate(ctx, "token-hash")
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredentials)

		mockClientRepo.AssertNotCalled(t, "Get")
	})

	t.Run("Error_ClientNotFound", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		token := &authDomain.AccessToken{
			ID:        uuid.Must(uuid.NewV7()),
			TokenHash: "token-hash",
			ClientID:  clientID,
			ExpiresAt: time.Now().UTC().Add(time.Hour),
			CreatedAt: time.Now().UTC(),
		}

		mockTokenRepo.On("GetByTokenHash", ctx, "token-hash").
			Return(token, nil).
			Once()

		mockClientRepo.On("Get", ctx, clientID).
			Return(nil, authDomain.ErrClientNotFound).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		got, err := uc.Authenticate(ctx, "token-hash")
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredentials)
	})

	t.Run("Error_ClientInactive", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		clientID := uuid.Must(uuid.NewV7())
		client := &authDomain.Client{
			ID:       clientID,
			Secret:   "hashed-secret",
			Name:     "log-agent",
			IsActive: false,
			Grants:   testGrants(),
		}
		token := &authDomain.AccessToken{
			ID:        uuid.Must(uuid.NewV7()),
			TokenHash: "token-hash",
			ClientID:  clientID,
			ExpiresAt: time.Now().UTC().Add(time.Hour),
			CreatedAt: time.Now().UTC(),
		}

		mockTokenRepo.On("GetByTokenHash", ctx, "token-hash").
			Return(token, nil).
			Once()

		mockClientRepo.On("Get", ctx, clientID).
			Return(client, nil).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		got, err := uc.Authenticate(ctx, "token-hash")
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, authDomain.ErrClientInactive)
	})

	t.Run("Error_RepositoryFailure", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		expectedErr := errors.New("database error")

		mockTokenRepo.On("GetByTokenHash", ctx, "token-hash").
			Return(nil, expectedErr).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		got, err := uc.Authenticate(ctx, "token-hash")
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.Equal(t, expectedErr, err)
	})
}

func TestTokenUseCase_CleanupExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_DeleteExpiredTokens", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		expectedCutoff := time.Now().UTC().AddDate(0, 0, -30)

		mockTokenRepo.On("DeleteExpiredBefore", ctx, mock.MatchedBy(func(cutoff time.Time) bool {
			return cutoff.Sub(expectedCutoff).Abs() < 2*time.Second
		})).
			Return(int64(7), nil).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		affected, err := uc.CleanupExpired(ctx, 30, false)
		assert.NoError(t, err)
		assert.Equal(t, int64(7), affected)

		mockTokenRepo.AssertExpectations(t)
		mockTokenRepo.AssertNotCalled(t, "CountExpiredBefore")
	})

	t.Run("Success_DryRunCountsOnly", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		mockTokenRepo.On("CountExpiredBefore", ctx, mock.AnythingOfType("time.Time")).
			Return(int64(3), nil).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		affected, err := uc.CleanupExpired(ctx, 30, true)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), affected)

		mockTokenRepo.AssertExpectations(t)
		mockTokenRepo.AssertNotCalled(t, "DeleteExpiredBefore")
	})

	t.Run("Success_ZeroDaysUsesNow", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		mockTokenRepo.On("DeleteExpiredBefore", ctx, mock.MatchedBy(func(cutoff time.Time) bool {
			return time.Since(cutoff).Abs() < 2*time.Second
		})).
			Return(int64(0), nil).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		affected, err := uc.CleanupExpired(ctx, 0, false)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), affected)
	})

	t.Run("Error_NegativeDays", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		affected, err := uc.CleanupExpired(ctx, -1, false)
		assert.Error(t, err)
		assert.Zero(t, affected)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		mockTokenRepo.AssertNotCalled(t, "DeleteExpiredBefore")
		mockTokenRepo.AssertNotCalled(t, "CountExpiredBefore")
	})

	t.Run("Error_RepositoryFailure", func(t *testing.T) {
		mockClientRepo := &mockClientRepository{}
		mockTokenRepo := &mockAccessTokenRepository{}
		mockSecretService := &mockSecretService{}
		mockTokenService := &mockTokenService{}

		expectedErr := errors.New("database error")

		mockTokenRepo.On("DeleteExpiredBefore", ctx, mock.AnythingOfType("time.Time")).
			Return(int64(0), expectedErr).
			Once()

		uc := NewTokenUseCase(testConfig(), mockClientRepo, mockTokenRepo, mockSecretService, mockTokenService)

		affected, err := uc.CleanupExpired(ctx, 30, false)
		assert.Error(t, err)
		assert.Zero(t, affected)
		assert.ErrorIs(t, err, expectedErr)
	})
}
