package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/captoken/internal/auth/domain"
	"github.com/allisson/captoken/internal/testutil"
)

func newTestMySQLClient() *authDomain.Client {
	return &authDomain.Client{
		ID:       uuid.Must(uuid.NewV7()),
		Secret:   "test-secret-hash",
		Name:     "test-client",
		IsActive: true,
		Grants: []authDomain.Grant{
			{
				Path:       "/containers/logs/*",
				Operations: []authDomain.Operation{authDomain.OperationTokenIssue, authDomain.OperationTokenCheck},
			},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestNewMySQLClientRepository(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewMySQLClientRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &MySQLClientRepository{}, repo)
}

func TestMySQLClientRepository_Create(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLClientRepository(db)
	ctx := context.Background()

	client := newTestMySQLClient()

	err := repo.Create(ctx, client)
	require.NoError(t, err)

	// Verify the client was created by retrieving it
	retrievedClient, err := repo.Get(ctx, client.ID)
	require.NoError(t, err)

	assert.Equal(t, client.ID, retrievedClient.ID)
	assert.Equal(t, client.Secret, retrievedClient.Secret)
	assert.Equal(t, client.Name, retrievedClient.Name)
	assert.Equal(t, client.IsActive, retrievedClient.IsActive)
	assert.Equal(t, client.Grants, retrievedClient.Grants)
	assert.WithinDuration(t, client.CreatedAt, retrievedClient.CreatedAt, time.Second)
}

func TestMySQLClientRepository_Create_InactiveClient(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLClientRepository(db)
	ctx := context.Background()

	client := newTestMySQLClient()
	client.IsActive = false

	err := repo.Create(ctx, client)
	require.NoError(t, err)

	retrievedClient, err := repo.Get(ctx, client.ID)
	require.NoError(t, err)
	assert.False(t, retrievedClient.IsActive)
}

func TestMySQLClientRepository_Create_MultipleGrants(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLClientRepository(db)
	ctx := context.Background()

	client := newTestMySQLClient()
	client.Grants = []authDomain.Grant{
		{
			Path:       "/containers/logs/*",
			Operations: []authDomain.Operation{authDomain.OperationTokenIssue},
		},
		{
			Path:       "*",
			Operations: []authDomain.Operation{authDomain.OperationAuditRead, authDomain.OperationKeyRead},
		},
	}

	err := repo.Create(ctx, client)
	require.NoError(t, err)

	retrievedClient, err := repo.Get(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, client.Grants, retrievedClient.Grants)
}

func TestMySQLClientRepository_Update(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLClientRepository(db)
	ctx := context.Background()

	client := newTestMySQLClient()

	err := repo.Create(ctx, client)
	require.NoError(t, err)

	// Update the client
	client.Secret = "updated-secret"
	client.Name = "updated-name"
	client.IsActive = false
	client.Grants = []authDomain.Grant{
		{
			Path:       "/volumes/*",
			Operations: []authDomain.Operation{authDomain.OperationTokenCheck},
		},
	}

	err = repo.Update(ctx, client)
	require.NoError(t, err)

	retrievedClient, err := repo.Get(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated-secret", retrievedClient.Secret)
	assert.Equal(t, "updated-name", retrievedClient.Name)
	assert.False(t, retrievedClient.IsActive)
	assert.Equal(t, client.Grants, retrievedClient.Grants)
}

func TestMySQLClientRepository_Get_NotFound(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLClientRepository(db)
	ctx := context.Background()

	retrievedClient, err := repo.Get(ctx, uuid.Must(uuid.NewV7()))
	assert.Error(t, err)
	assert.Nil(t, retrievedClient)
	assert.ErrorIs(t, err, authDomain.ErrClientNotFound)
}
