package service

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	signingDomain "github.com/allisson/captoken/internal/signing/domain"

	// Register all keeper provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KeeperService opens the keeper that protects signing key material at rest.
type KeeperService interface {
	// OpenKeeper opens a keeper for the configured provider.
	// Returns an error if the keeper URI is invalid or connection fails.
	OpenKeeper(ctx context.Context, keyURI string) (signingDomain.Keeper, error)
}

// keeperService implements KeeperService using gocloud.dev/secrets.
type keeperService struct{}

// NewKeeperService creates a new keeper service instance.
func NewKeeperService() KeeperService {
	return &keeperService{}
}

// OpenKeeper opens a secrets.Keeper for the provider identified by keyURI.
// Supports: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
// Returns a Keeper which *secrets.Keeper implements.
func (k *keeperService) OpenKeeper(ctx context.Context, keyURI string) (signingDomain.Keeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open keeper: %w", err)
	}
	return keeper, nil
}
