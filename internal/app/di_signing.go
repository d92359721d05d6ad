package app

import (
	"context"
	"fmt"

	signingDomain "github.com/allisson/captoken/internal/signing/domain"
	signingHTTP "github.com/allisson/captoken/internal/signing/http"
	signingRepository "github.com/allisson/captoken/internal/signing/repository"
	signingService "github.com/allisson/captoken/internal/signing/service"
	signingUseCase "github.com/allisson/captoken/internal/signing/usecase"
)

// Keeper returns the keeper that encrypts signing key material at rest.
func (c *Container) Keeper() (signingDomain.Keeper, error) {
	var err error
	c.keeperInit.Do(func() {
		c.keeper, err = c.initKeeper()
		if err != nil {
			c.initErrors["keeper"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keeper"]; exists {
		return nil, storedErr
	}
	return c.keeper, nil
}

// SigningKeyRepository returns the signing key repository based on database driver.
func (c *Container) SigningKeyRepository() (signingUseCase.SigningKeyRepository, error) {
	var err error
	c.signingKeyRepositoryInit.Do(func() {
		c.signingKeyRepository, err = c.initSigningKeyRepository()
		if err != nil {
			c.initErrors["signingKeyRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signingKeyRepository"]; exists {
		return nil, storedErr
	}
	return c.signingKeyRepository, nil
}

// SigningKeyUseCase returns the signing key use case.
func (c *Container) SigningKeyUseCase() (signingUseCase.SigningKeyUseCase, error) {
	var err error
	c.signingKeyUseCaseInit.Do(func() {
		c.signingKeyUseCase, err = c.initSigningKeyUseCase()
		if err != nil {
			c.initErrors["signingKeyUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signingKeyUseCase"]; exists {
		return nil, storedErr
	}
	return c.signingKeyUseCase, nil
}

// KeyHandler returns the signing key HTTP handler.
func (c *Container) KeyHandler() (*signingHTTP.KeyHandler, error) {
	var err error
	c.keyHandlerInit.Do(func() {
		c.keyHandler, err = c.initKeyHandler()
		if err != nil {
			c.initErrors["keyHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyHandler"]; exists {
		return nil, storedErr
	}
	return c.keyHandler, nil
}

// initKeeper opens the keeper selected by the KEEPER_URI configuration.
func (c *Container) initKeeper() (signingDomain.Keeper, error) {
	if c.config.KeeperURI == "" {
		return nil, fmt.Errorf("KEEPER_URI is required to protect signing key material")
	}

	keeperService := signingService.NewKeeperService()

	keeper, err := keeperService.OpenKeeper(context.Background(), c.config.KeeperURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open keeper: %w", err)
	}

	return keeper, nil
}

// initSigningKeyRepository creates the signing key repository based on the database driver.
func (c *Container) initSigningKeyRepository() (signingUseCase.SigningKeyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for signing key repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return signingRepository.NewPostgreSQLSigningKeyRepository(db), nil
	case "mysql":
		return signingRepository.NewMySQLSigningKeyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initSigningKeyUseCase creates the signing key use case with all its dependencies.
func (c *Container) initSigningKeyUseCase() (signingUseCase.SigningKeyUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for signing key use case: %w", err)
	}

	signingKeyRepository, err := c.SigningKeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing key repository for signing key use case: %w", err)
	}

	keeper, err := c.Keeper()
	if err != nil {
		return nil, fmt.Errorf("failed to get keeper for signing key use case: %w", err)
	}

	baseUseCase := signingUseCase.NewSigningKeyUseCase(txManager, signingKeyRepository, keeper)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for signing key use case: %w", err)
		}
		return signingUseCase.NewSigningKeyUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initKeyHandler creates the signing key HTTP handler with all its dependencies.
func (c *Container) initKeyHandler() (*signingHTTP.KeyHandler, error) {
	signingKeyUseCase, err := c.SigningKeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing key use case for key handler: %w", err)
	}

	eventUseCase, err := c.EventUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get event use case for key handler: %w", err)
	}

	logger := c.Logger()

	return signingHTTP.NewKeyHandler(signingKeyUseCase, eventUseCase, c.config.KeyRotationOverlap, logger), nil
}
