package app

import (
	"fmt"

	authHTTP "github.com/allisson/captoken/internal/auth/http"
	authRepository "github.com/allisson/captoken/internal/auth/repository"
	authService "github.com/allisson/captoken/internal/auth/service"
	authUseCase "github.com/allisson/captoken/internal/auth/usecase"
)

// SecretService returns the secret service for client credential hashing.
func (c *Container) SecretService() authService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = c.initSecretService()
	})
	return c.secretService
}

// TokenService returns the token service for access token generation and hashing.
func (c *Container) TokenService() authService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = c.initTokenService()
	})
	return c.tokenService
}

// ClientRepository returns the client repository based on database driver.
func (c *Container) ClientRepository() (authUseCase.ClientRepository, error) {
	var err error
	c.clientRepositoryInit.Do(func() {
		c.clientRepository, err = c.initClientRepository()
		if err != nil {
			c.initErrors["clientRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["clientRepository"]; exists {
		return nil, storedErr
	}
	return c.clientRepository, nil
}

// AccessTokenRepository returns the access token repository based on database driver.
func (c *Container) AccessTokenRepository() (authUseCase.AccessTokenRepository, error) {
	var err error
	c.accessTokenRepositoryInit.Do(func() {
		c.accessTokenRepository, err = c.initAccessTokenRepository()
		if err != nil {
			c.initErrors["accessTokenRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accessTokenRepository"]; exists {
		return nil, storedErr
	}
	return c.accessTokenRepository, nil
}

// ClientUseCase returns the client use case.
func (c *Container) ClientUseCase() (authUseCase.ClientUseCase, error) {
	var err error
	c.clientUseCaseInit.Do(func() {
		c.clientUseCase, err = c.initClientUseCase()
		if err != nil {
			c.initErrors["clientUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["clientUseCase"]; exists {
		return nil, storedErr
	}
	return c.clientUseCase, nil
}

// AuthTokenUseCase returns the access token use case.
func (c *Container) AuthTokenUseCase() (authUseCase.TokenUseCase, error) {
	var err error
	c.authTokenUseCaseInit.Do(func() {
		c.authTokenUseCase, err = c.initAuthTokenUseCase()
		if err != nil {
			c.initErrors["authTokenUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authTokenUseCase"]; exists {
		return nil, storedErr
	}
	return c.authTokenUseCase, nil
}

// AuthTokenHandler returns the access token HTTP handler.
func (c *Container) AuthTokenHandler() (*authHTTP.TokenHandler, error) {
	var err error
	c.authTokenHandlerInit.Do(func() {
		c.authTokenHandler, err = c.initAuthTokenHandler()
		if err != nil {
			c.initErrors["authTokenHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authTokenHandler"]; exists {
		return nil, storedErr
	}
	return c.authTokenHandler, nil
}

// initSecretService creates the secret service for client authentication.
func (c *Container) initSecretService() authService.SecretService {
	return authService.NewSecretService()
}

// initTokenService creates the token service for client authentication.
func (c *Container) initTokenService() authService.TokenService {
	return authService.NewTokenService()
}

// initClientRepository creates the client repository based on the database driver.
func (c *Container) initClientRepository() (authUseCase.ClientRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for client repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return authRepository.NewPostgreSQLClientRepository(db), nil
	case "mysql":
		return authRepository.NewMySQLClientRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAccessTokenRepository creates the access token repository based on the database driver.
func (c *Container) initAccessTokenRepository() (authUseCase.AccessTokenRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for access token repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return authRepository.NewPostgreSQLAccessTokenRepository(db), nil
	case "mysql":
		return authRepository.NewMySQLAccessTokenRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initClientUseCase creates the client use case with all its dependencies.
func (c *Container) initClientUseCase() (authUseCase.ClientUseCase, error) {
	clientRepository, err := c.ClientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get client repository for client use case: %w", err)
	}

	secretService := c.SecretService()

	baseUseCase := authUseCase.NewClientUseCase(clientRepository, secretService)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for client use case: %w", err)
		}
		return authUseCase.NewClientUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initAuthTokenUseCase creates the access token use case with all its dependencies.
func (c *Container) initAuthTokenUseCase() (authUseCase.TokenUseCase, error) {
	clientRepository, err := c.ClientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get client repository for auth token use case: %w", err)
	}

	accessTokenRepository, err := c.AccessTokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get access token repository for auth token use case: %w", err)
	}

	secretService := c.SecretService()
	tokenService := c.TokenService()

	baseUseCase := authUseCase.NewTokenUseCase(
		c.config,
		clientRepository,
		accessTokenRepository,
		secretService,
		tokenService,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for auth token use case: %w", err)
		}
		return authUseCase.NewTokenUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initAuthTokenHandler creates the access token HTTP handler with all its dependencies.
func (c *Container) initAuthTokenHandler() (*authHTTP.TokenHandler, error) {
	authTokenUseCase, err := c.AuthTokenUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth token use case for auth token handler: %w", err)
	}

	logger := c.Logger()

	return authHTTP.NewTokenHandler(authTokenUseCase, logger), nil
}
