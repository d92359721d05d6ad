package app

import (
	"fmt"

	capabilityHTTP "github.com/allisson/captoken/internal/capability/http"
	capabilityRepository "github.com/allisson/captoken/internal/capability/repository"
	capabilityService "github.com/allisson/captoken/internal/capability/service"
	capabilityUseCase "github.com/allisson/captoken/internal/capability/usecase"
)

// PolicyRepository returns the policy repository based on database driver.
func (c *Container) PolicyRepository() (capabilityUseCase.PolicyRepository, error) {
	var err error
	c.policyRepositoryInit.Do(func() {
		c.policyRepository, err = c.initPolicyRepository()
		if err != nil {
			c.initErrors["policyRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["policyRepository"]; exists {
		return nil, storedErr
	}
	return c.policyRepository, nil
}

// PolicyUseCase returns the policy use case.
func (c *Container) PolicyUseCase() (capabilityUseCase.PolicyUseCase, error) {
	var err error
	c.policyUseCaseInit.Do(func() {
		c.policyUseCase, err = c.initPolicyUseCase()
		if err != nil {
			c.initErrors["policyUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["policyUseCase"]; exists {
		return nil, storedErr
	}
	return c.policyUseCase, nil
}

// TokenUseCase returns the capability token use case.
func (c *Container) TokenUseCase() (capabilityUseCase.TokenUseCase, error) {
	var err error
	c.tokenUseCaseInit.Do(func() {
		c.tokenUseCase, err = c.initTokenUseCase()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenUseCase"]; exists {
		return nil, storedErr
	}
	return c.tokenUseCase, nil
}

// TokenHandler returns the capability token HTTP handler.
func (c *Container) TokenHandler() (*capabilityHTTP.TokenHandler, error) {
	var err error
	c.tokenHandlerInit.Do(func() {
		c.tokenHandler, err = c.initTokenHandler()
		if err != nil {
			c.initErrors["tokenHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenHandler"]; exists {
		return nil, storedErr
	}
	return c.tokenHandler, nil
}

// PolicyHandler returns the policy HTTP handler.
func (c *Container) PolicyHandler() (*capabilityHTTP.PolicyHandler, error) {
	var err error
	c.policyHandlerInit.Do(func() {
		c.policyHandler, err = c.initPolicyHandler()
		if err != nil {
			c.initErrors["policyHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["policyHandler"]; exists {
		return nil, storedErr
	}
	return c.policyHandler, nil
}

// PolicyCompactor returns the background worker that deletes long-expired policies.
func (c *Container) PolicyCompactor() (*capabilityUseCase.PolicyCompactor, error) {
	var err error
	c.policyCompactorInit.Do(func() {
		c.policyCompactor, err = c.initPolicyCompactor()
		if err != nil {
			c.initErrors["policyCompactor"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["policyCompactor"]; exists {
		return nil, storedErr
	}
	return c.policyCompactor, nil
}

// initPolicyRepository creates the policy repository based on the database driver.
func (c *Container) initPolicyRepository() (capabilityUseCase.PolicyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for policy repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return capabilityRepository.NewPostgreSQLPolicyRepository(db), nil
	case "mysql":
		return capabilityRepository.NewMySQLPolicyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initPolicyUseCase creates the policy use case with all its dependencies.
func (c *Container) initPolicyUseCase() (capabilityUseCase.PolicyUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for policy use case: %w", err)
	}

	policyRepository, err := c.PolicyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy repository for policy use case: %w", err)
	}

	eventUseCase, err := c.EventUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get event use case for policy use case: %w", err)
	}

	logger := c.Logger()

	baseUseCase := capabilityUseCase.NewPolicyUseCase(
		txManager,
		policyRepository,
		eventUseCase,
		logger,
		c.config.PolicyCompactionRetention,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for policy use case: %w", err)
		}
		return capabilityUseCase.NewPolicyUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initTokenUseCase creates the capability token use case with all its dependencies.
func (c *Container) initTokenUseCase() (capabilityUseCase.TokenUseCase, error) {
	policyRepository, err := c.PolicyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy repository for token use case: %w", err)
	}

	signingKeyUseCase, err := c.SigningKeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing key use case for token use case: %w", err)
	}

	eventUseCase, err := c.EventUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get event use case for token use case: %w", err)
	}

	logger := c.Logger()

	tokenConfig := capabilityUseCase.TokenConfig{
		ClockSkew:    c.config.TokenClockSkew,
		MaxTTL:       c.config.TokenMaxTTL,
		StoreTimeout: c.config.StoreCallTimeout,
	}

	baseUseCase := capabilityUseCase.NewTokenUseCase(
		tokenConfig,
		policyRepository,
		signingKeyUseCase,
		capabilityService.NewTokenCodec(),
		capabilityService.NewTokenSigner(),
		eventUseCase,
		logger,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for token use case: %w", err)
		}
		return capabilityUseCase.NewTokenUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initTokenHandler creates the capability token HTTP handler with all its dependencies.
func (c *Container) initTokenHandler() (*capabilityHTTP.TokenHandler, error) {
	tokenUseCase, err := c.TokenUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get token use case for token handler: %w", err)
	}

	logger := c.Logger()

	return capabilityHTTP.NewTokenHandler(tokenUseCase, logger), nil
}

// initPolicyHandler creates the policy HTTP handler with all its dependencies.
func (c *Container) initPolicyHandler() (*capabilityHTTP.PolicyHandler, error) {
	policyUseCase, err := c.PolicyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy use case for policy handler: %w", err)
	}

	logger := c.Logger()

	return capabilityHTTP.NewPolicyHandler(policyUseCase, logger), nil
}

// initPolicyCompactor creates the policy compactor worker with all its dependencies.
func (c *Container) initPolicyCompactor() (*capabilityUseCase.PolicyCompactor, error) {
	policyUseCase, err := c.PolicyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy use case for policy compactor: %w", err)
	}

	logger := c.Logger()

	return capabilityUseCase.NewPolicyCompactor(policyUseCase, logger, c.config.PolicyCompactionInterval), nil
}
