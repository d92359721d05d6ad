package usecase

import (
	"context"
	"log/slog"
	"time"
)

// defaultCompactionInterval spaces compaction runs an hour apart.
const defaultCompactionInterval = time.Hour

// PolicyCompactor periodically deletes long-expired policies. Compaction is
// best-effort housekeeping: a failed run is logged and retried at the next
// tick, never escalated.
type PolicyCompactor struct {
	policyUseCase PolicyUseCase
	logger        *slog.Logger
	interval      time.Duration
}

// NewPolicyCompactor creates a policy compactor. A non-positive interval
// falls back to the one hour default.
func NewPolicyCompactor(
	policyUseCase PolicyUseCase,
	logger *slog.Logger,
	interval time.Duration,
) *PolicyCompactor {
	if interval <= 0 {
		interval = defaultCompactionInterval
	}
	return &PolicyCompactor{
		policyUseCase: policyUseCase,
		logger:        logger,
		interval:      interval,
	}
}

// Start runs the compaction loop until the context is canceled.
func (c *PolicyCompactor) Start(ctx context.Context) error {
	if c.logger != nil {
		c.logger.Info("starting policy compactor",
			slog.Duration("interval", c.interval),
		)
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if c.logger != nil {
				c.logger.Info("stopping policy compactor")
			}
			return ctx.Err()
		case <-ticker.C:
			c.runOnce(ctx)
		}
	}
}

func (c *PolicyCompactor) runOnce(ctx context.Context) {
	deleted, err := c.policyUseCase.Compact(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("failed to compact policies", slog.Any("error", err))
		}
		return
	}
	if deleted > 0 && c.logger != nil {
		c.logger.Info("compacted expired policies", slog.Int64("deleted", deleted))
	}
}
