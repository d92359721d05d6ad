package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	capabilityUseCase "github.com/allisson/captoken/internal/capability/usecase"
)

// RunCompactPolicies deletes policies whose expiry predates the configured
// retention period. The server runs the same compaction on a schedule; this
// command exists for one-shot runs and deployments with the worker disabled.
//
// Requirements: Database must be migrated and accessible.
func RunCompactPolicies(
	ctx context.Context,
	policyUseCase capabilityUseCase.PolicyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	logger.Info("compacting expired policies")

	count, err := policyUseCase.Compact(ctx)
	if err != nil {
		return fmt.Errorf("failed to compact policies: %w", err)
	}

	// Output result based on format
	if format == "json" {
		if err := outputCompactJSON(writer, count); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputCompactText(writer, count)
	}

	logger.Info("compaction completed", slog.Int64("count", count))

	return nil
}

// outputCompactText outputs the result in human-readable text format.
func outputCompactText(writer io.Writer, count int64) {
	_, _ = fmt.Fprintf(writer, "Successfully deleted %d expired policy(ies)\n", count)
}

// outputCompactJSON outputs the result in JSON format for machine consumption.
func outputCompactJSON(writer io.Writer, count int64) error {
	result := map[string]interface{}{
		"count": count,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
