package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	signingUseCase "github.com/allisson/captoken/internal/signing/usecase"
)

// RunRotateSigningKey rotates the active token signing key. The new key signs
// all tokens issued from now on; the previous key keeps verifying already
// issued tokens until the overlap period ends.
//
// Requirements: Database must be migrated and an active signing key must exist.
func RunRotateSigningKey(
	ctx context.Context,
	signingKeyUseCase signingUseCase.SigningKeyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	overlap time.Duration,
	format string,
) error {
	logger.Info("rotating signing key", slog.Duration("overlap", overlap))

	result, err := signingKeyUseCase.Rotate(ctx, overlap)
	if err != nil {
		return fmt.Errorf("failed to rotate signing key: %w", err)
	}

	// Output result based on format
	if format == "json" {
		if err := outputRotationJSON(writer, result.NewKeyID.String(), result.PreviousKeyID.String(), result.PreviousNotAfter); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputRotationText(writer, result.NewKeyID.String(), result.PreviousKeyID.String(), result.PreviousNotAfter)
	}

	logger.Info("signing key rotated",
		slog.String("new_key_id", result.NewKeyID.String()),
		slog.String("previous_key_id", result.PreviousKeyID.String()),
		slog.Time("previous_not_after", result.PreviousNotAfter),
	)

	return nil
}

// outputRotationText outputs the result in human-readable text format.
func outputRotationText(writer io.Writer, newKeyID, previousKeyID string, previousNotAfter time.Time) {
	_, _ = fmt.Fprintln(writer, "Signing key rotated successfully!")
	_, _ = fmt.Fprintf(writer, "New Key ID: %s\n", newKeyID)
	_, _ = fmt.Fprintf(writer, "Previous Key ID: %s\n", previousKeyID)
	_, _ = fmt.Fprintf(
		writer,
		"Previous key verifies tokens until: %s\n",
		previousNotAfter.Format("2006-01-02 15:04:05 MST"),
	)
}

// outputRotationJSON outputs the result in JSON format for machine consumption.
func outputRotationJSON(writer io.Writer, newKeyID, previousKeyID string, previousNotAfter time.Time) error {
	result := map[string]interface{}{
		"new_key_id":         newKeyID,
		"previous_key_id":    previousKeyID,
		"previous_not_after": previousNotAfter.Format(time.RFC3339),
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
