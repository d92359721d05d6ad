package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	signingUseCase "github.com/allisson/captoken/internal/signing/usecase"
)

// RunCreateSigningKey creates the initial token signing key with an open-ended
// activation window. Fails if an active key already exists; later keys must be
// introduced through rotation so verification overlap is preserved.
//
// Requirements: Database must be migrated and KEEPER_URI must be configured.
func RunCreateSigningKey(
	ctx context.Context,
	signingKeyUseCase signingUseCase.SigningKeyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	logger.Info("creating signing key")

	key, err := signingKeyUseCase.Create(ctx)
	if err != nil {
		return fmt.Errorf("failed to create signing key: %w", err)
	}

	// Output result based on format
	if format == "json" {
		if err := outputSigningKeyJSON(writer, key.ID.String()); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputSigningKeyText(writer, key.ID.String())
	}

	logger.Info("signing key created", slog.String("key_id", key.ID.String()))

	return nil
}

// outputSigningKeyText outputs the result in human-readable text format.
func outputSigningKeyText(writer io.Writer, keyID string) {
	_, _ = fmt.Fprintln(writer, "Signing key created successfully!")
	_, _ = fmt.Fprintf(writer, "Key ID: %s\n", keyID)
}

// outputSigningKeyJSON outputs the result in JSON format for machine consumption.
func outputSigningKeyJSON(writer io.Writer, keyID string) error {
	result := map[string]string{
		"key_id": keyID,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
