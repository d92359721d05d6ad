package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	signingDomain "github.com/allisson/captoken/internal/signing/domain"
	signingUseCase "github.com/allisson/captoken/internal/signing/usecase"
)

// RunListSigningKeys lists signing key metadata ordered by creation time
// descending. Key material is never shown.
//
// Requirements: Database must be migrated and accessible.
func RunListSigningKeys(
	ctx context.Context,
	signingKeyUseCase signingUseCase.SigningKeyUseCase,
	writer io.Writer,
	format string,
) error {
	keys, err := signingKeyUseCase.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list signing keys: %w", err)
	}

	// Output result based on format
	if format == "json" {
		if err := outputKeyListJSON(writer, keys); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputKeyListText(writer, keys)
	}

	return nil
}

// keyStatus describes where a key sits in its lifecycle at the given instant.
func keyStatus(key *signingDomain.SigningKey, now time.Time) string {
	switch {
	case now.Before(key.NotBefore):
		return "pending"
	case key.RetiredAt(now):
		return "retired"
	default:
		return "active"
	}
}

// outputKeyListText outputs the key list in human-readable text format.
func outputKeyListText(writer io.Writer, keys []*signingDomain.SigningKey) {
	if len(keys) == 0 {
		_, _ = fmt.Fprintln(writer, "No signing keys found. Run 'create-signing-key' to create one.")
		return
	}

	now := time.Now()
	_, _ = fmt.Fprintf(writer, "Signing Keys (%d)\n\n", len(keys))

	for _, key := range keys {
		notAfter := "open-ended"
		if key.NotAfter != nil {
			notAfter = key.NotAfter.Format("2006-01-02 15:04:05 MST")
		}

		_, _ = fmt.Fprintf(writer, "Key ID:     %s\n", key.ID.String())
		_, _ = fmt.Fprintf(writer, "Status:     %s\n", keyStatus(key, now))
		_, _ = fmt.Fprintf(writer, "Not Before: %s\n", key.NotBefore.Format("2006-01-02 15:04:05 MST"))
		_, _ = fmt.Fprintf(writer, "Not After:  %s\n", notAfter)
		_, _ = fmt.Fprintf(writer, "Created At: %s\n\n", key.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}
}

// outputKeyListJSON outputs the key list in JSON format for machine consumption.
func outputKeyListJSON(writer io.Writer, keys []*signingDomain.SigningKey) error {
	now := time.Now()
	items := make([]map[string]interface{}, 0, len(keys))

	for _, key := range keys {
		item := map[string]interface{}{
			"key_id":     key.ID.String(),
			"status":     keyStatus(key, now),
			"not_before": key.NotBefore.Format(time.RFC3339),
			"created_at": key.CreatedAt.Format(time.RFC3339),
		}
		if key.NotAfter != nil {
			item["not_after"] = key.NotAfter.Format(time.RFC3339)
		}
		items = append(items, item)
	}

	jsonBytes, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
