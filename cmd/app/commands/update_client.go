package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	authDomain "github.com/allisson/captoken/internal/auth/domain"
	authUseCase "github.com/allisson/captoken/internal/auth/usecase"
)

// RunUpdateClient updates an existing API client's configuration.
// Supports both interactive mode (when grantsJSON is empty) and non-interactive
// mode (when grantsJSON is provided). Only Name, IsActive, and Grants can be
// updated. The client ID and secret remain unchanged.
//
// Requirements: Database must be migrated and the client must exist.
func RunUpdateClient(
	ctx context.Context,
	clientUseCase authUseCase.ClientUseCase,
	logger *slog.Logger,
	io IOTuple,
	clientIDStr string,
	name string,
	isActive bool,
	grantsJSON string,
	format string,
) error {
	logger.Info("updating client", slog.String("client_id", clientIDStr))

	// Parse client ID
	clientID, err := uuid.Parse(clientIDStr)
	if err != nil {
		return fmt.Errorf("invalid client ID format: %w", err)
	}

	// Get existing client to display current values if in interactive mode
	existingClient, err := clientUseCase.Get(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to get existing client: %w", err)
	}

	// Parse or prompt for grants
	var grants []authDomain.Grant

	if grantsJSON == "" {
		// Interactive mode - show current grants and prompt for new ones
		grants, err = promptForGrantsUpdate(io, existingClient.Grants)
		if err != nil {
			return fmt.Errorf("failed to get grants: %w", err)
		}
	} else {
		// Non-interactive mode: parse JSON
		if err := json.Unmarshal([]byte(grantsJSON), &grants); err != nil {
			return fmt.Errorf("failed to parse grants JSON: %w", err)
		}
	}

	// Validate that at least one grant was provided
	if len(grants) == 0 {
		return fmt.Errorf("at least one grant is required")
	}

	// Create update input
	input := &authDomain.UpdateClientInput{
		Name:     name,
		IsActive: isActive,
		Grants:   grants,
	}

	// Update the client
	if err := clientUseCase.Update(ctx, clientID, input); err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputUpdateJSON(io.Writer, clientID, name, isActive)
	} else {
		outputUpdateText(io.Writer, clientID, name, isActive)
	}

	logger.Info("client updated successfully",
		slog.String("client_id", clientID.String()),
		slog.String("name", name),
		slog.Bool("is_active", isActive),
	)

	return nil
}

// promptForGrantsUpdate interactively prompts the user to enter authorization grants.
// Shows current grants and available operations. Accepts multiple grants until user declines.
func promptForGrantsUpdate(
	io IOTuple,
	currentGrants []authDomain.Grant,
) ([]authDomain.Grant, error) {
	reader := bufio.NewReader(io.Reader)
	var grants []authDomain.Grant

	_, _ = fmt.Fprintln(io.Writer, "\nCurrent grants:")
	for i, grant := range currentGrants {
		opsStr := make([]string, len(grant.Operations))
		for j, op := range grant.Operations {
			opsStr[j] = string(op)
		}
		_, _ = fmt.Fprintf(
			io.Writer,
			"  %d. Path: %s, Operations: [%s]\n",
			i+1,
			grant.Path,
			strings.Join(opsStr, ", "),
		)
	}

	_, _ = fmt.Fprintln(io.Writer, "\nEnter new grants for the client")
	_, _ = fmt.Fprintf(io.Writer, "Available operations: %s\n", knownOperationList())
	_, _ = fmt.Fprintln(io.Writer)

	grantNum := 1
	for {
		_, _ = fmt.Fprintf(io.Writer, "Grant #%d\n", grantNum)

		// Get path
		_, _ = fmt.Fprint(io.Writer, "Enter path pattern (e.g., 'orders/*' or '*'): ")
		path, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("failed to read path: %w", err)
		}
		path = strings.TrimSpace(path)

		if path == "" {
			return nil, fmt.Errorf("path cannot be empty")
		}

		// Get operations
		_, _ = fmt.Fprint(io.Writer, "Enter operations (comma-separated, e.g., 'token:issue,token:check'): ")
		opsInput, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("failed to read operations: %w", err)
		}
		opsInput = strings.TrimSpace(opsInput)

		if opsInput == "" {
			return nil, fmt.Errorf("operations cannot be empty")
		}

		operations, err := parseOperations(opsInput)
		if err != nil {
			return nil, err
		}

		// Add grant
		grants = append(grants, authDomain.Grant{
			Path:       path,
			Operations: operations,
		})

		// Ask if user wants to add another
		_, _ = fmt.Fprint(io.Writer, "Add another grant? (y/n): ")
		addAnother, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		addAnother = strings.ToLower(strings.TrimSpace(addAnother))

		if addAnother != "y" && addAnother != "yes" {
			break
		}

		_, _ = fmt.Fprintln(io.Writer)
		grantNum++
	}

	return grants, nil
}

// outputUpdateText outputs the result in human-readable text format.
func outputUpdateText(writer io.Writer, clientID uuid.UUID, name string, isActive bool) {
	_, _ = fmt.Fprintln(writer, "\nClient updated successfully!")
	_, _ = fmt.Fprintf(writer, "Client ID: %s\n", clientID.String())
	_, _ = fmt.Fprintf(writer, "Name: %s\n", name)
	_, _ = fmt.Fprintf(writer, "Active: %t\n", isActive)
}

// outputUpdateJSON outputs the result in JSON format for machine consumption.
func outputUpdateJSON(writer io.Writer, clientID uuid.UUID, name string, isActive bool) {
	result := map[string]interface{}{
		"client_id": clientID.String(),
		"name":      name,
		"is_active": isActive,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
