package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	authDomain "github.com/allisson/captoken/internal/auth/domain"
	authUseCase "github.com/allisson/captoken/internal/auth/usecase"
)

// RunCreateClient creates a new API client with authorization grants.
// Supports both interactive mode (when grantsJSON is empty) and non-interactive
// mode (when grantsJSON is provided). Outputs client ID and plain secret in
// either text or JSON format.
//
// Requirements: Database must be migrated and accessible.
func RunCreateClient(
	ctx context.Context,
	clientUseCase authUseCase.ClientUseCase,
	logger *slog.Logger,
	name string,
	isActive bool,
	grantsJSON string,
	format string,
	io IOTuple,
) error {
	logger.Info("creating new client", slog.String("name", name))

	// Parse or prompt for grants
	var grants []authDomain.Grant
	var err error

	if grantsJSON == "" {
		// Interactive mode
		grants, err = promptForGrants(io)
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

	// Create input
	input := &authDomain.CreateClientInput{
		Name:     name,
		IsActive: isActive,
		Grants:   grants,
	}

	// Create the client
	output, err := clientUseCase.Create(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputClientJSON(output, io.Writer)
	} else {
		outputClientText(output, io.Writer)
	}

	logger.Info("client created successfully",
		slog.String("client_id", output.ID.String()),
		slog.String("name", name),
		slog.Bool("is_active", isActive),
	)

	return nil
}

// promptForGrants interactively prompts the user to enter authorization grants.
// Shows available operations and accepts multiple grants until user declines.
func promptForGrants(io IOTuple) ([]authDomain.Grant, error) {
	reader := bufio.NewReader(io.Reader)
	writer := io.Writer
	var grants []authDomain.Grant

	_, _ = fmt.Fprintln(writer, "\nEnter grants for the client")
	_, _ = fmt.Fprintf(writer, "Available operations: %s\n", knownOperationList())
	_, _ = fmt.Fprintln(writer)

	grantNum := 1
	for {
		_, _ = fmt.Fprintf(writer, "Grant #%d\n", grantNum)

		// Get path
		_, _ = fmt.Fprint(writer, "Enter path pattern (e.g., 'orders/*' or '*'): ")
		path, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("failed to read path: %w", err)
		}
		path = strings.TrimSpace(path)

		if path == "" {
			return nil, fmt.Errorf("path cannot be empty")
		}

		// Get operations
		_, _ = fmt.Fprint(writer, "Enter operations (comma-separated, e.g., 'token:issue,token:check'): ")
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
		_, _ = fmt.Fprint(writer, "Add another grant? (y/n): ")
		addAnother, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		addAnother = strings.ToLower(strings.TrimSpace(addAnother))

		if addAnother != "y" && addAnother != "yes" {
			break
		}

		_, _ = fmt.Fprintln(writer)
		grantNum++
	}

	return grants, nil
}

// parseOperations converts a comma-separated string into a slice of Operation.
func parseOperations(input string) ([]authDomain.Operation, error) {
	parts := strings.Split(input, ",")
	operations := make([]authDomain.Operation, 0, len(parts))

	for _, part := range parts {
		op := authDomain.Operation(strings.TrimSpace(part))
		if op == "" {
			continue
		}
		if !op.IsValid() {
			return nil, fmt.Errorf("unknown operation: %s (valid options: %s)", op, knownOperationList())
		}
		operations = append(operations, op)
	}

	if len(operations) == 0 {
		return nil, fmt.Errorf("at least one operation is required")
	}

	return operations, nil
}

// knownOperationList renders the known operations as a comma-separated string.
func knownOperationList() string {
	known := authDomain.KnownOperations()
	names := make([]string, len(known))
	for i, op := range known {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}

// outputClientText outputs the result in human-readable text format.
func outputClientText(output *authDomain.CreateClientOutput, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "\nClient created successfully!")
	_, _ = fmt.Fprintf(writer, "Client ID: %s\n", output.ID.String())
	_, _ = fmt.Fprintf(writer, "Secret: %s\n", output.PlainSecret)
	_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The secret is shown only once. Store it securely.")
}

// outputClientJSON outputs the result in JSON format for machine consumption.
func outputClientJSON(output *authDomain.CreateClientOutput, writer io.Writer) {
	result := map[string]string{
		"client_id": output.ID.String(),
		"secret":    output.PlainSecret,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
