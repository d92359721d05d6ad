// Package domain defines authentication and authorization domain models and business logic.
//
// It provides client-based authentication with grant-based authorization. Clients authenticate
// using secrets and are authorized via grants that pair resource path patterns with the
// control-plane operations allowed on them.
package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Grant pairs a resource path pattern with the operations allowed on it.
// Grants use prefix matching with wildcard support for flexible authorization.
type Grant struct {
	Path       string      `json:"path"`       // Resource path pattern (supports "*" and "/*" wildcards)
	Operations []Operation `json:"operations"` // Operations allowed on paths matching the pattern
}

// Client represents an authentication client with associated authorization grants.
// Clients are used to authenticate API requests and enforce access control.
type Client struct {
	ID        uuid.UUID // Unique identifier (UUIDv7)
	Secret    string    //nolint:gosec // hashed client secret (not plaintext)
	Name      string    // Human-readable client name
	IsActive  bool      // Whether the client can authenticate
	Grants    []Grant   // Authorization grants for this client
	CreatedAt time.Time
}

// matchPath checks if the request path matches the grant path pattern.
// Supports three types of wildcards:
//  1. Full wildcard: "*" matches any path
//  2. Trailing wildcard: "prefix/*" matches any path starting with "prefix/" (greedy)
//  3. Mid-path wildcard: "/containers/*/logs" matches paths with * as single segment
//
// Examples:
//   - "*" matches any path
//   - "/containers/logs/*" matches "/containers/logs/app.log" and "/containers/logs/sub/x"
//   - "/containers/*/logs" matches "/containers/web/logs" but NOT "/containers/logs"
func matchPath(grantPath, requestPath string) bool {
	// Special case: full wildcard matches everything
	if grantPath == "*" {
		return true
	}

	// No wildcard: exact match required
	if !strings.Contains(grantPath, "*") {
		return grantPath == requestPath
	}

	// Trailing wildcard (/*): prefix match (greedy - matches remaining path)
	if strings.HasSuffix(grantPath, "/*") {
		prefix := strings.TrimSuffix(grantPath, "/*")
		return strings.HasPrefix(requestPath, prefix+"/")
	}

	// Mid-path wildcards: segment-by-segment matching
	// Each * matches exactly one segment
	grantParts := strings.Split(grantPath, "/")
	requestParts := strings.Split(requestPath, "/")

	// Must have same number of segments for mid-path wildcards
	if len(grantParts) != len(requestParts) {
		return false
	}

	// Compare each segment
	for i := 0; i < len(grantParts); i++ {
		if grantParts[i] == "*" {
			// Wildcard matches any single segment
			continue
		}
		if grantParts[i] != requestParts[i] {
			return false
		}
	}

	return true
}

// IsAllowed checks if the client's grants permit the given operation on the specified path.
// Uses case-sensitive path matching with wildcard support. Returns true if any grant
// matches the path and includes the operation.
//
// Wildcard patterns:
//   - "*" matches everything (admin mode)
//   - "/containers/logs/*" matches any path under "/containers/logs/" (trailing wildcard - greedy)
//   - "/containers/*/logs" matches "/containers/web/logs" (single-segment wildcard)
//
// Path matching rules:
//   - Exact match: "/a/b" matches only "/a/b"
//   - Trailing wildcard: "/a/*" matches "/a/b", "/a/b/c", etc., but not "/a" itself
//   - Mid-path wildcard: each "*" segment matches exactly one request segment
//   - Case-sensitive: "/Logs" does NOT match "/logs"
func (c *Client) IsAllowed(path string, operation Operation) bool {
	// Edge case: empty path or operation
	if path == "" || operation == "" {
		return false
	}

	for _, grant := range c.Grants {
		if matchPath(grant.Path, path) {
			if slices.Contains(grant.Operations, operation) {
				return true
			}
		}
	}

	return false
}

// HasOperation reports whether any grant includes the operation, regardless of path.
// Route-level authorization uses this possession check; path-dependent checks happen
// where the request's resource path is known.
func (c *Client) HasOperation(operation Operation) bool {
	if operation == "" {
		return false
	}

	for _, grant := range c.Grants {
		if slices.Contains(grant.Operations, operation) {
			return true
		}
	}

	return false
}

// CreateClientInput contains the parameters for creating a new authentication client.
// The client secret will be automatically generated and cannot be specified by the caller.
type CreateClientInput struct {
	Name     string  // Human-readable name for identifying the client
	IsActive bool    // Whether the client can authenticate immediately after creation
	Grants   []Grant // Authorization grants defining resource access permissions
}

// CreateClientOutput contains the result of creating a new client.
// SECURITY: The PlainSecret is only returned once and must be securely transmitted
// to the client. It will never be retrievable again after this response.
type CreateClientOutput struct {
	ID          uuid.UUID // Unique identifier for the created client (UUIDv7)
	PlainSecret string    // Plain text secret for authentication (transmit securely, never log)
}

// UpdateClientInput contains the mutable fields for updating an existing client.
// The client ID and secret cannot be modified through updates.
type UpdateClientInput struct {
	Name     string  // Updated human-readable name
	IsActive bool    // Updated active status (false prevents authentication)
	Grants   []Grant // Updated authorization grants
}
