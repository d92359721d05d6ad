package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// createTestClient creates a Client instance with the given grants for testing.
func createTestClient(grants []Grant) *Client {
	return &Client{
		ID:        uuid.Must(uuid.NewV7()),
		Secret:    "test-secret",
		Name:      "test-client",
		IsActive:  true,
		Grants:    grants,
		CreatedAt: time.Now(),
	}
}

func TestClient_IsAllowed_WildcardPatterns(t *testing.T) {
	tests := []struct {
		name      string
		client    *Client
		path      string
		operation Operation
		expected  bool
	}{
		{
			name: "Success_WildcardMatchesAnyPath",
			client: createTestClient([]Grant{
				{
					Path:       "*",
					Operations: []Operation{OperationTokenIssue, OperationTokenCheck},
				},
			}),
			path:      "/any/path/here",
			operation: OperationTokenIssue,
			expected:  true,
		},
		{
			name: "Failure_WildcardWithWrongOperation",
			client: createTestClient([]Grant{
				{
					Path:       "*",
					Operations: []Operation{OperationTokenCheck},
				},
			}),
			path:      "/any/path/here",
			operation: OperationTokenIssue,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.client.IsAllowed(tt.path, tt.operation)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestClient_IsAllowed_PrefixPatterns(t *testing.T) {
	tests := []struct {
		name      string
		client    *Client
		path      string
		operation Operation
		expected  bool
	}{
		{
			name: "Success_PrefixMatchesNestedPath",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/*",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/containers/logs/app.log",
			operation: OperationTokenIssue,
			expected:  true,
		},
		{
			name: "Success_PrefixMatchesMultipleSubPaths",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/*",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/containers/metrics/cpu/usage",
			operation: OperationTokenIssue,
			expected:  true,
		},
		{
			name: "Success_NestedPrefixMatch",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/logs/*",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/containers/logs/app.log",
			operation: OperationTokenIssue,
			expected:  true,
		},
		{
			name: "Success_PrefixMatchesMultipleLevels",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/logs/*",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/containers/logs/archive/2026/app.log",
			operation: OperationTokenIssue,
			expected:  true,
		},
		{
			name: "Failure_PrefixDoesNotMatchExactPath",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/logs/*",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/containers/logs",
			operation: OperationTokenIssue,
			expected:  false,
		},
		{
			name: "Failure_PrefixWithWrongOperation",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/*",
					Operations: []Operation{OperationTokenCheck},
				},
			}),
			path:      "/containers/logs/app.log",
			operation: OperationTokenIssue,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.client.IsAllowed(tt.path, tt.operation)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestClient_IsAllowed_MidPathWildcards(t *testing.T) {
	tests := []struct {
		name      string
		client    *Client
		path      string
		operation Operation
		expected  bool
	}{
		{
			name: "Success_SingleSegmentWildcard",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/*/logs",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/containers/web/logs",
			operation: OperationTokenIssue,
			expected:  true,
		},
		{
			name: "Failure_WildcardSegmentCountMismatch",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/*/logs",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/containers/logs",
			operation: OperationTokenIssue,
			expected:  false,
		},
		{
			name: "Failure_WildcardSegmentDoesNotSpanSegments",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/*/logs",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/containers/web/backend/logs",
			operation: OperationTokenIssue,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.client.IsAllowed(tt.path, tt.operation)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestClient_IsAllowed_ExactMatches(t *testing.T) {
	tests := []struct {
		name      string
		client    *Client
		path      string
		operation Operation
		expected  bool
	}{
		{
			name: "Success_ExactMatchSimplePath",
			client: createTestClient([]Grant{
				{
					Path:       "/containers",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/containers",
			operation: OperationTokenIssue,
			expected:  true,
		},
		{
			name: "Success_ExactMatchNestedPath",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/logs/app.log",
					Operations: []Operation{OperationTokenCheck},
				},
			}),
			path:      "/containers/logs/app.log",
			operation: OperationTokenCheck,
			expected:  true,
		},
		{
			name: "Failure_ExactMatchDoesNotMatchPrefix",
			client: createTestClient([]Grant{
				{
					Path:       "/containers",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/containers/logs",
			operation: OperationTokenIssue,
			expected:  false,
		},
		{
			name: "Failure_ExactMatchWithWrongOperation",
			client: createTestClient([]Grant{
				{
					Path:       "/containers",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/containers",
			operation: OperationPolicyWrite,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.client.IsAllowed(tt.path, tt.operation)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestClient_IsAllowed_EdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		client    *Client
		path      string
		operation Operation
		expected  bool
	}{
		{
			name: "Failure_EmptyPath",
			client: createTestClient([]Grant{
				{
					Path:       "*",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "",
			operation: OperationTokenIssue,
			expected:  false,
		},
		{
			name: "Failure_EmptyOperation",
			client: createTestClient([]Grant{
				{
					Path:       "*",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/containers",
			operation: "",
			expected:  false,
		},
		{
			name: "Failure_NoMatchingGrant",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/*",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/volumes/data",
			operation: OperationTokenIssue,
			expected:  false,
		},
		{
			name: "Failure_PathMatchesButOperationMissing",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/*",
					Operations: []Operation{},
				},
			}),
			path:      "/containers/logs",
			operation: OperationTokenIssue,
			expected:  false,
		},
		{
			name:      "Failure_EmptyGrantsList",
			client:    createTestClient([]Grant{}),
			path:      "/containers",
			operation: OperationTokenIssue,
			expected:  false,
		},
		{
			name:      "Failure_NilGrantsList",
			client:    createTestClient(nil),
			path:      "/containers",
			operation: OperationTokenIssue,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.client.IsAllowed(tt.path, tt.operation)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestClient_IsAllowed_MultipleGrants(t *testing.T) {
	tests := []struct {
		name      string
		client    *Client
		path      string
		operation Operation
		expected  bool
	}{
		{
			name: "Success_FirstMatchingGrantWins",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/*",
					Operations: []Operation{OperationTokenIssue},
				},
				{
					Path:       "/volumes/*",
					Operations: []Operation{OperationTokenCheck},
				},
			}),
			path:      "/containers/logs",
			operation: OperationTokenIssue,
			expected:  true,
		},
		{
			name: "Success_SecondGrantMatches",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/*",
					Operations: []Operation{OperationTokenIssue},
				},
				{
					Path:       "/volumes/*",
					Operations: []Operation{OperationTokenCheck},
				},
			}),
			path:      "/volumes/data",
			operation: OperationTokenCheck,
			expected:  true,
		},
		{
			name: "Success_MultipleOperationsInSingleGrant",
			client: createTestClient([]Grant{
				{
					Path: "/containers/*",
					Operations: []Operation{
						OperationTokenIssue,
						OperationTokenCheck,
						OperationPolicyRead,
					},
				},
			}),
			path:      "/containers/logs",
			operation: OperationPolicyRead,
			expected:  true,
		},
		{
			name: "Failure_MultipleGrantsNoneMatch",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/*",
					Operations: []Operation{OperationTokenIssue},
				},
				{
					Path:       "/volumes/*",
					Operations: []Operation{OperationTokenCheck},
				},
			}),
			path:      "/images/base",
			operation: OperationTokenIssue,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.client.IsAllowed(tt.path, tt.operation)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestClient_IsAllowed_CaseSensitivity(t *testing.T) {
	tests := []struct {
		name      string
		client    *Client
		path      string
		operation Operation
		expected  bool
	}{
		{
			name: "Failure_PathCaseMismatch",
			client: createTestClient([]Grant{
				{
					Path:       "/containers",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/Containers",
			operation: OperationTokenIssue,
			expected:  false,
		},
		{
			name: "Failure_NestedPathCaseMismatch",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/logs/*",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/containers/Logs/app.log",
			operation: OperationTokenIssue,
			expected:  false,
		},
		{
			name: "Success_ExactCaseMatch",
			client: createTestClient([]Grant{
				{
					Path:       "/Containers/Logs",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/Containers/Logs",
			operation: OperationTokenIssue,
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.client.IsAllowed(tt.path, tt.operation)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestClient_IsAllowed_RealWorldScenarios(t *testing.T) {
	tests := []struct {
		name      string
		client    *Client
		path      string
		operation Operation
		expected  bool
	}{
		{
			name: "Success_IssueOnlyAgent",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/logs/*",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			path:      "/containers/logs/app.log",
			operation: OperationTokenIssue,
			expected:  true,
		},
		{
			name: "Success_AdminAccess",
			client: createTestClient([]Grant{
				{
					Path:       "*",
					Operations: KnownOperations(),
				},
			}),
			path:      "/anything/at/all",
			operation: OperationKeyRotate,
			expected:  true,
		},
		{
			name: "Success_MultiplePathsWithDifferentOperations",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/logs/*",
					Operations: []Operation{OperationTokenIssue, OperationTokenCheck},
				},
				{
					Path:       "/containers/config/*",
					Operations: []Operation{OperationTokenCheck},
				},
			}),
			path:      "/containers/config/app.yaml",
			operation: OperationTokenCheck,
			expected:  true,
		},
		{
			name: "Failure_IssueAttemptOnCheckOnlyPath",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/config/*",
					Operations: []Operation{OperationTokenCheck},
				},
			}),
			path:      "/containers/config/app.yaml",
			operation: OperationTokenIssue,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.client.IsAllowed(tt.path, tt.operation)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestClient_HasOperation(t *testing.T) {
	tests := []struct {
		name      string
		client    *Client
		operation Operation
		expected  bool
	}{
		{
			name: "Success_OperationInFirstGrant",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/*",
					Operations: []Operation{OperationTokenIssue},
				},
			}),
			operation: OperationTokenIssue,
			expected:  true,
		},
		{
			name: "Success_OperationInLaterGrant",
			client: createTestClient([]Grant{
				{
					Path:       "/containers/*",
					Operations: []Operation{OperationTokenIssue},
				},
				{
					Path:       "/volumes/*",
					Operations: []Operation{OperationAuditRead},
				},
			}),
			operation: OperationAuditRead,
			expected:  true,
		},
		{
			name: "Failure_OperationNotGranted",
			client: createTestClient([]Grant{
				{
					Path:       "*",
					Operations: []Operation{OperationTokenIssue, OperationTokenCheck},
				},
			}),
			operation: OperationKeyRotate,
			expected:  false,
		},
		{
			name:      "Failure_EmptyOperation",
			client:    createTestClient([]Grant{{Path: "*", Operations: KnownOperations()}}),
			operation: "",
			expected:  false,
		},
		{
			name:      "Failure_NilGrants",
			client:    createTestClient(nil),
			operation: OperationTokenIssue,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.client.HasOperation(tt.operation)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestOperation_IsValid(t *testing.T) {
	t.Run("Success_AllKnownOperations", func(t *testing.T) {
		for _, op := range KnownOperations() {
			assert.True(t, op.IsValid(), "operation %q should be valid", op)
		}
	})

	t.Run("Failure_UnknownOperation", func(t *testing.T) {
		assert.False(t, Operation("token:mint").IsValid())
		assert.False(t, Operation("").IsValid())
		assert.False(t, Operation("TOKEN:ISSUE").IsValid())
	})
}
