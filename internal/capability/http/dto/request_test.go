package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	capabilityDomain "github.com/allisson/captoken/internal/capability/domain"
)

func TestIssueTokenRequest_Validate(t *testing.T) {
	t.Run("Success_AdHocToken", func(t *testing.T) {
		req := IssueTokenRequest{
			ResourcePath: "/containers/logs/app.log",
			MatchMode:    "exact",
			Permissions:  []string{"read"},
			TTLSeconds:   3600,
		}

		assert.NoError(t, req.Validate())
	})

	t.Run("Success_PolicyScopedWithoutPermissions", func(t *testing.T) {
		req := IssueTokenRequest{
			ResourcePath: "/containers/uploads",
			MatchMode:    "prefix",
			PolicyID:     "0194e1a0-0000-7000-8000-000000000001",
		}

		assert.NoError(t, req.Validate())
	})

	t.Run("Success_WithIPRangeAndExplicitWindow", func(t *testing.T) {
		req := IssueTokenRequest{
			ResourcePath: "/containers/uploads",
			MatchMode:    "prefix",
			Permissions:  []string{"read", "list"},
			StartsOn:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			ExpiresOn:    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			IPRange:      "10.0.0.0/8",
		}

		assert.NoError(t, req.Validate())
	})

	t.Run("Error_MissingResourcePath", func(t *testing.T) {
		req := IssueTokenRequest{
			MatchMode:   "exact",
			Permissions: []string{"read"},
			TTLSeconds:  3600,
		}

		err := req.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "resource_path")
	})

	t.Run("Error_RelativeResourcePath", func(t *testing.T) {
		req := IssueTokenRequest{
			ResourcePath: "containers/logs",
			MatchMode:    "exact",
			Permissions:  []string{"read"},
			TTLSeconds:   3600,
		}

		assert.Error(t, req.Validate())
	})

	t.Run("Error_UnknownMatchMode", func(t *testing.T) {
		req := IssueTokenRequest{
			ResourcePath: "/containers/logs",
			MatchMode:    "glob",
			Permissions:  []string{"read"},
			TTLSeconds:   3600,
		}

		err := req.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "match_mode")
	})

	t.Run("Error_UnknownPermission", func(t *testing.T) {
		req := IssueTokenRequest{
			ResourcePath: "/containers/logs",
			MatchMode:    "exact",
			Permissions:  []string{"read", "admin"},
			TTLSeconds:   3600,
		}

		assert.Error(t, req.Validate())
	})

	t.Run("Error_NegativeTTL", func(t *testing.T) {
		req := IssueTokenRequest{
			ResourcePath: "/containers/logs",
			MatchMode:    "exact",
			Permissions:  []string{"read"},
			TTLSeconds:   -60,
		}

		assert.Error(t, req.Validate())
	})

	t.Run("Error_InvalidIPRange", func(t *testing.T) {
		req := IssueTokenRequest{
			ResourcePath: "/containers/logs",
			MatchMode:    "exact",
			Permissions:  []string{"read"},
			TTLSeconds:   3600,
			IPRange:      "not-an-ip",
		}

		assert.Error(t, req.Validate())
	})
}

func TestCheckRequest_Validate(t *testing.T) {
	t.Run("Success_MinimalRequest", func(t *testing.T) {
		req := CheckRequest{
			Token:      "sv=1&sr=%2Fcontainers%2Flogs&sm=e&sp=r",
			Path:       "/containers/logs",
			Permission: "read",
		}

		assert.NoError(t, req.Validate())
	})

	t.Run("Success_WithCallerIPAndProtocol", func(t *testing.T) {
		req := CheckRequest{
			Token:      "sv=1&sr=%2Fcontainers%2Flogs&sm=e&sp=r",
			Path:       "/containers/logs",
			Permission: "read",
			CallerIP:   "10.1.2.3",
			Protocol:   "http",
		}

		assert.NoError(t, req.Validate())
	})

	t.Run("Error_MissingToken", func(t *testing.T) {
		req := CheckRequest{
			Path:       "/containers/logs",
			Permission: "read",
		}

		err := req.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "token")
	})

	t.Run("Error_BlankToken", func(t *testing.T) {
		req := CheckRequest{
			Token:      "   ",
			Path:       "/containers/logs",
			Permission: "read",
		}

		assert.Error(t, req.Validate())
	})

	t.Run("Error_MissingPath", func(t *testing.T) {
		req := CheckRequest{
			Token:      "sv=1&sr=%2Fcontainers%2Flogs&sm=e&sp=r",
			Permission: "read",
		}

		assert.Error(t, req.Validate())
	})

	t.Run("Error_UnknownPermission", func(t *testing.T) {
		req := CheckRequest{
			Token:      "sv=1&sr=%2Fcontainers%2Flogs&sm=e&sp=r",
			Path:       "/containers/logs",
			Permission: "admin",
		}

		assert.Error(t, req.Validate())
	})

	t.Run("Error_InvalidCallerIP", func(t *testing.T) {
		req := CheckRequest{
			Token:      "sv=1&sr=%2Fcontainers%2Flogs&sm=e&sp=r",
			Path:       "/containers/logs",
			Permission: "read",
			CallerIP:   "10.0.0.0/8",
		}

		assert.Error(t, req.Validate())
	})

	t.Run("Error_UnknownProtocol", func(t *testing.T) {
		req := CheckRequest{
			Token:      "sv=1&sr=%2Fcontainers%2Flogs&sm=e&sp=r",
			Path:       "/containers/logs",
			Permission: "read",
			Protocol:   "ftp",
		}

		assert.Error(t, req.Validate())
	})
}

func TestCreatePolicyRequest_Validate(t *testing.T) {
	t.Run("Success_ValidRequest", func(t *testing.T) {
		req := CreatePolicyRequest{
			ResourcePrefix: "/containers/uploads",
			Permissions:    []string{"read", "write"},
			ExpiresOn:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		}

		assert.NoError(t, req.Validate())
	})

	t.Run("Error_MissingResourcePrefix", func(t *testing.T) {
		req := CreatePolicyRequest{
			Permissions: []string{"read"},
			ExpiresOn:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		}

		assert.Error(t, req.Validate())
	})

	t.Run("Error_TrailingSlashPrefix", func(t *testing.T) {
		req := CreatePolicyRequest{
			ResourcePrefix: "/containers/uploads/",
			Permissions:    []string{"read"},
			ExpiresOn:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		}

		assert.Error(t, req.Validate())
	})

	t.Run("Error_NoPermissions", func(t *testing.T) {
		req := CreatePolicyRequest{
			ResourcePrefix: "/containers/uploads",
			ExpiresOn:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		}

		err := req.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "permissions")
	})

	t.Run("Error_UnknownPermission", func(t *testing.T) {
		req := CreatePolicyRequest{
			ResourcePrefix: "/containers/uploads",
			Permissions:    []string{"write", "mint"},
			ExpiresOn:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		}

		assert.Error(t, req.Validate())
	})

	t.Run("Error_MissingExpiresOn", func(t *testing.T) {
		req := CreatePolicyRequest{
			ResourcePrefix: "/containers/uploads",
			Permissions:    []string{"read"},
		}

		err := req.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "expires_on")
	})
}

func TestMapPermissions(t *testing.T) {
	t.Run("Success_MapsKnownValues", func(t *testing.T) {
		mapped := MapPermissions([]string{"read", "delete"})

		assert.Equal(t, []capabilityDomain.Permission{
			capabilityDomain.PermissionRead,
			capabilityDomain.PermissionDelete,
		}, mapped)
	})

	t.Run("Success_NilForEmptyInput", func(t *testing.T) {
		assert.Nil(t, MapPermissions(nil))
		assert.Nil(t, MapPermissions([]string{}))
	})
}
