package dto

import (
	"time"

	capabilityDomain "github.com/allisson/captoken/internal/capability/domain"
)

// IssueTokenResponse carries a freshly minted capability token. The token is
// returned exactly once; the service stores nothing per token.
type IssueTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresOn time.Time `json:"expires_on"`
}

// CheckResponse is the external validation verdict. Deny reasons never cross
// this boundary; they go to the audit trail instead.
type CheckResponse struct {
	Granted bool `json:"granted"`
}

// PolicyResponse represents a stored policy in API responses.
type PolicyResponse struct {
	ID             string    `json:"id"`
	ResourcePrefix string    `json:"resource_prefix"`
	Permissions    []string  `json:"permissions"`
	StartsOn       time.Time `json:"starts_on"`
	ExpiresOn      time.Time `json:"expires_on"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MapPolicyToResponse converts a domain policy to an API response.
func MapPolicyToResponse(policy *capabilityDomain.Policy) PolicyResponse {
	permissions := make([]string, 0, len(policy.Permissions))
	for _, p := range policy.Permissions {
		permissions = append(permissions, string(p))
	}

	return PolicyResponse{
		ID:             policy.ID.String(),
		ResourcePrefix: policy.ResourcePrefix,
		Permissions:    permissions,
		StartsOn:       policy.StartsOn,
		ExpiresOn:      policy.ExpiresOn,
		CreatedAt:      policy.CreatedAt,
		UpdatedAt:      policy.UpdatedAt,
	}
}

// ListPoliciesResponse represents a paginated list of policies in API responses.
type ListPoliciesResponse struct {
	Data []PolicyResponse `json:"data"`
}

// MapPoliciesToListResponse converts a slice of domain policies to a list API response.
func MapPoliciesToListResponse(policies []*capabilityDomain.Policy) ListPoliciesResponse {
	policyResponses := make([]PolicyResponse, 0, len(policies))
	for _, policy := range policies {
		policyResponses = append(policyResponses, MapPolicyToResponse(policy))
	}
	return ListPoliciesResponse{
		Data: policyResponses,
	}
}
