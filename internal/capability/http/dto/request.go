// Package dto provides data transfer objects for capability token and policy
// HTTP request and response handling.
package dto

import (
	"net/netip"
	"time"

	validation "github.com/jellydator/validation"

	capabilityDomain "github.com/allisson/captoken/internal/capability/domain"
	customValidation "github.com/allisson/captoken/internal/validation"
)

// knownPermissions lists the accepted wire values for permissions.
var knownPermissions = []interface{}{
	string(capabilityDomain.PermissionRead),
	string(capabilityDomain.PermissionWrite),
	string(capabilityDomain.PermissionDelete),
	string(capabilityDomain.PermissionList),
}

// IssueTokenRequest contains the parameters for minting a capability token.
// TTLSeconds and ExpiresOn are mutually exclusive; permissions and the
// validity window may be omitted when PolicyID is set, in which case the
// policy's own scope is inherited.
type IssueTokenRequest struct {
	ResourcePath string    `json:"resource_path"`
	MatchMode    string    `json:"match_mode"` // "exact" or "prefix"
	Permissions  []string  `json:"permissions"`
	TTLSeconds   int64     `json:"ttl_seconds"`
	StartsOn     time.Time `json:"starts_on"`
	ExpiresOn    time.Time `json:"expires_on"`
	PolicyID     string    `json:"policy_id"`
	IPRange      string    `json:"ip_range"` // single IP or CIDR
	HTTPSOnly    *bool     `json:"https_only"`
}

// Validate checks if the issue token request is valid. Cross-field rules
// (TTL versus explicit window, ad hoc versus policy-scoped) belong to the
// use case, which owns the issuance semantics.
func (r *IssueTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ResourcePath,
			validation.Required,
			customValidation.ResourcePath,
		),
		validation.Field(&r.MatchMode,
			validation.Required,
			validation.In(string(capabilityDomain.MatchExact), string(capabilityDomain.MatchPrefix)),
		),
		validation.Field(&r.Permissions,
			validation.Each(validation.In(knownPermissions...)),
		),
		validation.Field(&r.TTLSeconds,
			validation.Min(int64(1)),
		),
		validation.Field(&r.IPRange,
			customValidation.IPConstraint,
		),
	)
}

// CheckRequest contains the parameters for validating a capability token
// against an access request. CallerIP and Protocol describe the original
// resource request as seen by the resource server forwarding the check.
type CheckRequest struct {
	Token      string `json:"token"`
	Path       string `json:"path"`
	Permission string `json:"permission"`
	CallerIP   string `json:"caller_ip"`
	Protocol   string `json:"protocol"` // "https" (default) or "http"
}

// Validate checks if the check request is syntactically valid. The token
// value itself is deliberately unvalidated: a malformed token is a denial,
// not a bad request.
func (r *CheckRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Token,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Path,
			validation.Required,
			customValidation.ResourcePath,
		),
		validation.Field(&r.Permission,
			validation.Required,
			validation.In(knownPermissions...),
		),
		validation.Field(&r.CallerIP,
			validation.By(validateIPAddress),
		),
		validation.Field(&r.Protocol,
			validation.In(
				capabilityDomain.ProtocolHTTPSOnly,
				"http",
			),
		),
	)
}

// CreatePolicyRequest contains the parameters for creating a stored policy.
type CreatePolicyRequest struct {
	ResourcePrefix string    `json:"resource_prefix"`
	Permissions    []string  `json:"permissions"`
	StartsOn       time.Time `json:"starts_on"`
	ExpiresOn      time.Time `json:"expires_on"`
}

// Validate checks if the create policy request is valid.
func (r *CreatePolicyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ResourcePrefix,
			validation.Required,
			customValidation.ResourcePath,
		),
		validation.Field(&r.Permissions,
			validation.Required,
			validation.Each(validation.In(knownPermissions...)),
		),
		validation.Field(&r.ExpiresOn,
			validation.Required,
		),
	)
}

// MapPermissions converts wire permission strings to domain permissions.
// Callers validate the values first; unknown strings pass through and are
// rejected by the use case's normalization.
func MapPermissions(perms []string) []capabilityDomain.Permission {
	if len(perms) == 0 {
		return nil
	}
	mapped := make([]capabilityDomain.Permission, 0, len(perms))
	for _, p := range perms {
		mapped = append(mapped, capabilityDomain.Permission(p))
	}
	return mapped
}

// validateIPAddress validates that a string is a single IP address.
func validateIPAddress(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_ip_address_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if _, err := netip.ParseAddr(s); err != nil {
		return validation.NewError("validation_ip_address", "must be a valid IP address")
	}
	return nil
}
