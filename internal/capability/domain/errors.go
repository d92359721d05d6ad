package domain

import (
	"github.com/allisson/captoken/internal/errors"
)

// Capability token and policy errors.
var (
	// ErrPolicyNotFound indicates a policy with the specified ID was not found.
	ErrPolicyNotFound = errors.Wrap(errors.ErrNotFound, "policy not found")

	// ErrPolicyLimitExceeded indicates the active-policy bound for a resource
	// prefix is already reached.
	ErrPolicyLimitExceeded = errors.Wrap(errors.ErrConflict, "active policy limit reached for resource prefix")

	// ErrScopeExceedsPolicy indicates an issuance request asked for permissions,
	// a validity window, or a path outside the referenced policy's scope.
	ErrScopeExceedsPolicy = errors.Wrap(errors.ErrInvalidInput, "requested scope exceeds policy")

	// ErrMalformedToken indicates a capability token could not be decoded.
	ErrMalformedToken = errors.Wrap(errors.ErrInvalidInput, "malformed capability token")

	// ErrBadSignature indicates a token's HMAC did not verify. Never surfaced
	// over HTTP; the validator converts it into a denial.
	ErrBadSignature = errors.New("bad token signature")

	// ErrUnknownPermission indicates a permission outside read/write/delete/list.
	ErrUnknownPermission = errors.Wrap(errors.ErrInvalidInput, "unknown permission")

	// ErrInvalidPermissionCode indicates a permission letter string that is not
	// a canonical encoding.
	ErrInvalidPermissionCode = errors.Wrap(errors.ErrInvalidInput, "invalid permission code")

	// ErrUnknownMatchMode indicates a match mode outside exact/prefix.
	ErrUnknownMatchMode = errors.Wrap(errors.ErrInvalidInput, "unknown match mode")
)
