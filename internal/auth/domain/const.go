// Package domain defines authentication and authorization domain models.
// Implements grant-based access control with clients, access tokens, and control-plane operations.
package domain

// Operation identifies a control-plane action a client may be granted.
// Operations are combined with path grants to control what a client can do
// and which resource paths it can do it on.
type Operation string

const (
	// OperationTokenIssue allows minting capability tokens for covered paths.
	OperationTokenIssue Operation = "token:issue"

	// OperationTokenCheck allows validating capability tokens against an access request.
	OperationTokenCheck Operation = "token:check"

	// OperationPolicyRead allows reading stored policies.
	OperationPolicyRead Operation = "policy:read"

	// OperationPolicyWrite allows creating and revoking stored policies.
	OperationPolicyWrite Operation = "policy:write"

	// OperationKeyRead allows listing signing key metadata.
	OperationKeyRead Operation = "key:read"

	// OperationKeyRotate allows rotating the active signing key.
	OperationKeyRotate Operation = "key:rotate"

	// OperationAuditRead allows reading audit events.
	OperationAuditRead Operation = "audit:read"
)

// KnownOperations lists every operation the service understands, in a stable order.
func KnownOperations() []Operation {
	return []Operation{
		OperationTokenIssue,
		OperationTokenCheck,
		OperationPolicyRead,
		OperationPolicyWrite,
		OperationKeyRead,
		OperationKeyRotate,
		OperationAuditRead,
	}
}

// IsValid reports whether the operation is one the service understands.
func (o Operation) IsValid() bool {
	switch o {
	case OperationTokenIssue, OperationTokenCheck,
		OperationPolicyRead, OperationPolicyWrite,
		OperationKeyRead, OperationKeyRotate,
		OperationAuditRead:
		return true
	}
	return false
}
