// Package domain defines the capability token model: signed, self-contained
// bearer credentials granting scoped, time-bounded access to resource paths.
//
// A token carries its entire grant inside the credential; the service stores
// nothing per token. Stored policies add one level of indirection: a token
// referencing a policy borrows the policy's permissions and validity window
// at validation time, which is what makes server-side revocation of already
// issued tokens possible.
package domain

import (
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenVersion is the wire format version this service issues and accepts.
const TokenVersion = 1

// Wire representations of the protocol constraint.
const (
	ProtocolHTTPSOnly = "https"
	ProtocolAny       = "https,http"
)

// Permission defines the operations a capability token can grant on a resource path.
type Permission string

const (
	// PermissionRead allows reading resource data.
	PermissionRead Permission = "read"

	// PermissionWrite allows creating or updating resource data.
	PermissionWrite Permission = "write"

	// PermissionDelete allows removing resource data.
	PermissionDelete Permission = "delete"

	// PermissionList allows enumerating resources below a path.
	PermissionList Permission = "list"
)

// canonicalPermissions fixes the canonical order of permissions in encodings:
// read, write, delete, list.
var canonicalPermissions = []Permission{
	PermissionRead,
	PermissionWrite,
	PermissionDelete,
	PermissionList,
}

// permissionLetters maps permissions to their single-letter wire encoding.
var permissionLetters = map[Permission]string{
	PermissionRead:   "r",
	PermissionWrite:  "w",
	PermissionDelete: "d",
	PermissionList:   "l",
}

// Valid reports whether the permission is one of the known operations.
func (p Permission) Valid() bool {
	_, ok := permissionLetters[p]
	return ok
}

// NormalizePermissions deduplicates permissions and returns them in canonical
// order. Returns ErrUnknownPermission if any permission is not a known operation.
func NormalizePermissions(perms []Permission) ([]Permission, error) {
	seen := make(map[Permission]bool, len(perms))
	for _, p := range perms {
		if !p.Valid() {
			return nil, ErrUnknownPermission
		}
		seen[p] = true
	}

	normalized := make([]Permission, 0, len(seen))
	for _, p := range canonicalPermissions {
		if seen[p] {
			normalized = append(normalized, p)
		}
	}

	return normalized, nil
}

// EncodePermissions encodes permissions as wire letters in canonical order.
// Duplicates collapse; unknown permissions are skipped, so callers normalize first.
func EncodePermissions(perms []Permission) string {
	seen := make(map[Permission]bool, len(perms))
	for _, p := range perms {
		seen[p] = true
	}

	var b strings.Builder
	for _, p := range canonicalPermissions {
		if seen[p] {
			b.WriteString(permissionLetters[p])
		}
	}

	return b.String()
}

// DecodePermissions decodes a wire letter string into permissions. The
// encoding is strict: letters must be known, unrepeated, and in canonical
// order, so every permission set has exactly one valid encoding.
func DecodePermissions(encoded string) ([]Permission, error) {
	if encoded == "" {
		return nil, ErrInvalidPermissionCode
	}

	perms := make([]Permission, 0, len(encoded))
	next := 0
	for _, r := range encoded {
		matched := false
		for next < len(canonicalPermissions) {
			p := canonicalPermissions[next]
			next++
			if permissionLetters[p] == string(r) {
				perms = append(perms, p)
				matched = true
				break
			}
		}
		if !matched {
			return nil, ErrInvalidPermissionCode
		}
	}

	return perms, nil
}

// PermissionsSubset reports whether every permission in sub is present in super.
func PermissionsSubset(sub, super []Permission) bool {
	for _, p := range sub {
		if !HasPermission(super, p) {
			return false
		}
	}
	return true
}

// HasPermission reports whether perms contains p.
func HasPermission(perms []Permission, p Permission) bool {
	for _, candidate := range perms {
		if candidate == p {
			return true
		}
	}
	return false
}

// MatchMode controls how a token's resource path is compared against the
// requested path at validation time.
type MatchMode string

const (
	// MatchExact grants access to exactly the token's resource path.
	MatchExact MatchMode = "exact"

	// MatchPrefix grants access to the token's resource path and everything
	// below it on segment boundaries.
	MatchPrefix MatchMode = "prefix"
)

// matchModeCodes maps match modes to their single-letter wire encoding.
var matchModeCodes = map[MatchMode]string{
	MatchExact:  "e",
	MatchPrefix: "p",
}

// Valid reports whether the match mode is known.
func (m MatchMode) Valid() bool {
	_, ok := matchModeCodes[m]
	return ok
}

// Code returns the match mode's single-letter wire encoding.
func (m MatchMode) Code() string {
	return matchModeCodes[m]
}

// MatchModeFromCode decodes a wire letter into a match mode.
func MatchModeFromCode(code string) (MatchMode, error) {
	for mode, c := range matchModeCodes {
		if c == code {
			return mode, nil
		}
	}
	return "", ErrUnknownMatchMode
}

// PathWithinPrefix reports whether path equals prefix or extends it on a
// segment boundary: "/a/b" covers "/a/b" and "/a/b/c", never "/a/bc".
func PathWithinPrefix(prefix, path string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix) && path[len(prefix)] == '/'
}

// CapabilityToken is a decoded capability token. Signature covers every other
// field; any change to them invalidates the token.
type CapabilityToken struct {
	Version      int
	ResourcePath string
	MatchMode    MatchMode
	Permissions  []Permission
	StartsOn     time.Time
	ExpiresOn    time.Time
	SigningKeyID uuid.UUID
	PolicyID     uuid.UUID    // Nil = ad hoc token, fields above are authoritative
	IPRange      netip.Prefix // zero = unconstrained
	HTTPSOnly    bool
	Signature    []byte
}

// AdHoc reports whether the token stands alone, without a policy reference.
func (t *CapabilityToken) AdHoc() bool {
	return t.PolicyID == uuid.Nil
}

// ProtocolCode returns the wire representation of the protocol constraint:
// "https" when the token is restricted to HTTPS, "https,http" otherwise.
func (t *CapabilityToken) ProtocolCode() string {
	if t.HTTPSOnly {
		return ProtocolHTTPSOnly
	}
	return ProtocolAny
}

// Covers reports whether the token's path scope includes the requested path.
func (t *CapabilityToken) Covers(path string) bool {
	switch t.MatchMode {
	case MatchExact:
		return path == t.ResourcePath
	case MatchPrefix:
		return PathWithinPrefix(t.ResourcePath, path)
	default:
		return false
	}
}

// DenyReason identifies why a token check was denied. Reasons feed the audit
// trail and debug log only; the external check response is a bare granted flag.
type DenyReason string

const (
	// DenyReasonNone means the check was granted.
	DenyReasonNone DenyReason = ""

	// DenyMalformed means the token could not be decoded.
	DenyMalformed DenyReason = "malformed"

	// DenyBadSignature means the HMAC did not verify or the signing key is unknown.
	DenyBadSignature DenyReason = "bad_signature"

	// DenyKeyRetired means the signing key verified but its window has closed.
	DenyKeyRetired DenyReason = "key_retired"

	// DenyProtocolViolation means an https-only token was presented over http.
	DenyProtocolViolation DenyReason = "protocol_violation"

	// DenyIPViolation means the caller's address is outside the token's IP range.
	DenyIPViolation DenyReason = "ip_violation"

	// DenyPolicyRevoked means the referenced policy is missing or expired.
	DenyPolicyRevoked DenyReason = "policy_revoked"

	// DenyNotYetValid means the effective validity window has not opened.
	DenyNotYetValid DenyReason = "not_yet_valid"

	// DenyExpired means the effective validity window has closed.
	DenyExpired DenyReason = "expired"

	// DenyPathMismatch means the requested path is outside the token's scope.
	DenyPathMismatch DenyReason = "path_mismatch"

	// DenyInsufficientPermission means the requested operation is not granted.
	DenyInsufficientPermission DenyReason = "insufficient_permission"
)

// CheckResult is the internal outcome of validating a capability token.
type CheckResult struct {
	Granted bool
	Reason  DenyReason
	Token   *CapabilityToken // decoded token, nil when undecodable
}

// IssueTokenInput carries a token issuance request into the use case layer.
// RequestID and ClientID identify the control-plane caller for the audit trail.
type IssueTokenInput struct {
	RequestID    uuid.UUID
	ClientID     uuid.UUID
	ResourcePath string
	MatchMode    MatchMode
	Permissions  []Permission
	TTL          time.Duration // validity length when ExpiresOn is zero
	StartsOn     time.Time     // zero = now
	ExpiresOn    time.Time     // zero = effective start + TTL
	PolicyID     uuid.UUID     // Nil = ad hoc
	IPRange      netip.Prefix  // zero = unconstrained
	HTTPSOnly    bool
}

// IssueTokenOutput carries the encoded token back to the caller.
type IssueTokenOutput struct {
	Token     string
	ExpiresOn time.Time
}

// CheckInput carries a token validation request into the use case layer.
// CallerIP and Protocol describe the original resource request as observed by
// the resource server forwarding the check, not the check call itself.
type CheckInput struct {
	RequestID  uuid.UUID
	ClientID   uuid.UUID
	Token      string
	Path       string
	Permission Permission
	CallerIP   netip.Addr // zero = not supplied
	Protocol   string     // "https" (default when empty) or "http"
}
