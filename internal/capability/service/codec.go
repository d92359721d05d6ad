package service

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/netip"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	capabilityDomain "github.com/allisson/captoken/internal/capability/domain"
	"github.com/allisson/captoken/internal/validation"
)

// Wire parameter names. The short forms keep encoded tokens compact and
// follow the query-string convention of storage SAS tokens.
const (
	paramVersion    = "sv"   // format version
	paramResource   = "sr"   // resource path
	paramMatchMode  = "sm"   // e (exact) or p (prefix)
	paramPermission = "sp"   // permission letters in canonical order
	paramStartsOn   = "st"   // RFC 3339, whole seconds
	paramExpiresOn  = "se"   // RFC 3339, whole seconds
	paramKeyID      = "skid" // signing key UUID
	paramPolicyID   = "si"   // policy UUID, absent for ad hoc tokens
	paramIPRange    = "sip"  // IP or CIDR constraint, optional
	paramProtocol   = "spr"  // https or https,http
	paramSignature  = "sig"  // base64url, no padding
)

// requiredParams must each appear exactly once in a well-formed token.
var requiredParams = []string{
	paramVersion,
	paramResource,
	paramMatchMode,
	paramPermission,
	paramStartsOn,
	paramExpiresOn,
	paramKeyID,
	paramProtocol,
	paramSignature,
}

// knownParams is the full set of parameters a token may carry.
var knownParams = map[string]bool{
	paramVersion:    true,
	paramResource:   true,
	paramMatchMode:  true,
	paramPermission: true,
	paramStartsOn:   true,
	paramExpiresOn:  true,
	paramKeyID:      true,
	paramPolicyID:   true,
	paramIPRange:    true,
	paramProtocol:   true,
	paramSignature:  true,
}

type tokenCodec struct{}

// NewTokenCodec creates the query-string token codec.
func NewTokenCodec() TokenCodec {
	return &tokenCodec{}
}

// Encode serializes a signed token as a URL query string. url.Values.Encode
// sorts parameters by name, so equal tokens always encode identically.
func (c *tokenCodec) Encode(token *capabilityDomain.CapabilityToken) (string, error) {
	if token.Version != capabilityDomain.TokenVersion {
		return "", fmt.Errorf("unsupported token version %d", token.Version)
	}
	if !token.MatchMode.Valid() {
		return "", fmt.Errorf("unknown match mode %q", token.MatchMode)
	}
	if len(token.Permissions) == 0 {
		return "", fmt.Errorf("token has no permissions")
	}
	if len(token.Signature) != sha256.Size {
		return "", fmt.Errorf("token signature must be %d bytes, got %d", sha256.Size, len(token.Signature))
	}

	values := url.Values{}
	values.Set(paramVersion, strconv.Itoa(token.Version))
	values.Set(paramResource, token.ResourcePath)
	values.Set(paramMatchMode, token.MatchMode.Code())
	values.Set(paramPermission, capabilityDomain.EncodePermissions(token.Permissions))
	values.Set(paramStartsOn, token.StartsOn.UTC().Format(time.RFC3339))
	values.Set(paramExpiresOn, token.ExpiresOn.UTC().Format(time.RFC3339))
	values.Set(paramKeyID, token.SigningKeyID.String())
	if !token.AdHoc() {
		values.Set(paramPolicyID, token.PolicyID.String())
	}
	if token.IPRange.IsValid() {
		values.Set(paramIPRange, token.IPRange.String())
	}
	values.Set(paramProtocol, token.ProtocolCode())
	values.Set(paramSignature, base64.RawURLEncoding.EncodeToString(token.Signature))

	return values.Encode(), nil
}

// Decode parses a wire string back into a token. Every deviation from the
// format is collapsed into ErrMalformedToken so callers cannot probe which
// part of a token was rejected.
func (c *tokenCodec) Decode(encoded string) (*capabilityDomain.CapabilityToken, error) {
	values, err := url.ParseQuery(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: not a query string", capabilityDomain.ErrMalformedToken)
	}

	for key, entries := range values {
		if !knownParams[key] {
			return nil, fmt.Errorf("%w: unknown parameter %q", capabilityDomain.ErrMalformedToken, key)
		}
		if len(entries) != 1 {
			return nil, fmt.Errorf("%w: repeated parameter %q", capabilityDomain.ErrMalformedToken, key)
		}
	}
	for _, key := range requiredParams {
		if !values.Has(key) {
			return nil, fmt.Errorf("%w: missing parameter %q", capabilityDomain.ErrMalformedToken, key)
		}
	}

	if values.Get(paramVersion) != strconv.Itoa(capabilityDomain.TokenVersion) {
		return nil, fmt.Errorf("%w: unsupported version %q", capabilityDomain.ErrMalformedToken, values.Get(paramVersion))
	}

	resourcePath := values.Get(paramResource)
	if !validation.IsResourcePath(resourcePath) {
		return nil, fmt.Errorf("%w: invalid resource path", capabilityDomain.ErrMalformedToken)
	}

	matchMode, err := capabilityDomain.MatchModeFromCode(values.Get(paramMatchMode))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid match mode", capabilityDomain.ErrMalformedToken)
	}

	permissions, err := capabilityDomain.DecodePermissions(values.Get(paramPermission))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid permissions", capabilityDomain.ErrMalformedToken)
	}

	startsOn, err := parseTokenTime(values.Get(paramStartsOn))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start time", capabilityDomain.ErrMalformedToken)
	}
	expiresOn, err := parseTokenTime(values.Get(paramExpiresOn))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid expiry time", capabilityDomain.ErrMalformedToken)
	}

	signingKeyID, err := uuid.Parse(values.Get(paramKeyID))
	if err != nil || signingKeyID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid signing key id", capabilityDomain.ErrMalformedToken)
	}

	policyID := uuid.Nil
	if values.Has(paramPolicyID) {
		policyID, err = uuid.Parse(values.Get(paramPolicyID))
		if err != nil || policyID == uuid.Nil {
			return nil, fmt.Errorf("%w: invalid policy id", capabilityDomain.ErrMalformedToken)
		}
	}

	var ipRange netip.Prefix
	if values.Has(paramIPRange) {
		ipRange, err = parseIPRange(values.Get(paramIPRange))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid ip range", capabilityDomain.ErrMalformedToken)
		}
	}

	var httpsOnly bool
	switch values.Get(paramProtocol) {
	case capabilityDomain.ProtocolHTTPSOnly:
		httpsOnly = true
	case capabilityDomain.ProtocolAny:
		httpsOnly = false
	default:
		return nil, fmt.Errorf("%w: invalid protocol constraint", capabilityDomain.ErrMalformedToken)
	}

	signature, err := base64.RawURLEncoding.DecodeString(values.Get(paramSignature))
	if err != nil || len(signature) != sha256.Size {
		return nil, fmt.Errorf("%w: invalid signature encoding", capabilityDomain.ErrMalformedToken)
	}

	return &capabilityDomain.CapabilityToken{
		Version:      capabilityDomain.TokenVersion,
		ResourcePath: resourcePath,
		MatchMode:    matchMode,
		Permissions:  permissions,
		StartsOn:     startsOn,
		ExpiresOn:    expiresOn,
		SigningKeyID: signingKeyID,
		PolicyID:     policyID,
		IPRange:      ipRange,
		HTTPSOnly:    httpsOnly,
		Signature:    signature,
	}, nil
}

// parseTokenTime parses an RFC 3339 timestamp and normalizes it to UTC.
// Fractional seconds are rejected: signatures cover whole-second instants,
// so any sub-second part would be unauthenticated slack.
func parseTokenTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	if t.Nanosecond() != 0 {
		return time.Time{}, fmt.Errorf("fractional seconds not allowed")
	}
	return t.UTC(), nil
}

// parseIPRange accepts either a CIDR range or a single address, which is
// widened to a full-length prefix.
func parseIPRange(value string) (netip.Prefix, error) {
	if prefix, err := netip.ParsePrefix(value); err == nil {
		return prefix, nil
	}
	addr, err := netip.ParseAddr(value)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
