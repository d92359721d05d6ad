// Package service provides the wire codec and signature scheme for
// capability tokens.
//
// Tokens travel as URL query strings; signatures are HMAC-SHA256 over a
// length-prefixed canonical byte layout, keyed by material derived from a
// signing key via HKDF-SHA256.
package service

import (
	capabilityDomain "github.com/allisson/captoken/internal/capability/domain"
)

// TokenCodec converts capability tokens to and from their wire string form.
type TokenCodec interface {
	// Encode serializes a signed token as a URL query string. The token must
	// carry a signature; Encode does not sign.
	Encode(token *capabilityDomain.CapabilityToken) (string, error)

	// Decode parses a wire string back into a token, rejecting anything that
	// deviates from the format: unknown or duplicate parameters, missing
	// required parameters, an unsupported version, or malformed field values.
	// All rejections return ErrMalformedToken.
	//
	// Decode does not verify the signature; it only recovers the fields.
	Decode(encoded string) (*capabilityDomain.CapabilityToken, error)
}

// TokenSigner computes and verifies token signatures.
type TokenSigner interface {
	// Sign computes the HMAC-SHA256 signature of the token's canonical byte
	// representation using a key derived from keyMaterial. Returns the 32-byte
	// signature; it does not mutate the token.
	Sign(keyMaterial []byte, token *capabilityDomain.CapabilityToken) ([]byte, error)

	// Verify recomputes the signature and compares it against token.Signature
	// in constant time. Returns ErrBadSignature on mismatch.
	Verify(keyMaterial []byte, token *capabilityDomain.CapabilityToken) error
}
