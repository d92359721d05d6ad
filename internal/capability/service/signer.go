package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/crypto/hkdf"

	capabilityDomain "github.com/allisson/captoken/internal/capability/domain"
)

type tokenSigner struct{}

// NewTokenSigner creates an HMAC-based token signer using HKDF-SHA256 for
// key derivation and HMAC-SHA256 for signature generation.
func NewTokenSigner() TokenSigner {
	return &tokenSigner{}
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte HMAC key from the
// signing key material, keeping token signing separate from any other use
// of the same material. Info parameter: "capability-token-v1".
func (s *tokenSigner) deriveSigningKey(keyMaterial []byte) ([]byte, error) {
	info := []byte("capability-token-v1")
	reader := hkdf.New(sha256.New, keyMaterial, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(reader, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalize converts a token to its canonical byte representation for
// signing. Field order follows the wire parameter order: version, resource
// path, match mode, permissions, start, expiry, key id, policy id, IP range,
// protocol. Variable-length fields are length-prefixed to prevent ambiguity;
// timestamps are 8-byte big-endian Unix seconds.
func (s *tokenSigner) canonicalize(token *capabilityDomain.CapabilityToken) []byte {
	buf := make([]byte, 0, 256)

	buf = appendLengthPrefixed(buf, []byte(strconv.Itoa(token.Version)))
	buf = appendLengthPrefixed(buf, []byte(token.ResourcePath))
	buf = appendLengthPrefixed(buf, []byte(token.MatchMode.Code()))
	buf = appendLengthPrefixed(buf, []byte(capabilityDomain.EncodePermissions(token.Permissions)))

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(token.StartsOn.Unix()))
	buf = append(buf, timeBytes...)
	binary.BigEndian.PutUint64(timeBytes, uint64(token.ExpiresOn.Unix()))
	buf = append(buf, timeBytes...)

	buf = appendLengthPrefixed(buf, token.SigningKeyID[:])
	if token.AdHoc() {
		buf = appendLengthPrefixed(buf, nil)
	} else {
		buf = appendLengthPrefixed(buf, token.PolicyID[:])
	}

	if token.IPRange.IsValid() {
		buf = appendLengthPrefixed(buf, []byte(token.IPRange.String()))
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	buf = appendLengthPrefixed(buf, []byte(token.ProtocolCode()))

	return buf
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
// Panics if data length exceeds uint32 max.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	dataLen := len(data)
	if dataLen > 0xFFFFFFFF {
		panic("data length exceeds uint32 max")
	}
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(dataLen))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// Sign generates the HMAC-SHA256 signature for the token.
// Returns a 32-byte signature or an error if key derivation fails.
func (s *tokenSigner) Sign(keyMaterial []byte, token *capabilityDomain.CapabilityToken) ([]byte, error) {
	signingKey, err := s.deriveSigningKey(keyMaterial)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer zero(signingKey)

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(s.canonicalize(token))
	return mac.Sum(nil), nil
}

// Verify checks the token signature against a recomputation in constant time.
// Returns nil if valid, ErrBadSignature if tampered or signed by a different key.
func (s *tokenSigner) Verify(keyMaterial []byte, token *capabilityDomain.CapabilityToken) error {
	expectedSig, err := s.Sign(keyMaterial, token)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(token.Signature, expectedSig) {
		return capabilityDomain.ErrBadSignature
	}

	return nil
}

// zero overwrites sensitive data in memory with zeros.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
