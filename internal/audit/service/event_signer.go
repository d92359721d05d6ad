package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/allisson/captoken/internal/audit/domain"
	apperrors "github.com/allisson/captoken/internal/errors"
)

type eventSigner struct{}

// NewEventSigner creates an HMAC-based audit event signer using HKDF-SHA256
// for key derivation and HMAC-SHA256 for signature generation.
func NewEventSigner() EventSigner {
	return &eventSigner{}
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte signature key from
// the signing key material. The info string separates audit signatures from
// token signatures derived from the same key.
func (e *eventSigner) deriveSigningKey(keyMaterial []byte) ([]byte, error) {
	info := []byte("audit-event-v1")
	hkdfReader := hkdf.New(sha256.New, keyMaterial, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalize converts an event to its canonical byte representation.
// Variable-length fields are length-prefixed to prevent ambiguity. The
// timestamp is canonicalized at microsecond precision, which is what both
// stores persist, so a reloaded event reproduces the signed bytes exactly.
// Signature and AuditKeyID are the signature envelope and stay outside it.
func (e *eventSigner) canonicalize(event *auditDomain.Event) ([]byte, error) {
	buf := make([]byte, 0, 512)

	buf = append(buf, event.ID[:]...)
	buf = append(buf, event.RequestID[:]...)
	buf = append(buf, event.ClientID[:]...)

	buf = appendLengthPrefixed(buf, []byte(string(event.Action)))

	if event.Granted {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	buf = appendLengthPrefixed(buf, []byte(event.DenyReason))
	buf = appendLengthPrefixed(buf, []byte(event.ResourcePath))
	buf = appendLengthPrefixed(buf, []byte(event.Permissions))

	buf = append(buf, event.PolicyID[:]...)
	buf = append(buf, event.SigningKeyID[:]...)

	buf = appendLengthPrefixed(buf, []byte(event.CallerIP))

	if event.Metadata != nil {
		// json.Marshal sorts map keys, so the serialization is deterministic.
		metadataBytes, err := json.Marshal(event.Metadata)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal event metadata")
		}
		buf = appendLengthPrefixed(buf, metadataBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(event.CreatedAt.UnixMicro()))
	buf = append(buf, timeBytes...)

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
// Panics if data length exceeds uint32 max to prevent integer overflow.
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

// Sign generates the HMAC-SHA256 signature for the event.
func (e *eventSigner) Sign(keyMaterial []byte, event *auditDomain.Event) ([]byte, error) {
	signingKey, err := e.deriveSigningKey(keyMaterial)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to derive signature key")
	}
	defer zero(signingKey)

	canonical, err := e.canonicalize(event)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to canonicalize event")
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify checks the event's stored signature against its content.
func (e *eventSigner) Verify(keyMaterial []byte, event *auditDomain.Event) error {
	expectedSig, err := e.Sign(keyMaterial, event)
	if err != nil {
		return apperrors.Wrap(err, "failed to compute expected signature")
	}

	if !hmac.Equal(event.Signature, expectedSig) {
		return auditDomain.ErrSignatureInvalid
	}

	return nil
}

// zero overwrites sensitive data in memory with zeros.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
