package domain

import (
	"github.com/allisson/captoken/internal/errors"
)

// Audit event errors.
var (
	// ErrSignatureInvalid indicates an audit event's signature does not match
	// its content: the row was modified after it was written, or it was signed
	// with different key material.
	ErrSignatureInvalid = errors.New("audit event signature invalid")

	// ErrUnknownAction indicates an action outside the recorded operation set.
	ErrUnknownAction = errors.Wrap(errors.ErrInvalidInput, "unknown audit action")
)
