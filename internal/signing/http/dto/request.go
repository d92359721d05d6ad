// Package dto provides data transfer objects for signing key HTTP request
// and response handling.
package dto

import (
	validation "github.com/jellydator/validation"
)

// RotateKeyRequest contains the parameters for rotating the signing key.
// A zero OverlapSeconds falls back to the server's configured overlap.
type RotateKeyRequest struct {
	OverlapSeconds int64 `json:"overlap_seconds"`
}

// Validate checks if the rotate key request is valid.
func (r *RotateKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.OverlapSeconds,
			validation.Min(int64(1)),
		),
	)
}
