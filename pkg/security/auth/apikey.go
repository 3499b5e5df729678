package auth

import (
	"crypto/subtle"
	"errors"
)

// ErrInvalidKey is returned when the presented API key does not match the
// configured secret.
var ErrInvalidKey = errors.New("invalid API key")

// Validator validates presented API keys against the single configured
// gateway secret. Comparison is constant-time so response timing does not
// leak how much of a guessed key matched.
type Validator struct {
	secret []byte
}

// NewValidator creates a validator for the given secret.
func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// Validate checks the presented key against the configured secret.
// It returns ErrInvalidKey on mismatch or when no key was presented.
func (v *Validator) Validate(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if subtle.ConstantTimeCompare([]byte(key), v.secret) != 1 {
		return ErrInvalidKey
	}
	return nil
}
