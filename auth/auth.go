// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidOperatorKey = errors.New("invalid operator key")

// NewID returns a new opaque record identifier
func NewID() string {
	return uuid.NewString()
}

// IsID reports whether s has the shape of an id produced by NewID.
// Legacy seed identities ("1", "A") are not ids.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// ValidateOperatorKey checks the key presented on operator routes.
// An empty configured key disables the check.
func ValidateOperatorKey(presented, configured string) error {
	if configured == "" {
		return nil
	}
	// Compare digests so the comparison time doesn't depend on key length
	p := sha256.Sum256([]byte(presented))
	c := sha256.Sum256([]byte(configured))
	if !hmac.Equal(p[:], c[:]) {
		return ErrInvalidOperatorKey
	}
	return nil
}
