// Package common contains shared constants and sentinel errors used across
// the client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Session-level errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotSignedIn  = errors.New("not signed in")

	// Magic-link flow errors.
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrNoPendingMagicLink = errors.New("no pending magic-link token")
	ErrVerifyInFlight     = errors.New("verification already in progress")

	// Verification-code flow errors.
	ErrCooldownActive = errors.New("resend cooldown active")
)
