// Package credstore is the device-local durable key-value store holding the
// persisted credential record: the session token, the install's device uuid,
// and the ephemeral magic-link bookkeeping.
//
// Individual keys are deleted independently when their flow completes or is
// abandoned. ClearSession removes the token and every ephemeral key in one
// transaction; the device uuid survives for the lifetime of the install.
package credstore

import "context"

// Keys of the persisted credential record.
const (
	KeyAuthToken          = "auth_token"
	KeyDeviceUUID         = "device_uuid"
	KeyMagicPlain         = "magic_plain"
	KeyMagicExpiresAt     = "magic_expires_at"
	KeyMagicEmail         = "magic_email"
	KeyVerifyLastSentAt   = "verify_email_last_sent_at"
	KeyRecentlyRegistered = "recently_registered"
)

// Store is the secure key-value storage interface. Get returns ("", nil)
// for a missing key; writes are upserts.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error

	// ClearSession deletes the auth token and all ephemeral flow keys
	// atomically, leaving the device uuid in place.
	ClearSession(ctx context.Context) error
}

// sessionKeys are the keys removed by ClearSession.
var sessionKeys = []string{
	KeyAuthToken,
	KeyMagicPlain,
	KeyMagicExpiresAt,
	KeyMagicEmail,
	KeyVerifyLastSentAt,
	KeyRecentlyRegistered,
}
