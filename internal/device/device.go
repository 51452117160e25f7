// Package device produces the stable per-install device identifier and the
// descriptive device record sent to the server on registration.
package device

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"

	"github.com/google/uuid"

	"github.com/MayanSoftwareSolution/imotr-client/internal/authapi"
	"github.com/MayanSoftwareSolution/imotr-client/internal/credstore"
)

// Identity resolves the install's device uuid and builds its device record.
type Identity struct {
	creds      credstore.Store
	appVersion string

	// newUUID is a test seam; defaults to RandomUUID.
	newUUID func() (string, error)
}

func New(creds credstore.Store, appVersion string) *Identity {
	return &Identity{creds: creds, appVersion: appVersion, newUUID: RandomUUID}
}

// UUID returns the persisted device uuid, generating and storing one on
// first use. Safe to call repeatedly; an existing uuid is never regenerated.
func (i *Identity) UUID(ctx context.Context) (string, error) {
	existing, err := i.creds.Get(ctx, credstore.KeyDeviceUUID)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}

	u, err := i.newUUID()
	if err != nil {
		return "", err
	}
	if err := i.creds.Set(ctx, credstore.KeyDeviceUUID, u); err != nil {
		return "", err
	}
	return u, nil
}

// Payload builds the device record from runtime introspection. Values are
// re-read on every call; nothing is cached.
func (i *Identity) Payload() authapi.DevicePayload {
	var name *string
	if host, err := os.Hostname(); err == nil && host != "" {
		name = &host
	}

	var appVersion *string
	if i.appVersion != "" {
		v := i.appVersion
		appVersion = &v
	}

	return authapi.DevicePayload{
		Name:            name,
		Platform:        runtime.GOOS,
		OperatingSystem: runtime.GOOS,
		OSVersion:       "unknown",
		Manufacturer:    "unknown",
		Model:           runtime.GOARCH,
		AppVersion:      appVersion,
		IsVirtual:       false,
		PushToken:       nil,
	}
}

// RandomUUID generates a random version-4 uuid, falling back to shaping
// 16 random bytes by hand if the primitive fails.
func RandomUUID() (string, error) {
	if u, err := uuid.NewRandom(); err == nil {
		return u.String(), nil
	}

	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return FormatV4(b), nil
}

// FormatV4 reshapes 16 random bytes into the canonical uuid v4 text form:
// the version nibble of byte 6 is forced to 4 and the top two bits of
// byte 8 to the RFC 4122 variant.
func FormatV4(b [16]byte) string {
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	h := hex.EncodeToString(b[:])
	return h[0:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:32]
}
