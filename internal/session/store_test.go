package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MayanSoftwareSolution/imotr-client/internal/authapi"
	"github.com/MayanSoftwareSolution/imotr-client/internal/httpx"
	"github.com/MayanSoftwareSolution/imotr-client/internal/logging"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// memStore is an in-memory credstore.Store.
type memStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}}
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key], nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *memStore) ClearSession(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range []string{"auth_token", "magic_plain", "magic_expires_at", "magic_email", "verify_email_last_sent_at", "recently_registered"} {
		delete(s.values, k)
	}
	return nil
}

type fakeDevices struct{}

func (fakeDevices) UUID(_ context.Context) (string, error) { return "dev-uuid-1", nil }
func (fakeDevices) Payload() authapi.DevicePayload {
	return authapi.DevicePayload{Platform: "linux", OperatingSystem: "linux", OSVersion: "6.1", Manufacturer: "unknown", Model: "amd64"}
}

type fakeAPI struct {
	mu sync.Mutex

	me     *authapi.Me
	meErr  error
	meGate chan struct{} // when non-nil, GetUser blocks until closed

	getUserCalls   int
	putCalls       int
	logoutCalls    int
	logoutAllCalls int

	logoutErr error
}

func (f *fakeAPI) GetUser(_ context.Context) (*authapi.Me, error) {
	f.mu.Lock()
	f.getUserCalls++
	gate := f.meGate
	me, err := f.me, f.meErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return me, err
}

func (f *fakeAPI) PutUserDevice(_ context.Context, uuid string, _ authapi.DevicePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	return nil
}

func (f *fakeAPI) Logout(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeAPI) LogoutAll(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutAllCalls++
	return f.logoutErr
}

func (f *fakeAPI) puts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.putCalls
}

func boolPtr(b bool) *bool { return &b }

func newStore(t *testing.T, api *fakeAPI) (*Store, *memStore) {
	t.Helper()
	creds := newMemStore()
	return NewWithAPI(api, creds, fakeDevices{}, discardLogger()), creds
}

func TestBootstrap_FreshInstall(t *testing.T) {
	s, _ := newStore(t, &fakeAPI{})
	ctx := context.Background()

	require.True(t, s.Snapshot().Loading)

	require.NoError(t, s.Bootstrap(ctx))

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.SignedIn())
	assert.Equal(t, VerificationUnknown, snap.Verified)
}

func TestBootstrap_RestoresStoredToken(t *testing.T) {
	api := &fakeAPI{}
	s, creds := newStore(t, api)
	ctx := context.Background()
	require.NoError(t, creds.Set(ctx, "auth_token", "stored-tok"))

	require.NoError(t, s.Bootstrap(ctx))

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, "stored-tok", snap.Token)
	assert.Equal(t, VerificationUnknown, snap.Verified)

	assert.Eventually(t, func() bool { return api.puts() == 1 },
		time.Second, 5*time.Millisecond, "device registration should run after restore")
}

func TestSetAPIToken_PersistsAndResetsVerification(t *testing.T) {
	api := &fakeAPI{me: &authapi.Me{EmailVerified: boolPtr(true)}}
	s, creds := newStore(t, api)
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))

	require.NoError(t, s.SetAPIToken(ctx, "tok-1"))
	require.NoError(t, s.RefreshUser(ctx))
	require.Equal(t, VerificationVerified, s.Snapshot().Verified)

	// a fresh token resets verification to unknown
	require.NoError(t, s.SetAPIToken(ctx, "tok-2"))
	snap := s.Snapshot()
	assert.Equal(t, "tok-2", snap.Token)
	assert.Equal(t, VerificationUnknown, snap.Verified)

	stored, err := creds.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", stored)
}

func TestClearAPIToken_AlwaysLeavesVerifiedUnknown(t *testing.T) {
	api := &fakeAPI{me: &authapi.Me{EmailVerified: boolPtr(true)}}
	s, creds := newStore(t, api)
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))
	require.NoError(t, s.SetAPIToken(ctx, "tok-1"))
	require.NoError(t, s.RefreshUser(ctx))
	require.Equal(t, VerificationVerified, s.Snapshot().Verified)

	require.NoError(t, s.SetAPIToken(ctx, ""))

	snap := s.Snapshot()
	assert.Empty(t, snap.Token)
	assert.Equal(t, VerificationUnknown, snap.Verified)

	stored, err := creds.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRefreshUser_BooleanPreferredOverTimestamp(t *testing.T) {
	tests := []struct {
		name string
		me   authapi.Me
		want Verification
	}{
		{name: "boolean true", me: authapi.Me{EmailVerified: boolPtr(true)}, want: VerificationVerified},
		{name: "boolean false wins over timestamp", me: authapi.Me{EmailVerified: boolPtr(false), EmailVerifiedAt: "2026-01-01T00:00:00Z"}, want: VerificationUnverified},
		{name: "timestamp fallback", me: authapi.Me{EmailVerifiedAt: "2026-01-01T00:00:00Z"}, want: VerificationVerified},
		{name: "nothing set", me: authapi.Me{}, want: VerificationUnverified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			me := tt.me
			api := &fakeAPI{me: &me}
			s, _ := newStore(t, api)
			ctx := context.Background()
			require.NoError(t, s.Bootstrap(ctx))
			require.NoError(t, s.SetAPIToken(ctx, "tok-1"))

			require.NoError(t, s.RefreshUser(ctx))
			assert.Equal(t, tt.want, s.Snapshot().Verified)
		})
	}
}

func TestRefreshUser_401ForcesSignOut(t *testing.T) {
	api := &fakeAPI{meErr: &httpx.Error{Kind: httpx.KindStatus, Status: 401}}
	s, creds := newStore(t, api)
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))
	require.NoError(t, s.SetAPIToken(ctx, "tok-1"))

	require.NoError(t, s.RefreshUser(ctx))

	snap := s.Snapshot()
	assert.Empty(t, snap.Token)
	assert.Equal(t, VerificationUnknown, snap.Verified)

	stored, err := creds.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRefreshUser_OtherErrorLeavesStateUntouched(t *testing.T) {
	api := &fakeAPI{meErr: &httpx.Error{Kind: httpx.KindNetwork, Status: 0, Message: "offline"}}
	s, _ := newStore(t, api)
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))
	require.NoError(t, s.SetAPIToken(ctx, "tok-1"))

	err := s.RefreshUser(ctx)
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, "tok-1", snap.Token)
	assert.Equal(t, VerificationUnknown, snap.Verified)
}

func TestRefreshUser_StaleResponseDiscarded(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{me: &authapi.Me{EmailVerified: boolPtr(true)}, meGate: gate}
	s, _ := newStore(t, api)
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))
	require.NoError(t, s.SetAPIToken(ctx, "tok-1"))

	done := make(chan error, 1)
	go func() { done <- s.RefreshUser(ctx) }()

	// supersede the token while the fetch for tok-1 is still in flight
	require.NoError(t, s.SetAPIToken(ctx, "tok-2"))
	close(gate)
	require.NoError(t, <-done)

	snap := s.Snapshot()
	assert.Equal(t, "tok-2", snap.Token)
	assert.Equal(t, VerificationUnknown, snap.Verified,
		"resolved value for a superseded token must be discarded")
}

func TestRefreshUser_SignedOutIsNoop(t *testing.T) {
	api := &fakeAPI{}
	s, _ := newStore(t, api)
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))

	require.NoError(t, s.RefreshUser(ctx))
	assert.Zero(t, api.getUserCalls)
}

func TestDeviceRegistration_OncePerTokenGeneration(t *testing.T) {
	api := &fakeAPI{me: &authapi.Me{EmailVerified: boolPtr(true)}}
	s, _ := newStore(t, api)
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))

	require.NoError(t, s.SetAPIToken(ctx, "tok-1"))
	assert.Eventually(t, func() bool { return api.puts() == 1 }, time.Second, 5*time.Millisecond)

	// further state churn on the same token must not re-register
	require.NoError(t, s.RefreshUser(ctx))
	s.SetVerified(false)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, api.puts())

	// a fresh token re-arms the side effect
	require.NoError(t, s.SetAPIToken(ctx, "tok-2"))
	assert.Eventually(t, func() bool { return api.puts() == 2 }, time.Second, 5*time.Millisecond)
}

func TestSetVerified_NoopWhileSignedOut(t *testing.T) {
	s, _ := newStore(t, &fakeAPI{})
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))

	s.SetVerified(true)
	assert.Equal(t, VerificationUnknown, s.Snapshot().Verified)
}

func TestLogout_ServerFailureStillClearsLocally(t *testing.T) {
	api := &fakeAPI{logoutErr: errors.New("server down")}
	s, creds := newStore(t, api)
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))
	require.NoError(t, s.SetAPIToken(ctx, "tok-1"))
	require.NoError(t, creds.Set(ctx, "magic_email", "a@b.c"))

	require.NoError(t, s.Logout(ctx))

	assert.Equal(t, 1, api.logoutCalls)
	snap := s.Snapshot()
	assert.Empty(t, snap.Token)
	assert.Equal(t, VerificationUnknown, snap.Verified)

	email, err := creds.Get(ctx, "magic_email")
	require.NoError(t, err)
	assert.Empty(t, email, "ephemeral keys cleared on logout")
}

func TestLogoutAll(t *testing.T) {
	api := &fakeAPI{}
	s, _ := newStore(t, api)
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))
	require.NoError(t, s.SetAPIToken(ctx, "tok-1"))

	require.NoError(t, s.LogoutAll(ctx))
	assert.Equal(t, 1, api.logoutAllCalls)
	assert.False(t, s.Snapshot().SignedIn())
}

func TestSubscribe_NotifiedOnTransitions(t *testing.T) {
	s, _ := newStore(t, &fakeAPI{})
	ctx := context.Background()

	var mu sync.Mutex
	var seen []Snapshot
	s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		seen = append(seen, snap)
		mu.Unlock()
	})

	require.NoError(t, s.Bootstrap(ctx))
	require.NoError(t, s.SetAPIToken(ctx, "tok-1"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.False(t, seen[0].SignedIn())
	assert.Equal(t, "tok-1", seen[1].Token)
}
