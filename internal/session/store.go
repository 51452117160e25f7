package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/MayanSoftwareSolution/imotr-client/internal/authapi"
	"github.com/MayanSoftwareSolution/imotr-client/internal/credstore"
	"github.com/MayanSoftwareSolution/imotr-client/internal/httpx"
	"github.com/MayanSoftwareSolution/imotr-client/internal/logging"
)

// Verification is the tri-state email-verification flag of the current
// account. It is only meaningful while a token is set.
type Verification int

const (
	VerificationUnknown Verification = iota
	VerificationUnverified
	VerificationVerified
)

func (v Verification) String() string {
	switch v {
	case VerificationUnverified:
		return "unverified"
	case VerificationVerified:
		return "verified"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the session state.
type Snapshot struct {
	Token    string
	Loading  bool
	Verified Verification
}

// SignedIn reports whether a session token is set.
func (s Snapshot) SignedIn() bool { return s.Token != "" }

// API is the slice of the auth service the store drives itself.
type API interface {
	GetUser(ctx context.Context) (*authapi.Me, error)
	PutUserDevice(ctx context.Context, uuid string, payload authapi.DevicePayload) error
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context) error
}

// Devices resolves the install's device identity for registration.
type Devices interface {
	UUID(ctx context.Context) (string, error)
	Payload() authapi.DevicePayload
}

// Config carries the HTTP-layer settings owned by the store.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Store owns the authentication session: token lifecycle, verified-state
// derivation, device registration and logout. It also implements
// httpx.TokenProvider, so the HTTP layer it configures pulls the current
// token from here without any late binding.
type Store struct {
	creds credstore.Store
	devs  Devices
	log   logging.Logger
	api   API

	httpc      *httpx.Client
	authClient *authapi.Client

	mu               sync.Mutex
	token            string
	loading          bool
	verified         Verification
	gen              uint64 // token generation; bumped on every token change
	deviceRegistered bool
	subs             []func(Snapshot)
}

// New builds a Store that owns its transport: it creates the HTTP client
// with itself as the token provider and the typed auth API on top.
func New(cfg Config, creds credstore.Store, devs Devices, log logging.Logger) *Store {
	s := &Store{
		creds:    creds,
		devs:     devs,
		log:      log,
		loading:  true,
		verified: VerificationUnknown,
	}
	s.httpc = httpx.New(cfg.BaseURL, httpx.WithTokenProvider(s), httpx.WithTimeout(cfg.Timeout))
	s.authClient = authapi.New(s.httpc)
	s.api = s.authClient
	return s
}

// NewWithAPI builds a Store around an externally supplied API. Used by tests.
func NewWithAPI(api API, creds credstore.Store, devs Devices, log logging.Logger) *Store {
	return &Store{
		creds:    creds,
		devs:     devs,
		log:      log,
		api:      api,
		loading:  true,
		verified: VerificationUnknown,
	}
}

// AuthAPI returns the typed auth client sharing this store's transport.
// Nil when the store was built with NewWithAPI.
func (s *Store) AuthAPI() *authapi.Client { return s.authClient }

// Token implements httpx.TokenProvider.
func (s *Store) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

// Subscribe registers fn to be called after every state transition.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Snapshot returns the current session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Token: s.token, Loading: s.loading, Verified: s.verified}
}

func (s *Store) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Bootstrap restores the persisted token, if any. Loading becomes false
// exactly once, regardless of the read outcome.
func (s *Store) Bootstrap(ctx context.Context) error {
	token, err := s.creds.Get(ctx, credstore.KeyAuthToken)

	s.mu.Lock()
	s.loading = false
	var gen uint64
	if err == nil && token != "" {
		s.token = token
		s.verified = VerificationUnknown
		s.gen++
		s.deviceRegistered = false
		gen = s.gen
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.log.Error(ctx, "token restore failed", "error", err)
		return err
	}
	if token != "" {
		s.log.Debug(ctx, "session restored from storage")
		go s.registerDevice(gen)
	}
	return nil
}

// SetAPIToken persists a fresh session token and moves the session to
// signed-in with unknown verification. An empty token signs out.
func (s *Store) SetAPIToken(ctx context.Context, token string) error {
	if token == "" {
		return s.ClearAPIToken(ctx)
	}

	if err := s.creds.Set(ctx, credstore.KeyAuthToken, token); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.verified = VerificationUnknown
	s.gen++
	s.deviceRegistered = false
	gen := s.gen
	s.mu.Unlock()
	s.notify()

	go s.registerDevice(gen)
	return nil
}

// ClearAPIToken deletes the persisted token and signs the session out.
// Verified always returns to unknown.
func (s *Store) ClearAPIToken(ctx context.Context) error {
	if err := s.creds.Delete(ctx, credstore.KeyAuthToken); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = ""
	s.verified = VerificationUnknown
	s.gen++
	s.mu.Unlock()
	s.notify()
	return nil
}

// RefreshUser fetches the current user and resolves the verified state.
//
// A 401 forces a sign-out. Any other error leaves the state untouched and
// propagates; retrying is the caller's responsibility. A response that
// arrives after the token changed is discarded.
func (s *Store) RefreshUser(ctx context.Context) error {
	s.mu.Lock()
	if s.token == "" {
		s.verified = VerificationUnknown
		s.mu.Unlock()
		return nil
	}
	gen := s.gen
	s.mu.Unlock()

	me, err := s.api.GetUser(ctx)
	if err != nil {
		if httpx.IsStatus(err, 401) {
			s.mu.Lock()
			stale := s.gen != gen
			s.mu.Unlock()
			if stale {
				return nil
			}
			s.log.Warn(ctx, "session token rejected, signing out")
			return s.ClearAPIToken(ctx)
		}
		return err
	}

	verified := VerificationUnverified
	if me.EmailVerified != nil {
		if *me.EmailVerified {
			verified = VerificationVerified
		}
	} else if me.EmailVerifiedAt != "" {
		verified = VerificationVerified
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.log.Debug(ctx, "discarding user fetch for superseded token")
		return nil
	}
	s.verified = verified
	s.mu.Unlock()
	s.notify()

	s.log.Debug(ctx, "verification state resolved", "verified", verified.String())
	return nil
}

// SetVerified marks the current session's verification state directly,
// e.g. after a successful code submission. No-op while signed out.
func (s *Store) SetVerified(verified bool) {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	if verified {
		s.verified = VerificationVerified
	} else {
		s.verified = VerificationUnverified
	}
	s.mu.Unlock()
	s.notify()
}

// Logout revokes the session server-side (best effort), then clears the
// token and all ephemeral credentials locally. A server failure never
// blocks the local sign-out.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil {
		s.log.Warn(ctx, "server logout failed", "error", err)
	}
	return s.clearLocal(ctx)
}

// LogoutAll revokes every session of the user (best effort), then clears
// local state like Logout.
func (s *Store) LogoutAll(ctx context.Context) error {
	if err := s.api.LogoutAll(ctx); err != nil {
		s.log.Warn(ctx, "server logout-all failed", "error", err)
	}
	return s.clearLocal(ctx)
}

func (s *Store) clearLocal(ctx context.Context) error {
	if err := s.creds.ClearSession(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = ""
	s.verified = VerificationUnknown
	s.gen++
	s.mu.Unlock()
	s.notify()
	return nil
}

// registerDevice runs the once-per-token device registration side effect.
// Failures are logged and never affect session state.
func (s *Store) registerDevice(gen uint64) {
	ctx := context.Background()

	s.mu.Lock()
	if s.deviceRegistered || s.gen != gen || s.token == "" {
		s.mu.Unlock()
		return
	}
	s.deviceRegistered = true
	s.mu.Unlock()

	uuid, err := s.devs.UUID(ctx)
	if err != nil {
		s.log.Warn(ctx, "device uuid unavailable", "error", err)
		return
	}
	if err := s.api.PutUserDevice(ctx, uuid, s.devs.Payload()); err != nil {
		s.log.Warn(ctx, "device registration failed", "error", err)
		return
	}
	s.log.Debug(ctx, "device registered", "uuid", uuid)
}
