// Package flows holds the per-screen controllers of the sign-in and
// email-verification flows. Controllers are the first layer allowed to
// convert transport errors into user-facing messages; everything below
// them propagates errors unchanged.
package flows

import (
	"context"
	"net/url"
	"regexp"
	"sync"

	"github.com/MayanSoftwareSolution/imotr-client/internal/authapi"
	"github.com/MayanSoftwareSolution/imotr-client/internal/common"
	"github.com/MayanSoftwareSolution/imotr-client/internal/credstore"
	"github.com/MayanSoftwareSolution/imotr-client/internal/httpx"
	"github.com/MayanSoftwareSolution/imotr-client/internal/logging"
	"github.com/MayanSoftwareSolution/imotr-client/internal/routing"
)

// SessionControl is the slice of the session store the flows drive.
type SessionControl interface {
	SetAPIToken(ctx context.Context, token string) error
	SetVerified(verified bool)
	Logout(ctx context.Context) error
}

// MagicAPI is the slice of the auth service used by the magic-link flow.
type MagicAPI interface {
	RequestMagicLink(ctx context.Context, email string) (*authapi.MagicLinkResponse, error)
	VerifyMagicLink(ctx context.Context, plainToken string) (*authapi.VerifyMagicLinkResponse, error)
	GetUser(ctx context.Context) (*authapi.Me, error)
}

// Notifier surfaces a blocking alert to the user.
type Notifier interface {
	Alert(title, message string)
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MagicLink drives the passwordless sign-in flow: requesting a link,
// handling the inbound deep link, and the manual "I've confirmed" path.
type MagicLink struct {
	api    MagicAPI
	sess   SessionControl
	creds  credstore.Store
	notify Notifier
	log    logging.Logger

	mu       sync.Mutex
	inFlight bool
	message  string
}

func NewMagicLink(api MagicAPI, sess SessionControl, creds credstore.Store, notify Notifier, log logging.Logger) *MagicLink {
	return &MagicLink{api: api, sess: sess, creds: creds, notify: notify, log: log}
}

// Message returns the current inline status/error text.
func (m *MagicLink) Message() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.message
}

func (m *MagicLink) setMessage(s string) {
	m.mu.Lock()
	m.message = s
	m.mu.Unlock()
}

// RequestLink asks the server to email a sign-in link and persists the
// pending-link bookkeeping for the check-email screen.
func (m *MagicLink) RequestLink(ctx context.Context, email string) error {
	normalized := authapi.NormalizeEmail(email)
	if !emailRe.MatchString(normalized) {
		m.setMessage("Please enter a valid email address.")
		return common.ErrInvalidEmail
	}

	res, err := m.api.RequestMagicLink(ctx, normalized)
	if err != nil {
		switch httpx.StatusOf(err) {
		case 422:
			m.setMessage("That email address was not accepted.")
		case 429:
			m.setMessage("Too many sign-in attempts. Please wait a moment.")
		default:
			m.setMessage("Could not request a sign-in link. Check your connection and try again.")
		}
		return err
	}

	if err := m.creds.Set(ctx, credstore.KeyMagicEmail, normalized); err != nil {
		return err
	}
	if res.Token != "" {
		if err := m.creds.Set(ctx, credstore.KeyMagicPlain, res.Token); err != nil {
			return err
		}
	}
	if res.ExpiresAt != "" {
		if err := m.creds.Set(ctx, credstore.KeyMagicExpiresAt, res.ExpiresAt); err != nil {
			return err
		}
	}
	m.setMessage(res.Message)
	return nil
}

// HandleDeepLink extracts the magic-link token from an inbound URL and
// verifies it. Any URL shape is accepted as long as a token query
// parameter is present.
func (m *MagicLink) HandleDeepLink(ctx context.Context, rawURL string) (routing.Route, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		m.setMessage("That link could not be read.")
		return "", err
	}
	token := u.Query().Get("token")
	if token == "" {
		m.setMessage("That link does not contain a sign-in token.")
		return "", common.ErrNoPendingMagicLink
	}
	return m.verify(ctx, token)
}

// ConfirmByEmail replays the locally stored plaintext token, covering the
// case where the user confirmed the link on another device.
func (m *MagicLink) ConfirmByEmail(ctx context.Context) (routing.Route, error) {
	token, err := m.creds.Get(ctx, credstore.KeyMagicPlain)
	if err != nil {
		return "", err
	}
	if token == "" {
		m.setMessage("No sign-in is pending. Request a new link first.")
		return "", common.ErrNoPendingMagicLink
	}
	return m.verify(ctx, token)
}

// verify exchanges the plaintext token for a session token and decides the
// next screen from the fresh user state. Guarded against a concurrent
// double delivery of the same link.
func (m *MagicLink) verify(ctx context.Context, token string) (routing.Route, error) {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return "", common.ErrVerifyInFlight
	}
	m.inFlight = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.inFlight = false
		m.mu.Unlock()
	}()

	res, err := m.api.VerifyMagicLink(ctx, token)
	if err != nil {
		msg := "This sign-in link is invalid or has expired. Request a new one."
		if s := httpx.StatusOf(err); s <= 0 || s == 408 {
			msg = "Could not reach the server. Check your connection and try again."
		}
		m.setMessage(msg)
		m.notify.Alert("Sign-in failed", msg)
		return "", err
	}

	if err := m.sess.SetAPIToken(ctx, res.Token); err != nil {
		return "", err
	}
	m.clearPending(ctx)
	m.setMessage("")

	me, err := m.api.GetUser(ctx)
	if err != nil {
		// the session is established; verification resolves later
		m.log.Warn(ctx, "user fetch after sign-in failed", "error", err)
		return routing.RouteHome, nil
	}
	if verifiedFromMe(me) {
		m.sess.SetVerified(true)
		_ = m.creds.Delete(ctx, credstore.KeyRecentlyRegistered)
		return routing.RouteHome, nil
	}
	m.sess.SetVerified(false)
	return routing.RouteVerifyEmail, nil
}

// NotYou abandons the pending sign-in and returns to the sign-in entry.
func (m *MagicLink) NotYou(ctx context.Context) routing.Route {
	m.clearPending(ctx)
	_ = m.creds.Delete(ctx, credstore.KeyRecentlyRegistered)
	m.setMessage("")
	return routing.RouteLogin
}

func (m *MagicLink) clearPending(ctx context.Context) {
	for _, key := range []string{credstore.KeyMagicPlain, credstore.KeyMagicExpiresAt, credstore.KeyMagicEmail} {
		if err := m.creds.Delete(ctx, key); err != nil {
			m.log.Warn(ctx, "failed to clear pending magic-link key", "key", key, "error", err)
		}
	}
}

func verifiedFromMe(me *authapi.Me) bool {
	if me.EmailVerified != nil {
		return *me.EmailVerified
	}
	return me.EmailVerifiedAt != ""
}
