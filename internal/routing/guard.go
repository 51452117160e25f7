package routing

import (
	"context"
	"sync"

	"github.com/MayanSoftwareSolution/imotr-client/internal/logging"
	"github.com/MayanSoftwareSolution/imotr-client/internal/session"
)

// Navigator is the navigation surface the guard drives.
type Navigator interface {
	Current() Route
	Replace(Route)
}

// Refresher resolves unknown verification state, typically the session store.
type Refresher interface {
	RefreshUser(ctx context.Context) error
}

// Guard re-evaluates the routing policy on every session transition and
// kicks off a single user fetch per unknown-verification episode.
type Guard struct {
	nav Navigator
	ref Refresher
	log logging.Logger

	mu        sync.Mutex
	refreshed bool
}

func NewGuard(nav Navigator, ref Refresher, log logging.Logger) *Guard {
	return &Guard{nav: nav, ref: ref, log: log}
}

// Attach subscribes the guard to the store and applies the current state
// immediately.
func (g *Guard) Attach(ctx context.Context, store *session.Store) {
	store.Subscribe(func(s session.Snapshot) {
		g.Apply(ctx, s)
	})
	g.Apply(ctx, store.Snapshot())
}

// Apply runs one policy evaluation for the given snapshot.
func (g *Guard) Apply(ctx context.Context, s session.Snapshot) {
	if target, ok := Decide(s, g.nav.Current()); ok {
		g.nav.Replace(target)
	}
	g.maybeRefresh(ctx, s)
}

// maybeRefresh fires RefreshUser once per unknown-verification episode.
// The flag re-arms as soon as the session leaves that state, so a later
// token change starts a fresh episode.
func (g *Guard) maybeRefresh(ctx context.Context, s session.Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if s.Loading || !s.SignedIn() || s.Verified != session.VerificationUnknown {
		g.refreshed = false
		return
	}
	if g.refreshed {
		return
	}
	g.refreshed = true

	go func() {
		if err := g.ref.RefreshUser(ctx); err != nil {
			g.log.Warn(ctx, "user refresh failed", "error", err)
		}
	}()
}
