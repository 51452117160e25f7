package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/MayanSoftwareSolution/imotr-client/internal/authapi"
	"github.com/MayanSoftwareSolution/imotr-client/internal/config"
	"github.com/MayanSoftwareSolution/imotr-client/internal/credstore"
	"github.com/MayanSoftwareSolution/imotr-client/internal/device"
	"github.com/MayanSoftwareSolution/imotr-client/internal/flows"
	"github.com/MayanSoftwareSolution/imotr-client/internal/logging"
	"github.com/MayanSoftwareSolution/imotr-client/internal/routing"
	"github.com/MayanSoftwareSolution/imotr-client/internal/session"

	_ "modernc.org/sqlite"
)

// authAPI is the slice of the auth service the command layer calls directly.
type authAPI interface {
	Register(ctx context.Context, body authapi.RegisterBody) (*authapi.RegisterResponse, error)
	GetUser(ctx context.Context) (*authapi.Me, error)
}

// screenNav tracks the current screen and prints transitions. It is the
// terminal stand-in for the mobile navigation stack and satisfies
// routing.Navigator.
type screenNav struct {
	mu    sync.Mutex
	route routing.Route
}

func newScreenNav() *screenNav {
	return &screenNav{route: routing.RouteLogin}
}

func (n *screenNav) Current() routing.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.route
}

func (n *screenNav) Replace(r routing.Route) {
	n.mu.Lock()
	changed := n.route != r
	n.route = r
	n.mu.Unlock()
	if changed {
		printlnFn("-> " + string(r))
	}
}

// App wires the session store, route guard and flow controllers behind an
// interactive command loop.
type App struct {
	config *config.Config
	log    logging.Logger

	store  *session.Store
	nav    *screenNav
	guard  *routing.Guard
	magic  *flows.MagicLink
	verify *flows.VerifyCode
	api    authAPI
	creds  credstore.Store

	reader *bufio.Reader
}

// NewApp builds the full client: credential store, device identity, session
// store and the flow controllers on top. The returned cleanup closes the
// underlying database.
func NewApp(c *config.Config, log logging.Logger) (*App, func(), error) {
	ctx := context.Background()

	creds, db, err := credstore.Open(ctx, c.CredentialDB)
	if err != nil {
		log.Error(ctx, "error initializing credential store", "error", err)
		return nil, nil, err
	}
	cleanup := func() { _ = db.Close() }

	devs := device.New(creds, c.AppVersion)

	store := session.New(session.Config{
		BaseURL: c.APIBaseURL,
		Timeout: c.RequestTimeout,
	}, creds, devs, log)

	app := &App{
		config: c,
		log:    log,
		store:  store,
		nav:    newScreenNav(),
		api:    store.AuthAPI(),
		creds:  creds,
		reader: bufio.NewReader(os.Stdin),
	}
	app.guard = routing.NewGuard(app.nav, store, log)
	app.magic = flows.NewMagicLink(store.AuthAPI(), store, creds, app, log)
	app.verify = flows.NewVerifyCode(store.AuthAPI(), store, creds, log, nil)

	return app, cleanup, nil
}

// Alert implements flows.Notifier by printing a blocking-style alert box.
func (a *App) Alert(title, message string) {
	printlnFn(fmt.Sprintf("[!] %s: %s", title, message))
}

// Run restores the persisted session, attaches the route guard and starts
// the command loop. It returns when the user exits or stdin is closed.
func (a *App) Run(ctx context.Context) {
	if err := a.store.Bootstrap(ctx); err != nil {
		a.log.Error(ctx, "session bootstrap failed", "error", err)
	}
	a.guard.Attach(ctx, a.store)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) screen() routing.Route {
	return a.nav.Current()
}

// status renders the prompt segment: current screen plus any pending
// flow message.
func (a *App) status() string {
	s := string(a.nav.Current())
	if msg := a.flowMessage(); msg != "" {
		s += " | " + msg
	}
	return s
}

func (a *App) flowMessage() string {
	switch a.nav.Current() {
	case routing.RouteVerifyEmail:
		return a.verify.Message()
	case routing.RouteLogin, routing.RouteCheckEmail:
		return a.magic.Message()
	}
	return ""
}
