// Package cli provides the interactive iMotr command-line client.
//
// It wires configuration, the local credential store, the session store and
// the auth flow controllers behind an interactive REPL that plays the role
// of the mobile app's screen stack. The route guard decides which "screen"
// is current; commands drive the passwordless sign-in and email-verification
// flows.
//
// Key features:
//   - Register / magic-link sign-in (login, open, confirm)
//   - 6-digit email verification (code, resend, notyou)
//   - Session inspection and logout (whoami, logout, logout-all)
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
