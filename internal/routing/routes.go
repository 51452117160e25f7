// Package routing decides where the user belongs based on session state.
//
// The policy is a pure function over a session snapshot and the current
// location; the Guard applies it reactively by subscribing to the store.
package routing

import (
	"strings"

	"github.com/MayanSoftwareSolution/imotr-client/internal/session"
)

// Route is an application location.
type Route string

const (
	RouteLogin       Route = "/auth/login"
	RouteRegister    Route = "/auth/register"
	RouteCheckEmail  Route = "/auth/check-email"
	RouteVerifyEmail Route = "/auth/verify-email"
	RouteHome        Route = "/home"
)

// InAuthArea reports whether the route belongs to the sign-in/registration
// region of the app.
func InAuthArea(r Route) bool {
	return strings.HasPrefix(string(r), "/auth/")
}

// IsVerificationRoute reports whether the route is part of the
// email-verification flow and may be shown to an unverified user.
func IsVerificationRoute(r Route) bool {
	return r == RouteVerifyEmail || r == RouteCheckEmail
}

// Decide returns the redirect target for the given state and location.
// The second result is false when no redirect is needed. While the session
// is still loading no decision is made.
func Decide(s session.Snapshot, loc Route) (Route, bool) {
	if s.Loading {
		return "", false
	}

	if !s.SignedIn() {
		if InAuthArea(loc) {
			return "", false
		}
		return RouteLogin, true
	}

	if s.Verified == session.VerificationUnverified {
		if IsVerificationRoute(loc) {
			return "", false
		}
		return RouteVerifyEmail, true
	}

	if s.Verified == session.VerificationVerified && InAuthArea(loc) {
		return RouteHome, true
	}

	return "", false
}
