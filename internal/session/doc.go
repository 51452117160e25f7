// Package session owns the authentication session of the iMotr client.
//
// # State machine
//
// The session is a composite of two axes: a loading flag that is true only
// during the initial token restore, and a token plus tri-state verification
// flag. The reachable states are:
//
//   - bootstrap:  Loading true, nothing known yet
//   - signed out: Token empty
//   - signed in:  Token set, Verified one of unknown/unverified/verified
//
// Transitions:
//
//  1. Bootstrap reads the persisted token; Loading becomes false exactly once.
//  2. SetAPIToken persists a fresh token and resets Verified to unknown.
//  3. RefreshUser resolves Verified from GET /auth/user.
//  4. ClearAPIToken (or a 401 during RefreshUser) signs the session out;
//     Verified always returns to unknown.
//  5. Device registration runs at most once per token generation,
//     asynchronously; failures are logged only.
//
// # Ordering
//
// Every token change bumps an internal generation counter. RefreshUser
// captures the generation before calling the server and discards the
// response if it no longer matches, so a late reply for a superseded token
// can never overwrite the new token's verification state.
//
// # Wiring
//
// The Store implements httpx.TokenProvider and constructs its own HTTP and
// auth-API clients (see New), so the request layer is configured by the
// session rather than the session reaching into a pre-built request layer.
package session
