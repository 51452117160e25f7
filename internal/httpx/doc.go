// Package httpx is the generic request layer of the iMotr client.
//
// # Overview
//
// Client joins a fixed base URL with request paths, attaches Accept and
// bearer-token headers, serializes JSON bodies, enforces per-request
// timeouts via context, and normalizes every failure into *Error.
//
// # Error Handling
//
// Failures carry a Kind and an HTTP status:
//
//   - KindNetwork, status 0  — DNS/connection/offline failures
//   - KindTimeout, status 408 — client-side timeout (synthetic status)
//   - KindStatus, any ≥ 400  — completed request, non-success status,
//     with the parsed body attached so callers can branch on it
//
// A successful response whose body is not JSON is not an error: the raw
// text is kept as Response.Data and downstream code must tolerate it.
//
// The token provider is injected at construction time (WithTokenProvider);
// the session store implements it, so the HTTP layer never reaches back
// into application state.
package httpx
