// Package authapi is a thin typed wrapper over the iMotr authentication
// endpoints. It performs no persistence and never swallows errors: every
// failure propagates unchanged as a *httpx.Error so callers can branch on
// the HTTP status.
package authapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/MayanSoftwareSolution/imotr-client/internal/httpx"
)

type Client struct {
	http *httpx.Client
}

func New(h *httpx.Client) *Client {
	return &Client{http: h}
}

// NormalizeEmail applies the canonical form used across the sign-in flows:
// trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, body RegisterBody) (*RegisterResponse, error) {
	res, err := c.http.Post(ctx, "/auth/register", body)
	if err != nil {
		return nil, err
	}
	var out RegisterResponse
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestMagicLink asks the server to email a sign-in link. The email is
// normalized before transmission.
func (c *Client) RequestMagicLink(ctx context.Context, email string) (*MagicLinkResponse, error) {
	res, err := c.http.Post(ctx, "/auth/magic-link", map[string]string{"email": NormalizeEmail(email)})
	if err != nil {
		return nil, err
	}
	var out MagicLinkResponse
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyMagicLink exchanges a plaintext magic-link token for a session token.
func (c *Client) VerifyMagicLink(ctx context.Context, plainToken string) (*VerifyMagicLinkResponse, error) {
	res, err := c.http.Post(ctx, "/auth/magic-link/verify", map[string]string{"token": plainToken})
	if err != nil {
		return nil, err
	}
	var out VerifyMagicLinkResponse
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestEmailVerification triggers sending of a 6-digit verification code
// to the authenticated user's email address.
func (c *Client) RequestEmailVerification(ctx context.Context) error {
	_, err := c.http.Get(ctx, "/auth/email/verification")
	return err
}

// SubmitEmailVerification submits a 6-digit verification code.
//
// The service contract fixes the wire field as an integer, so the code is
// coerced here, at the transport boundary only; everything above this call
// carries the code as the literal string the user typed.
func (c *Client) SubmitEmailVerification(ctx context.Context, code string) error {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("invalid verification code %q: %w", code, err)
	}
	_, err = c.http.Post(ctx, "/auth/email/verification", map[string]int{"email_verification_code": n})
	return err
}

// GetUser fetches the current user, including the email verification state.
func (c *Client) GetUser(ctx context.Context) (*Me, error) {
	res, err := c.http.Get(ctx, "/auth/user")
	if err != nil {
		return nil, err
	}
	var out Me
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PutUserDevice registers or updates the device record for this install.
// Idempotent on the server.
func (c *Client) PutUserDevice(ctx context.Context, uuid string, payload DevicePayload) error {
	_, err := c.http.Put(ctx, "/auth/user/devices/"+uuid, payload)
	return err
}

// Logout revokes the current session token.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.http.Do(ctx, "/auth/logout", httpx.RequestOptions{Method: http.MethodPost})
	return err
}

// LogoutAll revokes every session token of the current user.
func (c *Client) LogoutAll(ctx context.Context) error {
	_, err := c.http.Do(ctx, "/auth/logout/all", httpx.RequestOptions{Method: http.MethodPost})
	return err
}
