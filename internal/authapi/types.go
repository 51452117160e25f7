package authapi

// RegisterBody is the payload of POST /auth/register.
type RegisterBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Language string `json:"language,omitempty"`
	Password string `json:"password"`
}

// RegisterResponse is the account created by POST /auth/register.
type RegisterResponse struct {
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Language      string `json:"language,omitempty"`
	EmailVerified *bool  `json:"email_verified,omitempty"`
}

// MagicLinkResponse is returned by POST /auth/magic-link. Depending on
// server configuration the plaintext token and its expiry may be included
// so the client can offer the manual "I've confirmed" path.
type MagicLinkResponse struct {
	Message   string `json:"message"`
	Token     string `json:"token,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// VerifyMagicLinkResponse carries the session token minted by
// POST /auth/magic-link/verify.
type VerifyMagicLinkResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// Me is the current user as reported by GET /auth/user.
//
// Servers expose the verification state either as the email_verified
// boolean or as an email_verified_at timestamp; both are kept so callers
// can fall back from one to the other.
type Me struct {
	UserID          string `json:"user_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Language        string `json:"language,omitempty"`
	EmailVerified   *bool  `json:"email_verified,omitempty"`
	EmailVerifiedAt string `json:"email_verified_at,omitempty"`
}

// DevicePayload is the device record sent to PUT /auth/user/devices/{uuid}.
// All fields are informational.
type DevicePayload struct {
	Name            *string `json:"name"`
	Platform        string  `json:"platform"`
	OperatingSystem string  `json:"operating_system"`
	OSVersion       string  `json:"os_version"`
	Manufacturer    string  `json:"manufacturer"`
	Model           string  `json:"model"`
	WebViewVersion  *string `json:"web_view_version"`
	AppVersion      *string `json:"app_version"`
	IsVirtual       bool    `json:"is_virtual"`
	PushToken       *string `json:"push_token"`
}
