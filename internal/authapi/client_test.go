package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MayanSoftwareSolution/imotr-client/internal/httpx"
)

type recorded struct {
	method string
	path   string
	body   []byte
	auth   string
}

func newTestClient(t *testing.T, status int, response string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		rec.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return New(httpx.New(srv.URL)), rec
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}

func TestRequestMagicLink_NormalizesEmail(t *testing.T) {
	c, rec := newTestClient(t, 200, `{"message":"sent","token":"plain-1","expires_at":"2026-09-01T10:00:00Z"}`)

	out, err := c.RequestMagicLink(context.Background(), "  User@Example.COM ")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/auth/magic-link", rec.path)
	assert.JSONEq(t, `{"email":"user@example.com"}`, string(rec.body))
	assert.Equal(t, "plain-1", out.Token)
	assert.Equal(t, "2026-09-01T10:00:00Z", out.ExpiresAt)
}

func TestVerifyMagicLink(t *testing.T) {
	c, rec := newTestClient(t, 200, `{"token":"session-1"}`)

	out, err := c.VerifyMagicLink(context.Background(), "plain-1")
	require.NoError(t, err)

	assert.Equal(t, "/auth/magic-link/verify", rec.path)
	assert.JSONEq(t, `{"token":"plain-1"}`, string(rec.body))
	assert.Equal(t, "session-1", out.Token)
}

func TestSubmitEmailVerification_SendsIntegerOnTheWire(t *testing.T) {
	c, rec := newTestClient(t, 200, `{"message":"ok"}`)

	require.NoError(t, c.SubmitEmailVerification(context.Background(), "482913"))

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/auth/email/verification", rec.path)

	var body map[string]json.Number
	dec := json.NewDecoder(bytes.NewReader(rec.body))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&body))
	assert.Equal(t, json.Number("482913"), body["email_verification_code"])
}

func TestSubmitEmailVerification_RejectsNonNumericCode(t *testing.T) {
	c, _ := newTestClient(t, 200, `{}`)
	err := c.SubmitEmailVerification(context.Background(), "12a456")
	require.Error(t, err)
}

func TestRequestEmailVerification_IsGet(t *testing.T) {
	c, rec := newTestClient(t, 200, `{"message":"sent"}`)

	require.NoError(t, c.RequestEmailVerification(context.Background()))
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/auth/email/verification", rec.path)
}

func TestGetUser(t *testing.T) {
	c, rec := newTestClient(t, 200, `{"user_id":"u1","email":"a@b.c","email_verified":false}`)

	me, err := c.GetUser(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/auth/user", rec.path)
	assert.Equal(t, "u1", me.UserID)
	require.NotNil(t, me.EmailVerified)
	assert.False(t, *me.EmailVerified)
}

func TestPutUserDevice(t *testing.T) {
	c, rec := newTestClient(t, 200, `{}`)

	payload := DevicePayload{
		Platform:        "linux",
		OperatingSystem: "linux",
		OSVersion:       "6.1",
		Manufacturer:    "unknown",
		Model:           "amd64",
		IsVirtual:       false,
	}
	require.NoError(t, c.PutUserDevice(context.Background(), "abc-123", payload))

	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/auth/user/devices/abc-123", rec.path)

	var sent DevicePayload
	require.NoError(t, json.Unmarshal(rec.body, &sent))
	assert.Equal(t, payload, sent)
}

func TestLogoutEndpoints(t *testing.T) {
	c, rec := newTestClient(t, 200, ``)

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, "/auth/logout", rec.path)
	assert.Equal(t, http.MethodPost, rec.method)

	require.NoError(t, c.LogoutAll(context.Background()))
	assert.Equal(t, "/auth/logout/all", rec.path)
}

func TestErrorsPropagateUnchanged(t *testing.T) {
	c, _ := newTestClient(t, 429, `{"message":"Too many requests."}`)

	_, err := c.RequestMagicLink(context.Background(), "a@b.c")
	require.Error(t, err)

	var apiErr *httpx.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.Status)
	assert.Equal(t, "Too many requests.", apiErr.DataMessage())
}
