package flows

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MayanSoftwareSolution/imotr-client/internal/common"
	"github.com/MayanSoftwareSolution/imotr-client/internal/credstore"
	"github.com/MayanSoftwareSolution/imotr-client/internal/httpx"
	"github.com/MayanSoftwareSolution/imotr-client/internal/logging"
	"github.com/MayanSoftwareSolution/imotr-client/internal/routing"
)

const (
	codeLength     = 6
	autoSubmitWait = 100 * time.Millisecond
	resendCooldown = 60 * time.Second
)

// CodeAPI is the slice of the auth service used by the code-entry flow.
type CodeAPI interface {
	RequestEmailVerification(ctx context.Context) error
	SubmitEmailVerification(ctx context.Context, code string) error
}

// VerifyCode drives the 6-digit email-verification screen: input cleaning,
// debounced auto-submit, resend cooldown, and the "not you" escape hatch.
//
// The code stays a string throughout so leading zeros survive until the
// transport boundary.
type VerifyCode struct {
	api   CodeAPI
	sess  SessionControl
	creds credstore.Store
	log   logging.Logger

	now       func() time.Time
	wait      time.Duration
	onSuccess func()

	mu            sync.Mutex
	code          string
	lastSubmitted string
	inFlight      bool
	message       string
	timer         *time.Timer
}

// NewVerifyCode builds the controller. onSuccess runs after a successful
// submission, typically to navigate away; it may be nil.
func NewVerifyCode(api CodeAPI, sess SessionControl, creds credstore.Store, log logging.Logger, onSuccess func()) *VerifyCode {
	return &VerifyCode{
		api:       api,
		sess:      sess,
		creds:     creds,
		log:       log,
		now:       time.Now,
		wait:      autoSubmitWait,
		onSuccess: onSuccess,
	}
}

// Code returns the current cleaned input value.
func (v *VerifyCode) Code() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.code
}

// InFlight reports whether a submission is currently running.
func (v *VerifyCode) InFlight() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.inFlight
}

// Message returns the current inline status/error text.
func (v *VerifyCode) Message() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

// Input replaces the entered value. Non-digits are stripped and the result
// truncated to six digits. Reaching six digits schedules an auto-submit,
// once per distinct literal value; dropping below six re-arms it.
func (v *VerifyCode) Input(s string) {
	cleaned := cleanDigits(s)

	v.mu.Lock()
	v.code = cleaned
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	if len(cleaned) < codeLength {
		v.lastSubmitted = ""
		v.mu.Unlock()
		return
	}
	if v.inFlight || cleaned == v.lastSubmitted {
		v.mu.Unlock()
		return
	}
	value := cleaned
	v.timer = time.AfterFunc(v.wait, func() {
		v.autoSubmit(value)
	})
	v.mu.Unlock()
}

// autoSubmit fires from the debounce timer. The value is re-checked
// against the current input and the reentrancy guards before submitting.
func (v *VerifyCode) autoSubmit(value string) {
	v.mu.Lock()
	if v.inFlight || v.code != value || v.lastSubmitted == value {
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()

	if err := v.submit(context.Background(), value); err != nil {
		v.log.Debug(context.Background(), "auto-submit failed", "error", err)
	}
}

// Submit sends the currently entered code.
func (v *VerifyCode) Submit(ctx context.Context) error {
	v.mu.Lock()
	code := v.code
	v.mu.Unlock()
	if len(code) < codeLength {
		v.setMessage("Enter the 6-digit code from your email.")
		return fmt.Errorf("code incomplete: %d digits", len(code))
	}
	return v.submit(ctx, code)
}

func (v *VerifyCode) submit(ctx context.Context, code string) error {
	v.mu.Lock()
	if v.inFlight {
		v.mu.Unlock()
		return common.ErrVerifyInFlight
	}
	v.inFlight = true
	v.lastSubmitted = code
	v.mu.Unlock()

	err := v.api.SubmitEmailVerification(ctx, code)

	v.mu.Lock()
	v.inFlight = false
	// a different complete code typed during the call is still pending;
	// give it its own auto-submit pass
	if pending := v.code; len(pending) == codeLength && pending != v.lastSubmitted {
		v.timer = time.AfterFunc(v.wait, func() {
			v.autoSubmit(pending)
		})
	}
	v.mu.Unlock()

	if err != nil {
		switch httpx.StatusOf(err) {
		case 422:
			v.setMessage("That code is not valid. Check it and try again.")
		case 429:
			v.setMessage("Too many attempts. Please wait before trying again.")
		default:
			v.setMessage("Verification failed. Check your connection and try again.")
		}
		// entered code intentionally kept so the user can correct it
		return err
	}

	v.sess.SetVerified(true)
	_ = v.creds.Delete(ctx, credstore.KeyRecentlyRegistered)
	_ = v.creds.Delete(ctx, credstore.KeyVerifyLastSentAt)
	v.setMessage("")
	if v.onSuccess != nil {
		v.onSuccess()
	}
	return nil
}

// Resend asks the server to email a fresh code, subject to a 60 second
// wall-clock cooldown that survives screen remounts.
func (v *VerifyCode) Resend(ctx context.Context) error {
	if remaining := v.RemainingCooldown(ctx, v.now()); remaining > 0 {
		v.setMessage(fmt.Sprintf("Please wait %d seconds before resending.", remaining))
		return common.ErrCooldownActive
	}

	if err := v.api.RequestEmailVerification(ctx); err != nil {
		switch httpx.StatusOf(err) {
		case 429:
			v.setMessage("Too many resend attempts. Please wait before trying again.")
		default:
			v.setMessage("Could not resend the code. Check your connection and try again.")
		}
		return err
	}

	if err := v.creds.Set(ctx, credstore.KeyVerifyLastSentAt, v.now().UTC().Format(time.RFC3339)); err != nil {
		v.log.Warn(ctx, "failed to persist resend timestamp", "error", err)
	}
	v.setMessage("A new code is on its way.")
	return nil
}

// RemainingCooldown computes the seconds left before another resend is
// allowed, clamped to zero. With no recorded send there is no cooldown.
func (v *VerifyCode) RemainingCooldown(ctx context.Context, now time.Time) int {
	raw, err := v.creds.Get(ctx, credstore.KeyVerifyLastSentAt)
	if err != nil || raw == "" {
		return 0
	}
	sentAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return 0
	}
	remaining := resendCooldown - now.Sub(sentAt)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Round(time.Second) / time.Second)
}

// NotYou performs a full sign-out, wiping the session token and every
// ephemeral flow key, and returns to the sign-in entry.
func (v *VerifyCode) NotYou(ctx context.Context) (routing.Route, error) {
	if err := v.sess.Logout(ctx); err != nil {
		return "", err
	}
	v.mu.Lock()
	v.code = ""
	v.lastSubmitted = ""
	v.message = ""
	v.mu.Unlock()
	return routing.RouteLogin, nil
}

func (v *VerifyCode) setMessage(s string) {
	v.mu.Lock()
	v.message = s
	v.mu.Unlock()
}

func cleanDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == codeLength {
				break
			}
		}
	}
	return b.String()
}
