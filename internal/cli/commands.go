package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/MayanSoftwareSolution/imotr-client/internal/authapi"
	"github.com/MayanSoftwareSolution/imotr-client/internal/common"
	"github.com/MayanSoftwareSolution/imotr-client/internal/credstore"
	"github.com/MayanSoftwareSolution/imotr-client/internal/routing"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the account details, creates the account and moves
// straight into the magic-link path so the user can sign in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter your name", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	normalized := authapi.NormalizeEmail(email)
	_, err = a.api.Register(ctx, authapi.RegisterBody{
		Name:     name,
		Email:    normalized,
		Password: string(password),
	})
	if err != nil {
		printlnFn("Registration failed:", err.Error())
		return err
	}

	if err := a.creds.Set(ctx, credstore.KeyRecentlyRegistered, "1"); err != nil {
		a.log.Warn(ctx, "failed to mark recent registration", "error", err)
	}
	printlnFn("Account created. Sending a sign-in link...")
	return a.Login(ctx, normalized)
}

// Login requests a magic link for the given email and moves to the
// check-email screen.
func (a *App) Login(ctx context.Context, email string) error {
	if err := a.magic.RequestLink(ctx, email); err != nil {
		printlnFn(a.magic.Message())
		return err
	}
	printlnFn("Check your email for a sign-in link. Use 'open <url>' or 'confirm' once done.")
	a.nav.Replace(routing.RouteCheckEmail)
	return nil
}

// OpenLink feeds an inbound deep link into the magic-link flow, covering
// both the running-app and cold-start delivery paths.
func (a *App) OpenLink(ctx context.Context, rawURL string) error {
	next, err := a.magic.HandleDeepLink(ctx, rawURL)
	if err != nil {
		printlnFn(a.magic.Message())
		return err
	}
	a.nav.Replace(next)
	return nil
}

// Confirm replays the locally stored pending link token.
func (a *App) Confirm(ctx context.Context) error {
	next, err := a.magic.ConfirmByEmail(ctx)
	if err != nil {
		printlnFn(a.magic.Message())
		return err
	}
	a.nav.Replace(next)
	return nil
}

// Code feeds digits into the verification-code flow.
func (a *App) Code(ctx context.Context, digits string) error {
	a.verify.Input(digits)
	if len(a.verify.Code()) < 6 {
		printlnFn(fmt.Sprintf("Code so far: %s", a.verify.Code()))
	}
	return nil
}

// Resend asks for a fresh verification code, subject to the cooldown.
func (a *App) Resend(ctx context.Context) error {
	if err := a.verify.Resend(ctx); err != nil {
		printlnFn(a.verify.Message())
		return err
	}
	printlnFn(a.verify.Message())
	return nil
}

// NotYou abandons the pending sign-in or verification, depending on the
// current screen.
func (a *App) NotYou(ctx context.Context) error {
	if a.nav.Current() == routing.RouteVerifyEmail {
		next, err := a.verify.NotYou(ctx)
		if err != nil {
			return err
		}
		a.nav.Replace(next)
		return nil
	}
	a.nav.Replace(a.magic.NotYou(ctx))
	return nil
}

// WhoAmI prints the current user as reported by the server.
func (a *App) WhoAmI(ctx context.Context) error {
	if !a.store.Snapshot().SignedIn() {
		printlnFn("Not signed in.")
		return common.ErrNotSignedIn
	}
	me, err := a.api.GetUser(ctx)
	if err != nil {
		printlnFn("Could not fetch user:", err.Error())
		return err
	}
	verified := "unverified"
	if me.EmailVerified != nil && *me.EmailVerified || me.EmailVerified == nil && me.EmailVerifiedAt != "" {
		verified = "verified"
	}
	printlnFn(fmt.Sprintf("%s <%s> (%s)", me.Name, me.Email, verified))
	return nil
}

// Logout revokes the current session and clears local state.
func (a *App) Logout(ctx context.Context) error {
	if err := a.store.Logout(ctx); err != nil {
		return err
	}
	printlnFn("Signed out.")
	return nil
}

// LogoutAll revokes every session of the current user.
func (a *App) LogoutAll(ctx context.Context) error {
	if err := a.store.LogoutAll(ctx); err != nil {
		return err
	}
	printlnFn("Signed out everywhere.")
	return nil
}
