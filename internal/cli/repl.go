package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/MayanSoftwareSolution/imotr-client/internal/routing"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	screen() routing.Route
	Register(ctx context.Context) error
	Login(ctx context.Context, email string) error
	OpenLink(ctx context.Context, rawURL string) error
	Confirm(ctx context.Context) error
	Code(ctx context.Context, digits string) error
	Resend(ctx context.Context) error
	NotYou(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the iMotr client.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current screen (from statusFn) and accepts commands:
//
//	Sign-in screens:
//	  - help           — show available commands
//	  - register       — create an account
//	  - login <email>  — request a magic sign-in link
//	  - open <url>     — hand an inbound deep link to the app
//	  - confirm        — replay the stored pending link token
//	  - notyou         — abandon the pending sign-in
//	  - exit | quit    — leave the program
//
//	Verification screen:
//	  - code <digits>  — enter verification-code digits (bare digits also work)
//	  - resend         — request a fresh code (60 s cooldown)
//	  - notyou         — sign out and return to sign-in
//
//	Signed in:
//	  - whoami         — show the current user
//	  - logout         — sign out on this device
//	  - logout-all     — sign out everywhere
//
// Any errors returned by command handlers are ignored here; handlers print
// their own messages. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("imotr> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		arg := ""
		if len(parts) > 1 {
			arg = parts[1]
		}

		switch cmd {
		case "help":
			switch {
			case a.screen() == routing.RouteVerifyEmail:
				printlnFn("Available commands: code <digits>, resend, notyou, whoami, logout, exit")
			case routing.InAuthArea(a.screen()):
				printlnFn("Available commands: register, login <email>, open <url>, confirm, notyou, exit")
			default:
				printlnFn("Available commands: whoami, open <url>, logout, logout-all, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			if arg == "" {
				printlnFn("Usage: login <email>")
				continue
			}
			_ = a.Login(ctx, arg)

		case "open":
			if arg == "" {
				printlnFn("Usage: open <url>")
				continue
			}
			_ = a.OpenLink(ctx, arg)

		case "confirm":
			_ = a.Confirm(ctx)

		case "code":
			_ = a.Code(ctx, arg)

		case "resend":
			_ = a.Resend(ctx)

		case "notyou":
			_ = a.NotYou(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "logout-all":
			_ = a.LogoutAll(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			// bare digits on the verification screen feed the code input
			if a.screen() == routing.RouteVerifyEmail && isDigits(cmd) {
				_ = a.Code(ctx, cmd)
				continue
			}
			printlnFn("Unknown command:", cmd)
		}
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
