package cli

import (
	"context"
	"strings"
)

func (a *App) getStatus() string {
	var parts []string
	if m := a.currentMode(); m != "" {
		parts = append(parts, string(m))
	}
	if !a.isLoggedIn() {
		parts = append(parts, "anonymous")
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Root prints the banner, asks for a token when none is configured and runs
// the REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to vanish CLI (type 'help' for commands)")

	if !a.isLoggedIn() {
		if err := a.Login(ctx, nil); err != nil {
			printlnFn(describeError(err))
		}
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}
