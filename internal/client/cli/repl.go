package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/vanish/internal/client/viewer"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Create(ctx context.Context, args []string) error
	Info(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Claim(ctx context.Context, args []string) error
	Finalize(ctx context.Context, args []string) error
	View(ctx context.Context, args []string) error
	Revoke(ctx context.Context, args []string) error
	Report(ctx context.Context, args []string) error
	Screenshot(ctx context.Context, args []string) error
	URL(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Retry(ctx context.Context, args []string) error
}

var errUsage = errors.New("usage")

const helpText = `Available commands:
  login                         paste an access token
  upload <file>                 upload an image or video for the next create
  create [chat-id]              send protected media to a chat
  (l)ist <chat-id>              list media in a chat
  info <media-id>               show one item
  view <media-id> [tap|hold] [hold-ms]
                                claim and view with a live countdown
  claim <media-id>              claim a view without opening it
  finalize <media-id>           finish a claimed view
  revoke <media-id>             revoke your item for all recipients
  delete <media-id>             delete your item
  report <media-id> [reason]    report an item for review
  screenshot <media-id>         record a screenshot attempt
  url <media-id>                print the media reference
  retry                         deliver parked finalizes now
  exit | quit                   leave the program`

// runREPL starts a simple read–eval–print loop for the vanish CLI.
//
// It reads a line from reader, parses the first token as the command and
// dispatches the remaining tokens to methods on 'a'. The loop exits on EOF
// or when the user types "exit" or "quit". Command errors are printed with
// the UI state they map to and never stop the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("vanish %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			printlnFn(helpText)
			if !a.isLoggedIn() {
				printlnFn("Not logged in: run login first.")
			}
		case "login":
			cmdErr = a.Login(ctx, args)
		case "upload":
			cmdErr = a.Upload(ctx, args)
		case "create":
			cmdErr = a.Create(ctx, args)
		case "l", "list":
			cmdErr = a.List(ctx, args)
		case "info":
			cmdErr = a.Info(ctx, args)
		case "view":
			cmdErr = a.View(ctx, args)
		case "claim":
			cmdErr = a.Claim(ctx, args)
		case "finalize":
			cmdErr = a.Finalize(ctx, args)
		case "revoke":
			cmdErr = a.Revoke(ctx, args)
		case "delete":
			cmdErr = a.Delete(ctx, args)
		case "report":
			cmdErr = a.Report(ctx, args)
		case "screenshot":
			cmdErr = a.Screenshot(ctx, args)
		case "url":
			cmdErr = a.URL(ctx, args)
		case "retry":
			cmdErr = a.Retry(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn(describeError(cmdErr))
		}
		if err != nil {
			return
		}
	}
}

func describeError(err error) string {
	var u usageError
	if errors.As(err, &u) {
		return "Usage: " + u.usage
	}
	return fmt.Sprintf("[%s] %v", viewer.StateFor(err), err)
}

type usageError struct{ usage string }

func (u usageError) Error() string { return "usage: " + u.usage }
func (u usageError) Unwrap() error { return errUsage }

// oneArg returns the single required argument of a command.
func oneArg(args []string, usage string) (string, error) {
	if len(args) < 1 || args[0] == "" {
		return "", usageError{usage}
	}
	return args[0], nil
}
