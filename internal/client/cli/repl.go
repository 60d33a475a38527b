package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isUnlocked() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	Status(ctx context.Context) error
	Seal(ctx context.Context) error
	Open(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the medkeeper CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF, when ctx is done, or when the user types
// "exit" or "quit".
//
//	Locked:
//	  - help           - show available commands
//	  - register       - create a user and profile on the server
//	  - login          - sign in to an existing user
//	  - unlock         - derive your keys from your password
//	  - status         - show lock state and connectivity
//	  - logout         - forget the local session
//	  - exit | quit    - leave the program
//
//	Unlocked, additionally:
//	  - seal           - encrypt a text under your master key
//	  - open           - decrypt a sealed text
//	  - lock           - drop the session keys
//
// Errors returned by command handlers are reported by the handlers
// themselves. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("mk %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isUnlocked() {
				printlnFn("Available commands: seal, open, lock, login, status, logout, exit")
			} else {
				printlnFn("Available commands: register, login, unlock, status, logout, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "unlock":
			_ = a.Unlock(ctx)

		case "lock":
			_ = a.Lock(ctx)

		case "status":
			_ = a.Status(ctx)

		case "seal":
			_ = a.Seal(ctx)

		case "open":
			_ = a.Open(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
