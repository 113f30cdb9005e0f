package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is replaced in tests to silence output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App implements
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Add(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, id string) error
	Edit(ctx context.Context, id string) error
	Toggle(ctx context.Context, id string, completed bool) error
	Delete(ctx context.Context, id string) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL reads commands from reader until EOF or "exit". Command prompts
// share the same reader, so interactive input stays in order.
//
//	Signed out:  help, register, login, status, exit
//	Signed in:   help, add, (l)ist [active|completed] [PRIORITY] [TEXT], show ID, edit ID, done ID, undo ID,
//	             delete ID, sync, status, logout, exit
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("gs %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		needsID := func() (string, bool) {
			if len(args) != 1 {
				printlnFn("Usage:", cmd, "ID")
				return "", false
			}
			return args[0], true
		}

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: add, (l)ist [active|completed] [low|medium|high] [text], show, edit, done, undo, delete, sync, status, logout, exit")
			} else {
				printlnFn("Available commands: register, login, status, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "add":
			cmdErr = a.Add(ctx)

		case "l", "list":
			cmdErr = a.List(ctx, args)

		case "show":
			if id, ok := needsID(); ok {
				cmdErr = a.Show(ctx, id)
			}

		case "edit":
			if id, ok := needsID(); ok {
				cmdErr = a.Edit(ctx, id)
			}

		case "done", "undo":
			if id, ok := needsID(); ok {
				cmdErr = a.Toggle(ctx, id, cmd == "done")
			}

		case "delete", "rm":
			if id, ok := needsID(); ok {
				cmdErr = a.Delete(ctx, id)
			}

		case "sync":
			cmdErr = a.Sync(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}

// Root restores the previous session, reports connectivity changes and runs
// the REPL on stdin until the user leaves.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to GophSync CLI (type 'help' for commands)")

	if s, err := a.engine.Restore(ctx); err != nil {
		printlnFn("Error:", err)
	} else if s.Active() {
		printlnFn("Welcome back,", s.Email)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.watchTransitions(watchCtx)

	runREPL(ctx, a, a.getStatus, a.reader)
}
