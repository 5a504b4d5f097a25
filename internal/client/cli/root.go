package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root runs the interactive loop. Commands read a line, dispatch on the
// first token, and handle their own errors; the loop itself never exits on
// a command failure.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to coachsync CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	go func() {
		a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}()

	for {
		fmt.Printf("coach %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: pull, (l)ist, log, complete, skip, metric, sync, logout, exit")
			} else {
				printlnFn("Available commands: register, login, (l)ist, exit")
			}

		case "register":
			_ = a.Register(ctx)
		case "login":
			_ = a.Login(ctx)
		case "refresh":
			_ = a.Refresh(ctx)
		case "pull":
			_ = a.Pull(ctx)
		case "l", "list":
			_ = a.List(ctx)
		case "log":
			_ = a.LogWorkout(ctx)
		case "complete":
			_ = a.CompleteWorkout(ctx)
		case "skip":
			_ = a.SkipWorkout(ctx)
		case "metric":
			_ = a.LogMetric(ctx)
		case "sync":
			_ = a.Sync(ctx)
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
