package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
)

var (
	lockedColor   = color.New(color.FgYellow)
	unlockedColor = color.New(color.FgGreen)
	offlineColor  = color.New(color.FgRed)
)

// getStatus renders the short prompt badge, e.g. "locked|online".
func (a *App) getStatus() string {
	lock := lockedColor.Sprint("locked")
	if a.isUnlocked() {
		lock = unlockedColor.Sprint("unlocked")
	}

	mode := a.Mode()
	if mode == "" {
		mode = ModeOffline
	}
	m := string(mode)
	if mode == ModeOffline {
		m = offlineColor.Sprint(m)
	}

	return lock + "|" + m
}

// Status prints the session details.
func (a *App) Status(ctx context.Context) error {
	a.mu.Lock()
	userID, userName, failed := a.userID, a.userName, a.failedAttempts
	a.mu.Unlock()

	if userID == "" {
		printlnFn("User: (not signed in)")
	} else {
		printlnFn("User:", userName, "("+userID+")")
	}
	printlnFn("State:", a.unlocker.State().String())
	mode := a.Mode()
	if mode == "" {
		mode = ModeOffline
	}
	printlnFn("Connection:", string(mode))
	if failed > 0 {
		printlnFn(fmt.Sprintf("Failed unlock attempts: %d", failed))
	}
	return nil
}
