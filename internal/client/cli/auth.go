package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/medkeeper/internal/client/client"
	"github.com/dmitrijs2005/medkeeper/internal/client/unlock"
	"github.com/dmitrijs2005/medkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errNotRegistered = errors.New("no session, register first")

// authenticator is the part of services.AuthService the CLI drives.
type authenticator interface {
	Register(ctx context.Context, userName string, password []byte) (*client.Session, error)
	Login(ctx context.Context, userName string, password []byte) (*client.Session, error)
	Restore(ctx context.Context) (userID, userName string, err error)
	Logout(ctx context.Context) error
}

// restoreSession loads a previously saved session so the user does not have
// to sign in again after a restart.
func (a *App) restoreSession(ctx context.Context) error {
	userID, userName, err := a.auth.Restore(ctx)
	if err != nil || userID == "" {
		return err
	}

	a.mu.Lock()
	a.userID, a.userName = userID, userName
	a.mu.Unlock()

	a.log.Info(ctx, "session restored", "user_id", userID)
	return nil
}

func (a *App) hasSession() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userID != ""
}

func (a *App) promptCredentials() (string, []byte, error) {
	userName, err := getSimpleText(a.reader, "Username:", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

// Register creates a user and its profile on the server and stores the
// returned session locally. The server assigns the profile's encryption
// salt; the master key is created on the first unlock.
func (a *App) Register(ctx context.Context) error {
	if a.hasSession() {
		printlnFn("Already signed in. Use 'logout' to start over.")
		return nil
	}

	userName, password, err := a.promptCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	sess, err := a.auth.Register(ctx, userName, password)
	if err != nil {
		switch {
		case errors.Is(err, client.ErrUnavailable):
			printlnFn("Server is unreachable, registration needs a connection.")
		case errors.Is(err, client.ErrUserExists):
			printlnFn("That username is taken.")
		case errors.Is(err, client.ErrInvalidArgument):
			printlnFn("Username or password is not acceptable.")
		default:
			printlnFn("Registration failed.")
		}
		a.log.Error(ctx, "registration failed", "error", err)
		return err
	}

	a.setSession(sess.UserID, userName)
	printlnFn("Success! Use 'unlock' to set up your master key.")
	return nil
}

// Login signs in to an existing user. A different user than the current
// one locks the session first.
func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.promptCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	sess, err := a.auth.Login(ctx, userName, password)
	if err != nil {
		switch {
		case errors.Is(err, client.ErrUnavailable):
			printlnFn("Server is unreachable, login needs a connection.")
		case errors.Is(err, client.ErrUnauthorized):
			printlnFn("Wrong username or password.")
		default:
			printlnFn("Login failed.")
		}
		a.log.Error(ctx, "login failed", "error", err)
		return err
	}

	a.mu.Lock()
	switched := a.userID != sess.UserID
	a.mu.Unlock()
	if switched {
		a.unlocker.Lock()
	}

	a.setSession(sess.UserID, userName)
	printlnFn("Signed in as " + userName + ".")
	return nil
}

func (a *App) setSession(userID, userName string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.userID != userID {
		a.failedAttempts = 0
	}
	a.userID, a.userName = userID, userName
}

// Unlock prompts for the password and runs one unlock attempt. The password
// is wiped before returning.
func (a *App) Unlock(ctx context.Context) error {
	if a.isUnlocked() {
		printlnFn("Already unlocked.")
		return nil
	}
	if !a.hasSession() {
		printlnFn("Please register or login first.")
		return errNotRegistered
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if a.config != nil && a.config.UnlockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.UnlockTimeout)
		defer cancel()
	}

	err = a.unlocker.AttemptUnlock(ctx, password)
	a.reportUnlock(ctx, err)
	return err
}

func (a *App) reportUnlock(ctx context.Context, err error) {
	switch {
	case err == nil:
		a.mu.Lock()
		a.failedAttempts = 0
		a.mu.Unlock()
		printlnFn("Unlocked.")

	case errors.Is(err, unlock.ErrWrongPassword):
		a.mu.Lock()
		a.failedAttempts++
		n := a.failedAttempts
		a.mu.Unlock()
		printlnFn(fmt.Sprintf("Wrong password (failed attempts: %d).", n))

	case errors.Is(err, unlock.ErrPersistence):
		printlnFn("Could not save your new master key. Nothing was changed, please try again when online.")

	case errors.Is(err, unlock.ErrProfileUnavailable):
		printlnFn("Profile is unavailable. Check your connection and try again.")

	case errors.Is(err, unlock.ErrSessionInvalid):
		a.unlocker.Lock()
		printlnFn("Your session has expired. Use 'login' to sign in again.")

	case errors.Is(err, unlock.ErrUnlockInProgress):
		printlnFn("An unlock is already in progress.")

	case errors.Is(err, unlock.ErrAttemptCancelled):
		printlnFn("Unlock was cancelled.")

	default:
		a.log.Error(ctx, "unlock failed", "error", err)
		printlnFn("Unlock failed, please try again.")
	}
}

// Lock drops the session keys. It is safe to call while locked.
func (a *App) Lock(ctx context.Context) error {
	a.unlocker.Lock()
	printlnFn("Locked.")
	return nil
}

// Logout locks the session, then removes the stored tokens and the cached
// profile from the local database.
func (a *App) Logout(ctx context.Context) error {
	a.unlocker.Lock()

	if err := a.auth.Logout(ctx); err != nil {
		a.log.Error(ctx, "failed to clear local data", "error", err)
		return err
	}

	a.mu.Lock()
	a.userID, a.userName = "", ""
	a.failedAttempts = 0
	a.mu.Unlock()

	printlnFn("Logged out.")
	return nil
}
