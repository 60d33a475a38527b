package unlock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/medkeeper/internal/common"
	"github.com/dmitrijs2005/medkeeper/internal/cryptox"
	"github.com/dmitrijs2005/medkeeper/internal/logging"
	"golang.org/x/sync/semaphore"
)

// Controller runs unlock attempts for one authenticated session.
//
// Only one attempt runs at a time; a concurrent AttemptUnlock is rejected
// with ErrUnlockInProgress. The keystore is mutated only at the very end of
// a successful attempt, after any required write to the profile store has
// been acknowledged.
type Controller struct {
	store ProfileStore
	keys  KeyStore
	kdf   KeyDeriver
	log   logging.Logger

	flight *semaphore.Weighted

	mu       sync.Mutex
	state    State
	onChange func(State)
}

func NewController(store ProfileStore, keys KeyStore, kdf KeyDeriver, log logging.Logger) *Controller {
	if log == nil {
		log = logging.NopLogger{}
	}
	return &Controller{
		store:  store,
		keys:   keys,
		kdf:    kdf,
		log:    log.With("module", "unlock"),
		flight: semaphore.NewWeighted(1),
		state:  Locked,
	}
}

// OnStateChange registers fn to be called on every state transition. fn is
// called synchronously from the goroutine driving the transition and must
// not call back into the Controller.
func (c *Controller) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsUnlocked reports whether the session keys are present.
func (c *Controller) IsUnlocked() bool {
	return c.keys.IsUnlocked()
}

// Lock clears the session keys. An attempt still running when Lock is
// called will not commit its keys.
func (c *Controller) Lock() {
	c.keys.Clear()
	c.setState(Locked)
	c.log.Info(context.Background(), "session locked")
}

// AttemptUnlock derives the personal key from password and either unwraps
// the stored master key or, for a profile without one, creates and persists
// a new wrapped master key.
//
// The password is not retained; the caller may wipe it once AttemptUnlock
// returns.
func (c *Controller) AttemptUnlock(ctx context.Context, password []byte) error {
	if !c.flight.TryAcquire(1) {
		return ErrUnlockInProgress
	}
	defer c.flight.Release(1)

	if c.keys.IsUnlocked() {
		c.setState(Unlocked)
		return nil
	}

	if len(password) == 0 {
		c.log.Error(ctx, "unlock called without a password")
		return fmt.Errorf("%w: empty password", ErrPrecondition)
	}

	gen := c.keys.Generation()

	c.setState(CheckingProfile)
	profile, err := c.store.ReadProfile(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return c.abandon(ctx)
		}
		if errors.Is(err, ErrSessionInvalid) {
			c.keys.Clear()
			c.setState(Failed)
			c.log.Warn(ctx, "session invalidated while reading profile")
			return err
		}
		c.setState(Failed)
		c.log.Error(ctx, "failed to read profile", "error", err)
		return fmt.Errorf("%w: %w", ErrProfileUnavailable, err)
	}

	if profile == nil || profile.EncryptionSalt == "" {
		c.setState(Locked)
		c.log.Error(ctx, "unlock called before a profile with a salt was loaded")
		return fmt.Errorf("%w: profile has no encryption salt", ErrPrecondition)
	}

	if profile.HasMasterKey() {
		return c.decrypt(ctx, gen, password, profile)
	}
	return c.firstTimeSetup(ctx, gen, password, profile)
}

func (c *Controller) decrypt(ctx context.Context, gen uint64, password []byte, profile *Profile) error {
	c.setState(Decrypting)

	personal, err := c.derive(ctx, password, profile.EncryptionSalt)
	if err != nil {
		return err
	}

	plain, err := cryptox.Decrypt(*profile.EncryptedUserMasterKey, personal)
	if err != nil {
		personal.Wipe()
		c.setState(Failed)
		c.log.Warn(ctx, "wrong password")
		return fmt.Errorf("%w: %w", ErrWrongPassword, err)
	}

	master, err := cryptox.ImportKey(string(plain))
	common.WipeByteArray(plain)
	if err != nil {
		personal.Wipe()
		c.setState(Failed)
		c.log.Error(ctx, "stored master key decrypted but is malformed")
		return fmt.Errorf("%w: %w", ErrWrongPassword, err)
	}

	return c.commit(ctx, gen, personal, master, "decrypt")
}

func (c *Controller) firstTimeSetup(ctx context.Context, gen uint64, password []byte, profile *Profile) error {
	c.setState(FirstTimeSetup)

	personal, err := c.derive(ctx, password, profile.EncryptionSalt)
	if err != nil {
		return err
	}

	master, err := cryptox.GenerateKey()
	if err != nil {
		personal.Wipe()
		c.setState(Failed)
		c.log.Error(ctx, "failed to generate master key", "error", err)
		return err
	}

	blob, err := wrap(master, personal)
	if err != nil {
		personal.Wipe()
		master.Wipe()
		c.setState(Failed)
		c.log.Error(ctx, "failed to wrap master key", "error", err)
		return err
	}

	if ctx.Err() != nil || c.keys.Generation() != gen {
		personal.Wipe()
		master.Wipe()
		return c.abandon(ctx)
	}

	if err := c.store.WriteEncryptedMasterKey(ctx, blob); err != nil {
		personal.Wipe()
		master.Wipe()
		if ctx.Err() != nil || c.keys.Generation() != gen {
			return c.abandon(ctx)
		}
		if errors.Is(err, ErrSessionInvalid) {
			c.keys.Clear()
			c.setState(Failed)
			c.log.Warn(ctx, "session invalidated while persisting master key")
			return err
		}
		c.setState(Failed)
		c.log.Error(ctx, "failed to persist encrypted master key", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return c.commit(ctx, gen, personal, master, "first_time_setup")
}

func (c *Controller) derive(ctx context.Context, password []byte, salt string) (cryptox.Key, error) {
	personal, err := c.kdf.DeriveContext(ctx, password, salt)
	if err == nil {
		return personal, nil
	}
	if ctx.Err() != nil {
		return nil, c.abandon(ctx)
	}
	if errors.Is(err, cryptox.ErrInvalidInput) {
		c.setState(Locked)
		c.log.Error(ctx, "key derivation rejected its input", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	c.setState(Failed)
	c.log.Error(ctx, "key derivation failed", "error", err)
	return nil, err
}

// commit installs the keys unless the attempt was abandoned in the meantime.
// Ownership of both keys passes to the keystore either way.
func (c *Controller) commit(ctx context.Context, gen uint64, personal, master cryptox.Key, path string) error {
	if ctx.Err() != nil {
		personal.Wipe()
		master.Wipe()
		return c.abandon(ctx)
	}

	ok, err := c.keys.SetIfGeneration(gen, personal, master)
	if err != nil {
		c.setState(Failed)
		c.log.Error(ctx, "failed to install session keys", "error", err)
		return err
	}
	if !ok {
		return c.abandon(ctx)
	}

	c.setState(Unlocked)
	c.log.Info(ctx, "unlock succeeded", "path", path)
	return nil
}

func (c *Controller) abandon(ctx context.Context) error {
	c.setState(Locked)
	c.log.Info(ctx, "unlock attempt abandoned")
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrAttemptCancelled, err)
	}
	return ErrAttemptCancelled
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	fn := c.onChange
	c.mu.Unlock()

	if prev == s {
		return
	}
	c.log.Debug(context.Background(), "state changed", "from", prev.String(), "to", s.String())
	if fn != nil {
		fn(s)
	}
}

func wrap(master, personal cryptox.Key) (string, error) {
	exported, err := cryptox.ExportKey(master)
	if err != nil {
		return "", err
	}
	plain := []byte(exported)
	defer common.WipeByteArray(plain)

	return cryptox.Encrypt(plain, personal)
}
