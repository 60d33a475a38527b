// Package keystore holds the session-scoped key state: the personal key
// derived from the user's password and the unwrapped master key.
//
// Both keys live only in memguard enclaves (encrypted, guarded memory) for
// the lifetime of an authenticated session. Nothing in this package ever
// writes key material to disk, a cache or a log.
package keystore

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/medkeeper/internal/cryptox"
)

var (
	// ErrLocked is returned by key accessors when no keys are present.
	ErrLocked = errors.New("session keys are locked")

	// ErrEmptyKey is returned by Set when either key is empty.
	ErrEmptyKey = errors.New("empty key")
)

// Store is the session key holder. Its state is all-or-nothing: either both
// keys are present (unlocked) or neither is (locked).
//
// A Store is safe for concurrent use. Create one per authenticated session.
type Store struct {
	mu       sync.RWMutex
	personal *memguard.Enclave
	master   *memguard.Enclave
	gen      uint64
}

// New returns a locked Store.
func New() *Store {
	return &Store{}
}

// Set installs both keys at once, replacing any previous pair.
//
// Set takes ownership of the slices: their contents are moved into guarded
// memory and the originals are wiped.
func (s *Store) Set(personal, master cryptox.Key) error {
	if len(personal) == 0 || len(master) == 0 {
		personal.Wipe()
		master.Wipe()
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.install(personal, master)
	return nil
}

// Generation returns a counter bumped by every Clear. An unlock attempt
// records it when it starts and commits with SetIfGeneration.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// SetIfGeneration installs both keys only if Clear has not been called
// since gen was observed. It reports whether the keys were installed; when
// they were not, the slices are wiped.
func (s *Store) SetIfGeneration(gen uint64, personal, master cryptox.Key) (bool, error) {
	if len(personal) == 0 || len(master) == 0 {
		personal.Wipe()
		master.Wipe()
		return false, ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen {
		personal.Wipe()
		master.Wipe()
		return false, nil
	}

	s.install(personal, master)
	return true, nil
}

// must be called with s.mu held for writing
func (s *Store) install(personal, master cryptox.Key) {
	// NewEnclave copies into guarded memory and wipes the source
	s.personal = memguard.NewEnclave(personal)
	s.master = memguard.NewEnclave(master)
}

// Clear synchronously drops both keys. No read that starts after Clear
// returns can observe the old keys.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.personal = nil
	s.master = nil
	s.gen++
}

// IsUnlocked reports whether both keys are present.
func (s *Store) IsUnlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.personal != nil && s.master != nil
}

// PersonalKey returns a copy of the personal key. The caller should Wipe it.
func (s *Store) PersonalKey() (cryptox.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return open(s.personal)
}

// MasterKey returns a copy of the master key. The caller should Wipe it.
func (s *Store) MasterKey() (cryptox.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return open(s.master)
}

// WithMasterKey calls fn with the master key without handing out a copy;
// the key is only valid for the duration of fn.
func (s *Store) WithMasterKey(fn func(key cryptox.Key) error) error {
	s.mu.RLock()
	enclave := s.master
	s.mu.RUnlock()

	if enclave == nil {
		return ErrLocked
	}

	buf, err := enclave.Open()
	if err != nil {
		return err
	}
	defer buf.Destroy()

	return fn(cryptox.Key(buf.Bytes()))
}

func open(e *memguard.Enclave) (cryptox.Key, error) {
	if e == nil {
		return nil, ErrLocked
	}
	buf, err := e.Open()
	if err != nil {
		return nil, err
	}
	defer buf.Destroy()

	return cryptox.Key(buf.Bytes()).Clone(), nil
}

// Purge wipes all guarded memory held by the process. Call it once on
// shutdown; Stores are unusable afterwards.
func Purge() {
	memguard.Purge()
}
