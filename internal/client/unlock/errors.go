package unlock

import "errors"

var (
	// ErrPrecondition means AttemptUnlock was called without a password or
	// before a profile with a salt was available. It is a caller bug.
	ErrPrecondition = errors.New("unlock precondition not met")

	// ErrWrongPassword means the stored master key could not be unwrapped
	// with the supplied password. It also wraps cryptox.ErrMalformedKey when
	// the blob decrypted but did not hold a valid key.
	ErrWrongPassword = errors.New("wrong password")

	// ErrPersistence means the freshly wrapped master key could not be
	// written to the profile store. The session stays locked.
	ErrPersistence = errors.New("failed to persist encrypted master key")

	// ErrProfileUnavailable means the profile could not be read.
	ErrProfileUnavailable = errors.New("profile unavailable")

	// ErrSessionInvalid is returned by a ProfileStore when the authenticated
	// session is no longer valid. The controller clears the keystore on it.
	ErrSessionInvalid = errors.New("session invalid")

	// ErrUnlockInProgress rejects an attempt while another one is running.
	ErrUnlockInProgress = errors.New("unlock already in progress")

	// ErrAttemptCancelled means the attempt was abandoned (context done or
	// Lock called) before it could commit. The keystore was not touched.
	ErrAttemptCancelled = errors.New("unlock attempt cancelled")
)
