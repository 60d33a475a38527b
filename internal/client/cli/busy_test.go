package cli

import (
	"bytes"
	"testing"

	"github.com/dmitrijs2005/medkeeper/internal/client/unlock"
	"github.com/stretchr/testify/assert"
)

func TestBusyLabel(t *testing.T) {
	assert.Contains(t, busyLabel(unlock.CheckingProfile), "checking")
	assert.Contains(t, busyLabel(unlock.FirstTimeSetup), "master key")
	assert.Contains(t, busyLabel(unlock.Decrypting), "unlocking")
	assert.Empty(t, busyLabel(unlock.Unlocked))
	assert.Empty(t, busyLabel(unlock.Failed))
}

func TestBusyIndicator_FollowsStates(t *testing.T) {
	var buf bytes.Buffer
	b := newBusyIndicator(&buf)

	for _, st := range []unlock.State{unlock.CheckingProfile, unlock.Decrypting, unlock.Unlocked, unlock.Locked} {
		b.update(st)
	}
	assert.False(t, b.s.Active())

	var nilIndicator *busyIndicator
	assert.NotPanics(t, func() { nilIndicator.update(unlock.Decrypting) })
}
