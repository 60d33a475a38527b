package cli

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dmitrijs2005/medkeeper/internal/client/unlock"
)

// busyIndicator shows a spinner while the unlock controller is in one of its
// transient states. Key derivation can take a noticeable fraction of a second.
type busyIndicator struct {
	s *spinner.Spinner
}

func newBusyIndicator(w io.Writer) *busyIndicator {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	_ = s.Color("cyan")
	return &busyIndicator{s: s}
}

func busyLabel(st unlock.State) string {
	switch st {
	case unlock.CheckingProfile:
		return " checking profile..."
	case unlock.FirstTimeSetup:
		return " creating your master key..."
	case unlock.Decrypting:
		return " unlocking..."
	default:
		return ""
	}
}

func (b *busyIndicator) update(st unlock.State) {
	if b == nil {
		return
	}
	if !st.Busy() {
		b.s.Stop()
		return
	}

	b.s.Lock()
	b.s.Suffix = busyLabel(st)
	b.s.Unlock()

	if !b.s.Active() {
		b.s.Start()
	}
}
