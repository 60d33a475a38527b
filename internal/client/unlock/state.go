package unlock

import "fmt"

// State is the position of a Controller in the unlock flow.
type State int

const (
	Locked State = iota
	CheckingProfile
	FirstTimeSetup
	Decrypting
	Unlocked
	Failed
)

func (s State) String() string {
	switch s {
	case Locked:
		return "Locked"
	case CheckingProfile:
		return "CheckingProfile"
	case FirstTimeSetup:
		return "FirstTimeSetup"
	case Decrypting:
		return "Decrypting"
	case Unlocked:
		return "Unlocked"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Busy reports whether s is one of the transient states an attempt passes
// through.
func (s State) Busy() bool {
	return s == CheckingProfile || s == FirstTimeSetup || s == Decrypting
}
