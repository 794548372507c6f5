package automation

// Event is the closed set of state-change notifications the core publishes.
// Adding a variant without extending Kind is a compile-time error at the
// exhaustive switch below.
type Event interface {
	isEvent()
}

// Started is published when automation begins producing taps.
type Started struct {
	Manual bool
}

// Stopped is published when automation stops producing taps.
type Stopped struct {
	Manual bool
}

// PausedByChat is published when chat interaction suspends automation.
type PausedByChat struct{}

// ReactivatedFromChat is published when a chat pause ends. Automatic is true
// when the reactivation countdown expired rather than the user resuming.
type ReactivatedFromChat struct {
	Automatic bool
}

// TapCountUpdated carries the current session tap counter.
type TapCountUpdated struct {
	Count int
}

func (Started) isEvent()             {}
func (Stopped) isEvent()             {}
func (PausedByChat) isEvent()        {}
func (ReactivatedFromChat) isEvent() {}
func (TapCountUpdated) isEvent()     {}

// Kind returns the wire name of an event variant.
func Kind(ev Event) string {
	switch ev.(type) {
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	case PausedByChat:
		return "paused_by_chat"
	case ReactivatedFromChat:
		return "reactivated_from_chat"
	case TapCountUpdated:
		return "updateTapTaps"
	}
	return "unknown"
}
