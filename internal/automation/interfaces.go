package automation

import (
	"context"
	"time"
)

// TapEmitter performs the simulated key-press side effect. One call per tap.
// Errors are logged by the core and never interrupt the state machine.
type TapEmitter interface {
	EmitTap(ctx context.Context) error
}

// Store persists the lifetime tap total. Best effort: implementations may
// throttle writes, and callers swallow errors after logging them.
type Store interface {
	IncrementTotal(ctx context.Context) error
}

// Messenger notifies an external observer of state changes. Delivery failures
// (closed channel, invalidated context) must be absorbed by the
// implementation's reconnect path, never returned as panics.
type Messenger interface {
	Send(ctx context.Context, ev Event) error
}

// NotificationKind selects the visual treatment of an overlay notification.
type NotificationKind string

const (
	NoticeInfo      NotificationKind = "info"
	NoticeSuccess   NotificationKind = "success"
	NoticeCountdown NotificationKind = "countdown"
)

// NotificationRef identifies a visible notification. Zero means none.
type NotificationRef int64

// UISink is the presentation surface the core drives. Implementations must
// not block: the core invokes these while holding its lock.
type UISink interface {
	RefreshCounter(count int)
	SetButtonState(active bool)
	// ShowNotification displays text; ttl 0 keeps it until removed.
	ShowNotification(text string, kind NotificationKind, ttl time.Duration) NotificationRef
	UpdateNotification(ref NotificationRef, text string)
	RemoveNotification(ref NotificationRef)
}

// ChatLocator supplies the containment predicate for the chat input region.
// The detector consumes it to classify raw page clicks; DOM search strategy
// is the implementation's problem.
type ChatLocator interface {
	IsInsideChatRegion(x, y float64) bool
}
