package automation

import "time"

// State is the single authoritative record of the automation lifecycle. It is
// owned by the Coordinator and mutated only by Controller transitions and the
// HumanEngine while the core lock is held.
type State struct {
	// Active reports whether automation is currently producing tap events.
	Active bool
	// PausedByChat marks a suspension caused by chat interaction. It is
	// distinct from a manual off: auto-resume stays eligible.
	PausedByChat bool
	// ManuallyOff records an explicit user deactivation and suppresses every
	// automatic transition back to active.
	ManuallyOff bool

	// TapCount counts taps in the current session. Reset to zero when a
	// reactivation countdown expires.
	TapCount int

	// ReactivationDelay is the countdown length before automatic resume.
	// Clamped to [10s, 60s] by configuration.
	ReactivationDelay time.Duration

	Human HumanModeState
}

// HumanModeState tracks the session/cooldown cycle of human mode. Durations
// are re-randomized for every session; the Remaining fields are authoritative
// only while paused, otherwise remaining time derives from the phase start
// timestamp.
type HumanModeState struct {
	Enabled   bool
	InSession bool
	// PausedByChat mirrors the outer flag but scopes it to human-mode timers.
	PausedByChat bool

	SessionDuration  time.Duration
	TapInterval      time.Duration
	CooldownDuration time.Duration

	SessionRemaining  time.Duration
	CooldownRemaining time.Duration

	// Zero time means the phase never started.
	SessionStartedAt  time.Time
	CooldownStartedAt time.Time
}
