package automation

import (
	"time"

	"go.uber.org/zap"
)

// Randomization ranges for human mode, in milliseconds. Fixed intervals are
// trivially detectable; every session/cooldown pair draws fresh values so no
// periodic signature emerges.
const (
	sessionDurationMinMs = 27500
	sessionDurationMaxMs = 78350
	tapIntervalMinMs     = 200
	tapIntervalMaxMs     = 485
	cooldownMinMs        = 3565
	cooldownMaxMs        = 9295
)

// HumanEngine simulates irregular human tapping by alternating randomized
// tap-burst sessions with silent cooldowns. Idle is reached only through
// clear(). All methods require the core lock.
type HumanEngine struct {
	c *core
}

// generateVariables draws a fresh session duration, tap interval and cooldown
// duration and marks human mode enabled.
func (h *HumanEngine) generateVariables() {
	hm := &h.c.state.Human
	hm.Enabled = true
	hm.SessionDuration = h.randDuration(sessionDurationMinMs, sessionDurationMaxMs)
	hm.TapInterval = h.randDuration(tapIntervalMinMs, tapIntervalMaxMs)
	hm.CooldownDuration = h.randDuration(cooldownMinMs, cooldownMaxMs)
	h.c.log.Debug("human-mode variables generated",
		zap.Duration("session", hm.SessionDuration),
		zap.Duration("tap_interval", hm.TapInterval),
		zap.Duration("cooldown", hm.CooldownDuration))
}

// startSession fires one tap immediately, begins the repeating tap and
// schedules the session end after the full session duration.
func (h *HumanEngine) startSession() {
	hm := &h.c.state.Human
	h.c.fireTap()
	h.c.timers.Every(timerTap, hm.TapInterval, h.c.fireTap)
	hm.SessionStartedAt = h.c.now()
	hm.SessionRemaining = hm.SessionDuration
	hm.InSession = true
	h.c.timers.After(timerHumanSession, hm.SessionDuration, h.endSession)
}

func (h *HumanEngine) endSession() {
	hm := &h.c.state.Human
	h.c.timers.Cancel(timerTap)
	hm.InSession = false
	hm.CooldownStartedAt = h.c.now()
	hm.CooldownRemaining = hm.CooldownDuration
	h.c.timers.After(timerHumanCooldown, hm.CooldownDuration, h.endCooldown)
}

func (h *HumanEngine) endCooldown() {
	st := &h.c.state
	if !st.Human.Enabled || st.Human.PausedByChat || st.ManuallyOff {
		h.c.log.Debug("cooldown expired while ineligible, staying idle")
		return
	}
	// Fresh randomization every cycle, never a reuse of prior durations.
	h.generateVariables()
	h.startSession()
}

// pauseForChat snapshots the remaining time of whichever phase is running,
// cancels the human-mode timers and marks the scoped pause flag. Durations
// and the InSession flag survive for resumeFromChat.
func (h *HumanEngine) pauseForChat() {
	hm := &h.c.state.Human
	now := h.c.now()
	if hm.InSession && !hm.SessionStartedAt.IsZero() {
		hm.SessionRemaining = clampRemaining(hm.SessionRemaining - now.Sub(hm.SessionStartedAt))
	} else if !hm.CooldownStartedAt.IsZero() {
		hm.CooldownRemaining = clampRemaining(hm.CooldownRemaining - now.Sub(hm.CooldownStartedAt))
	}
	h.c.timers.Cancel(timerTap)
	h.c.timers.Cancel(timerHumanSession)
	h.c.timers.Cancel(timerHumanCooldown)
	hm.PausedByChat = true
}

// resumeFromChat continues the interrupted phase using the snapshotted
// remaining time rather than the original full duration.
func (h *HumanEngine) resumeFromChat() {
	hm := &h.c.state.Human
	hm.PausedByChat = false
	now := h.c.now()
	if hm.InSession {
		h.c.fireTap()
		h.c.timers.Every(timerTap, hm.TapInterval, h.c.fireTap)
		hm.SessionStartedAt = now
		h.c.timers.After(timerHumanSession, hm.SessionRemaining, h.endSession)
		return
	}
	hm.CooldownStartedAt = now
	h.c.timers.After(timerHumanCooldown, hm.CooldownRemaining, h.endCooldown)
}

// clear cancels every human-mode timer and resets the sub-state to Idle.
func (h *HumanEngine) clear() {
	h.c.timers.Cancel(timerTap)
	h.c.timers.Cancel(timerHumanSession)
	h.c.timers.Cancel(timerHumanCooldown)
	h.c.state.Human = HumanModeState{}
}

func (h *HumanEngine) randDuration(minMs, maxMs int) time.Duration {
	ms := minMs + h.c.rng.Intn(maxMs-minMs+1)
	return time.Duration(ms) * time.Millisecond
}

func clampRemaining(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
