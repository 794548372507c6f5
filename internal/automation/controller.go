package automation

import (
	"time"

	"go.uber.org/zap"
)

// Controller is the single authority over the Active / PausedByChat /
// ManuallyOff flags. Every other component requests transitions through it.
// Each transition re-checks its preconditions at entry and degrades to a
// no-op when they fail, since user clicks, timer expirations and navigation
// callbacks can race to request the same transition.
type Controller struct {
	c         *core
	cycle     *Cycle
	human     *HumanEngine
	countdown *Countdown
}

// ToggleManual flips automation on or off at the user's request. A manual
// action always overrides a chat pause, clearing the pause and its timers
// before the flip.
func (ct *Controller) ToggleManual() {
	ct.c.mu.Lock()
	defer ct.c.mu.Unlock()

	st := &ct.c.state
	if st.PausedByChat {
		st.PausedByChat = false
		st.Human.PausedByChat = false
		ct.c.timers.Cancel(timerChatInactivity)
		ct.c.timers.Cancel(timerOutsideDebounce)
		ct.countdown.cancel()
	}

	if st.Active {
		st.Active = false
		st.ManuallyOff = true
		ct.cycle.stop()
		ct.c.ui.SetButtonState(false)
		ct.c.publish(Stopped{Manual: true})
		ct.c.log.Info("automation disabled by user")
		return
	}

	st.Active = true
	st.ManuallyOff = false
	ct.cycle.start(ct.c.interval)
	ct.c.ui.SetButtonState(true)
	ct.c.publish(Started{Manual: true})
	ct.c.log.Info("automation enabled by user", zap.Duration("interval", ct.c.interval))
}

// PauseForChat suspends automation because the user engaged the chat input.
// ManuallyOff stays false so auto-resume remains eligible.
func (ct *Controller) PauseForChat() {
	ct.c.mu.Lock()
	defer ct.c.mu.Unlock()
	ct.pauseForChatLocked()
}

func (ct *Controller) pauseForChatLocked() {
	st := &ct.c.state
	if !st.Active || st.PausedByChat {
		ct.c.log.Debug("chat pause skipped, not active or already paused")
		return
	}

	st.PausedByChat = true
	st.Active = false
	if st.Human.Enabled {
		ct.human.pauseForChat()
	} else {
		ct.c.timers.Cancel(timerTap)
	}
	ct.c.ui.SetButtonState(false)
	ct.c.publish(PausedByChat{})
	ct.c.log.Info("automation paused by chat interaction")
}

// ResumeFromChat ends a chat pause. It refuses while manually off, so no
// countdown expiry or outside click can reactivate a deliberately disabled
// automation.
func (ct *Controller) ResumeFromChat(automatic bool) {
	ct.c.mu.Lock()
	defer ct.c.mu.Unlock()
	ct.resumeFromChatLocked(automatic)
}

func (ct *Controller) resumeFromChatLocked(automatic bool) {
	st := &ct.c.state
	if !st.PausedByChat {
		ct.c.log.Debug("resume skipped, not chat-paused")
		return
	}
	if st.ManuallyOff {
		ct.c.log.Debug("resume skipped, manually off")
		return
	}

	st.PausedByChat = false
	st.Active = true
	// A countdown may only exist while chat-paused; a manual resume racing a
	// running countdown must take it down rather than leave it to the next
	// tick's re-validation.
	ct.countdown.cancel()
	ct.c.timers.Cancel(timerChatInactivity)
	ct.c.timers.Cancel(timerOutsideDebounce)
	// The interval mode can change while paused, so resume re-selects the
	// production mode from the current interval rather than the one that was
	// running at pause time.
	switch {
	case st.Human.Enabled && ct.c.interval == 0:
		ct.human.resumeFromChat()
	case st.Human.Enabled || ct.c.interval == 0:
		// Mode switched while paused; the snapshotted state is stale, so
		// start the newly selected mode fresh.
		ct.cycle.start(ct.c.interval)
	default:
		ct.c.timers.Every(timerTap, ct.c.interval, ct.c.fireTap)
	}
	ct.c.ui.SetButtonState(true)
	ct.c.publish(ReactivatedFromChat{Automatic: automatic})
	ct.c.log.Info("automation reactivated after chat pause",
		zap.Bool("automatic", automatic))
}

// SetInterval switches the configured tap interval. When automation is
// running the previous production mode stops before the new one starts, so no
// window exists where two tap sources run concurrently.
func (ct *Controller) SetInterval(interval time.Duration) {
	ct.c.mu.Lock()
	defer ct.c.mu.Unlock()

	ct.c.interval = interval
	st := &ct.c.state
	if st.Active && !st.PausedByChat {
		ct.cycle.start(interval)
	}
}

// SetReactivationDelay adjusts the countdown length, clamped to [10s, 60s].
func (ct *Controller) SetReactivationDelay(d time.Duration) {
	ct.c.mu.Lock()
	defer ct.c.mu.Unlock()
	ct.c.state.ReactivationDelay = clampReactivationDelay(d)
}

// CleanupAll is the idempotent teardown entrypoint. The navigation watcher
// calls it when the page context becomes invalid; the run command calls it on
// shutdown. Every timer is cancelled and all flags reset.
func (ct *Controller) CleanupAll() {
	ct.c.mu.Lock()
	defer ct.c.mu.Unlock()

	ct.c.timers.CancelAll()
	delay := ct.c.state.ReactivationDelay
	ct.c.state = State{ReactivationDelay: delay}
	ct.c.log.Info("automation core torn down")
}
