package automation

import (
	"fmt"

	"go.uber.org/zap"
)

// Countdown is the visible reactivation countdown. It is guarded so at most
// one instance exists, and every tick re-validates the starting conditions so
// a countdown made stale by a manual toggle or a resumed chat cancels itself
// instead of firing. All methods require the core lock.
type Countdown struct {
	c *core

	remaining int
	note      NotificationRef

	// resume is the controller's resume path, set during wiring.
	resume func(automatic bool)
}

func newCountdown(c *core) *Countdown {
	cd := &Countdown{c: c}
	// CancelAll must also take down the in-flight notification element.
	c.timers.onCancelAll = cd.removeNote
	return cd
}

// begin starts the countdown. It refuses unless automation is chat-paused,
// not manually off, not active and no countdown is already registered.
func (cd *Countdown) begin(message string) {
	st := &cd.c.state
	if !st.PausedByChat || st.ManuallyOff || st.Active {
		cd.c.log.Debug("countdown refused, state not eligible",
			zap.Bool("paused_by_chat", st.PausedByChat),
			zap.Bool("manually_off", st.ManuallyOff),
			zap.Bool("active", st.Active))
		return
	}
	if cd.c.timers.Active(timerCountdown) {
		// Duplicate request, normal guard condition rather than an error.
		cd.c.log.Debug("countdown already running, begin skipped")
		return
	}

	cd.remaining = int(st.ReactivationDelay / cd.c.countdownTick)
	cd.note = cd.c.ui.ShowNotification(message, NoticeCountdown, 0)
	cd.c.timers.Every(timerCountdown, cd.c.countdownTick, cd.tick)
}

// tick runs once per second while the countdown is registered.
func (cd *Countdown) tick() {
	st := &cd.c.state
	// The state at begin time cannot be trusted here: a manual toggle or an
	// early resume may have happened underneath the running countdown.
	if !st.PausedByChat || st.ManuallyOff || st.Active {
		cd.c.log.Debug("countdown state changed mid-flight, cancelling")
		cd.cancel()
		return
	}

	cd.remaining--
	if cd.remaining > 0 {
		cd.c.ui.UpdateNotification(cd.note, fmt.Sprintf("Reactivating in %ds", cd.remaining))
		return
	}

	st.TapCount = 0
	cd.c.ui.RefreshCounter(0)
	cd.cancel()
	cd.resume(true)
}

// cancel stops the tick timer and removes the visible element. Safe to call
// in any phase, any number of times.
func (cd *Countdown) cancel() {
	cd.c.timers.Cancel(timerCountdown)
	cd.removeNote()
}

func (cd *Countdown) removeNote() {
	if cd.note != 0 {
		cd.c.ui.RemoveNotification(cd.note)
		cd.note = 0
	}
}
