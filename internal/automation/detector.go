package automation

import "strings"

const countdownMessage = "Chat idle, reactivating soon"

// Detector translates raw chat-interaction signals into pause and
// resume-candidate intents. It never mutates state itself; it asks the
// controller and countdown to do so.
type Detector struct {
	c          *core
	controller *Controller
	countdown  *Countdown
	chat       ChatLocator
}

// InteractionStart handles a focus, click or keydown on the chat input.
// Interaction always wins over a pending resume: any in-flight countdown and
// inactivity timers are cleared before the pause request.
func (d *Detector) InteractionStart() {
	d.c.mu.Lock()
	defer d.c.mu.Unlock()
	d.interactionStartLocked()
}

func (d *Detector) interactionStartLocked() {
	d.c.timers.Cancel(timerChatInactivity)
	d.c.timers.Cancel(timerOutsideDebounce)
	d.countdown.cancel()

	st := &d.c.state
	if !st.Active || st.ManuallyOff {
		return
	}
	d.controller.pauseForChatLocked()
}

// ContentChanged handles a mutation of the chat input's content while
// automation is chat-paused. Text in the box means the user is composing, so
// no resume countdown may start; an emptied box restarts the inactivity
// timer whose expiry begins the countdown.
func (d *Detector) ContentChanged(text string) {
	d.c.mu.Lock()
	defer d.c.mu.Unlock()

	if !d.c.state.PausedByChat {
		return
	}

	if strings.TrimSpace(text) != "" {
		d.c.timers.Cancel(timerChatInactivity)
		return
	}

	d.c.timers.After(timerChatInactivity, d.c.inactivityDelay, func() {
		d.countdown.begin(countdownMessage)
	})
}

// Click handles a raw page click at page coordinates. Clicks inside the chat
// region count as interaction; clicks outside it while paused request the
// reactivation countdown after a short debounce that avoids racing the click
// that just fired.
func (d *Detector) Click(x, y float64) {
	d.c.mu.Lock()
	defer d.c.mu.Unlock()

	if d.chat != nil && d.chat.IsInsideChatRegion(x, y) {
		d.interactionStartLocked()
		return
	}

	st := &d.c.state
	if !st.PausedByChat || st.ManuallyOff {
		return
	}
	if d.c.timers.Active(timerCountdown) {
		// A countdown is already visible; rapid outside clicks must not
		// stack another one.
		return
	}

	d.c.timers.After(timerOutsideDebounce, d.c.outsideDebounce, func() {
		d.countdown.begin(countdownMessage)
	})
}
