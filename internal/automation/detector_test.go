package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectorInteractionStartPauses(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{Interval: time.Hour, ReactivationDelay: 10 * time.Second})

	h.co.Controller.ToggleManual()
	h.co.Detector.InteractionStart()

	st := h.co.Snapshot()
	assert.True(t, st.PausedByChat)
	assert.False(t, st.Active)
	assert.False(t, h.timerActive(timerTap))
}

func TestDetectorInteractionCancelsPendingResume(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{Interval: time.Hour, ReactivationDelay: 10 * time.Second})

	h.co.Controller.ToggleManual()
	h.co.Detector.InteractionStart()

	// Idle chat starts the countdown...
	h.co.c.mu.Lock()
	h.co.Controller.countdown.begin("idle")
	h.co.c.mu.Unlock()
	require.True(t, h.timerActive(timerCountdown))

	// ...and renewed interaction wins over the pending resume.
	h.co.Detector.InteractionStart()
	assert.False(t, h.timerActive(timerCountdown))
	assert.False(t, h.timerActive(timerChatInactivity))
	assert.Equal(t, 0, h.ui.visibleNotes())
	assert.True(t, h.co.Snapshot().PausedByChat, "still paused, just no resume pending")
}

func TestDetectorContentChangedEmptyStartsInactivityTimer(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{Interval: time.Hour, ReactivationDelay: 10 * time.Second})

	h.co.Controller.ToggleManual()
	h.co.Detector.InteractionStart()

	h.co.Detector.ContentChanged("")
	assert.True(t, h.timerActive(timerChatInactivity))

	// Inactivity expiry hands over to the countdown.
	require.Eventually(t, func() bool {
		return h.timerActive(timerCountdown)
	}, time.Second, time.Millisecond)
	assert.False(t, h.timerActive(timerChatInactivity))
	assert.Equal(t, 1, h.ui.visibleNotes())
}

func TestDetectorContentChangedNonEmptyCancelsInactivityTimer(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{Interval: time.Hour, ReactivationDelay: 10 * time.Second})

	h.co.Controller.ToggleManual()
	h.co.Detector.InteractionStart()

	h.co.Detector.ContentChanged("")
	require.True(t, h.timerActive(timerChatInactivity))

	h.co.Detector.ContentChanged("hello chat")
	assert.False(t, h.timerActive(timerChatInactivity), "typing kills the resume countdown")

	time.Sleep(3 * h.co.c.inactivityDelay)
	assert.False(t, h.timerActive(timerCountdown), "no countdown while text is present")
}

func TestDetectorContentChangedIgnoredWhenNotPaused(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{Interval: time.Hour, ReactivationDelay: 10 * time.Second})

	h.co.Controller.ToggleManual()
	h.co.Detector.ContentChanged("")
	assert.False(t, h.timerActive(timerChatInactivity))
}

func TestDetectorOutsideClickBeginsCountdown(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{Interval: time.Hour, ReactivationDelay: 10 * time.Second})
	h.chat.inside = func(x, y float64) bool { return x < 100 && y < 100 }

	h.co.Controller.ToggleManual()
	h.co.Detector.InteractionStart()

	h.co.Detector.Click(500, 500)
	assert.True(t, h.timerActive(timerOutsideDebounce))

	require.Eventually(t, func() bool {
		return h.timerActive(timerCountdown)
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, h.ui.visibleNotes())
}

func TestDetectorRapidOutsideClicksOneCountdown(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{Interval: time.Hour, ReactivationDelay: 10 * time.Second})

	h.co.Controller.ToggleManual()
	h.co.Detector.InteractionStart()

	for i := 0; i < 10; i++ {
		h.co.Detector.Click(500, 500)
	}
	require.Eventually(t, func() bool {
		return h.timerActive(timerCountdown)
	}, time.Second, time.Millisecond)

	for i := 0; i < 10; i++ {
		h.co.Detector.Click(500, 500)
	}
	time.Sleep(5 * h.co.c.outsideDebounce)

	assert.Equal(t, 1, h.ui.visibleNotes(), "outside clicks must never stack countdowns")
	assert.True(t, h.timerActive(timerCountdown))
}

func TestDetectorClickInsideChatCountsAsInteraction(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{Interval: time.Hour, ReactivationDelay: 10 * time.Second})
	h.chat.inside = func(x, y float64) bool { return x < 100 && y < 100 }

	h.co.Controller.ToggleManual()
	h.co.Detector.Click(50, 50)

	st := h.co.Snapshot()
	assert.True(t, st.PausedByChat)
	assert.False(t, st.Active)
}

func TestDetectorOutsideClickIgnoredWhileManuallyOff(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{Interval: time.Hour, ReactivationDelay: 10 * time.Second})

	h.co.Controller.ToggleManual()
	h.co.Controller.ToggleManual()
	h.co.Detector.Click(500, 500)

	time.Sleep(3 * h.co.c.outsideDebounce)
	assert.False(t, h.timerActive(timerCountdown))
	assert.False(t, h.co.Snapshot().Active)
}

// Fuzz the event interleaving: whatever order chat signals, clicks, toggles
// and resumes arrive in, the core invariants must hold.
func FuzzDetectorEventSequences(f *testing.F) {
	f.Add([]byte{0, 1, 2, 3, 4, 5})
	f.Add([]byte{5, 4, 3, 2, 1, 0})
	f.Add([]byte{0, 0, 1, 1, 2, 2, 6, 6})

	f.Fuzz(func(t *testing.T, script []byte) {
		h := newHarness(t, Options{Interval: time.Hour, ReactivationDelay: 10 * time.Second})

		for _, op := range script {
			switch op % 7 {
			case 0:
				h.co.Controller.ToggleManual()
			case 1:
				h.co.Detector.InteractionStart()
			case 2:
				h.co.Detector.ContentChanged("")
			case 3:
				h.co.Detector.ContentChanged("typing")
			case 4:
				h.co.Detector.Click(500, 500)
			case 5:
				h.co.Controller.ResumeFromChat(true)
			case 6:
				h.co.Controller.PauseForChat()
			}

			st := h.co.Snapshot()
			if st.Active && st.PausedByChat {
				t.Fatal("active and chat-paused at the same time")
			}
			if st.ManuallyOff && st.Active {
				t.Fatal("active while manually off")
			}
			if !st.PausedByChat && h.timerActive(timerCountdown) {
				t.Fatal("countdown registered outside a chat pause")
			}
		}
	})
}
