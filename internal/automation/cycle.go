package automation

import (
	"time"

	"go.uber.org/zap"
)

// Cycle drives the repeating tap action. A zero interval hands production
// over to the human-mode engine; anything else runs a fixed-interval timer.
// All methods require the core lock.
type Cycle struct {
	c     *core
	human *HumanEngine
}

// start begins tap production for the given interval. It always stops the
// previous production mode first so there is no window with two tap sources.
func (cy *Cycle) start(interval time.Duration) {
	cy.stop()

	if interval == 0 {
		cy.human.generateVariables()
		cy.human.startSession()
		return
	}

	cy.c.fireTap()
	cy.c.timers.Every(timerTap, interval, cy.c.fireTap)
	cy.c.log.Debug("fixed-interval cycle started", zap.Duration("interval", interval))
}

// stop halts tap production. Human mode is fully cleared; the caller keeps
// ownership of the Active flag.
func (cy *Cycle) stop() {
	if cy.c.state.Human.Enabled {
		cy.human.clear()
		return
	}
	cy.c.timers.Cancel(timerTap)
}
