package automation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default delays for the chat detector and countdown. Fields on core so tests
// can shrink them; production code never changes them.
const (
	defaultInactivityDelay = 2000 * time.Millisecond
	defaultOutsideDebounce = 100 * time.Millisecond
	defaultCountdownTick   = time.Second
	collaboratorTimeout    = 5 * time.Second
)

// core is the explicit shared context passed to every component. It owns the
// single lock that serializes every public operation and timer callback, so
// state reads and writes inside one callback are atomic relative to all
// others. No mutation may span a blocking call.
type core struct {
	mu     sync.Mutex
	state  State
	timers *Registry

	interval time.Duration // fixed tap interval; 0 delegates to human mode

	inactivityDelay time.Duration
	outsideDebounce time.Duration
	countdownTick   time.Duration

	taps  TapEmitter
	store Store
	bus   Messenger
	ui    UISink

	rng *rand.Rand
	log *zap.Logger
	now func() time.Time

	// Event dispatch queue. Events reach the messenger in publish order, one
	// at a time; the drainer goroutine exists only while the queue is
	// non-empty.
	pubMu    sync.Mutex
	pubQueue []Event
	pubBusy  bool
}

// fireTap produces one tap: counter, UI refresh, event, key press and
// best-effort persistence. Called with the lock held; the side effects that
// can block run outside it.
func (c *core) fireTap() {
	c.state.TapCount++
	count := c.state.TapCount
	c.ui.RefreshCounter(count)
	c.publish(TapCountUpdated{Count: count})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
		defer cancel()
		if err := c.taps.EmitTap(ctx); err != nil {
			c.log.Warn("tap emission failed", zap.Error(err))
		}
		if err := c.store.IncrementTotal(ctx); err != nil {
			c.log.Warn("failed to persist tap total", zap.Error(err))
		}
	}()
}

// publish forwards an event to the messenger without blocking the caller.
// Delivery preserves publish order so subscribers observe state changes in
// the sequence they happened.
func (c *core) publish(ev Event) {
	c.pubMu.Lock()
	c.pubQueue = append(c.pubQueue, ev)
	if c.pubBusy {
		c.pubMu.Unlock()
		return
	}
	c.pubBusy = true
	c.pubMu.Unlock()

	go c.drainEvents()
}

// drainEvents delivers queued events one at a time and exits once the queue
// is empty. pubMu is never held across a Send.
func (c *core) drainEvents() {
	for {
		c.pubMu.Lock()
		if len(c.pubQueue) == 0 {
			c.pubBusy = false
			c.pubMu.Unlock()
			return
		}
		ev := c.pubQueue[0]
		c.pubQueue = c.pubQueue[1:]
		c.pubMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
		err := c.bus.Send(ctx, ev)
		cancel()
		if err != nil {
			c.log.Warn("event delivery failed",
				zap.String("event", Kind(ev)), zap.Error(err))
		}
	}
}

// Deps bundles the collaborators injected into the coordinator. Every field
// is optional; nil collaborators degrade to no-ops.
type Deps struct {
	Taps  TapEmitter
	Store Store
	Bus   Messenger
	UI    UISink
	Chat  ChatLocator

	Logger *zap.Logger
	Rand   *rand.Rand
	Now    func() time.Time
}

// Options carries the configuration surface the core consumes.
type Options struct {
	// Interval between taps; 0 selects human mode.
	Interval time.Duration
	// ReactivationDelay is clamped to [10s, 60s].
	ReactivationDelay time.Duration
}

// Coordinator owns the automation core and wires its components together.
type Coordinator struct {
	c          *core
	Controller *Controller
	Detector   *Detector
}

// New builds the coordination core around the given collaborators.
func New(opts Options, deps Deps) *Coordinator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	taps := deps.Taps
	if taps == nil {
		taps = nopCollaborator{}
	}
	st := deps.Store
	if st == nil {
		st = nopCollaborator{}
	}
	bus := deps.Bus
	if bus == nil {
		bus = nopCollaborator{}
	}
	ui := deps.UI
	if ui == nil {
		ui = nopCollaborator{}
	}

	c := &core{
		interval:        opts.Interval,
		inactivityDelay: defaultInactivityDelay,
		outsideDebounce: defaultOutsideDebounce,
		countdownTick:   defaultCountdownTick,
		taps:            taps,
		store:           st,
		bus:             bus,
		ui:              ui,
		rng:             rng,
		log:             logger.Named("automation"),
		now:             now,
	}
	c.timers = newRegistry(&c.mu)
	c.state.ReactivationDelay = clampReactivationDelay(opts.ReactivationDelay)

	human := &HumanEngine{c: c}
	cycle := &Cycle{c: c, human: human}
	countdown := newCountdown(c)
	controller := &Controller{c: c, cycle: cycle, human: human, countdown: countdown}
	countdown.resume = controller.resumeFromChatLocked
	detector := &Detector{c: c, controller: controller, countdown: countdown, chat: deps.Chat}

	return &Coordinator{c: c, Controller: controller, Detector: detector}
}

// Snapshot returns a copy of the current state for observers and tests.
func (co *Coordinator) Snapshot() State {
	co.c.mu.Lock()
	defer co.c.mu.Unlock()
	return co.c.state
}

// nopCollaborator stands in for any collaborator a caller leaves nil.
type nopCollaborator struct{}

func (nopCollaborator) EmitTap(context.Context) error        { return nil }
func (nopCollaborator) IncrementTotal(context.Context) error { return nil }
func (nopCollaborator) Send(context.Context, Event) error    { return nil }
func (nopCollaborator) RefreshCounter(int)                   {}
func (nopCollaborator) SetButtonState(bool)                  {}
func (nopCollaborator) ShowNotification(string, NotificationKind, time.Duration) NotificationRef {
	return 0
}
func (nopCollaborator) UpdateNotification(NotificationRef, string) {}
func (nopCollaborator) RemoveNotification(NotificationRef)         {}

func clampReactivationDelay(d time.Duration) time.Duration {
	switch {
	case d < 10*time.Second:
		return 10 * time.Second
	case d > 60*time.Second:
		return 60 * time.Second
	}
	return d
}
