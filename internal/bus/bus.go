// Package bus delivers automation events to external observers (popup UI,
// logging taps) over an in-process publish/subscribe channel. Delivery is
// best effort: a subscriber that stops draining is disconnected and notified
// through its reconnect callback instead of ever blocking the state machine.
package bus

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/taptap-cli/internal/automation"
)

// defaultBuffer is the per-subscriber event buffer. Slow consumers get this
// much slack before they are considered stalled.
const defaultBuffer = 32

// Subscription is one observer's view of the event stream.
type Subscription struct {
	id uint64
	ch chan automation.Event

	// OnDisconnect runs (once, from the publisher goroutine) when the bus
	// evicts this subscriber. Observers use it to reconnect.
	OnDisconnect func()

	closed bool
}

// C returns the channel events arrive on. It is closed on disconnect.
func (s *Subscription) C() <-chan automation.Event {
	return s.ch
}

// Bus fans automation events out to subscribers.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
	log    *zap.Logger
}

// New creates an empty bus.
func New(logger *zap.Logger) *Bus {
	return &Bus{
		subs: make(map[uint64]*Subscription),
		log:  logger.Named("bus"),
	}
}

// Subscribe registers a new observer.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id: b.nextID,
		ch: make(chan automation.Event, defaultBuffer),
	}
	if b.closed {
		sub.closed = true
		close(sub.ch)
		return sub
	}
	b.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes an observer. Safe to call twice.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dropLocked(sub, false)
}

// Send delivers ev to every subscriber. A subscriber whose buffer is full is
// evicted and its reconnect callback invoked; the failure never propagates
// into the caller beyond the returned error, which is informational.
func (b *Bus) Send(ctx context.Context, ev automation.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("bus closed, dropping %s event", automation.Kind(ev))
	}

	for _, sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			b.log.Warn("subscriber stalled, disconnecting",
				zap.Uint64("subscriber", sub.id),
				zap.String("event", automation.Kind(ev)))
			b.dropLocked(sub, true)
		}
	}
	return nil
}

// Close shuts the bus down and disconnects every subscriber.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		b.dropLocked(sub, false)
	}
}

func (b *Bus) dropLocked(sub *Subscription, reconnect bool) {
	if sub.closed {
		return
	}
	sub.closed = true
	delete(b.subs, sub.id)
	close(sub.ch)
	if reconnect && sub.OnDisconnect != nil {
		go sub.OnDisconnect()
	}
}
