package automation

import (
	"sync"
	"time"
)

// Logical timer names. Exactly one timer may be registered per name; the
// registry cancels any prior handle when a name is reused.
const (
	timerTap             = "tap"
	timerCountdown       = "countdownReactivation"
	timerHumanSession    = "humanModeSession"
	timerHumanCooldown   = "humanModeCooldown"
	timerChatInactivity  = "chatInactivity"
	timerOutsideDebounce = "outsideClickDebounce"
)

// handle is the registry's opaque wrapper around a platform timer. Callers
// never see *time.Timer or *time.Ticker identifiers directly.
type handle struct {
	stop func()
	once sync.Once
}

func (h *handle) cancel() {
	h.once.Do(h.stop)
}

// Registry tracks every outstanding delayed or repeating action by name.
//
// All methods must be called with the core lock held. Fired callbacks
// re-acquire the lock and verify they are still the registered handle before
// running, so cancelling a handle before it fires reliably prevents that
// invocation even when the platform timer has already expired.
type Registry struct {
	mu      *sync.Mutex
	entries map[string]*handle

	// onCancelAll runs after CancelAll cancels every handle. The countdown
	// installs its notification-removal hook here.
	onCancelAll func()
}

func newRegistry(mu *sync.Mutex) *Registry {
	return &Registry{mu: mu, entries: make(map[string]*handle)}
}

// After schedules fn to run once after d, replacing any handle under name.
func (r *Registry) After(name string, d time.Duration, fn func()) {
	r.Cancel(name)
	h := &handle{}
	t := time.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.entries[name] != h {
			// Cancelled or replaced between expiry and lock acquisition.
			return
		}
		delete(r.entries, name)
		fn()
	})
	h.stop = func() { t.Stop() }
	r.entries[name] = h
}

// Every schedules fn to run repeatedly at interval d, replacing any handle
// under name. The repetition stops as soon as the handle is cancelled or
// replaced, including from within fn itself.
func (r *Registry) Every(name string, d time.Duration, fn func()) {
	r.Cancel(name)
	h := &handle{}
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	h.stop = func() {
		ticker.Stop()
		close(done)
	}
	r.entries[name] = h

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				r.mu.Lock()
				if r.entries[name] != h {
					r.mu.Unlock()
					return
				}
				fn()
				r.mu.Unlock()
			}
		}
	}()
}

// Cancel cancels and forgets the handle for name. Calling it for an absent or
// already-fired name is a no-op.
func (r *Registry) Cancel(name string) {
	if h, ok := r.entries[name]; ok {
		delete(r.entries, name)
		h.cancel()
	}
}

// Active reports whether a handle is currently registered under name.
func (r *Registry) Active(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// CancelAll cancels every registered handle and runs the countdown
// notification hook. Repeated calls produce no observable effect.
func (r *Registry) CancelAll() {
	for name, h := range r.entries {
		delete(r.entries, name)
		h.cancel()
	}
	if r.onCancelAll != nil {
		r.onCancelAll()
	}
}
