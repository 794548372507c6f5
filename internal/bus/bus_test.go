package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/taptap-cli/internal/automation"
)

func TestSendFansOutToSubscribers(t *testing.T) {
	t.Parallel()
	b := New(zap.NewNop())
	defer b.Close()

	s1 := b.Subscribe()
	s2 := b.Subscribe()

	require.NoError(t, b.Send(context.Background(), automation.Started{Manual: true}))

	for _, s := range []*Subscription{s1, s2} {
		select {
		case ev := <-s.C():
			started, ok := ev.(automation.Started)
			require.True(t, ok)
			assert.True(t, started.Manual)
		case <-time.After(time.Second):
			t.Fatal("subscriber never received the event")
		}
	}
}

func TestStalledSubscriberIsEvictedAndReconnected(t *testing.T) {
	t.Parallel()
	b := New(zap.NewNop())
	defer b.Close()

	var mu sync.Mutex
	reconnected := false

	sub := b.Subscribe()
	sub.OnDisconnect = func() {
		mu.Lock()
		defer mu.Unlock()
		reconnected = true
	}

	// Never drain: overflow the buffer plus one to trigger eviction.
	for i := 0; i <= defaultBuffer; i++ {
		require.NoError(t, b.Send(context.Background(), automation.TapCountUpdated{Count: i}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reconnected
	}, time.Second, time.Millisecond)

	// The channel was closed on eviction; draining it terminates.
	for range sub.C() {
	}
}

func TestSendOnClosedBusReturnsError(t *testing.T) {
	t.Parallel()
	b := New(zap.NewNop())
	b.Close()

	err := b.Send(context.Background(), automation.Stopped{})
	assert.Error(t, err)
	// The state machine logs and swallows this; it must not panic upstream.
	assert.Contains(t, err.Error(), "closed")
}

func TestUnsubscribeTwiceIsSafe(t *testing.T) {
	t.Parallel()
	b := New(zap.NewNop())
	defer b.Close()

	sub := b.Subscribe()
	assert.NotPanics(t, func() {
		b.Unsubscribe(sub)
		b.Unsubscribe(sub)
	})
}

func TestEventKinds(t *testing.T) {
	t.Parallel()
	cases := map[string]automation.Event{
		"started":               automation.Started{},
		"stopped":               automation.Stopped{},
		"paused_by_chat":        automation.PausedByChat{},
		"reactivated_from_chat": automation.ReactivatedFromChat{},
		"updateTapTaps":         automation.TapCountUpdated{},
	}
	for want, ev := range cases {
		assert.Equal(t, want, automation.Kind(ev))
	}
}
