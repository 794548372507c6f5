package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func tempStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "nested", "taps.json")
}

func TestOpenFreshStoreStartsAtZero(t *testing.T) {
	t.Parallel()
	s, err := Open(tempStorePath(t), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Total())
}

func TestIncrementPersistsAndReloads(t *testing.T) {
	t.Parallel()
	path := tempStorePath(t)
	ctx := context.Background()

	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)

	// The first increment passes the limiter; the rest stay pending.
	for i := 0; i < 5; i++ {
		require.NoError(t, s.IncrementTotal(ctx))
	}
	assert.Equal(t, 5, s.Total())
	require.NoError(t, s.Flush(ctx))

	reopened, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 5, reopened.Total())
}

func TestThrottleDefersWritesUntilFlush(t *testing.T) {
	t.Parallel()
	path := tempStorePath(t)
	ctx := context.Background()

	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.IncrementTotal(ctx)) // written
	require.NoError(t, s.IncrementTotal(ctx)) // throttled

	first, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Total(), "second increment should still be pending")

	require.NoError(t, s.Flush(ctx))
	second, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Total())
}

func TestFlushWithoutPendingWritesIsNoOp(t *testing.T) {
	t.Parallel()
	path := tempStorePath(t)

	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Flush(context.Background()))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "clean store should not touch disk")
}

func TestCorruptFileStartsAtZeroWithWarning(t *testing.T) {
	t.Parallel()
	path := tempStorePath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	core, logs := observer.New(zapcore.WarnLevel)
	s, err := Open(path, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Total())
	assert.Equal(t, 1, logs.FilterMessage("state file unreadable, starting total at zero").Len())
}

func TestWriteIsAtomic(t *testing.T) {
	t.Parallel()
	path := tempStorePath(t)
	ctx := context.Background()

	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.IncrementTotal(ctx))

	// No temp file left behind after a completed write.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var snap snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, 1, snap.TotalTaps)
	assert.WithinDuration(t, time.Now().UTC(), snap.UpdatedAt, time.Minute)
}

func TestCancelledContextAbortsWrite(t *testing.T) {
	t.Parallel()
	s, err := Open(tempStorePath(t), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.IncrementTotal(ctx))
	// The increment itself still counted.
	assert.Equal(t, 1, s.Total())
}
