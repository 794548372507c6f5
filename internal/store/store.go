// Package store persists the lifetime tap total to disk. Writes are
// throttled so a fast tap stream does not turn into a fast fsync stream;
// the latest total always lands on the next permitted flush or on Flush.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// persistInterval bounds how often the counter file is rewritten.
const persistInterval = 2 * time.Second

// snapshot is the on-disk format.
type snapshot struct {
	TotalTaps int       `json:"totalTaps"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FileStore keeps a running tap total backed by a JSON file.
type FileStore struct {
	mu      sync.Mutex
	path    string
	total   int
	dirty   bool
	limiter *rate.Limiter
	log     *zap.Logger
}

// Open loads the counter file at path, creating parent directories as
// needed. A missing or corrupt file starts the total at zero; corruption is
// logged and overwritten on the next write rather than treated as fatal.
func Open(path string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	s := &FileStore{
		path:    path,
		limiter: rate.NewLimiter(rate.Every(persistInterval), 1),
		log:     logger.Named("store"),
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run.
	case err != nil:
		return nil, fmt.Errorf("failed to read state file: %w", err)
	default:
		var snap snapshot
		if uerr := json.Unmarshal(data, &snap); uerr != nil {
			s.log.Warn("state file unreadable, starting total at zero",
				zap.String("path", path), zap.Error(uerr))
		} else {
			s.total = snap.TotalTaps
		}
	}
	return s, nil
}

// Total returns the lifetime tap total.
func (s *FileStore) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// IncrementTotal adds one tap to the lifetime total. The new value is
// persisted when the write limiter permits; otherwise it stays pending until
// a later increment or Flush.
func (s *FileStore) IncrementTotal(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.dirty = true

	if !s.limiter.Allow() {
		return nil
	}
	return s.writeLocked(ctx)
}

// Flush writes any pending total regardless of throttling. Call on shutdown.
func (s *FileStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	return s.writeLocked(ctx)
}

// writeLocked rewrites the counter file via a temp file and rename so readers
// never observe a partial write.
func (s *FileStore) writeLocked(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snapshot{TotalTaps: s.total, UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	s.dirty = false
	return nil
}
