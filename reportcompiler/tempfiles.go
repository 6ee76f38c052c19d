package reportcompiler

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tracker records the intermediate artifacts produced during one export
// call and removes them on request. Removal is best effort: files that are
// already gone or cannot be deleted are logged and skipped, and never
// affect the export outcome. Each export call gets its own Tracker.
type Tracker struct {
	mu     sync.Mutex
	paths  []string
	logger *zap.Logger
}

// NewTracker returns an empty tracker. A nil logger is replaced with a nop.
func NewTracker(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{logger: logger}
}

// Track registers an artifact for later disposal.
func (t *Tracker) Track(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths = append(t.paths, path)
}

// Paths returns a copy of the tracked artifact paths.
func (t *Tracker) Paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	paths := make([]string, len(t.paths))
	copy(paths, t.paths)
	return paths
}

// Dispose removes every tracked artifact now and clears the tracker.
func (t *Tracker) Dispose() {
	t.mu.Lock()
	paths := t.paths
	t.paths = nil
	t.mu.Unlock()

	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			t.logger.Debug("failed to remove artifact", zap.String("path", path), zap.Error(err))
		}
	}
}

// DisposeAfter schedules Dispose once delay has elapsed, giving concurrent
// readers of a freshly written document time to finish. A non-positive
// delay disposes immediately. The returned timer may be stopped to cancel
// a pending disposal.
func (t *Tracker) DisposeAfter(delay time.Duration) *time.Timer {
	if delay <= 0 {
		t.Dispose()
		return nil
	}
	return time.AfterFunc(delay, t.Dispose)
}
