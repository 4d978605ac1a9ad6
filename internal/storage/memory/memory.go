// internal/storage/memory/memory.go
package memory

import (
	"sync"

	"github.com/skyroute/flightplanner/internal/config"
	"github.com/skyroute/flightplanner/internal/storage"
)

// Backend keeps plan snapshots in memory and exports saved plans to files
type Backend struct {
	cfg config.MemoryConfig

	latest *storage.Snapshot
	saved  []storage.Snapshot

	lastExportPath string
	mu             sync.RWMutex
}

var _ storage.Backend = (*Backend)(nil)
var _ storage.Exporter = (*Backend)(nil)

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// PublishPlan records the latest plan state
func (b *Backend) PublishPlan(s *storage.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := *s
	b.latest = &cp
	return nil
}

// SavePlan keeps the snapshot and exports it to the output directory
func (b *Backend) SavePlan(s *storage.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	path, err := b.export(s)
	if err != nil {
		return err
	}
	b.saved = append(b.saved, *s)
	b.lastExportPath = path
	return nil
}

// Latest returns the most recently published snapshot
func (b *Backend) Latest() (storage.Snapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.latest == nil {
		return storage.Snapshot{}, false
	}
	return *b.latest, true
}

// Saved returns every snapshot saved since startup, oldest first
func (b *Backend) Saved() []storage.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]storage.Snapshot, len(b.saved))
	copy(out, b.saved)
	return out
}

// GetExportedFilePath returns the path of the last exported file
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
