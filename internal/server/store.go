package server

import (
	"sync"
	"time"

	"github.com/halkwu/opal-card/internal/domain"
)

// ResultStore is process-scoped fallback storage for the most recent
// successful extraction. Lifecycle: populated on each successful run, read by
// the last-result endpoint, cleared only by process restart.
type ResultStore struct {
	mu        sync.RWMutex
	populated bool
	snapshot  Snapshot
}

// Snapshot is one stored extraction result.
type Snapshot struct {
	RunID       string               `json:"runId"`
	CompletedAt time.Time            `json:"completedAt"`
	Entries     []domain.LedgerEntry `json:"transactions"`
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) Set(runID string, entries []domain.LedgerEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.populated = true
	s.snapshot = Snapshot{
		RunID:       runID,
		CompletedAt: time.Now().UTC(),
		Entries:     entries,
	}
}

func (s *ResultStore) Get() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot, s.populated
}
