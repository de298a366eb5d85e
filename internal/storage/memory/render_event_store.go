package memory

import (
	"context"
	"sort"
	"sync"

	"solana-avatar-lab/internal/domain"
	"solana-avatar-lab/internal/storage"
)

// RenderEventStore is an in-memory implementation of storage.RenderEventStore.
type RenderEventStore struct {
	mu     sync.RWMutex
	events []*domain.RenderEvent
}

// NewRenderEventStore creates a new in-memory render event store.
func NewRenderEventStore() *RenderEventStore {
	return &RenderEventStore{}
}

// InsertBulk appends multiple events. Rejects the whole batch on a nil event.
func (s *RenderEventStore) InsertBulk(_ context.Context, events []*domain.RenderEvent) error {
	if len(events) == 0 {
		return nil
	}
	for _, e := range events {
		if e == nil || e.Address == "" || e.Renderer == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		eventCopy := *e
		s.events = append(s.events, &eventCopy)
	}
	return nil
}

// Totals returns render counts per renderer, ordered by renderer ASC.
func (s *RenderEventStore) Totals(_ context.Context) ([]domain.RenderTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byRenderer := make(map[string]*domain.RenderTotals)
	for _, e := range s.events {
		t, ok := byRenderer[e.Renderer]
		if !ok {
			t = &domain.RenderTotals{Renderer: e.Renderer}
			byRenderer[e.Renderer] = t
		}
		t.Renders++
		if e.CacheHit {
			t.CacheHit++
		}
	}

	result := make([]domain.RenderTotals, 0, len(byRenderer))
	for _, t := range byRenderer {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Renderer < result[j].Renderer
	})
	return result, nil
}

// GetByAddress retrieves the most recent events for an address, newest first.
func (s *RenderEventStore) GetByAddress(_ context.Context, address string, limit int) ([]*domain.RenderEvent, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RenderEvent
	for i := len(s.events) - 1; i >= 0 && len(result) < limit; i-- {
		if s.events[i].Address == address {
			eventCopy := *s.events[i]
			result = append(result, &eventCopy)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp > result[j].Timestamp
	})
	return result, nil
}

var _ storage.RenderEventStore = (*RenderEventStore)(nil)
