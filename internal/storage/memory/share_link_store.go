package memory

import (
	"context"
	"sync"

	"solana-avatar-lab/internal/domain"
	"solana-avatar-lab/internal/storage"
)

// ShareLinkStore is an in-memory implementation of storage.ShareLinkStore.
type ShareLinkStore struct {
	mu   sync.RWMutex
	byID map[string]*domain.ShareLink
}

// NewShareLinkStore creates a new in-memory share link store.
func NewShareLinkStore() *ShareLinkStore {
	return &ShareLinkStore{
		byID: make(map[string]*domain.ShareLink),
	}
}

// Insert adds a new share link. Returns ErrDuplicateKey if id exists.
func (s *ShareLinkStore) Insert(_ context.Context, link *domain.ShareLink) error {
	if link == nil || link.ID == "" || link.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[link.ID]; exists {
		return storage.ErrDuplicateKey
	}

	linkCopy := *link
	s.byID[link.ID] = &linkCopy
	return nil
}

// GetByID retrieves a share link by its id. Returns ErrNotFound if not exists.
func (s *ShareLinkStore) GetByID(_ context.Context, id string) (*domain.ShareLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, exists := s.byID[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	linkCopy := *link
	return &linkCopy, nil
}

var _ storage.ShareLinkStore = (*ShareLinkStore)(nil)
