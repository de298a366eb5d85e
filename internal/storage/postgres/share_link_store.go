package postgres

import (
	"context"
	"fmt"
	"time"

	"solana-avatar-lab/internal/domain"
	"solana-avatar-lab/internal/observability"
	"solana-avatar-lab/internal/storage"
)

// ShareLinkStore implements storage.ShareLinkStore using PostgreSQL.
type ShareLinkStore struct {
	pool *Pool
}

// NewShareLinkStore creates a new ShareLinkStore.
func NewShareLinkStore(pool *Pool) *ShareLinkStore {
	return &ShareLinkStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ShareLinkStore = (*ShareLinkStore)(nil)

// Insert adds a new share link. Returns ErrDuplicateKey if id exists.
func (s *ShareLinkStore) Insert(ctx context.Context, link *domain.ShareLink) error {
	if link == nil || link.ID == "" || link.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO share_links (id, address, created_at)
		VALUES ($1, $2, $3)
	`

	start := time.Now()
	_, err := s.pool.Exec(ctx, query, link.ID, link.Address, link.CreatedAt)
	if err != nil && isDuplicateKeyError(err) {
		observability.RecordDBQuery("postgres", "insert_share_link", time.Since(start).Seconds(), nil)
		return storage.ErrDuplicateKey
	}
	observability.RecordDBQuery("postgres", "insert_share_link", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("insert share link: %w", err)
	}
	return nil
}

// GetByID retrieves a share link by its id. Returns ErrNotFound if not exists.
func (s *ShareLinkStore) GetByID(ctx context.Context, id string) (*domain.ShareLink, error) {
	query := `
		SELECT id, address, created_at
		FROM share_links
		WHERE id = $1
	`

	start := time.Now()
	var link domain.ShareLink
	err := s.pool.QueryRow(ctx, query, id).Scan(&link.ID, &link.Address, &link.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			observability.RecordDBQuery("postgres", "get_share_link", time.Since(start).Seconds(), nil)
			return nil, storage.ErrNotFound
		}
		observability.RecordDBQuery("postgres", "get_share_link", time.Since(start).Seconds(), err)
		return nil, fmt.Errorf("get share link by id: %w", err)
	}
	observability.RecordDBQuery("postgres", "get_share_link", time.Since(start).Seconds(), nil)
	return &link, nil
}
