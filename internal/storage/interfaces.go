package storage

import (
	"context"

	"solana-avatar-lab/internal/domain"
)

// ShareLinkStore provides access to share_links storage.
type ShareLinkStore interface {
	// Insert adds a new share link. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, link *domain.ShareLink) error

	// GetByID retrieves a share link by its id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.ShareLink, error)
}

// RenderEventStore provides access to render_events storage.
type RenderEventStore interface {
	// InsertBulk appends multiple events. Events have no key; duplicates are allowed.
	InsertBulk(ctx context.Context, events []*domain.RenderEvent) error

	// Totals returns render counts per renderer, ordered by renderer ASC.
	Totals(ctx context.Context) ([]domain.RenderTotals, error)

	// GetByAddress retrieves the most recent events for an address, newest first.
	GetByAddress(ctx context.Context, address string, limit int) ([]*domain.RenderEvent, error)
}
