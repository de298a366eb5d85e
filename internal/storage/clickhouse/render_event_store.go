package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"solana-avatar-lab/internal/domain"
	"solana-avatar-lab/internal/observability"
	"solana-avatar-lab/internal/storage"
)

// RenderEventStore implements storage.RenderEventStore using ClickHouse.
type RenderEventStore struct {
	conn *Conn
}

// NewRenderEventStore creates a new RenderEventStore.
func NewRenderEventStore(conn *Conn) *RenderEventStore {
	return &RenderEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RenderEventStore = (*RenderEventStore)(nil)

// InsertBulk appends multiple events in a single batch.
func (s *RenderEventStore) InsertBulk(ctx context.Context, events []*domain.RenderEvent) (err error) {
	if len(events) == 0 {
		return nil
	}
	for _, e := range events {
		if e == nil || e.Address == "" || e.Renderer == "" {
			return storage.ErrInvalidInput
		}
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "insert_render_events", time.Since(start).Seconds(), err)
	}()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO render_events (
			address, renderer, format, balance, serial,
			rasterized, duration_ms, cache_hit, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		err = batch.Append(
			e.Address, e.Renderer, e.Format, e.Balance, e.Serial,
			e.Rasterized, e.DurationMs, e.CacheHit, e.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// Totals returns render counts per renderer, ordered by renderer ASC.
func (s *RenderEventStore) Totals(ctx context.Context) ([]domain.RenderTotals, error) {
	query := `
		SELECT renderer, toInt64(count()) AS renders, toInt64(countIf(cache_hit)) AS cache_hits
		FROM render_events
		GROUP BY renderer
		ORDER BY renderer ASC
	`

	start := time.Now()
	rows, err := s.conn.Query(ctx, query)
	observability.RecordDBQuery("clickhouse", "render_totals", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query render totals: %w", err)
	}
	defer rows.Close()

	var result []domain.RenderTotals
	for rows.Next() {
		var t domain.RenderTotals
		if err := rows.Scan(&t.Renderer, &t.Renders, &t.CacheHit); err != nil {
			return nil, fmt.Errorf("scan render totals: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// GetByAddress retrieves the most recent events for an address, newest first.
func (s *RenderEventStore) GetByAddress(ctx context.Context, address string, limit int) ([]*domain.RenderEvent, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT address, renderer, format, balance, serial,
			rasterized, duration_ms, cache_hit, timestamp_ms
		FROM render_events
		WHERE address = ?
		ORDER BY timestamp_ms DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, address, limit)
	if err != nil {
		return nil, fmt.Errorf("query render events by address: %w", err)
	}
	defer rows.Close()

	return scanRenderEvents(rows)
}

func scanRenderEvents(rows driver.Rows) ([]*domain.RenderEvent, error) {
	var result []*domain.RenderEvent
	for rows.Next() {
		var e domain.RenderEvent
		err := rows.Scan(
			&e.Address, &e.Renderer, &e.Format, &e.Balance, &e.Serial,
			&e.Rasterized, &e.DurationMs, &e.CacheHit, &e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan render event: %w", err)
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}
