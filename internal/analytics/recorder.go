// Package analytics buffers render events and writes them to the event store in batches.
package analytics

import (
	"context"
	"log/slog"
	"time"

	"solana-avatar-lab/internal/domain"
	"solana-avatar-lab/internal/observability"
	"solana-avatar-lab/internal/storage"
)

// Publisher receives every accepted event as it is recorded.
type Publisher interface {
	Publish(e *domain.RenderEvent)
}

// Recorder accepts render events without blocking the request path
// and flushes them to a RenderEventStore.
type Recorder struct {
	store         storage.RenderEventStore
	publisher     Publisher
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger

	events chan *domain.RenderEvent
	done   chan struct{}
}

// RecorderOptions contains configuration for creating a Recorder.
type RecorderOptions struct {
	Store         storage.RenderEventStore
	Publisher     Publisher     // optional live feed
	BufferSize    int           // Default: 1024 - events beyond this are dropped
	BatchSize     int           // Default: 100 - flush when this many events are pending
	FlushInterval time.Duration // Default: 5s - force flush pending events periodically
	Logger        *slog.Logger
}

// NewRecorder creates a new Recorder. Call Run to start flushing.
func NewRecorder(opts RecorderOptions) *Recorder {
	bufferSize := opts.BufferSize
	if bufferSize <= 0 {
		bufferSize = 1024
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	flushInterval := opts.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Recorder{
		store:         opts.Store,
		publisher:     opts.Publisher,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        logger,
		events:        make(chan *domain.RenderEvent, bufferSize),
		done:          make(chan struct{}),
	}
}

// Record enqueues an event. It never blocks: when the buffer is full the event is dropped.
func (r *Recorder) Record(e *domain.RenderEvent) {
	if e == nil {
		return
	}
	if r.publisher != nil {
		r.publisher.Publish(e)
	}

	select {
	case r.events <- e:
		observability.RecordEventRecorded()
	default:
		observability.RecordEventDropped()
	}
}

// Run flushes events until ctx is cancelled, then drains the buffer.
// It blocks until shutdown completes.
func (r *Recorder) Run(ctx context.Context) error {
	defer close(r.done)

	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	pending := make([]*domain.RenderEvent, 0, r.batchSize)

	for {
		select {
		case <-ctx.Done():
			// Drain whatever is buffered, then write it with a fresh context.
		drain:
			for {
				select {
				case e := <-r.events:
					pending = append(pending, e)
				default:
					break drain
				}
			}
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			r.flush(flushCtx, pending)
			cancel()
			return ctx.Err()

		case e := <-r.events:
			pending = append(pending, e)
			if len(pending) >= r.batchSize {
				r.flush(ctx, pending)
				pending = pending[:0]
			}

		case <-ticker.C:
			if len(pending) > 0 {
				r.flush(ctx, pending)
				pending = pending[:0]
			}
		}
	}
}

// Done is closed after Run returns.
func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

func (r *Recorder) flush(ctx context.Context, events []*domain.RenderEvent) {
	if len(events) == 0 {
		return
	}
	if err := r.store.InsertBulk(ctx, events); err != nil {
		r.logger.Warn("flush render events failed", "count", len(events), "error", err)
		return
	}
	observability.RecordEventsFlushed(len(events))
	r.logger.Debug("flushed render events", "count", len(events))
}
