package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"accessgate/pkg/platform/audit/store/postgres"
)

const (
	defaultBatchSize    = 100
	defaultPollInterval = 2 * time.Second
)

// OutboxStore is the outbox side of the postgres audit store.
type OutboxStore interface {
	FetchPending(ctx context.Context, limit int) ([]postgres.Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Producer delivers one record to the event bus.
type Producer interface {
	Produce(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// Worker relays outbox rows to the event bus. Rows are marked published only
// after the producer acknowledged them, so delivery is at-least-once.
type Worker struct {
	store    OutboxStore
	producer Producer
	logger   *slog.Logger

	batchSize    int
	pollInterval time.Duration
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

func NewWorker(store OutboxStore, producer Producer, opts ...Option) *Worker {
	w := &Worker{
		store:        store,
		producer:     producer,
		logger:       slog.Default(),
		batchSize:    defaultBatchSize,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		if _, err := w.RelayOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Warn("outbox relay failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes one batch and returns how many rows were delivered.
// Delivery stops at the first producer failure so ordering per batch holds.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	entries, err := w.store.FetchPending(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}

	delivered := make([]uuid.UUID, 0, len(entries))
	var produceErr error
	for _, e := range entries {
		headers := map[string]string{"event_type": e.EventType}
		if err := w.producer.Produce(ctx, e.AggregateID, e.Payload, headers); err != nil {
			produceErr = err
			break
		}
		delivered = append(delivered, e.ID)
	}

	if err := w.store.MarkPublished(ctx, delivered, time.Now()); err != nil {
		return 0, err
	}
	return len(delivered), produceErr
}
