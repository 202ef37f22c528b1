package events

import (
	"context"
	"log/slog"
	"time"
)

// Sink is where the outbox worker delivers entries. Satisfied by KafkaSink.
type Sink interface {
	Produce(ctx context.Context, key string, payload []byte) error
}

const (
	defaultPollInterval = time.Second
	defaultBatchSize    = 100
)

// Worker drains the postgres outbox into a Sink. Entries are marked
// published only after the sink acknowledges them, so delivery is
// at-least-once and consumers deduplicate on the event ID.
type Worker struct {
	store  *PostgresStore
	sink   Sink
	logger *slog.Logger

	pollInterval time.Duration
	batchSize    int
}

func NewWorker(store *PostgresStore, sink Sink, logger *slog.Logger) *Worker {
	return &Worker{
		store:        store,
		sink:         sink,
		logger:       logger,
		pollInterval: defaultPollInterval,
		batchSize:    defaultBatchSize,
	}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.publishBatch(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("outbox publish batch failed", "error", err)
			}
		}
	}
}

func (w *Worker) publishBatch(ctx context.Context) error {
	rows, err := w.store.unpublished(ctx, w.batchSize)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.sink.Produce(ctx, row.ID, row.Payload); err != nil {
			// Leave the entry unpublished; the next tick retries it.
			return err
		}
		if err := w.store.markPublished(ctx, row.ID); err != nil {
			return err
		}
	}
	return nil
}
