package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spscricket/player-service/internal/repository"
)

// Publisher delivers one message to a broker topic. KafkaProducer implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// OutboxRelay drains the event_outbox table into the broker.
type OutboxRelay struct {
	tx          repository.Transactor
	outbox      repository.OutboxRepository
	publisher   Publisher
	logger      *slog.Logger
	topicPrefix string
	interval    time.Duration
	batchSize   int
}

// NewOutboxRelay creates a relay that polls every interval for up to batchSize events.
func NewOutboxRelay(
	tx repository.Transactor,
	outbox repository.OutboxRepository,
	publisher Publisher,
	logger *slog.Logger,
	topicPrefix string,
	interval time.Duration,
	batchSize int,
) *OutboxRelay {
	return &OutboxRelay{
		tx:          tx,
		outbox:      outbox,
		publisher:   publisher,
		logger:      logger,
		topicPrefix: topicPrefix,
		interval:    interval,
		batchSize:   batchSize,
	}
}

// Run polls until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) {
	r.logger.Info("outbox relay started", "interval", r.interval, "batch_size", r.batchSize, "topic_prefix", r.topicPrefix)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.RelayBatch(ctx); err != nil {
				r.logger.Error("outbox relay error", "error", err)
			}
		}
	}
}

// RelayBatch publishes one batch and deletes the events that were delivered.
// Events that fail to publish stay in the table for the next poll. Returns the
// number of events delivered.
func (r *OutboxRelay) RelayBatch(ctx context.Context) (int, error) {
	var published []int64
	err := r.tx.WithinTx(ctx, repository.ReadWrite, func(db repository.DBTX) error {
		events, err := r.outbox.FetchUnpublished(ctx, db, r.batchSize)
		if err != nil {
			return err
		}

		for _, e := range events {
			msg, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("marshal event %s: %w", e.EventID, err)
			}
			if err := r.publisher.Publish(ctx, e.Topic(r.topicPrefix), []byte(e.AggregateID), msg); err != nil {
				r.logger.Error("publish failed", "event_id", e.EventID, "topic", e.Topic(r.topicPrefix), "error", err)
				continue
			}
			published = append(published, e.SeqID)
		}

		return r.outbox.MarkPublished(ctx, db, published)
	})
	if err != nil {
		return 0, err
	}

	if len(published) > 0 {
		r.logger.Debug("outbox batch relayed", "published", len(published))
	}
	return len(published), nil
}
