package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	application "stakegov/contexts/token-governance/gov-engine/application"
	"stakegov/contexts/token-governance/gov-engine/ports"
)

// OutboxRelay publishes persisted outbox records to the event bus. Records
// are replayed in append order so delegated calls of a single poll leave the
// engine in their stored order.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending outbox rows and marks each row
// published only after broker publish succeeds. It stops on the first failure
// so the retry loop can reprocess remaining rows safely.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("gov outbox list failed",
			"event", "gov_outbox_list_failed",
			"module", "token-governance/gov-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		logger.Debug("gov outbox relay found no pending rows",
			"event", "gov_outbox_relay_noop",
			"module", "token-governance/gov-engine",
			"layer", "worker",
			"batch_size", limit,
		)
		return nil
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Sequence < pending[j].Sequence
	})

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("gov outbox decode failed",
				"event", "gov_outbox_decode_failed",
				"module", "token-governance/gov-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("gov outbox publish failed",
				"event", "gov_outbox_publish_failed",
				"module", "token-governance/gov-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("gov outbox mark published failed",
				"event", "gov_outbox_mark_published_failed",
				"module", "token-governance/gov-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("gov outbox relay cycle completed",
		"event", "gov_outbox_relay_completed",
		"module", "token-governance/gov-engine",
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}
