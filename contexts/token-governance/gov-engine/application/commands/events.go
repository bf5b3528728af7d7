package commands

import (
	"context"
	"strconv"
	"time"

	"stakegov/contexts/token-governance/gov-engine/ports"
)

const (
	sourceService = "token-governance/gov-engine"

	// Effect envelopes: outbound work scheduled atomically with state.
	EventTypeTokenTransfer = "token.transfer"
	EventTypeDelegatedCall = "gov.delegated_call"

	// Lifecycle envelopes.
	EventTypePollCreated  = "gov.poll_created"
	EventTypeVoteCast     = "gov.vote_cast"
	EventTypePollEnded    = "gov.poll_ended"
	EventTypePollExecuted = "gov.poll_executed"
	EventTypePollExpired  = "gov.poll_expired"
)

// TokenTransferPayload instructs the token contract to move pool funds out
// (withdraw payout, deposit refund). Emission is at-least-once; the transfer
// result never rolls back engine state.
type TokenTransferPayload struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

// DelegatedCallPayload relays one stored poll operation to its target. Msg is
// opaque to the engine.
type DelegatedCallPayload struct {
	PollID   uint64 `json:"poll_id"`
	Order    uint64 `json:"order"`
	Contract string `json:"contract"`
	Msg      []byte `json:"msg"`
}

type outboxAppender struct {
	Outbox ports.OutboxWriter
	IDGen  ports.IDGenerator
}

// append writes one envelope to the outbox; nil Outbox is treated as no-op so
// pure read/test wiring stays valid.
func (a outboxAppender) append(
	ctx context.Context,
	eventType string,
	entityType string,
	entityID string,
	occurredAt time.Time,
	payload any,
) error {
	if a.Outbox == nil {
		return nil
	}
	eventID, err := a.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	return a.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:        eventID,
		EventType:      eventType,
		SourceService:  sourceService,
		OccurredAt:     occurredAt.UTC(),
		PartitionKey:   entityID,
		EntityType:     entityType,
		EntityID:       entityID,
		PayloadVersion: 1,
		Payload:        payload,
	})
}

func pollEntityID(pollID uint64) string {
	return strconv.FormatUint(pollID, 10)
}

func runInTx(ctx context.Context, tx ports.UnitOfWork, fn func(ctx context.Context) error) error {
	if tx == nil {
		return fn(ctx)
	}
	return tx.WithinTx(ctx, fn)
}
