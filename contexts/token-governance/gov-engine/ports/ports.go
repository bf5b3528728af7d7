package ports

import (
	"context"
	"time"

	contractsv1 "stakegov/contracts/gen/events/v1"

	"stakegov/contexts/token-governance/gov-engine/domain/entities"
)

// ConfigRepository owns the singleton governance policy.
type ConfigRepository interface {
	GetConfig(ctx context.Context) (entities.Config, error)
	SaveConfig(ctx context.Context, cfg entities.Config) error
}

// LedgerRepository owns PoolState and the per-staker TokenManager records.
type LedgerRepository interface {
	GetPoolState(ctx context.Context) (entities.PoolState, error)
	SavePoolState(ctx context.Context, state entities.PoolState) error
	GetStaker(ctx context.Context, address string) (entities.TokenManager, bool, error)
	SaveStaker(ctx context.Context, address string, manager entities.TokenManager) error
}

// PollListFilter narrows ListPolls; nil fields mean "any".
type PollListFilter struct {
	Status     *entities.PollStatus
	StartAfter *uint64
	Limit      int
	Order      entities.OrderBy
}

// VoterListFilter narrows ListVoters; StartAfter is an exclusive cursor on
// the voter address.
type VoterListFilter struct {
	StartAfter string
	Limit      int
	Order      entities.OrderBy
}

// PollRepository owns Poll records and the owning copy of VoterInfo.
type PollRepository interface {
	GetPoll(ctx context.Context, pollID uint64) (entities.Poll, error)
	SavePoll(ctx context.Context, poll entities.Poll) error
	ListPolls(ctx context.Context, filter PollListFilter) ([]entities.Poll, error)
	GetVoter(ctx context.Context, pollID uint64, voter string) (entities.VoterInfo, bool, error)
	SaveVoter(ctx context.Context, pollID uint64, voter string, info entities.VoterInfo) error
	ListVoters(ctx context.Context, pollID uint64, filter VoterListFilter) ([]entities.PollVoter, error)
}

// TokenClient queries the external token contract.
type TokenClient interface {
	Balance(ctx context.Context, holder string) (uint64, error)
}

// EventEnvelope is the event shape carried through the outbox and the bus.
type EventEnvelope = contractsv1.Envelope

// OutboxMessage is a persisted, not-yet-published envelope. Sequence is a
// per-commit counter that keeps delegated calls in their stored order even
// when CreatedAt collides.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Sequence     uint64
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// EventDedup reserves consumed event ids so at-least-once delivery cannot
// apply a deposit twice. Returns true when the event was already reserved
// with the same payload hash.
type EventDedup interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

// UnitOfWork runs fn against a single atomic view of storage; every command
// mutates state inside exactly one WithinTx call.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
