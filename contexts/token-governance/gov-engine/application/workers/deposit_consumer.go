package workers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "stakegov/contexts/token-governance/gov-engine/application"
	"stakegov/contexts/token-governance/gov-engine/application/commands"
	"stakegov/contexts/token-governance/gov-engine/domain/entities"
	domainerrors "stakegov/contexts/token-governance/gov-engine/domain/errors"
	"stakegov/contexts/token-governance/gov-engine/ports"
)

const (
	tokenDepositTopic = "token.deposit"
	defaultDepositCG  = "gov-engine-deposit-cg"
)

// DepositConsumer applies token.deposit events: a deposit carrying a stake
// message mints shares, one carrying a create_poll message escrows the amount
// and opens a poll. Delivery is at-least-once, so every event passes the
// dedup gate before it mutates the ledger.
type DepositConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedup
	Ledger        commands.LedgerUseCase
	Polls         commands.PollUseCase
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Disabled      bool
	Logger        *slog.Logger
}

func (c DepositConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("deposit consumer disabled by feature flag",
			"event", "gov_deposit_consumer_disabled",
			"module", "token-governance/gov-engine",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultDepositCG
	}
	if err := c.Subscriber.Subscribe(ctx, tokenDepositTopic, group, c.handleDeposit); err != nil {
		logger.Error("deposit consumer subscribe failed",
			"event", "gov_deposit_consumer_subscribe_failed",
			"module", "token-governance/gov-engine",
			"layer", "worker",
			"topic", tokenDepositTopic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("deposit consumer subscription active",
		"event", "gov_deposit_consumer_started",
		"module", "token-governance/gov-engine",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c DepositConsumer) handleDeposit(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)

	var payload DepositEvent
	raw, err := decodePayload(event, &payload)
	if err != nil {
		logger.Error("token.deposit payload decode failed",
			"event", "gov_deposit_decode_failed",
			"module", "token-governance/gov-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(raw), c.now().Add(c.dedupTTL()))
	if err != nil {
		logger.Error("token.deposit dedupe failed",
			"event", "gov_deposit_dedupe_failed",
			"module", "token-governance/gov-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		logger.Debug("token.deposit replay skipped",
			"event", "gov_deposit_replayed",
			"module", "token-governance/gov-engine",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	switch {
	case payload.Msg.CreatePoll != nil:
		msg := payload.Msg.CreatePoll
		execMsgs := make([]entities.ExecuteMsg, 0, len(msg.ExecuteMsgs))
		for _, item := range msg.ExecuteMsgs {
			execMsgs = append(execMsgs, entities.ExecuteMsg{
				Order:    item.Order,
				Contract: item.Contract,
				Msg:      []byte(item.Msg),
			})
		}
		_, err = c.Polls.CreatePoll(ctx, commands.CreatePollCommand{
			Source:        payload.Token,
			Creator:       payload.Sender,
			DepositAmount: payload.Amount,
			Title:         msg.Title,
			Description:   msg.Description,
			Link:          msg.Link,
			ExecuteMsgs:   execMsgs,
			Height:        payload.Height,
		})
	case payload.Msg.Stake != nil:
		_, err = c.Ledger.Stake(ctx, commands.StakeCommand{
			Source: payload.Token,
			Staker: payload.Sender,
			Amount: payload.Amount,
		})
	default:
		err = domainerrors.ErrInvalidDepositMsg
	}
	if err != nil {
		logger.Error("token.deposit apply failed",
			"event", "gov_deposit_apply_failed",
			"module", "token-governance/gov-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"sender", strings.TrimSpace(payload.Sender),
			"amount", payload.Amount,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("token.deposit consumed",
		"event", "gov_deposit_consumed",
		"module", "token-governance/gov-engine",
		"layer", "worker",
		"event_id", event.EventID,
		"sender", strings.TrimSpace(payload.Sender),
		"amount", payload.Amount,
	)
	return nil
}

func (c DepositConsumer) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (c DepositConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}
