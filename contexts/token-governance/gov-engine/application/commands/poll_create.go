package commands

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "stakegov/contexts/token-governance/gov-engine/application"
	"stakegov/contexts/token-governance/gov-engine/domain/entities"
	domainerrors "stakegov/contexts/token-governance/gov-engine/domain/errors"
	"stakegov/contexts/token-governance/gov-engine/ports"
)

// CreatePollCommand is the write-model input for poll creation. The deposit
// arrives through the token hook, so Source carries the reporting contract and
// DepositAmount the escrowed tokens. Height is the block height the relayer
// observed the hook at.
type CreatePollCommand struct {
	Source        string
	Creator       string
	DepositAmount uint64
	Title         string
	Description   string
	Link          string
	ExecuteMsgs   []entities.ExecuteMsg
	Height        uint64
}

// CreatePollResult returns the assigned id and the computed voting deadline.
type CreatePollResult struct {
	PollID    uint64
	Creator   string
	EndHeight uint64
}

// PollUseCase orchestrates the poll lifecycle: creation, voting, the explicit
// snapshot, and the end/execute/expire transitions. Every command takes the
// observed block height as input; the engine never reads an ambient height.
type PollUseCase struct {
	Config ports.ConfigRepository
	Ledger ports.LedgerRepository
	Polls  ports.PollRepository
	Token  ports.TokenClient
	Outbox ports.OutboxWriter
	Tx     ports.UnitOfWork
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// CreatePoll escrows the deposit and opens a poll for cfg.VotingPeriod blocks.
// Execute messages are stored sorted by ascending order so execution later is
// a straight replay.
func (uc PollUseCase) CreatePoll(ctx context.Context, cmd CreatePollCommand) (CreatePollResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	creator := strings.TrimSpace(cmd.Creator)
	logger.Info("poll create processing started",
		"event", "gov_poll_create_started",
		"module", "token-governance/gov-engine",
		"layer", "application",
		"creator", creator,
		"deposit_amount", cmd.DepositAmount,
		"height", cmd.Height,
	)
	if creator == "" {
		return CreatePollResult{}, domainerrors.ErrUnauthorized
	}
	if err := entities.ValidatePollText(cmd.Title, cmd.Description, cmd.Link); err != nil {
		logger.Warn("poll create validation failed",
			"event", "gov_poll_create_validation_failed",
			"module", "token-governance/gov-engine",
			"layer", "application",
			"creator", creator,
			"error", err.Error(),
		)
		return CreatePollResult{}, err
	}

	msgs := make([]entities.ExecuteMsg, len(cmd.ExecuteMsgs))
	copy(msgs, cmd.ExecuteMsgs)
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Order < msgs[j].Order })

	var result CreatePollResult
	err := runInTx(ctx, uc.Tx, func(ctx context.Context) error {
		cfg, err := uc.Config.GetConfig(ctx)
		if err != nil {
			return err
		}
		if cfg.Token == "" || strings.TrimSpace(cmd.Source) != cfg.Token {
			return domainerrors.ErrUnauthorized
		}
		if cmd.DepositAmount < cfg.ProposalDeposit {
			return domainerrors.ErrInsufficientDeposit
		}

		state, err := uc.Ledger.GetPoolState(ctx)
		if err != nil {
			return err
		}
		state.PollCount++
		state.TotalDeposit += cmd.DepositAmount

		now := uc.now()
		poll := entities.Poll{
			PollID:        state.PollCount,
			Creator:       creator,
			Status:        entities.PollStatusInProgress,
			EndHeight:     cmd.Height + cfg.VotingPeriod,
			Title:         strings.TrimSpace(cmd.Title),
			Description:   strings.TrimSpace(cmd.Description),
			Link:          strings.TrimSpace(cmd.Link),
			DepositAmount: cmd.DepositAmount,
			ExecuteMsgs:   msgs,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := uc.Polls.SavePoll(ctx, poll); err != nil {
			return err
		}
		if err := uc.Ledger.SavePoolState(ctx, state); err != nil {
			return err
		}
		appender := outboxAppender{Outbox: uc.Outbox, IDGen: uc.IDGen}
		if err := appender.append(ctx, EventTypePollCreated, "poll", pollEntityID(poll.PollID), now, map[string]any{
			"poll_id":        poll.PollID,
			"creator":        poll.Creator,
			"end_height":     poll.EndHeight,
			"deposit_amount": poll.DepositAmount,
		}); err != nil {
			return err
		}
		result = CreatePollResult{PollID: poll.PollID, Creator: poll.Creator, EndHeight: poll.EndHeight}
		return nil
	})
	if err != nil {
		return CreatePollResult{}, err
	}

	logger.Info("poll created",
		"event", "gov_poll_created",
		"module", "token-governance/gov-engine",
		"layer", "application",
		"poll_id", result.PollID,
		"creator", result.Creator,
		"end_height", result.EndHeight,
	)
	return result, nil
}

func (uc PollUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
