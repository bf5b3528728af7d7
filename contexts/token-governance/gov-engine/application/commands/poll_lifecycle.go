package commands

import (
	"context"
	"sort"

	application "stakegov/contexts/token-governance/gov-engine/application"
	"stakegov/contexts/token-governance/gov-engine/domain/entities"
	domainerrors "stakegov/contexts/token-governance/gov-engine/domain/errors"
)

// SnapshotPollCommand pins the quorum denominator inside the snapshot window.
type SnapshotPollCommand struct {
	PollID uint64
	Height uint64
}

// SnapshotPollResult returns the pinned stake pool balance.
type SnapshotPollResult struct {
	PollID       uint64
	StakedAmount uint64
}

// EndPollCommand resolves a poll whose voting period has expired.
type EndPollCommand struct {
	PollID uint64
	Height uint64
}

// EndPollResult reports the resolution outcome.
type EndPollResult struct {
	PollID         uint64
	Status         entities.PollStatus
	RejectedReason string
	TalliedWeight  uint64
	StakedWeight   uint64
}

// ExecutePollCommand relays a passed poll's stored operations after timelock.
type ExecutePollCommand struct {
	PollID uint64
	Height uint64
}

// ExpirePollCommand retires a passed-but-never-executed poll.
type ExpirePollCommand struct {
	PollID uint64
	Height uint64
}

// SnapshotPoll records the current stake pool balance as the poll's quorum
// denominator. Only allowed inside the last cfg.SnapshotPeriod blocks of the
// voting period, and only once per poll.
func (uc PollUseCase) SnapshotPoll(ctx context.Context, cmd SnapshotPollCommand) (SnapshotPollResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	var result SnapshotPollResult
	err := runInTx(ctx, uc.Tx, func(ctx context.Context) error {
		cfg, err := uc.Config.GetConfig(ctx)
		if err != nil {
			return err
		}
		poll, err := uc.Polls.GetPoll(ctx, cmd.PollID)
		if err != nil {
			return err
		}
		if !poll.InProgress() || cmd.Height > poll.EndHeight {
			return domainerrors.ErrPollNotInProgress
		}
		if cmd.Height < saturatingSub(poll.EndHeight, cfg.SnapshotPeriod) {
			return domainerrors.ErrSnapshotWindowNotOpen
		}
		if poll.StakedAmount != nil {
			return domainerrors.ErrSnapshotAlreadyTaken
		}

		state, err := uc.Ledger.GetPoolState(ctx)
		if err != nil {
			return err
		}
		balance, err := uc.Token.Balance(ctx, state.PoolAddress)
		if err != nil {
			return err
		}
		staked := saturatingSub(balance, state.TotalDeposit)
		poll.StakedAmount = &staked
		poll.UpdatedAt = uc.now()
		if err := uc.Polls.SavePoll(ctx, poll); err != nil {
			return err
		}
		result = SnapshotPollResult{PollID: cmd.PollID, StakedAmount: staked}
		return nil
	})
	if err != nil {
		return SnapshotPollResult{}, err
	}

	logger.Info("poll snapshot taken",
		"event", "gov_poll_snapshot_taken",
		"module", "token-governance/gov-engine",
		"layer", "application",
		"poll_id", result.PollID,
		"staked_amount", result.StakedAmount,
		"height", cmd.Height,
	)
	return result, nil
}

// EndPoll resolves an in-progress poll after its voting period. Quorum is
// tallied weight over the snapshotted stake (or the live pool balance when no
// snapshot was taken); the pass threshold is strict yes over tallied. A passed
// poll refunds its deposit to the creator; a rejected one forfeits it.
func (uc PollUseCase) EndPoll(ctx context.Context, cmd EndPollCommand) (EndPollResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	var result EndPollResult
	err := runInTx(ctx, uc.Tx, func(ctx context.Context) error {
		cfg, err := uc.Config.GetConfig(ctx)
		if err != nil {
			return err
		}
		poll, err := uc.Polls.GetPoll(ctx, cmd.PollID)
		if err != nil {
			return err
		}
		if !poll.InProgress() {
			return domainerrors.ErrPollNotInProgress
		}
		if cmd.Height <= poll.EndHeight {
			return domainerrors.ErrVotingNotExpired
		}

		state, err := uc.Ledger.GetPoolState(ctx)
		if err != nil {
			return err
		}
		tallied := poll.TotalVotes()

		var staked uint64
		if state.TotalShare != 0 {
			if poll.StakedAmount != nil {
				staked = *poll.StakedAmount
			} else {
				balance, err := uc.Token.Balance(ctx, state.PoolAddress)
				if err != nil {
					return err
				}
				staked = saturatingSub(balance, state.TotalDeposit)
			}
		}

		now := uc.now()
		status := entities.PollStatusRejected
		reason := ""
		switch {
		case !entities.RatioReached(tallied, staked, cfg.Quorum):
			reason = entities.RejectedReasonQuorum
		case !entities.RatioExceeded(poll.YesVotes, tallied, cfg.Threshold):
			reason = entities.RejectedReasonThreshold
		default:
			status = entities.PollStatusPassed
		}

		appender := outboxAppender{Outbox: uc.Outbox, IDGen: uc.IDGen}
		if status == entities.PollStatusPassed && poll.DepositAmount > 0 {
			// Refund the escrowed deposit; a rejected poll forfeits it and the
			// escrow bucket keeps it excluded from the stake pool.
			state.TotalDeposit = saturatingSub(state.TotalDeposit, poll.DepositAmount)
			if err := uc.Ledger.SavePoolState(ctx, state); err != nil {
				return err
			}
			if err := appender.append(ctx, EventTypeTokenTransfer, "poll", pollEntityID(poll.PollID), now, TokenTransferPayload{
				Recipient: poll.Creator,
				Amount:    poll.DepositAmount,
			}); err != nil {
				return err
			}
		}

		poll.Status = status
		poll.RejectedReason = reason
		poll.TotalBalanceAtEndPoll = &staked
		poll.UpdatedAt = now
		if err := uc.Polls.SavePoll(ctx, poll); err != nil {
			return err
		}
		if err := appender.append(ctx, EventTypePollEnded, "poll", pollEntityID(poll.PollID), now, map[string]any{
			"poll_id":         poll.PollID,
			"status":          string(status),
			"rejected_reason": reason,
			"tallied_weight":  tallied,
			"staked_weight":   staked,
		}); err != nil {
			return err
		}
		result = EndPollResult{
			PollID:         poll.PollID,
			Status:         status,
			RejectedReason: reason,
			TalliedWeight:  tallied,
			StakedWeight:   staked,
		}
		return nil
	})
	if err != nil {
		return EndPollResult{}, err
	}

	logger.Info("poll ended",
		"event", "gov_poll_ended",
		"module", "token-governance/gov-engine",
		"layer", "application",
		"poll_id", result.PollID,
		"status", string(result.Status),
		"rejected_reason", result.RejectedReason,
		"tallied_weight", result.TalliedWeight,
		"staked_weight", result.StakedWeight,
	)
	return result, nil
}

// ExecutePoll relays the stored operations of a passed poll once the timelock
// has elapsed. Calls go out through the outbox in ascending stored order.
func (uc PollUseCase) ExecutePoll(ctx context.Context, cmd ExecutePollCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	err := runInTx(ctx, uc.Tx, func(ctx context.Context) error {
		cfg, err := uc.Config.GetConfig(ctx)
		if err != nil {
			return err
		}
		poll, err := uc.Polls.GetPoll(ctx, cmd.PollID)
		if err != nil {
			return err
		}
		if poll.Status != entities.PollStatusPassed {
			return domainerrors.ErrPollNotPassed
		}
		if cmd.Height < poll.EndHeight+cfg.TimelockPeriod {
			return domainerrors.ErrTimelockNotExpired
		}

		msgs := make([]entities.ExecuteMsg, len(poll.ExecuteMsgs))
		copy(msgs, poll.ExecuteMsgs)
		sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Order < msgs[j].Order })

		now := uc.now()
		appender := outboxAppender{Outbox: uc.Outbox, IDGen: uc.IDGen}
		for _, msg := range msgs {
			if err := appender.append(ctx, EventTypeDelegatedCall, "poll", pollEntityID(poll.PollID), now, DelegatedCallPayload{
				PollID:   poll.PollID,
				Order:    msg.Order,
				Contract: msg.Contract,
				Msg:      msg.Msg,
			}); err != nil {
				return err
			}
		}

		poll.Status = entities.PollStatusExecuted
		poll.UpdatedAt = now
		if err := uc.Polls.SavePoll(ctx, poll); err != nil {
			return err
		}
		return appender.append(ctx, EventTypePollExecuted, "poll", pollEntityID(poll.PollID), now, map[string]any{
			"poll_id":       poll.PollID,
			"message_count": len(msgs),
		})
	})
	if err != nil {
		return err
	}

	logger.Info("poll executed",
		"event", "gov_poll_executed",
		"module", "token-governance/gov-engine",
		"layer", "application",
		"poll_id", cmd.PollID,
		"height", cmd.Height,
	)
	return nil
}

// ExpirePoll retires a passed poll that was never executed once the
// expiration period has elapsed.
func (uc PollUseCase) ExpirePoll(ctx context.Context, cmd ExpirePollCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	err := runInTx(ctx, uc.Tx, func(ctx context.Context) error {
		cfg, err := uc.Config.GetConfig(ctx)
		if err != nil {
			return err
		}
		poll, err := uc.Polls.GetPoll(ctx, cmd.PollID)
		if err != nil {
			return err
		}
		if poll.Status != entities.PollStatusPassed {
			return domainerrors.ErrPollNotPassed
		}
		if cmd.Height < poll.EndHeight+cfg.ExpirationPeriod {
			return domainerrors.ErrExpirationNotReached
		}

		now := uc.now()
		poll.Status = entities.PollStatusExpired
		poll.UpdatedAt = now
		if err := uc.Polls.SavePoll(ctx, poll); err != nil {
			return err
		}
		appender := outboxAppender{Outbox: uc.Outbox, IDGen: uc.IDGen}
		return appender.append(ctx, EventTypePollExpired, "poll", pollEntityID(poll.PollID), now, map[string]any{
			"poll_id": poll.PollID,
		})
	})
	if err != nil {
		return err
	}

	logger.Info("poll expired",
		"event", "gov_poll_expired",
		"module", "token-governance/gov-engine",
		"layer", "application",
		"poll_id", cmd.PollID,
		"height", cmd.Height,
	)
	return nil
}
