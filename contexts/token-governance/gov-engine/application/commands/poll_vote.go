package commands

import (
	"context"
	"strings"

	application "stakegov/contexts/token-governance/gov-engine/application"
	"stakegov/contexts/token-governance/gov-engine/domain/entities"
	domainerrors "stakegov/contexts/token-governance/gov-engine/domain/errors"
)

// CastVoteCommand records an immutable vote of Amount staked tokens. Height is
// the block height the relayer observed the vote at.
type CastVoteCommand struct {
	Voter  string
	PollID uint64
	Vote   entities.VoteOption
	Amount uint64
	Height uint64
}

// CastVoteResult echoes the recorded vote with the updated tallies.
type CastVoteResult struct {
	PollID   uint64
	Voter    string
	Vote     entities.VoteOption
	Amount   uint64
	YesVotes uint64
	NoVotes  uint64
}

// CastVote tallies Amount on the chosen side of an in-progress poll. The vote
// weight must be covered by the voter's quoted stake at cast time; the lock it
// leaves on the staker record is advisory and never blocks withdrawals.
// Casting a vote has no snapshot side effect; the denominator snapshot is
// taken only through SnapshotPoll.
func (uc PollUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	voter := strings.TrimSpace(cmd.Voter)
	logger.Info("vote cast processing started",
		"event", "gov_vote_cast_started",
		"module", "token-governance/gov-engine",
		"layer", "application",
		"poll_id", cmd.PollID,
		"voter", voter,
		"vote", string(cmd.Vote),
		"amount", cmd.Amount,
		"height", cmd.Height,
	)
	if voter == "" {
		return CastVoteResult{}, domainerrors.ErrUnauthorized
	}
	if !cmd.Vote.Valid() {
		logger.Warn("vote cast validation failed",
			"event", "gov_vote_cast_validation_failed",
			"module", "token-governance/gov-engine",
			"layer", "application",
			"poll_id", cmd.PollID,
			"voter", voter,
			"vote", string(cmd.Vote),
		)
		return CastVoteResult{}, domainerrors.ErrInvalidVoteOption
	}

	var result CastVoteResult
	err := runInTx(ctx, uc.Tx, func(ctx context.Context) error {
		poll, err := uc.Polls.GetPoll(ctx, cmd.PollID)
		if err != nil {
			return err
		}
		if !poll.InProgress() || cmd.Height > poll.EndHeight {
			return domainerrors.ErrPollNotInProgress
		}
		if _, voted, err := uc.Polls.GetVoter(ctx, cmd.PollID, voter); err != nil {
			return err
		} else if voted {
			return domainerrors.ErrAlreadyVoted
		}

		state, err := uc.Ledger.GetPoolState(ctx)
		if err != nil {
			return err
		}
		manager, found, err := uc.Ledger.GetStaker(ctx, voter)
		if err != nil {
			return err
		}
		if !found {
			manager = entities.NewTokenManager()
		}

		balance, err := uc.Token.Balance(ctx, state.PoolAddress)
		if err != nil {
			return err
		}
		totalBalance := saturatingSub(balance, state.TotalDeposit)
		quoted := entities.TokensForShare(manager.Share, totalBalance, state.TotalShare)
		if cmd.Amount > quoted {
			return domainerrors.ErrInsufficientStake
		}

		if cmd.Vote == entities.VoteOptionYes {
			poll.YesVotes += cmd.Amount
		} else {
			poll.NoVotes += cmd.Amount
		}
		poll.UpdatedAt = uc.now()

		info := entities.VoterInfo{Vote: cmd.Vote, Balance: cmd.Amount}
		if err := uc.Polls.SaveVoter(ctx, cmd.PollID, voter, info); err != nil {
			return err
		}
		manager.LockedBalance[cmd.PollID] = info
		if err := uc.Ledger.SaveStaker(ctx, voter, manager); err != nil {
			return err
		}
		if err := uc.Polls.SavePoll(ctx, poll); err != nil {
			return err
		}
		appender := outboxAppender{Outbox: uc.Outbox, IDGen: uc.IDGen}
		if err := appender.append(ctx, EventTypeVoteCast, "poll", pollEntityID(cmd.PollID), poll.UpdatedAt, map[string]any{
			"poll_id": cmd.PollID,
			"voter":   voter,
			"vote":    string(cmd.Vote),
			"amount":  cmd.Amount,
		}); err != nil {
			return err
		}
		result = CastVoteResult{
			PollID:   cmd.PollID,
			Voter:    voter,
			Vote:     cmd.Vote,
			Amount:   cmd.Amount,
			YesVotes: poll.YesVotes,
			NoVotes:  poll.NoVotes,
		}
		return nil
	})
	if err != nil {
		return CastVoteResult{}, err
	}

	logger.Info("vote cast recorded",
		"event", "gov_vote_cast_recorded",
		"module", "token-governance/gov-engine",
		"layer", "application",
		"poll_id", result.PollID,
		"voter", result.Voter,
		"vote", string(result.Vote),
		"amount", result.Amount,
	)
	return result, nil
}
