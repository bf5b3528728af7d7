package commands_test

import (
	"context"
	"errors"
	"testing"

	"stakegov/contexts/token-governance/gov-engine/application/commands"
	"stakegov/contexts/token-governance/gov-engine/domain/entities"
	domainerrors "stakegov/contexts/token-governance/gov-engine/domain/errors"
)

func TestCreatePollEscrowsDeposit(t *testing.T) {
	module := newTestModule(t)

	poll := createPoll(t, module, "carol", 1500, 5)
	if poll.PollID != 1 {
		t.Fatalf("expected poll id 1, got %d", poll.PollID)
	}
	if poll.EndHeight != 105 {
		t.Fatalf("expected end height 105, got %d", poll.EndHeight)
	}

	state, err := module.Store.GetPoolState(context.Background())
	if err != nil {
		t.Fatalf("pool state lookup failed: %v", err)
	}
	if state.TotalDeposit != 1500 {
		t.Fatalf("deposit not escrowed, total_deposit=%d", state.TotalDeposit)
	}
	if state.PollCount != 1 {
		t.Fatalf("poll counter not advanced, poll_count=%d", state.PollCount)
	}

	second := createPoll(t, module, "carol", 1000, 6)
	if second.PollID != 2 {
		t.Fatalf("poll ids must be sequential, got %d", second.PollID)
	}
}

func TestCreatePollGuards(t *testing.T) {
	module := newTestModule(t)

	_, err := module.Polls.CreatePoll(context.Background(), commands.CreatePollCommand{
		Source:        testToken,
		Creator:       "carol",
		DepositAmount: 999,
		Title:         "Upgrade pool parameters",
		Description:   "Raise the proposal deposit.",
		Height:        5,
	})
	if !errors.Is(err, domainerrors.ErrInsufficientDeposit) {
		t.Fatalf("expected insufficient deposit, got %v", err)
	}

	_, err = module.Polls.CreatePoll(context.Background(), commands.CreatePollCommand{
		Source:        testToken,
		Creator:       "carol",
		DepositAmount: 1000,
		Title:         "abc",
		Description:   "Raise the proposal deposit.",
		Height:        5,
	})
	if !errors.Is(err, domainerrors.ErrTitleTooShort) {
		t.Fatalf("expected title too short, got %v", err)
	}

	_, err = module.Polls.CreatePoll(context.Background(), commands.CreatePollCommand{
		Source:        "not-the-token",
		Creator:       "carol",
		DepositAmount: 1000,
		Title:         "Upgrade pool parameters",
		Description:   "Raise the proposal deposit.",
		Height:        5,
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized source, got %v", err)
	}
}

func TestCastVoteTalliesAndGuards(t *testing.T) {
	module := newTestModule(t)
	stake(t, module, "alice", 1000)
	poll := createPoll(t, module, "carol", 1000, 5)

	result, err := module.Polls.CastVote(context.Background(), commands.CastVoteCommand{
		Voter:  "alice",
		PollID: poll.PollID,
		Vote:   entities.VoteOptionYes,
		Amount: 800,
		Height: poll.EndHeight, // the deadline block itself still counts
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if result.YesVotes != 800 || result.NoVotes != 0 {
		t.Fatalf("unexpected tallies: %+v", result)
	}

	_, err = module.Polls.CastVote(context.Background(), commands.CastVoteCommand{
		Voter:  "alice",
		PollID: poll.PollID,
		Vote:   entities.VoteOptionNo,
		Amount: 1,
		Height: 50,
	})
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}

	_, err = module.Polls.CastVote(context.Background(), commands.CastVoteCommand{
		Voter:  "bob",
		PollID: poll.PollID,
		Vote:   entities.VoteOptionNo,
		Amount: 1,
		Height: 50,
	})
	if !errors.Is(err, domainerrors.ErrInsufficientStake) {
		t.Fatalf("expected insufficient stake for non-staker, got %v", err)
	}

	_, err = module.Polls.CastVote(context.Background(), commands.CastVoteCommand{
		Voter:  "bob",
		PollID: poll.PollID,
		Vote:   entities.VoteOption("abstain"),
		Amount: 1,
		Height: 50,
	})
	if !errors.Is(err, domainerrors.ErrInvalidVoteOption) {
		t.Fatalf("expected invalid vote option, got %v", err)
	}

	_, err = module.Polls.CastVote(context.Background(), commands.CastVoteCommand{
		Voter:  "bob",
		PollID: poll.PollID,
		Vote:   entities.VoteOptionNo,
		Amount: 1,
		Height: poll.EndHeight + 1,
	})
	if !errors.Is(err, domainerrors.ErrPollNotInProgress) {
		t.Fatalf("expected poll not in progress after deadline, got %v", err)
	}

	_, err = module.Polls.CastVote(context.Background(), commands.CastVoteCommand{
		Voter:  "bob",
		PollID: 999,
		Vote:   entities.VoteOptionNo,
		Amount: 1,
		Height: 50,
	})
	if !errors.Is(err, domainerrors.ErrPollNotFound) {
		t.Fatalf("expected poll not found, got %v", err)
	}
}

func TestEndPollPassesAndRefundsDeposit(t *testing.T) {
	module := newTestModule(t)
	stake(t, module, "alice", 1000)
	poll := createPoll(t, module, "carol", 1000, 5)
	castVote(t, module, "alice", poll.PollID, entities.VoteOptionYes, 800, 50)

	_, err := module.Polls.EndPoll(context.Background(), commands.EndPollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight,
	})
	if !errors.Is(err, domainerrors.ErrVotingNotExpired) {
		t.Fatalf("ending at the deadline block must fail, got %v", err)
	}

	result, err := module.Polls.EndPoll(context.Background(), commands.EndPollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight + 1,
	})
	if err != nil {
		t.Fatalf("end poll failed: %v", err)
	}
	if result.Status != entities.PollStatusPassed {
		t.Fatalf("expected passed, got %+v", result)
	}
	if result.TalliedWeight != 800 || result.StakedWeight != 1000 {
		t.Fatalf("unexpected weights: %+v", result)
	}

	state, err := module.Store.GetPoolState(context.Background())
	if err != nil {
		t.Fatalf("pool state lookup failed: %v", err)
	}
	if state.TotalDeposit != 0 {
		t.Fatalf("passed poll must release escrow, total_deposit=%d", state.TotalDeposit)
	}

	transfers := eventsOfType(pendingEvents(t, module.Store), commands.EventTypeTokenTransfer)
	if len(transfers) != 1 {
		t.Fatalf("expected one refund transfer, got %d", len(transfers))
	}
	if got := payloadField(t, transfers[0], "recipient"); got != "carol" {
		t.Fatalf("refund recipient = %v", got)
	}

	stored, err := module.Store.GetPoll(context.Background(), poll.PollID)
	if err != nil {
		t.Fatalf("poll lookup failed: %v", err)
	}
	if stored.TotalBalanceAtEndPoll == nil || *stored.TotalBalanceAtEndPoll != 1000 {
		t.Fatalf("resolution denominator not recorded: %+v", stored.TotalBalanceAtEndPoll)
	}

	_, err = module.Polls.EndPoll(context.Background(), commands.EndPollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight + 2,
	})
	if !errors.Is(err, domainerrors.ErrPollNotInProgress) {
		t.Fatalf("ending twice must fail, got %v", err)
	}
}

func TestEndPollRejectsBelowQuorum(t *testing.T) {
	module := newTestModule(t)
	stake(t, module, "alice", 1000)
	poll := createPoll(t, module, "carol", 1000, 5)
	// 200 of 1000 staked tokens voted: 20% participation against a 30% quorum.
	castVote(t, module, "alice", poll.PollID, entities.VoteOptionYes, 200, 50)

	result, err := module.Polls.EndPoll(context.Background(), commands.EndPollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight + 1,
	})
	if err != nil {
		t.Fatalf("end poll failed: %v", err)
	}
	if result.Status != entities.PollStatusRejected {
		t.Fatalf("expected rejected, got %s", result.Status)
	}
	if result.RejectedReason != entities.RejectedReasonQuorum {
		t.Fatalf("expected quorum rejection, got %q", result.RejectedReason)
	}

	// A forfeited deposit stays escrowed and is never refunded.
	state, err := module.Store.GetPoolState(context.Background())
	if err != nil {
		t.Fatalf("pool state lookup failed: %v", err)
	}
	if state.TotalDeposit != 1000 {
		t.Fatalf("rejected poll must forfeit deposit, total_deposit=%d", state.TotalDeposit)
	}
	transfers := eventsOfType(pendingEvents(t, module.Store), commands.EventTypeTokenTransfer)
	if len(transfers) != 0 {
		t.Fatalf("no refund expected, got %d transfers", len(transfers))
	}
}

func TestEndPollRejectsBelowThreshold(t *testing.T) {
	module := newTestModule(t)
	stake(t, module, "alice", 500)
	stake(t, module, "bob", 500)
	poll := createPoll(t, module, "carol", 1000, 5)
	// 50% participation clears quorum; 200/500 yes misses the 50% threshold.
	castVote(t, module, "alice", poll.PollID, entities.VoteOptionYes, 200, 50)
	castVote(t, module, "bob", poll.PollID, entities.VoteOptionNo, 300, 51)

	result, err := module.Polls.EndPoll(context.Background(), commands.EndPollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight + 1,
	})
	if err != nil {
		t.Fatalf("end poll failed: %v", err)
	}
	if result.Status != entities.PollStatusRejected || result.RejectedReason != entities.RejectedReasonThreshold {
		t.Fatalf("expected threshold rejection, got %+v", result)
	}
}

func TestEndPollWithEmptyPoolRejectsOnQuorum(t *testing.T) {
	module := newTestModule(t)
	poll := createPoll(t, module, "carol", 1000, 5)

	result, err := module.Polls.EndPoll(context.Background(), commands.EndPollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight + 1,
	})
	if err != nil {
		t.Fatalf("end poll failed: %v", err)
	}
	if result.Status != entities.PollStatusRejected || result.RejectedReason != entities.RejectedReasonQuorum {
		t.Fatalf("expected quorum rejection with empty pool, got %+v", result)
	}
	if result.StakedWeight != 0 {
		t.Fatalf("empty share supply must resolve against zero, got %d", result.StakedWeight)
	}
}

func TestSnapshotPinsQuorumDenominator(t *testing.T) {
	module := newTestModule(t)
	stake(t, module, "alice", 1000)
	poll := createPoll(t, module, "carol", 1000, 0)
	castVote(t, module, "alice", poll.PollID, entities.VoteOptionYes, 400, 50)

	// Window opens at end_height - snapshot_period = 90.
	_, err := module.Polls.SnapshotPoll(context.Background(), commands.SnapshotPollCommand{
		PollID: poll.PollID,
		Height: 89,
	})
	if !errors.Is(err, domainerrors.ErrSnapshotWindowNotOpen) {
		t.Fatalf("expected window not open at 89, got %v", err)
	}

	snap, err := module.Polls.SnapshotPoll(context.Background(), commands.SnapshotPollCommand{
		PollID: poll.PollID,
		Height: 95,
	})
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snap.StakedAmount != 1000 {
		t.Fatalf("expected snapshot of 1000, got %d", snap.StakedAmount)
	}

	_, err = module.Polls.SnapshotPoll(context.Background(), commands.SnapshotPollCommand{
		PollID: poll.PollID,
		Height: 96,
	})
	if !errors.Is(err, domainerrors.ErrSnapshotAlreadyTaken) {
		t.Fatalf("expected snapshot already taken, got %v", err)
	}

	// Balance quadruples after the snapshot. Against the live pool the 400
	// tallied votes would miss quorum; the pinned denominator keeps them in.
	module.Store.SetBalance(testPool, 5000)

	result, err := module.Polls.EndPoll(context.Background(), commands.EndPollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight + 1,
	})
	if err != nil {
		t.Fatalf("end poll failed: %v", err)
	}
	if result.Status != entities.PollStatusPassed {
		t.Fatalf("expected pass against snapshot, got %+v", result)
	}
	if result.StakedWeight != 1000 {
		t.Fatalf("expected pinned denominator 1000, got %d", result.StakedWeight)
	}
}

func TestSnapshotRejectedAfterVotingEnds(t *testing.T) {
	module := newTestModule(t)
	stake(t, module, "alice", 1000)
	poll := createPoll(t, module, "carol", 1000, 0)

	_, err := module.Polls.SnapshotPoll(context.Background(), commands.SnapshotPollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight + 1,
	})
	if !errors.Is(err, domainerrors.ErrPollNotInProgress) {
		t.Fatalf("expected poll not in progress, got %v", err)
	}
}

func TestExecutePollRelaysCallsInStoredOrder(t *testing.T) {
	module := newTestModule(t)
	stake(t, module, "alice", 1000)
	poll := createPoll(t, module, "carol", 1000, 5,
		entities.ExecuteMsg{Order: 3, Contract: "contract-c", Msg: []byte(`{"op":"c"}`)},
		entities.ExecuteMsg{Order: 1, Contract: "contract-a", Msg: []byte(`{"op":"a"}`)},
		entities.ExecuteMsg{Order: 2, Contract: "contract-b", Msg: []byte(`{"op":"b"}`)},
	)
	castVote(t, module, "alice", poll.PollID, entities.VoteOptionYes, 800, 50)
	if _, err := module.Polls.EndPoll(context.Background(), commands.EndPollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight + 1,
	}); err != nil {
		t.Fatalf("end poll failed: %v", err)
	}

	err := module.Polls.ExecutePoll(context.Background(), commands.ExecutePollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight + 49,
	})
	if !errors.Is(err, domainerrors.ErrTimelockNotExpired) {
		t.Fatalf("expected timelock guard, got %v", err)
	}

	if err := module.Polls.ExecutePoll(context.Background(), commands.ExecutePollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight + 50,
	}); err != nil {
		t.Fatalf("execute poll failed: %v", err)
	}

	calls := eventsOfType(pendingEvents(t, module.Store), commands.EventTypeDelegatedCall)
	if len(calls) != 3 {
		t.Fatalf("expected 3 delegated calls, got %d", len(calls))
	}
	for i, want := range []float64{1, 2, 3} {
		if got := payloadField(t, calls[i], "order"); got != want {
			t.Fatalf("call %d has order %v, want %v", i, got, want)
		}
	}

	stored, err := module.Store.GetPoll(context.Background(), poll.PollID)
	if err != nil {
		t.Fatalf("poll lookup failed: %v", err)
	}
	if stored.Status != entities.PollStatusExecuted {
		t.Fatalf("expected executed status, got %s", stored.Status)
	}

	err = module.Polls.ExecutePoll(context.Background(), commands.ExecutePollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight + 51,
	})
	if !errors.Is(err, domainerrors.ErrPollNotPassed) {
		t.Fatalf("executing twice must fail, got %v", err)
	}
}

func TestExpirePollRetiresUnexecutedPoll(t *testing.T) {
	module := newTestModule(t)
	stake(t, module, "alice", 1000)
	poll := createPoll(t, module, "carol", 1000, 5)
	castVote(t, module, "alice", poll.PollID, entities.VoteOptionYes, 800, 50)
	if _, err := module.Polls.EndPoll(context.Background(), commands.EndPollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight + 1,
	}); err != nil {
		t.Fatalf("end poll failed: %v", err)
	}

	err := module.Polls.ExpirePoll(context.Background(), commands.ExpirePollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight + 199,
	})
	if !errors.Is(err, domainerrors.ErrExpirationNotReached) {
		t.Fatalf("expected expiration guard, got %v", err)
	}

	if err := module.Polls.ExpirePoll(context.Background(), commands.ExpirePollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight + 200,
	}); err != nil {
		t.Fatalf("expire poll failed: %v", err)
	}

	stored, err := module.Store.GetPoll(context.Background(), poll.PollID)
	if err != nil {
		t.Fatalf("poll lookup failed: %v", err)
	}
	if stored.Status != entities.PollStatusExpired {
		t.Fatalf("expected expired status, got %s", stored.Status)
	}

	err = module.Polls.ExecutePoll(context.Background(), commands.ExecutePollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight + 300,
	})
	if !errors.Is(err, domainerrors.ErrPollNotPassed) {
		t.Fatalf("expired poll must not execute, got %v", err)
	}
}
