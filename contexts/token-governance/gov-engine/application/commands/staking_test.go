package commands_test

import (
	"context"
	"errors"
	"testing"

	"stakegov/contexts/token-governance/gov-engine/application/commands"
	"stakegov/contexts/token-governance/gov-engine/domain/entities"
	domainerrors "stakegov/contexts/token-governance/gov-engine/domain/errors"
)

func TestStakeMintsSharesAtPoolRatio(t *testing.T) {
	module := newTestModule(t)

	first := stake(t, module, "alice", 500)
	if first.MintedShare != 500 || first.TotalShare != 500 {
		t.Fatalf("initial stake must mint 1:1, got %+v", first)
	}

	// Pool appreciates: alice's 500 tokens are now worth 1000. Bob's 250
	// tokens buy 250*500/1000 = 125 shares.
	module.Store.SetBalance(testPool, 1000)
	second := stake(t, module, "bob", 250)
	if second.MintedShare != 125 {
		t.Fatalf("expected 125 minted shares, got %d", second.MintedShare)
	}
	if second.TotalShare != 625 {
		t.Fatalf("expected total share 625, got %d", second.TotalShare)
	}
}

func TestStakeGuards(t *testing.T) {
	module := newTestModule(t)

	_, err := module.Ledger.Stake(context.Background(), commands.StakeCommand{
		Source: testToken,
		Staker: "alice",
		Amount: 0,
	})
	if !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Fatalf("zero amount: expected insufficient funds, got %v", err)
	}

	_, err = module.Ledger.Stake(context.Background(), commands.StakeCommand{
		Source: "not-the-token",
		Staker: "alice",
		Amount: 100,
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("unknown source: expected unauthorized, got %v", err)
	}
}

func TestStakeRejectedBeforeTokenRegistration(t *testing.T) {
	// A module without a registered token refuses every deposit.
	module := newInitializedModule(t)
	module.Store.SetBalance(testPool, 100)
	_, err := module.Ledger.Stake(context.Background(), commands.StakeCommand{
		Source: testToken,
		Staker: "alice",
		Amount: 100,
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized before registration, got %v", err)
	}
}

func TestWithdrawFullPositionBurnsAllShares(t *testing.T) {
	module := newTestModule(t)
	stake(t, module, "alice", 500)

	result, err := module.Ledger.Withdraw(context.Background(), commands.WithdrawCommand{Staker: "alice"})
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if result.Amount != 500 || result.BurnedShare != 500 {
		t.Fatalf("expected full payout 500/500, got %+v", result)
	}

	transfers := eventsOfType(pendingEvents(t, module.Store), commands.EventTypeTokenTransfer)
	if len(transfers) != 1 {
		t.Fatalf("expected one scheduled transfer, got %d", len(transfers))
	}
	if got := payloadField(t, transfers[0], "recipient"); got != "alice" {
		t.Fatalf("transfer recipient = %v", got)
	}

	_, err = module.Ledger.Withdraw(context.Background(), commands.WithdrawCommand{Staker: "alice"})
	if !errors.Is(err, domainerrors.ErrNothingStaked) {
		t.Fatalf("second withdraw: expected nothing staked, got %v", err)
	}
}

func TestWithdrawPartialBurnsProportionalShare(t *testing.T) {
	module := newTestModule(t)
	stake(t, module, "alice", 500)

	// Appreciation doubles the quote: 500 shares now back 1000 tokens.
	module.Store.SetBalance(testPool, 1000)

	amount := uint64(400)
	result, err := module.Ledger.Withdraw(context.Background(), commands.WithdrawCommand{
		Staker: "alice",
		Amount: &amount,
	})
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if result.BurnedShare != 200 {
		t.Fatalf("expected 200 shares burned for 400 tokens, got %d", result.BurnedShare)
	}

	// The relayed payout settles: 600 tokens back 300 remaining shares.
	module.Store.SetBalance(testPool, 600)
	tooMuch := uint64(601)
	_, err = module.Ledger.Withdraw(context.Background(), commands.WithdrawCommand{
		Staker: "alice",
		Amount: &tooMuch,
	})
	if !errors.Is(err, domainerrors.ErrExceedsBalance) {
		t.Fatalf("over-quote withdraw: expected exceeds balance, got %v", err)
	}
}

func TestWithdrawNeverBlockedByVoteLocks(t *testing.T) {
	module := newTestModule(t)
	stake(t, module, "alice", 1000)
	poll := createPoll(t, module, "carol", 1000, 5)
	castVote(t, module, "alice", poll.PollID, entities.VoteOptionYes, 800, 50)

	// The full position stays withdrawable while the vote lock is live.
	result, err := module.Ledger.Withdraw(context.Background(), commands.WithdrawCommand{Staker: "alice"})
	if err != nil {
		t.Fatalf("withdraw with live lock failed: %v", err)
	}
	if result.Amount != 1000 || result.BurnedShare != 1000 {
		t.Fatalf("expected full payout despite lock, got %+v", result)
	}
}

func TestWithdrawCollectsLocksOfFinishedPolls(t *testing.T) {
	module := newTestModule(t)
	stake(t, module, "alice", 1000)
	poll := createPoll(t, module, "carol", 1000, 5)
	castVote(t, module, "alice", poll.PollID, entities.VoteOptionYes, 500, 50)

	if _, err := module.Polls.EndPoll(context.Background(), commands.EndPollCommand{
		PollID: poll.PollID,
		Height: poll.EndHeight + 1,
	}); err != nil {
		t.Fatalf("end poll failed: %v", err)
	}
	// The refunded deposit leaves the pool once the relayed transfer settles.
	module.Store.SetBalance(testPool, 1000)

	withdrawn := uint64(100)
	if _, err := module.Ledger.Withdraw(context.Background(), commands.WithdrawCommand{
		Staker: "alice",
		Amount: &withdrawn,
	}); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	manager, found, err := module.Store.GetStaker(context.Background(), "alice")
	if err != nil || !found {
		t.Fatalf("staker lookup failed: found=%v err=%v", found, err)
	}
	if len(manager.LockedBalance) != 0 {
		t.Fatalf("finished poll lock was not collected: %+v", manager.LockedBalance)
	}
}
