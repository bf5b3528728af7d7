package commands_test

import (
	"context"
	"encoding/json"
	"testing"

	govengine "stakegov/contexts/token-governance/gov-engine"
	"stakegov/contexts/token-governance/gov-engine/adapters/memory"
	"stakegov/contexts/token-governance/gov-engine/application/commands"
	"stakegov/contexts/token-governance/gov-engine/domain/entities"
	"stakegov/contexts/token-governance/gov-engine/ports"
)

const (
	testOwner = "owner-1"
	testPool  = "gov-pool"
	testToken = "token-1"
)

// newTestModule wires the in-memory module with the policy used across the
// command tests: 30% quorum, 50% threshold, 100-block voting period,
// 50-block timelock, 200-block expiration, 1000 proposal deposit and a
// 10-block snapshot window.
func newTestModule(t *testing.T) govengine.Module {
	t.Helper()
	module := newInitializedModule(t)
	err := module.Admin.RegisterToken(context.Background(), commands.RegisterTokenCommand{
		Sender: testOwner,
		Token:  testToken,
	})
	if err != nil {
		t.Fatalf("register token failed: %v", err)
	}
	return module
}

// newInitializedModule stops short of token registration.
func newInitializedModule(t *testing.T) govengine.Module {
	t.Helper()
	module := govengine.NewInMemoryModule(nil)
	err := module.Admin.Init(context.Background(), commands.InitCommand{
		Owner:            testOwner,
		PoolAddress:      testPool,
		Quorum:           0.3,
		Threshold:        0.5,
		VotingPeriod:     100,
		TimelockPeriod:   50,
		ExpirationPeriod: 200,
		ProposalDeposit:  1000,
		SnapshotPeriod:   10,
	})
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return module
}

// stake seeds the pool balance with the incoming amount on top of the current
// one and credits the deposit, the way the token hook reports it.
func stake(t *testing.T, module govengine.Module, staker string, amount uint64) commands.StakeResult {
	t.Helper()
	balance, err := module.Store.Balance(context.Background(), testPool)
	if err != nil {
		t.Fatalf("balance lookup failed: %v", err)
	}
	module.Store.SetBalance(testPool, balance+amount)
	result, err := module.Ledger.Stake(context.Background(), commands.StakeCommand{
		Source: testToken,
		Staker: staker,
		Amount: amount,
	})
	if err != nil {
		t.Fatalf("stake failed: %v", err)
	}
	return result
}

func createPoll(t *testing.T, module govengine.Module, creator string, deposit uint64, height uint64, msgs ...entities.ExecuteMsg) commands.CreatePollResult {
	t.Helper()
	balance, err := module.Store.Balance(context.Background(), testPool)
	if err != nil {
		t.Fatalf("balance lookup failed: %v", err)
	}
	module.Store.SetBalance(testPool, balance+deposit)
	result, err := module.Polls.CreatePoll(context.Background(), commands.CreatePollCommand{
		Source:        testToken,
		Creator:       creator,
		DepositAmount: deposit,
		Title:         "Upgrade pool parameters",
		Description:   "Raise the proposal deposit for future polls.",
		ExecuteMsgs:   msgs,
		Height:        height,
	})
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	return result
}

func castVote(t *testing.T, module govengine.Module, voter string, pollID uint64, vote entities.VoteOption, amount uint64, height uint64) {
	t.Helper()
	_, err := module.Polls.CastVote(context.Background(), commands.CastVoteCommand{
		Voter:  voter,
		PollID: pollID,
		Vote:   vote,
		Amount: amount,
		Height: height,
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
}

// pendingEvents decodes every not-yet-published outbox row in append order.
func pendingEvents(t *testing.T, store *memory.Store) []ports.EventEnvelope {
	t.Helper()
	rows, err := store.ListPendingOutbox(context.Background(), 0)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	events := make([]ports.EventEnvelope, 0, len(rows))
	for _, row := range rows {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			t.Fatalf("decode outbox payload failed: %v", err)
		}
		events = append(events, event)
	}
	return events
}

func eventsOfType(events []ports.EventEnvelope, eventType string) []ports.EventEnvelope {
	filtered := make([]ports.EventEnvelope, 0, len(events))
	for _, event := range events {
		if event.EventType == eventType {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

func payloadField(t *testing.T, event ports.EventEnvelope, key string) any {
	t.Helper()
	payload, ok := event.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload is %T, want object", event.Payload)
	}
	return payload[key]
}
