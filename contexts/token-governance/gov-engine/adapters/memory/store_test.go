package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"stakegov/contexts/token-governance/gov-engine/domain/entities"
	domainerrors "stakegov/contexts/token-governance/gov-engine/domain/errors"
	"stakegov/contexts/token-governance/gov-engine/ports"
)

func TestAppendOutboxDedupesByEventID(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	envelope := ports.EventEnvelope{
		EventID:   "evt-1",
		EventType: "token.transfer",
	}

	if err := store.AppendOutbox(ctx, envelope); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := store.AppendOutbox(ctx, envelope); err != nil {
		t.Fatalf("idempotent re-append failed: %v", err)
	}

	pending, err := store.ListPendingOutbox(ctx, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one row, got %d", len(pending))
	}

	conflicting := envelope
	conflicting.EventType = "gov.delegated_call"
	if err := store.AppendOutbox(ctx, conflicting); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict for mismatched payload, got %v", err)
	}
}

func TestOutboxSequencePreservesAppendOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	occurredAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, eventID := range []string{"evt-c", "evt-a", "evt-b"} {
		err := store.AppendOutbox(ctx, ports.EventEnvelope{
			EventID:    eventID,
			EventType:  "gov.delegated_call",
			OccurredAt: occurredAt, // identical timestamps cannot reorder rows
		})
		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	pending, err := store.ListPendingOutbox(ctx, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for i, want := range []string{"evt-c", "evt-a", "evt-b"} {
		if pending[i].OutboxID != want {
			t.Fatalf("row %d = %s, want %s", i, pending[i].OutboxID, want)
		}
	}

	if err := store.MarkOutboxPublished(ctx, "evt-c", time.Now()); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	pending, err = store.ListPendingOutbox(ctx, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 2 || pending[0].OutboxID != "evt-a" {
		t.Fatalf("unexpected pending rows: %+v", pending)
	}
}

func TestReserveEventDetectsReplayAndConflict(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	seen, err := store.ReserveEvent(ctx, "evt-1", "hash-a", expires)
	if err != nil || seen {
		t.Fatalf("first reservation: seen=%v err=%v", seen, err)
	}
	seen, err = store.ReserveEvent(ctx, "evt-1", "hash-a", expires)
	if err != nil || !seen {
		t.Fatalf("replay with same hash: seen=%v err=%v", seen, err)
	}
	if _, err = store.ReserveEvent(ctx, "evt-1", "hash-b", expires); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict for mismatched hash, got %v", err)
	}
}

func TestGetStakerReturnsDetachedCopy(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	manager := entities.TokenManager{
		Share: 100,
		LockedBalance: map[uint64]entities.VoterInfo{
			1: {Vote: entities.VoteOptionYes, Balance: 50},
		},
	}
	if err := store.SaveStaker(ctx, "alice", manager); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	manager, _, err := store.GetStaker(ctx, "alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	delete(manager.LockedBalance, 1)

	again, _, err := store.GetStaker(ctx, "alice")
	if err != nil {
		t.Fatalf("second get failed: %v", err)
	}
	if len(again.LockedBalance) != 1 {
		t.Fatalf("stored record mutated through returned copy")
	}
}
