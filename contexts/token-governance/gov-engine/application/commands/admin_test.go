package commands_test

import (
	"context"
	"errors"
	"testing"

	govengine "stakegov/contexts/token-governance/gov-engine"
	"stakegov/contexts/token-governance/gov-engine/application/commands"
	domainerrors "stakegov/contexts/token-governance/gov-engine/domain/errors"
)

func TestInitRunsExactlyOnce(t *testing.T) {
	module := newInitializedModule(t)

	err := module.Admin.Init(context.Background(), commands.InitCommand{
		Owner:       "someone-else",
		PoolAddress: "other-pool",
		Quorum:      0.5,
		Threshold:   0.5,
	})
	if !errors.Is(err, domainerrors.ErrAlreadyInitialized) {
		t.Fatalf("expected already initialized, got %v", err)
	}
}

func TestInitValidatesPolicy(t *testing.T) {
	module := govengine.NewInMemoryModule(nil)

	err := module.Admin.Init(context.Background(), commands.InitCommand{
		Owner:       testOwner,
		PoolAddress: testPool,
		Quorum:      1.5,
		Threshold:   0.5,
	})
	if !errors.Is(err, domainerrors.ErrInvalidQuorum) {
		t.Fatalf("expected invalid quorum, got %v", err)
	}
}

func TestRegisterTokenIsOwnerGatedAndOneShot(t *testing.T) {
	module := newInitializedModule(t)

	err := module.Admin.RegisterToken(context.Background(), commands.RegisterTokenCommand{
		Sender: "mallory",
		Token:  testToken,
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized sender, got %v", err)
	}

	if err := module.Admin.RegisterToken(context.Background(), commands.RegisterTokenCommand{
		Sender: testOwner,
		Token:  testToken,
	}); err != nil {
		t.Fatalf("register token failed: %v", err)
	}

	err = module.Admin.RegisterToken(context.Background(), commands.RegisterTokenCommand{
		Sender: testOwner,
		Token:  "token-2",
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("token registration must be one-shot, got %v", err)
	}

	cfg, err := module.Store.GetConfig(context.Background())
	if err != nil {
		t.Fatalf("config lookup failed: %v", err)
	}
	if cfg.Token != testToken {
		t.Fatalf("registered token overwritten: %q", cfg.Token)
	}
}

func TestUpdateConfigAppliesPartialChanges(t *testing.T) {
	module := newTestModule(t)

	quorum := 0.6
	votingPeriod := uint64(500)
	if err := module.Admin.UpdateConfig(context.Background(), commands.UpdateConfigCommand{
		Sender:       testOwner,
		Quorum:       &quorum,
		VotingPeriod: &votingPeriod,
	}); err != nil {
		t.Fatalf("update config failed: %v", err)
	}

	cfg, err := module.Store.GetConfig(context.Background())
	if err != nil {
		t.Fatalf("config lookup failed: %v", err)
	}
	if cfg.Quorum != 0.6 || cfg.VotingPeriod != 500 {
		t.Fatalf("partial update not applied: %+v", cfg)
	}
	if cfg.Threshold != 0.5 || cfg.ProposalDeposit != 1000 {
		t.Fatalf("untouched fields changed: %+v", cfg)
	}

	bad := 1.2
	err = module.Admin.UpdateConfig(context.Background(), commands.UpdateConfigCommand{
		Sender:    testOwner,
		Threshold: &bad,
	})
	if !errors.Is(err, domainerrors.ErrInvalidThreshold) {
		t.Fatalf("expected invalid threshold, got %v", err)
	}

	err = module.Admin.UpdateConfig(context.Background(), commands.UpdateConfigCommand{
		Sender: "mallory",
		Quorum: &quorum,
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized sender, got %v", err)
	}
}

func TestUpdateConfigCanHandOverOwnership(t *testing.T) {
	module := newTestModule(t)

	newOwner := "owner-2"
	if err := module.Admin.UpdateConfig(context.Background(), commands.UpdateConfigCommand{
		Sender: testOwner,
		Owner:  &newOwner,
	}); err != nil {
		t.Fatalf("ownership transfer failed: %v", err)
	}

	// The previous owner loses policy control immediately.
	quorum := 0.4
	err := module.Admin.UpdateConfig(context.Background(), commands.UpdateConfigCommand{
		Sender: testOwner,
		Quorum: &quorum,
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected old owner to be locked out, got %v", err)
	}
	if err := module.Admin.UpdateConfig(context.Background(), commands.UpdateConfigCommand{
		Sender: newOwner,
		Quorum: &quorum,
	}); err != nil {
		t.Fatalf("new owner update failed: %v", err)
	}
}
