package entities

import (
	"math"
	"strings"
	"testing"

	domainerrors "stakegov/contexts/token-governance/gov-engine/domain/errors"
)

func TestMulDivKeepsPrecisionOnLargeValues(t *testing.T) {
	// a*b overflows uint64; the floored quotient must still be exact.
	if got := MulDiv(math.MaxUint64, 3, 3); got != math.MaxUint64 {
		t.Fatalf("MulDiv(MaxUint64, 3, 3) = %d", got)
	}
	if got := MulDiv(math.MaxUint64-1, 2, 4); got != math.MaxUint64/2 {
		t.Fatalf("MulDiv(MaxUint64-1, 2, 4) = %d", got)
	}
	if MulDiv(10, 3, 0) != 0 {
		t.Fatalf("zero divisor must quote zero")
	}
	if MulDiv(7, 3, 2) != 10 {
		t.Fatalf("expected floored quotient 10, got %d", MulDiv(7, 3, 2))
	}
}

func TestSharesForDeposit(t *testing.T) {
	if got := SharesForDeposit(500, 0, 0); got != 500 {
		t.Fatalf("empty pool must mint 1:1, got %d", got)
	}
	if got := SharesForDeposit(500, 0, 1000); got != 500 {
		t.Fatalf("zero share supply must mint 1:1, got %d", got)
	}
	// 250 tokens into a pool of 1000 tokens backing 500 shares.
	if got := SharesForDeposit(250, 500, 1000); got != 125 {
		t.Fatalf("expected 125 minted shares, got %d", got)
	}
}

func TestTokensForShare(t *testing.T) {
	if got := TokensForShare(100, 1000, 0); got != 0 {
		t.Fatalf("zero share supply must quote zero, got %d", got)
	}
	if got := TokensForShare(250, 1000, 500); got != 500 {
		t.Fatalf("expected 500 tokens, got %d", got)
	}
	// Flooring: 1 share of 3 backing 10 tokens.
	if got := TokensForShare(1, 10, 3); got != 3 {
		t.Fatalf("expected floored quote 3, got %d", got)
	}
}

func TestRatioReachedAndExceeded(t *testing.T) {
	if RatioReached(1, 0, 0.0) {
		t.Fatalf("zero denominator must never reach quorum")
	}
	if !RatioReached(30, 100, 0.3) {
		t.Fatalf("exactly quorum must reach")
	}
	if RatioReached(29, 100, 0.3) {
		t.Fatalf("below quorum must not reach")
	}
	if RatioExceeded(50, 100, 0.5) {
		t.Fatalf("exactly threshold must not exceed")
	}
	if !RatioExceeded(51, 100, 0.5) {
		t.Fatalf("above threshold must exceed")
	}
	if RatioExceeded(1, 0, 0.0) {
		t.Fatalf("zero denominator must never exceed")
	}
}

func TestValidatePollText(t *testing.T) {
	title := "Upgrade pool parameters"
	description := "Raise the proposal deposit."

	if err := ValidatePollText(title, description, ""); err != nil {
		t.Fatalf("valid text rejected: %v", err)
	}
	if err := ValidatePollText("abc", description, ""); err != domainerrors.ErrTitleTooShort {
		t.Fatalf("expected title-too-short, got %v", err)
	}
	if err := ValidatePollText(strings.Repeat("t", MaxTitleLength+1), description, ""); err != domainerrors.ErrTitleTooLong {
		t.Fatalf("expected title-too-long, got %v", err)
	}
	if err := ValidatePollText(title, "abc", ""); err != domainerrors.ErrDescriptionTooShort {
		t.Fatalf("expected description-too-short, got %v", err)
	}
	if err := ValidatePollText(title, strings.Repeat("d", MaxDescriptionLength+1), ""); err != domainerrors.ErrDescriptionTooLong {
		t.Fatalf("expected description-too-long, got %v", err)
	}
	if err := ValidatePollText(title, description, "short.link"); err != domainerrors.ErrLinkTooShort {
		t.Fatalf("expected link-too-short, got %v", err)
	}
	if err := ValidatePollText(title, description, "https://"+strings.Repeat("x", MaxLinkLength)); err != domainerrors.ErrLinkTooLong {
		t.Fatalf("expected link-too-long, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Quorum: 0.3, Threshold: 0.5}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	cfg.Quorum = 1.5
	if err := cfg.Validate(); err != domainerrors.ErrInvalidQuorum {
		t.Fatalf("expected invalid quorum, got %v", err)
	}
	cfg.Quorum = 0.3
	cfg.Threshold = -0.1
	if err := cfg.Validate(); err != domainerrors.ErrInvalidThreshold {
		t.Fatalf("expected invalid threshold, got %v", err)
	}
}

func TestPollStatusAndVoteOption(t *testing.T) {
	for _, status := range []PollStatus{
		PollStatusInProgress, PollStatusPassed, PollStatusRejected,
		PollStatusExecuted, PollStatusExpired,
	} {
		if !status.Valid() {
			t.Fatalf("status %q should be valid", status)
		}
	}
	if PollStatus("draft").Valid() {
		t.Fatalf("unknown status must be invalid")
	}
	if !VoteOptionYes.Valid() || !VoteOptionNo.Valid() {
		t.Fatalf("yes/no must be valid")
	}
	if VoteOption("abstain").Valid() {
		t.Fatalf("abstain is not a valid option")
	}
}
