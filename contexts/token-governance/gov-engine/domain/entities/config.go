package entities

import domainerrors "stakegov/contexts/token-governance/gov-engine/domain/errors"

const (
	MinTitleLength       = 4
	MaxTitleLength       = 64
	MinDescriptionLength = 4
	MaxDescriptionLength = 1024
	MinLinkLength        = 12
	MaxLinkLength        = 128
)

// Config is the singleton governance policy. Token starts empty and is
// registered exactly once by the owner; all durations are block heights.
type Config struct {
	Owner            string
	Token            string
	Quorum           float64
	Threshold        float64
	VotingPeriod     uint64
	TimelockPeriod   uint64
	ExpirationPeriod uint64
	ProposalDeposit  uint64
	SnapshotPeriod   uint64
}

func (c Config) Validate() error {
	if c.Quorum < 0 || c.Quorum > 1 {
		return domainerrors.ErrInvalidQuorum
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return domainerrors.ErrInvalidThreshold
	}
	return nil
}

// ValidatePollText enforces the poll text bounds. Link is optional; an empty
// link passes, a present one must fit its bounds.
func ValidatePollText(title, description, link string) error {
	if len(title) < MinTitleLength {
		return domainerrors.ErrTitleTooShort
	}
	if len(title) > MaxTitleLength {
		return domainerrors.ErrTitleTooLong
	}
	if len(description) < MinDescriptionLength {
		return domainerrors.ErrDescriptionTooShort
	}
	if len(description) > MaxDescriptionLength {
		return domainerrors.ErrDescriptionTooLong
	}
	if link != "" {
		if len(link) < MinLinkLength {
			return domainerrors.ErrLinkTooShort
		}
		if len(link) > MaxLinkLength {
			return domainerrors.ErrLinkTooLong
		}
	}
	return nil
}
