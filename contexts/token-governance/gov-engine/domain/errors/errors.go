package errors

import "errors"

var (
	ErrNotInitialized     = errors.New("governance is not initialized")
	ErrAlreadyInitialized = errors.New("governance is already initialized")
	ErrUnauthorized       = errors.New("unauthorized")

	ErrInvalidQuorum    = errors.New("quorum must be 0 to 1")
	ErrInvalidThreshold = errors.New("threshold must be 0 to 1")

	ErrTitleTooShort       = errors.New("title too short")
	ErrTitleTooLong        = errors.New("title too long")
	ErrDescriptionTooShort = errors.New("description too short")
	ErrDescriptionTooLong  = errors.New("description too long")
	ErrLinkTooShort        = errors.New("link too short")
	ErrLinkTooLong         = errors.New("link too long")
	ErrInvalidVoteOption   = errors.New("invalid vote option")

	ErrInvalidDepositMsg   = errors.New("deposit carries no known message")
	ErrInsufficientFunds   = errors.New("insufficient funds sent")
	ErrInsufficientDeposit = errors.New("deposit is smaller than proposal deposit")
	ErrNothingStaked       = errors.New("nothing staked")
	ErrExceedsBalance      = errors.New("user is trying to withdraw too many tokens")
	ErrInsufficientStake   = errors.New("user does not have enough staked tokens")

	ErrPollNotFound          = errors.New("poll does not exist")
	ErrPollNotInProgress     = errors.New("poll is not in progress")
	ErrPollNotPassed         = errors.New("poll is not in passed status")
	ErrAlreadyVoted          = errors.New("user has already voted")
	ErrVotingNotExpired      = errors.New("voting period has not expired")
	ErrTimelockNotExpired    = errors.New("timelock period has not expired")
	ErrExpirationNotReached  = errors.New("expire height has not been reached")
	ErrSnapshotWindowNotOpen = errors.New("cannot snapshot at this height")
	ErrSnapshotAlreadyTaken  = errors.New("snapshot has already occurred")

	ErrConflict = errors.New("conflicting write")
)
