package entities

import "time"

type PollStatus string

const (
	PollStatusInProgress PollStatus = "in_progress"
	PollStatusPassed     PollStatus = "passed"
	PollStatusRejected   PollStatus = "rejected"
	PollStatusExecuted   PollStatus = "executed"
	PollStatusExpired    PollStatus = "expired"
)

func (s PollStatus) Valid() bool {
	switch s {
	case PollStatusInProgress, PollStatusPassed, PollStatusRejected,
		PollStatusExecuted, PollStatusExpired:
		return true
	default:
		return false
	}
}

type VoteOption string

const (
	VoteOptionYes VoteOption = "yes"
	VoteOptionNo  VoteOption = "no"
)

func (o VoteOption) Valid() bool {
	return o == VoteOptionYes || o == VoteOptionNo
}

// ExecuteMsg is one delegated operation scheduled by a passed poll. The engine
// never inspects Msg; it only orders and relays it to the target contract.
type ExecuteMsg struct {
	Order    uint64
	Contract string
	Msg      []byte
}

const (
	RejectedReasonQuorum    = "Quorum not reached"
	RejectedReasonThreshold = "Threshold not reached"
)

type Poll struct {
	PollID        uint64
	Creator       string
	Status        PollStatus
	EndHeight     uint64
	Title         string
	Description   string
	Link          string
	DepositAmount uint64
	ExecuteMsgs   []ExecuteMsg
	YesVotes      uint64
	NoVotes       uint64

	// StakedAmount is set by an explicit snapshot inside the snapshot window;
	// TotalBalanceAtEndPoll records the denominator actually used at
	// resolution, whichever branch supplied it.
	StakedAmount          *uint64
	TotalBalanceAtEndPoll *uint64

	RejectedReason string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (p Poll) InProgress() bool {
	return p.Status == PollStatusInProgress
}

// TotalVotes is the quorum numerator.
func (p Poll) TotalVotes() uint64 {
	return p.YesVotes + p.NoVotes
}

// VoterInfo records a single immutable vote: the chosen option and the staked
// weight committed to it. The lock is advisory only and never blocks withdraw.
type VoterInfo struct {
	Vote    VoteOption
	Balance uint64
}

// PollVoter pairs a voter address with its VoterInfo for listings.
type PollVoter struct {
	Voter string
	Info  VoterInfo
}

type OrderBy string

const (
	OrderByAsc  OrderBy = "asc"
	OrderByDesc OrderBy = "desc"
)
