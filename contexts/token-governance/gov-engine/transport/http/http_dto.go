package http

import "encoding/json"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DepositHookRequest is the token hook payload. Exactly one of Msg.Stake /
// Msg.CreatePoll must be present.
type DepositHookRequest struct {
	Token  string     `json:"token"`
	Sender string     `json:"sender"`
	Amount uint64     `json:"amount"`
	Height uint64     `json:"height"`
	Msg    DepositMsg `json:"msg"`
}

type DepositMsg struct {
	Stake      *StakeMsg      `json:"stake,omitempty"`
	CreatePoll *CreatePollMsg `json:"create_poll,omitempty"`
}

type StakeMsg struct{}

type CreatePollMsg struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Link        string       `json:"link,omitempty"`
	ExecuteMsgs []ExecuteMsg `json:"execute_msgs,omitempty"`
}

type ExecuteMsg struct {
	Order    uint64          `json:"order"`
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
}

type StakeResponse struct {
	Staker      string `json:"staker"`
	Amount      uint64 `json:"amount"`
	MintedShare uint64 `json:"minted_share"`
	TotalShare  uint64 `json:"total_share"`
}

type CreatePollResponse struct {
	PollID    uint64 `json:"poll_id"`
	Creator   string `json:"creator"`
	EndHeight uint64 `json:"end_height"`
}

type WithdrawRequest struct {
	Amount *uint64 `json:"amount,omitempty"`
}

type WithdrawResponse struct {
	Staker      string `json:"staker"`
	Amount      uint64 `json:"amount"`
	BurnedShare uint64 `json:"burned_share"`
}

type CastVoteRequest struct {
	Voter  string `json:"voter"`
	Vote   string `json:"vote"`
	Amount uint64 `json:"amount"`
	Height uint64 `json:"height"`
}

type CastVoteResponse struct {
	PollID   uint64 `json:"poll_id"`
	Voter    string `json:"voter"`
	Vote     string `json:"vote"`
	Amount   uint64 `json:"amount"`
	YesVotes uint64 `json:"yes_votes"`
	NoVotes  uint64 `json:"no_votes"`
}

type HeightRequest struct {
	Height uint64 `json:"height"`
}

type SnapshotPollResponse struct {
	PollID       uint64 `json:"poll_id"`
	StakedAmount uint64 `json:"staked_amount"`
}

type EndPollResponse struct {
	PollID         uint64 `json:"poll_id"`
	Status         string `json:"status"`
	RejectedReason string `json:"rejected_reason,omitempty"`
	TalliedWeight  uint64 `json:"tallied_weight"`
	StakedWeight   uint64 `json:"staked_weight"`
}

type PollStatusResponse struct {
	PollID uint64 `json:"poll_id"`
	Status string `json:"status"`
}

type RegisterTokenRequest struct {
	Sender string `json:"sender"`
	Token  string `json:"token"`
}

type UpdateConfigRequest struct {
	Sender           string   `json:"sender"`
	Owner            *string  `json:"owner,omitempty"`
	Quorum           *float64 `json:"quorum,omitempty"`
	Threshold        *float64 `json:"threshold,omitempty"`
	VotingPeriod     *uint64  `json:"voting_period,omitempty"`
	TimelockPeriod   *uint64  `json:"timelock_period,omitempty"`
	ExpirationPeriod *uint64  `json:"expiration_period,omitempty"`
	ProposalDeposit  *uint64  `json:"proposal_deposit,omitempty"`
	SnapshotPeriod   *uint64  `json:"snapshot_period,omitempty"`
}

type ConfigResponse struct {
	Owner            string  `json:"owner"`
	Token            string  `json:"token"`
	Quorum           float64 `json:"quorum"`
	Threshold        float64 `json:"threshold"`
	VotingPeriod     uint64  `json:"voting_period"`
	TimelockPeriod   uint64  `json:"timelock_period"`
	ExpirationPeriod uint64  `json:"expiration_period"`
	ProposalDeposit  uint64  `json:"proposal_deposit"`
	SnapshotPeriod   uint64  `json:"snapshot_period"`
}

type StateResponse struct {
	PoolAddress  string `json:"pool_address"`
	PollCount    uint64 `json:"poll_count"`
	TotalShare   uint64 `json:"total_share"`
	TotalDeposit uint64 `json:"total_deposit"`
}

type PollResponse struct {
	PollID                uint64       `json:"poll_id"`
	Creator               string       `json:"creator"`
	Status                string       `json:"status"`
	EndHeight             uint64       `json:"end_height"`
	Title                 string       `json:"title"`
	Description           string       `json:"description"`
	Link                  string       `json:"link,omitempty"`
	DepositAmount         uint64       `json:"deposit_amount"`
	ExecuteMsgs           []ExecuteMsg `json:"execute_msgs,omitempty"`
	YesVotes              uint64       `json:"yes_votes"`
	NoVotes               uint64       `json:"no_votes"`
	StakedAmount          *uint64      `json:"staked_amount,omitempty"`
	TotalBalanceAtEndPoll *uint64      `json:"total_balance_at_end_poll,omitempty"`
	RejectedReason        string       `json:"rejected_reason,omitempty"`
}

type PollsResponse struct {
	Polls []PollResponse `json:"polls"`
}

type VoterItem struct {
	Voter   string `json:"voter"`
	Vote    string `json:"vote"`
	Balance uint64 `json:"balance"`
}

type VotersResponse struct {
	PollID uint64      `json:"poll_id"`
	Voters []VoterItem `json:"voters"`
}

type LockItem struct {
	PollID  uint64 `json:"poll_id"`
	Vote    string `json:"vote"`
	Balance uint64 `json:"balance"`
}

type StakerResponse struct {
	Address string     `json:"address"`
	Share   uint64     `json:"share"`
	Balance uint64     `json:"balance"`
	Locked  []LockItem `json:"locked"`
}
