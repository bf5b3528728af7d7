package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"stakegov/contexts/token-governance/gov-engine/domain/entities"
)

type configModel struct {
	ID               int16     `gorm:"column:id;primaryKey"`
	Owner            string    `gorm:"column:owner"`
	Token            string    `gorm:"column:token"`
	Quorum           float64   `gorm:"column:quorum"`
	Threshold        float64   `gorm:"column:threshold"`
	VotingPeriod     uint64    `gorm:"column:voting_period"`
	TimelockPeriod   uint64    `gorm:"column:timelock_period"`
	ExpirationPeriod uint64    `gorm:"column:expiration_period"`
	ProposalDeposit  uint64    `gorm:"column:proposal_deposit"`
	SnapshotPeriod   uint64    `gorm:"column:snapshot_period"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (configModel) TableName() string {
	return "gov_config"
}

func configModelFromEntity(cfg entities.Config) configModel {
	return configModel{
		ID:               singletonRowID,
		Owner:            strings.TrimSpace(cfg.Owner),
		Token:            strings.TrimSpace(cfg.Token),
		Quorum:           cfg.Quorum,
		Threshold:        cfg.Threshold,
		VotingPeriod:     cfg.VotingPeriod,
		TimelockPeriod:   cfg.TimelockPeriod,
		ExpirationPeriod: cfg.ExpirationPeriod,
		ProposalDeposit:  cfg.ProposalDeposit,
		SnapshotPeriod:   cfg.SnapshotPeriod,
		UpdatedAt:        time.Now().UTC(),
	}
}

func (m configModel) toEntity() entities.Config {
	return entities.Config{
		Owner:            m.Owner,
		Token:            m.Token,
		Quorum:           m.Quorum,
		Threshold:        m.Threshold,
		VotingPeriod:     m.VotingPeriod,
		TimelockPeriod:   m.TimelockPeriod,
		ExpirationPeriod: m.ExpirationPeriod,
		ProposalDeposit:  m.ProposalDeposit,
		SnapshotPeriod:   m.SnapshotPeriod,
	}
}

type poolStateModel struct {
	ID           int16     `gorm:"column:id;primaryKey"`
	PoolAddress  string    `gorm:"column:pool_address"`
	PollCount    uint64    `gorm:"column:poll_count"`
	TotalShare   uint64    `gorm:"column:total_share"`
	TotalDeposit uint64    `gorm:"column:total_deposit"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (poolStateModel) TableName() string {
	return "gov_pool_state"
}

func poolStateModelFromEntity(state entities.PoolState) poolStateModel {
	return poolStateModel{
		ID:           singletonRowID,
		PoolAddress:  strings.TrimSpace(state.PoolAddress),
		PollCount:    state.PollCount,
		TotalShare:   state.TotalShare,
		TotalDeposit: state.TotalDeposit,
		UpdatedAt:    time.Now().UTC(),
	}
}

func (m poolStateModel) toEntity() entities.PoolState {
	return entities.PoolState{
		PoolAddress:  m.PoolAddress,
		PollCount:    m.PollCount,
		TotalShare:   m.TotalShare,
		TotalDeposit: m.TotalDeposit,
	}
}

type stakerModel struct {
	Address       string    `gorm:"column:address;primaryKey"`
	Share         uint64    `gorm:"column:share"`
	LockedBalance []byte    `gorm:"column:locked_balance;type:jsonb"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (stakerModel) TableName() string {
	return "gov_stakers"
}

type lockedBalanceItem struct {
	PollID  uint64 `json:"poll_id"`
	Vote    string `json:"vote"`
	Balance uint64 `json:"balance"`
}

func stakerModelFromEntity(address string, manager entities.TokenManager) (stakerModel, error) {
	items := make([]lockedBalanceItem, 0, len(manager.LockedBalance))
	for pollID, info := range manager.LockedBalance {
		items = append(items, lockedBalanceItem{
			PollID:  pollID,
			Vote:    string(info.Vote),
			Balance: info.Balance,
		})
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return stakerModel{}, err
	}
	return stakerModel{
		Address:       strings.TrimSpace(address),
		Share:         manager.Share,
		LockedBalance: encoded,
		UpdatedAt:     time.Now().UTC(),
	}, nil
}

func (m stakerModel) toEntity() (entities.TokenManager, error) {
	manager := entities.NewTokenManager()
	manager.Share = m.Share
	if len(m.LockedBalance) == 0 {
		return manager, nil
	}
	var items []lockedBalanceItem
	if err := json.Unmarshal(m.LockedBalance, &items); err != nil {
		return entities.TokenManager{}, err
	}
	for _, item := range items {
		manager.LockedBalance[item.PollID] = entities.VoterInfo{
			Vote:    entities.VoteOption(item.Vote),
			Balance: item.Balance,
		}
	}
	return manager, nil
}

type pollModel struct {
	PollID                uint64    `gorm:"column:poll_id;primaryKey"`
	Creator               string    `gorm:"column:creator"`
	Status                string    `gorm:"column:status"`
	EndHeight             uint64    `gorm:"column:end_height"`
	Title                 string    `gorm:"column:title"`
	Description           string    `gorm:"column:description"`
	Link                  string    `gorm:"column:link"`
	DepositAmount         uint64    `gorm:"column:deposit_amount"`
	ExecuteMsgs           []byte    `gorm:"column:execute_msgs;type:jsonb"`
	YesVotes              uint64    `gorm:"column:yes_votes"`
	NoVotes               uint64    `gorm:"column:no_votes"`
	StakedAmount          *uint64   `gorm:"column:staked_amount"`
	TotalBalanceAtEndPoll *uint64   `gorm:"column:total_balance_at_end_poll"`
	RejectedReason        string    `gorm:"column:rejected_reason"`
	CreatedAt             time.Time `gorm:"column:created_at"`
	UpdatedAt             time.Time `gorm:"column:updated_at"`
}

func (pollModel) TableName() string {
	return "gov_polls"
}

type executeMsgItem struct {
	Order    uint64          `json:"order"`
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
}

func pollModelFromEntity(poll entities.Poll) (pollModel, error) {
	items := make([]executeMsgItem, 0, len(poll.ExecuteMsgs))
	for _, msg := range poll.ExecuteMsgs {
		items = append(items, executeMsgItem{
			Order:    msg.Order,
			Contract: msg.Contract,
			Msg:      json.RawMessage(msg.Msg),
		})
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return pollModel{}, err
	}
	row := pollModel{
		PollID:                poll.PollID,
		Creator:               strings.TrimSpace(poll.Creator),
		Status:                string(poll.Status),
		EndHeight:             poll.EndHeight,
		Title:                 poll.Title,
		Description:           poll.Description,
		Link:                  poll.Link,
		DepositAmount:         poll.DepositAmount,
		ExecuteMsgs:           encoded,
		YesVotes:              poll.YesVotes,
		NoVotes:               poll.NoVotes,
		StakedAmount:          poll.StakedAmount,
		TotalBalanceAtEndPoll: poll.TotalBalanceAtEndPoll,
		RejectedReason:        poll.RejectedReason,
		CreatedAt:             poll.CreatedAt.UTC(),
		UpdatedAt:             poll.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row, nil
}

func (m pollModel) toEntity() (entities.Poll, error) {
	poll := entities.Poll{
		PollID:                m.PollID,
		Creator:               m.Creator,
		Status:                entities.PollStatus(m.Status),
		EndHeight:             m.EndHeight,
		Title:                 m.Title,
		Description:           m.Description,
		Link:                  m.Link,
		DepositAmount:         m.DepositAmount,
		YesVotes:              m.YesVotes,
		NoVotes:               m.NoVotes,
		StakedAmount:          m.StakedAmount,
		TotalBalanceAtEndPoll: m.TotalBalanceAtEndPoll,
		RejectedReason:        m.RejectedReason,
		CreatedAt:             m.CreatedAt.UTC(),
		UpdatedAt:             m.UpdatedAt.UTC(),
	}
	if len(m.ExecuteMsgs) == 0 {
		return poll, nil
	}
	var items []executeMsgItem
	if err := json.Unmarshal(m.ExecuteMsgs, &items); err != nil {
		return entities.Poll{}, err
	}
	poll.ExecuteMsgs = make([]entities.ExecuteMsg, 0, len(items))
	for _, item := range items {
		poll.ExecuteMsgs = append(poll.ExecuteMsgs, entities.ExecuteMsg{
			Order:    item.Order,
			Contract: item.Contract,
			Msg:      []byte(item.Msg),
		})
	}
	return poll, nil
}

type pollVoterModel struct {
	PollID    uint64    `gorm:"column:poll_id;primaryKey"`
	Voter     string    `gorm:"column:voter;primaryKey"`
	Vote      string    `gorm:"column:vote"`
	Balance   uint64    `gorm:"column:balance"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (pollVoterModel) TableName() string {
	return "gov_poll_voters"
}

func (m pollVoterModel) toEntity() entities.VoterInfo {
	return entities.VoterInfo{
		Vote:    entities.VoteOption(m.Vote),
		Balance: m.Balance,
	}
}

type outboxModel struct {
	Seq          uint64     `gorm:"column:seq;primaryKey;autoIncrement"`
	OutboxID     string     `gorm:"column:outbox_id;uniqueIndex"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload;type:jsonb"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "gov_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "gov_event_dedup"
}
