package queries

import (
	"context"
	"sort"
	"strings"

	"stakegov/contexts/token-governance/gov-engine/domain/entities"
	"stakegov/contexts/token-governance/gov-engine/ports"
)

// LockView is one advisory vote lock on an in-progress poll.
type LockView struct {
	PollID  uint64
	Vote    entities.VoteOption
	Balance uint64
}

// StakerView quotes a staker's position: the raw share, its current token
// value and the live vote locks. Locks on finished polls are filtered out of
// the view even before withdraw garbage-collects them.
type StakerView struct {
	Address string
	Share   uint64
	Balance uint64
	Locked  []LockView
}

// StakerQueryUseCase serves the staker read model.
type StakerQueryUseCase struct {
	Ledger ports.LedgerRepository
	Polls  ports.PollRepository
	Token  ports.TokenClient
}

func (uc StakerQueryUseCase) Staker(ctx context.Context, address string) (StakerView, error) {
	address = strings.TrimSpace(address)
	state, err := uc.Ledger.GetPoolState(ctx)
	if err != nil {
		return StakerView{}, err
	}
	manager, found, err := uc.Ledger.GetStaker(ctx, address)
	if err != nil {
		return StakerView{}, err
	}
	if !found {
		return StakerView{Address: address, Locked: []LockView{}}, nil
	}

	balance, err := uc.Token.Balance(ctx, state.PoolAddress)
	if err != nil {
		return StakerView{}, err
	}
	totalBalance := uint64(0)
	if balance > state.TotalDeposit {
		totalBalance = balance - state.TotalDeposit
	}

	locked := make([]LockView, 0, len(manager.LockedBalance))
	for pollID, info := range manager.LockedBalance {
		poll, err := uc.Polls.GetPoll(ctx, pollID)
		if err != nil || !poll.InProgress() {
			continue
		}
		locked = append(locked, LockView{PollID: pollID, Vote: info.Vote, Balance: info.Balance})
	}
	sort.Slice(locked, func(i, j int) bool { return locked[i].PollID < locked[j].PollID })

	return StakerView{
		Address: address,
		Share:   manager.Share,
		Balance: entities.TokensForShare(manager.Share, totalBalance, state.TotalShare),
		Locked:  locked,
	}, nil
}
