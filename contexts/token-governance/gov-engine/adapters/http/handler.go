package httpadapter

import (
	"context"
	"log/slog"

	"stakegov/contexts/token-governance/gov-engine/application/commands"
	"stakegov/contexts/token-governance/gov-engine/application/queries"
	"stakegov/contexts/token-governance/gov-engine/domain/entities"
	domainerrors "stakegov/contexts/token-governance/gov-engine/domain/errors"
	httptransport "stakegov/contexts/token-governance/gov-engine/transport/http"
)

// Handler maps transport DTOs onto the gov-engine use cases. The HTTP server
// in the platform layer owns routing, status codes and serialization.
type Handler struct {
	Admin   commands.AdminUseCase
	Ledger  commands.LedgerUseCase
	Polls   commands.PollUseCase
	PollQ   queries.PollQueryUseCase
	StakerQ queries.StakerQueryUseCase
	StateQ  queries.StateQueryUseCase
	Logger  *slog.Logger
}

// DepositHookHandler applies a deposit notification. A stake message mints
// shares; a create_poll message escrows the amount and opens a poll.
func (h Handler) DepositHookHandler(ctx context.Context, req httptransport.DepositHookRequest) (any, error) {
	switch {
	case req.Msg.CreatePoll != nil:
		msg := req.Msg.CreatePoll
		execMsgs := make([]entities.ExecuteMsg, 0, len(msg.ExecuteMsgs))
		for _, item := range msg.ExecuteMsgs {
			execMsgs = append(execMsgs, entities.ExecuteMsg{
				Order:    item.Order,
				Contract: item.Contract,
				Msg:      []byte(item.Msg),
			})
		}
		result, err := h.Polls.CreatePoll(ctx, commands.CreatePollCommand{
			Source:        req.Token,
			Creator:       req.Sender,
			DepositAmount: req.Amount,
			Title:         msg.Title,
			Description:   msg.Description,
			Link:          msg.Link,
			ExecuteMsgs:   execMsgs,
			Height:        req.Height,
		})
		if err != nil {
			return nil, err
		}
		return httptransport.CreatePollResponse{
			PollID:    result.PollID,
			Creator:   result.Creator,
			EndHeight: result.EndHeight,
		}, nil
	case req.Msg.Stake != nil:
		result, err := h.Ledger.Stake(ctx, commands.StakeCommand{
			Source: req.Token,
			Staker: req.Sender,
			Amount: req.Amount,
		})
		if err != nil {
			return nil, err
		}
		return httptransport.StakeResponse{
			Staker:      result.Staker,
			Amount:      result.Amount,
			MintedShare: result.MintedShare,
			TotalShare:  result.TotalShare,
		}, nil
	default:
		return nil, domainerrors.ErrInvalidDepositMsg
	}
}

func (h Handler) WithdrawHandler(ctx context.Context, address string, req httptransport.WithdrawRequest) (httptransport.WithdrawResponse, error) {
	result, err := h.Ledger.Withdraw(ctx, commands.WithdrawCommand{
		Staker: address,
		Amount: req.Amount,
	})
	if err != nil {
		return httptransport.WithdrawResponse{}, err
	}
	return httptransport.WithdrawResponse{
		Staker:      result.Staker,
		Amount:      result.Amount,
		BurnedShare: result.BurnedShare,
	}, nil
}

func (h Handler) CastVoteHandler(ctx context.Context, pollID uint64, req httptransport.CastVoteRequest) (httptransport.CastVoteResponse, error) {
	result, err := h.Polls.CastVote(ctx, commands.CastVoteCommand{
		Voter:  req.Voter,
		PollID: pollID,
		Vote:   entities.VoteOption(req.Vote),
		Amount: req.Amount,
		Height: req.Height,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		PollID:   result.PollID,
		Voter:    result.Voter,
		Vote:     string(result.Vote),
		Amount:   result.Amount,
		YesVotes: result.YesVotes,
		NoVotes:  result.NoVotes,
	}, nil
}

func (h Handler) SnapshotPollHandler(ctx context.Context, pollID uint64, req httptransport.HeightRequest) (httptransport.SnapshotPollResponse, error) {
	result, err := h.Polls.SnapshotPoll(ctx, commands.SnapshotPollCommand{
		PollID: pollID,
		Height: req.Height,
	})
	if err != nil {
		return httptransport.SnapshotPollResponse{}, err
	}
	return httptransport.SnapshotPollResponse{
		PollID:       result.PollID,
		StakedAmount: result.StakedAmount,
	}, nil
}

func (h Handler) EndPollHandler(ctx context.Context, pollID uint64, req httptransport.HeightRequest) (httptransport.EndPollResponse, error) {
	result, err := h.Polls.EndPoll(ctx, commands.EndPollCommand{
		PollID: pollID,
		Height: req.Height,
	})
	if err != nil {
		return httptransport.EndPollResponse{}, err
	}
	return httptransport.EndPollResponse{
		PollID:         result.PollID,
		Status:         string(result.Status),
		RejectedReason: result.RejectedReason,
		TalliedWeight:  result.TalliedWeight,
		StakedWeight:   result.StakedWeight,
	}, nil
}

func (h Handler) ExecutePollHandler(ctx context.Context, pollID uint64, req httptransport.HeightRequest) (httptransport.PollStatusResponse, error) {
	if err := h.Polls.ExecutePoll(ctx, commands.ExecutePollCommand{
		PollID: pollID,
		Height: req.Height,
	}); err != nil {
		return httptransport.PollStatusResponse{}, err
	}
	return httptransport.PollStatusResponse{
		PollID: pollID,
		Status: string(entities.PollStatusExecuted),
	}, nil
}

func (h Handler) ExpirePollHandler(ctx context.Context, pollID uint64, req httptransport.HeightRequest) (httptransport.PollStatusResponse, error) {
	if err := h.Polls.ExpirePoll(ctx, commands.ExpirePollCommand{
		PollID: pollID,
		Height: req.Height,
	}); err != nil {
		return httptransport.PollStatusResponse{}, err
	}
	return httptransport.PollStatusResponse{
		PollID: pollID,
		Status: string(entities.PollStatusExpired),
	}, nil
}

func (h Handler) RegisterTokenHandler(ctx context.Context, req httptransport.RegisterTokenRequest) error {
	return h.Admin.RegisterToken(ctx, commands.RegisterTokenCommand{
		Sender: req.Sender,
		Token:  req.Token,
	})
}

func (h Handler) UpdateConfigHandler(ctx context.Context, req httptransport.UpdateConfigRequest) error {
	return h.Admin.UpdateConfig(ctx, commands.UpdateConfigCommand{
		Sender:           req.Sender,
		Owner:            req.Owner,
		Quorum:           req.Quorum,
		Threshold:        req.Threshold,
		VotingPeriod:     req.VotingPeriod,
		TimelockPeriod:   req.TimelockPeriod,
		ExpirationPeriod: req.ExpirationPeriod,
		ProposalDeposit:  req.ProposalDeposit,
		SnapshotPeriod:   req.SnapshotPeriod,
	})
}

func (h Handler) ConfigHandler(ctx context.Context) (httptransport.ConfigResponse, error) {
	cfg, err := h.StateQ.Config(ctx)
	if err != nil {
		return httptransport.ConfigResponse{}, err
	}
	return httptransport.ConfigResponse{
		Owner:            cfg.Owner,
		Token:            cfg.Token,
		Quorum:           cfg.Quorum,
		Threshold:        cfg.Threshold,
		VotingPeriod:     cfg.VotingPeriod,
		TimelockPeriod:   cfg.TimelockPeriod,
		ExpirationPeriod: cfg.ExpirationPeriod,
		ProposalDeposit:  cfg.ProposalDeposit,
		SnapshotPeriod:   cfg.SnapshotPeriod,
	}, nil
}

func (h Handler) StateHandler(ctx context.Context) (httptransport.StateResponse, error) {
	state, err := h.StateQ.State(ctx)
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	return httptransport.StateResponse{
		PoolAddress:  state.PoolAddress,
		PollCount:    state.PollCount,
		TotalShare:   state.TotalShare,
		TotalDeposit: state.TotalDeposit,
	}, nil
}

func (h Handler) PollHandler(ctx context.Context, pollID uint64) (httptransport.PollResponse, error) {
	poll, err := h.PollQ.Poll(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return mapPoll(poll), nil
}

func (h Handler) PollsHandler(
	ctx context.Context,
	status string,
	startAfter *uint64,
	limit int,
	order string,
) (httptransport.PollsResponse, error) {
	query := queries.PollsQuery{
		StartAfter: startAfter,
		Limit:      limit,
		Order:      entities.OrderBy(order),
	}
	if status != "" {
		pollStatus := entities.PollStatus(status)
		if !pollStatus.Valid() {
			return httptransport.PollsResponse{}, domainerrors.ErrPollNotFound
		}
		query.Status = &pollStatus
	}
	polls, err := h.PollQ.Polls(ctx, query)
	if err != nil {
		return httptransport.PollsResponse{}, err
	}
	items := make([]httptransport.PollResponse, 0, len(polls))
	for _, poll := range polls {
		items = append(items, mapPoll(poll))
	}
	return httptransport.PollsResponse{Polls: items}, nil
}

func (h Handler) VotersHandler(
	ctx context.Context,
	pollID uint64,
	startAfter string,
	limit int,
	order string,
) (httptransport.VotersResponse, error) {
	voters, err := h.PollQ.Voters(ctx, queries.VotersQuery{
		PollID:     pollID,
		StartAfter: startAfter,
		Limit:      limit,
		Order:      entities.OrderBy(order),
	})
	if err != nil {
		return httptransport.VotersResponse{}, err
	}
	items := make([]httptransport.VoterItem, 0, len(voters))
	for _, voter := range voters {
		items = append(items, httptransport.VoterItem{
			Voter:   voter.Voter,
			Vote:    string(voter.Info.Vote),
			Balance: voter.Info.Balance,
		})
	}
	return httptransport.VotersResponse{PollID: pollID, Voters: items}, nil
}

func (h Handler) StakerHandler(ctx context.Context, address string) (httptransport.StakerResponse, error) {
	view, err := h.StakerQ.Staker(ctx, address)
	if err != nil {
		return httptransport.StakerResponse{}, err
	}
	locked := make([]httptransport.LockItem, 0, len(view.Locked))
	for _, lock := range view.Locked {
		locked = append(locked, httptransport.LockItem{
			PollID:  lock.PollID,
			Vote:    string(lock.Vote),
			Balance: lock.Balance,
		})
	}
	return httptransport.StakerResponse{
		Address: view.Address,
		Share:   view.Share,
		Balance: view.Balance,
		Locked:  locked,
	}, nil
}

func mapPoll(poll entities.Poll) httptransport.PollResponse {
	msgs := make([]httptransport.ExecuteMsg, 0, len(poll.ExecuteMsgs))
	for _, msg := range poll.ExecuteMsgs {
		msgs = append(msgs, httptransport.ExecuteMsg{
			Order:    msg.Order,
			Contract: msg.Contract,
			Msg:      msg.Msg,
		})
	}
	return httptransport.PollResponse{
		PollID:                poll.PollID,
		Creator:               poll.Creator,
		Status:                string(poll.Status),
		EndHeight:             poll.EndHeight,
		Title:                 poll.Title,
		Description:           poll.Description,
		Link:                  poll.Link,
		DepositAmount:         poll.DepositAmount,
		ExecuteMsgs:           msgs,
		YesVotes:              poll.YesVotes,
		NoVotes:               poll.NoVotes,
		StakedAmount:          poll.StakedAmount,
		TotalBalanceAtEndPoll: poll.TotalBalanceAtEndPoll,
		RejectedReason:        poll.RejectedReason,
	}
}
