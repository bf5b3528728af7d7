package queries

import (
	"context"

	"stakegov/contexts/token-governance/gov-engine/domain/entities"
	"stakegov/contexts/token-governance/gov-engine/ports"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 30
)

// PollsQuery filters the poll listing. StartAfter is an exclusive cursor on
// the poll id.
type PollsQuery struct {
	Status     *entities.PollStatus
	StartAfter *uint64
	Limit      int
	Order      entities.OrderBy
}

// VotersQuery pages through the voters of one poll.
type VotersQuery struct {
	PollID     uint64
	StartAfter string
	Limit      int
	Order      entities.OrderBy
}

// PollQueryUseCase serves the poll read models.
type PollQueryUseCase struct {
	Repo ports.PollRepository
}

func (uc PollQueryUseCase) Poll(ctx context.Context, pollID uint64) (entities.Poll, error) {
	return uc.Repo.GetPoll(ctx, pollID)
}

func (uc PollQueryUseCase) Polls(ctx context.Context, query PollsQuery) ([]entities.Poll, error) {
	return uc.Repo.ListPolls(ctx, ports.PollListFilter{
		Status:     query.Status,
		StartAfter: query.StartAfter,
		Limit:      clampLimit(query.Limit),
		Order:      resolveOrder(query.Order),
	})
}

// Voters lists the recorded votes of an in-progress poll. Once a poll leaves
// the in-progress state the listing is empty; the tallies on the poll itself
// remain the durable record.
func (uc PollQueryUseCase) Voters(ctx context.Context, query VotersQuery) ([]entities.PollVoter, error) {
	poll, err := uc.Repo.GetPoll(ctx, query.PollID)
	if err != nil {
		return nil, err
	}
	if !poll.InProgress() {
		return []entities.PollVoter{}, nil
	}
	return uc.Repo.ListVoters(ctx, query.PollID, ports.VoterListFilter{
		StartAfter: query.StartAfter,
		Limit:      clampLimit(query.Limit),
		Order:      resolveOrder(query.Order),
	})
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}

func resolveOrder(order entities.OrderBy) entities.OrderBy {
	if order == entities.OrderByDesc {
		return entities.OrderByDesc
	}
	return entities.OrderByAsc
}
