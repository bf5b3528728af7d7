package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"stakegov/contexts/token-governance/gov-engine/domain/entities"
	domainerrors "stakegov/contexts/token-governance/gov-engine/domain/errors"
	"stakegov/contexts/token-governance/gov-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

// Store is the in-memory implementation of every gov-engine port plus a token
// balance stub, used by tests and local wiring. WithinTx serializes commands
// on a coarse mutex; there is no rollback, matching the single-goroutine use
// in tests.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	config    entities.Config
	hasConfig bool

	state    entities.PoolState
	hasState bool

	stakers  map[string]entities.TokenManager
	polls    map[uint64]entities.Poll
	voters   map[uint64]map[string]entities.VoterInfo
	balances map[string]uint64

	outbox     map[string]outboxRecord
	outboxSeq  uint64
	eventDedup map[string]dedupRecord
}

func NewStore() *Store {
	return &Store{
		stakers:    make(map[string]entities.TokenManager),
		polls:      make(map[uint64]entities.Poll),
		voters:     make(map[uint64]map[string]entities.VoterInfo),
		balances:   make(map[string]uint64),
		outbox:     make(map[string]outboxRecord),
		eventDedup: make(map[string]dedupRecord),
	}
}

// SetBalance seeds the token balance stub for an address.
func (s *Store) SetBalance(holder string, balance uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[strings.TrimSpace(holder)] = balance
}

func (s *Store) Balance(_ context.Context, holder string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[strings.TrimSpace(holder)], nil
}

func (s *Store) GetConfig(_ context.Context) (entities.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasConfig {
		return entities.Config{}, domainerrors.ErrNotInitialized
	}
	return s.config, nil
}

func (s *Store) SaveConfig(_ context.Context, cfg entities.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.hasConfig = true
	return nil
}

func (s *Store) GetPoolState(_ context.Context) (entities.PoolState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasState {
		return entities.PoolState{}, domainerrors.ErrNotInitialized
	}
	return s.state, nil
}

func (s *Store) SavePoolState(_ context.Context, state entities.PoolState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.hasState = true
	return nil
}

func (s *Store) GetStaker(_ context.Context, address string) (entities.TokenManager, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	manager, ok := s.stakers[strings.TrimSpace(address)]
	if !ok {
		return entities.TokenManager{}, false, nil
	}
	return cloneManager(manager), true, nil
}

func (s *Store) SaveStaker(_ context.Context, address string, manager entities.TokenManager) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stakers[strings.TrimSpace(address)] = cloneManager(manager)
	return nil
}

func (s *Store) GetPoll(_ context.Context, pollID uint64) (entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	poll, ok := s.polls[pollID]
	if !ok {
		return entities.Poll{}, domainerrors.ErrPollNotFound
	}
	return poll, nil
}

func (s *Store) SavePoll(_ context.Context, poll entities.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[poll.PollID] = poll
	return nil
}

func (s *Store) ListPolls(_ context.Context, filter ports.PollListFilter) ([]entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Poll, 0, len(s.polls))
	for _, poll := range s.polls {
		if filter.Status != nil && poll.Status != *filter.Status {
			continue
		}
		items = append(items, poll)
	}
	sort.Slice(items, func(i, j int) bool {
		if filter.Order == entities.OrderByDesc {
			return items[i].PollID > items[j].PollID
		}
		return items[i].PollID < items[j].PollID
	})
	if filter.StartAfter != nil {
		cut := *filter.StartAfter
		filtered := items[:0]
		for _, poll := range items {
			if filter.Order == entities.OrderByDesc {
				if poll.PollID < cut {
					filtered = append(filtered, poll)
				}
			} else if poll.PollID > cut {
				filtered = append(filtered, poll)
			}
		}
		items = filtered
	}
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (s *Store) GetVoter(_ context.Context, pollID uint64, voter string) (entities.VoterInfo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.voters[pollID][strings.TrimSpace(voter)]
	return info, ok, nil
}

func (s *Store) SaveVoter(_ context.Context, pollID uint64, voter string, info entities.VoterInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byVoter, ok := s.voters[pollID]
	if !ok {
		byVoter = make(map[string]entities.VoterInfo)
		s.voters[pollID] = byVoter
	}
	byVoter[strings.TrimSpace(voter)] = info
	return nil
}

func (s *Store) ListVoters(_ context.Context, pollID uint64, filter ports.VoterListFilter) ([]entities.PollVoter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.PollVoter, 0, len(s.voters[pollID]))
	for voter, info := range s.voters[pollID] {
		items = append(items, entities.PollVoter{Voter: voter, Info: info})
	}
	sort.Slice(items, func(i, j int) bool {
		if filter.Order == entities.OrderByDesc {
			return items[i].Voter > items[j].Voter
		}
		return items[i].Voter < items[j].Voter
	})
	if cut := strings.TrimSpace(filter.StartAfter); cut != "" {
		filtered := items[:0]
		for _, item := range items {
			if filter.Order == entities.OrderByDesc {
				if item.Voter < cut {
					filtered = append(filtered, item)
				}
			} else if item.Voter > cut {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outboxSeq++
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Sequence:     s.outboxSeq,
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		pending = append(pending, record.message)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Sequence < pending[j].Sequence
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return nil
	}
	record.published = true
	s.outbox[strings.TrimSpace(outboxID)] = record
	return nil
}

func (s *Store) ReserveEvent(
	_ context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eventID = strings.TrimSpace(eventID)
	if record, ok := s.eventDedup[eventID]; ok {
		if record.payloadHash != payloadHash {
			return false, domainerrors.ErrConflict
		}
		return true, nil
	}
	s.eventDedup[eventID] = dedupRecord{payloadHash: payloadHash, expiresAt: expiresAt.UTC()}
	return false, nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneManager(manager entities.TokenManager) entities.TokenManager {
	cloned := entities.TokenManager{
		Share:         manager.Share,
		LockedBalance: make(map[uint64]entities.VoterInfo, len(manager.LockedBalance)),
	}
	for pollID, info := range manager.LockedBalance {
		cloned.LockedBalance[pollID] = info
	}
	return cloned
}
