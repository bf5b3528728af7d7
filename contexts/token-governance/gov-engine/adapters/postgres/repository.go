package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"stakegov/contexts/token-governance/gov-engine/domain/entities"
	domainerrors "stakegov/contexts/token-governance/gov-engine/domain/errors"
	"stakegov/contexts/token-governance/gov-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"

	singletonRowID = int16(1)
)

type txKey struct{}

// Repository implements every gov-engine storage port on postgres. WithinTx
// opens one gorm transaction and threads it through the context so all port
// calls inside a command share the same atomic commit.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

// Migrate creates the gov-engine tables.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&configModel{},
		&poolStateModel{},
		&stakerModel{},
		&pollModel{},
		&pollVoterModel{},
		&outboxModel{},
		&eventDedupModel{},
	)
}

func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *Repository) GetConfig(ctx context.Context) (entities.Config, error) {
	var row configModel
	err := r.conn(ctx).Where("id = ?", singletonRowID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Config{}, domainerrors.ErrNotInitialized
		}
		return entities.Config{}, r.logError("gov_repo_get_config_failed", err)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveConfig(ctx context.Context, cfg entities.Config) error {
	row := configModelFromEntity(cfg)
	create := r.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"owner":             row.Owner,
			"token":             row.Token,
			"quorum":            row.Quorum,
			"threshold":         row.Threshold,
			"voting_period":     row.VotingPeriod,
			"timelock_period":   row.TimelockPeriod,
			"expiration_period": row.ExpirationPeriod,
			"proposal_deposit":  row.ProposalDeposit,
			"snapshot_period":   row.SnapshotPeriod,
			"updated_at":        row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("gov_repo_save_config_failed", create.Error)
	}
	return nil
}

func (r *Repository) GetPoolState(ctx context.Context) (entities.PoolState, error) {
	var row poolStateModel
	err := r.conn(ctx).Where("id = ?", singletonRowID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PoolState{}, domainerrors.ErrNotInitialized
		}
		return entities.PoolState{}, r.logError("gov_repo_get_pool_state_failed", err)
	}
	return row.toEntity(), nil
}

func (r *Repository) SavePoolState(ctx context.Context, state entities.PoolState) error {
	row := poolStateModelFromEntity(state)
	create := r.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"pool_address":  row.PoolAddress,
			"poll_count":    row.PollCount,
			"total_share":   row.TotalShare,
			"total_deposit": row.TotalDeposit,
			"updated_at":    row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("gov_repo_save_pool_state_failed", create.Error)
	}
	return nil
}

func (r *Repository) GetStaker(ctx context.Context, address string) (entities.TokenManager, bool, error) {
	var row stakerModel
	err := r.conn(ctx).Where("address = ?", strings.TrimSpace(address)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.TokenManager{}, false, nil
		}
		return entities.TokenManager{}, false, r.logError("gov_repo_get_staker_failed", err,
			"address", strings.TrimSpace(address),
		)
	}
	manager, err := row.toEntity()
	if err != nil {
		return entities.TokenManager{}, false, r.logError("gov_repo_decode_staker_failed", err,
			"address", strings.TrimSpace(address),
		)
	}
	return manager, true, nil
}

func (r *Repository) SaveStaker(ctx context.Context, address string, manager entities.TokenManager) error {
	row, err := stakerModelFromEntity(address, manager)
	if err != nil {
		return r.logError("gov_repo_encode_staker_failed", err, "address", strings.TrimSpace(address))
	}
	create := r.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.Assignments(map[string]any{
			"share":          row.Share,
			"locked_balance": row.LockedBalance,
			"updated_at":     row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("gov_repo_save_staker_failed", create.Error, "address", row.Address)
	}
	return nil
}

func (r *Repository) GetPoll(ctx context.Context, pollID uint64) (entities.Poll, error) {
	var row pollModel
	err := r.conn(ctx).Where("poll_id = ?", pollID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Poll{}, domainerrors.ErrPollNotFound
		}
		return entities.Poll{}, r.logError("gov_repo_get_poll_failed", err, "poll_id", pollID)
	}
	poll, err := row.toEntity()
	if err != nil {
		return entities.Poll{}, r.logError("gov_repo_decode_poll_failed", err, "poll_id", pollID)
	}
	return poll, nil
}

func (r *Repository) SavePoll(ctx context.Context, poll entities.Poll) error {
	row, err := pollModelFromEntity(poll)
	if err != nil {
		return r.logError("gov_repo_encode_poll_failed", err, "poll_id", poll.PollID)
	}
	create := r.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "poll_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"creator":                   row.Creator,
			"status":                    row.Status,
			"end_height":                row.EndHeight,
			"title":                     row.Title,
			"description":               row.Description,
			"link":                      row.Link,
			"deposit_amount":            row.DepositAmount,
			"execute_msgs":              row.ExecuteMsgs,
			"yes_votes":                 row.YesVotes,
			"no_votes":                  row.NoVotes,
			"staked_amount":             row.StakedAmount,
			"total_balance_at_end_poll": row.TotalBalanceAtEndPoll,
			"rejected_reason":           row.RejectedReason,
			"updated_at":                row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("gov_repo_save_poll_failed", create.Error, "poll_id", poll.PollID)
	}
	return nil
}

func (r *Repository) ListPolls(ctx context.Context, filter ports.PollListFilter) ([]entities.Poll, error) {
	tx := r.conn(ctx).Model(&pollModel{})
	if filter.Status != nil {
		tx = tx.Where("status = ?", string(*filter.Status))
	}
	order := "poll_id ASC"
	if filter.Order == entities.OrderByDesc {
		order = "poll_id DESC"
	}
	if filter.StartAfter != nil {
		if filter.Order == entities.OrderByDesc {
			tx = tx.Where("poll_id < ?", *filter.StartAfter)
		} else {
			tx = tx.Where("poll_id > ?", *filter.StartAfter)
		}
	}
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}
	var rows []pollModel
	if err := tx.Order(order).Find(&rows).Error; err != nil {
		return nil, r.logError("gov_repo_list_polls_failed", err)
	}
	items := make([]entities.Poll, 0, len(rows))
	for _, row := range rows {
		poll, err := row.toEntity()
		if err != nil {
			return nil, r.logError("gov_repo_decode_poll_failed", err, "poll_id", row.PollID)
		}
		items = append(items, poll)
	}
	return items, nil
}

func (r *Repository) GetVoter(ctx context.Context, pollID uint64, voter string) (entities.VoterInfo, bool, error) {
	var row pollVoterModel
	err := r.conn(ctx).
		Where("poll_id = ? AND voter = ?", pollID, strings.TrimSpace(voter)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VoterInfo{}, false, nil
		}
		return entities.VoterInfo{}, false, r.logError("gov_repo_get_voter_failed", err,
			"poll_id", pollID,
			"voter", strings.TrimSpace(voter),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) SaveVoter(ctx context.Context, pollID uint64, voter string, info entities.VoterInfo) error {
	row := pollVoterModel{
		PollID:    pollID,
		Voter:     strings.TrimSpace(voter),
		Vote:      string(info.Vote),
		Balance:   info.Balance,
		CreatedAt: time.Now().UTC(),
	}
	create := r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "poll_id"}, {Name: "voter"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("gov_repo_save_voter_failed", create.Error,
			"poll_id", pollID,
			"voter", row.Voter,
		)
	}
	if create.RowsAffected == 0 {
		return domainerrors.ErrAlreadyVoted
	}
	return nil
}

func (r *Repository) ListVoters(ctx context.Context, pollID uint64, filter ports.VoterListFilter) ([]entities.PollVoter, error) {
	tx := r.conn(ctx).Model(&pollVoterModel{}).Where("poll_id = ?", pollID)
	order := "voter ASC"
	if filter.Order == entities.OrderByDesc {
		order = "voter DESC"
	}
	if cut := strings.TrimSpace(filter.StartAfter); cut != "" {
		if filter.Order == entities.OrderByDesc {
			tx = tx.Where("voter < ?", cut)
		} else {
			tx = tx.Where("voter > ?", cut)
		}
	}
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}
	var rows []pollVoterModel
	if err := tx.Order(order).Find(&rows).Error; err != nil {
		return nil, r.logError("gov_repo_list_voters_failed", err, "poll_id", pollID)
	}
	items := make([]entities.PollVoter, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.PollVoter{Voter: row.Voter, Info: row.toEntity()})
	}
	return items, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("gov_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("gov_repo_append_outbox_insert_failed", create.Error, "outbox_id", row.OutboxID)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.conn(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("gov_repo_append_outbox_load_existing_failed", err, "outbox_id", row.OutboxID)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.conn(ctx).
		Where("status = ?", outboxStatusPending).
		Order("seq ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("gov_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Sequence:     row.Seq,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.conn(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("gov_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	create := r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("gov_repo_reserve_event_failed", create.Error,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if create.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.conn(ctx).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).Error; err != nil {
		return false, r.logError("gov_repo_reserve_event_load_existing_failed", err,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, domainerrors.ErrConflict
	}
	return true, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "token-governance/gov-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("gov repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator is the production IDGenerator.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.ConfigRepository = (*Repository)(nil)
var _ ports.LedgerRepository = (*Repository)(nil)
var _ ports.PollRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.EventDedup = (*Repository)(nil)
var _ ports.UnitOfWork = (*Repository)(nil)
var _ ports.Clock = SystemClock{}
var _ ports.IDGenerator = UUIDGenerator{}
