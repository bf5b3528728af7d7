package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "stakegov/contexts/token-governance/gov-engine/application"
	"stakegov/contexts/token-governance/gov-engine/domain/entities"
	domainerrors "stakegov/contexts/token-governance/gov-engine/domain/errors"
	"stakegov/contexts/token-governance/gov-engine/ports"
)

// InitCommand seeds the singleton policy and pool ledger exactly once.
type InitCommand struct {
	Owner            string
	PoolAddress      string
	Quorum           float64
	Threshold        float64
	VotingPeriod     uint64
	TimelockPeriod   uint64
	ExpirationPeriod uint64
	ProposalDeposit  uint64
	SnapshotPeriod   uint64
}

// RegisterTokenCommand binds the governance token contract. One-shot: once a
// token is registered it can never be replaced.
type RegisterTokenCommand struct {
	Sender string
	Token  string
}

// UpdateConfigCommand applies a partial policy update; nil fields keep their
// current value.
type UpdateConfigCommand struct {
	Sender           string
	Owner            *string
	Quorum           *float64
	Threshold        *float64
	VotingPeriod     *uint64
	TimelockPeriod   *uint64
	ExpirationPeriod *uint64
	ProposalDeposit  *uint64
	SnapshotPeriod   *uint64
}

// AdminUseCase owns initialization and owner-gated policy management.
type AdminUseCase struct {
	Config ports.ConfigRepository
	Ledger ports.LedgerRepository
	Tx     ports.UnitOfWork
	Logger *slog.Logger
}

func (uc AdminUseCase) Init(ctx context.Context, cmd InitCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	owner := strings.TrimSpace(cmd.Owner)
	pool := strings.TrimSpace(cmd.PoolAddress)
	if owner == "" || pool == "" {
		return domainerrors.ErrUnauthorized
	}
	cfg := entities.Config{
		Owner:            owner,
		Quorum:           cmd.Quorum,
		Threshold:        cmd.Threshold,
		VotingPeriod:     cmd.VotingPeriod,
		TimelockPeriod:   cmd.TimelockPeriod,
		ExpirationPeriod: cmd.ExpirationPeriod,
		ProposalDeposit:  cmd.ProposalDeposit,
		SnapshotPeriod:   cmd.SnapshotPeriod,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	err := runInTx(ctx, uc.Tx, func(ctx context.Context) error {
		if _, err := uc.Config.GetConfig(ctx); err == nil {
			return domainerrors.ErrAlreadyInitialized
		} else if !errors.Is(err, domainerrors.ErrNotInitialized) {
			return err
		}
		if err := uc.Config.SaveConfig(ctx, cfg); err != nil {
			return err
		}
		return uc.Ledger.SavePoolState(ctx, entities.PoolState{PoolAddress: pool})
	})
	if err != nil {
		return err
	}

	logger.Info("governance initialized",
		"event", "gov_initialized",
		"module", "token-governance/gov-engine",
		"layer", "application",
		"owner", owner,
		"pool_address", pool,
	)
	return nil
}

func (uc AdminUseCase) RegisterToken(ctx context.Context, cmd RegisterTokenCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	token := strings.TrimSpace(cmd.Token)
	if token == "" {
		return domainerrors.ErrUnauthorized
	}

	err := runInTx(ctx, uc.Tx, func(ctx context.Context) error {
		cfg, err := uc.Config.GetConfig(ctx)
		if err != nil {
			return err
		}
		if cfg.Token != "" {
			return domainerrors.ErrUnauthorized
		}
		if strings.TrimSpace(cmd.Sender) != cfg.Owner {
			return domainerrors.ErrUnauthorized
		}
		cfg.Token = token
		return uc.Config.SaveConfig(ctx, cfg)
	})
	if err != nil {
		logger.Warn("token registration rejected",
			"event", "gov_register_token_rejected",
			"module", "token-governance/gov-engine",
			"layer", "application",
			"error", err.Error(),
		)
		return err
	}

	logger.Info("governance token registered",
		"event", "gov_token_registered",
		"module", "token-governance/gov-engine",
		"layer", "application",
		"token", token,
	)
	return nil
}

func (uc AdminUseCase) UpdateConfig(ctx context.Context, cmd UpdateConfigCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	err := runInTx(ctx, uc.Tx, func(ctx context.Context) error {
		cfg, err := uc.Config.GetConfig(ctx)
		if err != nil {
			return err
		}
		if strings.TrimSpace(cmd.Sender) != cfg.Owner {
			return domainerrors.ErrUnauthorized
		}
		if cmd.Owner != nil {
			cfg.Owner = strings.TrimSpace(*cmd.Owner)
		}
		if cmd.Quorum != nil {
			cfg.Quorum = *cmd.Quorum
		}
		if cmd.Threshold != nil {
			cfg.Threshold = *cmd.Threshold
		}
		if cmd.VotingPeriod != nil {
			cfg.VotingPeriod = *cmd.VotingPeriod
		}
		if cmd.TimelockPeriod != nil {
			cfg.TimelockPeriod = *cmd.TimelockPeriod
		}
		if cmd.ExpirationPeriod != nil {
			cfg.ExpirationPeriod = *cmd.ExpirationPeriod
		}
		if cmd.ProposalDeposit != nil {
			cfg.ProposalDeposit = *cmd.ProposalDeposit
		}
		if cmd.SnapshotPeriod != nil {
			cfg.SnapshotPeriod = *cmd.SnapshotPeriod
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return uc.Config.SaveConfig(ctx, cfg)
	})
	if err != nil {
		return err
	}

	logger.Info("governance config updated",
		"event", "gov_config_updated",
		"module", "token-governance/gov-engine",
		"layer", "application",
	)
	return nil
}
