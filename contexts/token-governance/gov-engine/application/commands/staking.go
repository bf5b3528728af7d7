package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "stakegov/contexts/token-governance/gov-engine/application"
	"stakegov/contexts/token-governance/gov-engine/domain/entities"
	domainerrors "stakegov/contexts/token-governance/gov-engine/domain/errors"
	"stakegov/contexts/token-governance/gov-engine/ports"
)

// StakeCommand is the write-model input for a staking deposit. Source is the
// contract that reported the transfer and must match the registered token.
type StakeCommand struct {
	Source string
	Staker string
	Amount uint64
}

// StakeResult returns the minted share and the resulting pool totals.
type StakeResult struct {
	Staker      string
	Amount      uint64
	MintedShare uint64
	TotalShare  uint64
}

// WithdrawCommand requests a withdrawal quoted in token units. Nil Amount
// means "everything the staker's shares are worth".
type WithdrawCommand struct {
	Staker string
	Amount *uint64
}

// WithdrawResult returns the paid amount and the share burned for it.
type WithdrawResult struct {
	Staker      string
	Amount      uint64
	BurnedShare uint64
}

// LedgerUseCase orchestrates the share-based staking ledger: deposits mint
// shares against the pre-deposit pool balance, withdrawals burn shares and
// schedule a token transfer through the outbox.
type LedgerUseCase struct {
	Config ports.ConfigRepository
	Ledger ports.LedgerRepository
	Polls  ports.PollRepository
	Token  ports.TokenClient
	Outbox ports.OutboxWriter
	Tx     ports.UnitOfWork
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// Stake credits a reported token deposit to the staker. The pool balance
// quoted by the token contract already contains the incoming amount, so the
// share price is computed against balance minus amount minus escrowed
// deposits.
func (uc LedgerUseCase) Stake(ctx context.Context, cmd StakeCommand) (StakeResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	staker := strings.TrimSpace(cmd.Staker)
	logger.Info("stake processing started",
		"event", "gov_stake_started",
		"module", "token-governance/gov-engine",
		"layer", "application",
		"staker", staker,
		"amount", cmd.Amount,
	)
	if cmd.Amount == 0 {
		logger.Warn("stake rejected: zero amount",
			"event", "gov_stake_validation_failed",
			"module", "token-governance/gov-engine",
			"layer", "application",
			"staker", staker,
		)
		return StakeResult{}, domainerrors.ErrInsufficientFunds
	}
	if staker == "" {
		return StakeResult{}, domainerrors.ErrUnauthorized
	}

	var result StakeResult
	err := runInTx(ctx, uc.Tx, func(ctx context.Context) error {
		cfg, err := uc.Config.GetConfig(ctx)
		if err != nil {
			return err
		}
		if cfg.Token == "" || strings.TrimSpace(cmd.Source) != cfg.Token {
			return domainerrors.ErrUnauthorized
		}

		state, err := uc.Ledger.GetPoolState(ctx)
		if err != nil {
			return err
		}
		manager, found, err := uc.Ledger.GetStaker(ctx, staker)
		if err != nil {
			return err
		}
		if !found {
			manager = entities.NewTokenManager()
		}

		balance, err := uc.Token.Balance(ctx, state.PoolAddress)
		if err != nil {
			return err
		}
		// Recover the pre-deposit stake pool: strip the amount just received
		// and the escrowed proposal deposits.
		totalBalance := saturatingSub(saturatingSub(balance, state.TotalDeposit), cmd.Amount)

		minted := entities.SharesForDeposit(cmd.Amount, state.TotalShare, totalBalance)
		manager.Share += minted
		state.TotalShare += minted

		if err := uc.Ledger.SaveStaker(ctx, staker, manager); err != nil {
			return err
		}
		if err := uc.Ledger.SavePoolState(ctx, state); err != nil {
			return err
		}
		result = StakeResult{
			Staker:      staker,
			Amount:      cmd.Amount,
			MintedShare: minted,
			TotalShare:  state.TotalShare,
		}
		return nil
	})
	if err != nil {
		return StakeResult{}, err
	}

	logger.Info("stake applied",
		"event", "gov_stake_applied",
		"module", "token-governance/gov-engine",
		"layer", "application",
		"staker", result.Staker,
		"amount", result.Amount,
		"minted_share", result.MintedShare,
		"total_share", result.TotalShare,
	)
	return result, nil
}

// Withdraw burns shares for the requested token amount and schedules the
// payout transfer. Vote locks are advisory; the staker may always withdraw up
// to the full quoted value of their shares. Locks held on polls that already
// left the in-progress state are garbage collected on the way.
func (uc LedgerUseCase) Withdraw(ctx context.Context, cmd WithdrawCommand) (WithdrawResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	staker := strings.TrimSpace(cmd.Staker)
	logger.Info("withdraw processing started",
		"event", "gov_withdraw_started",
		"module", "token-governance/gov-engine",
		"layer", "application",
		"staker", staker,
	)
	if staker == "" {
		return WithdrawResult{}, domainerrors.ErrUnauthorized
	}

	var result WithdrawResult
	err := runInTx(ctx, uc.Tx, func(ctx context.Context) error {
		state, err := uc.Ledger.GetPoolState(ctx)
		if err != nil {
			return err
		}
		manager, found, err := uc.Ledger.GetStaker(ctx, staker)
		if err != nil {
			return err
		}
		if !found || manager.Share == 0 {
			return domainerrors.ErrNothingStaked
		}

		if err := uc.collectFinishedLocks(ctx, &manager); err != nil {
			return err
		}

		balance, err := uc.Token.Balance(ctx, state.PoolAddress)
		if err != nil {
			return err
		}
		totalBalance := saturatingSub(balance, state.TotalDeposit)

		quoted := entities.TokensForShare(manager.Share, totalBalance, state.TotalShare)
		amount := quoted
		if cmd.Amount != nil {
			amount = *cmd.Amount
		}
		if amount > quoted {
			return domainerrors.ErrExceedsBalance
		}

		burned := manager.Share
		if amount != quoted {
			burned = entities.MulDiv(amount, state.TotalShare, totalBalance)
		}
		manager.Share -= burned
		state.TotalShare -= burned

		if err := uc.Ledger.SaveStaker(ctx, staker, manager); err != nil {
			return err
		}
		if err := uc.Ledger.SavePoolState(ctx, state); err != nil {
			return err
		}
		appender := outboxAppender{Outbox: uc.Outbox, IDGen: uc.IDGen}
		if err := appender.append(ctx, EventTypeTokenTransfer, "staker", staker, uc.now(), TokenTransferPayload{
			Recipient: staker,
			Amount:    amount,
		}); err != nil {
			return err
		}
		result = WithdrawResult{Staker: staker, Amount: amount, BurnedShare: burned}
		return nil
	})
	if err != nil {
		return WithdrawResult{}, err
	}

	logger.Info("withdraw applied",
		"event", "gov_withdraw_applied",
		"module", "token-governance/gov-engine",
		"layer", "application",
		"staker", result.Staker,
		"amount", result.Amount,
		"burned_share", result.BurnedShare,
	)
	return result, nil
}

// collectFinishedLocks drops lock cross-references whose poll has left the
// in-progress state. The owning VoterInfo copy on the poll is untouched.
func (uc LedgerUseCase) collectFinishedLocks(ctx context.Context, manager *entities.TokenManager) error {
	for pollID := range manager.LockedBalance {
		poll, err := uc.Polls.GetPoll(ctx, pollID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrPollNotFound) {
				delete(manager.LockedBalance, pollID)
				continue
			}
			return err
		}
		if !poll.InProgress() {
			delete(manager.LockedBalance, pollID)
		}
	}
	return nil
}

func (uc LedgerUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
