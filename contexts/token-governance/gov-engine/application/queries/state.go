package queries

import (
	"context"

	"stakegov/contexts/token-governance/gov-engine/domain/entities"
	"stakegov/contexts/token-governance/gov-engine/ports"
)

// StateQueryUseCase serves the singleton policy and pool ledger views.
type StateQueryUseCase struct {
	Configs ports.ConfigRepository
	Ledger  ports.LedgerRepository
}

func (uc StateQueryUseCase) Config(ctx context.Context) (entities.Config, error) {
	return uc.Configs.GetConfig(ctx)
}

func (uc StateQueryUseCase) State(ctx context.Context) (entities.PoolState, error) {
	return uc.Ledger.GetPoolState(ctx)
}
