package govengine

import (
	"log/slog"

	httpadapter "stakegov/contexts/token-governance/gov-engine/adapters/http"
	"stakegov/contexts/token-governance/gov-engine/adapters/memory"
	"stakegov/contexts/token-governance/gov-engine/application/commands"
	"stakegov/contexts/token-governance/gov-engine/application/queries"
	"stakegov/contexts/token-governance/gov-engine/ports"
)

// Module bundles the wired gov-engine surface: the HTTP handler plus the use
// cases the worker process and bootstrap need directly.
type Module struct {
	Handler httpadapter.Handler
	Admin   commands.AdminUseCase
	Ledger  commands.LedgerUseCase
	Polls   commands.PollUseCase
	Store   *memory.Store
}

type Dependencies struct {
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

func NewModule(deps Dependencies) Module {
	adminUseCase := commands.AdminUseCase{
		Config: deps.Config,
		Ledger: deps.Ledger,
		Tx:     deps.Tx,
		Logger: deps.Logger,
	}
	ledgerUseCase := commands.LedgerUseCase{
		Config: deps.Config,
		Ledger: deps.Ledger,
		Polls:  deps.Polls,
		Token:  deps.Token,
		Outbox: deps.Outbox,
		Tx:     deps.Tx,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	pollUseCase := commands.PollUseCase{
		Config: deps.Config,
		Ledger: deps.Ledger,
		Polls:  deps.Polls,
		Token:  deps.Token,
		Outbox: deps.Outbox,
		Tx:     deps.Tx,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Admin:  adminUseCase,
			Ledger: ledgerUseCase,
			Polls:  pollUseCase,
			PollQ:  queries.PollQueryUseCase{Repo: deps.Polls},
			StakerQ: queries.StakerQueryUseCase{
				Ledger: deps.Ledger,
				Polls:  deps.Polls,
				Token:  deps.Token,
			},
			StateQ: queries.StateQueryUseCase{Configs: deps.Config, Ledger: deps.Ledger},
			Logger: deps.Logger,
		},
		Admin:  adminUseCase,
		Ledger: ledgerUseCase,
		Polls:  pollUseCase,
	}
}

// NewInMemoryModule wires the module against the in-memory store, including
// the token balance stub. Used by tests and local development.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Config: store,
		Ledger: store,
		Polls:  store,
		Token:  store,
		Outbox: store,
		Tx:     store,
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
