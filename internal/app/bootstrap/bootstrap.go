package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	govengine "stakegov/contexts/token-governance/gov-engine"
	postgresadapter "stakegov/contexts/token-governance/gov-engine/adapters/postgres"
	tokenadapter "stakegov/contexts/token-governance/gov-engine/adapters/token"
	"stakegov/contexts/token-governance/gov-engine/application/commands"
	workerapp "stakegov/contexts/token-governance/gov-engine/application/workers"
	domainerrors "stakegov/contexts/token-governance/gov-engine/domain/errors"
	"stakegov/internal/platform/config"
	"stakegov/internal/platform/db"
	"stakegov/internal/platform/httpserver"
	"stakegov/internal/platform/messaging"
	"stakegov/internal/platform/metrics"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	deposits     workerapp.DepositConsumer
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	pg, repo, err := connect(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(); err != nil {
		_ = pg.Close()
		return nil, err
	}

	module := buildModule(cfg, repo, logger)
	if err := seedGovernance(context.Background(), cfg, module); err != nil {
		_ = pg.Close()
		return nil, err
	}

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	pg, repo, err := connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	module := buildModule(cfg, repo, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		deposits: workerapp.DepositConsumer{
			Subscriber: kafka,
			Dedup:      repo,
			Ledger:     module.Ledger,
			Polls:      module.Polls,
			Clock:      postgresadapter.SystemClock{},
			DedupTTL:   7 * 24 * time.Hour,
			Disabled:   !cfg.EnableDepositConsumer,
			Logger:     logger,
		},
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func connect(cfg config.Config, logger *slog.Logger) (*db.Postgres, *postgresadapter.Repository, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, nil, errors.New("POSTGRES_DSN is required")
	}
	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	return pg, postgresadapter.NewRepository(pg.DB, logger), nil
}

func buildModule(cfg config.Config, repo *postgresadapter.Repository, logger *slog.Logger) govengine.Module {
	return govengine.NewModule(govengine.Dependencies{
		Config: repo,
		Ledger: repo,
		Polls:  repo,
		Token:  tokenadapter.NewClient(cfg.TokenServiceURL),
		Outbox: repo,
		Tx:     repo,
		Clock:  postgresadapter.SystemClock{},
		IDGen:  postgresadapter.UUIDGenerator{},
		Logger: logger,
	})
}

// seedGovernance initializes the singleton policy on first boot; an already
// initialized engine keeps its stored config.
func seedGovernance(ctx context.Context, cfg config.Config, module govengine.Module) error {
	if strings.TrimSpace(cfg.GovOwner) == "" || strings.TrimSpace(cfg.GovPoolAddress) == "" {
		return nil
	}
	err := module.Admin.Init(ctx, commands.InitCommand{
		Owner:            cfg.GovOwner,
		PoolAddress:      cfg.GovPoolAddress,
		Quorum:           cfg.GovQuorum,
		Threshold:        cfg.GovThreshold,
		VotingPeriod:     cfg.GovVotingPeriod,
		TimelockPeriod:   cfg.GovTimelockPeriod,
		ExpirationPeriod: cfg.GovExpirationPeriod,
		ProposalDeposit:  cfg.GovProposalDeposit,
		SnapshotPeriod:   cfg.GovSnapshotPeriod,
	})
	if errors.Is(err, domainerrors.ErrAlreadyInitialized) {
		return nil
	}
	return err
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.deposits.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		// Relay errors are retried on the next tick; pending rows stay pending.
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			w.logger.Warn("outbox relay cycle failed",
				"event", "bootstrap_outbox_relay_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		} else {
			metrics.OutboxRelayCycles.Inc()
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
