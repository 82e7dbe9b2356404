package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/keyquest/keyquest/internal/config"
	"github.com/keyquest/keyquest/internal/domain/ledger"
	"github.com/keyquest/keyquest/internal/domain/level"
	"github.com/keyquest/keyquest/internal/domain/points"
	"github.com/keyquest/keyquest/internal/domain/submission"
	"github.com/keyquest/keyquest/internal/domain/task"
	"github.com/keyquest/keyquest/internal/domain/team"
	"github.com/keyquest/keyquest/internal/domain/unlock"
	"github.com/keyquest/keyquest/internal/domain/user"
	"github.com/keyquest/keyquest/internal/infrastructure/account/gatekeeper"
	"github.com/keyquest/keyquest/internal/infrastructure/jobqueue"
	"github.com/keyquest/keyquest/internal/infrastructure/repository/memory"
	"github.com/keyquest/keyquest/internal/infrastructure/repository/postgres"
	"github.com/keyquest/keyquest/internal/interfaces/httpapi"
	"github.com/keyquest/keyquest/internal/platform/cache"
	idgen "github.com/keyquest/keyquest/internal/platform/id"
	"github.com/keyquest/keyquest/internal/platform/logging"
	"github.com/keyquest/keyquest/internal/platform/resilience"
	"github.com/keyquest/keyquest/internal/usecase"
)

type repositories struct {
	users       user.Repository
	teams       team.Repository
	levels      level.Repository
	tasks       task.Repository
	submissions submission.Repository
	unlocks     unlock.Repository
	points      points.Repository
	ledger      ledger.Repository
}

// NewHTTPServer assembles the whole service. The returned cleanup releases
// infrastructure handles (currently the database pool) and must run after
// server shutdown, not before.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, func(), error) {
	repos, cleanup, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var store *cache.Store
	if cfg.CacheEnabled {
		store = cache.NewStore(cfg.CacheTTL)
	}

	recalcSvc := usecase.NewRecalcService(repos.users, repos.points, store, logger)
	progressSvc := usecase.NewProgressService(repos.teams, repos.levels, repos.tasks, repos.unlocks, store, logger)
	levelSvc := usecase.NewLevelService(repos.levels, repos.tasks)
	leaderboardSvc := usecase.NewLeaderboardService(repos.teams, repos.users, store)
	submissionSvc := usecase.NewSubmissionService(
		repos.tasks,
		repos.levels,
		repos.users,
		repos.submissions,
		repos.ledger,
		usecase.NewSubmissionValidator(),
		idgen.NewRandomGenerator(),
		recalcSvc,
		progressSvc,
		logger,
	)
	scheduleSvc := usecase.NewScheduleService(
		repos.levels,
		buildJobQueue(cfg, logger),
		usecase.ScheduleConfig{Horizon: cfg.ScheduleHorizon},
		logger,
	)

	verifier := gatekeeper.NewClient(
		&http.Client{Timeout: cfg.GatekeeperTimeout},
		gatekeeper.Config{
			BaseURL:        cfg.GatekeeperBaseURL,
			IntrospectPath: cfg.GatekeeperIntrospectPath,
			CacheTTL:       cfg.GatekeeperTokenCacheTTL,
			Breaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.GatekeeperCircuitEnabled,
				FailureThreshold: cfg.GatekeeperCircuitFailureCount,
				OpenTimeout:      cfg.GatekeeperCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.GatekeeperCircuitHalfOpenMaxReq,
			},
		},
		logger,
	)

	handler := httpapi.NewHandler(levelSvc, submissionSvc, progressSvc, leaderboardSvc, recalcSvc, scheduleSvc, logger)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		cleanup()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, cleanup, nil
}

// buildRepositories picks the storage backend. An empty DB_URL runs the
// seeded in-memory fixture set, anything else connects to Postgres.
func buildRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, func(), error) {
	if cfg.UseMemoryStorage() {
		ledgerRepo := memory.NewLedgerRepository()
		repos := repositories{
			users:       memory.NewUserRepository(memory.SeedUsers()),
			teams:       memory.NewTeamRepository(memory.SeedTeams()),
			levels:      memory.NewLevelRepository(memory.SeedLevels()),
			tasks:       memory.NewTaskRepository(memory.SeedTasks()),
			submissions: ledgerRepo.Submissions(),
			unlocks:     ledgerRepo.Unlocks(),
			points:      ledgerRepo.PointEntries(),
			ledger:      ledgerRepo,
		}
		logger.InfoContext(ctx, "storage backend selected", "backend", "memory")
		return repos, func() {}, nil
	}

	db, err := openDB(ctx, cfg, logger)
	if err != nil {
		return repositories{}, nil, err
	}

	if cfg.AppEnv == config.EnvDev {
		if err := postgres.BootstrapSeed(ctx, db); err != nil {
			_ = db.Close()
			return repositories{}, nil, fmt.Errorf("bootstrap seed: %w", err)
		}
	}

	repos := repositories{
		users:       postgres.NewUserRepository(db),
		teams:       postgres.NewTeamRepository(db),
		levels:      postgres.NewLevelRepository(db),
		tasks:       postgres.NewTaskRepository(db),
		submissions: postgres.NewSubmissionRepository(db),
		unlocks:     postgres.NewUnlockRepository(db),
		points:      postgres.NewPointsRepository(db),
		ledger:      postgres.NewLedgerRepository(db),
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Warn("close database", "error", err)
		}
	}
	logger.InfoContext(ctx, "storage backend selected", "backend", "postgres")
	return repos, cleanup, nil
}

func buildJobQueue(cfg config.Config, logger *logging.Logger) usecase.JobQueue {
	if !cfg.QStashEnabled {
		return usecase.NewNoopJobQueue()
	}

	return jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
		BaseURL:          cfg.QStashBaseURL,
		Token:            cfg.QStashToken,
		TargetBaseURL:    cfg.QStashTargetBaseURL,
		Retries:          cfg.QStashRetries,
		InternalJobToken: cfg.InternalJobToken,
		Timeout:          cfg.QStashTimeout,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.QStashCircuitEnabled,
			FailureThreshold: cfg.QStashCircuitFailureCount,
			OpenTimeout:      cfg.QStashCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
		},
	}, logger)
}
