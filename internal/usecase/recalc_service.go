package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/keyquest/keyquest/internal/domain/points"
	"github.com/keyquest/keyquest/internal/domain/user"
	"github.com/keyquest/keyquest/internal/platform/cache"
	"github.com/keyquest/keyquest/internal/platform/logging"
)

const (
	recalcStatusSuccess = "success"
	recalcStatusFailed  = "failed"

	defaultRecalcWorkers = 4
	maxRecalcWorkers     = 32
)

type RecalcInput struct {
	// UserIDs narrows the run; empty means every user.
	UserIDs    []string
	MaxWorkers int
	// DryRun computes totals without writing them back.
	DryRun bool
}

type RecalcResult struct {
	UserCount    int         `json:"user_count"`
	SuccessCount int         `json:"success_count"`
	FailedCount  int         `json:"failed_count"`
	ChangedCount int         `json:"changed_count"`
	WorkerCount  int         `json:"worker_count"`
	DryRun       bool        `json:"dry_run"`
	Rows         []RecalcRow `json:"rows"`
}

type RecalcRow struct {
	UserID        string `json:"user_id"`
	PreviousTotal int    `json:"previous_total"`
	PointTotal    int    `json:"point_total"`
	Changed       bool   `json:"changed"`
	Status        string `json:"status"`
	DurationMs    int64  `json:"duration_ms"`
	Message       string `json:"message,omitempty"`
}

// RecalcService rebuilds cached point totals from the point-entry ledger.
// Totals are overwritten, never incremented, so a run is idempotent and
// safe to repeat while submissions keep landing.
type RecalcService struct {
	userRepo   user.Repository
	pointsRepo points.Repository
	store      *cache.Store
	logger     *logging.Logger
}

func NewRecalcService(
	userRepo user.Repository,
	pointsRepo points.Repository,
	store *cache.Store,
	logger *logging.Logger,
) *RecalcService {
	if logger == nil {
		logger = logging.Default()
	}

	return &RecalcService{
		userRepo:   userRepo,
		pointsRepo: pointsRepo,
		store:      store,
		logger:     logger,
	}
}

// RecalculateUser rebuilds one user's cached total and returns it.
func (s *RecalcService) RecalculateUser(ctx context.Context, userID string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalcService.RecalculateUser")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	_, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get user: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: user=%s", ErrNotFound, userID)
	}

	total, err := s.pointsRepo.SumByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("sum point entries: %w", err)
	}

	if err := s.userRepo.UpdatePointTotal(ctx, userID, total); err != nil {
		return 0, fmt.Errorf("update point total: %w", err)
	}

	s.invalidateLeaderboard(ctx)
	return total, nil
}

// RecalculateAll rebuilds every targeted user's total on a worker pool.
// A failing user is reported in its row and the run continues.
func (s *RecalcService) RecalculateAll(ctx context.Context, input RecalcInput) (RecalcResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalcService.RecalculateAll")
	defer span.End()

	targets, err := s.resolveTargets(ctx, input.UserIDs)
	if err != nil {
		return RecalcResult{}, err
	}

	workerCount := normalizeRecalcWorkerCount(input.MaxWorkers, len(targets))
	result := RecalcResult{
		UserCount:   len(targets),
		WorkerCount: workerCount,
		DryRun:      input.DryRun,
		Rows:        make([]RecalcRow, 0, len(targets)),
	}
	if len(targets) == 0 {
		return result, nil
	}

	rows := make(chan RecalcRow, len(targets))

	var successCount atomic.Int32
	var failedCount atomic.Int32
	var changedCount atomic.Int32

	workerPool, err := ants.NewPool(workerCount)
	if err != nil {
		return RecalcResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	var workers sync.WaitGroup
	for _, target := range targets {
		target := target
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := s.recalcOne(ctx, target, input.DryRun)
			row.DurationMs = time.Since(start).Milliseconds()

			switch row.Status {
			case recalcStatusSuccess:
				successCount.Add(1)
				if row.Changed {
					changedCount.Add(1)
				}
			default:
				failedCount.Add(1)
			}

			rows <- row
		}); err != nil {
			workers.Done()
			return RecalcResult{}, fmt.Errorf("submit user to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(rows)

	for row := range rows {
		result.Rows = append(result.Rows, row)
	}
	sort.SliceStable(result.Rows, func(i, j int) bool {
		return result.Rows[i].UserID < result.Rows[j].UserID
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.ChangedCount = int(changedCount.Load())

	if !input.DryRun {
		s.invalidateLeaderboard(ctx)
	}

	s.logger.InfoContext(ctx, "points recalculation finished",
		"user_count", result.UserCount,
		"success_count", result.SuccessCount,
		"failed_count", result.FailedCount,
		"changed_count", result.ChangedCount,
		"dry_run", input.DryRun,
	)
	return result, nil
}

func (s *RecalcService) recalcOne(ctx context.Context, target user.User, dryRun bool) RecalcRow {
	row := RecalcRow{
		UserID:        target.ID,
		PreviousTotal: target.PointTotal,
	}

	total, err := s.pointsRepo.SumByUser(ctx, target.ID)
	if err != nil {
		row.Status = recalcStatusFailed
		row.Message = err.Error()
		return row
	}

	row.PointTotal = total
	row.Changed = total != target.PointTotal
	if !dryRun {
		if err := s.userRepo.UpdatePointTotal(ctx, target.ID, total); err != nil {
			row.Status = recalcStatusFailed
			row.Message = err.Error()
			return row
		}
	}

	row.Status = recalcStatusSuccess
	return row
}

func (s *RecalcService) resolveTargets(ctx context.Context, userIDs []string) ([]user.User, error) {
	if len(userIDs) == 0 {
		users, err := s.userRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		return users, nil
	}

	targets := make([]user.User, 0, len(userIDs))
	for _, userID := range userIDs {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}

		usr, exists, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("get user %s: %w", userID, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: user=%s", ErrNotFound, userID)
		}
		targets = append(targets, usr)
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no user ids given", ErrInvalidInput)
	}
	return targets, nil
}

func (s *RecalcService) invalidateLeaderboard(ctx context.Context) {
	if s.store == nil {
		return
	}
	s.store.Delete(ctx, leaderboardCacheKey)
}

func normalizeRecalcWorkerCount(requested, taskCount int) int {
	workers := requested
	if workers < 1 {
		workers = defaultRecalcWorkers
	}
	if workers > maxRecalcWorkers {
		workers = maxRecalcWorkers
	}
	if taskCount > 0 && workers > taskCount {
		workers = taskCount
	}
	return workers
}
