package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/keyquest/keyquest/internal/domain/level"
	"github.com/keyquest/keyquest/internal/platform/logging"
)

// JobQueue delivers delayed HTTP callbacks. The deduplication id keeps a
// rescheduled job from landing twice.
type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

const recalcJobPath = "/v1/internal/jobs/recalculate-points"

type ScheduleRecalcInput struct {
	// LevelID narrows scheduling to one level; empty schedules every level
	// whose close falls inside the horizon.
	LevelID string
	Force   bool
}

type ScheduleRecalcResult struct {
	LevelCount  int      `json:"level_count"`
	QueuedCount int      `json:"queued_count"`
	QueuedJobs  []string `json:"queued_jobs"`
}

type ScheduleConfig struct {
	// Horizon bounds how far ahead a level close may be and still get a
	// job queued now.
	Horizon time.Duration
}

// ScheduleService queues a points recalculation for each level at the
// moment its window closes. The dedup id is derived from the level, so
// re-running the scheduler never double-queues a level.
type ScheduleService struct {
	levelRepo level.Repository
	queue     JobQueue
	cfg       ScheduleConfig
	logger    *logging.Logger
	now       func() time.Time
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func NewScheduleService(levelRepo level.Repository, queue JobQueue, cfg ScheduleConfig, logger *logging.Logger) *ScheduleService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = 14 * 24 * time.Hour
	}

	return &ScheduleService{
		levelRepo: levelRepo,
		queue:     queue,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ScheduleService) ScheduleRecalculations(ctx context.Context, input ScheduleRecalcInput) (ScheduleRecalcResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScheduleService.ScheduleRecalculations")
	defer span.End()

	levels, err := s.pickLevels(ctx, input.LevelID)
	if err != nil {
		return ScheduleRecalcResult{}, err
	}

	now := s.now().UTC()
	result := ScheduleRecalcResult{
		LevelCount: len(levels),
		QueuedJobs: make([]string, 0, len(levels)),
	}

	for _, lvl := range levels {
		delay := lvl.ClosesAt.Sub(now)
		if input.Force {
			delay = 0
		}
		if delay < 0 {
			delay = 0
		}
		if delay > s.cfg.Horizon {
			continue
		}

		dedupID := recalcDedupID(lvl.ID)
		payload := map[string]any{
			"level_id":    lvl.ID,
			"week":        lvl.Week,
			"dispatch_id": dedupID,
		}
		if err := s.queue.Enqueue(ctx, recalcJobPath, payload, delay, dedupID); err != nil {
			return ScheduleRecalcResult{}, fmt.Errorf("enqueue recalculation level=%s: %w", lvl.ID, err)
		}

		s.logger.InfoContext(ctx, "queued points recalculation",
			"level_id", lvl.ID,
			"week", lvl.Week,
			"delay", delay.String(),
			"dispatch_id", dedupID,
		)
		result.QueuedCount++
		result.QueuedJobs = append(result.QueuedJobs, dedupID)
	}

	return result, nil
}

func (s *ScheduleService) pickLevels(ctx context.Context, levelID string) ([]level.Level, error) {
	levelID = strings.TrimSpace(levelID)
	if levelID == "" {
		items, err := s.levelRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list levels for scheduling: %w", err)
		}
		return items, nil
	}

	item, exists, err := s.levelRepo.GetByID(ctx, levelID)
	if err != nil {
		return nil, fmt.Errorf("get level for scheduling: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: level=%s", ErrNotFound, levelID)
	}

	return []level.Level{item}, nil
}

func recalcDedupID(levelID string) string {
	levelID = strings.TrimSpace(levelID)
	if levelID == "" {
		levelID = "unknown"
	}
	return "recalc-" + dedupUnsafeCharRegex.ReplaceAllString(levelID, "-")
}
