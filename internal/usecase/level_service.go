package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/keyquest/keyquest/internal/domain/level"
	"github.com/keyquest/keyquest/internal/domain/task"
)

// LevelDetail is a level together with its tasks, ordered as stored.
type LevelDetail struct {
	Level level.Level
	Tasks []task.Task
}

type LevelService struct {
	levelRepo level.Repository
	taskRepo  task.Repository
	now       func() time.Time
}

func NewLevelService(levelRepo level.Repository, taskRepo task.Repository) *LevelService {
	return &LevelService{
		levelRepo: levelRepo,
		taskRepo:  taskRepo,
		now:       time.Now,
	}
}

// GetCurrent returns the level whose window contains the current time.
func (s *LevelService) GetCurrent(ctx context.Context) (LevelDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LevelService.GetCurrent")
	defer span.End()

	lvl, exists, err := s.levelRepo.GetActiveAt(ctx, s.now())
	if err != nil {
		return LevelDetail{}, fmt.Errorf("get active level: %w", err)
	}
	if !exists {
		return LevelDetail{}, fmt.Errorf("%w: no level is currently open", ErrNotFound)
	}

	return s.detail(ctx, lvl)
}

func (s *LevelService) GetByWeek(ctx context.Context, week int) (LevelDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LevelService.GetByWeek")
	defer span.End()

	if week < 1 {
		return LevelDetail{}, fmt.Errorf("%w: week must be positive", ErrInvalidInput)
	}

	lvl, exists, err := s.levelRepo.GetByWeek(ctx, week)
	if err != nil {
		return LevelDetail{}, fmt.Errorf("get level by week: %w", err)
	}
	if !exists {
		return LevelDetail{}, fmt.Errorf("%w: week=%d", ErrNotFound, week)
	}

	return s.detail(ctx, lvl)
}

func (s *LevelService) List(ctx context.Context) ([]level.Level, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LevelService.List")
	defer span.End()

	items, err := s.levelRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	return items, nil
}

func (s *LevelService) detail(ctx context.Context, lvl level.Level) (LevelDetail, error) {
	tasks, err := s.taskRepo.ListByLevel(ctx, lvl.ID)
	if err != nil {
		return LevelDetail{}, fmt.Errorf("list level tasks: %w", err)
	}

	return LevelDetail{Level: lvl, Tasks: tasks}, nil
}
