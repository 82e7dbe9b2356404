package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/keyquest/keyquest/internal/domain/level"
	"github.com/keyquest/keyquest/internal/domain/progress"
	"github.com/keyquest/keyquest/internal/domain/task"
	"github.com/keyquest/keyquest/internal/domain/team"
	"github.com/keyquest/keyquest/internal/domain/unlock"
	"github.com/keyquest/keyquest/internal/platform/cache"
	"github.com/keyquest/keyquest/internal/platform/logging"
)

const progressCacheKeyPrefix = "progress:"

const refreshAllMaxGoroutines = 8

// ProgressService derives team progress from the key-unlock log. The
// progress fields on the team row are a cache; this service is their only
// writer.
type ProgressService struct {
	teamRepo   team.Repository
	levelRepo  level.Repository
	taskRepo   task.Repository
	unlockRepo unlock.Repository
	store      *cache.Store
	logger     *logging.Logger
	now        func() time.Time
}

func NewProgressService(
	teamRepo team.Repository,
	levelRepo level.Repository,
	taskRepo task.Repository,
	unlockRepo unlock.Repository,
	store *cache.Store,
	logger *logging.Logger,
) *ProgressService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ProgressService{
		teamRepo:   teamRepo,
		levelRepo:  levelRepo,
		taskRepo:   taskRepo,
		unlockRepo: unlockRepo,
		store:      store,
		logger:     logger,
		now:        time.Now,
	}
}

// Get returns the team's progress, served from the TTL cache when fresh.
func (s *ProgressService) Get(ctx context.Context, teamID string) (progress.Progress, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProgressService.Get")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return progress.Progress{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	if s.store == nil {
		return s.compute(ctx, teamID)
	}

	value, err := s.store.GetOrLoad(ctx, progressCacheKeyPrefix+teamID, func(ctx context.Context) (any, error) {
		return s.compute(ctx, teamID)
	})
	if err != nil {
		return progress.Progress{}, err
	}

	prog, ok := value.(progress.Progress)
	if !ok {
		return progress.Progress{}, fmt.Errorf("unexpected progress cache value %T", value)
	}
	return prog, nil
}

// Refresh recomputes the team's progress, persists it onto the team row,
// and replaces the cached copy.
func (s *ProgressService) Refresh(ctx context.Context, teamID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProgressService.Refresh")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	prog, err := s.compute(ctx, teamID)
	if err != nil {
		return err
	}

	if err := s.teamRepo.UpdateProgress(ctx, teamID, prog.Percent, prog.UnlockedKeys); err != nil {
		return fmt.Errorf("persist team progress: %w", err)
	}

	if s.store != nil {
		s.store.Set(ctx, progressCacheKeyPrefix+teamID, prog)
	}
	return nil
}

// RefreshAll recomputes progress for every team concurrently. A failing
// team does not stop the others; the first error is returned after all
// teams were attempted.
func (s *ProgressService) RefreshAll(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProgressService.RefreshAll")
	defer span.End()

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list teams: %w", err)
	}

	p := pool.New().WithErrors().WithMaxGoroutines(refreshAllMaxGoroutines)
	for _, t := range teams {
		teamID := t.ID
		p.Go(func() error {
			if err := s.Refresh(ctx, teamID); err != nil {
				s.logger.WarnContext(ctx, "refresh team progress failed",
					"team_id", teamID,
					"error", err.Error(),
				)
				return fmt.Errorf("team %s: %w", teamID, err)
			}
			return nil
		})
	}

	return p.Wait()
}

// ResetTeam wipes a team's unlocks and recomputes its progress. Submissions
// and point entries are append-only history and stay untouched.
func (s *ProgressService) ResetTeam(ctx context.Context, teamID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProgressService.ResetTeam")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	_, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("get team: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	if err := s.unlockRepo.DeleteByTeam(ctx, teamID); err != nil {
		return fmt.Errorf("delete team unlocks: %w", err)
	}

	return s.Refresh(ctx, teamID)
}

// Invalidate drops the cached progress for a team.
func (s *ProgressService) Invalidate(ctx context.Context, teamID string) {
	if s.store == nil || teamID == "" {
		return
	}
	s.store.Delete(ctx, progressCacheKeyPrefix+teamID)
}

func (s *ProgressService) compute(ctx context.Context, teamID string) (progress.Progress, error) {
	_, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return progress.Progress{}, fmt.Errorf("get team: %w", err)
	}
	if !exists {
		return progress.Progress{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	unlocks, err := s.unlockRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return progress.Progress{}, fmt.Errorf("list team unlocks: %w", err)
	}

	unlockedKeys := make([]string, 0, len(unlocks))
	unlockedSet := make(map[string]struct{}, len(unlocks))
	for _, u := range unlocks {
		if _, seen := unlockedSet[u.KeyID]; seen {
			continue
		}
		unlockedSet[u.KeyID] = struct{}{}
		unlockedKeys = append(unlockedKeys, u.KeyID)
	}

	prog := progress.Progress{
		TeamID:       teamID,
		UnlockedKeys: unlockedKeys,
		ComputedAt:   s.now(),
	}

	lvl, active, err := s.levelRepo.GetActiveAt(ctx, prog.ComputedAt)
	if err != nil {
		return progress.Progress{}, fmt.Errorf("get active level: %w", err)
	}
	if !active {
		// Between levels the percentage has no denominator; report zero
		// with the full unlock history.
		return prog, nil
	}

	prog.LevelID = lvl.ID
	prog.Week = lvl.Week

	tasks, err := s.taskRepo.ListByLevel(ctx, lvl.ID)
	if err != nil {
		return progress.Progress{}, fmt.Errorf("list level tasks: %w", err)
	}

	keyBearing := 0
	unlockedInLevel := 0
	for _, t := range tasks {
		if !t.HasKey() {
			continue
		}
		keyBearing++
		if _, ok := unlockedSet[t.KeyID]; ok {
			unlockedInLevel++
		}
	}

	if keyBearing > 0 {
		prog.Percent = unlockedInLevel * 100 / keyBearing
		if prog.Percent > 100 {
			prog.Percent = 100
		}
		prog.LevelComplete = unlockedInLevel == keyBearing
	}

	return prog, nil
}
