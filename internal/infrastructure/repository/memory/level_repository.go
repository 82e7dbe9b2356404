package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/keyquest/keyquest/internal/domain/level"
)

type LevelRepository struct {
	mu     sync.RWMutex
	levels []level.Level
}

func NewLevelRepository(levels []level.Level) *LevelRepository {
	items := append([]level.Level(nil), levels...)
	sort.Slice(items, func(i, j int) bool { return items[i].Week < items[j].Week })

	return &LevelRepository{levels: items}
}

func (r *LevelRepository) List(_ context.Context) ([]level.Level, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]level.Level(nil), r.levels...), nil
}

func (r *LevelRepository) GetByID(_ context.Context, levelID string) (level.Level, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.levels {
		if item.ID == levelID {
			return item, true, nil
		}
	}
	return level.Level{}, false, nil
}

func (r *LevelRepository) GetByWeek(_ context.Context, week int) (level.Level, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.levels {
		if item.Week == week {
			return item, true, nil
		}
	}
	return level.Level{}, false, nil
}

func (r *LevelRepository) GetActiveAt(_ context.Context, at time.Time) (level.Level, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.levels {
		if item.IsOpenAt(at) {
			return item, true, nil
		}
	}
	return level.Level{}, false, nil
}
