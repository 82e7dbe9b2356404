package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyquest/keyquest/internal/domain/level"
	"github.com/keyquest/keyquest/internal/domain/task"
	"github.com/keyquest/keyquest/internal/infrastructure/repository/memory"
)

func newLevelService(t *testing.T, now time.Time) *LevelService {
	t.Helper()

	opens := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	levels := memory.NewLevelRepository([]level.Level{
		{ID: "level_week-1", Week: 1, Title: "Warmup", OpensAt: opens, ClosesAt: opens.AddDate(0, 0, 7)},
		{ID: "level_week-2", Week: 2, Title: "Server Room", OpensAt: opens.AddDate(0, 0, 7), ClosesAt: opens.AddDate(0, 0, 14)},
	})
	tasks := memory.NewTaskRepository([]task.Task{
		{ID: "task_a", LevelID: "level_week-1", Points: 10, KeyID: "key_a",
			Criteria: task.Criteria{Kind: task.CriteriaExactAnswer, Params: map[string]string{"answer": "a"}}},
	})

	svc := NewLevelService(levels, tasks)
	svc.now = func() time.Time { return now }
	return svc
}

func TestLevelGetCurrent(t *testing.T) {
	t.Parallel()

	svc := newLevelService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	detail, err := svc.GetCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "level_week-1", detail.Level.ID)
	require.Len(t, detail.Tasks, 1)
}

func TestLevelGetCurrentClosesAtIsExclusive(t *testing.T) {
	t.Parallel()

	svc := newLevelService(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))

	detail, err := svc.GetCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "level_week-2", detail.Level.ID, "the close instant belongs to the next window")
}

func TestLevelGetCurrentNoneOpen(t *testing.T) {
	t.Parallel()

	svc := newLevelService(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))

	_, err := svc.GetCurrent(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLevelGetByWeek(t *testing.T) {
	t.Parallel()

	svc := newLevelService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	detail, err := svc.GetByWeek(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "level_week-2", detail.Level.ID)

	_, err = svc.GetByWeek(context.Background(), 9)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetByWeek(context.Background(), 0)
	require.ErrorIs(t, err, ErrInvalidInput)
}
