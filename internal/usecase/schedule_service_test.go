package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyquest/keyquest/internal/domain/level"
	"github.com/keyquest/keyquest/internal/infrastructure/repository/memory"
	"github.com/keyquest/keyquest/internal/platform/logging"
)

type recordedJob struct {
	Path    string
	Delay   time.Duration
	DedupID string
}

type recordingJobQueue struct {
	mu   sync.Mutex
	jobs []recordedJob
}

func (q *recordingJobQueue) Enqueue(_ context.Context, path string, _ any, delay time.Duration, dedupID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, recordedJob{Path: path, Delay: delay, DedupID: dedupID})
	return nil
}

func TestScheduleRecalculations(t *testing.T) {
	t.Parallel()

	opens := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	levels := memory.NewLevelRepository([]level.Level{
		{ID: "level_week-1", Week: 1, OpensAt: opens, ClosesAt: opens.AddDate(0, 0, 7)},
		{ID: "level_week-2", Week: 2, OpensAt: opens.AddDate(0, 0, 7), ClosesAt: opens.AddDate(0, 0, 14)},
		{ID: "level_week-9", Week: 9, OpensAt: opens.AddDate(0, 0, 56), ClosesAt: opens.AddDate(0, 0, 63)},
	})
	queue := &recordingJobQueue{}

	svc := NewScheduleService(levels, queue, ScheduleConfig{Horizon: 10 * 24 * time.Hour}, logging.NewNop())
	svc.now = func() time.Time { return opens.Add(24 * time.Hour) }

	result, err := svc.ScheduleRecalculations(context.Background(), ScheduleRecalcInput{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.LevelCount)
	assert.Equal(t, 2, result.QueuedCount, "the far-future close sits outside the horizon")
	require.Len(t, queue.jobs, 2)

	assert.Equal(t, recalcJobPath, queue.jobs[0].Path)
	assert.Equal(t, "recalc-level_week-1", queue.jobs[0].DedupID)
	assert.Equal(t, 6*24*time.Hour, queue.jobs[0].Delay, "job fires when the window closes")
	assert.Equal(t, "recalc-level_week-2", queue.jobs[1].DedupID)
}

func TestScheduleRecalculationsSingleLevelForce(t *testing.T) {
	t.Parallel()

	opens := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	levels := memory.NewLevelRepository([]level.Level{
		{ID: "level_week-1", Week: 1, OpensAt: opens, ClosesAt: opens.AddDate(0, 0, 7)},
	})
	queue := &recordingJobQueue{}

	svc := NewScheduleService(levels, queue, ScheduleConfig{}, logging.NewNop())
	svc.now = func() time.Time { return opens.Add(24 * time.Hour) }

	result, err := svc.ScheduleRecalculations(context.Background(), ScheduleRecalcInput{
		LevelID: "level_week-1",
		Force:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.QueuedCount)
	require.Len(t, queue.jobs, 1)
	assert.Zero(t, queue.jobs[0].Delay)

	_, err = svc.ScheduleRecalculations(context.Background(), ScheduleRecalcInput{LevelID: "level_ghost"})
	require.ErrorIs(t, err, ErrNotFound)
}
