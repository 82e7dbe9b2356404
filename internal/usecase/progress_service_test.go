package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyquest/keyquest/internal/domain/level"
	"github.com/keyquest/keyquest/internal/domain/points"
	"github.com/keyquest/keyquest/internal/domain/submission"
	"github.com/keyquest/keyquest/internal/domain/task"
	"github.com/keyquest/keyquest/internal/domain/team"
	"github.com/keyquest/keyquest/internal/domain/unlock"
	"github.com/keyquest/keyquest/internal/infrastructure/repository/memory"
	"github.com/keyquest/keyquest/internal/platform/cache"
	"github.com/keyquest/keyquest/internal/platform/logging"
)

type progressHarness struct {
	svc    *ProgressService
	ledger *memory.LedgerRepository
	teams  *memory.TeamRepository
	now    time.Time
}

func newProgressHarness(t *testing.T, store *cache.Store) *progressHarness {
	t.Helper()

	opens := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	now := opens.Add(24 * time.Hour)

	levels := memory.NewLevelRepository([]level.Level{
		{ID: "level_week-1", Week: 1, Title: "Warmup", OpensAt: opens, ClosesAt: opens.AddDate(0, 0, 7)},
	})
	tasks := memory.NewTaskRepository([]task.Task{
		{ID: "task_a", LevelID: "level_week-1", Points: 10, KeyID: "key_a",
			Criteria: task.Criteria{Kind: task.CriteriaExactAnswer, Params: map[string]string{"answer": "a"}}},
		{ID: "task_b", LevelID: "level_week-1", Points: 10, KeyID: "key_b",
			Criteria: task.Criteria{Kind: task.CriteriaExactAnswer, Params: map[string]string{"answer": "b"}}},
		{ID: "task_c", LevelID: "level_week-1", Points: 10, KeyID: "key_c",
			Criteria: task.Criteria{Kind: task.CriteriaExactAnswer, Params: map[string]string{"answer": "c"}}},
		{ID: "task_quiz", LevelID: "level_week-1", Points: 5,
			Criteria: task.Criteria{Kind: task.CriteriaExactAnswer, Params: map[string]string{"answer": "q"}}},
	})
	teams := memory.NewTeamRepository([]team.Team{
		{ID: "team_owls", Name: "Owls"},
		{ID: "team_picks", Name: "Picks"},
	})

	ledger := memory.NewLedgerRepository()
	svc := NewProgressService(teams, levels, tasks, ledger.Unlocks(), store, logging.NewNop())
	svc.now = func() time.Time { return now }

	return &progressHarness{svc: svc, ledger: ledger, teams: teams, now: now}
}

func (h *progressHarness) unlockKey(t *testing.T, teamID, keyID, subID string) {
	t.Helper()

	sub := submission.Submission{
		ID:          subID,
		TaskID:      "task_a",
		UserID:      "user_x",
		TeamID:      teamID,
		Payload:     "a",
		Outcome:     submission.OutcomeAccepted,
		SubmittedAt: h.now,
	}
	unlocked, err := h.ledger.AppendAccepted(context.Background(), sub,
		&unlock.KeyUnlock{ID: "unl_" + subID, TeamID: teamID, KeyID: keyID, SubmissionID: subID, UnlockedAt: h.now},
		&points.Entry{ID: "pts_" + subID, UserID: "user_x", SubmissionID: subID, Points: 10, CreatedAt: h.now},
	)
	require.NoError(t, err)
	require.True(t, unlocked)
}

func TestProgressPercentFloorsAndOrdersKeys(t *testing.T) {
	t.Parallel()

	h := newProgressHarness(t, nil)
	h.unlockKey(t, "team_owls", "key_b", "sub_1")
	h.unlockKey(t, "team_owls", "key_a", "sub_2")

	prog, err := h.svc.Get(context.Background(), "team_owls")
	require.NoError(t, err)

	assert.Equal(t, 66, prog.Percent, "2 of 3 key-bearing tasks floors to 66")
	assert.Equal(t, []string{"key_b", "key_a"}, prog.UnlockedKeys, "keys keep unlock order")
	assert.False(t, prog.LevelComplete)
	assert.Equal(t, 1, prog.Week)
}

func TestProgressLevelComplete(t *testing.T) {
	t.Parallel()

	h := newProgressHarness(t, nil)
	h.unlockKey(t, "team_owls", "key_a", "sub_1")
	h.unlockKey(t, "team_owls", "key_b", "sub_2")
	h.unlockKey(t, "team_owls", "key_c", "sub_3")

	prog, err := h.svc.Get(context.Background(), "team_owls")
	require.NoError(t, err)

	assert.Equal(t, 100, prog.Percent)
	assert.True(t, prog.LevelComplete)
}

func TestProgressNoActiveLevel(t *testing.T) {
	t.Parallel()

	h := newProgressHarness(t, nil)
	h.unlockKey(t, "team_owls", "key_a", "sub_1")
	h.svc.now = func() time.Time { return h.now.AddDate(0, 0, 60) }

	prog, err := h.svc.Get(context.Background(), "team_owls")
	require.NoError(t, err)

	assert.Zero(t, prog.Percent)
	assert.Empty(t, prog.LevelID)
	assert.Equal(t, []string{"key_a"}, prog.UnlockedKeys, "unlock history survives between levels")
}

func TestProgressRefreshPersistsOntoTeam(t *testing.T) {
	t.Parallel()

	h := newProgressHarness(t, nil)
	h.unlockKey(t, "team_owls", "key_a", "sub_1")

	require.NoError(t, h.svc.Refresh(context.Background(), "team_owls"))

	tm, _, err := h.teams.GetByID(context.Background(), "team_owls")
	require.NoError(t, err)
	assert.Equal(t, 33, tm.ProgressPercent)
	assert.Equal(t, []string{"key_a"}, tm.UnlockedKeys)
}

func TestProgressMonotonicUnderRefreshes(t *testing.T) {
	t.Parallel()

	h := newProgressHarness(t, nil)
	ctx := context.Background()

	last := 0
	keys := []string{"key_a", "key_b", "key_c"}
	for _, key := range keys {
		h.unlockKey(t, "team_owls", key, "sub_"+key)
		require.NoError(t, h.svc.Refresh(ctx, "team_owls"))

		tm, _, err := h.teams.GetByID(ctx, "team_owls")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, tm.ProgressPercent, last, "progress never regresses while unlocks accumulate")
		last = tm.ProgressPercent
	}
	assert.Equal(t, 100, last)
}

func TestProgressCacheServedUntilInvalidated(t *testing.T) {
	t.Parallel()

	store := cache.NewStore(time.Minute)
	h := newProgressHarness(t, store)
	ctx := context.Background()

	first, err := h.svc.Get(ctx, "team_owls")
	require.NoError(t, err)
	assert.Zero(t, first.Percent)

	h.unlockKey(t, "team_owls", "key_a", "sub_1")

	cached, err := h.svc.Get(ctx, "team_owls")
	require.NoError(t, err)
	assert.Zero(t, cached.Percent, "stale value served inside the TTL")

	h.svc.Invalidate(ctx, "team_owls")

	fresh, err := h.svc.Get(ctx, "team_owls")
	require.NoError(t, err)
	assert.Equal(t, 33, fresh.Percent)
}

func TestProgressResetTeamClearsUnlocks(t *testing.T) {
	t.Parallel()

	h := newProgressHarness(t, nil)
	ctx := context.Background()
	h.unlockKey(t, "team_owls", "key_a", "sub_1")
	h.unlockKey(t, "team_owls", "key_b", "sub_2")
	require.NoError(t, h.svc.Refresh(ctx, "team_owls"))

	require.NoError(t, h.svc.ResetTeam(ctx, "team_owls"))

	tm, _, err := h.teams.GetByID(ctx, "team_owls")
	require.NoError(t, err)
	assert.Zero(t, tm.ProgressPercent)
	assert.Empty(t, tm.UnlockedKeys)

	unlocks, err := h.ledger.Unlocks().ListByTeam(ctx, "team_owls")
	require.NoError(t, err)
	assert.Empty(t, unlocks)
}

func TestProgressRefreshAllCoversEveryTeam(t *testing.T) {
	t.Parallel()

	h := newProgressHarness(t, nil)
	ctx := context.Background()
	h.unlockKey(t, "team_owls", "key_a", "sub_1")
	h.unlockKey(t, "team_picks", "key_a", "sub_2")

	require.NoError(t, h.svc.RefreshAll(ctx))

	owls, _, err := h.teams.GetByID(ctx, "team_owls")
	require.NoError(t, err)
	picks, _, err := h.teams.GetByID(ctx, "team_picks")
	require.NoError(t, err)
	assert.Equal(t, 33, owls.ProgressPercent)
	assert.Equal(t, 33, picks.ProgressPercent)
}

func TestProgressUnknownTeamNotFound(t *testing.T) {
	t.Parallel()

	h := newProgressHarness(t, nil)

	_, err := h.svc.Get(context.Background(), "team_ghost")
	require.ErrorIs(t, err, ErrNotFound)
}
