package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyquest/keyquest/internal/domain/level"
	"github.com/keyquest/keyquest/internal/domain/submission"
	"github.com/keyquest/keyquest/internal/domain/task"
	"github.com/keyquest/keyquest/internal/domain/team"
	"github.com/keyquest/keyquest/internal/domain/user"
	"github.com/keyquest/keyquest/internal/infrastructure/repository/memory"
	"github.com/keyquest/keyquest/internal/platform/id"
	"github.com/keyquest/keyquest/internal/platform/logging"
)

type submissionHarness struct {
	svc      *SubmissionService
	ledger   *memory.LedgerRepository
	users    *memory.UserRepository
	teams    *memory.TeamRepository
	progress *ProgressService
	recalc   *RecalcService
	now      time.Time
}

func newSubmissionHarness(t *testing.T) *submissionHarness {
	t.Helper()

	opens := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	now := opens.Add(48 * time.Hour)

	levels := memory.NewLevelRepository([]level.Level{
		{
			ID:       "level_week-1",
			Week:     1,
			Title:    "Warmup",
			OpensAt:  opens,
			ClosesAt: opens.AddDate(0, 0, 7),
		},
	})
	tasks := memory.NewTaskRepository([]task.Task{
		{
			ID:      "task_cipher",
			LevelID: "level_week-1",
			Title:   "Cipher",
			Points:  10,
			KeyID:   "key_bronze",
			Criteria: task.Criteria{
				Kind:   task.CriteriaExactAnswer,
				Params: map[string]string{"answer": "midnight"},
			},
		},
		{
			ID:      "task_quiz",
			LevelID: "level_week-1",
			Title:   "Quiz",
			Points:  5,
			Criteria: task.Criteria{
				Kind:   task.CriteriaExactAnswer,
				Params: map[string]string{"answer": "tcp"},
			},
		},
	})
	users := memory.NewUserRepository([]user.User{
		{ID: "user_ayu", DisplayName: "Ayu", TeamID: "team_owls", Role: user.RolePlayer},
		{ID: "user_bram", DisplayName: "Bram", TeamID: "team_owls", Role: user.RolePlayer},
		{ID: "user_citra", DisplayName: "Citra", TeamID: "team_picks", Role: user.RolePlayer},
	})
	teams := memory.NewTeamRepository([]team.Team{
		{ID: "team_owls", Name: "Owls", MemberIDs: []string{"user_ayu", "user_bram"}},
		{ID: "team_picks", Name: "Picks", MemberIDs: []string{"user_citra"}},
	})

	ledger := memory.NewLedgerRepository()
	logger := logging.NewNop()

	progressSvc := NewProgressService(teams, levels, tasks, ledger.Unlocks(), nil, logger)
	progressSvc.now = func() time.Time { return now }

	recalcSvc := NewRecalcService(users, ledger.PointEntries(), nil, logger)

	svc := NewSubmissionService(
		tasks,
		levels,
		users,
		ledger.Submissions(),
		ledger,
		NewSubmissionValidator(),
		id.NewRandomGenerator(),
		recalcSvc,
		progressSvc,
		logger,
	)
	svc.now = func() time.Time { return now }

	return &submissionHarness{
		svc:      svc,
		ledger:   ledger,
		users:    users,
		teams:    teams,
		progress: progressSvc,
		recalc:   recalcSvc,
		now:      now,
	}
}

func TestSubmitAcceptedUnlocksAndCredits(t *testing.T) {
	t.Parallel()

	h := newSubmissionHarness(t)

	result, err := h.svc.Submit(context.Background(), SubmitInput{
		TaskID:  "task_cipher",
		UserID:  "user_ayu",
		Payload: "midnight",
	})
	require.NoError(t, err)

	assert.Equal(t, submission.OutcomeAccepted, result.Submission.Outcome)
	assert.True(t, result.Unlocked)
	assert.Equal(t, 10, result.PointsAwarded)

	usr, _, err := h.users.GetByID(context.Background(), "user_ayu")
	require.NoError(t, err)
	assert.Equal(t, 10, usr.PointTotal, "cached total refreshed after unlock")

	tm, _, err := h.teams.GetByID(context.Background(), "team_owls")
	require.NoError(t, err)
	assert.Equal(t, []string{"key_bronze"}, tm.UnlockedKeys)
	assert.Equal(t, 50, tm.ProgressPercent, "one of two key-bearing tasks unlocked")
}

func TestSubmitWrongAnswerRecordsRejection(t *testing.T) {
	t.Parallel()

	h := newSubmissionHarness(t)

	result, err := h.svc.Submit(context.Background(), SubmitInput{
		TaskID:  "task_cipher",
		UserID:  "user_ayu",
		Payload: "noon",
	})
	require.NoError(t, err, "a wrong answer is an outcome, not an error")

	assert.Equal(t, submission.OutcomeRejected, result.Submission.Outcome)
	assert.Equal(t, RejectReasonWrongAnswer, result.Submission.RejectReason)
	assert.False(t, result.Unlocked)

	subs, err := h.ledger.Submissions().ListByUser(context.Background(), "user_ayu")
	require.NoError(t, err)
	require.Len(t, subs, 1, "rejected submissions land in the log too")
}

func TestSubmitOutsideWindowRejected(t *testing.T) {
	t.Parallel()

	h := newSubmissionHarness(t)
	h.svc.now = func() time.Time { return h.now.AddDate(0, 0, 30) }

	result, err := h.svc.Submit(context.Background(), SubmitInput{
		TaskID:  "task_cipher",
		UserID:  "user_ayu",
		Payload: "midnight",
	})
	require.NoError(t, err)

	assert.Equal(t, submission.OutcomeRejected, result.Submission.Outcome)
	assert.Equal(t, RejectReasonWindowClosed, result.Submission.RejectReason)
}

func TestSubmitKeylessTaskAwardsNothing(t *testing.T) {
	t.Parallel()

	h := newSubmissionHarness(t)

	result, err := h.svc.Submit(context.Background(), SubmitInput{
		TaskID:  "task_quiz",
		UserID:  "user_ayu",
		Payload: "tcp",
	})
	require.NoError(t, err)

	assert.Equal(t, submission.OutcomeAccepted, result.Submission.Outcome)
	assert.False(t, result.Unlocked)
	assert.Zero(t, result.PointsAwarded)

	total, err := h.ledger.PointEntries().SumByUser(context.Background(), "user_ayu")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSubmitResubmissionAfterUnlockIsNoop(t *testing.T) {
	t.Parallel()

	h := newSubmissionHarness(t)
	ctx := context.Background()

	first, err := h.svc.Submit(ctx, SubmitInput{TaskID: "task_cipher", UserID: "user_ayu", Payload: "midnight"})
	require.NoError(t, err)
	require.True(t, first.Unlocked)

	second, err := h.svc.Submit(ctx, SubmitInput{TaskID: "task_cipher", UserID: "user_bram", Payload: "midnight"})
	require.NoError(t, err)

	assert.Equal(t, submission.OutcomeAccepted, second.Submission.Outcome)
	assert.False(t, second.Unlocked, "the team already holds the key")
	assert.Zero(t, second.PointsAwarded)

	unlocks, err := h.ledger.Unlocks().ListByTeam(ctx, "team_owls")
	require.NoError(t, err)
	require.Len(t, unlocks, 1)

	bramTotal, err := h.ledger.PointEntries().SumByUser(ctx, "user_bram")
	require.NoError(t, err)
	assert.Zero(t, bramTotal, "only the winning submission credits points")
}

func TestSubmitConcurrentSameTeamSingleUnlock(t *testing.T) {
	t.Parallel()

	h := newSubmissionHarness(t)
	ctx := context.Background()

	const attempts = 16
	results := make([]SubmitResult, attempts)
	errs := make([]error, attempts)

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		i := i
		go func() {
			defer wg.Done()
			<-start
			userID := "user_ayu"
			if i%2 == 1 {
				userID = "user_bram"
			}
			results[i], errs[i] = h.svc.Submit(ctx, SubmitInput{
				TaskID:  "task_cipher",
				UserID:  userID,
				Payload: "midnight",
			})
		}()
	}
	close(start)
	wg.Wait()

	winners := 0
	for i := 0; i < attempts; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, submission.OutcomeAccepted, results[i].Submission.Outcome)
		if results[i].Unlocked {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one submission wins the unlock")

	unlocks, err := h.ledger.Unlocks().ListByTeam(ctx, "team_owls")
	require.NoError(t, err)
	require.Len(t, unlocks, 1)

	ayuTotal, err := h.ledger.PointEntries().SumByUser(ctx, "user_ayu")
	require.NoError(t, err)
	bramTotal, err := h.ledger.PointEntries().SumByUser(ctx, "user_bram")
	require.NoError(t, err)
	assert.Equal(t, 10, ayuTotal+bramTotal, "the task's points are credited exactly once")
}

func TestSubmitConcurrentDistinctTeamsBothUnlock(t *testing.T) {
	t.Parallel()

	h := newSubmissionHarness(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var owlsResult, picksResult SubmitResult
	var owlsErr, picksErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		owlsResult, owlsErr = h.svc.Submit(ctx, SubmitInput{TaskID: "task_cipher", UserID: "user_ayu", Payload: "midnight"})
	}()
	go func() {
		defer wg.Done()
		picksResult, picksErr = h.svc.Submit(ctx, SubmitInput{TaskID: "task_cipher", UserID: "user_citra", Payload: "midnight"})
	}()
	wg.Wait()

	require.NoError(t, owlsErr)
	require.NoError(t, picksErr)
	assert.True(t, owlsResult.Unlocked, "unlock scope is per team")
	assert.True(t, picksResult.Unlocked, "unlock scope is per team")
}

func TestSubmitUnknownTaskNotFound(t *testing.T) {
	t.Parallel()

	h := newSubmissionHarness(t)

	_, err := h.svc.Submit(context.Background(), SubmitInput{
		TaskID:  "task_missing",
		UserID:  "user_ayu",
		Payload: "x",
	})
	require.ErrorIs(t, err, ErrNotFound)
}
