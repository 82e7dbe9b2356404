package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyquest/keyquest/internal/domain/points"
	"github.com/keyquest/keyquest/internal/domain/submission"
	"github.com/keyquest/keyquest/internal/domain/unlock"
	"github.com/keyquest/keyquest/internal/domain/user"
	"github.com/keyquest/keyquest/internal/infrastructure/repository/memory"
	"github.com/keyquest/keyquest/internal/platform/logging"
)

func seedPointEntries(t *testing.T, ledger *memory.LedgerRepository, userID string, amounts ...int) {
	t.Helper()

	now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	for i, amount := range amounts {
		subID := userID + "-sub-" + string(rune('a'+i))
		sub := submission.Submission{
			ID:          subID,
			TaskID:      "task_x",
			UserID:      userID,
			TeamID:      "team_owls",
			Payload:     "x",
			Outcome:     submission.OutcomeAccepted,
			SubmittedAt: now,
		}
		unlocked, err := ledger.AppendAccepted(context.Background(), sub,
			&unlock.KeyUnlock{ID: "unl_" + subID, TeamID: "team_owls", KeyID: "key_" + subID, SubmissionID: subID, UnlockedAt: now},
			&points.Entry{ID: "pts_" + subID, UserID: userID, SubmissionID: subID, Points: amount, CreatedAt: now},
		)
		require.NoError(t, err)
		require.True(t, unlocked)
	}
}

func TestRecalculateAllOverwritesTotals(t *testing.T) {
	t.Parallel()

	users := memory.NewUserRepository([]user.User{
		{ID: "user_ayu", TeamID: "team_owls", PointTotal: 999},
		{ID: "user_bram", TeamID: "team_owls", PointTotal: 3},
	})
	ledger := memory.NewLedgerRepository()
	seedPointEntries(t, ledger, "user_ayu", 10, 15)

	svc := NewRecalcService(users, ledger.PointEntries(), nil, logging.NewNop())

	result, err := svc.RecalculateAll(context.Background(), RecalcInput{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.UserCount)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Zero(t, result.FailedCount)
	assert.Equal(t, 2, result.ChangedCount)

	ayu, _, err := users.GetByID(context.Background(), "user_ayu")
	require.NoError(t, err)
	assert.Equal(t, 25, ayu.PointTotal, "stale cache overwritten with the ledger sum")

	bram, _, err := users.GetByID(context.Background(), "user_bram")
	require.NoError(t, err)
	assert.Zero(t, bram.PointTotal, "zero entries overwrite to zero, not leave unchanged")
}

func TestRecalculateAllIsIdempotent(t *testing.T) {
	t.Parallel()

	users := memory.NewUserRepository([]user.User{{ID: "user_ayu", TeamID: "team_owls"}})
	ledger := memory.NewLedgerRepository()
	seedPointEntries(t, ledger, "user_ayu", 10)

	svc := NewRecalcService(users, ledger.PointEntries(), nil, logging.NewNop())
	ctx := context.Background()

	first, err := svc.RecalculateAll(ctx, RecalcInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.ChangedCount)

	second, err := svc.RecalculateAll(ctx, RecalcInput{})
	require.NoError(t, err)
	assert.Zero(t, second.ChangedCount, "a repeat run changes nothing")

	ayu, _, err := users.GetByID(ctx, "user_ayu")
	require.NoError(t, err)
	assert.Equal(t, 10, ayu.PointTotal)
}

func TestRecalculateAllDryRunWritesNothing(t *testing.T) {
	t.Parallel()

	users := memory.NewUserRepository([]user.User{{ID: "user_ayu", TeamID: "team_owls", PointTotal: 999}})
	ledger := memory.NewLedgerRepository()
	seedPointEntries(t, ledger, "user_ayu", 10)

	svc := NewRecalcService(users, ledger.PointEntries(), nil, logging.NewNop())

	result, err := svc.RecalculateAll(context.Background(), RecalcInput{DryRun: true})
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, 10, result.Rows[0].PointTotal)
	assert.True(t, result.Rows[0].Changed)

	ayu, _, err := users.GetByID(context.Background(), "user_ayu")
	require.NoError(t, err)
	assert.Equal(t, 999, ayu.PointTotal, "dry run leaves the cache untouched")
}

type failingPointsRepo struct {
	points.Repository
	failFor string
}

func (r failingPointsRepo) SumByUser(ctx context.Context, userID string) (int, error) {
	if userID == r.failFor {
		return 0, errors.New("sum query timed out")
	}
	return r.Repository.SumByUser(ctx, userID)
}

func TestRecalculateAllContainsPerUserFailures(t *testing.T) {
	t.Parallel()

	users := memory.NewUserRepository([]user.User{
		{ID: "user_ayu", TeamID: "team_owls"},
		{ID: "user_bram", TeamID: "team_owls"},
	})
	ledger := memory.NewLedgerRepository()
	seedPointEntries(t, ledger, "user_bram", 10)

	svc := NewRecalcService(users, failingPointsRepo{
		Repository: ledger.PointEntries(),
		failFor:    "user_ayu",
	}, nil, logging.NewNop())

	result, err := svc.RecalculateAll(context.Background(), RecalcInput{})
	require.NoError(t, err, "one failing user does not fail the run")

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)

	require.Len(t, result.Rows, 2)
	assert.Equal(t, "user_ayu", result.Rows[0].UserID, "rows come back sorted by user id")
	assert.Equal(t, recalcStatusFailed, result.Rows[0].Status)
	assert.Contains(t, result.Rows[0].Message, "timed out")
	assert.Equal(t, recalcStatusSuccess, result.Rows[1].Status)

	bram, _, err := users.GetByID(context.Background(), "user_bram")
	require.NoError(t, err)
	assert.Equal(t, 10, bram.PointTotal)
}

func TestRecalculateUserSingle(t *testing.T) {
	t.Parallel()

	users := memory.NewUserRepository([]user.User{{ID: "user_ayu", TeamID: "team_owls", PointTotal: 1}})
	ledger := memory.NewLedgerRepository()
	seedPointEntries(t, ledger, "user_ayu", 10, 5)

	svc := NewRecalcService(users, ledger.PointEntries(), nil, logging.NewNop())

	total, err := svc.RecalculateUser(context.Background(), "user_ayu")
	require.NoError(t, err)
	assert.Equal(t, 15, total)

	_, err = svc.RecalculateUser(context.Background(), "user_ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecalculateAllNarrowedTargets(t *testing.T) {
	t.Parallel()

	users := memory.NewUserRepository([]user.User{
		{ID: "user_ayu", TeamID: "team_owls", PointTotal: 7},
		{ID: "user_bram", TeamID: "team_owls", PointTotal: 7},
	})
	ledger := memory.NewLedgerRepository()

	svc := NewRecalcService(users, ledger.PointEntries(), nil, logging.NewNop())

	result, err := svc.RecalculateAll(context.Background(), RecalcInput{UserIDs: []string{"user_ayu"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.UserCount)

	bram, _, err := users.GetByID(context.Background(), "user_bram")
	require.NoError(t, err)
	assert.Equal(t, 7, bram.PointTotal, "users outside the narrow set stay untouched")
}
