package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"

	"github.com/keyquest/keyquest/internal/domain/level"
	"github.com/keyquest/keyquest/internal/domain/task"
	"github.com/keyquest/keyquest/internal/domain/team"
	"github.com/keyquest/keyquest/internal/domain/user"
	"github.com/keyquest/keyquest/internal/infrastructure/repository/memory"
	"github.com/keyquest/keyquest/internal/platform/cache"
	"github.com/keyquest/keyquest/internal/platform/id"
	"github.com/keyquest/keyquest/internal/platform/logging"
	"github.com/keyquest/keyquest/internal/usecase"
)

const testInternalJobToken = "job-secret"

type stubVerifier struct {
	principals map[string]user.Principal
}

func (v stubVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	p, ok := v.principals[token]
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
	}
	return p, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	now := time.Now().UTC()
	levels := []level.Level{
		{ID: "level_open", Week: 1, Title: "Week 1", OpensAt: now.Add(-time.Hour), ClosesAt: now.Add(24 * time.Hour)},
		{ID: "level_future", Week: 2, Title: "Week 2", OpensAt: now.Add(24 * time.Hour), ClosesAt: now.Add(48 * time.Hour)},
	}
	tasks := []task.Task{
		{
			ID:      "task_cipher",
			LevelID: "level_open",
			Title:   "Break the cipher",
			Criteria: task.Criteria{
				Kind:   task.CriteriaExactAnswer,
				Params: map[string]string{"answer": "midnight"},
			},
			Points: 10,
			KeyID:  "key_bronze",
		},
	}
	teams := []team.Team{
		{ID: "team_owls", Name: "Night Owls", MemberIDs: []string{"user_ayu"}},
	}
	users := []user.User{
		{ID: "user_ayu", DisplayName: "Ayu", TeamID: "team_owls", Role: user.RolePlayer},
	}

	levelRepo := memory.NewLevelRepository(levels)
	taskRepo := memory.NewTaskRepository(tasks)
	teamRepo := memory.NewTeamRepository(teams)
	userRepo := memory.NewUserRepository(users)
	ledgerRepo := memory.NewLedgerRepository()
	logger := logging.NewNop()

	recalcSvc := usecase.NewRecalcService(userRepo, ledgerRepo.PointEntries(), cache.NewStore(0), logger)
	progressSvc := usecase.NewProgressService(teamRepo, levelRepo, taskRepo, ledgerRepo.Unlocks(), cache.NewStore(0), logger)
	submissionSvc := usecase.NewSubmissionService(
		taskRepo, levelRepo, userRepo, ledgerRepo.Submissions(), ledgerRepo,
		usecase.NewSubmissionValidator(), id.NewRandomGenerator(), recalcSvc, progressSvc, logger,
	)
	handler := NewHandler(
		usecase.NewLevelService(levelRepo, taskRepo),
		submissionSvc,
		progressSvc,
		usecase.NewLeaderboardService(teamRepo, userRepo, cache.NewStore(0)),
		recalcSvc,
		usecase.NewScheduleService(levelRepo, usecase.NewNoopJobQueue(), usecase.ScheduleConfig{}, logger),
		logger,
	)

	verifier := stubVerifier{principals: map[string]user.Principal{
		"token-ayu": {UserID: "user_ayu", Email: "ayu@example.com"},
	}}

	return NewRouter(handler, verifier, logger, []string{"*"}, testInternalJobToken)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_GetCurrentLevelHidesCriteriaParams(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/levels/current", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "midnight")

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	lvl, ok := data["level"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "level_open", lvl["id"])

	tasks, ok := data["tasks"].([]any)
	require.True(t, ok)
	require.Len(t, tasks, 1)
	first, ok := tasks[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "exact_answer", first["criteria_kind"])
}

func TestRouter_GetLevelByWeekRejectsBadInput(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/levels/week/abc", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_SubmitRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/tasks/task_cipher/submissions", strings.NewReader(`{"payload":"midnight"}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_SubmitAcceptedUnlocksAndReportsCompletion(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/tasks/task_cipher/submissions", strings.NewReader(`{"payload":"midnight"}`))
	req.Header.Set("Authorization", "Bearer token-ayu")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, true, data["unlocked"])
	require.Equal(t, float64(10), data["points_awarded"])
	require.Equal(t, true, data["level_complete"])

	sub, ok := data["submission"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "accepted", sub["outcome"])
	require.Equal(t, "team_owls", sub["team_id"])

	// Derived views caught up in the same request cycle.
	progressRec := httptest.NewRecorder()
	router.ServeHTTP(progressRec, httptest.NewRequest(http.MethodGet, "/v1/teams/team_owls/progress", nil))
	require.Equal(t, http.StatusOK, progressRec.Code)
	progressBody := decodeEnvelope(t, progressRec)
	progressData, ok := progressBody["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(100), progressData["percent"])

	boardRec := httptest.NewRecorder()
	router.ServeHTTP(boardRec, httptest.NewRequest(http.MethodGet, "/v1/leaderboard", nil))
	require.Equal(t, http.StatusOK, boardRec.Code)
	require.Contains(t, boardRec.Body.String(), "Night Owls")
}

func TestRouter_SubmitRejectedPayloadReported(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/tasks/task_cipher/submissions", strings.NewReader(`{"payload":"noon"}`))
	req.Header.Set("Authorization", "Bearer token-ayu")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, false, data["unlocked"])

	sub, ok := data["submission"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "rejected", sub["outcome"])
	require.NotEmpty(t, sub["reject_reason"])
}

func TestRouter_InternalJobRequiresToken(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/recalculate-points", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	okRec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/recalculate-points", strings.NewReader(`{"dry_run":true}`))
	req.Header.Set("X-Internal-Job-Token", testInternalJobToken)
	router.ServeHTTP(okRec, req)
	require.Equal(t, http.StatusOK, okRec.Code)

	body := decodeEnvelope(t, okRec)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, true, data["dry_run"])
}

func TestRouter_ResetTeamProgress(t *testing.T) {
	router := newTestRouter(t)

	submitRec := httptest.NewRecorder()
	submitReq := httptest.NewRequest(http.MethodPost, "/v1/tasks/task_cipher/submissions", strings.NewReader(`{"payload":"midnight"}`))
	submitReq.Header.Set("Authorization", "Bearer token-ayu")
	router.ServeHTTP(submitRec, submitReq)
	require.Equal(t, http.StatusCreated, submitRec.Code)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/internal/teams/team_owls/reset", nil)
	req.Header.Set("X-Internal-Job-Token", testInternalJobToken)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(0), data["percent"])
	require.Empty(t, data["unlocked_keys"])
}
