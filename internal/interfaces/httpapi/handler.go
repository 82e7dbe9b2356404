package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/keyquest/keyquest/internal/domain/level"
	"github.com/keyquest/keyquest/internal/domain/progress"
	"github.com/keyquest/keyquest/internal/domain/submission"
	"github.com/keyquest/keyquest/internal/domain/task"
	"github.com/keyquest/keyquest/internal/platform/logging"
	"github.com/keyquest/keyquest/internal/usecase"
)

type Handler struct {
	levelService       *usecase.LevelService
	submissionService  *usecase.SubmissionService
	progressService    *usecase.ProgressService
	leaderboardService *usecase.LeaderboardService
	recalcService      *usecase.RecalcService
	scheduleService    *usecase.ScheduleService
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	levelService *usecase.LevelService,
	submissionService *usecase.SubmissionService,
	progressService *usecase.ProgressService,
	leaderboardService *usecase.LeaderboardService,
	recalcService *usecase.RecalcService,
	scheduleService *usecase.ScheduleService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		levelService:       levelService,
		submissionService:  submissionService,
		progressService:    progressService,
		leaderboardService: leaderboardService,
		recalcService:      recalcService,
		scheduleService:    scheduleService,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListLevels(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLevels")
	defer span.End()

	levels, err := h.levelService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list levels failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]levelDTO, 0, len(levels))
	for _, l := range levels {
		items = append(items, levelToDTO(l))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetCurrentLevel(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentLevel")
	defer span.End()

	detail, err := h.levelService.GetCurrent(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get current level failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, levelDetailToDTO(detail))
}

func (h *Handler) GetLevelByWeek(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLevelByWeek")
	defer span.End()

	rawWeek := strings.TrimSpace(r.PathValue("week"))
	week, err := strconv.Atoi(rawWeek)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: week must be an integer, got %q", usecase.ErrInvalidInput, rawWeek))
		return
	}

	detail, err := h.levelService.GetByWeek(ctx, week)
	if err != nil {
		h.logger.WarnContext(ctx, "get level by week failed", "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, levelDetailToDTO(detail))
}

func (h *Handler) GetTeamProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamProgress")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	view, err := h.progressService.Get(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team progress failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, progressToDTO(view))
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	rows, err := h.leaderboardService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get leaderboard failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rows)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeRequest tolerates an empty body so that bodyless job triggers stay
// valid; required fields are enforced by the validator afterwards.
func decodeRequest(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type levelDTO struct {
	ID       string    `json:"id"`
	Week     int       `json:"week"`
	Title    string    `json:"title"`
	OpensAt  time.Time `json:"opens_at"`
	ClosesAt time.Time `json:"closes_at"`
}

// taskDTO intentionally omits criteria params: answers and patterns never
// leave the server.
type taskDTO struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CriteriaKind string `json:"criteria_kind"`
	Points       int    `json:"points"`
	KeyID        string `json:"key_id,omitempty"`
}

type levelDetailDTO struct {
	Level levelDTO  `json:"level"`
	Tasks []taskDTO `json:"tasks"`
}

type submissionDTO struct {
	ID           string    `json:"id"`
	TaskID       string    `json:"task_id"`
	UserID       string    `json:"user_id"`
	TeamID       string    `json:"team_id"`
	Outcome      string    `json:"outcome"`
	RejectReason string    `json:"reject_reason,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type progressDTO struct {
	TeamID        string    `json:"team_id"`
	LevelID       string    `json:"level_id,omitempty"`
	Week          int       `json:"week,omitempty"`
	Percent       int       `json:"percent"`
	UnlockedKeys  []string  `json:"unlocked_keys"`
	LevelComplete bool      `json:"level_complete"`
	ComputedAt    time.Time `json:"computed_at"`
}

func levelToDTO(l level.Level) levelDTO {
	return levelDTO{
		ID:       l.ID,
		Week:     l.Week,
		Title:    l.Title,
		OpensAt:  l.OpensAt,
		ClosesAt: l.ClosesAt,
	}
}

func taskToDTO(t task.Task) taskDTO {
	return taskDTO{
		ID:           t.ID,
		Title:        t.Title,
		CriteriaKind: string(t.Criteria.Kind),
		Points:       t.Points,
		KeyID:        t.KeyID,
	}
}

func levelDetailToDTO(detail usecase.LevelDetail) levelDetailDTO {
	tasks := make([]taskDTO, 0, len(detail.Tasks))
	for _, t := range detail.Tasks {
		tasks = append(tasks, taskToDTO(t))
	}

	return levelDetailDTO{
		Level: levelToDTO(detail.Level),
		Tasks: tasks,
	}
}

func submissionToDTO(s submission.Submission) submissionDTO {
	return submissionDTO{
		ID:           s.ID,
		TaskID:       s.TaskID,
		UserID:       s.UserID,
		TeamID:       s.TeamID,
		Outcome:      string(s.Outcome),
		RejectReason: s.RejectReason,
		SubmittedAt:  s.SubmittedAt,
	}
}

func progressToDTO(p progress.Progress) progressDTO {
	keys := p.UnlockedKeys
	if keys == nil {
		keys = []string{}
	}

	return progressDTO{
		TeamID:        p.TeamID,
		LevelID:       p.LevelID,
		Week:          p.Week,
		Percent:       p.Percent,
		UnlockedKeys:  keys,
		LevelComplete: p.LevelComplete,
		ComputedAt:    p.ComputedAt,
	}
}
