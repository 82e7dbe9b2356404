package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/keyquest/keyquest/internal/usecase"
)

type recalculatePointsJobRequest struct {
	UserIDs    []string `json:"user_ids" validate:"omitempty,dive,required"`
	MaxWorkers int      `json:"max_workers" validate:"omitempty,min=1,max=32"`
	DryRun     bool     `json:"dry_run"`
	DispatchID string   `json:"dispatch_id"`
}

func (h *Handler) RunRecalculatePointsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRecalculatePointsJob")
	defer span.End()

	if h.recalcService == nil {
		writeError(ctx, w, fmt.Errorf("%w: recalc service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req recalculatePointsJobRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.recalcService.RecalculateAll(ctx, usecase.RecalcInput{
		UserIDs:    req.UserIDs,
		MaxWorkers: req.MaxWorkers,
		DryRun:     req.DryRun,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "recalculate points job failed", "dispatch_id", req.DispatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "recalculate points job completed",
		"dispatch_id", req.DispatchID,
		"users", result.UserCount,
		"changed", result.ChangedCount,
		"failed", result.FailedCount,
		"dry_run", result.DryRun,
	)
	writeSuccess(ctx, w, http.StatusOK, result)
}

type scheduleRecalculationsJobRequest struct {
	LevelID string `json:"level_id"`
	Force   bool   `json:"force"`
}

func (h *Handler) RunScheduleRecalculationsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunScheduleRecalculationsJob")
	defer span.End()

	if h.scheduleService == nil {
		writeError(ctx, w, fmt.Errorf("%w: schedule service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req scheduleRecalculationsJobRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.scheduleService.ScheduleRecalculations(ctx, usecase.ScheduleRecalcInput{
		LevelID: req.LevelID,
		Force:   req.Force,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "schedule recalculations job failed", "level_id", req.LevelID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

// ResetTeamProgress wipes a team's unlock history and re-derives its
// progress. Point entries stay untouched, a fresh recalculation is the
// operator's follow-up call.
func (h *Handler) ResetTeamProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResetTeamProgress")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	if err := h.progressService.ResetTeam(ctx, teamID); err != nil {
		h.logger.WarnContext(ctx, "reset team progress failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	view, err := h.progressService.Get(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "progress lookup after reset failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, progressToDTO(view))
}
