package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/keyquest/keyquest/internal/usecase"
)

type submitTaskAnswerRequest struct {
	Payload string `json:"payload" validate:"required,max=4096"`
}

type submitTaskAnswerResponse struct {
	Submission    submissionDTO `json:"submission"`
	Unlocked      bool          `json:"unlocked"`
	PointsAwarded int           `json:"points_awarded"`
	LevelComplete bool          `json:"level_complete"`
}

func (h *Handler) SubmitTaskAnswer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitTaskAnswer")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	taskID := strings.TrimSpace(r.PathValue("taskID"))

	var req submitTaskAnswerRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.submissionService.Submit(ctx, usecase.SubmitInput{
		TaskID:  taskID,
		UserID:  principal.UserID,
		Payload: req.Payload,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit task answer failed", "task_id", taskID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	resp := submitTaskAnswerResponse{
		Submission:    submissionToDTO(result.Submission),
		Unlocked:      result.Unlocked,
		PointsAwarded: result.PointsAwarded,
	}
	if result.Submission.TeamID != "" {
		view, progressErr := h.progressService.Get(ctx, result.Submission.TeamID)
		if progressErr != nil {
			h.logger.WarnContext(ctx, "progress lookup after submit failed", "team_id", result.Submission.TeamID, "error", progressErr)
		} else {
			resp.LevelComplete = view.LevelComplete
		}
	}

	writeSuccess(ctx, w, http.StatusCreated, resp)
}

func (h *Handler) ListMySubmissions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMySubmissions")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	items, err := h.submissionService.ListByUser(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list my submissions failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	dtos := make([]submissionDTO, 0, len(items))
	for _, s := range items {
		dtos = append(dtos, submissionToDTO(s))
	}

	writeSuccess(ctx, w, http.StatusOK, dtos)
}
