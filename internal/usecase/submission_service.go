package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/keyquest/keyquest/internal/domain/ledger"
	"github.com/keyquest/keyquest/internal/domain/level"
	"github.com/keyquest/keyquest/internal/domain/points"
	"github.com/keyquest/keyquest/internal/domain/submission"
	"github.com/keyquest/keyquest/internal/domain/task"
	"github.com/keyquest/keyquest/internal/domain/unlock"
	"github.com/keyquest/keyquest/internal/domain/user"
	"github.com/keyquest/keyquest/internal/platform/id"
	"github.com/keyquest/keyquest/internal/platform/logging"
)

type SubmitInput struct {
	TaskID  string
	UserID  string
	Payload string
}

type SubmitResult struct {
	Submission    submission.Submission
	Unlocked      bool
	PointsAwarded int
}

type userPointsRecalculator interface {
	RecalculateUser(ctx context.Context, userID string) (int, error)
}

type teamProgressRefresher interface {
	Refresh(ctx context.Context, teamID string) error
}

// SubmissionService runs the submission pipeline: load, window check,
// criteria check, one ledger transaction, then derived-cache refresh.
type SubmissionService struct {
	taskRepo  task.Repository
	levelRepo level.Repository
	userRepo  user.Repository
	subRepo   submission.Repository
	ledger    ledger.Repository
	validator *SubmissionValidator
	idGen     id.Generator
	recalc    userPointsRecalculator
	progress  teamProgressRefresher
	logger    *logging.Logger
	now       func() time.Time
}

func NewSubmissionService(
	taskRepo task.Repository,
	levelRepo level.Repository,
	userRepo user.Repository,
	subRepo submission.Repository,
	ledgerRepo ledger.Repository,
	validator *SubmissionValidator,
	idGen id.Generator,
	recalc userPointsRecalculator,
	progress teamProgressRefresher,
	logger *logging.Logger,
) *SubmissionService {
	if logger == nil {
		logger = logging.Default()
	}

	return &SubmissionService{
		taskRepo:  taskRepo,
		levelRepo: levelRepo,
		userRepo:  userRepo,
		subRepo:   subRepo,
		ledger:    ledgerRepo,
		validator: validator,
		idGen:     idGen,
		recalc:    recalc,
		progress:  progress,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit records one attempt at a task. Every call that reaches the ledger
// produces exactly one submission row; acceptance, unlock, and point credit
// are decided here and committed together.
func (s *SubmissionService) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.Submit")
	defer span.End()

	input.TaskID = strings.TrimSpace(input.TaskID)
	input.UserID = strings.TrimSpace(input.UserID)
	if input.TaskID == "" {
		return SubmitResult{}, fmt.Errorf("%w: task id is required", ErrInvalidInput)
	}
	if input.UserID == "" {
		return SubmitResult{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	tsk, exists, err := s.taskRepo.GetByID(ctx, input.TaskID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("get task: %w", err)
	}
	if !exists {
		return SubmitResult{}, fmt.Errorf("%w: task=%s", ErrNotFound, input.TaskID)
	}

	lvl, exists, err := s.levelRepo.GetByID(ctx, tsk.LevelID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("get level: %w", err)
	}
	if !exists {
		return SubmitResult{}, fmt.Errorf("task %s references missing level %s", tsk.ID, tsk.LevelID)
	}

	usr, exists, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("get user: %w", err)
	}
	if !exists {
		return SubmitResult{}, fmt.Errorf("%w: user=%s", ErrNotFound, input.UserID)
	}
	if usr.TeamID == "" {
		return SubmitResult{}, fmt.Errorf("%w: user %s has no team", ErrInvalidInput, usr.ID)
	}

	now := s.now()
	sub := submission.Submission{
		TaskID:      tsk.ID,
		UserID:      usr.ID,
		TeamID:      usr.TeamID,
		Payload:     strings.TrimSpace(input.Payload),
		SubmittedAt: now,
	}
	sub.ID, err = s.idGen.NewID("sub")
	if err != nil {
		return SubmitResult{}, fmt.Errorf("generate submission id: %w", err)
	}

	var verdict Verdict
	if !lvl.IsOpenAt(now) {
		verdict = rejected(RejectReasonWindowClosed)
	} else {
		verdict = s.validator.Validate(tsk, sub.Payload)
	}

	if !verdict.Accepted {
		sub.Outcome = submission.OutcomeRejected
		sub.RejectReason = verdict.Reason
		if err := s.ledger.AppendRejected(ctx, sub); err != nil {
			return SubmitResult{}, fmt.Errorf("append rejected submission: %w", err)
		}
		return SubmitResult{Submission: sub}, nil
	}

	sub.Outcome = submission.OutcomeAccepted

	var keyUnlock *unlock.KeyUnlock
	var pointEntry *points.Entry
	if tsk.HasKey() {
		unlockID, err := s.idGen.NewID("unl")
		if err != nil {
			return SubmitResult{}, fmt.Errorf("generate unlock id: %w", err)
		}
		entryID, err := s.idGen.NewID("pts")
		if err != nil {
			return SubmitResult{}, fmt.Errorf("generate point entry id: %w", err)
		}

		keyUnlock = &unlock.KeyUnlock{
			ID:           unlockID,
			TeamID:       usr.TeamID,
			KeyID:        tsk.KeyID,
			SubmissionID: sub.ID,
			UnlockedAt:   now,
		}
		pointEntry = &points.Entry{
			ID:           entryID,
			UserID:       usr.ID,
			SubmissionID: sub.ID,
			Points:       tsk.Points,
			CreatedAt:    now,
		}
	}

	unlocked, err := s.ledger.AppendAccepted(ctx, sub, keyUnlock, pointEntry)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("append accepted submission: %w", err)
	}

	result := SubmitResult{Submission: sub, Unlocked: unlocked}
	if unlocked {
		result.PointsAwarded = tsk.Points
		s.refreshDerived(ctx, usr.ID, usr.TeamID)
	}

	return result, nil
}

// refreshDerived updates the cached point total and team progress after a
// winning unlock. The ledger already committed, so failures here are logged
// and left for the next recalculation to repair.
func (s *SubmissionService) refreshDerived(ctx context.Context, userID, teamID string) {
	if s.recalc != nil {
		if _, err := s.recalc.RecalculateUser(ctx, userID); err != nil {
			s.logger.WarnContext(ctx, "recalculate user points after unlock failed",
				"user_id", userID,
				"error", err.Error(),
			)
		}
	}

	if s.progress != nil {
		if err := s.progress.Refresh(ctx, teamID); err != nil {
			s.logger.WarnContext(ctx, "refresh team progress after unlock failed",
				"team_id", teamID,
				"error", err.Error(),
			)
		}
	}
}

// ListByUser returns a user's submissions, newest first.
func (s *SubmissionService) ListByUser(ctx context.Context, userID string) ([]submission.Submission, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.ListByUser")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	items, err := s.subRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list submissions by user: %w", err)
	}
	return items, nil
}
