package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/keyquest/keyquest/internal/domain/submission"
	qb "github.com/keyquest/keyquest/internal/platform/querybuilder"
)

type SubmissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) ListByTask(ctx context.Context, taskID string) ([]submission.Submission, error) {
	return r.list(ctx, qb.Eq("task_public_id", taskID))
}

func (r *SubmissionRepository) ListByUser(ctx context.Context, userID string) ([]submission.Submission, error) {
	return r.list(ctx, qb.Eq("user_public_id", userID))
}

func (r *SubmissionRepository) list(ctx context.Context, cond qb.Condition) ([]submission.Submission, error) {
	query, args, err := qb.Select("*").From("submissions").
		Where(cond).
		OrderBy("submitted_at DESC", "id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list submissions query: %w", err)
	}

	var rows []submissionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	out := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
