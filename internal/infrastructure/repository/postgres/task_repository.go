package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/keyquest/keyquest/internal/domain/task"
	qb "github.com/keyquest/keyquest/internal/platform/querybuilder"
)

type TaskRepository struct {
	db *sqlx.DB
}

func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) GetByID(ctx context.Context, taskID string) (task.Task, bool, error) {
	query, args, err := qb.Select("*").From("tasks").
		Where(
			qb.Eq("public_id", taskID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return task.Task{}, false, fmt.Errorf("build get task by id query: %w", err)
	}

	var row taskTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return task.Task{}, false, nil
		}
		return task.Task{}, false, fmt.Errorf("get task by id: %w", err)
	}

	item, err := row.toDomain()
	if err != nil {
		return task.Task{}, false, err
	}
	return item, true, nil
}

func (r *TaskRepository) ListByLevel(ctx context.Context, levelID string) ([]task.Task, error) {
	query, args, err := qb.Select("*").From("tasks").
		Where(
			qb.Eq("level_public_id", levelID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list tasks by level query: %w", err)
	}

	var rows []taskTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks by level: %w", err)
	}

	out := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *TaskRepository) CountKeyBearingByLevel(ctx context.Context, levelID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("tasks").
		Where(
			qb.Eq("level_public_id", levelID),
			qb.Expr("key_id IS NOT NULL"),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count key-bearing tasks query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count key-bearing tasks: %w", err)
	}
	return count, nil
}
