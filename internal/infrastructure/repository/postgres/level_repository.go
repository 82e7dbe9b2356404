package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/keyquest/keyquest/internal/domain/level"
	qb "github.com/keyquest/keyquest/internal/platform/querybuilder"
)

type LevelRepository struct {
	db *sqlx.DB
}

func NewLevelRepository(db *sqlx.DB) *LevelRepository {
	return &LevelRepository{db: db}
}

func (r *LevelRepository) List(ctx context.Context) ([]level.Level, error) {
	query, args, err := qb.Select("*").From("levels").
		Where(qb.IsNull("deleted_at")).
		OrderBy("week").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list levels query: %w", err)
	}

	var rows []levelTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}

	out := make([]level.Level, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *LevelRepository) GetByID(ctx context.Context, levelID string) (level.Level, bool, error) {
	return r.getOne(ctx, qb.Eq("public_id", levelID))
}

func (r *LevelRepository) GetByWeek(ctx context.Context, week int) (level.Level, bool, error) {
	return r.getOne(ctx, qb.Eq("week", week))
}

func (r *LevelRepository) GetActiveAt(ctx context.Context, at time.Time) (level.Level, bool, error) {
	unix := at.UTC().Unix()
	return r.getOne(ctx, qb.Expr("opens_at <= ? AND closes_at > ?", unix, unix))
}

func (r *LevelRepository) getOne(ctx context.Context, cond qb.Condition) (level.Level, bool, error) {
	query, args, err := qb.Select("*").From("levels").
		Where(cond, qb.IsNull("deleted_at")).
		OrderBy("week").
		Limit(1).
		ToSQL()
	if err != nil {
		return level.Level{}, false, fmt.Errorf("build get level query: %w", err)
	}

	var row levelTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return level.Level{}, false, nil
		}
		return level.Level{}, false, fmt.Errorf("get level: %w", err)
	}

	return row.toDomain(), true, nil
}
