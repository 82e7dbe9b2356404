package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/keyquest/keyquest/internal/domain/points"
	qb "github.com/keyquest/keyquest/internal/platform/querybuilder"
)

type PointsRepository struct {
	db *sqlx.DB
}

func NewPointsRepository(db *sqlx.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

func (r *PointsRepository) SumByUser(ctx context.Context, userID string) (int, error) {
	query, args, err := qb.Select("COALESCE(SUM(points), 0)").From("point_entries").
		Where(qb.Eq("user_public_id", userID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build sum point entries query: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("sum point entries: %w", err)
	}
	return total, nil
}

func (r *PointsRepository) ListByUser(ctx context.Context, userID string) ([]points.Entry, error) {
	query, args, err := qb.Select("*").From("point_entries").
		Where(qb.Eq("user_public_id", userID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list point entries query: %w", err)
	}

	var rows []pointEntryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list point entries: %w", err)
	}

	out := make([]points.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
