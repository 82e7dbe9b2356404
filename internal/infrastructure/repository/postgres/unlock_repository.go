package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/keyquest/keyquest/internal/domain/unlock"
	qb "github.com/keyquest/keyquest/internal/platform/querybuilder"
)

type UnlockRepository struct {
	db *sqlx.DB
}

func NewUnlockRepository(db *sqlx.DB) *UnlockRepository {
	return &UnlockRepository{db: db}
}

func (r *UnlockRepository) ListByTeam(ctx context.Context, teamID string) ([]unlock.KeyUnlock, error) {
	query, args, err := qb.Select("*").From("key_unlocks").
		Where(
			qb.Eq("team_public_id", teamID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("unlocked_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list key unlocks query: %w", err)
	}

	var rows []keyUnlockTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list key unlocks: %w", err)
	}

	out := make([]unlock.KeyUnlock, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// DeleteByTeam soft-deletes all of a team's unlocks. The partial unique
// index ignores soft-deleted rows, so the keys become winnable again.
func (r *UnlockRepository) DeleteByTeam(ctx context.Context, teamID string) error {
	query, args, err := qb.Update("key_unlocks").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Eq("team_public_id", teamID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete key unlocks query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete key unlocks: %w", err)
	}
	return nil
}
