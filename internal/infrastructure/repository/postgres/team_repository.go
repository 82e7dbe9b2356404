package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/keyquest/keyquest/internal/domain/team"
	qb "github.com/keyquest/keyquest/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(
			qb.Eq("public_id", teamID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build get team by id query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team by id: %w", err)
	}

	members, err := r.memberIDs(ctx, []string{teamID})
	if err != nil {
		return team.Team{}, false, err
	}

	return row.toDomain(members[teamID]), true, nil
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.IsNull("deleted_at")).
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	teamIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		teamIDs = append(teamIDs, row.PublicID)
	}
	members, err := r.memberIDs(ctx, teamIDs)
	if err != nil {
		return nil, err
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain(members[row.PublicID]))
	}
	return out, nil
}

func (r *TeamRepository) UpdateProgress(ctx context.Context, teamID string, percent int, unlockedKeys []string) error {
	query, args, err := qb.Update("teams").
		Set("progress_percent", percent).
		Set("unlocked_keys", pq.StringArray(unlockedKeys)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", teamID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update team progress query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update team progress: %w", err)
	}
	return nil
}

// memberIDs loads member user ids per team. Membership lives on the users
// table; the team row never stores it.
func (r *TeamRepository) memberIDs(ctx context.Context, teamIDs []string) (map[string][]string, error) {
	if len(teamIDs) == 0 {
		return map[string][]string{}, nil
	}

	values := make([]any, 0, len(teamIDs))
	for _, teamID := range teamIDs {
		values = append(values, teamID)
	}

	query, args, err := qb.Select("public_id", "team_public_id").From("users").
		Where(
			qb.In("team_public_id", values),
			qb.IsNull("deleted_at"),
		).
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list team members query: %w", err)
	}

	var rows []struct {
		PublicID string `db:"public_id"`
		TeamID   string `db:"team_public_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}

	out := make(map[string][]string, len(teamIDs))
	for _, row := range rows {
		out[row.TeamID] = append(out[row.TeamID], row.PublicID)
	}
	return out, nil
}
