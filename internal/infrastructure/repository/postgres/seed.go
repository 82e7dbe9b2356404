package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/keyquest/keyquest/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the demo dataset into an empty database. A database
// with any live team is left alone.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM teams WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count teams for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, t := range memory.SeedTeams() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO teams (public_id, name)
VALUES (:public_id, :name)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id": t.ID,
			"name":      t.Name,
		})
		if err != nil {
			return fmt.Errorf("bind seed team %s query: %w", t.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed team %s: %w", t.ID, err)
		}
	}

	for _, u := range memory.SeedUsers() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO users (public_id, display_name, team_public_id, role)
VALUES (:public_id, :display_name, :team_public_id, :role)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":      u.ID,
			"display_name":   u.DisplayName,
			"team_public_id": u.TeamID,
			"role":           string(u.Role),
		})
		if err != nil {
			return fmt.Errorf("bind seed user %s query: %w", u.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	for _, l := range memory.SeedLevels() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO levels (public_id, week, title, opens_at, closes_at)
VALUES (:public_id, :week, :title, :opens_at, :closes_at)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id": l.ID,
			"week":      l.Week,
			"title":     l.Title,
			"opens_at":  timeToUnix(l.OpensAt),
			"closes_at": timeToUnix(l.ClosesAt),
		})
		if err != nil {
			return fmt.Errorf("bind seed level %s query: %w", l.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed level %s: %w", l.ID, err)
		}
	}

	for _, t := range memory.SeedTasks() {
		params, err := json.Marshal(t.Criteria.Params)
		if err != nil {
			return fmt.Errorf("encode criteria params for task %s: %w", t.ID, err)
		}

		sqlQuery, args, err := sqlx.Named(`
INSERT INTO tasks (public_id, level_public_id, title, points, key_id, criteria_kind, criteria_params)
VALUES (:public_id, :level_public_id, :title, :points, :key_id, :criteria_kind, :criteria_params)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":       t.ID,
			"level_public_id": t.LevelID,
			"title":           t.Title,
			"points":          t.Points,
			"key_id":          stringToNullString(t.KeyID),
			"criteria_kind":   string(t.Criteria.Kind),
			"criteria_params": params,
		})
		if err != nil {
			return fmt.Errorf("bind seed task %s query: %w", t.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}
