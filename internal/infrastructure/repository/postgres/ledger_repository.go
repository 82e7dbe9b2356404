package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/keyquest/keyquest/internal/domain/points"
	"github.com/keyquest/keyquest/internal/domain/submission"
	"github.com/keyquest/keyquest/internal/domain/unlock"
	qb "github.com/keyquest/keyquest/internal/platform/querybuilder"
)

// LedgerRepository appends to the scoring ledger. AppendAccepted runs one
// transaction around the submission insert, the conditional key-unlock
// insert, and the point credit; the partial unique index on
// key_unlocks (team_public_id, key_id) WHERE deleted_at IS NULL is the race
// arbiter.
type LedgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) AppendRejected(ctx context.Context, sub submission.Submission) error {
	if sub.Outcome != submission.OutcomeRejected {
		return fmt.Errorf("submission %s is not rejected", sub.ID)
	}

	builder, err := qb.InsertModel("submissions", newSubmissionInsertModel(sub))
	if err != nil {
		return fmt.Errorf("build insert rejected submission query: %w", err)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert rejected submission query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert rejected submission: %w", err)
	}
	return nil
}

func (r *LedgerRepository) AppendAccepted(
	ctx context.Context,
	sub submission.Submission,
	keyUnlock *unlock.KeyUnlock,
	pointEntry *points.Entry,
) (bool, error) {
	if sub.Outcome != submission.OutcomeAccepted {
		return false, fmt.Errorf("submission %s is not accepted", sub.ID)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx append accepted submission: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	builder, err := qb.InsertModel("submissions", newSubmissionInsertModel(sub))
	if err != nil {
		return false, fmt.Errorf("build insert submission query: %w", err)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return false, fmt.Errorf("build insert submission query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("insert submission: %w", err)
	}

	unlocked := false
	if keyUnlock != nil {
		unlocked, err = r.insertUnlock(ctx, tx, *keyUnlock)
		if err != nil {
			return false, err
		}

		if unlocked && pointEntry != nil {
			if err := r.insertPointEntry(ctx, tx, *pointEntry); err != nil {
				return false, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit append accepted submission: %w", err)
	}
	return unlocked, nil
}

// insertUnlock attempts the conditional insert. ON CONFLICT DO NOTHING
// turns a lost (team, key) race into zero affected rows instead of an
// error, so the surrounding transaction still commits the submission.
func (r *LedgerRepository) insertUnlock(ctx context.Context, tx *sqlx.Tx, keyUnlock unlock.KeyUnlock) (bool, error) {
	insertModel := keyUnlockInsertModel{
		PublicID:     keyUnlock.ID,
		TeamID:       keyUnlock.TeamID,
		KeyID:        keyUnlock.KeyID,
		SubmissionID: keyUnlock.SubmissionID,
		UnlockedAt:   timeToUnix(keyUnlock.UnlockedAt),
	}
	builder, err := qb.InsertModel("key_unlocks", insertModel)
	if err != nil {
		return false, fmt.Errorf("build insert key unlock query: %w", err)
	}
	query, args, err := builder.
		Suffix("ON CONFLICT (team_public_id, key_id) WHERE deleted_at IS NULL DO NOTHING").
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build insert key unlock query: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert key unlock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read key unlock rows affected: %w", err)
	}
	return affected == 1, nil
}

func (r *LedgerRepository) insertPointEntry(ctx context.Context, tx *sqlx.Tx, entry points.Entry) error {
	insertModel := pointEntryInsertModel{
		PublicID:     entry.ID,
		UserID:       entry.UserID,
		SubmissionID: entry.SubmissionID,
		Points:       entry.Points,
		CreatedAt:    timeToUnix(entry.CreatedAt),
	}
	builder, err := qb.InsertModel("point_entries", insertModel)
	if err != nil {
		return fmt.Errorf("build insert point entry query: %w", err)
	}
	query, args, err := builder.
		Suffix("ON CONFLICT (user_public_id, submission_public_id) DO NOTHING").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert point entry query: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert point entry: %w", err)
	}
	return nil
}
