package ledger

import (
	"context"

	"github.com/keyquest/keyquest/internal/domain/points"
	"github.com/keyquest/keyquest/internal/domain/submission"
	"github.com/keyquest/keyquest/internal/domain/unlock"
)

// Repository is the transactional write boundary of the scoring ledger.
// Each submission is appended in exactly one transaction; a store fault
// rolls everything back, so an accepted submission can never persist with a
// half-written unlock or point entry.
type Repository interface {
	// AppendRejected records one rejected submission.
	AppendRejected(ctx context.Context, sub submission.Submission) error

	// AppendAccepted records one accepted submission. When keyUnlock and
	// pointEntry are non-nil it also attempts the conditional key-unlock
	// insert guarded by the (team, key) uniqueness constraint and, only if
	// that insert wins, credits the point entry. unlocked=false with a nil
	// error means another submission already holds the unlock; the
	// submission row is still committed.
	AppendAccepted(
		ctx context.Context,
		sub submission.Submission,
		keyUnlock *unlock.KeyUnlock,
		pointEntry *points.Entry,
	) (unlocked bool, err error)
}
