package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/keyquest/keyquest/internal/domain/points"
	"github.com/keyquest/keyquest/internal/domain/submission"
	"github.com/keyquest/keyquest/internal/domain/unlock"
)

// LedgerRepository holds the submission, key-unlock, and point-entry logs
// under one mutex, which is what makes the conditional unlock insert atomic
// with the submission append. Read access to each log goes through the
// typed views below.
type LedgerRepository struct {
	mu          sync.RWMutex
	submissions []submission.Submission
	unlocks     []unlock.KeyUnlock
	unlockKeys  map[string]struct{}
	entries     []points.Entry
	entryKeys   map[string]struct{}
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		unlockKeys: make(map[string]struct{}),
		entryKeys:  make(map[string]struct{}),
	}
}

func (r *LedgerRepository) AppendRejected(_ context.Context, sub submission.Submission) error {
	if sub.Outcome != submission.OutcomeRejected {
		return fmt.Errorf("submission %s is not rejected", sub.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.submissions = append(r.submissions, sub)
	return nil
}

func (r *LedgerRepository) AppendAccepted(
	_ context.Context,
	sub submission.Submission,
	keyUnlock *unlock.KeyUnlock,
	pointEntry *points.Entry,
) (bool, error) {
	if sub.Outcome != submission.OutcomeAccepted {
		return false, fmt.Errorf("submission %s is not accepted", sub.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.submissions = append(r.submissions, sub)
	if keyUnlock == nil {
		return false, nil
	}

	unlockKey := keyUnlock.TeamID + "::" + keyUnlock.KeyID
	if _, taken := r.unlockKeys[unlockKey]; taken {
		// Another submission already holds this (team, key) unlock. The
		// submission row above stays committed.
		return false, nil
	}

	r.unlockKeys[unlockKey] = struct{}{}
	r.unlocks = append(r.unlocks, *keyUnlock)

	if pointEntry != nil {
		entryKey := pointEntry.UserID + "::" + pointEntry.SubmissionID
		if _, taken := r.entryKeys[entryKey]; !taken {
			r.entryKeys[entryKey] = struct{}{}
			r.entries = append(r.entries, *pointEntry)
		}
	}

	return true, nil
}

// Submissions exposes the submission log read interface.
func (r *LedgerRepository) Submissions() submission.Repository { return submissionView{r} }

// Unlocks exposes the key-unlock log interface.
func (r *LedgerRepository) Unlocks() unlock.Repository { return unlockView{r} }

// PointEntries exposes the point-entry log read interface.
func (r *LedgerRepository) PointEntries() points.Repository { return pointsView{r} }

type submissionView struct{ r *LedgerRepository }

func (v submissionView) ListByTask(_ context.Context, taskID string) ([]submission.Submission, error) {
	v.r.mu.RLock()
	defer v.r.mu.RUnlock()

	out := make([]submission.Submission, 0)
	for i := len(v.r.submissions) - 1; i >= 0; i-- {
		if v.r.submissions[i].TaskID == taskID {
			out = append(out, v.r.submissions[i])
		}
	}
	return out, nil
}

func (v submissionView) ListByUser(_ context.Context, userID string) ([]submission.Submission, error) {
	v.r.mu.RLock()
	defer v.r.mu.RUnlock()

	out := make([]submission.Submission, 0)
	for i := len(v.r.submissions) - 1; i >= 0; i-- {
		if v.r.submissions[i].UserID == userID {
			out = append(out, v.r.submissions[i])
		}
	}
	return out, nil
}

type unlockView struct{ r *LedgerRepository }

func (v unlockView) ListByTeam(_ context.Context, teamID string) ([]unlock.KeyUnlock, error) {
	v.r.mu.RLock()
	defer v.r.mu.RUnlock()

	out := make([]unlock.KeyUnlock, 0)
	for _, item := range v.r.unlocks {
		if item.TeamID == teamID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (v unlockView) DeleteByTeam(_ context.Context, teamID string) error {
	v.r.mu.Lock()
	defer v.r.mu.Unlock()

	kept := v.r.unlocks[:0]
	for _, item := range v.r.unlocks {
		if item.TeamID == teamID {
			delete(v.r.unlockKeys, item.TeamID+"::"+item.KeyID)
			continue
		}
		kept = append(kept, item)
	}
	v.r.unlocks = kept

	return nil
}

type pointsView struct{ r *LedgerRepository }

func (v pointsView) SumByUser(_ context.Context, userID string) (int, error) {
	v.r.mu.RLock()
	defer v.r.mu.RUnlock()

	total := 0
	for _, item := range v.r.entries {
		if item.UserID == userID {
			total += item.Points
		}
	}
	return total, nil
}

func (v pointsView) ListByUser(_ context.Context, userID string) ([]points.Entry, error) {
	v.r.mu.RLock()
	defer v.r.mu.RUnlock()

	out := make([]points.Entry, 0)
	for _, item := range v.r.entries {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}
