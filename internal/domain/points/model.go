package points

import (
	"fmt"
	"time"
)

// Entry is an authoritative, at-most-once credit of points to a user for one
// submission. At most one row may exist per (user, submission) pair, which
// prevents double-crediting on retries and recalculation runs.
type Entry struct {
	ID           string
	UserID       string
	SubmissionID string
	Points       int
	CreatedAt    time.Time
}

func (e Entry) Validate() error {
	if e.UserID == "" {
		return fmt.Errorf("point entry user id is required")
	}
	if e.SubmissionID == "" {
		return fmt.Errorf("point entry submission id is required")
	}
	if e.Points < 0 {
		return fmt.Errorf("point entry amount must be >= 0")
	}

	return nil
}
