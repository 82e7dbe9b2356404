package unlock

import (
	"fmt"
	"time"
)

// KeyUnlock is the authoritative, at-most-once record that a team has
// satisfied a task's unlock condition. At most one row may exist per
// (team, key) pair; the store enforces it with a uniqueness constraint and
// the engine treats a lost conditional insert as "already unlocked".
type KeyUnlock struct {
	ID           string
	TeamID       string
	KeyID        string
	SubmissionID string
	UnlockedAt   time.Time
}

func (u KeyUnlock) Validate() error {
	if u.TeamID == "" {
		return fmt.Errorf("key unlock team id is required")
	}
	if u.KeyID == "" {
		return fmt.Errorf("key unlock key id is required")
	}
	if u.SubmissionID == "" {
		return fmt.Errorf("key unlock submission id is required")
	}

	return nil
}
