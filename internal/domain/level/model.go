package level

import (
	"fmt"
	"time"
)

// Level is a weekly content unit grouping tasks. Levels are created by
// configuration load and immutable at runtime except for their window.
type Level struct {
	ID       string
	Week     int
	Title    string
	OpensAt  time.Time
	ClosesAt time.Time
}

// IsOpenAt reports whether submissions may be evaluated at the given instant.
// The window is half open: [OpensAt, ClosesAt).
func (l Level) IsOpenAt(now time.Time) bool {
	if l.OpensAt.IsZero() || l.ClosesAt.IsZero() {
		return false
	}
	return !now.Before(l.OpensAt) && now.Before(l.ClosesAt)
}

func (l Level) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("level id is required")
	}
	if l.Week < 1 {
		return fmt.Errorf("level week must be >= 1")
	}
	if !l.ClosesAt.After(l.OpensAt) {
		return fmt.Errorf("level window must close after it opens")
	}

	return nil
}
