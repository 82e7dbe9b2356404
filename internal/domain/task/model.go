package task

import "fmt"

// Task is a unit of work inside a level. KeyID is empty for practice tasks
// that unlock nothing; such tasks never produce points either.
type Task struct {
	ID       string
	LevelID  string
	Title    string
	Criteria Criteria
	Points   int
	KeyID    string
}

// HasKey reports whether an accepted submission for this task can unlock a
// reward key for the submitter's team.
func (t Task) HasKey() bool {
	return t.KeyID != ""
}

func (t Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task id is required")
	}
	if t.LevelID == "" {
		return fmt.Errorf("task level id is required")
	}
	if t.Points < 0 {
		return fmt.Errorf("task points must be >= 0")
	}
	if err := t.Criteria.Validate(); err != nil {
		return fmt.Errorf("task criteria: %w", err)
	}

	return nil
}
