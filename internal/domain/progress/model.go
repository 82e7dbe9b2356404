package progress

import "time"

// Progress is the derived read-side view of a team's advancement. It is
// recomputed from the key-unlock log and never stored as ground truth.
type Progress struct {
	TeamID  string
	LevelID string
	Week    int

	// Percent is floor(unlocked key-bearing tasks of the level / key-bearing
	// tasks of the level * 100), clamped to [0, 100].
	Percent int

	// UnlockedKeys is every key the team has unlocked, ordered by unlock
	// time, not limited to the current level.
	UnlockedKeys []string

	// LevelComplete is true when every key-bearing task of the level is
	// unlocked for the team. Derived, never stored.
	LevelComplete bool

	ComputedAt time.Time
}
