package team

import "fmt"

// Team is a competing group of users.
//
// ProgressPercent and UnlockedKeys are derived caches owned by the progress
// aggregator; the key-unlock log is the source of truth for both.
type Team struct {
	ID              string
	Name            string
	MemberIDs       []string
	ProgressPercent int
	UnlockedKeys    []string
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}
