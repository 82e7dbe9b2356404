package user

import "fmt"

type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
)

// User is an operator competing on a team.
//
// PointTotal is a cached derivation of the point-entry ledger. Only the
// points recalculator writes it; it is never a source of truth.
type User struct {
	ID          string
	DisplayName string
	TeamID      string
	Role        Role
	PointTotal  int
}

func (u User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("user id is required")
	}
	if u.DisplayName == "" {
		return fmt.Errorf("user display name is required")
	}

	return nil
}

// Principal is the authenticated identity handed over by the transport layer.
type Principal struct {
	UserID string
	Email  string
}
