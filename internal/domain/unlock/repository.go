package unlock

import "context"

// Repository describes read access to the key-unlock log plus the one
// sanctioned mutation: an explicit administrative reset. Inserts go through
// the ledger repository.
type Repository interface {
	// ListByTeam returns a team's unlocks ordered by unlock time.
	ListByTeam(ctx context.Context, teamID string) ([]KeyUnlock, error)

	// DeleteByTeam wipes a team's unlocks. This is the only exception to
	// unlock monotonicity.
	DeleteByTeam(ctx context.Context, teamID string) error
}
