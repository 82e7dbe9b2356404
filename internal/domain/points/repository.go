package points

import "context"

// Repository describes read access to the point-entry ledger. Inserts go
// through the ledger repository.
type Repository interface {
	// SumByUser sums all entries for a user; zero entries sum to zero.
	SumByUser(ctx context.Context, userID string) (int, error)
	ListByUser(ctx context.Context, userID string) ([]Entry, error)
}
