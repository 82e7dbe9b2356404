package submission

import "context"

// Repository describes read access to the submission log. Writes go through
// the ledger repository so they share a transaction with unlock and point
// rows.
type Repository interface {
	ListByTask(ctx context.Context, taskID string) ([]Submission, error)
	ListByUser(ctx context.Context, userID string) ([]Submission, error)
}
