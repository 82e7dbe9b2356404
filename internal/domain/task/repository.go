package task

import "context"

// Repository describes task persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, taskID string) (Task, bool, error)
	ListByLevel(ctx context.Context, levelID string) ([]Task, error)

	// CountKeyBearingByLevel counts the tasks of a level that unlock a key;
	// the denominator of the progress percentage.
	CountKeyBearingByLevel(ctx context.Context, levelID string) (int, error)
}
