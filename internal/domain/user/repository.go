package user

import "context"

// Repository describes user persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, userID string) (User, bool, error)
	List(ctx context.Context) ([]User, error)

	// UpdatePointTotal overwrites the cached point total. Callers other
	// than the points recalculator must not use it.
	UpdatePointTotal(ctx context.Context, userID string, total int) error
}
