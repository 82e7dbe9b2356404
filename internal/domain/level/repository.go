package level

import (
	"context"
	"time"
)

// Repository describes level persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Level, error)
	GetByID(ctx context.Context, levelID string) (Level, bool, error)
	GetByWeek(ctx context.Context, week int) (Level, bool, error)

	// GetActiveAt returns the level whose window contains the instant.
	GetActiveAt(ctx context.Context, at time.Time) (Level, bool, error)
}
