package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	List(ctx context.Context) ([]Team, error)

	// UpdateProgress overwrites the cached progress fields. Only the
	// progress aggregator writes through it.
	UpdateProgress(ctx context.Context, teamID string, percent int, unlockedKeys []string) error
}
