package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/keyquest/keyquest/internal/domain/team"
)

type TeamRepository struct {
	mu    sync.RWMutex
	teams map[string]team.Team
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	byID := make(map[string]team.Team, len(teams))
	for _, item := range teams {
		byID[item.ID] = item
	}

	return &TeamRepository{teams: byID}
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.teams[teamID]
	if !ok {
		return team.Team{}, false, nil
	}
	return cloneTeam(item), true, nil
}

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.teams))
	for _, item := range r.teams {
		out = append(out, cloneTeam(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *TeamRepository) UpdateProgress(_ context.Context, teamID string, percent int, unlockedKeys []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.teams[teamID]
	if !ok {
		return nil
	}
	item.ProgressPercent = percent
	item.UnlockedKeys = append([]string(nil), unlockedKeys...)
	r.teams[teamID] = item

	return nil
}

func cloneTeam(item team.Team) team.Team {
	item.MemberIDs = append([]string(nil), item.MemberIDs...)
	item.UnlockedKeys = append([]string(nil), item.UnlockedKeys...)
	return item
}
