package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/keyquest/keyquest/internal/domain/team"
	"github.com/keyquest/keyquest/internal/domain/user"
	"github.com/keyquest/keyquest/internal/platform/cache"
)

const leaderboardCacheKey = "leaderboard"

// LeaderboardRow is one team's standing. Rank is dense: teams with equal
// points share a rank and the next distinct total takes rank+1.
type LeaderboardRow struct {
	Rank        int    `json:"rank"`
	TeamID      string `json:"team_id"`
	TeamName    string `json:"team_name"`
	Points      int    `json:"points"`
	MemberCount int    `json:"member_count"`
}

// LeaderboardService ranks teams by the sum of their members' cached point
// totals. It reads the derived totals, never the point-entry ledger.
type LeaderboardService struct {
	teamRepo team.Repository
	userRepo user.Repository
	store    *cache.Store
}

func NewLeaderboardService(teamRepo team.Repository, userRepo user.Repository, store *cache.Store) *LeaderboardService {
	return &LeaderboardService{
		teamRepo: teamRepo,
		userRepo: userRepo,
		store:    store,
	}
}

func (s *LeaderboardService) List(ctx context.Context) ([]LeaderboardRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.List")
	defer span.End()

	if s.store == nil {
		return s.compute(ctx)
	}

	value, err := s.store.GetOrLoad(ctx, leaderboardCacheKey, func(ctx context.Context) (any, error) {
		return s.compute(ctx)
	})
	if err != nil {
		return nil, err
	}

	rows, ok := value.([]LeaderboardRow)
	if !ok {
		return nil, fmt.Errorf("unexpected leaderboard cache value %T", value)
	}
	return rows, nil
}

func (s *LeaderboardService) compute(ctx context.Context) ([]LeaderboardRow, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	pointsByTeam := make(map[string]int, len(teams))
	membersByTeam := make(map[string]int, len(teams))
	for _, u := range users {
		if u.TeamID == "" {
			continue
		}
		pointsByTeam[u.TeamID] += u.PointTotal
		membersByTeam[u.TeamID]++
	}

	rows := make([]LeaderboardRow, 0, len(teams))
	for _, t := range teams {
		rows = append(rows, LeaderboardRow{
			TeamID:      t.ID,
			TeamName:    t.Name,
			Points:      pointsByTeam[t.ID],
			MemberCount: membersByTeam[t.ID],
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		if rows[i].TeamName != rows[j].TeamName {
			return rows[i].TeamName < rows[j].TeamName
		}
		return rows[i].TeamID < rows[j].TeamID
	})

	rank := 0
	lastPoints := -1
	for i := range rows {
		if i == 0 || rows[i].Points != lastPoints {
			rank++
			lastPoints = rows[i].Points
		}
		rows[i].Rank = rank
	}

	return rows, nil
}
