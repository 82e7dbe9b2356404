package memory

import (
	"time"

	"github.com/keyquest/keyquest/internal/domain/level"
	"github.com/keyquest/keyquest/internal/domain/task"
	"github.com/keyquest/keyquest/internal/domain/team"
	"github.com/keyquest/keyquest/internal/domain/user"
)

const (
	TeamIDNightOwls = "team_night-owls"
	TeamIDLockpicks = "team_lockpicks"
	LevelIDWeekOne  = "level_week-1"
	LevelIDWeekTwo  = "level_week-2"
)

func SeedTeams() []team.Team {
	return []team.Team{
		{
			ID:        TeamIDNightOwls,
			Name:      "Night Owls",
			MemberIDs: []string{"user_ayu", "user_bram"},
		},
		{
			ID:        TeamIDLockpicks,
			Name:      "Lockpicks",
			MemberIDs: []string{"user_citra", "user_dimas"},
		},
	}
}

func SeedUsers() []user.User {
	return []user.User{
		{ID: "user_ayu", DisplayName: "Ayu", TeamID: TeamIDNightOwls, Role: user.RolePlayer},
		{ID: "user_bram", DisplayName: "Bram", TeamID: TeamIDNightOwls, Role: user.RolePlayer},
		{ID: "user_citra", DisplayName: "Citra", TeamID: TeamIDLockpicks, Role: user.RolePlayer},
		{ID: "user_dimas", DisplayName: "Dimas", TeamID: TeamIDLockpicks, Role: user.RoleAdmin},
	}
}

func SeedLevels() []level.Level {
	weekOneOpen := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	return []level.Level{
		{
			ID:       LevelIDWeekOne,
			Week:     1,
			Title:    "Warmup Ciphers",
			OpensAt:  weekOneOpen,
			ClosesAt: weekOneOpen.AddDate(0, 0, 7),
		},
		{
			ID:       LevelIDWeekTwo,
			Week:     2,
			Title:    "Server Room",
			OpensAt:  weekOneOpen.AddDate(0, 0, 7),
			ClosesAt: weekOneOpen.AddDate(0, 0, 14),
		},
	}
}

func SeedTasks() []task.Task {
	return []task.Task{
		{
			ID:      "task_caesar",
			LevelID: LevelIDWeekOne,
			Title:   "Caesar Shift",
			Points:  10,
			KeyID:   "key_bronze",
			Criteria: task.Criteria{
				Kind:   task.CriteriaExactAnswer,
				Params: map[string]string{"answer": "midnight"},
			},
		},
		{
			ID:      "task_flag-format",
			LevelID: LevelIDWeekOne,
			Title:   "Flag Format",
			Points:  15,
			KeyID:   "key_silver",
			Criteria: task.Criteria{
				Kind:   task.CriteriaRegex,
				Params: map[string]string{"pattern": `kq\{[a-z0-9_]+\}`},
			},
		},
		{
			ID:      "task_warmup-quiz",
			LevelID: LevelIDWeekOne,
			Title:   "Warmup Quiz",
			Points:  5,
			Criteria: task.Criteria{
				Kind:   task.CriteriaAnyOf,
				Params: map[string]string{"answers": "tcp,udp"},
			},
		},
		{
			ID:      "task_rack-door",
			LevelID: LevelIDWeekTwo,
			Title:   "Rack Door Code",
			Points:  25,
			KeyID:   "key_gold",
			Criteria: task.Criteria{
				Kind:   task.CriteriaExactAnswer,
				Params: map[string]string{"answer": "4-7-1-9", "case_sensitive": "true"},
			},
		},
	}
}
