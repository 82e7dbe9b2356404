package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/keyquest/keyquest/internal/domain/level"
	"github.com/keyquest/keyquest/internal/domain/points"
	"github.com/keyquest/keyquest/internal/domain/submission"
	"github.com/keyquest/keyquest/internal/domain/task"
	"github.com/keyquest/keyquest/internal/domain/team"
	"github.com/keyquest/keyquest/internal/domain/unlock"
	"github.com/keyquest/keyquest/internal/domain/user"
)

type userTableModel struct {
	ID          int64      `db:"id"`
	PublicID    string     `db:"public_id"`
	DisplayName string     `db:"display_name"`
	TeamID      string     `db:"team_public_id"`
	Role        string     `db:"role"`
	PointTotal  int        `db:"point_total"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

func (m userTableModel) toDomain() user.User {
	return user.User{
		ID:          m.PublicID,
		DisplayName: m.DisplayName,
		TeamID:      m.TeamID,
		Role:        user.Role(m.Role),
		PointTotal:  m.PointTotal,
	}
}

type teamTableModel struct {
	ID              int64          `db:"id"`
	PublicID        string         `db:"public_id"`
	Name            string         `db:"name"`
	ProgressPercent int            `db:"progress_percent"`
	UnlockedKeys    pq.StringArray `db:"unlocked_keys"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	DeletedAt       *time.Time     `db:"deleted_at"`
}

func (m teamTableModel) toDomain(memberIDs []string) team.Team {
	return team.Team{
		ID:              m.PublicID,
		Name:            m.Name,
		MemberIDs:       memberIDs,
		ProgressPercent: m.ProgressPercent,
		UnlockedKeys:    append([]string(nil), m.UnlockedKeys...),
	}
}

type levelTableModel struct {
	ID        int64      `db:"id"`
	PublicID  string     `db:"public_id"`
	Week      int        `db:"week"`
	Title     string     `db:"title"`
	OpensAt   int64      `db:"opens_at"`
	ClosesAt  int64      `db:"closes_at"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

func (m levelTableModel) toDomain() level.Level {
	return level.Level{
		ID:       m.PublicID,
		Week:     m.Week,
		Title:    m.Title,
		OpensAt:  unixToTime(m.OpensAt),
		ClosesAt: unixToTime(m.ClosesAt),
	}
}

type taskTableModel struct {
	ID             int64          `db:"id"`
	PublicID       string         `db:"public_id"`
	LevelID        string         `db:"level_public_id"`
	Title          string         `db:"title"`
	Points         int            `db:"points"`
	KeyID          sql.NullString `db:"key_id"`
	CriteriaKind   string         `db:"criteria_kind"`
	CriteriaParams []byte         `db:"criteria_params"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
	DeletedAt      *time.Time     `db:"deleted_at"`
}

func (m taskTableModel) toDomain() (task.Task, error) {
	params := map[string]string{}
	if len(m.CriteriaParams) > 0 {
		if err := json.Unmarshal(m.CriteriaParams, &params); err != nil {
			return task.Task{}, fmt.Errorf("decode criteria params for task %s: %w", m.PublicID, err)
		}
	}

	return task.Task{
		ID:      m.PublicID,
		LevelID: m.LevelID,
		Title:   m.Title,
		Points:  m.Points,
		KeyID:   nullStringToString(m.KeyID),
		Criteria: task.Criteria{
			Kind:   task.CriteriaKind(m.CriteriaKind),
			Params: params,
		},
	}, nil
}

type submissionTableModel struct {
	ID           int64          `db:"id"`
	PublicID     string         `db:"public_id"`
	TaskID       string         `db:"task_public_id"`
	UserID       string         `db:"user_public_id"`
	TeamID       string         `db:"team_public_id"`
	Payload      string         `db:"payload"`
	Outcome      string         `db:"outcome"`
	RejectReason sql.NullString `db:"reject_reason"`
	SubmittedAt  int64          `db:"submitted_at"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (m submissionTableModel) toDomain() submission.Submission {
	return submission.Submission{
		ID:           m.PublicID,
		TaskID:       m.TaskID,
		UserID:       m.UserID,
		TeamID:       m.TeamID,
		Payload:      m.Payload,
		Outcome:      submission.Outcome(m.Outcome),
		RejectReason: nullStringToString(m.RejectReason),
		SubmittedAt:  unixToTime(m.SubmittedAt),
	}
}

type submissionInsertModel struct {
	PublicID     string         `db:"public_id"`
	TaskID       string         `db:"task_public_id"`
	UserID       string         `db:"user_public_id"`
	TeamID       string         `db:"team_public_id"`
	Payload      string         `db:"payload"`
	Outcome      string         `db:"outcome"`
	RejectReason sql.NullString `db:"reject_reason"`
	SubmittedAt  int64          `db:"submitted_at"`
}

func newSubmissionInsertModel(sub submission.Submission) submissionInsertModel {
	return submissionInsertModel{
		PublicID:     sub.ID,
		TaskID:       sub.TaskID,
		UserID:       sub.UserID,
		TeamID:       sub.TeamID,
		Payload:      sub.Payload,
		Outcome:      string(sub.Outcome),
		RejectReason: stringToNullString(sub.RejectReason),
		SubmittedAt:  timeToUnix(sub.SubmittedAt),
	}
}

type keyUnlockTableModel struct {
	ID           int64      `db:"id"`
	PublicID     string     `db:"public_id"`
	TeamID       string     `db:"team_public_id"`
	KeyID        string     `db:"key_id"`
	SubmissionID string     `db:"submission_public_id"`
	UnlockedAt   int64      `db:"unlocked_at"`
	CreatedAt    time.Time  `db:"created_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (m keyUnlockTableModel) toDomain() unlock.KeyUnlock {
	return unlock.KeyUnlock{
		ID:           m.PublicID,
		TeamID:       m.TeamID,
		KeyID:        m.KeyID,
		SubmissionID: m.SubmissionID,
		UnlockedAt:   unixToTime(m.UnlockedAt),
	}
}

type keyUnlockInsertModel struct {
	PublicID     string `db:"public_id"`
	TeamID       string `db:"team_public_id"`
	KeyID        string `db:"key_id"`
	SubmissionID string `db:"submission_public_id"`
	UnlockedAt   int64  `db:"unlocked_at"`
}

type pointEntryTableModel struct {
	ID           int64  `db:"id"`
	PublicID     string `db:"public_id"`
	UserID       string `db:"user_public_id"`
	SubmissionID string `db:"submission_public_id"`
	Points       int    `db:"points"`
	CreatedAt    int64  `db:"created_at"`
}

func (m pointEntryTableModel) toDomain() points.Entry {
	return points.Entry{
		ID:           m.PublicID,
		UserID:       m.UserID,
		SubmissionID: m.SubmissionID,
		Points:       m.Points,
		CreatedAt:    unixToTime(m.CreatedAt),
	}
}

type pointEntryInsertModel struct {
	PublicID     string `db:"public_id"`
	UserID       string `db:"user_public_id"`
	SubmissionID string `db:"submission_public_id"`
	Points       int    `db:"points"`
	CreatedAt    int64  `db:"created_at"`
}
