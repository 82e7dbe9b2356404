package submission

import (
	"fmt"
	"time"
)

type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// Submission is an immutable record of one user's attempt at a task.
// Rejected attempts are recorded too; corrections happen via new
// submissions, never by mutating history. The submission log is the single
// source of truth for scoring.
type Submission struct {
	ID           string
	TaskID       string
	UserID       string
	TeamID       string
	Payload      string
	Outcome      Outcome
	RejectReason string
	SubmittedAt  time.Time
}

func (s Submission) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("submission id is required")
	}
	if s.TaskID == "" {
		return fmt.Errorf("submission task id is required")
	}
	if s.UserID == "" {
		return fmt.Errorf("submission user id is required")
	}
	switch s.Outcome {
	case OutcomeAccepted, OutcomeRejected:
	default:
		return fmt.Errorf("submission outcome %q is invalid", s.Outcome)
	}
	if s.Outcome == OutcomeRejected && s.RejectReason == "" {
		return fmt.Errorf("rejected submission requires a reason")
	}

	return nil
}
