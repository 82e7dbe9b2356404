package usecase

import (
	"regexp"
	"strings"
	"sync"

	"github.com/keyquest/keyquest/internal/domain/task"
)

// Rejection reasons recorded on submissions. These are stable strings
// surfaced to clients, not free-form error text.
const (
	RejectReasonEmptyPayload    = "empty payload"
	RejectReasonWrongAnswer     = "answer does not satisfy task criteria"
	RejectReasonUnknownCriteria = "task has unknown criteria kind"
	RejectReasonInvalidCriteria = "task criteria are misconfigured"
	RejectReasonWindowClosed    = "level window closed"
)

// Verdict is the outcome of checking a payload against task criteria.
type Verdict struct {
	Accepted bool
	Reason   string
}

func accepted() Verdict {
	return Verdict{Accepted: true}
}

func rejected(reason string) Verdict {
	return Verdict{Reason: reason}
}

// SubmissionValidator evaluates submission payloads against task
// criteria. Evaluation is deterministic: the same payload and criteria
// always produce the same verdict.
type SubmissionValidator struct {
	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

func NewSubmissionValidator() *SubmissionValidator {
	return &SubmissionValidator{patterns: make(map[string]*regexp.Regexp)}
}

// Validate checks payload against the task's criteria. Misconfigured or
// unknown criteria reject the submission rather than failing the call,
// so a bad task definition never blocks the submission pipeline.
func (v *SubmissionValidator) Validate(t task.Task, payload string) Verdict {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return rejected(RejectReasonEmptyPayload)
	}

	switch t.Criteria.Kind {
	case task.CriteriaExactAnswer:
		return v.validateExact(t.Criteria, payload)
	case task.CriteriaRegex:
		return v.validateRegex(t.Criteria, payload)
	case task.CriteriaAnyOf:
		return v.validateAnyOf(t.Criteria, payload)
	default:
		return rejected(RejectReasonUnknownCriteria)
	}
}

func (v *SubmissionValidator) validateExact(c task.Criteria, payload string) Verdict {
	answer := strings.TrimSpace(c.Params["answer"])
	if answer == "" {
		return rejected(RejectReasonInvalidCriteria)
	}

	if c.Params["case_sensitive"] == "true" {
		if payload == answer {
			return accepted()
		}
		return rejected(RejectReasonWrongAnswer)
	}

	if strings.EqualFold(payload, answer) {
		return accepted()
	}
	return rejected(RejectReasonWrongAnswer)
}

func (v *SubmissionValidator) validateRegex(c task.Criteria, payload string) Verdict {
	pattern := c.Params["pattern"]
	if strings.TrimSpace(pattern) == "" {
		return rejected(RejectReasonInvalidCriteria)
	}

	re, err := v.compile(pattern)
	if err != nil {
		return rejected(RejectReasonInvalidCriteria)
	}

	if re.MatchString(payload) {
		return accepted()
	}
	return rejected(RejectReasonWrongAnswer)
}

func (v *SubmissionValidator) validateAnyOf(c task.Criteria, payload string) Verdict {
	raw := c.Params["answers"]
	if strings.TrimSpace(raw) == "" {
		return rejected(RejectReasonInvalidCriteria)
	}

	for _, candidate := range strings.Split(raw, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate != "" && strings.EqualFold(payload, candidate) {
			return accepted()
		}
	}
	return rejected(RejectReasonWrongAnswer)
}

func (v *SubmissionValidator) compile(pattern string) (*regexp.Regexp, error) {
	v.mu.RLock()
	re, ok := v.patterns[pattern]
	v.mu.RUnlock()
	if ok {
		return re, nil
	}

	// Patterns match the whole payload.
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.patterns[pattern] = re
	v.mu.Unlock()
	return re, nil
}
