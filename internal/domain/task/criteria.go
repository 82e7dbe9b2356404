package task

import "fmt"

// CriteriaKind tags how a submission payload is judged. Validators dispatch
// on the tag; the params stay opaque to everything but the matching
// validator.
type CriteriaKind string

const (
	// CriteriaExactAnswer accepts a payload equal to params["answer"].
	// params["case_sensitive"]="true" disables the default case folding.
	CriteriaExactAnswer CriteriaKind = "exact_answer"

	// CriteriaRegex accepts a payload matching params["pattern"] in full.
	CriteriaRegex CriteriaKind = "regex"

	// CriteriaAnyOf accepts a payload equal to any entry of the comma
	// separated params["answers"].
	CriteriaAnyOf CriteriaKind = "any_of"
)

type Criteria struct {
	Kind   CriteriaKind
	Params map[string]string
}

func (c Criteria) Validate() error {
	switch c.Kind {
	case CriteriaExactAnswer:
		if c.Params["answer"] == "" {
			return fmt.Errorf("exact_answer criteria requires an answer param")
		}
	case CriteriaRegex:
		if c.Params["pattern"] == "" {
			return fmt.Errorf("regex criteria requires a pattern param")
		}
	case CriteriaAnyOf:
		if c.Params["answers"] == "" {
			return fmt.Errorf("any_of criteria requires an answers param")
		}
	case "":
		return fmt.Errorf("criteria kind is required")
	}

	return nil
}
