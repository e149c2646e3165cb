package models

// FailurePolicy decides whether a multi-step operation stops at the first
// failed write or keeps applying the remaining steps.
type FailurePolicy string

const (
	HaltOnFailure     FailurePolicy = "halt_on_failure"
	ContinueOnFailure FailurePolicy = "continue_on_failure"
)

// StepAction names the kind of stock write a step performed.
type StepAction string

const (
	ActionDecrement StepAction = "decrement"
	ActionRestock   StepAction = "restock"
)

// StepOutcome records what happened to one step.
type StepOutcome string

const (
	OutcomeApplied StepOutcome = "applied"
	OutcomeSkipped StepOutcome = "skipped"
	OutcomeFailed  StepOutcome = "failed"
)

// StepResult is the result of one stock write in a multi-step operation.
type StepResult struct {
	ItemID   string      `json:"item_id"`
	Action   StepAction  `json:"action"`
	Quantity int         `json:"quantity"`
	Outcome  StepOutcome `json:"outcome"`
	Error    string      `json:"error,omitempty"`
}

// StepReport collects the step results of one operation.
type StepReport struct {
	Policy FailurePolicy `json:"policy"`
	Steps  []StepResult  `json:"steps"`
}

// Failed returns the steps that did not apply because of an error.
func (r StepReport) Failed() []StepResult {
	var failed []StepResult
	for _, step := range r.Steps {
		if step.Outcome == OutcomeFailed {
			failed = append(failed, step)
		}
	}
	return failed
}

// Partial reports whether at least one step failed.
func (r StepReport) Partial() bool {
	return len(r.Failed()) > 0
}
