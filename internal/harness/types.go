package harness

import "github.com/roach88/tmdbg/internal/engine"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion holds.
	Pass bool `json:"pass"`

	// Transcript is the debugger session: prompts, echoed commands and
	// output. Used for golden comparison.
	Transcript string `json:"transcript"`

	State  int    `json:"state"`
	Head   int    `json:"head"`
	Halted bool   `json:"halted"`
	Tape   string `json:"tape"`

	// Steps are the transitions recorded in the trace store, in order.
	Steps []engine.StepRecord `json:"steps"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []engine.StepRecord{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
