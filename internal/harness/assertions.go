package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the transcript to help debug the failure.
type AssertionError struct {
	Type       string // Assertion type for categorization
	Expected   string // Human-readable expected outcome
	Actual     string // Human-readable actual outcome
	Transcript string // Full session for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Transcript != "" {
		fmt.Fprintf(&buf, "\nTranscript:\n")
		for _, line := range strings.Split(strings.TrimRight(e.Transcript, "\n"), "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns
// one message per failure. Assertions are assumed validated.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{
			Type:       a.Type,
			Expected:   expected,
			Actual:     actual,
			Transcript: result.Transcript,
		}
	}

	switch a.Type {
	case AssertFinalState:
		if result.State != *a.State {
			return fail(fmt.Sprintf("state %d", *a.State), fmt.Sprintf("state %d", result.State))
		}
	case AssertHead:
		if result.Head != *a.Head {
			return fail(fmt.Sprintf("head at %d", *a.Head), fmt.Sprintf("head at %d", result.Head))
		}
	case AssertHalted:
		if result.Halted != *a.Halted {
			return fail(fmt.Sprintf("halted=%t", *a.Halted), fmt.Sprintf("halted=%t", result.Halted))
		}
	case AssertTape:
		if result.Tape != *a.Tape {
			return fail(fmt.Sprintf("tape %q", *a.Tape), fmt.Sprintf("tape %q", result.Tape))
		}
	case AssertOutputContains:
		if !strings.Contains(result.Transcript, a.Text) {
			return fail(fmt.Sprintf("output containing %q", a.Text), "not found in transcript")
		}
	case AssertSteps:
		if len(result.Steps) != *a.Count {
			return fail(fmt.Sprintf("%d recorded steps", *a.Count), fmt.Sprintf("%d recorded steps", len(result.Steps)))
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
