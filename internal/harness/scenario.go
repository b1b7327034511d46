package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tmdbg/internal/breakpoint"
	"github.com/roach88/tmdbg/internal/engine"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Machine is the path of a description file, relative to the scenario
	// file. Exactly one of Machine and Inline must be set.
	Machine string `yaml:"machine,omitempty"`

	// Inline is a machine given directly in the scenario.
	Inline *InlineMachine `yaml:"inline,omitempty"`

	// Probe selects breakpoint probing: "scan" (default) or "step".
	Probe string `yaml:"probe,omitempty"`

	// Breakpoints are kind=value specs added before the first command.
	Breakpoints []string `yaml:"breakpoints,omitempty"`

	// Timeout bounds every continue command. Zero means DefaultTimeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Commands are fed to the debugger one per line.
	Commands []string `yaml:"commands"`

	// Assertions validate the machine after the session ends.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is the run id recorded in the trace store.
	// If empty, defaults to DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`
}

// InlineMachine is a machine description embedded in a scenario. Rules use
// the text format: "state read write next move".
type InlineMachine struct {
	Tape  string   `yaml:"tape"`
	Head  int      `yaml:"head"`
	State int      `yaml:"state"`
	Rules []string `yaml:"rules"`
}

// Assertion validates the final machine or the transcript.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_state": State must equal the machine's state
	// - "head": Head must equal the head position
	// - "halted": Halted must equal the halted flag
	// - "tape": Tape must equal the written tape
	// - "output_contains": Text must appear in the transcript
	// - "steps": Count transitions must have been recorded
	Type string `yaml:"type"`

	State  *int    `yaml:"state,omitempty"`
	Head   *int    `yaml:"head,omitempty"`
	Halted *bool   `yaml:"halted,omitempty"`
	Tape   *string `yaml:"tape,omitempty"`
	Text   string  `yaml:"text,omitempty"`
	Count  *int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState     = "final_state"
	AssertHead           = "head"
	AssertHalted         = "halted"
	AssertTape           = "tape"
	AssertOutputContains = "output_contains"
	AssertSteps          = "steps"
)

// LoadScenario reads and parses a scenario YAML file. A relative machine
// path is resolved against the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the machine path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Machine != "" && !filepath.IsAbs(scenario.Machine) && basePath != "" {
		scenario.Machine = filepath.Join(basePath, scenario.Machine)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Machine == "" && s.Inline == nil:
		return fmt.Errorf("one of machine or inline is required")
	case s.Machine != "" && s.Inline != nil:
		return fmt.Errorf("machine and inline are mutually exclusive")
	}

	if s.Machine != "" {
		if _, err := os.Stat(s.Machine); os.IsNotExist(err) {
			return fmt.Errorf("machine file not found: %s", s.Machine)
		}
	}

	if _, err := engine.ParseProbeMode(s.Probe); err != nil {
		return err
	}

	for i, spec := range s.Breakpoints {
		if _, err := breakpoint.ParseSpec(spec); err != nil {
			return fmt.Errorf("breakpoints[%d]: %w", i, err)
		}
	}

	if s.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}

	if len(s.Commands) == 0 {
		return fmt.Errorf("commands list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	missing := func(field string) error {
		return fmt.Errorf("assertions[%d]: %s is required for %s", index, field, a.Type)
	}

	switch a.Type {
	case AssertFinalState:
		if a.State == nil {
			return missing("state")
		}
	case AssertHead:
		if a.Head == nil {
			return missing("head")
		}
	case AssertHalted:
		if a.Halted == nil {
			return missing("halted")
		}
	case AssertTape:
		if a.Tape == nil {
			return missing("tape")
		}
	case AssertOutputContains:
		if a.Text == "" {
			return missing("text")
		}
	case AssertSteps:
		if a.Count == nil {
			return missing("count")
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for steps", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
