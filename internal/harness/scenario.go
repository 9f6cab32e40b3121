package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines an integrity scenario: a sequence of entity operations
// followed by assertions on the resulting rows.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps run in order against a freshly provisioned store.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one entity operation.
type Step struct {
	// Do is the step type (e.g., "create_role", "delete").
	Do string `yaml:"do"`

	// As binds the created id to a name usable as "$name" afterwards.
	As string `yaml:"as,omitempty"`

	// Args contains the operation arguments.
	Args map[string]any `yaml:"args"`
}

// Label identifies the step in traces and error assertions.
func (s Step) Label(index int) string {
	if s.As != "" {
		return s.As
	}
	return fmt.Sprintf("step[%d]", index)
}

// Assertion validates final state or a step outcome.
type Assertion struct {
	// Type is one of count, exists, missing, field, error.
	Type string `yaml:"type"`

	// Table is the table queried (count, exists, missing, field).
	Table string `yaml:"table,omitempty"`

	// ID addresses one row: an integer or a "$name" reference.
	ID any `yaml:"id,omitempty"`

	// Where filters rows for count. Values may be "$name" references or null.
	Where map[string]any `yaml:"where,omitempty"`

	// Count is the expected number of rows (count).
	Count *int `yaml:"count,omitempty"`

	// Column, Equals and IsNull describe a field assertion.
	Column string `yaml:"column,omitempty"`
	Equals any    `yaml:"equals,omitempty"`
	IsNull *bool  `yaml:"is_null,omitempty"`

	// Step and Code describe an error assertion.
	Step string `yaml:"step,omitempty"`
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertCount   = "count"
	AssertExists  = "exists"
	AssertMissing = "missing"
	AssertField   = "field"
	AssertError   = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	labels := make(map[string]bool, len(s.Steps))
	for i, step := range s.Steps {
		if step.Do == "" {
			return fmt.Errorf("steps[%d]: do is required", i)
		}
		if _, ok := stepHandlers[step.Do]; !ok {
			return fmt.Errorf("steps[%d]: unknown step type %q", i, step.Do)
		}
		if step.As != "" && strings.HasPrefix(step.As, "$") {
			return fmt.Errorf("steps[%d]: as must be a bare name, not %q", i, step.As)
		}
		label := step.Label(i)
		if labels[label] {
			return fmt.Errorf("steps[%d]: duplicate label %q", i, label)
		}
		labels[label] = true
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, labels); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, labels map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for count", index)
		}
	case AssertExists, AssertMissing:
		if a.Table == "" || a.ID == nil {
			return fmt.Errorf("assertions[%d]: table and id are required for %s", index, a.Type)
		}
	case AssertField:
		if a.Table == "" || a.ID == nil || a.Column == "" {
			return fmt.Errorf("assertions[%d]: table, id and column are required for field", index)
		}
		if (a.Equals == nil) == (a.IsNull == nil) {
			return fmt.Errorf("assertions[%d]: exactly one of equals or is_null is required for field", index)
		}
	case AssertError:
		if a.Step == "" || a.Code == "" {
			return fmt.Errorf("assertions[%d]: step and code are required for error", index)
		}
		if !labels[a.Step] {
			return fmt.Errorf("assertions[%d]: unknown step %q", index, a.Step)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
