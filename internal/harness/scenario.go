package harness

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/roach88/timeweave/internal/compiler"
)

// Scenario defines one run of a timeline definition and what it must emit.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Definition is the timeline definition to run. Relative paths are
	// resolved against the scenario file's directory when loading.
	Definition string `yaml:"definition"`

	// Origin is the wall time of offset 0.
	Origin time.Time `yaml:"origin"`

	Seed uint64 `yaml:"seed,omitempty"`

	// Stretch defaults to 1.
	Stretch float64 `yaml:"stretch,omitempty"`

	// Limit caps the number of fired moments. Zero means no limit.
	Limit int `yaml:"limit,omitempty"`

	// RunID is the fixed run ID. If empty, defaults to "test-run-default"
	// for deterministic golden file comparison.
	RunID string `yaml:"run_id,omitempty"`

	// ExpectError, if set, must appear in the run's error. The trace up to
	// the failure is still asserted on.
	ExpectError string `yaml:"expect_error,omitempty"`

	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "count": exactly Count events (named Name, or all)
	// - "sorted": offsets non-decreasing, seqs increasing
	// - "within": every event (named Name, or all) lies in [From, To)
	// - "contains": an event named Name whose attrs include Attrs
	// - "order": first occurrences of Names appear in this order
	Type string `yaml:"type"`

	Name  string         `yaml:"name,omitempty"`
	Names []string       `yaml:"names,omitempty"`
	Count int            `yaml:"count,omitempty"`
	Attrs map[string]any `yaml:"attrs,omitempty"`

	// From and To are offsets in definition duration syntax.
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`
}

// Assertion type constants.
const (
	AssertCount    = "count"
	AssertSorted   = "sorted"
	AssertWithin   = "within"
	AssertContains = "contains"
	AssertOrder    = "order"
)

// LoadScenario reads and parses a scenario YAML file from fs.
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or is missing required fields.
func LoadScenario(fs afero.Fs, path string) (*Scenario, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Definition != "" && !filepath.IsAbs(scenario.Definition) {
		scenario.Definition = filepath.Join(filepath.Dir(path), scenario.Definition)
	}

	if err := validateScenario(fs, &scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml scenario directly inside dir,
// in file name order.
func LoadScenarios(fs afero.Fs, dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := afero.Glob(fs, filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("list scenarios: %w", err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(fs, p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(fs afero.Fs, s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Definition == "" {
		return fmt.Errorf("definition is required")
	}
	if ok, _ := afero.Exists(fs, s.Definition); !ok {
		return fmt.Errorf("definition file not found: %s", s.Definition)
	}
	if s.Origin.IsZero() {
		return fmt.Errorf("origin is required")
	}
	if s.Stretch < 0 {
		return fmt.Errorf("stretch must be positive")
	}
	if s.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}
	if len(s.Assertions) == 0 && s.ExpectError == "" {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
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

	switch a.Type {
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertSorted:
	case AssertWithin:
		if a.From == "" && a.To == "" {
			return fmt.Errorf("assertions[%d]: within needs from or to", index)
		}
		for _, v := range []string{a.From, a.To} {
			if _, err := compiler.ParseDuration(v); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertContains:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for contains", index)
		}
	case AssertOrder:
		if len(a.Names) == 0 {
			return fmt.Errorf("assertions[%d]: names list is required for order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
