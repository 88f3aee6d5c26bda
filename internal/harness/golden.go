package harness

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/timeweave/internal/ir"
	"github.com/roach88/timeweave/internal/testutil"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// Event IDs are left out: they are derived from fields already present.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	RunID        string       `json:"run_id"`
	Trace        []TraceEvent `json:"trace"`
}

// Canonical renders the snapshot as canonical JSON. Offsets use
// time.Duration notation and wall times RFC 3339 in UTC.
func (s *TraceSnapshot) Canonical() ([]byte, error) {
	trace := make(ir.Array, len(s.Trace))
	for i, ev := range s.Trace {
		attrs := ev.Attrs
		if attrs == nil {
			attrs = ir.Object{}
		}
		trace[i] = ir.Object{
			"seq":    ir.Int(ev.Seq),
			"name":   ir.String(ev.Name),
			"offset": ir.String(ev.Offset.String()),
			"at":     ir.String(ev.At.UTC().Format(time.RFC3339Nano)),
			"attrs":  attrs,
		}
	}
	return ir.MarshalCanonical(ir.Object{
		"scenario_name": ir.String(s.ScenarioName),
		"run_id":        ir.String(s.RunID),
		"trace":         trace,
	})
}

// RunWithGolden executes a scenario and compares the trace against a golden
// file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return assertGolden(t, scenario.Name, runID(scenario), result)
}

// AssertGolden compares an already computed result against a golden file.
// The run ID is taken to be the default fixed one.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()
	return assertGolden(t, scenarioName, testutil.NewFixedRunID("").Generate(), result)
}

func assertGolden(t *testing.T, name, runID string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: name,
		RunID:        runID,
		Trace:        result.Trace,
	}
	traceJSON, err := snapshot.Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)
	return nil
}

func runID(s *Scenario) string {
	return testutil.NewFixedRunID(s.RunID).Generate()
}
