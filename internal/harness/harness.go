package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/roach88/timeweave/internal/compiler"
	"github.com/roach88/timeweave/internal/engine"
	"github.com/roach88/timeweave/internal/ir"
	"github.com/roach88/timeweave/internal/schedule"
	"github.com/roach88/timeweave/internal/scope"
	"github.com/roach88/timeweave/internal/store"
	"github.com/roach88/timeweave/internal/testutil"
)

// Run executes a scenario against definitions on the OS filesystem.
func Run(scenario *Scenario) (*Result, error) {
	return RunFS(afero.NewOsFs(), scenario)
}

// RunFS executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Load and compile the definition with the scenario's seed and origin
//  2. Schedule it with the scenario's stretch
//  3. Run it on the engine with a fixed run ID, the store as sink
//  4. Read the trace back from the store and evaluate assertions
//
// Errors are returned for broken scenarios (unreadable or invalid
// definitions). A run that fails is reported in the result.
func RunFS(fs afero.Fs, scenario *Scenario) (*Result, error) {
	doc, err := compiler.Load(fs, scenario.Definition)
	if err != nil {
		return nil, fmt.Errorf("load definition: %w", err)
	}
	hash, err := doc.Hash()
	if err != nil {
		return nil, fmt.Errorf("hash definition: %w", err)
	}
	tl, err := compiler.Compile(doc,
		compiler.WithSeed(scenario.Seed),
		compiler.WithOrigin(scenario.Origin),
	)
	if err != nil {
		return nil, fmt.Errorf("compile definition: %w", err)
	}

	var opts []schedule.Option
	if scenario.Stretch != 0 {
		opts = append(opts, schedule.WithStretch(scenario.Stretch))
	}
	root, err := schedule.Schedule(tl, 0, scope.New(), opts...)
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	eng := engine.New(
		engine.WithRunID(testutil.NewFixedRunID(scenario.RunID)),
		engine.WithSink(st),
		engine.WithLimit(scenario.Limit),
	)

	ctx := context.Background()
	result := NewResult()

	sum, runErr := eng.Run(ctx, ir.Run{
		Timeline:       doc.Name(),
		Origin:         scenario.Origin,
		Seed:           scenario.Seed,
		DefinitionHash: hash,
	}, root)
	result.Summary = sum

	switch {
	case runErr != nil && scenario.ExpectError == "":
		result.AddError(fmt.Sprintf("run failed: %v", runErr))
	case runErr == nil && scenario.ExpectError != "":
		result.AddError(fmt.Sprintf("expected run error containing %q, run succeeded", scenario.ExpectError))
	case runErr != nil && !strings.Contains(runErr.Error(), scenario.ExpectError):
		result.AddError(fmt.Sprintf("expected run error containing %q, got: %v", scenario.ExpectError, runErr))
	}

	events, err := st.ReadEvents(ctx, sum.Run.ID)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	for _, ev := range events {
		result.AddEvent(ev)
	}

	for _, msg := range EvaluateAssertions(result.Trace, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}
