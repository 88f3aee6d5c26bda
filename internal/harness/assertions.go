package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/timeweave/internal/compiler"
	"github.com/roach88/timeweave/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the full trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %-10v %s %s\n", ev.Seq, ev.Offset, ev.Name, ir.Format(ev.Attrs))
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against trace and returns the
// failure messages, in assertion order.
func EvaluateAssertions(trace []TraceEvent, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(trace, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(trace []TraceEvent, a Assertion) error {
	switch a.Type {
	case AssertCount:
		return assertCount(trace, a)
	case AssertSorted:
		return assertSorted(trace)
	case AssertWithin:
		return assertWithin(trace, a)
	case AssertContains:
		return assertContains(trace, a)
	case AssertOrder:
		return assertOrder(trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// matches reports whether ev is selected by an optional name filter.
func matches(ev TraceEvent, name string) bool {
	return name == "" || ev.Name == name
}

func describe(name string) string {
	if name == "" {
		return "events"
	}
	return fmt.Sprintf("%s events", name)
}

// assertCount checks the exact number of (named) events.
func assertCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if matches(ev, a.Name) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d %s", a.Count, describe(a.Name)),
			Actual:   fmt.Sprintf("%d %s", count, describe(a.Name)),
			Trace:    trace,
		}
	}
	return nil
}

// assertSorted checks the trace is in schedule order.
func assertSorted(trace []TraceEvent) error {
	for i := 1; i < len(trace); i++ {
		prev, cur := trace[i-1], trace[i]
		if cur.Offset < prev.Offset {
			return &AssertionError{
				Type:     AssertSorted,
				Expected: "non-decreasing offsets",
				Actual:   fmt.Sprintf("seq %d at %v after seq %d at %v", cur.Seq, cur.Offset, prev.Seq, prev.Offset),
				Trace:    trace,
			}
		}
		if cur.Seq <= prev.Seq {
			return &AssertionError{
				Type:     AssertSorted,
				Expected: "increasing seqs",
				Actual:   fmt.Sprintf("seq %d after seq %d", cur.Seq, prev.Seq),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertWithin checks every (named) event falls in [from, to). A missing
// bound is open.
func assertWithin(trace []TraceEvent, a Assertion) error {
	from, err := compiler.ParseDuration(a.From)
	if err != nil {
		return err
	}
	to, err := compiler.ParseDuration(a.To)
	if err != nil {
		return err
	}
	for _, ev := range trace {
		if !matches(ev, a.Name) {
			continue
		}
		if ev.Offset < from || (a.To != "" && ev.Offset >= to) {
			return &AssertionError{
				Type:     AssertWithin,
				Expected: fmt.Sprintf("%s within [%s, %s)", describe(a.Name), orOpen(a.From, "0"), orOpen(a.To, "∞")),
				Actual:   fmt.Sprintf("seq %d %s at %v", ev.Seq, ev.Name, ev.Offset),
				Trace:    trace,
			}
		}
	}
	return nil
}

func orOpen(s, open string) string {
	if s == "" {
		return open
	}
	return s
}

// assertContains checks for an event with the given name whose attributes
// include the expected ones (subset match).
func assertContains(trace []TraceEvent, a Assertion) error {
	want, err := ir.ObjectFromAny(a.Attrs)
	if err != nil {
		return fmt.Errorf("contains: attrs: %w", err)
	}
	for _, ev := range trace {
		if ev.Name == a.Name && matchAttrs(ev.Attrs, want) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertContains,
		Expected: fmt.Sprintf("event %s with attrs %s", a.Name, ir.Format(want)),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// matchAttrs reports whether every expected attribute is present in actual
// with an equal value.
func matchAttrs(actual, expected ir.Object) bool {
	for k, v := range expected {
		got, ok := actual[k]
		if !ok || !reflect.DeepEqual(got, v) {
			return false
		}
	}
	return true
}

// assertOrder checks that the first occurrences of the names appear in the
// given order. Intervening events are allowed.
func assertOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if _, seen := positions[ev.Name]; !seen {
			positions[ev.Name] = i + 1
		}
	}

	for _, name := range a.Names {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     AssertOrder,
				Expected: fmt.Sprintf("all events present: %v", a.Names),
				Actual:   fmt.Sprintf("missing event: %s", name),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Names); i++ {
		prev, cur := a.Names[i-1], a.Names[i]
		if positions[prev] >= positions[cur] {
			return &AssertionError{
				Type:     AssertOrder,
				Expected: fmt.Sprintf("events in order: %v", a.Names),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], cur, positions[cur]),
				Trace: trace,
			}
		}
	}
	return nil
}
