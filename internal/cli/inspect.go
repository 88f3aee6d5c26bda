package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/timeweave/internal/ir"
	"github.com/roach88/timeweave/internal/timeline"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Depth int
}

// InspectNode is one row of the tree dump.
type InspectNode struct {
	Depth    int       `json:"depth"`
	Name     string    `json:"name"`
	Kind     string    `json:"kind"`
	Offset   string    `json:"offset"`
	Duration string    `json:"duration"`
	Bindings ir.Object `json:"bindings,omitempty"`
}

// InspectStats mirrors timeline.Stats for output.
type InspectStats struct {
	Leaves      int    `json:"leaves"`
	Sequential  int    `json:"sequential"`
	Concurrent  int    `json:"concurrent"`
	MaxDepth    int    `json:"max_depth"`
	Duration    string `json:"duration"`
	LatestStart string `json:"latest_start"`
}

// InspectResult holds the inspect output.
type InspectResult struct {
	Timeline string        `json:"timeline"`
	Hash     string        `json:"hash"`
	Stats    InspectStats  `json:"stats"`
	Nodes    []InspectNode `json:"nodes"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <definition>",
		Short: "Show the built window tree",
		Long: `Build a definition and print its window tree: every node with its kind,
its start relative to the root and its duration, plus totals.

Offsets shown are window starts. Where a leaf lands inside its window is
decided by the distribution when the timeline is scheduled.

Examples:
  timeweave inspect week.yaml
  timeweave inspect week.cue --depth 2 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Depth, "depth", 0, "limit the dump to this depth (0 = all)")

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	doc, tl, issues, err := compileDefinition(fsOf(opts.RootOptions), path)
	if err != nil {
		return err
	}
	if len(issues) > 0 {
		return issuesError(formatter, path, issues)
	}
	hash, err := doc.Hash()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to hash definition", err)
	}

	result := InspectResult{
		Timeline: doc.Name(),
		Hash:     hash,
		Stats:    inspectStats(timeline.Summarize(tl)),
		Nodes:    []InspectNode{},
	}
	_ = timeline.Walk(tl, func(n timeline.Timeline, offset time.Duration, depth int) error {
		if opts.Depth > 0 && depth > opts.Depth {
			return nil
		}
		node := InspectNode{
			Depth:    depth,
			Name:     n.Name(),
			Kind:     n.Kind().String(),
			Offset:   offset.String(),
			Duration: n.Duration().String(),
		}
		if b := n.Bindings(); len(b) > 0 {
			node.Bindings = b
		}
		result.Nodes = append(result.Nodes, node)
		return nil
	})

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	return outputInspectText(formatter, result)
}

func inspectStats(st timeline.Stats) InspectStats {
	return InspectStats{
		Leaves:      st.Leaves,
		Sequential:  st.Sequential,
		Concurrent:  st.Concurrent,
		MaxDepth:    st.MaxDepth,
		Duration:    st.Duration.String(),
		LatestStart: st.LatestStart.String(),
	}
}

func outputInspectText(f *OutputFormatter, result InspectResult) error {
	w := f.Writer
	fmt.Fprintf(w, "%s (%s)\n\n", result.Timeline, shortHash(result.Hash))

	rows := make([][]string, 0, len(result.Nodes))
	for _, n := range result.Nodes {
		name := n.Name
		if name == "" {
			name = "-"
		}
		rows = append(rows, []string{strings.Repeat("  ", n.Depth) + name, n.Kind, n.Offset, n.Duration})
	}
	if err := writeTable(w, []string{"NODE", "KIND", "START", "DURATION"}, rows); err != nil {
		return err
	}

	st := result.Stats
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s, %s sequential, %s concurrent, depth %d, spans %s\n",
		formatCount(st.Leaves), plural(st.Leaves, "event", "events"),
		formatCount(st.Sequential), formatCount(st.Concurrent), st.MaxDepth, st.Duration)
	return nil
}
