package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/timeweave/internal/compiler"
	"github.com/roach88/timeweave/internal/engine"
	"github.com/roach88/timeweave/internal/ir"
	"github.com/roach88/timeweave/internal/schedule"
	"github.com/roach88/timeweave/internal/scope"
	"github.com/roach88/timeweave/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Origin   string
	Seed     uint64
	Stretch  float64
	Limit    int
	Database string
	Realtime bool

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator

	// Now is the reference for "now" origins (for testing).
	Now func() time.Time
}

// GenerateResult is the JSON payload of a finished run.
type GenerateResult struct {
	Run       ir.Run     `json:"run"`
	Events    []ir.Event `json:"events"`
	Moments   int        `json:"moments"`
	Truncated bool       `json:"truncated"`
	Cancelled bool       `json:"cancelled,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	return newGenerateCommand(&GenerateOptions{RootOptions: rootOpts})
}

func newGenerateCommand(opts *GenerateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <definition>",
		Short: "Run a timeline and emit its events",
		Long: `Compile a timeline definition, schedule it and fire every moment in
offset order. Each event is stamped with origin + offset.

By default moments fire as fast as possible. With --realtime the run
waits for each moment's wall time; moments already in the past fire
immediately. With --db the run and its events are recorded in a SQLite
database for later use with history.

Examples:
  timeweave generate week.yaml
  timeweave generate week.cue --origin 2026-03-02T09:00:00Z --seed 7
  timeweave generate week.yaml --stretch 0.5 --limit 100 --db ./runs.db
  timeweave generate week.yaml --realtime --origin now`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Origin, "origin", "now", "wall time of offset 0 (RFC 3339, YYYY-MM-DD or now)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "seed for random distributions")
	cmd.Flags().Float64Var(&opts.Stretch, "stretch", schedule.DefaultStretch, "rescale offsets by this factor")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "stop after this many moments (0 = no limit)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Realtime, "realtime", false, "pace moments to wall-clock time")

	return cmd
}

func runGenerate(opts *GenerateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	origin, err := parseOrigin(opts.Origin, now())
	if err != nil {
		return WrapExitError(ExitCommandError, "bad --origin", err)
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must be non-negative")
	}

	doc, tl, issues, err := compileDefinition(fsOf(opts.RootOptions), path,
		compiler.WithSeed(opts.Seed),
		compiler.WithOrigin(origin),
	)
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
	formatter.VerboseLog("Compiled %s (%s)", doc.Name(), hash)

	root, err := schedule.Schedule(tl, 0, scope.New(), schedule.WithStretch(opts.Stretch))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to schedule", err)
	}

	collector := &engine.Collector{}
	sinks := []engine.Sink{collector}
	if !formatter.IsJSON() {
		sinks = append(sinks, eventPrinter(formatter.Writer))
	}

	if opts.Database != "" {
		slog.Debug("opening database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		sinks = append(sinks, st)
	}

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = engine.UUIDv7Generator{}
	}
	engOpts := []engine.EngineOption{
		engine.WithRunID(runIDs),
		engine.WithSink(sinks...),
		engine.WithLimit(opts.Limit),
	}
	if opts.Realtime {
		engOpts = append(engOpts, engine.WithPacer(engine.SystemClock{}))
	}
	eng := engine.New(engOpts...)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, runErr := eng.Run(ctx, ir.Run{
		Timeline:       doc.Name(),
		Origin:         origin,
		Seed:           opts.Seed,
		DefinitionHash: hash,
	}, root)

	cancelled := errors.Is(runErr, context.Canceled)
	if runErr != nil && !cancelled {
		_ = formatter.Error("E_RUN", runErr.Error(), map[string]any{
			"run_id":  sum.Run.ID,
			"moments": sum.Moments,
		})
		return WrapExitError(ExitFailure, "run failed", runErr)
	}
	if cancelled {
		slog.Info("run interrupted", "run_id", sum.Run.ID)
	}

	if formatter.IsJSON() {
		events := collector.Events()
		if events == nil {
			events = []ir.Event{}
		}
		return formatter.Success(GenerateResult{
			Run:       sum.Run,
			Events:    events,
			Moments:   sum.Moments,
			Truncated: sum.Truncated,
			Cancelled: cancelled,
		})
	}

	w := formatter.Writer
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s over %s (run %s)\n",
		formatCount(sum.Events), plural(sum.Events, "event", "events"), sum.Span(), sum.Run.ID)
	if sum.Truncated {
		fmt.Fprintf(w, "Stopped at --limit %s; more moments remain\n", formatCount(opts.Limit))
	}
	if cancelled {
		fmt.Fprintln(w, "Interrupted")
	}
	if opts.Database != "" {
		fmt.Fprintf(w, "Recorded in %s\n", opts.Database)
	}
	return nil
}

// eventPrinter streams one line per event, so paced runs show events as
// they happen.
func eventPrinter(w io.Writer) engine.SinkFunc {
	return func(_ context.Context, ev ir.Event) error {
		_, err := fmt.Fprintf(w, "%4d  %s  +%-10s  %s %s\n",
			ev.Seq, ev.At.UTC().Format(time.RFC3339), ev.Offset, ev.Name, ir.Format(ev.Attrs))
		return err
	}
}
