package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/timeweave/internal/ir"
	"github.com/roach88/timeweave/internal/queryir"
	"github.com/roach88/timeweave/internal/querysql"
	"github.com/roach88/timeweave/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Name     string   // optional - filter events to this name
	Where    []string // attribute filters, key=value
	From     time.Duration
	To       time.Duration
	Limit    int

	// Now is the reference for relative times (for testing).
	Now func() time.Time
}

// RunEntry is one recorded run with its event totals.
type RunEntry struct {
	ir.Run
	Events  int       `json:"events"`
	LastSeq int64     `json:"last_seq"`
	First   time.Time `json:"first,omitzero"`
	Last    time.Time `json:"last,omitzero"`
}

// RunHistory is the listing of all runs.
type RunHistory struct {
	Runs []RunEntry `json:"runs"`
}

// RunDetail is one run and its events.
type RunDetail struct {
	Run    ir.Run     `json:"run"`
	Events []ir.Event `json:"events"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return newHistoryCommand(&HistoryOptions{RootOptions: rootOpts})
}

func newHistoryCommand(opts *HistoryOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs or show one run's events",
		Long: `Query runs recorded with generate --db.

Without a run ID, lists every run with its timeline, origin and event
count. With a run ID, shows that run's events in firing order, optionally
filtered by name, attribute (--where key=value, repeatable) and offset
range [--from, --to).

Examples:
  timeweave history --db ./runs.db
  timeweave history --db ./runs.db 0192f0c4-7a52-7b8e-9d0c-5a1b2c3d4e5f
  timeweave history --db ./runs.db 0192f0c4-... --name standup --format json
  timeweave history --db ./runs.db 0192f0c4-... --where room=blue --from 24h`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runHistoryDetail(opts, args[0], cmd)
			}
			return runHistoryList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Name, "name", "", "only show events with this name")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "only show events whose attribute matches key=value (repeatable)")
	cmd.Flags().DurationVar(&opts.From, "from", 0, "only show events at or after this offset")
	cmd.Flags().DurationVar(&opts.To, "to", 0, "only show events before this offset (0 = no bound)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many events (0 = all)")

	return cmd
}

// openHistory opens an existing database. store.Open would create a
// missing one, which is never what a query wants.
func openHistory(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
		}
		return nil, WrapExitError(ExitCommandError, "cannot read database", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runHistoryList(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openHistory(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	history := RunHistory{Runs: make([]RunEntry, 0, len(runs))}
	for _, run := range runs {
		stats, err := st.ReadRunStats(ctx, run.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run stats", err)
		}
		history.Runs = append(history.Runs, RunEntry{
			Run:     run,
			Events:  stats.Events,
			LastSeq: stats.LastSeq,
			First:   stats.First,
			Last:    stats.Last,
		})
	}

	if formatter.IsJSON() {
		return formatter.Success(history)
	}

	w := formatter.Writer
	if len(history.Runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	now := time.Now()
	if opts.Now != nil {
		now = opts.Now()
	}
	rows := make([][]string, 0, len(history.Runs))
	for _, r := range history.Runs {
		rows = append(rows, []string{
			r.ID,
			r.Timeline,
			formatWhen(r.Origin, now),
			formatCount(r.Events),
			strconv.FormatFloat(r.Stretch, 'g', -1, 64),
			strconv.FormatUint(r.Seed, 10),
		})
	}
	if err := writeTable(w, []string{"RUN", "TIMELINE", "ORIGIN", "EVENTS", "STRETCH", "SEED"}, rows); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s %s\n", formatCount(len(history.Runs)), plural(len(history.Runs), "run", "runs"))
	return nil
}

func runHistoryDetail(opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openHistory(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		_ = formatter.Error(ErrCodeCommand, fmt.Sprintf("run not found: %s", runID), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	query, err := opts.eventQuery(runID)
	if err != nil {
		_ = formatter.Error(ErrCodeCommand, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid event filter", err)
	}
	stmt, params, err := querysql.NewSQLCompiler().Compile(query)
	if err != nil {
		_ = formatter.Error(ErrCodeCommand, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid event filter", err)
	}
	events, err := st.QueryEvents(ctx, stmt, params...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	if formatter.IsJSON() {
		return formatter.Success(RunDetail{Run: run, Events: events})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "  Timeline: %s (%s)\n", run.Timeline, shortHash(run.DefinitionHash))
	fmt.Fprintf(w, "  Origin:   %s\n", run.Origin.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "  Stretch:  %g  Seed: %d  Engine: %s\n\n", run.Stretch, run.Seed, run.EngineVersion)

	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []string{
			strconv.FormatInt(ev.Seq, 10),
			ev.At.UTC().Format(time.RFC3339),
			"+" + ev.Offset.String(),
			ev.Name,
			ir.Format(ev.Attrs),
		})
	}
	if err := writeTable(w, []string{"SEQ", "AT", "OFFSET", "NAME", "ATTRS"}, rows); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s %s\n", formatCount(len(events)), plural(len(events), "event", "events"))
	return nil
}

// eventQuery builds the event filter from the detail flags.
func (opts *HistoryOptions) eventQuery(runID string) (queryir.Select, error) {
	attrs, err := queryir.ParseWheres(opts.Where)
	if err != nil {
		return queryir.Select{}, err
	}

	var name, offsets queryir.Predicate
	if opts.Name != "" {
		name = queryir.NameEquals{Name: opts.Name}
	}
	if opts.From != 0 || opts.To != 0 {
		offsets = queryir.OffsetRange{From: opts.From, To: opts.To}
	}
	return queryir.Select{
		RunID:  runID,
		Filter: queryir.Where(name, attrs, offsets),
		Limit:  opts.Limit,
	}, nil
}
