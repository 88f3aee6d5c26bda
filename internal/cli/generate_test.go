package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/timeweave/internal/engine"
	"github.com/roach88/timeweave/internal/ir"
	"github.com/roach88/timeweave/internal/store"
)

func newGenerate(t *testing.T, format string) (*GenerateOptions, func(args ...string) (string, error)) {
	t.Helper()
	opts := &GenerateOptions{
		RootOptions: &RootOptions{Format: format, Fs: definitionsFs(t)},
		RunIDs:      engine.NewFixedGenerator("run-1", "run-2"),
		Now:         func() time.Time { return testOrigin },
	}
	return opts, func(args ...string) (string, error) {
		return execute(t, newGenerateCommand(opts), args...)
	}
}

type generateResponse struct {
	Status string         `json:"status"`
	Data   GenerateResult `json:"data"`
}

func TestGenerate_Text(t *testing.T) {
	_, run := newGenerate(t, "text")

	out, err := run("defs/day.yaml", "--origin", "2026-03-02T00:00:00Z")
	require.NoError(t, err)

	assert.Contains(t, out, "2026-03-02T09:00:00Z")
	assert.Contains(t, out, `standup {"room":"blue"}`)
	assert.Contains(t, out, "lunch {}")
	assert.Contains(t, out, "3 events over 7h0m0s (run run-1)")
	assert.Less(t, strings.Index(out, "standup"), strings.Index(out, "lunch"))
	assert.Less(t, strings.Index(out, "lunch"), strings.Index(out, "retro"))
}

func TestGenerate_JSON(t *testing.T) {
	_, run := newGenerate(t, "json")

	out, err := run("defs/day.yaml", "--origin", "2026-03-02", "--stretch", "2")
	require.NoError(t, err)

	var resp generateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.Data.Run.ID)
	assert.Equal(t, "day", resp.Data.Run.Timeline)
	assert.Equal(t, 2.0, resp.Data.Run.Stretch)
	assert.True(t, resp.Data.Run.Origin.Equal(testOrigin))
	assert.NotEmpty(t, resp.Data.Run.DefinitionHash)
	assert.Equal(t, 3, resp.Data.Moments)
	assert.False(t, resp.Data.Truncated)

	require.Len(t, resp.Data.Events, 3)
	assert.Equal(t, 18*time.Hour, resp.Data.Events[0].Offset)
	assert.Equal(t, 24*time.Hour, resp.Data.Events[1].Offset)
	assert.Equal(t, 32*time.Hour, resp.Data.Events[2].Offset)
	assert.Equal(t, ir.Object{"room": ir.String("blue")}, resp.Data.Events[0].Attrs)
	for i, ev := range resp.Data.Events {
		assert.Equal(t, int64(i+1), ev.Seq)
		assert.True(t, ev.At.Equal(testOrigin.Add(ev.Offset)))
	}
}

func TestGenerate_DefaultOriginIsNow(t *testing.T) {
	_, run := newGenerate(t, "json")

	out, err := run("defs/day.yaml")
	require.NoError(t, err)

	var resp generateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Run.Origin.Equal(testOrigin))
}

func TestGenerate_Limit(t *testing.T) {
	_, run := newGenerate(t, "text")

	out, err := run("defs/day.yaml", "--origin", "2026-03-02", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "2 events over 3h0m0s")
	assert.Contains(t, out, "Stopped at --limit 2")
	assert.NotContains(t, out, "retro")
}

func TestGenerate_RecordsToDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	_, run := newGenerate(t, "text")

	out, err := run("defs/day.yaml", "--origin", "2026-03-02", "--db", dbPath, "--seed", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded in "+dbPath)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	recorded, err := st.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "day", recorded.Timeline)
	assert.Equal(t, uint64(5), recorded.Seed)

	events, err := st.ReadEvents(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "standup", events[0].Name)
}

func TestGenerate_Realtime(t *testing.T) {
	_, run := newGenerate(t, "text")

	// Every moment is in the past, so the paced run does not wait.
	out, err := run("defs/day.yaml", "--origin", "2026-03-02", "--realtime")
	require.NoError(t, err)
	assert.Contains(t, out, "3 events")
}

func TestGenerate_Cancelled(t *testing.T) {
	opts, _ := newGenerate(t, "text")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newGenerateCommand(opts)
	cmd.SetContext(ctx)
	out, err := execute(t, cmd, "defs/day.yaml", "--origin", "2026-03-02")
	require.NoError(t, err)
	assert.Contains(t, out, "0 events")
	assert.Contains(t, out, "Interrupted")
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{"missing file", []string{"defs/none.yaml"}, ExitCommandError, "", "definition not found"},
		{"bad origin", []string{"defs/day.yaml", "--origin", "yesterday"}, ExitCommandError, "", "invalid origin"},
		{"bad stretch", []string{"defs/day.yaml", "--stretch", "0"}, ExitCommandError, "", "failed to schedule"},
		{"NaN stretch", []string{"defs/day.yaml", "--stretch", "NaN"}, ExitCommandError, "", "failed to schedule"},
		{"infinite stretch", []string{"defs/day.yaml", "--stretch", "+Inf"}, ExitCommandError, "", "failed to schedule"},
		{"overflowing stretch", []string{"defs/day.yaml", "--stretch", "1e9"}, ExitCommandError, "", "failed to schedule"},
		{"negative limit", []string{"defs/day.yaml", "--limit", "-1"}, ExitCommandError, "", "--limit"},
		{"invalid definition", []string{"defs/broken.yaml"}, ExitFailure, "[E207] timeline.children[0].name", "2 problems"},
		{"window exceeded", []string{"defs/tight.yaml"}, ExitFailure, "[E210]", "1 problem"},
		{"action error", []string{"defs/missing.yaml"}, ExitFailure, "Error [E_RUN]", "run failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, run := newGenerate(t, "text")
			out, err := run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, out, tt.wantOut)
		})
	}
}
