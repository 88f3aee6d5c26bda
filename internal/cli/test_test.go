package cli

import (
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: day_pass
description: three meetings, standup in the blue room
definition: ../defs/day.yaml
origin: 2026-03-02T00:00:00Z
assertions:
  - {type: count, count: 3}
  - {type: contains, name: standup, attrs: {room: blue}}
  - {type: order, names: [standup, lunch, retro]}
`

const failingScenario = `name: day_fail
description: expects too many events
definition: ../defs/day.yaml
origin: 2026-03-02T00:00:00Z
assertions:
  - {type: count, count: 5}
`

func scenariosFs(t *testing.T, files map[string]string) *TestOptions {
	t.Helper()
	all := map[string]string{"defs/day.yaml": dayYAML}
	for k, v := range files {
		all[k] = v
	}
	return &TestOptions{RootOptions: &RootOptions{Format: "text", Fs: memFs(t, all)}}
}

func runTestCommand(t *testing.T, opts *TestOptions, args ...string) (string, error) {
	t.Helper()
	cmd := NewTestCommand(opts.RootOptions)
	return execute(t, cmd, args...)
}

func TestTestCommandMissingArgs(t *testing.T) {
	opts := scenariosFs(t, nil)
	_, err := runTestCommand(t, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	opts := scenariosFs(t, nil)
	_, err := runTestCommand(t, opts, "nowhere")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	opts := scenariosFs(t, nil)
	require.NoError(t, opts.Fs.MkdirAll("empty", 0o755))

	out, err := runTestCommand(t, opts, "empty")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")

	opts.Format = "json"
	out, err = runTestCommand(t, opts, "empty")
	require.NoError(t, err)
	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandPassAndFail(t *testing.T) {
	opts := scenariosFs(t, map[string]string{
		"scenarios/day_pass.yaml": passingScenario,
		"scenarios/day_fail.yaml": failingScenario,
	})

	out, err := runTestCommand(t, opts, "scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ day_pass (3 events)")
	assert.Contains(t, out, "✗ day_fail")
	assert.Contains(t, out, "Expected: 5 events")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	opts := scenariosFs(t, map[string]string{
		"scenarios/day_pass.yaml": passingScenario,
		"scenarios/day_fail.yaml": failingScenario,
	})

	out, err := runTestCommand(t, opts, "scenarios", "--filter", "*_pass")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandJSON(t *testing.T) {
	opts := scenariosFs(t, map[string]string{
		"scenarios/day_pass.yaml": passingScenario,
		"scenarios/day_fail.yaml": failingScenario,
	})
	opts.Format = "json"

	out, err := runTestCommand(t, opts, "scenarios")
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Total)
	require.Len(t, resp.Data.Scenarios, 2)
	// Files run in name order.
	assert.Equal(t, "day_fail", resp.Data.Scenarios[0].Name)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.Equal(t, "day_pass", resp.Data.Scenarios[1].Name)
	assert.Equal(t, 3, resp.Data.Scenarios[1].Events)
}

func TestTestCommandGolden(t *testing.T) {
	opts := scenariosFs(t, map[string]string{"scenarios/day_pass.yaml": passingScenario})

	_, err := runTestCommand(t, opts, "scenarios", "--update")
	require.NoError(t, err)

	golden, err := afero.ReadFile(opts.Fs, "scenarios/golden/day_pass.golden")
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name":"day_pass"`)
	assert.Contains(t, string(golden), `"offset":"9h0m0s"`)

	// The golden directory is not scanned for scenarios.
	out, err := runTestCommand(t, opts, "scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")

	require.NoError(t, afero.WriteFile(opts.Fs, "scenarios/golden/day_pass.golden", []byte(`{}`), 0o644))
	out, err = runTestCommand(t, opts, "scenarios")
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandBrokenScenario(t *testing.T) {
	opts := scenariosFs(t, map[string]string{"scenarios/bad.yaml": "name: [\n"})

	out, err := runTestCommand(t, opts, "scenarios")
	require.Error(t, err)
	assert.Contains(t, out, "✗ bad.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestFindScenarioFiles(t *testing.T) {
	fs := memFs(t, map[string]string{
		"dir/test1.yaml":         "",
		"dir/test2.yml":          "",
		"dir/ignore.txt":         "",
		"dir/sub/nested.yaml":    "",
		"dir/golden/x.yaml":      "",
		"dir/cart-add.yaml":      "",
		"dir/cart-checkout.yaml": "",
	})

	files, err := findScenarioFiles(fs, "dir", "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"dir/cart-add.yaml",
		"dir/cart-checkout.yaml",
		"dir/sub/nested.yaml",
		"dir/test1.yaml",
		"dir/test2.yml",
	}, files)

	files, err = findScenarioFiles(fs, "dir", "cart-*")
	require.NoError(t, err)
	assert.Equal(t, []string{"dir/cart-add.yaml", "dir/cart-checkout.yaml"}, files)

	_, err = findScenarioFiles(fs, "dir", "[")
	assert.ErrorContains(t, err, "invalid filter pattern")
}

func TestGoldenFilePath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"/path/to/scenario.yaml", "/path/to/golden/scenario.golden"},
		{"/path/to/scenario.yml", "/path/to/golden/scenario.golden"},
		{"scenarios/test.yaml", "scenarios/golden/test.golden"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, goldenFilePath(tc.input))
	}
}
