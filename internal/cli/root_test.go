package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "timeweave", cmd.Use)
	assert.Contains(t, cmd.Long, "TIMEWEAVE_*")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"generate", "validate", "inspect", "history", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestGenerateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	genCmd, _, err := cmd.Find([]string{"generate"})
	require.NoError(t, err)

	defaults := map[string]string{
		"origin":   "now",
		"seed":     "0",
		"stretch":  "1",
		"limit":    "0",
		"db":       "",
		"realtime": "false",
	}
	for name, def := range defaults {
		flag := genCmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, def, flag.DefValue, name)
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	_, err := execute(t, cmd, "--format", "invalid", "validate", "x.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// probe adds a subcommand that records the flag values it ran with.
func probe(root *cobra.Command) map[string]string {
	seen := map[string]string{}
	cmd := &cobra.Command{
		Use: "probe",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range []string{"format", "seed", "db"} {
				seen[name] = cmd.Flags().Lookup(name).Value.String()
			}
			return nil
		},
	}
	cmd.Flags().Uint64("seed", 0, "")
	cmd.Flags().String("db", "", "")
	root.AddCommand(cmd)
	return seen
}

func TestConfig_EnvFillsUnsetFlags(t *testing.T) {
	t.Setenv("TIMEWEAVE_SEED", "42")
	t.Setenv("TIMEWEAVE_FORMAT", "json")

	root := NewRootCommand()
	seen := probe(root)

	_, err := execute(t, root, "probe", "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "42", seen["seed"])
	assert.Equal(t, "text", seen["format"], "command line wins over env")
}

func TestConfig_File(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "timeweave.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("seed: 7\ndb: runs.db\n"), 0o644))
	t.Setenv("TIMEWEAVE_SEED", "9")

	root := NewRootCommand()
	seen := probe(root)

	_, err := execute(t, root, "--config", cfg, "probe")
	require.NoError(t, err)
	assert.Equal(t, "9", seen["seed"], "env wins over config file")
	assert.Equal(t, "runs.db", seen["db"])
}

func TestConfig_BadFile(t *testing.T) {
	root := NewRootCommand()
	probe(root)

	_, err := execute(t, root, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "probe")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestConfig_BadValue(t *testing.T) {
	t.Setenv("TIMEWEAVE_SEED", "many")

	root := NewRootCommand()
	probe(root)

	_, err := execute(t, root, "probe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed")
}
