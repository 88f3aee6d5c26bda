package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const dayYAML = `timeline:
  name: day
  kind: concurrent
  duration: 24h
  vars: {room: blue}
  children:
    - {name: standup, offset: 9h, attrs: {room: $room}}
    - {name: lunch, offset: 12h}
    - {name: retro, offset: 16h}
`

// brokenYAML has an unnamed event and an offset under a sequential parent.
const brokenYAML = `timeline:
  name: broken
  kind: sequential
  duration: 1h
  children:
    - kind: event
    - name: late
      offset: 2h
`

const tightYAML = `timeline:
  name: tight
  kind: sequential
  duration: 1h
  children:
    - name: block
      kind: sequential
      duration: 2h
`

const missingVarYAML = `timeline:
  name: oops
  children:
    - {name: greet, attrs: {who: $nobody}}
`

var testOrigin = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

// memFs returns an in-memory filesystem holding files.
func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

// definitionsFs holds every test definition under defs/.
func definitionsFs(t *testing.T) afero.Fs {
	return memFs(t, map[string]string{
		"defs/day.yaml":     dayYAML,
		"defs/broken.yaml":  brokenYAML,
		"defs/tight.yaml":   tightYAML,
		"defs/missing.yaml": missingVarYAML,
	})
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(opts *RootOptions, path, content string) error {
	return afero.WriteFile(opts.Fs, path, []byte(content), 0o644)
}
