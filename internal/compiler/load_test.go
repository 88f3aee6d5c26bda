package compiler

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "defs/week.yaml", []byte(weekYAML), 0o644))
	require.NoError(t, afero.WriteFile(fs, "defs/week.yml", []byte(weekYAML), 0o644))
	require.NoError(t, afero.WriteFile(fs, "defs/week.cue", []byte(weekCUE), 0o644))
	require.NoError(t, afero.WriteFile(fs, "defs/week.json", []byte(`{}`), 0o644))

	for _, path := range []string{"defs/week.yaml", "defs/week.yml", "defs/week.cue"} {
		t.Run(path, func(t *testing.T) {
			doc, err := Load(fs, path)
			require.NoError(t, err)
			assert.Equal(t, path, doc.File)
			assert.Equal(t, "week", doc.Name())
			assert.Empty(t, doc.Validate())
		})
	}

	_, err := Load(fs, "defs/week.json")
	assert.ErrorContains(t, err, "unsupported definition format")

	_, err = Load(fs, "defs/missing.yaml")
	assert.Error(t, err)
}

func TestLoad_SyntaxErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte("timeline: [unclosed\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "bad.cue", []byte("timeline: {\n\tname: \n"), 0o644))

	for _, path := range []string{"bad.yaml", "bad.cue"} {
		t.Run(path, func(t *testing.T) {
			_, err := Load(fs, path)
			require.Error(t, err)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, ErrSyntax, ce.Code)
		})
	}
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"timeline", "children", "2", "name"}, splitPath("timeline.children[2].name"))
	assert.Equal(t, "timeline.children", parentPath("timeline.children[2]"))
	assert.Equal(t, "timeline", parentPath("timeline.children"))
	assert.Equal(t, "", parentPath("timeline"))
}
