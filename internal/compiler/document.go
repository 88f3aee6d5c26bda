package compiler

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/roach88/timeweave/internal/ir"
)

// Document is a parsed definition together with where it came from.
type Document struct {
	Timeline *Definition

	// File is the source path, or a label for in-memory sources.
	File string

	// Format is "cue" or "yaml".
	Format string

	locate func(path string) Position
}

// Name is the root timeline's name.
func (d *Document) Name() string {
	if d.Timeline == nil {
		return ""
	}
	return d.Timeline.Name
}

// Validate checks the whole definition and returns every problem found, in
// tree order. Problems carry source positions when the format has them.
func (d *Document) Validate() []*CompileError {
	if d.Timeline == nil {
		return []*CompileError{d.at(&CompileError{
			Path:    "timeline",
			Code:    ErrMissingTimeline,
			Message: "no top-level timeline",
		})}
	}
	errs := validate(d.Timeline, "timeline", 0, nil)
	for _, e := range errs {
		d.at(e)
	}
	return errs
}

// Hash identifies the definition by content, independent of format and
// layout.
func (d *Document) Hash() (string, error) {
	if d.Timeline == nil {
		return "", fmt.Errorf("hash: no timeline")
	}
	v, err := d.Timeline.Value()
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return ir.DefinitionHash(v)
}

// at fills in e's position.
func (d *Document) at(e *CompileError) *CompileError {
	if d.locate != nil && !e.Pos.IsValid() {
		e.Pos = d.locate(e.Path)
	}
	if e.Pos.File == "" {
		e.Pos.File = d.File
	}
	return e
}

// ParseYAML decodes a YAML definition.
func ParseYAML(data []byte, file string) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &CompileError{
			Path:    "timeline",
			Code:    ErrSyntax,
			Message: err.Error(),
			Pos:     Position{File: file},
			Err:     err,
		}
	}

	var f File
	if err := root.Decode(&f); err != nil {
		return nil, &CompileError{
			Path:    "timeline",
			Code:    ErrSyntax,
			Message: err.Error(),
			Pos:     Position{File: file},
			Err:     err,
		}
	}

	return &Document{
		Timeline: f.Timeline,
		File:     file,
		Format:   "yaml",
		locate: func(path string) Position {
			n := yamlLookup(&root, path)
			return Position{File: file, Line: n.Line, Column: n.Column}
		},
	}, nil
}

// ParseCUE decodes a CUE definition. v is the whole file; the definition is
// its "timeline" field.
func ParseCUE(v cue.Value) (*Document, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError("timeline", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError("timeline", err)
	}

	file := v.Pos().Filename()
	if !v.LookupPath(cue.ParsePath("timeline")).Exists() {
		return &Document{File: file, Format: "cue"}, nil
	}

	var f File
	if err := v.Decode(&f); err != nil {
		return nil, formatCUEError("timeline", err)
	}

	return &Document{
		Timeline: f.Timeline,
		File:     file,
		Format:   "cue",
		locate: func(path string) Position {
			for p := path; p != ""; p = parentPath(p) {
				pos := v.LookupPath(cue.ParsePath(p)).Pos()
				if pos.IsValid() {
					return Position{File: pos.Filename(), Line: pos.Line(), Column: pos.Column()}
				}
			}
			return Position{File: file}
		},
	}, nil
}

// CompileCUEString parses CUE source held in memory.
func CompileCUEString(src, file string) (*Document, error) {
	ctx := cuecontext.New()
	return ParseCUE(ctx.CompileString(src, cue.Filename(file)))
}

// Load reads a definition file from fs, choosing the format by extension:
// .cue, .yaml or .yml.
func Load(fs afero.Fs, path string) (*Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return CompileCUEString(string(data), path)
	case ".yaml", ".yml":
		return ParseYAML(data, path)
	default:
		return nil, fmt.Errorf("unsupported definition format %q (want .cue, .yaml or .yml)", filepath.Ext(path))
	}
}

// parentPath drops the last selector: "a.b[2]" -> "a.b", "a.b" -> "a".
func parentPath(path string) string {
	i := strings.LastIndexAny(path, ".[")
	if i <= 0 {
		return ""
	}
	return path[:i]
}

// yamlLookup follows a definition path through a YAML tree and returns the
// deepest node reached.
func yamlLookup(root *yaml.Node, path string) *yaml.Node {
	n := root
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	for _, seg := range splitPath(path) {
		next := yamlChild(n, seg)
		if next == nil {
			break
		}
		n = next
	}
	return n
}

func yamlChild(n *yaml.Node, seg string) *yaml.Node {
	if idx, err := strconv.Atoi(seg); err == nil {
		if n.Kind == yaml.SequenceNode && idx >= 0 && idx < len(n.Content) {
			return n.Content[idx]
		}
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == seg {
			return n.Content[i+1]
		}
	}
	return nil
}

// splitPath turns "timeline.children[2].name" into
// ["timeline", "children", "2", "name"].
func splitPath(path string) []string {
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)
	return strings.Split(path, ".")
}
