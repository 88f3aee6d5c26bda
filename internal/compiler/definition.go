package compiler

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/roach88/timeweave/internal/distribution"
	"github.com/roach88/timeweave/internal/ir"
	"github.com/roach88/timeweave/internal/timeline"
)

// File is the top level of a definition source.
type File struct {
	Timeline *Definition `json:"timeline" yaml:"timeline"`
}

// Definition describes one timeline node. The same shape is decoded from
// CUE and YAML.
type Definition struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Kind is "event", "sequential" or "concurrent". Left empty, nodes with
	// children are sequential and nodes without are events.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Duration is the span of a composite. On an event it is the span of
	// each repetition and requires Repeat.
	Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`

	// Offset places the node inside a concurrent parent.
	Offset string `json:"offset,omitempty" yaml:"offset,omitempty"`

	// Distribution places events inside their windows; see
	// distribution.Parse. Composites pass theirs down.
	Distribution string `json:"distribution,omitempty" yaml:"distribution,omitempty"`

	// Repeat lays the node out this many times back to back, each copy in a
	// slot of Duration.
	Repeat *int `json:"repeat,omitempty" yaml:"repeat,omitempty"`

	// Parallel runs this many copies of the node side by side.
	Parallel *int `json:"parallel,omitempty" yaml:"parallel,omitempty"`

	// Vars are bound in the node's scope frame.
	Vars map[string]any `json:"vars,omitempty" yaml:"vars,omitempty"`

	// Attrs are the fields of the record an event emits.
	Attrs map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`

	Children []*Definition `json:"children,omitempty" yaml:"children,omitempty"`
}

// ResolvedKind applies the default kind.
func (d *Definition) ResolvedKind() timeline.Kind {
	switch d.Kind {
	case "event":
		return timeline.KindLeaf
	case "sequential":
		return timeline.KindSequential
	case "concurrent":
		return timeline.KindConcurrent
	case "":
		if len(d.Children) > 0 {
			return timeline.KindSequential
		}
		return timeline.KindLeaf
	default:
		return 0
	}
}

// validate checks d and its subtree, appending every problem to errs.
func validate(d *Definition, path string, parent timeline.Kind, errs []*CompileError) []*CompileError {
	add := func(field, code, format string, args ...any) {
		p := path
		if field != "" {
			p += "." + field
		}
		errs = append(errs, &CompileError{Path: p, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	kind := d.ResolvedKind()
	if kind == 0 {
		add("kind", ErrInvalidKind, "unknown kind %q (want event, sequential or concurrent)", d.Kind)
	}

	if _, err := ParseDuration(d.Duration); err != nil {
		add("duration", ErrInvalidDuration, "%v", err)
	}
	if d.Offset != "" {
		if parent != timeline.KindConcurrent {
			add("offset", ErrMisplacedOffset, "offset is only allowed inside a concurrent window")
		} else if _, err := ParseDuration(d.Offset); err != nil {
			add("offset", ErrInvalidDuration, "%v", err)
		}
	}
	if d.Repeat != nil && *d.Repeat < 0 {
		add("repeat", ErrInvalidFactor, "repeat must not be negative, got %d", *d.Repeat)
	}
	if span, err := ParseDuration(d.Duration); err == nil && span > 0 && d.Repeat != nil &&
		time.Duration(*d.Repeat) > math.MaxInt64/span {
		add("repeat", ErrInvalidFactor, "repeating %s %d times overflows", span, *d.Repeat)
	}
	if d.Parallel != nil && *d.Parallel < 0 {
		add("parallel", ErrInvalidFactor, "parallel must not be negative, got %d", *d.Parallel)
	}
	if err := distribution.Validate(d.Distribution); err != nil {
		add("distribution", ErrInvalidDistribution, "%v", err)
	}
	for _, k := range sortedKeys(d.Vars) {
		if err := checkValue(d.Vars[k]); err != nil {
			add("vars."+k, ErrInvalidValue, "%v", err)
		}
	}

	if kind == timeline.KindLeaf {
		if d.Name == "" {
			add("name", ErrMissingName, "events must be named")
		}
		if len(d.Children) > 0 {
			add("children", ErrEventChildren, "events cannot have children")
		}
		if d.Duration != "" && d.Repeat == nil {
			add("duration", ErrEventDuration, "an event duration is the span of each repetition and needs repeat")
		}
		for _, k := range sortedKeys(d.Attrs) {
			if err := checkValue(d.Attrs[k]); err != nil {
				add("attrs."+k, ErrInvalidValue, "%v", err)
			}
		}
	} else if len(d.Attrs) > 0 {
		add("attrs", ErrInvalidValue, "only events carry attrs")
	}

	for i, c := range d.Children {
		childPath := fmt.Sprintf("%s.children[%d]", path, i)
		if c == nil {
			errs = append(errs, &CompileError{Path: childPath, Code: ErrInvalidKind, Message: "empty child"})
			continue
		}
		errs = validate(c, childPath, kind, errs)
	}
	return errs
}

// checkValue reports whether v converts into the value model. Nulls are
// rejected: they have no canonical form in event records.
func checkValue(v any) error {
	val, err := ir.FromAny(v)
	if err != nil {
		return err
	}
	return rejectNull(val)
}

func rejectNull(v ir.Value) error {
	switch x := v.(type) {
	case ir.Null:
		return fmt.Errorf("null is not allowed")
	case ir.Array:
		for _, e := range x {
			if err := rejectNull(e); err != nil {
				return err
			}
		}
	case ir.Object:
		for _, e := range x {
			if err := rejectNull(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// toObject converts a validated map.
func toObject(m map[string]any) (ir.Object, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return ir.ObjectFromAny(m)
}

// Value renders d in the value model, for hashing.
func (d *Definition) Value() (ir.Object, error) {
	out := ir.Object{
		"name":         ir.String(d.Name),
		"kind":         ir.String(d.ResolvedKind().String()),
		"duration":     ir.String(d.Duration),
		"offset":       ir.String(d.Offset),
		"distribution": ir.String(d.Distribution),
	}
	if d.Repeat != nil {
		out["repeat"] = ir.Int(*d.Repeat)
	}
	if d.Parallel != nil {
		out["parallel"] = ir.Int(*d.Parallel)
	}
	vars, err := toObject(d.Vars)
	if err != nil {
		return nil, fmt.Errorf("vars: %w", err)
	}
	if vars != nil {
		out["vars"] = vars
	}
	attrs, err := toObject(d.Attrs)
	if err != nil {
		return nil, fmt.Errorf("attrs: %w", err)
	}
	if attrs != nil {
		out["attrs"] = attrs
	}
	if len(d.Children) > 0 {
		children := make(ir.Array, 0, len(d.Children))
		for _, c := range d.Children {
			if c == nil {
				continue
			}
			v, err := c.Value()
			if err != nil {
				return nil, err
			}
			children = append(children, v)
		}
		out["children"] = children
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
