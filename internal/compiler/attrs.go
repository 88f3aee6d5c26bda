package compiler

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/timeweave/internal/engine"
	"github.com/roach88/timeweave/internal/ir"
	"github.com/roach88/timeweave/internal/scope"
	"github.com/roach88/timeweave/internal/timeline"
)

// emitter is the action of a compiled event: resolve attrs against the
// leaf's scope and emit the result.
func emitter(attrs ir.Object) timeline.Action {
	return func(ctx context.Context, s *scope.Scope) error {
		rec, err := resolveObject(attrs, s)
		if err != nil {
			return err
		}
		return engine.Emit(ctx, rec)
	}
}

func resolveObject(obj ir.Object, s *scope.Scope) (ir.Object, error) {
	out := make(ir.Object, len(obj))
	for _, k := range obj.SortedKeys() {
		v, err := resolve(obj[k], s)
		if err != nil {
			return nil, fmt.Errorf("attr %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// resolve substitutes "$name" references. "$$" is a literal "$".
func resolve(v ir.Value, s *scope.Scope) (ir.Value, error) {
	switch x := v.(type) {
	case ir.String:
		str := string(x)
		if strings.HasPrefix(str, "$$") {
			return ir.String(str[1:]), nil
		}
		if name, ok := strings.CutPrefix(str, "$"); ok && name != "" {
			return s.Read(name)
		}
		return x, nil
	case ir.Array:
		out := make(ir.Array, len(x))
		for i, e := range x {
			r, err := resolve(e, s)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case ir.Object:
		return resolveObject(x, s)
	default:
		return v, nil
	}
}
