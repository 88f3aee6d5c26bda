package queryir

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/timeweave/internal/ir"
)

// ParseWhere parses a key=value filter into an AttrEquals. The value is
// read as a YAML scalar, so `count=3` matches the integer 3, `ok=true`
// the boolean and `count="3"` the string.
func ParseWhere(expr string) (AttrEquals, error) {
	key, raw, ok := strings.Cut(expr, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return AttrEquals{}, fmt.Errorf("filter %q: expected key=value", expr)
	}

	var decoded any
	if err := yaml.Unmarshal([]byte(raw), &decoded); err != nil {
		return AttrEquals{}, fmt.Errorf("filter %q: %w", expr, err)
	}
	if decoded == nil {
		return AttrEquals{}, fmt.Errorf("filter %q: missing value", expr)
	}
	val, err := ir.FromAny(decoded)
	if err != nil {
		return AttrEquals{}, fmt.Errorf("filter %q: %w", expr, err)
	}
	switch val.(type) {
	case ir.String, ir.Int, ir.Bool:
	default:
		return AttrEquals{}, fmt.Errorf("filter %q: value must be a string, integer or boolean", expr)
	}
	return AttrEquals{Key: key, Value: val}, nil
}

// ParseWheres parses each filter and joins them with Where.
func ParseWheres(exprs []string) (Predicate, error) {
	preds := make([]Predicate, 0, len(exprs))
	for _, expr := range exprs {
		p, err := ParseWhere(expr)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return Where(preds...), nil
}
