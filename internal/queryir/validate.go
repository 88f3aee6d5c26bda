package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/timeweave/internal/ir"
)

// ValidationResult lists the problems found in a query.
type ValidationResult struct {
	Valid    bool
	Problems []string
}

// Err folds the problems into a single error, or nil when valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("invalid query: %s", strings.Join(r.Problems, "; "))
}

// Validate checks a query before it is compiled. It is a pure function.
//
// A valid query names a run, has a non-negative limit and only uses
// predicates whose values the store can compare: non-empty attribute
// keys, scalar attribute values and ordered offset ranges.
func Validate(query Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(query)
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(query Query) {
	switch q := query.(type) {
	case Select:
		v.validateSelect(q)
	case *Select:
		if q == nil {
			v.addProblem("nil query")
			return
		}
		v.validateSelect(*q)
	case nil:
		v.addProblem("nil query")
	default:
		v.addProblem("unknown query type %T", query)
	}
}

func (v *validator) validateSelect(s Select) {
	if s.RunID == "" {
		v.addProblem("select requires a run ID")
	}
	if s.Limit < 0 {
		v.addProblem("limit must be >= 0, got %d", s.Limit)
	}
	if s.Filter != nil {
		v.validatePredicate(s.Filter)
	}
}

func (v *validator) validatePredicate(pred Predicate) {
	switch p := pred.(type) {
	case NameEquals:
		v.validateName(p)
	case *NameEquals:
		v.validateName(*p)
	case AttrEquals:
		v.validateAttr(p)
	case *AttrEquals:
		v.validateAttr(*p)
	case OffsetRange:
		v.validateRange(p)
	case *OffsetRange:
		v.validateRange(*p)
	case And:
		v.validateAnd(p)
	case *And:
		v.validateAnd(*p)
	case nil:
		v.addProblem("nil predicate")
	default:
		v.addProblem("unknown predicate type %T", pred)
	}
}

func (v *validator) validateName(p NameEquals) {
	if p.Name == "" {
		v.addProblem("name filter is empty")
	}
}

func (v *validator) validateAttr(p AttrEquals) {
	if p.Key == "" {
		v.addProblem("attribute key is empty")
	}
	if strings.ContainsAny(p.Key, "\"\\") {
		v.addProblem("attribute key %q contains a quote or backslash", p.Key)
	}
	switch p.Value.(type) {
	case ir.String, ir.Int, ir.Bool:
	case nil, ir.Null:
		v.addProblem("attribute %q: null values cannot be matched", p.Key)
	default:
		v.addProblem("attribute %q: only string, integer and boolean values can be matched, got %T", p.Key, p.Value)
	}
}

func (v *validator) validateRange(p OffsetRange) {
	if p.From < 0 {
		v.addProblem("offset range starts before zero: %s", p.From)
	}
	if p.To != 0 && p.To <= p.From {
		v.addProblem("offset range is empty: [%s, %s)", p.From, p.To)
	}
}

func (v *validator) validateAnd(p And) {
	for _, child := range p.Predicates {
		v.validatePredicate(child)
	}
}
