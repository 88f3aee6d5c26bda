// Package querysql lowers queryir event queries to parameterized SQLite.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/timeweave/internal/ir"
	"github.com/roach88/timeweave/internal/queryir"
	"github.com/roach88/timeweave/internal/store"
)

// SQLCompiler compiles event queries to SQL for the run store.
//
// Every statement orders by (seq, id COLLATE BINARY) and every value is
// bound as a parameter.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile validates q and converts it to (sql, params). The statement
// selects store.EventColumns, so its rows can be passed to
// store.QueryEvents.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if err := queryir.Validate(q).Err(); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	where := "run_id = ?"
	params := []any{q.RunID}

	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where += " AND " + filterSQL
		params = append(params, filterParams...)
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + store.EventColumns + " FROM events WHERE " + where)
	sb.WriteString(" ORDER BY seq ASC, id COLLATE BINARY ASC")
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}
	return sb.String(), params, nil
}

// compilePredicate returns a parenthesis-safe WHERE fragment and its
// parameters.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.NameEquals:
		return "name = ?", []any{pred.Name}, nil
	case *queryir.NameEquals:
		return "name = ?", []any{pred.Name}, nil
	case queryir.AttrEquals:
		return c.compileAttr(pred)
	case *queryir.AttrEquals:
		return c.compileAttr(*pred)
	case queryir.OffsetRange:
		return c.compileRange(pred)
	case *queryir.OffsetRange:
		return c.compileRange(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileAttr matches with json_extract. SQLite returns JSON strings as
// TEXT, integers as INTEGER and booleans as 1 or 0, and the comparison
// never coerces between storage classes.
func (c *SQLCompiler) compileAttr(p queryir.AttrEquals) (string, []any, error) {
	var value any
	switch v := p.Value.(type) {
	case ir.String:
		value = string(v)
	case ir.Int:
		value = int64(v)
	case ir.Bool:
		if v {
			value = int64(1)
		} else {
			value = int64(0)
		}
	default:
		return "", nil, fmt.Errorf("attribute %q: unsupported value type %T", p.Key, p.Value)
	}

	if _, isBool := p.Value.(ir.Bool); isBool {
		return "(json_type(attrs, ?) IN ('true', 'false') AND json_extract(attrs, ?) = ?)",
			[]any{attrPath(p.Key), attrPath(p.Key), value}, nil
	}
	return "(json_type(attrs, ?) = ? AND json_extract(attrs, ?) = ?)",
		[]any{attrPath(p.Key), jsonType(p.Value), attrPath(p.Key), value}, nil
}

func (c *SQLCompiler) compileRange(p queryir.OffsetRange) (string, []any, error) {
	if p.To == 0 {
		return "offset_ns >= ?", []any{int64(p.From)}, nil
	}
	return "(offset_ns >= ? AND offset_ns < ?)", []any{int64(p.From), int64(p.To)}, nil
}

func (c *SQLCompiler) compileAnd(p queryir.And) (string, []any, error) {
	if len(p.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(p.Predicates))
	var params []any
	for i, child := range p.Predicates {
		sql, childParams, err := c.compilePredicate(child)
		if err != nil {
			return "", nil, fmt.Errorf("and[%d]: %w", i, err)
		}
		parts = append(parts, sql)
		params = append(params, childParams...)
	}
	if len(parts) == 1 {
		return parts[0], params, nil
	}
	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}

// attrPath is the JSON path of a top-level key. Validate rejects keys
// holding quotes or backslashes.
func attrPath(key string) string {
	return `$."` + key + `"`
}

func jsonType(v ir.Value) string {
	if _, ok := v.(ir.String); ok {
		return "text"
	}
	return "integer"
}
