package pgsource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Select describes a single-table query as data. Table, Columns and OrderBy
// are rendered as quoted identifiers.
type Select struct {
	Table   string      `yaml:"table"`
	Columns []string    `yaml:"columns"`
	Where   []Condition `yaml:"where"`
	OrderBy []Order     `yaml:"order_by"`
	Limit   int         `yaml:"limit"`
	Offset  int         `yaml:"offset"`
}

// Condition is one predicate using ? placeholders. Multiple conditions are
// parenthesized and joined with AND.
type Condition struct {
	SQL  string        `yaml:"sql"`
	Args []interface{} `yaml:"args"`
}

// Order sorts by one column. When the Select lists Columns, Column must be
// one of them.
type Order struct {
	Column string `yaml:"column"`
	Desc   bool   `yaml:"desc"`
}

var (
	errNoTable     = errors.New("select has no table")
	errEmptyIdent  = errors.New("empty identifier")
	errOrderColumn = errors.New("order by column is not selected")
)

// quoteQualified quotes each dot separated part of a possibly schema
// qualified name.
func quoteQualified(name string) (string, error) {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "" {
			return "", fmt.Errorf("%w in %q", errEmptyIdent, name)
		}
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, "."), nil
}

// Build renders s with PostgreSQL $n placeholders and returns its arguments.
// It fails when a condition's placeholder count differs from its argument
// count, or when an order column is outside the selected columns.
func (s *Select) Build() (string, []interface{}, error) {
	if s.Table == "" {
		return "", nil, errNoTable
	}
	table, err := quoteQualified(s.Table)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	selected := make(map[string]bool, len(s.Columns))
	if len(s.Columns) == 0 {
		sb.WriteString("*")
	} else {
		cols := make([]string, len(s.Columns))
		for i, c := range s.Columns {
			if c == "" {
				return "", nil, fmt.Errorf("column %d: %w", i, errEmptyIdent)
			}
			selected[c] = true
			cols[i] = pq.QuoteIdentifier(c)
		}
		sb.WriteString(strings.Join(cols, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(table)

	var args []interface{}
	if len(s.Where) > 0 {
		conds := make([]string, len(s.Where))
		argIndex := 1
		for i, c := range s.Where {
			parts := strings.Split(c.SQL, "?")
			if len(parts)-1 != len(c.Args) {
				return "", nil, fmt.Errorf("condition %q: placeholder count (%d) does not match argument count (%d)", c.SQL, len(parts)-1, len(c.Args))
			}
			var cb strings.Builder
			for j, part := range parts {
				cb.WriteString(part)
				if j < len(parts)-1 {
					fmt.Fprintf(&cb, "$%d", argIndex)
					argIndex++
				}
			}
			if len(s.Where) > 1 {
				conds[i] = "(" + cb.String() + ")"
			} else {
				conds[i] = cb.String()
			}
			args = append(args, c.Args...)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if len(s.OrderBy) > 0 {
		orders := make([]string, len(s.OrderBy))
		for i, o := range s.OrderBy {
			if o.Column == "" {
				return "", nil, fmt.Errorf("order by %d: %w", i, errEmptyIdent)
			}
			if len(selected) > 0 && !selected[o.Column] {
				return "", nil, fmt.Errorf("%w: %q", errOrderColumn, o.Column)
			}
			orders[i] = pq.QuoteIdentifier(o.Column)
			if o.Desc {
				orders[i] += " DESC"
			}
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(orders, ", "))
	}
	if s.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", s.Limit)
	}
	if s.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", s.Offset)
	}
	return sb.String(), args, nil
}
