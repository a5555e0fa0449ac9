package mockdb

import (
	"regexp"
	"slices"
	"strings"
)

// FilterOp is a comparison applied by a Condition.
type FilterOp string

// Supported operators.
const (
	// OpEq is loose equality.
	OpEq FilterOp = "eq"
	// OpLike is a case-sensitive LIKE pattern.
	OpLike FilterOp = "like"
	// OpILike is a case-insensitive LIKE pattern.
	OpILike FilterOp = "ilike"
)

// Condition is a predicate over a single field.
type Condition struct {
	Field string
	Op    FilterOp
	Value any

	re *regexp.Regexp
}

// Filter is a disjunction of conditions. A row passes when any condition
// holds. Filters on a Query are combined conjunctively.
type Filter struct {
	Any []Condition
}

// Sort is one sort key.
type Sort struct {
	Field     string
	Ascending bool
}

// Range holds inclusive row bounds.
type Range struct {
	From int
	To   int
}

// Shape selects how the working set is returned.
type Shape int

const (
	// ShapeMany returns every row in range.
	ShapeMany Shape = iota
	// ShapeSingle returns the first row, or a row not found error.
	ShapeSingle
	// ShapeMaybeSingle returns the first row, or nothing.
	ShapeMaybeSingle
)

// MutationKind is the kind of a pending write.
type MutationKind int

const (
	// MutationNone is a read.
	MutationNone MutationKind = iota
	// MutationInsert appends Rows.
	MutationInsert
	// MutationUpdate merges Values into every matched row.
	MutationUpdate
	// MutationDelete removes every matched row.
	MutationDelete
)

func (k MutationKind) String() string {
	switch k {
	case MutationInsert:
		return "insert"
	case MutationUpdate:
		return "update"
	case MutationDelete:
		return "delete"
	default:
		return "none"
	}
}

// Mutation is a pending write.
type Mutation struct {
	Kind   MutationKind
	Rows   []Record
	Values Record
}

// Query is the plain description accumulated by a Builder.
type Query struct {
	Table string
	// Selected requests join expansion.
	Selected bool
	// Columns is kept for logging; every column is always returned.
	Columns string
	// Count requests the total before range slicing.
	Count    bool
	Filters  []Filter
	Sorts    []Sort
	Range    *Range
	Shape    Shape
	Mutation Mutation
}

// EqFilter returns a filter keeping rows where field loosely equals value.
func EqFilter(field string, value any) Filter {
	return Filter{Any: []Condition{{Field: field, Op: OpEq, Value: value}}}
}

// ParseOr parses a comma separated list of "field.op.value" conditions, for
// example "title.ilike.%grid%,content.ilike.%grid%".
//
// Conditions that do not parse are skipped; ok is false when none parsed.
func ParseOr(expr string) (f Filter, ok bool) {
	for part := range strings.SplitSeq(expr, ",") {
		field, rest, found := strings.Cut(strings.TrimSpace(part), ".")
		if !found || field == "" {
			continue
		}
		op, value, found := strings.Cut(rest, ".")
		if !found {
			continue
		}
		c := Condition{Field: field, Op: FilterOp(op), Value: value}
		switch c.Op {
		case OpEq:
		case OpLike:
			c.re = likePattern(value, false)
		case OpILike:
			c.re = likePattern(value, true)
		default:
			continue
		}
		f.Any = append(f.Any, c)
	}
	return f, len(f.Any) != 0
}

func (c *Condition) matches(r Record) bool {
	v, ok := r[c.Field]
	switch c.Op {
	case OpEq:
		return looseEqual(v, c.Value)
	case OpLike, OpILike:
		if !ok || v == nil {
			return false
		}
		re := c.re
		if re == nil {
			re = likePattern(toString(c.Value), c.Op == OpILike)
		}
		return re.MatchString(toString(v))
	default:
		return false
	}
}

func (f *Filter) matches(r Record) bool {
	for i := range f.Any {
		if f.Any[i].matches(r) {
			return true
		}
	}
	return false
}

// matchesFilters checks if a record matches all filters.
func matchesFilters(r Record, filters []Filter) bool {
	for i := range filters {
		if !filters[i].matches(r) {
			return false
		}
	}
	return true
}

// sortIndexes orders idx, positions into rows, by each sort key in turn.
//
// Every key is a separate stable sort, so the last declared key is primary
// and earlier keys only break its ties.
func sortIndexes(rows []Record, idx []int, sorts []Sort) {
	for _, s := range sorts {
		slices.SortStableFunc(idx, func(a, b int) int {
			c := compareValues(rows[a][s.Field], rows[b][s.Field])
			if !s.Ascending {
				return -c
			}
			return c
		})
	}
}

// clip returns the bounds of r within n rows.
func (r *Range) clip(n int) (int, int) {
	from := max(r.From, 0)
	to := min(r.To+1, n)
	if from >= to {
		return 0, 0
	}
	return from, to
}
