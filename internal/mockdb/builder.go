package mockdb

import "context"

// Builder accumulates a Query against one table. Every method returns the
// builder itself for chaining; nothing runs until Exec.
type Builder struct {
	store *Store
	q     Query
}

// SelectOption configures Select.
type SelectOption func(*Query)

// WithCount requests the total row count before range slicing.
func WithCount() SelectOption {
	return func(q *Query) {
		q.Count = true
	}
}

// From starts a query against table.
func (s *Store) From(table string) *Builder {
	return &Builder{store: s, q: Query{Table: table}}
}

// Select marks the result for join expansion. columns is informational.
func (b *Builder) Select(columns string, opts ...SelectOption) *Builder {
	b.q.Selected = true
	b.q.Columns = columns
	for _, opt := range opts {
		opt(&b.q)
	}
	return b
}

// Eq keeps rows where field loosely equals value.
func (b *Builder) Eq(field string, value any) *Builder {
	b.q.Filters = append(b.q.Filters, EqFilter(field, value))
	return b
}

// Or keeps rows matching any condition of expr, in the
// "field.op.value,field.op.value" syntax accepted by ParseOr.
func (b *Builder) Or(expr string) *Builder {
	f, ok := ParseOr(expr)
	if !ok {
		b.store.logger.Debug("Ignoring unparsable or filter", "table", b.q.Table, "expr", expr)
		return b
	}
	b.q.Filters = append(b.q.Filters, f)
	return b
}

// Order sorts by field. Later calls take precedence over earlier ones.
func (b *Builder) Order(field string, ascending bool) *Builder {
	b.q.Sorts = append(b.q.Sorts, Sort{Field: field, Ascending: ascending})
	return b
}

// Range limits the result to rows from through to, inclusive.
func (b *Builder) Range(from, to int) *Builder {
	b.q.Range = &Range{From: from, To: to}
	return b
}

// Single requests exactly one row; an empty result is an error.
func (b *Builder) Single() *Builder {
	b.q.Shape = ShapeSingle
	return b
}

// MaybeSingle requests at most one row; an empty result is not an error.
func (b *Builder) MaybeSingle() *Builder {
	b.q.Shape = ShapeMaybeSingle
	return b
}

// Insert sets the pending mutation to inserting rows.
func (b *Builder) Insert(rows ...Record) *Builder {
	b.q.Mutation = Mutation{Kind: MutationInsert, Rows: cloneRecords(rows)}
	return b
}

// Update sets the pending mutation to merging values into the matched rows.
func (b *Builder) Update(values Record) *Builder {
	b.q.Mutation = Mutation{Kind: MutationUpdate, Values: values.Clone()}
	return b
}

// Delete sets the pending mutation to removing the matched rows.
func (b *Builder) Delete() *Builder {
	b.q.Mutation = Mutation{Kind: MutationDelete}
	return b
}

// Query returns the accumulated description.
func (b *Builder) Query() Query {
	return b.q
}

// Exec resolves the query. Executing a builder twice repeats its mutation.
func (b *Builder) Exec(ctx context.Context) (*Result, error) {
	return b.store.Execute(ctx, b.q)
}
