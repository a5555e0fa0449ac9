package mockdb

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/imserv/voltage/internal/errors"
	"github.com/imserv/voltage/internal/localstore"
)

// Table names.
const (
	TableProfiles   = "profiles"
	TableCategories = "categories"
	TablePosts      = "posts"
	TableComments   = "comments"
	TableResources  = "resources"
)

// maxInsertID bounds generated row ids.
const maxInsertID = 1_000_000

// timestampLayout matches JavaScript's Date.prototype.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Result is the resolved value of a Query.
type Result struct {
	// Data holds the rows in range. For Single and MaybeSingle it holds at
	// most one row.
	Data []Record
	// Count is the number of rows before range slicing. Only set when the
	// query asked for it, see HasCount.
	Count    int
	HasCount bool
}

// Row returns the first row, or nil.
func (r *Result) Row() Record {
	if r == nil || len(r.Data) == 0 {
		return nil
	}
	return r.Data[0]
}

// Store owns the tables. Create one with NewStore and pass it to whatever
// needs database access.
type Store struct {
	mu     sync.Mutex
	tables map[string][]Record
	local  localstore.Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() int64
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithClock sets the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator sets the source of generated row ids.
func WithIDGenerator(fn func() int64) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// WithTables replaces the seed fixture. Mostly useful in tests.
func WithTables(tables map[string][]Record) Option {
	return func(s *Store) {
		s.tables = make(map[string][]Record, len(tables))
		for name, rows := range tables {
			s.tables[name] = cloneRecords(rows)
		}
	}
}

// NewStore returns a store seeded with the sample data. local holds the
// comments table.
func NewStore(local localstore.Store, opts ...Option) *Store {
	s := &Store{
		tables: Seed(),
		local:  local,
		logger: slog.Default(),
		now:    time.Now,
		newID:  func() int64 { return rand.Int64N(maxInsertID) }, //nolint:gosec // G404: ids are not secrets
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Local returns the local storage backing the comments table.
func (s *Store) Local() localstore.Store {
	return s.local
}

// Execute resolves q.
//
// The working set is loaded, filtered and sorted; the pending mutation is
// applied and persisted; joins are attached if q.Selected; the total is
// counted; the range is sliced; and the result is shaped.
func (s *Store) Execute(ctx context.Context, q Query) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.load(ctx, q.Table)
	if err != nil {
		return nil, err
	}
	var idx []int
	for i, r := range rows {
		if matchesFilters(r, q.Filters) {
			idx = append(idx, i)
		}
	}
	sortIndexes(rows, idx, q.Sorts)

	var working []Record
	affected := len(idx)
	switch q.Mutation.Kind {
	case MutationNone:
		working = make([]Record, len(idx))
		for i, j := range idx {
			working[i] = rows[j]
		}
	case MutationInsert:
		inserted := s.prepareInsert(q.Mutation.Rows)
		if err := s.persist(ctx, q.Table, append(rows, inserted...)); err != nil {
			return nil, err
		}
		working = cloneRecords(inserted)
		affected = len(inserted)
	case MutationUpdate:
		working = make([]Record, len(idx))
		for i, j := range idx {
			rows[j] = rows[j].Merge(q.Mutation.Values)
			working[i] = rows[j].Clone()
		}
		if err := s.persist(ctx, q.Table, rows); err != nil {
			return nil, err
		}
	case MutationDelete:
		drop := make(map[int]bool, len(idx))
		for _, j := range idx {
			drop[j] = true
		}
		kept := make([]Record, 0, len(rows)-len(idx))
		for i, r := range rows {
			if !drop[i] {
				kept = append(kept, r)
			}
		}
		if err := s.persist(ctx, q.Table, kept); err != nil {
			return nil, err
		}
	}
	if q.Mutation.Kind != MutationNone {
		s.logger.DebugContext(ctx, "Mutation applied", "table", q.Table, "op", q.Mutation.Kind.String(), "rows", affected)
	}

	if q.Selected {
		s.join(q.Table, working)
	}

	total := len(working)
	if q.Range != nil {
		from, to := q.Range.clip(total)
		working = working[from:to]
	}

	switch q.Shape {
	case ShapeSingle:
		if len(working) == 0 {
			return nil, errors.NotFound(q.Table)
		}
		return &Result{Data: working[:1]}, nil
	case ShapeMaybeSingle:
		if len(working) == 0 {
			return &Result{}, nil
		}
		return &Result{Data: working[:1]}, nil
	default:
		if working == nil {
			working = []Record{}
		}
		res := &Result{Data: working}
		if q.Count {
			res.Count = total
			res.HasCount = true
		}
		return res, nil
	}
}

// load returns a deep copy of table's rows. Comments come from local storage.
// Caller must hold s.mu.
func (s *Store) load(ctx context.Context, table string) ([]Record, error) {
	if table == TableComments {
		rows, _, err := localstore.GetJSON[[]Record](ctx, s.local, localstore.KeyComments)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to read comments", "err", err)
			return nil, err
		}
		if rows == nil {
			rows = []Record{}
		}
		return rows, nil
	}
	return cloneRecords(s.tables[table]), nil
}

// persist stores rows as table's new contents. Caller must hold s.mu.
func (s *Store) persist(ctx context.Context, table string, rows []Record) error {
	if table == TableComments {
		return localstore.SetJSON(ctx, s.local, localstore.KeyComments, rows)
	}
	s.tables[table] = rows
	return nil
}

// prepareInsert fills in id and created_at when a row lacks them.
func (s *Store) prepareInsert(rows []Record) []Record {
	now := s.now().UTC().Format(timestampLayout)
	out := make([]Record, len(rows))
	for i, r := range rows {
		row := r.Merge(nil)
		if _, ok := row["id"]; !ok {
			row["id"] = s.newID()
		}
		if _, ok := row["created_at"]; !ok {
			row["created_at"] = now
		}
		out[i] = row
	}
	return out
}
