package mockdb

import (
	stderrors "errors"
	"slices"
	"testing"
	"time"

	"github.com/imserv/voltage/internal/errors"
	"github.com/imserv/voltage/internal/localstore"
)

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

// newTestStore returns a seeded store with deterministic ids and clock.
func newTestStore(t *testing.T) (*Store, *localstore.Memory) {
	t.Helper()
	local := localstore.NewMemory()
	next := int64(1000)
	s := NewStore(local,
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() int64 {
			next++
			return next
		}),
	)
	return s, local
}

func ids(t *testing.T, rows []Record) []int64 {
	t.Helper()
	out := make([]int64, len(rows))
	for i, r := range rows {
		id, ok := r.Int("id")
		if !ok {
			t.Fatalf("row %d has no numeric id: %v", i, r)
		}
		out[i] = id
	}
	return out
}

func TestSelect(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := t.Context()

	t.Run("all rows in insertion order", func(t *testing.T) {
		res, err := s.From(TablePosts).Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got := ids(t, res.Data); !slices.Equal(got, []int64{1, 2, 3, 4, 5, 6, 7}) {
			t.Errorf("ids = %v", got)
		}
		if res.HasCount {
			t.Error("count was not requested")
		}
	})

	t.Run("unknown table is empty", func(t *testing.T) {
		res, err := s.From("nope").Select("*").Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if res.Data == nil || len(res.Data) != 0 {
			t.Errorf("expected empty non-nil data, got %#v", res.Data)
		}
	})

	t.Run("eq is loose", func(t *testing.T) {
		res, err := s.From(TablePosts).Eq("category_id", "4").Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got := ids(t, res.Data); !slices.Equal(got, []int64{4, 7}) {
			t.Errorf("ids = %v", got)
		}
	})

	t.Run("eq twice is idempotent", func(t *testing.T) {
		once, err := s.From(TablePosts).Eq("category_id", 1).Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		twice, err := s.From(TablePosts).Eq("category_id", 1).Eq("category_id", 1).Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if a, b := ids(t, once.Data), ids(t, twice.Data); !slices.Equal(a, b) {
			t.Errorf("once = %v, twice = %v", a, b)
		}
	})

	t.Run("or search is case insensitive", func(t *testing.T) {
		res, err := s.From(TablePosts).Or("title.ilike.%GRID%,content.ilike.%GRID%").Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		found := false
		for _, r := range res.Data {
			if r.String("title") == "Optimizing Grid Stability with Solid-State Transformers" {
				found = true
			}
		}
		if !found {
			t.Errorf("grid post not found in %v", ids(t, res.Data))
		}
		// Post 3 mentions "grid intelligence" only in its excerpt, post 7
		// mentions "the grid" in its content.
		if got := ids(t, res.Data); !slices.Equal(got, []int64{1, 7}) {
			t.Errorf("ids = %v", got)
		}
	})

	t.Run("unparsable or is ignored", func(t *testing.T) {
		res, err := s.From(TablePosts).Or("garbage").Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Data) != 7 {
			t.Errorf("expected every post, got %d", len(res.Data))
		}
	})

	t.Run("order", func(t *testing.T) {
		res, err := s.From(TablePosts).Order("view_count", false).Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got := ids(t, res.Data); !slices.Equal(got, []int64{6, 1, 4, 2, 7, 3, 5}) {
			t.Errorf("ids = %v", got)
		}
	})

	t.Run("last order is primary", func(t *testing.T) {
		res, err := s.From(TablePosts).Order("created_at", false).Order("category_id", true).Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got := ids(t, res.Data); !slices.Equal(got, []int64{6, 1, 2, 3, 7, 4, 5}) {
			t.Errorf("ids = %v", got)
		}
	})

	t.Run("range with count", func(t *testing.T) {
		res, err := s.From(TablePosts).Select("*", WithCount()).Order("created_at", true).Range(2, 4).Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got := ids(t, res.Data); !slices.Equal(got, []int64{3, 4, 5}) {
			t.Errorf("ids = %v", got)
		}
		if !res.HasCount || res.Count != 7 {
			t.Errorf("count = %d (%v), want 7", res.Count, res.HasCount)
		}
	})

	t.Run("range pages partition the table", func(t *testing.T) {
		var all []int64
		for from := 0; ; from += 5 {
			res, err := s.From(TablePosts).Order("created_at", false).Range(from, from+4).Exec(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Data) == 0 {
				break
			}
			all = append(all, ids(t, res.Data)...)
		}
		if !slices.Equal(all, []int64{7, 6, 5, 4, 3, 2, 1}) {
			t.Errorf("pages = %v", all)
		}
	})

	t.Run("range past the end", func(t *testing.T) {
		res, err := s.From(TablePosts).Range(10, 20).Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Data) != 0 {
			t.Errorf("expected no rows, got %d", len(res.Data))
		}
	})
}

func TestShapes(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := t.Context()

	t.Run("single", func(t *testing.T) {
		res, err := s.From(TablePosts).Eq("slug", "gan-vs-sic-ev-chargers").Single().Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if id, _ := res.Row().Int("id"); id != 2 {
			t.Errorf("id = %d", id)
		}
	})

	t.Run("single not found", func(t *testing.T) {
		res, err := s.From(TablePosts).Eq("slug", "missing").Single().Exec(ctx)
		if !stderrors.Is(err, errors.RowNotFound) {
			t.Fatalf("expected row not found, got %v", err)
		}
		if errors.CodeOf(err) != "PGRST116" {
			t.Errorf("code = %q", errors.CodeOf(err))
		}
		if res.Row() != nil {
			t.Errorf("expected nil data, got %v", res.Row())
		}
	})

	t.Run("maybe single not found", func(t *testing.T) {
		res, err := s.From(TablePosts).Eq("slug", "missing").MaybeSingle().Exec(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Row() != nil {
			t.Errorf("expected nil data, got %v", res.Row())
		}
	})

	t.Run("single takes the first of many", func(t *testing.T) {
		res, err := s.From(TablePosts).Eq("category_id", 1).Single().Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Data) != 1 {
			t.Errorf("expected 1 row, got %d", len(res.Data))
		}
	})
}

func TestJoins(t *testing.T) {
	s, local := newTestStore(t)
	ctx := t.Context()

	t.Run("category post counts", func(t *testing.T) {
		res, err := s.From(TableCategories).Select("*, posts(count)").Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Data) != 5 {
			t.Fatalf("expected 5 categories, got %d", len(res.Data))
		}
		want := map[int64]int{1: 2, 2: 1, 3: 1, 4: 2, 5: 1}
		for _, cat := range res.Data {
			id, _ := cat.Int("id")
			posts := cat[RelPosts].([]any)
			n := posts[0].(map[string]any)["count"]
			if n != want[id] {
				t.Errorf("category %d count = %v, want %d", id, n, want[id])
			}
		}
	})

	t.Run("posts get author and category", func(t *testing.T) {
		res, err := s.From(TablePosts).Select("*").Eq("id", 3).Single().Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		row := res.Row()
		if p, ok := row[RelProfiles].(Record); !ok || p.String("full_name") != "Lead Engineer" {
			t.Errorf("profiles = %#v", row[RelProfiles])
		}
		if c, ok := row[RelCategories].(Record); !ok || c.String("name") != "Control Systems" {
			t.Errorf("categories = %#v", row[RelCategories])
		}
	})

	t.Run("missing foreign key is nil", func(t *testing.T) {
		_, err := s.From(TablePosts).Insert(Record{"title": "Orphan", "slug": "orphan", "category_id": 99, "user_id": "ghost"}).Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		res, err := s.From(TablePosts).Select("*").Eq("slug", "orphan").Single().Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if res.Row()[RelProfiles] != nil || res.Row()[RelCategories] != nil {
			t.Errorf("expected nil relations, got %v / %v", res.Row()[RelProfiles], res.Row()[RelCategories])
		}
	})

	t.Run("no select no join", func(t *testing.T) {
		res, err := s.From(TablePosts).Eq("id", 1).Single().Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := res.Row()[RelProfiles]; ok {
			t.Error("join attached without Select")
		}
	})

	t.Run("guest commenter", func(t *testing.T) {
		res, err := s.From(TableComments).
			Insert(Record{"post_id": 1, "user_id": "user_abc", "content": "hi"}).
			Select("*").Single().Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		p := res.Row()[RelProfiles].(Record)
		if p.String("full_name") != GuestName {
			t.Errorf("full_name = %q", p.String("full_name"))
		}
		if p.String("avatar_url") != AvatarURL("user_abc") {
			t.Errorf("avatar_url = %q", p.String("avatar_url"))
		}
		raw, _, _ := local.Get(ctx, localstore.KeyComments)
		if raw == "" || slices.Contains([]string{"[]", "null"}, raw) {
			t.Errorf("comment not persisted: %q", raw)
		}
	})
}

func TestMutations(t *testing.T) {
	ctx := t.Context()

	t.Run("insert then read back", func(t *testing.T) {
		s, _ := newTestStore(t)
		res, err := s.From(TablePosts).Insert(Record{"title": "New", "slug": "new-post", "category_id": 2}).Select("*").Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Data) != 1 {
			t.Fatalf("expected 1 inserted row, got %d", len(res.Data))
		}
		got, err := s.From(TablePosts).Eq("slug", "new-post").Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Data) != 1 {
			t.Fatalf("expected exactly the inserted row, got %d", len(got.Data))
		}
		row := got.Row()
		if id, ok := row.Int("id"); !ok || id != 1001 {
			t.Errorf("id = %v", row["id"])
		}
		if row.String("created_at") != "2026-01-02T03:04:05.006Z" {
			t.Errorf("created_at = %q", row.String("created_at"))
		}
	})

	t.Run("insert keeps provided id", func(t *testing.T) {
		s, _ := newTestStore(t)
		res, err := s.From(TableResources).Insert(Record{"id": 42, "title": "a"}, Record{"title": "b"}).Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got := ids(t, res.Data); !slices.Equal(got, []int64{42, 1001}) {
			t.Errorf("ids = %v", got)
		}
	})

	t.Run("insert into unknown table creates it", func(t *testing.T) {
		s, _ := newTestStore(t)
		if _, err := s.From("drafts").Insert(Record{"title": "x"}).Exec(ctx); err != nil {
			t.Fatal(err)
		}
		res, err := s.From("drafts").Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Data) != 1 {
			t.Errorf("expected 1 row, got %d", len(res.Data))
		}
	})

	t.Run("executing twice repeats the insert", func(t *testing.T) {
		s, _ := newTestStore(t)
		b := s.From(TableResources).Insert(Record{"title": "dup"})
		for range 2 {
			if _, err := b.Exec(ctx); err != nil {
				t.Fatal(err)
			}
		}
		res, _ := s.From(TableResources).Eq("title", "dup").Exec(ctx)
		if len(res.Data) != 2 {
			t.Errorf("expected 2 rows, got %d", len(res.Data))
		}
	})

	t.Run("update persists", func(t *testing.T) {
		s, _ := newTestStore(t)
		res, err := s.From(TablePosts).Update(Record{"title": "Renamed"}).Eq("id", 2).Select("*").Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Data) != 1 || res.Row().String("title") != "Renamed" {
			t.Fatalf("unexpected update result: %v", res.Data)
		}
		if _, ok := res.Row()[RelCategories]; !ok {
			t.Error("joins were not re-applied after update")
		}
		got, err := s.From(TablePosts).Eq("id", 2).Single().Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got.Row().String("title") != "Renamed" {
			t.Errorf("title = %q", got.Row().String("title"))
		}
		if _, ok := got.Row()[RelCategories]; ok {
			t.Error("join leaked into the stored row")
		}
	})

	t.Run("update without match", func(t *testing.T) {
		s, _ := newTestStore(t)
		res, err := s.From(TableProfiles).Update(Record{"bio": "x"}).Eq("id", "nobody").Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Data) != 0 {
			t.Errorf("expected no rows, got %d", len(res.Data))
		}
	})

	t.Run("delete removes source rows", func(t *testing.T) {
		s, _ := newTestStore(t)
		res, err := s.From(TablePosts).Delete().Eq("category_id", 4).Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Data) != 0 {
			t.Errorf("delete returned rows: %v", res.Data)
		}
		all, _ := s.From(TablePosts).Exec(ctx)
		if got := ids(t, all.Data); !slices.Equal(got, []int64{1, 2, 3, 5, 6}) {
			t.Errorf("remaining ids = %v", got)
		}
		cats, _ := s.From(TableCategories).Select("*").Eq("id", 4).Single().Exec(ctx)
		if n := cats.Row()[RelPosts].([]any)[0].(map[string]any)["count"]; n != 0 {
			t.Errorf("category 4 count after delete = %v", n)
		}
	})

	t.Run("last mutation wins", func(t *testing.T) {
		s, _ := newTestStore(t)
		q := s.From(TablePosts).Insert(Record{"title": "x"}).Delete().Query()
		if q.Mutation.Kind != MutationDelete {
			t.Errorf("kind = %v", q.Mutation.Kind)
		}
	})
}

func TestComments(t *testing.T) {
	ctx := t.Context()

	t.Run("re-read from local storage", func(t *testing.T) {
		s, local := newTestStore(t)
		if err := local.Set(ctx, localstore.KeyComments, `[{"id":1,"post_id":1,"user_id":"imserv_user_01","content":"first","created_at":"2025-01-01T00:00:00.000Z"}]`); err != nil {
			t.Fatal(err)
		}
		res, err := s.From(TableComments).Select("*").Eq("post_id", 1).Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Data) != 1 {
			t.Fatalf("expected 1 comment, got %d", len(res.Data))
		}
		if p := res.Row()[RelProfiles].(Record); p.String("full_name") != "Lead Engineer" {
			t.Errorf("author = %v", p)
		}

		// Another writer replaces the stored value behind the store's back.
		if err := local.Set(ctx, localstore.KeyComments, `[]`); err != nil {
			t.Fatal(err)
		}
		res, err = s.From(TableComments).Eq("post_id", 1).Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Data) != 0 {
			t.Errorf("stale comments: %v", res.Data)
		}
	})

	t.Run("delete writes back", func(t *testing.T) {
		s, local := newTestStore(t)
		for _, post := range []int{1, 2} {
			if _, err := s.From(TableComments).Insert(Record{"post_id": post, "user_id": "u", "content": "c"}).Exec(ctx); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := s.From(TableComments).Delete().Eq("post_id", 1).Exec(ctx); err != nil {
			t.Fatal(err)
		}
		rows, _, err := localstore.GetJSON[[]Record](ctx, local, localstore.KeyComments)
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 {
			t.Errorf("expected 1 stored comment, got %d", len(rows))
		}
	})

	t.Run("corrupt storage", func(t *testing.T) {
		s, local := newTestStore(t)
		if err := local.Set(ctx, localstore.KeyComments, "not json"); err != nil {
			t.Fatal(err)
		}
		_, err := s.From(TableComments).Exec(ctx)
		if !stderrors.Is(err, errors.StorageCorrupt) {
			t.Errorf("expected corrupt error, got %v", err)
		}
	})
}

func TestRPC(t *testing.T) {
	ctx := t.Context()
	s, _ := newTestStore(t)
	for _, name := range []string{FuncIncrementPostViews, FuncIncrementViewCount} {
		if _, err := s.RPC(ctx, name, Record{"post_id": 5}); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
	res, err := s.From(TablePosts).Eq("id", 5).Single().Exec(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := res.Row().Int("view_count"); n != 414 {
		t.Errorf("view_count = %d, want 414", n)
	}
	if _, err := s.RPC(ctx, "nope", nil); !stderrors.Is(err, errors.FunctionNotFound) {
		t.Errorf("expected function not found, got %v", err)
	}
}

func TestStoresAreIndependent(t *testing.T) {
	ctx := t.Context()
	a, _ := newTestStore(t)
	b, _ := newTestStore(t)
	if _, err := a.From(TablePosts).Delete().Exec(ctx); err != nil {
		t.Fatal(err)
	}
	res, err := b.From(TablePosts).Exec(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 7 {
		t.Errorf("seed shared between stores: %d posts left", len(res.Data))
	}
}
