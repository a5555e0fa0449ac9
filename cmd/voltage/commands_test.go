package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/imserv/voltage/internal/auth"
	"github.com/imserv/voltage/internal/blog"
	"github.com/imserv/voltage/internal/config"
	"github.com/imserv/voltage/internal/localstore"
	"github.com/imserv/voltage/internal/mockdb"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.JWTSecret = []byte("0123456789abcdef0123456789abcdef")
	local := localstore.NewMemory()
	db := mockdb.NewStore(local)
	var nav bytes.Buffer
	a := auth.New(local, db, navigator(&nav), cfg.JWTSecret)
	var out bytes.Buffer
	return &app{
		cfg:   &cfg,
		local: local,
		db:    db,
		auth:  a,
		blog:  blog.New(db, a, blog.WithPageSize(cfg.PageSize)),
		out:   &out,
	}, &out
}

func TestCommands(t *testing.T) {
	ctx := t.Context()

	t.Run("posts", func(t *testing.T) {
		a, out := newTestApp(t)
		if err := a.run(ctx, []string{"posts"}); err != nil {
			t.Fatal(err)
		}
		s := out.String()
		if !strings.Contains(s, "V2G (Vehicle-to-Grid) Implementation Challenges") {
			t.Errorf("newest post missing:\n%s", s)
		}
		if !strings.Contains(s, "Page 1 of 2 (7 posts)") {
			t.Errorf("footer missing:\n%s", s)
		}
		if !strings.Contains(s, "December 28, 2025") {
			t.Errorf("date missing:\n%s", s)
		}
	})

	t.Run("categories", func(t *testing.T) {
		a, out := newTestApp(t)
		if err := a.run(ctx, []string{"categories"}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), "renewable-energy") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("show", func(t *testing.T) {
		a, out := newTestApp(t)
		if err := a.run(ctx, []string{"show", "-style", "notty", "wavelet-transforms-power-quality"}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), "Wavelet Transforms") {
			t.Errorf("unexpected output:\n%s", out)
		}
		if err := a.run(ctx, []string{"show", "nope"}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("comment requires login", func(t *testing.T) {
		a, out := newTestApp(t)
		if err := a.run(ctx, []string{"comment", "1", "hello"}); err != nil {
			t.Fatal(err)
		}
		if out.Len() != 0 {
			t.Errorf("unexpected output:\n%s", out)
		}
		if err := a.run(ctx, []string{"login", auth.FixedEmail}); err != nil {
			t.Fatal(err)
		}
		if err := a.run(ctx, []string{"comment", "1", "hello", "there"}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), "by Lead Engineer") {
			t.Errorf("unexpected output:\n%s", out)
		}
		comments, err := a.blog.GetComments(ctx, 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(comments) != 1 || comments[0].Content != "hello there" {
			t.Errorf("comments = %+v", comments)
		}
	})

	t.Run("whoami", func(t *testing.T) {
		a, out := newTestApp(t)
		if err := a.run(ctx, []string{"whoami"}); err != nil {
			t.Fatal(err)
		}
		if got := out.String(); got != "Signed out\n" {
			t.Errorf("got %q", got)
		}
		out.Reset()
		if err := a.run(ctx, []string{"login", auth.FixedEmail}); err != nil {
			t.Fatal(err)
		}
		if err := a.run(ctx, []string{"whoami"}); err != nil {
			t.Fatal(err)
		}
		if s := out.String(); !strings.Contains(s, auth.FixedUserID) || !strings.Contains(s, `"role": "author"`) {
			t.Errorf("unexpected output:\n%s", s)
		}
	})

	t.Run("schema", func(t *testing.T) {
		a, out := newTestApp(t)
		if err := a.run(ctx, []string{"schema", "post"}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), `"view_count"`) {
			t.Errorf("unexpected output:\n%s", out)
		}
		if err := a.run(ctx, []string{"schema", "nope"}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("in-memory writes are flagged", func(t *testing.T) {
		a, out := newTestApp(t)
		if err := a.run(ctx, []string{"resources", "-add", "-title", "IEEE 1547", "-category", "Standards"}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), "Note: resources are kept in memory") {
			t.Errorf("unexpected output:\n%s", out)
		}
		out.Reset()
		if err := a.run(ctx, []string{"login", auth.FixedEmail}); err != nil {
			t.Fatal(err)
		}
		if err := a.run(ctx, []string{"publish", "-title", "Relay Basics", "-category", "1"}); err != nil {
			t.Fatal(err)
		}
		if err := a.run(ctx, []string{"profile", "-bio", "Protection engineer"}); err != nil {
			t.Fatal(err)
		}
		s := out.String()
		for _, want := range []string{"Published", "Note: posts are kept in memory", "Note: profiles are kept in memory"} {
			if !strings.Contains(s, want) {
				t.Errorf("missing %q in:\n%s", want, s)
			}
		}
		out.Reset()
		if err := a.run(ctx, []string{"comment", "1", "kept"}); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(out.String(), "Note:") {
			t.Errorf("comments are persisted, got:\n%s", out)
		}
	})

	t.Run("follow needs a file", func(t *testing.T) {
		a, _ := newTestApp(t)
		if err := a.run(ctx, []string{"follow"}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("unknown", func(t *testing.T) {
		a, _ := newTestApp(t)
		if err := a.run(context.Background(), []string{"nope"}); err == nil {
			t.Error("expected error")
		}
	})
}
