package mockdb

import (
	"context"

	"github.com/imserv/voltage/internal/errors"
)

// RPC function names.
const (
	FuncIncrementPostViews = "increment_post_views"
	FuncIncrementViewCount = "increment_view_count"
)

// RPC calls a stored function. Unknown names return an error with code
// PGRST202 so callers can fall back to plain queries.
func (s *Store) RPC(ctx context.Context, name string, params Record) (*Result, error) {
	switch name {
	case FuncIncrementPostViews, FuncIncrementViewCount:
		s.incrementViews(params["post_id"])
		s.logger.DebugContext(ctx, "RPC", "func", name, "post_id", params["post_id"])
		return &Result{}, nil
	default:
		return nil, errors.UnknownFunction(name)
	}
}

func (s *Store) incrementViews(postID any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.tables[TablePosts] {
		if looseEqual(p["id"], postID) {
			n, _ := p.Int("view_count")
			p["view_count"] = n + 1
			return
		}
	}
}
