// Package blog implements the blog's data operations on top of the mock
// database: posts, categories, comments, profiles and resources.
package blog

import (
	"context"
	"log/slog"

	"github.com/imserv/voltage/internal/mockdb"
	"github.com/imserv/voltage/internal/models"
)

// DefaultPageSize is the number of posts per page when none is given.
const DefaultPageSize = 5

// Sessions reports the signed in user. *auth.Auth implements it.
type Sessions interface {
	GetCurrentUser(ctx context.Context) (*models.User, error)
}

// Service runs blog operations. Create one with New.
type Service struct {
	db       *mockdb.Store
	sessions Sessions
	pageSize int
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithPageSize sets the page size used when a caller passes 0.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// New returns a Service reading and writing db. sessions identifies the
// caller for profile edits.
func New(db *mockdb.Store, sessions Sessions, opts ...Option) *Service {
	s := &Service{
		db:       db,
		sessions: sessions,
		pageSize: DefaultPageSize,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
