package blog

import (
	"context"
	"fmt"
	"strings"

	"github.com/imserv/voltage/internal/errors"
	"github.com/imserv/voltage/internal/mockdb"
	"github.com/imserv/voltage/internal/models"
	"github.com/imserv/voltage/internal/render"
)

// Sort orders.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// ListOptions narrows GetPaginatedPosts.
type ListOptions struct {
	// Search matches posts whose title or content contains it, ignoring case.
	Search string
	// CategoryID keeps posts of one category. 0 keeps all.
	CategoryID int64
	// Sort is SortNewest (default) or SortOldest.
	Sort string
}

// PostPage is one page of posts.
type PostPage struct {
	Posts    []models.Post
	Page     int
	PageSize int
	// Total is the number of matching posts across all pages.
	Total int
}

// Pages returns the number of pages needed for Total.
func (p *PostPage) Pages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// GetPaginatedPosts returns page (1 based) of posts with author and category
// joined.
func (s *Service) GetPaginatedPosts(ctx context.Context, page, pageSize int, opts ListOptions) (*PostPage, error) {
	page = max(page, 1)
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	from := (page - 1) * pageSize
	to := from + pageSize - 1

	q := s.db.From(mockdb.TablePosts).Select("*, profiles!user_id(*), categories(*)", mockdb.WithCount())
	if search := searchTerm(opts.Search); search != "" {
		search = mockdb.EscapeLike(search)
		q = q.Or(fmt.Sprintf("title.ilike.%%%s%%,content.ilike.%%%s%%", search, search))
	}
	if opts.CategoryID != 0 {
		q = q.Eq("category_id", opts.CategoryID)
	}
	q = q.Order("created_at", opts.Sort == SortOldest)
	res, err := q.Range(from, to).Exec(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := models.DecodeAll[models.Post](res.Data)
	if err != nil {
		return nil, err
	}
	return &PostPage{Posts: posts, Page: page, PageSize: pageSize, Total: res.Count}, nil
}

// searchTerm drops the characters that would split the or expression. The
// result is still to be escaped for LIKE.
func searchTerm(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ",", " "))
}

// GetCategories returns every category with its post count.
func (s *Service) GetCategories(ctx context.Context) ([]models.Category, error) {
	res, err := s.db.From(mockdb.TableCategories).Select("*, posts(count)").Exec(ctx)
	if err != nil {
		return nil, err
	}
	return models.DecodeAll[models.Category](res.Data)
}

// GetPostBySlug returns the post with author and category joined, or nil when
// no post has slug.
func (s *Service) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	if slug == "" {
		return nil, errors.MissingField("slug")
	}
	res, err := s.db.From(mockdb.TablePosts).Select("*, profiles!user_id(*), categories(*)").Eq("slug", slug).MaybeSingle().Exec(ctx)
	if err != nil {
		return nil, err
	}
	return models.Decode[models.Post](res.Row())
}

// IncrementViewCount adds one view to the post. It calls the database
// function and falls back to a read and update if that fails.
func (s *Service) IncrementViewCount(ctx context.Context, postID int64) error {
	_, err := s.db.RPC(ctx, mockdb.FuncIncrementPostViews, mockdb.Record{"post_id": postID})
	if err == nil {
		return nil
	}
	s.logger.DebugContext(ctx, "View count RPC failed, updating directly", "post_id", postID, "err", err)
	res, err := s.db.From(mockdb.TablePosts).Select("view_count").Eq("id", postID).Single().Exec(ctx)
	if err != nil {
		return err
	}
	n, _ := res.Row().Int("view_count")
	_, err = s.db.From(mockdb.TablePosts).Update(mockdb.Record{"view_count": n + 1}).Eq("id", postID).Exec(ctx)
	return err
}

// GetUserPosts returns userID's posts, newest first.
func (s *Service) GetUserPosts(ctx context.Context, userID string) ([]models.Post, error) {
	if userID == "" {
		return nil, errors.MissingField("user_id")
	}
	res, err := s.db.From(mockdb.TablePosts).Select("*").Eq("user_id", userID).Order("created_at", false).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return models.DecodeAll[models.Post](res.Data)
}

// CreatePost inserts p and returns the stored row. An empty slug is derived
// from the title.
func (s *Service) CreatePost(ctx context.Context, p *models.Post) (*models.Post, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, errors.MissingField("title")
	}
	if p.Slug == "" {
		p.Slug = render.Slugify(p.Title)
	}
	row, err := mockdb.ToRecord(p)
	if err != nil {
		return nil, err
	}
	if _, ok := row["view_count"]; !ok {
		row["view_count"] = 0
	}
	res, err := s.db.From(mockdb.TablePosts).Insert(row).Select("*").Exec(ctx)
	if err != nil {
		return nil, err
	}
	return models.Decode[models.Post](res.Row())
}

// UpdatePost merges changes into the post and returns the updated row.
func (s *Service) UpdatePost(ctx context.Context, postID int64, changes mockdb.Record) (*models.Post, error) {
	return updateOne[models.Post](ctx, s.db, mockdb.TablePosts, postID, changes)
}

// DeletePost removes the post.
func (s *Service) DeletePost(ctx context.Context, postID int64) error {
	_, err := s.db.From(mockdb.TablePosts).Delete().Eq("id", postID).Exec(ctx)
	return err
}

// updateOne merges changes into the row of table with id and returns it
// decoded. The id itself cannot be changed.
func updateOne[T any](ctx context.Context, db *mockdb.Store, table string, id any, changes mockdb.Record) (*T, error) {
	changes = changes.Clone()
	delete(changes, "id")
	res, err := db.From(table).Update(changes).Eq("id", id).Select("*").Exec(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Data) == 0 {
		return nil, errors.NotFound(table)
	}
	return models.Decode[T](res.Row())
}
