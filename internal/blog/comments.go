package blog

import (
	"context"
	"strings"

	"github.com/imserv/voltage/internal/errors"
	"github.com/imserv/voltage/internal/mockdb"
	"github.com/imserv/voltage/internal/models"
)

// GetComments returns the comments of a post, oldest first, each with its
// author's profile.
func (s *Service) GetComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	res, err := s.db.From(mockdb.TableComments).
		Select("*, profiles!user_id(full_name, avatar_url)").
		Eq("post_id", postID).
		Order("created_at", true).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return models.DecodeAll[models.Comment](res.Data)
}

// AddComment stores a comment by userID on a post and returns it with the
// author's profile.
func (s *Service) AddComment(ctx context.Context, postID int64, userID, content string) (*models.Comment, error) {
	if userID == "" {
		return nil, errors.MissingField("user_id")
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.MissingField("content")
	}
	res, err := s.db.From(mockdb.TableComments).
		Insert(mockdb.Record{"post_id": postID, "user_id": userID, "content": content}).
		Select("*, profiles!user_id(full_name, avatar_url)").
		Single().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Comment added", "post_id", postID, "user", userID)
	return models.Decode[models.Comment](res.Row())
}
