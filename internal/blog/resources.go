package blog

import (
	"context"
	"strings"

	"github.com/imserv/voltage/internal/errors"
	"github.com/imserv/voltage/internal/mockdb"
	"github.com/imserv/voltage/internal/models"
)

// GetResources returns every resource, newest first. The last Order is the
// primary key, so category only breaks ties between equal timestamps.
func (s *Service) GetResources(ctx context.Context) ([]models.Resource, error) {
	res, err := s.db.From(mockdb.TableResources).
		Select("*").
		Order("category", true).
		Order("created_at", false).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return models.DecodeAll[models.Resource](res.Data)
}

// CreateResource inserts r and returns the stored row.
func (s *Service) CreateResource(ctx context.Context, r *models.Resource) (*models.Resource, error) {
	if strings.TrimSpace(r.Title) == "" {
		return nil, errors.MissingField("title")
	}
	row, err := mockdb.ToRecord(r)
	if err != nil {
		return nil, err
	}
	res, err := s.db.From(mockdb.TableResources).Insert(row).Select("*").Exec(ctx)
	if err != nil {
		return nil, err
	}
	return models.Decode[models.Resource](res.Row())
}

// UpdateResource merges changes into the resource and returns the updated
// row.
func (s *Service) UpdateResource(ctx context.Context, id int64, changes mockdb.Record) (*models.Resource, error) {
	return updateOne[models.Resource](ctx, s.db, mockdb.TableResources, id, changes)
}

// DeleteResource removes the resource.
func (s *Service) DeleteResource(ctx context.Context, id int64) error {
	_, err := s.db.From(mockdb.TableResources).Delete().Eq("id", id).Exec(ctx)
	return err
}
