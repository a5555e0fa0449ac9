package blog

import (
	"context"

	"github.com/imserv/voltage/internal/errors"
	"github.com/imserv/voltage/internal/mockdb"
	"github.com/imserv/voltage/internal/models"
)

// GetProfile returns the profile of userID. A missing profile is a row not
// found error.
func (s *Service) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	res, err := s.db.From(mockdb.TableProfiles).Select("*").Eq("id", userID).Single().Exec(ctx)
	if err != nil {
		return nil, err
	}
	return models.Decode[models.Profile](res.Row())
}

// UpdateProfile merges changes into the signed in user's profile. A user
// without a profile yet, as after signing up, gets one created.
func (s *Service) UpdateProfile(ctx context.Context, changes mockdb.Record) (*models.Profile, error) {
	user, err := s.sessions.GetCurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.Unauthorized()
	}
	p, err := updateOne[models.Profile](ctx, s.db, mockdb.TableProfiles, user.ID, changes)
	if !errors.Is(err, errors.RowNotFound) {
		return p, err
	}

	row := mockdb.Record{
		"id":         user.ID,
		"full_name":  user.UserMetadata.FullName,
		"avatar_url": user.UserMetadata.AvatarURL,
	}
	if row.String("avatar_url") == "" {
		row["avatar_url"] = mockdb.AvatarURL(user.Email)
	}
	for k, v := range changes {
		if k != "id" {
			row[k] = v
		}
	}
	res, err := s.db.From(mockdb.TableProfiles).Insert(row).Select("*").Exec(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Profile created", "user", user.ID)
	return models.Decode[models.Profile](res.Row())
}
