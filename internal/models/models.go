// Package models defines the blog's domain types.
//
// Each table row has a typed counterpart decoded from a mockdb.Record. Joined
// relations are explicit optional pointers.
package models

import (
	"github.com/imserv/voltage/internal/mockdb"
)

// Role values stored on profiles.
const (
	RoleAuthor        = "author"
	RoleAdmin         = "admin"
	RoleAdministrator = "administrator"
)

// Profile is a row of the profiles table.
type Profile struct {
	ID        string `json:"id,omitempty" jsonschema:"description=User identifier owning the profile"`
	Name      string `json:"name,omitempty" jsonschema:"description=Short handle"`
	FullName  string `json:"full_name,omitempty" jsonschema:"description=Display name"`
	AvatarURL string `json:"avatar_url,omitempty" jsonschema:"description=Avatar image URL"`
	Bio       string `json:"bio,omitempty" jsonschema:"description=Free form biography"`
	Expertise string `json:"expertise,omitempty" jsonschema:"description=Field of expertise"`
	LinkedIn  string `json:"linkedin,omitempty" jsonschema:"description=LinkedIn profile URL"`
	Role      string `json:"role,omitempty" jsonschema:"description=Permission level,enum=author,enum=admin,enum=administrator"`
}

// CanPost reports whether the role may create posts.
func (p *Profile) CanPost() bool {
	switch p.Role {
	case "", RoleAuthor, RoleAdmin, RoleAdministrator:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role grants access to the admin panel.
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin || p.Role == RoleAdministrator
}

// PostCount is one element of the aggregated posts relation on a category.
type PostCount struct {
	Count int `json:"count"`
}

// Category is a row of the categories table.
type Category struct {
	ID   int64  `json:"id" jsonschema:"description=Category identifier"`
	Name string `json:"name" jsonschema:"description=Display name"`
	Slug string `json:"slug" jsonschema:"description=URL friendly name"`
	// Posts is only set when the row was selected with joins.
	Posts []PostCount `json:"posts,omitempty" jsonschema:"description=Aggregated number of posts in the category"`
}

// PostCount returns the number of posts in the category, or 0 when the count
// was not joined.
func (c *Category) PostCount() int {
	if len(c.Posts) == 0 {
		return 0
	}
	return c.Posts[0].Count
}

// Post is a row of the posts table.
type Post struct {
	ID            int64  `json:"id,omitempty" jsonschema:"description=Post identifier"`
	Title         string `json:"title" jsonschema:"description=Headline"`
	Slug          string `json:"slug" jsonschema:"description=URL friendly unique name"`
	Content       string `json:"content,omitempty" jsonschema:"description=Body as markdown or HTML"`
	Excerpt       string `json:"excerpt,omitempty" jsonschema:"description=Short summary"`
	CategoryID    int64  `json:"category_id,omitempty" jsonschema:"description=Category identifier"`
	UserID        string `json:"user_id,omitempty" jsonschema:"description=Author identifier"`
	CreatedAt     string `json:"created_at,omitempty" jsonschema:"description=Creation timestamp (RFC3339)"`
	ViewCount     int64  `json:"view_count,omitempty" jsonschema:"description=Number of times the post was opened"`
	FeaturedImage string `json:"featured_image,omitempty" jsonschema:"description=Header image URL"`

	// Author is the joined profile, nil when not joined or absent.
	Author *Profile `json:"profiles,omitempty" jsonschema:"description=Joined author profile"`
	// Category is the joined category, nil when not joined or absent.
	Category *Category `json:"categories,omitempty" jsonschema:"description=Joined category"`
}

// Comment is a row of the comments table.
type Comment struct {
	ID        int64  `json:"id,omitempty" jsonschema:"description=Comment identifier"`
	PostID    int64  `json:"post_id" jsonschema:"description=Commented post identifier"`
	UserID    string `json:"user_id" jsonschema:"description=Commenter identifier"`
	Content   string `json:"content" jsonschema:"description=Comment text"`
	CreatedAt string `json:"created_at,omitempty" jsonschema:"description=Creation timestamp (RFC3339)"`

	// Author is the joined profile. Commenters without a profile get a guest
	// profile.
	Author *Profile `json:"profiles,omitempty" jsonschema:"description=Joined commenter profile"`
}

// Resource is a row of the resources table.
type Resource struct {
	ID          int64  `json:"id,omitempty" jsonschema:"description=Resource identifier"`
	Title       string `json:"title" jsonschema:"description=Display title"`
	URL         string `json:"url,omitempty" jsonschema:"description=Link target"`
	Description string `json:"description,omitempty" jsonschema:"description=Short description"`
	Category    string `json:"category,omitempty" jsonschema:"description=Grouping label"`
	CreatedAt   string `json:"created_at,omitempty" jsonschema:"description=Creation timestamp (RFC3339)"`
}

// UserMetadata is the free form part of a User.
type UserMetadata struct {
	FullName  string `json:"full_name,omitempty" jsonschema:"description=Display name"`
	AvatarURL string `json:"avatar_url,omitempty" jsonschema:"description=Avatar image URL"`
}

// User is the signed in identity kept in local storage.
type User struct {
	ID           string       `json:"id" jsonschema:"description=User identifier"`
	Email        string       `json:"email" jsonschema:"description=Email address"`
	UserMetadata UserMetadata `json:"user_metadata" jsonschema:"description=Profile hints captured at sign in"`
}

// Session is an authenticated session.
type Session struct {
	AccessToken string `json:"access_token" jsonschema:"description=Signed session token"`
	User        *User  `json:"user" jsonschema:"description=Signed in user"`
}

// Decode converts a record into a T.
func Decode[T any](r mockdb.Record) (*T, error) {
	if r == nil {
		return nil, nil
	}
	var v T
	if err := r.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// DecodeAll converts records into Ts.
func DecodeAll[T any](rows []mockdb.Record) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		var v T
		if err := r.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
