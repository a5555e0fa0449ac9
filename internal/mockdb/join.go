// Denormalization of related rows.

package mockdb

import "net/url"

// Relation field names attached by joins.
const (
	RelProfiles   = "profiles"
	RelCategories = "categories"
	RelPosts      = "posts"
)

// GuestName is the display name of commenters without a profile.
const GuestName = "Guest User"

// AvatarURL returns the generated avatar for seed.
func AvatarURL(seed string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + url.QueryEscape(seed)
}

// join attaches relations to rows of table, computed from the current table
// contents. Rows are modified in place. Caller must hold s.mu.
func (s *Store) join(table string, rows []Record) {
	switch table {
	case TablePosts:
		profiles := s.tables[TableProfiles]
		categories := s.tables[TableCategories]
		for _, post := range rows {
			post[RelProfiles] = findBy(profiles, "id", post["user_id"])
			post[RelCategories] = findBy(categories, "id", post["category_id"])
		}
	case TableCategories:
		posts := s.tables[TablePosts]
		for _, cat := range rows {
			n := 0
			for _, p := range posts {
				if looseEqual(p["category_id"], cat["id"]) {
					n++
				}
			}
			cat[RelPosts] = []any{map[string]any{"count": n}}
		}
	case TableComments:
		profiles := s.tables[TableProfiles]
		for _, comment := range rows {
			if p := findBy(profiles, "id", comment["user_id"]); p != nil {
				comment[RelProfiles] = p
				continue
			}
			comment[RelProfiles] = guestProfile(comment["user_id"])
		}
	}
}

// findBy returns a copy of the first row whose field loosely equals value, or
// nil. The result is typed any so a miss stores an untyped nil.
func findBy(rows []Record, field string, value any) any {
	if value == nil {
		return nil
	}
	for _, r := range rows {
		if looseEqual(r[field], value) {
			return r.Clone()
		}
	}
	return nil
}

func guestProfile(userID any) Record {
	return Record{
		"full_name":  GuestName,
		"avatar_url": AvatarURL(toString(userID)),
	}
}
