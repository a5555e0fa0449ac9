package render

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/imserv/voltage/internal/mockdb"
	"github.com/imserv/voltage/internal/models"
)

var (
	spaces   = regexp.MustCompile(`\s+`)
	nonWord  = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	dashRuns = regexp.MustCompile(`--+`)
)

// Slugify converts text to a URL friendly slug: lowercased, accents folded,
// whitespace runs turned into a dash, other punctuation dropped.
func Slugify(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = spaces.ReplaceAllString(s, "-")
	s = nonWord.ReplaceAllString(s, "")
	return dashRuns.ReplaceAllString(s, "-")
}

// InvalidDate is returned by FormatDate for input it cannot parse.
const InvalidDate = "Invalid Date"

// FormatDate formats a timestamp in any common layout as a long date, such as
// "October 15, 2025", in locale (e.g. "en_US", "fr-FR", "de"). Timestamps
// without a zone are taken as UTC.
func FormatDate(s, locale string) string {
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return InvalidDate
	}
	loc := mondayLocale(locale)
	return monday.Format(t.UTC(), longDateLayout(loc), loc)
}

// mondayLocale maps a locale string to a monday.Locale, falling back to the
// language alone and then to en_US.
func mondayLocale(locale string) monday.Locale {
	locale = strings.ToLower(strings.ReplaceAll(locale, "-", "_"))
	locales := map[string]monday.Locale{
		"en":    monday.LocaleEnUS,
		"en_us": monday.LocaleEnUS,
		"en_gb": monday.LocaleEnGB,
		"de":    monday.LocaleDeDE,
		"de_de": monday.LocaleDeDE,
		"fr":    monday.LocaleFrFR,
		"fr_fr": monday.LocaleFrFR,
		"fr_ca": monday.LocaleFrCA,
		"es":    monday.LocaleEsES,
		"es_es": monday.LocaleEsES,
		"it":    monday.LocaleItIT,
		"it_it": monday.LocaleItIT,
		"pt":    monday.LocalePtPT,
		"pt_pt": monday.LocalePtPT,
		"pt_br": monday.LocalePtBR,
		"nl":    monday.LocaleNlNL,
		"nl_nl": monday.LocaleNlNL,
	}
	if l, ok := locales[locale]; ok {
		return l
	}
	if lang, _, found := strings.Cut(locale, "_"); found {
		if l, ok := locales[lang]; ok {
			return l
		}
	}
	return monday.LocaleEnUS
}

func longDateLayout(loc monday.Locale) string {
	switch loc {
	case monday.LocaleEnUS:
		return "January 2, 2006"
	default:
		return "2 January 2006"
	}
}

// Fallback display values.
const (
	StaffWriter    = "Staff Writer"
	AnonymousStaff = "Anonymous Staff"
	GeneralTopic   = "General"
)

// AuthorName returns the name shown in a post byline.
func AuthorName(p *models.Post) string {
	if p.Author != nil {
		if p.Author.FullName != "" {
			return p.Author.FullName
		}
		if p.Author.Name != "" {
			return p.Author.Name
		}
	}
	return StaffWriter
}

// CategoryName returns the label shown on a post.
func CategoryName(p *models.Post) string {
	if p.Category != nil && p.Category.Name != "" {
		return p.Category.Name
	}
	return GeneralTopic
}

// HeaderImage picks the post's header image: the featured image, else the
// first image in its content, else the stock photo of its category.
func HeaderImage(p *models.Post) string {
	if p.FeaturedImage != "" {
		return p.FeaturedImage
	}
	if img := FirstImage(p.Content); img != "" {
		return img
	}
	catID := p.CategoryID
	if catID == 0 && p.Category != nil {
		catID = p.Category.ID
	}
	return StockImageURL(catID)
}

// CommentAuthor returns the name shown on a comment.
func CommentAuthor(c *models.Comment) string {
	if c.Author != nil && c.Author.FullName != "" {
		return c.Author.FullName
	}
	return AnonymousStaff
}

// CommentAvatar returns the avatar shown on a comment.
func CommentAvatar(c *models.Comment) string {
	if c.Author != nil && c.Author.AvatarURL != "" {
		return c.Author.AvatarURL
	}
	return mockdb.AvatarURL(c.UserID)
}
