// Package render turns blog content into safe HTML, terminal output and
// display strings.
package render

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	ugc = bluemonday.UGCPolicy()
	md  = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		// Posts may embed HTML; Sanitize runs on the output.
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
)

// Sanitize strips scripts, event handlers and other unsafe markup from
// user generated HTML.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return ugc.Sanitize(s)
}

// Markdown renders GitHub flavored markdown to sanitized HTML.
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return Sanitize(buf.String()), nil
}

// Terminal renders markdown for display in a terminal wrapped at width.
// style is a glamour standard style name ("dark", "light", "notty", ...); empty
// detects it from the terminal.
func Terminal(src string, width int, style string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create terminal renderer: %w", err)
	}
	out, err := r.Render(src)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// imageIDs maps category ids to Unsplash photo ids.
var imageIDs = map[int64]string{
	1:  "1473341304170-971dccb5ac1e", // Power Systems
	2:  "1517420812313-8fc54b172db1", // Electronics
	3:  "1518770660439-4636190af475", // Control Systems
	4:  "1508514171922-509d9c827df1", // Renewable Energy
	5:  "1581092160562-40aa08e78837", // Signal Processing
	12: "1612282130134-75afc0b02c23", // Electrical Safety
}

const defaultImageID = "1581092160562-40aa08e78837"

// PostImageID returns the stock photo id used for posts of a category.
func PostImageID(categoryID int64) string {
	if id, ok := imageIDs[categoryID]; ok {
		return id
	}
	return defaultImageID
}

// StockImageURL returns the full size stock photo for a category.
func StockImageURL(categoryID int64) string {
	return "https://images.unsplash.com/photo-" + PostImageID(categoryID) + "?auto=format&fit=crop&q=80&w=2000"
}

var (
	htmlImage     = regexp.MustCompile(`<img[^>]+src="([^">]+)"`)
	markdownImage = regexp.MustCompile(`!\[.*?\]\((.*?)\)`)
)

// FirstImage returns the first image referenced by content, as an HTML img
// tag or a markdown image, or "".
func FirstImage(content string) string {
	if m := htmlImage.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	if m := markdownImage.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return ""
}
