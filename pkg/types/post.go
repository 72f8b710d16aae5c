package types

import (
	"strings"
	"time"
)

// Post is a published or draft article. Posts are read-only to the site;
// they enter the store through the import path.
type Post struct {
	ID        int64     `json:"id" yaml:"-"`
	Slug      string    `json:"slug" yaml:"slug"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"-"`
	Published bool      `json:"published" yaml:"published"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Validate checks the fields the store requires. Content may be empty.
func (p *Post) Validate() error {
	if strings.TrimSpace(p.Slug) == "" {
		return ErrInvalidSlug
	}
	if strings.ContainsAny(p.Slug, "/?#") {
		return ErrInvalidSlug
	}
	if strings.TrimSpace(p.Title) == "" {
		return ErrInvalidTitle
	}
	return nil
}

// PostSummary is a Post merged with its view count, ready for the list page.
type PostSummary struct {
	Post
	Views   int64  `json:"views"`
	Excerpt string `json:"excerpt"`
}
