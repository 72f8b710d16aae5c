// Package listing builds the front-page post list: every post from the
// relational store joined with its view count from the counter store.
package listing

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/inkpot/pkg/types"
)

// Aggregator joins posts with their view counts.
type Aggregator struct {
	Posts    types.PostStore
	Counters types.ViewCounter
}

// New returns an Aggregator over the given stores.
func New(posts types.PostStore, counters types.ViewCounter) *Aggregator {
	return &Aggregator{Posts: posts, Counters: counters}
}

// List returns one summary per stored post, newest first. Counter reads run
// concurrently; a post with no counter has zero views. Any store or counter
// failure fails the whole call.
func (a *Aggregator) List(ctx context.Context) ([]types.PostSummary, error) {
	posts, err := a.Posts.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	out := make([]types.PostSummary, len(posts))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range posts {
		out[i] = types.PostSummary{Post: *p, Excerpt: Excerpt(p.Content)}
		g.Go(func() error {
			n, err := a.Counters.Views(gctx, p.Slug)
			if err != nil {
				return fmt.Errorf("reading views for %q: %w", p.Slug, err)
			}
			out[i].Views = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

var (
	htmlTag   = regexp.MustCompile(`<[^>]*>`)
	mdMarks   = regexp.MustCompile("[#*`_~\\[\\]]")
	bareLink  = regexp.MustCompile(`\(https?://[^)]+\)`)
	lineBreak = regexp.MustCompile(`\n+`)
)

// Excerpt reduces rich-text content to plain text for the list page.
func Excerpt(content string) string {
	if content == "" {
		return ""
	}
	s := htmlTag.ReplaceAllString(content, "")
	s = mdMarks.ReplaceAllString(s, "")
	s = bareLink.ReplaceAllString(s, "")
	s = lineBreak.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
