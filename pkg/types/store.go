package types

import "context"

// PostStore is the relational side of the site.
type PostStore interface {
	// GetPostBySlug returns the post with the given slug.
	// Returns ErrNotFound if no post has that slug.
	GetPostBySlug(ctx context.Context, slug string) (*Post, error)

	// ListPosts returns every post ordered by creation time, newest first.
	ListPosts(ctx context.Context) ([]*Post, error)
}

// ViewCounter is the key-value side of the site. Counters live under
// ViewsKey(slug) and read as zero when absent.
type ViewCounter interface {
	// Views returns the stored count for slug, or 0 if none is stored.
	Views(ctx context.Context, slug string) (int64, error)

	// Incr atomically adds one to the count for slug and returns the new value.
	Incr(ctx context.Context, slug string) (int64, error)

	// Close releases the connection to the underlying store.
	Close() error
}

// ViewsKeyPrefix prefixes every view counter key.
const ViewsKeyPrefix = "post:views:"

// ViewsKey returns the counter key for a post slug.
func ViewsKey(slug string) string {
	return ViewsKeyPrefix + slug
}
