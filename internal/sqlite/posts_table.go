package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/inkpot/pkg/types"
)

const selectPostColumns = "SELECT id, slug, title, content, published, created_at FROM posts"

// GetPostBySlug retrieves a post by its slug.
// Returns ErrInvalidSlug if slug is empty, ErrNotFound if no post matches.
func (b *Backend) GetPostBySlug(ctx context.Context, slug string) (*types.Post, error) {
	if slug == "" {
		return nil, types.ErrInvalidSlug
	}

	var p *types.Post
	err := b.withRead(ctx, func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, selectPostColumns+" WHERE slug = ? LIMIT 1", slug)
		var err error
		p, err = scanPost(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPosts returns all posts, newest first. Posts created in the same
// millisecond are ordered by id, newest first.
func (b *Backend) ListPosts(ctx context.Context) ([]*types.Post, error) {
	var posts []*types.Post
	err := b.withRead(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, selectPostColumns+" ORDER BY created_at DESC, id DESC")
		if err != nil {
			return fmt.Errorf("querying posts: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanPost(rows)
			if err != nil {
				return err
			}
			posts = append(posts, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost inserts a new post and returns it with ID and CreatedAt filled
// in. A zero CreatedAt takes the column default (now).
// Returns ErrDuplicate if the slug is taken.
func (b *Backend) CreatePost(ctx context.Context, p *types.Post) (*types.Post, error) {
	if p == nil {
		return nil, types.ErrInvalidPost
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning insert: %w", err)
	}
	defer tx.Rollback()

	id, err := insertPost(ctx, tx, p)
	if err != nil {
		return nil, err
	}
	created, err := scanPost(tx.QueryRowContext(ctx, selectPostColumns+" WHERE id = ?", id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing insert: %w", err)
	}
	return created, nil
}

// ImportResult reports what ImportPosts changed.
type ImportResult struct {
	Created int
	Updated int
}

// ImportPosts writes posts in one transaction: either every post is stored
// or none is. Posts whose slug already exists have their title, content and
// published flag replaced; their id and created_at are kept unless the
// incoming post carries a CreatedAt.
func (b *Backend) ImportPosts(ctx context.Context, posts []*types.Post) (ImportResult, error) {
	var res ImportResult
	for i, p := range posts {
		if p == nil {
			return res, fmt.Errorf("post %d: %w", i, types.ErrInvalidPost)
		}
		if err := p.Validate(); err != nil {
			return res, fmt.Errorf("post %d (%q): %w", i, p.Slug, err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := b.conn()
	if err != nil {
		return res, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range posts {
		var id int64
		err := tx.QueryRowContext(ctx, "SELECT id FROM posts WHERE slug = ?", p.Slug).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := insertPost(ctx, tx, p); err != nil {
				return ImportResult{}, err
			}
			res.Created++
		case err != nil:
			return ImportResult{}, fmt.Errorf("looking up %q: %w", p.Slug, err)
		default:
			if err := updatePost(ctx, tx, id, p); err != nil {
				return ImportResult{}, err
			}
			res.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("committing import transaction: %w", err)
	}
	return res, nil
}

// DeletePost removes the post with the given slug.
// Returns ErrNotFound if no post matches.
func (b *Backend) DeletePost(ctx context.Context, slug string) error {
	if slug == "" {
		return types.ErrInvalidSlug
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := b.conn()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, "DELETE FROM posts WHERE slug = ?", slug)
	if err != nil {
		return fmt.Errorf("deleting %q: %w", slug, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %q: %w", slug, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

func insertPost(ctx context.Context, tx *sql.Tx, p *types.Post) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if p.CreatedAt.IsZero() {
		res, err = tx.ExecContext(ctx,
			"INSERT INTO posts (slug, title, content, published) VALUES (?, ?, ?, ?)",
			p.Slug, p.Title, p.Content, p.Published)
	} else {
		res, err = tx.ExecContext(ctx,
			"INSERT INTO posts (slug, title, content, published, created_at) VALUES (?, ?, ?, ?, ?)",
			p.Slug, p.Title, p.Content, p.Published, formatTime(p.CreatedAt))
	}
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("inserting %q: %w", p.Slug, types.ErrDuplicate)
		}
		return 0, fmt.Errorf("inserting %q: %w", p.Slug, err)
	}
	return res.LastInsertId()
}

func updatePost(ctx context.Context, tx *sql.Tx, id int64, p *types.Post) error {
	var err error
	if p.CreatedAt.IsZero() {
		_, err = tx.ExecContext(ctx,
			"UPDATE posts SET title = ?, content = ?, published = ? WHERE id = ?",
			p.Title, p.Content, p.Published, id)
	} else {
		_, err = tx.ExecContext(ctx,
			"UPDATE posts SET title = ?, content = ?, published = ?, created_at = ? WHERE id = ?",
			p.Title, p.Content, p.Published, formatTime(p.CreatedAt), id)
	}
	if err != nil {
		return fmt.Errorf("updating %q: %w", p.Slug, err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*types.Post, error) {
	var p types.Post
	var createdAt string
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Content, &p.Published, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning post: %w", err)
	}
	p.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing post created_at: %w", err)
	}
	return &p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts the column layout and plain RFC 3339, which older
// imports may have written.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
