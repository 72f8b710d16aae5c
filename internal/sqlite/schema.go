// Package sqlite implements the SQLite storage backend for inkpot posts.
// This file holds the schema DDL applied on Attach.
package sqlite

// timeLayout is the fixed-width UTC layout used for created_at so that
// lexical order in SQLite matches chronological order. The column default
// produces the same shape through strftime('%f').
const timeLayout = "2006-01-02T15:04:05.000Z"

// Schema DDL for the posts table.
const (
	createPosts = `CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    published INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);`
)

// Index DDL for the listing query.
const (
	idxPostsCreatedAt = `CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC, id DESC);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createPosts,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxPostsCreatedAt,
}
