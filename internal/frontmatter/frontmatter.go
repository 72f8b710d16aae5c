// Package frontmatter parses Markdown post files that start with a YAML
// front matter block:
//
//	---
//	slug: bubble-sort
//	title: Watching bubble sort
//	published: true
//	created_at: 2025-01-02T15:04:05Z
//	---
//	Body in Markdown, with <SortingVisualizer /> components.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/inkpot/pkg/types"
)

const delimiter = "---"

// ErrNoFrontMatter is returned when the input does not open with a
// front matter block.
var ErrNoFrontMatter = errors.New("missing front matter")

// ErrUnterminated is returned when the closing delimiter is missing.
var ErrUnterminated = errors.New("unterminated front matter")

// header mirrors the YAML keys accepted in front matter.
type header struct {
	Slug      string    `yaml:"slug"`
	Title     string    `yaml:"title"`
	Published bool      `yaml:"published"`
	CreatedAt time.Time `yaml:"created_at,omitempty"`
}

// Parse splits data into front matter and body and returns the post they
// describe. fallbackSlug is used when the front matter has no slug.
func Parse(data []byte, fallbackSlug string) (*types.Post, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	if !strings.HasPrefix(text, delimiter+"\n") {
		return nil, ErrNoFrontMatter
	}
	rest := text[len(delimiter)+1:]

	var meta, body string
	switch {
	case strings.HasPrefix(rest, delimiter+"\n") || rest == delimiter:
		body = strings.TrimPrefix(strings.TrimPrefix(rest, delimiter), "\n")
	default:
		end := strings.Index(rest, "\n"+delimiter+"\n")
		if end < 0 {
			if !strings.HasSuffix(rest, "\n"+delimiter) {
				return nil, ErrUnterminated
			}
			end = len(rest) - len(delimiter) - 1
			meta, body = rest[:end], ""
		} else {
			meta, body = rest[:end], rest[end+len(delimiter)+2:]
		}
	}

	var h header
	if err := yaml.Unmarshal([]byte(meta), &h); err != nil {
		return nil, fmt.Errorf("decoding front matter: %w", err)
	}

	slug := h.Slug
	if slug == "" {
		slug = fallbackSlug
	}
	p := &types.Post{
		Slug:      slug,
		Title:     h.Title,
		Content:   strings.TrimLeft(body, "\n"),
		Published: h.Published,
		CreatedAt: h.CreatedAt,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseFile reads and parses a Markdown file. The file name without its
// extension is the fallback slug.
func ParseFile(path string) (*types.Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(path)
	p, err := Parse(data, strings.TrimSuffix(base, filepath.Ext(base)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Format renders a post back into front matter form.
func Format(p *types.Post) ([]byte, error) {
	h := header{
		Slug:      p.Slug,
		Title:     p.Title,
		Published: p.Published,
		CreatedAt: p.CreatedAt.UTC(),
	}
	meta, err := yaml.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	buf.Write(meta)
	buf.WriteString(delimiter + "\n")
	buf.WriteString(p.Content)
	return buf.Bytes(), nil
}
