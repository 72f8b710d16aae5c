// This file implements collecting posts from files on disk for import.
package sqlite

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mesh-intelligence/inkpot/internal/frontmatter"
	"github.com/mesh-intelligence/inkpot/pkg/types"
)

// LoadReport summarizes a LoadPosts run.
type LoadReport struct {
	Files   int // files read
	Skipped int // malformed JSONL lines skipped
}

// markdownExts lists the extensions read through front matter parsing.
var markdownExts = map[string]bool{
	".md":  true,
	".mdx": true,
}

// LoadPosts collects posts from the given paths. A path may be a JSONL file,
// a Markdown file with front matter, or a directory, which is walked for
// both kinds in lexical order. Other files are ignored. A Markdown file that
// fails to parse aborts the load.
func LoadPosts(paths ...string) ([]*types.Post, LoadReport, error) {
	var (
		posts  []*types.Post
		report LoadReport
	)

	for _, root := range paths {
		files, err := collectFiles(root)
		if err != nil {
			return nil, report, err
		}
		for _, path := range files {
			loaded, skipped, err := loadFile(path)
			if err != nil {
				return nil, report, err
			}
			report.Files++
			report.Skipped += skipped
			posts = append(posts, loaded...)
		}
	}
	return posts, report, nil
}

func collectFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if isPostFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func isPostFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jsonl" || markdownExts[ext]
}

func loadFile(path string) ([]*types.Post, int, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".jsonl":
		return ReadPostsJSONL(path)
	case markdownExts[ext]:
		p, err := frontmatter.ParseFile(path)
		if err != nil {
			return nil, 0, err
		}
		return []*types.Post{p}, 0, nil
	default:
		return nil, 0, fmt.Errorf("%s: unsupported file type %q", path, ext)
	}
}
