package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/inkpot/internal/sqlite"
)

// importReport is the --json output of the import command.
type importReport struct {
	Files   int  `json:"files"`
	Posts   int  `json:"posts"`
	Skipped int  `json:"skipped"`
	Created int  `json:"created"`
	Updated int  `json:"updated"`
	DryRun  bool `json:"dry_run"`
}

func newImportCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <path>...",
		Short: "Import posts from JSONL or Markdown files",
		Long: `Import reads posts from files and directories and upserts them by slug.

JSONL files hold one post object per line. Markdown files (.md, .mdx) start
with a YAML front matter block:

  ---
  slug: hello-world
  title: Hello, world
  published: true
  ---
  Post body in **Markdown**.

Directories are walked recursively. All posts are written in one
transaction: either every post is stored or none is.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImport(cmd, args, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and validate without writing")
	return cmd
}

func (a *app) runImport(cmd *cobra.Command, args []string, dryRun bool) error {
	posts, report, err := sqlite.LoadPosts(args...)
	if err != nil {
		return err
	}
	for _, p := range posts {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("post %q: %w", p.Slug, err)
		}
	}
	a.log.Debug("loaded posts", "files", report.Files, "posts", len(posts), "skipped", report.Skipped)

	res := importReport{Files: report.Files, Posts: len(posts), Skipped: report.Skipped, DryRun: dryRun}
	if !dryRun && len(posts) > 0 {
		backend, err := a.attachBackend()
		if err != nil {
			return err
		}
		defer backend.Detach()

		r, err := backend.ImportPosts(cmd.Context(), posts)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		res.Created, res.Updated = r.Created, r.Updated
	}

	if a.flags.jsonMode {
		return writeJSON(cmd, res)
	}
	verb := "imported"
	if dryRun {
		verb = "would import"
	}
	fmt.Fprintf(out(cmd), "%s %d posts from %d files (created %d, updated %d, skipped %d lines)\n",
		verb, res.Posts, res.Files, res.Created, res.Updated, res.Skipped)
	return nil
}
