package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/inkpot/internal/frontmatter"
	"github.com/mesh-intelligence/inkpot/internal/listing"
	"github.com/mesh-intelligence/inkpot/internal/render"
	"github.com/mesh-intelligence/inkpot/internal/sqlite"
	"github.com/mesh-intelligence/inkpot/pkg/types"
)

// Export formats.
const (
	formatJSONL    = "jsonl"
	formatMarkdown = "md"
)

func newPostsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Inspect and manage stored posts",
	}
	cmd.AddCommand(newPostsListCmd(a))
	cmd.AddCommand(newPostsCreateCmd(a))
	cmd.AddCommand(newPostsShowCmd(a))
	cmd.AddCommand(newPostsExportCmd(a))
	cmd.AddCommand(newPostsDeleteCmd(a))
	return cmd
}

func newPostsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first, with view counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			views, err := a.openCounter()
			if err != nil {
				return err
			}
			defer views.Close()

			summaries, err := listing.New(backend, views).List(cmd.Context())
			if err != nil {
				return err
			}

			if a.flags.jsonMode {
				return writeJSON(cmd, summaries)
			}
			tw := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tTITLE\tSTATUS\tVIEWS\tCREATED")
			for _, s := range summaries {
				status := "draft"
				if s.Published {
					status = "published"
				}
				created := "unknown"
				if !s.CreatedAt.IsZero() {
					created = humanize.Time(s.CreatedAt)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Slug, s.Title, status, humanize.Comma(s.Views), created)
			}
			return tw.Flush()
		},
	}
}

func newPostsCreateCmd(a *app) *cobra.Command {
	var (
		title     string
		bodyFile  string
		published bool
	)
	cmd := &cobra.Command{
		Use:   "create <slug>",
		Short: "Create a new post; fails if the slug is already taken",
		Long: "Create stores one new post. The body is read from --file, or left empty.\n" +
			"Unlike import it never overwrites an existing post.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			post := &types.Post{Slug: args[0], Title: title, Published: published}
			if bodyFile != "" {
				data, err := os.ReadFile(bodyFile)
				if err != nil {
					return fmt.Errorf("reading %s: %w", bodyFile, err)
				}
				post.Content = string(data)
			}

			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			created, err := backend.CreatePost(cmd.Context(), post)
			switch {
			case errors.Is(err, types.ErrDuplicate):
				return fmt.Errorf("post %q already exists", args[0])
			case err != nil:
				return err
			}

			if a.flags.jsonMode {
				return writeJSON(cmd, created)
			}
			fmt.Fprintf(out(cmd), "created %s (id %d)\n", created.Slug, created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "post title (required)")
	cmd.Flags().StringVar(&bodyFile, "file", "", "read the Markdown body from this file")
	cmd.Flags().BoolVar(&published, "published", false, "mark the post as published")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newPostsShowCmd(a *app) *cobra.Command {
	var asHTML bool
	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: "Print one post as front matter Markdown, JSON, or rendered HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			post, err := backend.GetPostBySlug(cmd.Context(), args[0])
			if isEntityNotFound(err) {
				return fmt.Errorf("post %q not found", args[0])
			}
			if err != nil {
				return err
			}

			switch {
			case a.flags.jsonMode:
				return writeJSON(cmd, post)
			case asHTML:
				html, err := render.New(render.DefaultRegistry()).Render(post.Content)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out(cmd), html)
				return err
			default:
				data, err := frontmatter.Format(post)
				if err != nil {
					return err
				}
				_, err = out(cmd).Write(data)
				return err
			}
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "print the rendered body instead of the source")
	return cmd
}

func newPostsExportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Export every post to a JSONL file or a directory of Markdown files",
		Long: "Export writes posts in a form that import reads back.\n" +
			"With --format jsonl (default) path is a file; with --format md it is a directory\n" +
			"that receives one <slug>.md file per post.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			posts, err := backend.ListPosts(cmd.Context())
			if err != nil {
				return err
			}

			switch format {
			case formatJSONL:
				if err := sqlite.WritePostsJSONL(args[0], posts); err != nil {
					return sysError(err)
				}
			case formatMarkdown:
				if err := os.MkdirAll(args[0], 0o755); err != nil {
					return sysError(err)
				}
				for _, p := range posts {
					data, err := frontmatter.Format(p)
					if err != nil {
						return err
					}
					if err := os.WriteFile(filepath.Join(args[0], p.Slug+".md"), data, 0o644); err != nil {
						return sysError(err)
					}
				}
			default:
				return fmt.Errorf("unknown format %q (valid: %s, %s)", format, formatJSONL, formatMarkdown)
			}
			fmt.Fprintf(out(cmd), "exported %d posts to %s\n", len(posts), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", formatJSONL, "output format: jsonl or md")
	return cmd
}

func newPostsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			if err := backend.DeletePost(cmd.Context(), args[0]); err != nil {
				if isEntityNotFound(err) {
					return fmt.Errorf("post %q not found", args[0])
				}
				return err
			}
			fmt.Fprintf(out(cmd), "deleted %s\n", args[0])
			return nil
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(out(cmd))
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
