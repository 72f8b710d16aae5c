package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names.
const (
	pageIndex    = "index"
	pagePost     = "post"
	pageNotFound = "notfound"
	pageError    = "error"
)

var templateFuncs = template.FuncMap{
	"comma":      func(n int64) string { return humanize.Comma(n) },
	"ago":        humanize.Time,
	"date":       formatDate,
	"pathEscape": url.PathEscape,
}

// formatDate renders a post date, or "unknown date" for the zero time.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown date"
	}
	return t.Format("Jan 2, 2006")
}

// parsePages builds one template set per page, each sharing the layout.
func parsePages() (map[string]*template.Template, error) {
	base, err := template.New("base").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}
	pages := make(map[string]*template.Template)
	for _, name := range []string{pageIndex, pagePost, pageNotFound, pageError} {
		t, err := template.Must(base.Clone()).ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s page: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

func staticFiles() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
