// Package render turns stored post content into HTML.
//
// Content is Markdown (GitHub flavored) with embedded components written as
// capitalized tags, e.g. <Alert type="warn">text</Alert> or
// <FractalTree depth="8" />. Registered components are expanded before the
// Markdown pass; their children are rendered as Markdown recursively. A
// component always renders as a block: one written mid-paragraph splits the
// paragraph, and one inside a list item becomes a block of that item. Code
// is never expanded. Any other raw HTML is omitted from the output.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// AccentClass is applied to every level-2 heading.
const AccentClass = "heading-accent"

// MaxNesting bounds how deeply components may be nested inside each other.
const MaxNesting = 16

// ErrTooDeep is returned when components nest beyond MaxNesting.
var ErrTooDeep = errors.New("components nested too deeply")

// Renderer renders post content. It is safe for concurrent use once built.
type Renderer struct {
	md         goldmark.Markdown
	components *Registry
}

// New returns a renderer that expands the components in reg. A nil registry
// renders plain Markdown.
func New(reg *Registry) *Renderer {
	if reg == nil {
		reg = NewRegistry()
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(headingClass{class: []byte(AccentClass)}, 100)),
		),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(componentHTML{}, 100)),
		),
	)
	return &Renderer{md: md, components: reg}
}

// Render returns the HTML for content. Empty content renders as empty HTML.
func (r *Renderer) Render(content string) (template.HTML, error) {
	return r.render(content, 0)
}

func (r *Renderer) render(content string, depth int) (template.HTML, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil
	}
	if depth > MaxNesting {
		return "", ErrTooDeep
	}

	src, blocks, err := r.expand(content, depth)
	if err != nil {
		return "", err
	}

	source := []byte(src)
	doc := r.md.Parser().Parse(text.NewReader(source))
	if len(blocks) > 0 {
		splice(doc, source, blocks)
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, doc); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// newBlockToken returns the stand-in written into the Markdown source for
// one expanded component. Each token is unique to a single component.
func newBlockToken() string {
	return "inkpot" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// splice replaces each paragraph holding nothing but a block token with the
// component it stands for.
func splice(doc ast.Node, source []byte, blocks map[string]template.HTML) {
	var found []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindParagraph, ast.KindTextBlock:
			if _, ok := blocks[tokenText(n, source)]; ok {
				found = append(found, n)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	for _, n := range found {
		parent := n.Parent()
		parent.ReplaceChild(parent, n, &componentBlock{html: blocks[tokenText(n, source)]})
	}
}

func tokenText(n ast.Node, source []byte) string {
	if n.ChildCount() != 1 {
		return ""
	}
	t, ok := n.FirstChild().(*ast.Text)
	if !ok {
		return ""
	}
	return strings.TrimSpace(string(t.Segment.Value(source)))
}

var kindComponent = ast.NewNodeKind("Component")

// componentBlock is an expanded component placed in the document tree.
type componentBlock struct {
	ast.BaseBlock
	html template.HTML
}

func (n *componentBlock) Kind() ast.NodeKind { return kindComponent }

func (n *componentBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// componentHTML writes component blocks verbatim.
type componentHTML struct{}

func (componentHTML) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(kindComponent, func(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			_, _ = w.WriteString(string(n.(*componentBlock).html))
			_ = w.WriteByte('\n')
		}
		return ast.WalkSkipChildren, nil
	})
}

// headingClass marks level-2 headings with the accent class.
type headingClass struct {
	class []byte
}

func (h headingClass) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if hd, ok := n.(*ast.Heading); ok && hd.Level == 2 {
			hd.SetAttributeString("class", h.class)
		}
		return ast.WalkContinue, nil
	})
}
