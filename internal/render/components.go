package render

import (
	"html/template"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// Props are the attributes written on a component tag. An attribute given
// without a value reads as "true".
type Props map[string]string

// Get returns the prop named key, or def when it is absent or blank.
func (p Props) Get(key, def string) string {
	if v, ok := p[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

// Component renders one tag. Children is the already rendered HTML between
// the opening and closing tags, empty for self-closing tags.
type Component func(props Props, children template.HTML) (template.HTML, error)

// Registry maps capitalized tag names to components.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Component
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Component)}
}

// Register binds name to c, replacing any earlier binding.
func (r *Registry) Register(name string, c Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[name] = c
}

// Lookup returns the component bound to name.
func (r *Registry) Lookup(name string) (Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.m[name]
	return c, ok
}

// Names returns the registered tag names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.m))
}

var (
	openTag = regexp.MustCompile(`^<([A-Z][A-Za-z0-9]*)((?:\s+[A-Za-z_:][-A-Za-z0-9_:.]*(?:\s*=\s*(?:"[^"]*"|'[^']*'|\{[^}]*\}))?)*)\s*(/?)>`)
	attr    = regexp.MustCompile(`([A-Za-z_:][-A-Za-z0-9_:.]*)(?:\s*=\s*("[^"]*"|'[^']*'|\{[^}]*\}))?`)
)

// tag is a parsed opening tag.
type tag struct {
	name        string
	props       Props
	selfClosing bool
	length      int
}

func parseOpenTag(s string) (tag, bool) {
	m := openTag.FindStringSubmatch(s)
	if m == nil {
		return tag{}, false
	}
	t := tag{name: m[1], props: Props{}, selfClosing: m[3] == "/", length: len(m[0])}
	for _, a := range attr.FindAllStringSubmatch(m[2], -1) {
		t.props[a[1]] = attrValue(a[2])
	}
	return t, true
}

func attrValue(raw string) string {
	switch {
	case raw == "":
		return "true"
	case raw[0] == '{':
		v := strings.TrimSpace(raw[1 : len(raw)-1])
		if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
			return v[1 : len(v)-1]
		}
		return v
	default:
		return raw[1 : len(raw)-1]
	}
}

// findClose returns the start and end offsets of the closing tag matching an
// opening tag named name, searching s from the first byte after that opening
// tag. Nested tags of the same name are balanced.
func findClose(s, name string) (start, end int, ok bool) {
	closing := "</" + name
	depth := 1
	for i := 0; i < len(s); i++ {
		if s[i] != '<' {
			continue
		}
		rest := s[i:]
		if strings.HasPrefix(rest, closing) {
			j := len(closing)
			for j < len(rest) && (rest[j] == ' ' || rest[j] == '\t') {
				j++
			}
			if j < len(rest) && rest[j] == '>' {
				depth--
				if depth == 0 {
					return i, i + j + 1, true
				}
				i += j
			}
			continue
		}
		if t, ok := parseOpenTag(rest); ok && t.name == name {
			if !t.selfClosing {
				depth++
			}
			i += t.length - 1
		}
	}
	return 0, 0, false
}

// expand replaces every registered component in src with a block token and
// returns the rendered HTML for each token. Fenced and indented code blocks
// and inline code spans are copied untouched. A component inside a list item
// stays in that item. Unregistered or unterminated tags are left for the
// Markdown pass.
func (r *Renderer) expand(src string, depth int) (string, map[string]template.HTML, error) {
	var (
		b      strings.Builder
		blocks map[string]template.HTML
		fence  string
	)
	lines := blockState{prevBlank: true}
	lineStart := true
	for i := 0; i < len(src); {
		if lineStart {
			line := src[i:]
			if nl := strings.IndexByte(line, '\n'); nl >= 0 {
				line = line[:nl+1]
			}
			trimmed := strings.TrimLeft(line, " \t")
			verbatim := true
			switch {
			case fence != "":
				if strings.HasPrefix(trimmed, fence) {
					fence = ""
				}
				lines.prevBlank = false
			case lines.next(line):
			case strings.HasPrefix(trimmed, "```"), strings.HasPrefix(trimmed, "~~~"):
				fence = trimmed[:3]
			default:
				verbatim = false
			}
			if verbatim {
				b.WriteString(line)
				i += len(line)
				continue
			}
		}

		c := src[i]
		switch c {
		case '`':
			n := 1
			for i+n < len(src) && src[i+n] == '`' {
				n++
			}
			run := src[i : i+n]
			if end := strings.Index(src[i+n:], run); end >= 0 {
				span := src[i : i+n+end+n]
				b.WriteString(span)
				i += len(span)
				lineStart = strings.HasSuffix(span, "\n")
				continue
			}
			b.WriteString(run)
			i += n
			lineStart = false
			continue
		case '<':
			html, consumed, ok, err := r.component(src[i:], depth)
			if err != nil {
				return "", nil, err
			}
			if ok {
				if blocks == nil {
					blocks = make(map[string]template.HTML)
				}
				tok := newBlockToken()
				blocks[tok] = html
				indent := strings.Repeat(" ", lines.indent())
				b.WriteString("\n\n" + indent + tok + "\n\n" + indent)
				i += consumed
				lineStart = false
				lines.prevBlank = true
				continue
			}
		}
		b.WriteByte(c)
		lineStart = c == '\n'
		i++
	}
	return b.String(), blocks, nil
}

var listMarker = regexp.MustCompile(`^([ \t]*(?:[-*+]|[0-9]{1,9}[.)]))([ \t]+)\S`)

// blockState follows just enough Markdown block structure, one source line
// at a time, to spot indented code and the content column of open list
// items.
type blockState struct {
	items     []int
	code      bool
	prevBlank bool
}

// indent is the content column of the innermost open list item.
func (s *blockState) indent() int {
	if len(s.items) == 0 {
		return 0
	}
	return s.items[len(s.items)-1]
}

// next consumes line and reports whether it belongs to an indented code
// block.
func (s *blockState) next(line string) bool {
	blank := strings.TrimSpace(line) == ""
	width := indentWidth(line)
	prevBlank := s.prevBlank
	s.prevBlank = blank

	if s.code {
		if blank || width >= s.indent()+4 {
			return true
		}
		s.code = false
	}
	if blank {
		return false
	}
	if prevBlank && width >= s.indent()+4 {
		s.code = true
		return true
	}
	if m := listMarker.FindStringSubmatch(line); m != nil {
		s.close(width)
		gap := indentWidth(m[2])
		if gap > 4 {
			gap = 1
		}
		s.items = append(s.items, indentWidth(m[1])+len(strings.TrimLeft(m[1], " \t"))+gap)
		return false
	}
	if prevBlank {
		s.close(width)
	}
	return false
}

// close ends every list item whose content column is right of width.
func (s *blockState) close(width int) {
	for len(s.items) > 0 && s.items[len(s.items)-1] > width {
		s.items = s.items[:len(s.items)-1]
	}
}

// indentWidth measures the leading whitespace of line in columns, with tabs
// advancing to the next multiple of four.
func indentWidth(line string) int {
	w := 0
	for _, c := range line {
		switch c {
		case ' ':
			w++
		case '\t':
			w += 4 - w%4
		default:
			return w
		}
	}
	return w
}

// component renders the registered component whose opening tag starts s.
func (r *Renderer) component(s string, depth int) (html template.HTML, consumed int, ok bool, err error) {
	t, ok := parseOpenTag(s)
	if !ok {
		return "", 0, false, nil
	}
	comp, ok := r.components.Lookup(t.name)
	if !ok {
		return "", 0, false, nil
	}

	var children template.HTML
	consumed = t.length
	if !t.selfClosing {
		start, end, found := findClose(s[t.length:], t.name)
		if !found {
			return "", 0, false, nil
		}
		if children, err = r.render(s[t.length:t.length+start], depth+1); err != nil {
			return "", 0, false, err
		}
		consumed = t.length + end
	}

	html, err = comp(t.props, children)
	if err != nil {
		return "", 0, false, err
	}
	return html, consumed, true, nil
}
