package render

import (
	"bytes"
	"html/template"
	"net/url"
	"strconv"

	"github.com/mesh-intelligence/inkpot/internal/widgets/activation"
	"github.com/mesh-intelligence/inkpot/internal/widgets/fractal"
)

// Endpoints serving the server-drawn widget previews.
const (
	FractalSVGPath    = "/widgets/fractal.svg"
	ActivationSVGPath = "/widgets/activation.svg"
	ActivationPath    = "/widgets/activation"
)

// Alert kinds.
const (
	AlertInfo = "info"
	AlertWarn = "warn"
)

var componentTmpl = template.Must(template.New("components").Parse(`
{{- define "alert" -}}
<div class="alert alert-{{.Kind}}" role="note"><strong class="alert-title">{{.Title}}</strong>{{.Children}}</div>
{{- end -}}
{{- define "widget" -}}
<div class="widget-placeholder {{.Height}}" data-widget="{{.Name}}"
{{- range .Attrs}} {{.}}{{end}}>
{{- if .Preview}}<img class="widget-preview" src="{{.Preview}}" alt="{{.Alt}}">{{end -}}
<span class="widget-loading">Loading Component...</span></div>
{{- end -}}
`))

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := componentTmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Alert renders a callout box. The type prop selects info (default) or warn.
func Alert(props Props, children template.HTML) (template.HTML, error) {
	data := struct {
		Kind, Title string
		Children    template.HTML
	}{Kind: AlertInfo, Title: "ℹ️ Note", Children: children}
	if props.Get("type", AlertInfo) == AlertWarn {
		data.Kind, data.Title = AlertWarn, "⚠️ Warning"
	}
	return execute("alert", data)
}

type widget struct {
	Name    string
	Height  string
	Attrs   []template.HTMLAttr
	Preview string
	Alt     string
}

func dataAttr(key, value string) template.HTMLAttr {
	return template.HTMLAttr(`data-` + key + `="` + template.HTMLEscapeString(value) + `"`)
}

// SortingVisualizer renders the placeholder for the bubble-sort replay.
func SortingVisualizer(Props, template.HTML) (template.HTML, error) {
	return execute("widget", widget{Name: "SortingVisualizer", Height: "h-48"})
}

// FractalTree renders the placeholder for the fractal tree, with a
// server-drawn preview for the requested angle and depth.
func FractalTree(props Props, _ template.HTML) (template.HTML, error) {
	p := FractalParams(props.Get("angle", ""), props.Get("depth", ""))
	angle := strconv.FormatFloat(p.Angle, 'f', -1, 64)
	depth := strconv.Itoa(p.Depth)
	q := url.Values{"angle": {angle}, "depth": {depth}}
	return execute("widget", widget{
		Name:    "FractalTree",
		Height:  "h-96",
		Attrs:   []template.HTMLAttr{dataAttr("angle", angle), dataAttr("depth", depth)},
		Preview: FractalSVGPath + "?" + q.Encode(),
		Alt:     "Fractal tree",
	})
}

// ActivationPlayground renders the placeholder for the activation plot, with
// a server-drawn preview of the selected function.
func ActivationPlayground(props Props, _ template.HTML) (template.HTML, error) {
	kind, x := ActivationParams(props.Get("type", ""), props.Get("x", ""))
	xs := strconv.FormatFloat(x, 'f', -1, 64)
	q := url.Values{"type": {string(kind)}, "x": {xs}}
	return execute("widget", widget{
		Name:    "ActivationPlayground",
		Height:  "h-64",
		Attrs:   []template.HTMLAttr{dataAttr("type", string(kind)), dataAttr("x", xs)},
		Preview: ActivationSVGPath + "?" + q.Encode(),
		Alt:     string(kind) + " activation",
	})
}

// FractalParams parses fractal parameters as written in content or a query
// string. Missing or malformed values take the defaults; the result is
// clamped.
func FractalParams(angle, depth string) fractal.Params {
	p := fractal.Params{Angle: fractal.DefaultAngle, Depth: fractal.DefaultDepth}
	if v, err := strconv.ParseFloat(angle, 64); err == nil {
		p.Angle = v
	}
	if v, err := strconv.Atoi(depth); err == nil {
		p.Depth = v
	}
	return p.Clamp()
}

// ActivationParams parses the activation kind and input. Unknown kinds fall
// back to sigmoid and x is clamped to the sampling domain.
func ActivationParams(kind, x string) (activation.Kind, float64) {
	k := activation.Kind(kind)
	if !k.Valid() {
		k = activation.Sigmoid
	}
	v, err := strconv.ParseFloat(x, 64)
	if err != nil {
		v = 0
	}
	return k, activation.ClampX(v)
}

// DefaultRegistry returns a registry with every built-in component.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("Alert", Alert)
	r.Register("SortingVisualizer", SortingVisualizer)
	r.Register("ActivationPlayground", ActivationPlayground)
	r.Register("FractalTree", FractalTree)
	return r
}
