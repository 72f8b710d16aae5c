package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/mesh-intelligence/inkpot/internal/render"
	"github.com/mesh-intelligence/inkpot/internal/widgets/activation"
	"github.com/mesh-intelligence/inkpot/internal/widgets/fractal"
	"github.com/mesh-intelligence/inkpot/pkg/types"
)

// pageData is the value every page template receives.
type pageData struct {
	PageTitle string
	SiteTitle string
	Posts     []types.PostSummary
	Post      *types.Post
	Views     int64
	Body      template.HTML
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	posts, err := s.list.List(r.Context())
	if err != nil {
		s.serverError(w, r, "listing posts", err)
		return
	}
	s.renderPage(w, r, http.StatusOK, pageIndex, pageData{
		PageTitle: s.opts.SiteTitle,
		Posts:     posts,
	})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	slug, ok := decodeSlug(chi.URLParam(r, "slug"))
	if !ok {
		s.notFound(w, r)
		return
	}

	post, err := s.posts.GetPostBySlug(r.Context(), slug)
	if errors.Is(err, types.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, "loading post", err)
		return
	}

	body, err := s.renderer.Render(post.Content)
	if err != nil {
		s.serverError(w, r, "rendering post", err)
		return
	}

	data := pageData{
		PageTitle: post.Title + " | " + s.opts.SiteTitle,
		Post:      post,
		Body:      body,
	}
	if s.opts.CountOnRead {
		n, err := s.counters.Incr(r.Context(), post.Slug)
		if err != nil {
			s.log.Warn("counting view", "slug", post.Slug, "request_id", RequestID(r.Context()), "error", err)
		} else {
			data.Views = n
		}
	}
	s.renderPage(w, r, http.StatusOK, pagePost, data)
}

// decodeSlug percent-decodes a raw path segment. Malformed escapes and
// sequences that do not decode to valid UTF-8 are rejected.
func decodeSlug(raw string) (string, bool) {
	slug, err := url.PathUnescape(raw)
	if err != nil || slug == "" || !utf8.ValidString(slug) {
		return "", false
	}
	return slug, true
}

func (s *Server) handleFractalSVG(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := render.FractalParams(q.Get("angle"), q.Get("depth"))

	var buf bytes.Buffer
	if err := fractal.WriteSVG(&buf, p); err != nil {
		s.serverError(w, r, "drawing fractal", err)
		return
	}
	writeSVG(w, buf.Bytes())
}

// activationResponse is the JSON body of the activation endpoint.
type activationResponse struct {
	Type  activation.Kind    `json:"type"`
	X     float64            `json:"x"`
	Y     float64            `json:"y"`
	Curve []activation.Point `json:"curve"`
}

func (s *Server) handleActivation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, x := render.ActivationParams(q.Get("type"), q.Get("x"))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(activationResponse{
		Type:  kind,
		X:     x,
		Y:     activation.Round(activation.Eval(kind, x), 4),
		Curve: activation.Sample(kind),
	}); err != nil {
		s.log.Warn("writing response", "error", err)
	}
}

func (s *Server) handleActivationSVG(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, x := render.ActivationParams(q.Get("type"), q.Get("x"))

	var buf bytes.Buffer
	if err := activation.WriteSVG(&buf, kind, x); err != nil {
		s.serverError(w, r, "drawing activation", err)
		return
	}
	writeSVG(w, buf.Bytes())
}

func writeSVG(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(body)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusNotFound, pageNotFound, pageData{PageTitle: "Not found | " + s.opts.SiteTitle})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, what string, err error) {
	s.log.Error(what, "path", r.URL.EscapedPath(), "request_id", RequestID(r.Context()), "error", err)
	s.renderPage(w, r, http.StatusInternalServerError, pageError, pageData{PageTitle: "Error | " + s.opts.SiteTitle})
}

// renderPage executes a page into a buffer first so a template failure can
// still produce a clean 500.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	data.SiteTitle = s.opts.SiteTitle
	var buf bytes.Buffer
	if err := s.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		s.log.Error("executing template", "page", page, "request_id", RequestID(r.Context()), "error", err)
		http.Error(w, strings.ToLower(http.StatusText(http.StatusInternalServerError)), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
