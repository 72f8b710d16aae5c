// Package web serves the site: the post list, post pages, the widget
// preview endpoints, and a health check.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mesh-intelligence/inkpot/internal/listing"
	"github.com/mesh-intelligence/inkpot/internal/logging"
	"github.com/mesh-intelligence/inkpot/internal/render"
	"github.com/mesh-intelligence/inkpot/pkg/types"
)

// DefaultSiteTitle is used when Options.SiteTitle is empty.
const DefaultSiteTitle = "inkpot"

// Server timeouts.
const (
	ReadHeaderTimeout = 5 * time.Second
	ShutdownTimeout   = 10 * time.Second
)

// Options configure a Server.
type Options struct {
	SiteTitle string
	// CountOnRead increments a post's view counter each time its page is
	// served.
	CountOnRead bool
	Logger      *slog.Logger
	// Components overrides the component registry used for post bodies.
	Components *render.Registry
}

// Server holds the site's collaborators. Build one with New.
type Server struct {
	posts    types.PostStore
	counters types.ViewCounter
	list     *listing.Aggregator
	renderer *render.Renderer
	pages    map[string]*template.Template
	opts     Options
	log      *slog.Logger
}

// New returns a server over the given stores.
func New(posts types.PostStore, counters types.ViewCounter, opts Options) (*Server, error) {
	if posts == nil || counters == nil {
		return nil, errors.New("web: post store and view counter are required")
	}
	if opts.SiteTitle == "" {
		opts.SiteTitle = DefaultSiteTitle
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Components == nil {
		opts.Components = render.DefaultRegistry()
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Server{
		posts:    posts,
		counters: counters,
		list:     listing.New(posts, counters),
		renderer: render.New(opts.Components),
		pages:    pages,
		opts:     opts,
		log:      opts.Logger,
	}, nil
}

// Handler returns the site's router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(routeOnEscapedPath)
	r.Use(withRequestID)
	r.Use(accessLog(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Get("/blog/{slug}", s.handlePost)
	r.Get(render.FractalSVGPath, s.handleFractalSVG)
	r.Get(render.ActivationPath, s.handleActivation)
	r.Get(render.ActivationSVGPath, s.handleActivationSVG)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticFiles())))
	r.NotFound(s.notFound)
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
