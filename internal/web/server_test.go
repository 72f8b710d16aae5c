package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/inkpot/internal/counter"
	"github.com/mesh-intelligence/inkpot/pkg/types"
)

type memStore struct {
	posts []*types.Post
	err   error
}

func (m *memStore) GetPostBySlug(_ context.Context, slug string) (*types.Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, types.ErrNotFound
}

func (m *memStore) ListPosts(context.Context) ([]*types.Post, error) {
	return m.posts, m.err
}

// brokenCounter fails every call.
type brokenCounter struct{}

func (brokenCounter) Views(context.Context, string) (int64, error) {
	return 0, errors.New("redis: connection refused")
}
func (brokenCounter) Incr(context.Context, string) (int64, error) {
	return 0, errors.New("redis: connection refused")
}
func (brokenCounter) Close() error { return nil }

func samplePosts() []*types.Post {
	return []*types.Post{
		{
			ID: 2, Slug: "hello", Title: "Hello", Published: true,
			Content:   "## Intro\n\nWelcome to **inkpot**.\n\n<FractalTree depth=\"4\" />",
			CreatedAt: time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC),
		},
		{ID: 1, Slug: "你好", Title: "<Draft & more>", Content: "draft body"},
		{ID: 3, Slug: "100%", Title: "Percent", Content: "full"},
	}
}

func newTestServer(t *testing.T, store types.PostStore, views types.ViewCounter, countOnRead bool) http.Handler {
	t.Helper()
	s, err := New(store, views, Options{SiteTitle: "Test Blog", CountOnRead: countOnRead})
	require.NoError(t, err)
	return s.Handler()
}

func get(t *testing.T, h http.Handler, target string) (*http.Response, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	res := rec.Result()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func TestNewRequiresStores(t *testing.T) {
	_, err := New(nil, counter.NewMemory(), Options{})
	assert.Error(t, err)
	_, err = New(&memStore{}, nil, Options{})
	assert.Error(t, err)
}

func TestIndexListsPostsWithViews(t *testing.T) {
	views := counter.NewMemory()
	views.Set("hello", "1234")

	h := newTestServer(t, &memStore{posts: samplePosts()}, views, true)
	res, body := get(t, h, "/")

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", res.Header.Get("Content-Type"))
	assert.Contains(t, body, "<title>Test Blog</title>")
	assert.Contains(t, body, "Posts: 3")
	assert.Contains(t, body, "1,234 views")
	assert.Contains(t, body, "0 views")
	assert.Contains(t, body, "Mar 5, 2026")
	assert.Contains(t, body, "unknown date")
	assert.Contains(t, body, "Intro Welcome to inkpot.")
	assert.Contains(t, body, `href="/blog/%E4%BD%A0%E5%A5%BD"`)
	assert.Contains(t, body, "&lt;Draft &amp; more&gt;")
	assert.Less(t, strings.Index(body, "Hello"), strings.Index(body, "Percent"))
}

func TestIndexEmpty(t *testing.T) {
	h := newTestServer(t, &memStore{}, counter.NewMemory(), true)
	res, body := get(t, h, "/")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "No posts yet.")
}

func TestIndexFailsOnCounterError(t *testing.T) {
	h := newTestServer(t, &memStore{posts: samplePosts()}, brokenCounter{}, true)
	res, body := get(t, h, "/")
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Contains(t, body, "Something went wrong")
}

func TestIndexFailsOnStoreError(t *testing.T) {
	h := newTestServer(t, &memStore{err: errors.New("disk I/O error")}, counter.NewMemory(), true)
	res, _ := get(t, h, "/")
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestPostPage(t *testing.T) {
	views := counter.NewMemory()
	h := newTestServer(t, &memStore{posts: samplePosts()}, views, true)

	res, body := get(t, h, "/blog/hello")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "<title>Hello | Test Blog</title>")
	assert.Contains(t, body, `<h2 class="heading-accent">Intro</h2>`)
	assert.Contains(t, body, "<strong>inkpot</strong>")
	assert.Contains(t, body, `data-widget="FractalTree"`)
	assert.Contains(t, body, "Mar 5, 2026")
	assert.Contains(t, body, `<span class="slug-badge">hello</span>`)
	assert.Contains(t, body, "1 views")

	_, _ = get(t, h, "/blog/hello")
	n, err := views.Views(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestPostPageDecodesSlug(t *testing.T) {
	h := newTestServer(t, &memStore{posts: samplePosts()}, counter.NewMemory(), false)

	res, body := get(t, h, "/blog/%E4%BD%A0%E5%A5%BD")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "<title>&lt;Draft &amp; more&gt; | Test Blog</title>")
	assert.Contains(t, body, "unknown date")

	res, body = get(t, h, "/blog/100%25")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "<title>Percent | Test Blog</title>")
}

func TestPostPageNotFound(t *testing.T) {
	views := counter.NewMemory()
	h := newTestServer(t, &memStore{posts: samplePosts()}, views, true)

	for _, target := range []string{"/blog/missing", "/blog/%E4%BD", "/nowhere"} {
		res, body := get(t, h, target)
		assert.Equal(t, http.StatusNotFound, res.StatusCode, target)
		assert.Contains(t, body, "Post not found", target)
	}
	n, err := views.Views(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostPageStoreError(t *testing.T) {
	h := newTestServer(t, &memStore{err: errors.New("database is locked")}, counter.NewMemory(), true)
	res, _ := get(t, h, "/blog/hello")
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestPostPageWithoutCounting(t *testing.T) {
	views := counter.NewMemory()
	h := newTestServer(t, &memStore{posts: samplePosts()}, views, false)

	res, body := get(t, h, "/blog/hello")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotContains(t, body, "views")

	n, err := views.Views(context.Background(), "hello")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostPageSurvivesCounterFailure(t *testing.T) {
	h := newTestServer(t, &memStore{posts: samplePosts()}, brokenCounter{}, true)
	res, body := get(t, h, "/blog/hello")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "<title>Hello | Test Blog</title>")
}

func TestFractalSVG(t *testing.T) {
	h := newTestServer(t, &memStore{}, counter.NewMemory(), true)
	res, body := get(t, h, "/widgets/fractal.svg?angle=30&depth=3")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "image/svg+xml", res.Header.Get("Content-Type"))
	assert.Equal(t, 15, strings.Count(body, "<line "))

	_, body = get(t, h, "/widgets/fractal.svg?depth=99")
	assert.Equal(t, (1<<13)-1, strings.Count(body, "<line "))
}

func TestActivationJSON(t *testing.T) {
	h := newTestServer(t, &memStore{}, counter.NewMemory(), true)
	res, body := get(t, h, "/widgets/activation?type=relu&x=2.5")
	require.Equal(t, http.StatusOK, res.StatusCode)

	var got activationResponse
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "relu", string(got.Type))
	assert.Equal(t, 2.5, got.X)
	assert.Equal(t, 2.5, got.Y)
	assert.Len(t, got.Curve, 25)

	_, body = get(t, h, "/widgets/activation?type=bogus&x=100")
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "sigmoid", string(got.Type))
	assert.Equal(t, 6.0, got.X)
	assert.Equal(t, 0.9975, got.Y)
}

func TestActivationSVG(t *testing.T) {
	h := newTestServer(t, &memStore{}, counter.NewMemory(), true)
	res, body := get(t, h, "/widgets/activation.svg?type=tanh&x=0")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "image/svg+xml", res.Header.Get("Content-Type"))
	assert.Contains(t, body, "tanh(0) = 0.0000")
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &memStore{}, counter.NewMemory(), true)
	res, body := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestStaticAssets(t *testing.T) {
	h := newTestServer(t, &memStore{}, counter.NewMemory(), true)
	res, body := get(t, h, "/static/widgets.js")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "data-widget")
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t, &memStore{}, counter.NewMemory(), true)

	res, _ := get(t, h, "/health")
	id, err := uuid.Parse(res.Header.Get(RequestIDHeader))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	want := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, want)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, want, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s, err := New(&memStore{}, counter.NewMemory(), Options{})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	res, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
