package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowgen/internal/domain"
)

type fakeGitHub struct {
	server    *httptest.Server
	rawHits   atomic.Int32
	listHits  atomic.Int32
	lastAuth  atomic.Value
	lastQuery atomic.Value
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{}
	mux := http.NewServeMux()

	entries := func(w http.ResponseWriter, v []contentEntry) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("/repos/acme/shop/contents", func(w http.ResponseWriter, r *http.Request) {
		f.listHits.Add(1)
		f.lastAuth.Store(r.Header.Get("Authorization"))
		f.lastQuery.Store(r.URL.RawQuery)
		entries(w, []contentEntry{
			{Name: "src", Path: "src", Type: "dir"},
			{Name: "node_modules", Path: "node_modules", Type: "dir"},
			{Name: "yarn.lock", Path: "yarn.lock", Type: "file", DownloadURL: f.server.URL + "/raw/yarn.lock"},
			{Name: "link", Path: "link", Type: "symlink"},
		})
	})
	mux.HandleFunc("/repos/acme/shop/contents/src", func(w http.ResponseWriter, r *http.Request) {
		f.listHits.Add(1)
		entries(w, []contentEntry{
			{Name: "App.tsx", Path: "src/App.tsx", Type: "file", DownloadURL: f.server.URL + "/raw/src/App.tsx"},
		})
	})
	mux.HandleFunc("/repos/acme/shop/contents/src/Nav.tsx", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github.raw", r.Header.Get("Accept"))
		w.Write([]byte("export const Nav = 1"))
	})
	mux.HandleFunc("/repos/acme/shop/contents/private", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/raw/src/App.tsx", func(w http.ResponseWriter, r *http.Request) {
		f.rawHits.Add(1)
		w.Write([]byte("import Nav from './Nav'"))
	})
	mux.HandleFunc("/raw/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func newTestSource(t *testing.T, f *fakeGitHub, opts Options) *Source {
	t.Helper()
	opts.Owner = "acme"
	opts.Repo = "shop"
	opts.BaseURL = f.server.URL
	s, err := NewSource(opts)
	require.NoError(t, err)
	return s
}

func TestNewSource_RequiresRepositoryIdentity(t *testing.T) {
	_, err := NewSource(Options{Repo: "shop"})
	var ce *domain.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "remote.owner", ce.Field)

	_, err = NewSource(Options{Owner: "acme"})
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSource_ListChildren(t *testing.T) {
	f := newFakeGitHub(t)
	s := newTestSource(t, f, Options{
		Token:        "secret",
		Ref:          "main",
		ExcludeDirs:  []string{"**/node_modules"},
		ExcludeFiles: []string{"**/yarn.lock"},
	})

	items, err := s.ListChildren(context.Background(), s.Root())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.SourceItem{Name: "src", Path: "src", Kind: domain.KindDirectory}, items[0])
	assert.Equal(t, "Bearer secret", f.lastAuth.Load())
	assert.Equal(t, "ref=main", f.lastQuery.Load())

	children, err := s.ListChildren(context.Background(), items[0])
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "src/App.tsx", children[0].Path)
	assert.Nil(t, children[0].Content)
	assert.Equal(t, f.server.URL+"/raw/src/App.tsx", children[0].DownloadRef)

	// listings are cached
	_, err = s.ListChildren(context.Background(), items[0])
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.listHits.Load())
}

func TestSource_ReadFileIsCached(t *testing.T) {
	f := newFakeGitHub(t)
	s := newTestSource(t, f, Options{})
	item := domain.SourceItem{Name: "App.tsx", Path: "src/App.tsx", Kind: domain.KindFile, DownloadRef: f.server.URL + "/raw/src/App.tsx"}

	for i := 0; i < 2; i++ {
		content, err := s.ReadFile(context.Background(), item)
		require.NoError(t, err)
		assert.Equal(t, "import Nav from './Nav'", content)
	}
	assert.Equal(t, int32(1), f.rawHits.Load())
}

func TestSource_ReadFileWithoutDownloadRef(t *testing.T) {
	f := newFakeGitHub(t)
	s := newTestSource(t, f, Options{})

	content, err := s.ReadFile(context.Background(), domain.SourceItem{Name: "Nav.tsx", Path: "src/Nav.tsx", Kind: domain.KindFile})
	require.NoError(t, err)
	assert.Equal(t, "export const Nav = 1", content)
}

func TestSource_Errors(t *testing.T) {
	f := newFakeGitHub(t)
	s := newTestSource(t, f, Options{})

	_, err := s.ListChildren(context.Background(), domain.SourceItem{Name: "private", Path: "private", Kind: domain.KindDirectory})
	var dae *domain.DataAccessError
	require.True(t, errors.As(err, &dae))
	assert.Equal(t, "list", dae.Op)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = s.ListChildren(context.Background(), domain.SourceItem{Name: "missing", Path: "missing", Kind: domain.KindDirectory})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.ReadFile(context.Background(), domain.SourceItem{Name: "broken", Path: "broken", Kind: domain.KindFile, DownloadRef: f.server.URL + "/raw/broken"})
	require.True(t, errors.As(err, &dae))
	assert.Equal(t, "read", dae.Op)
	assert.Contains(t, err.Error(), "status 500")
}

func TestSource_Describe(t *testing.T) {
	f := newFakeGitHub(t)
	s := newTestSource(t, f, Options{Path: "/web/", Ref: "v1"})

	assert.Equal(t, "github.com/acme/shop/web@v1", s.Describe())
	assert.Equal(t, domain.SourceItem{Name: "web", Path: "web", Kind: domain.KindDirectory}, s.Root())
}
