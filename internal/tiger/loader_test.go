package tiger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/census-cli/internal/fetcher"
	"github.com/sells-group/census-cli/internal/resilience"
)

// tigerServer serves one archive per path and counts requests.
type tigerServer struct {
	*httptest.Server

	mu       sync.Mutex
	archives map[string][]byte
	hits     map[string]int
	failures int // 503s to return before serving
}

func newTigerServer(t *testing.T, archives map[string][]byte) *tigerServer {
	t.Helper()
	s := &tigerServer{archives: archives, hits: map[string]int{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.hits[r.URL.Path]++
		if s.failures > 0 {
			s.failures--
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		data, ok := s.archives[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(data)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *tigerServer) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func newTestLoader(s *tigerServer, cacheDir, tempDir string) *Loader {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second, MaxRetries: 1})
	return NewLoader(f, Options{
		BaseURL:  s.URL + "/geo/tiger/",
		CacheDir: cacheDir,
		TempDir:  tempDir,
		Retry:    resilience.Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond},
	})
}

const tractZip = "/geo/tiger/TIGER2020/TRACT/tl_2020_24_tract.zip"

var tractReq = Request{Year: 2020, StateFIPS: "24", Level: "tract"}

func TestLoader_Load(t *testing.T) {
	s := newTigerServer(t, map[string][]byte{tractZip: tractArchive(t)})
	tmp := t.TempDir()
	l := newTestLoader(s, "", tmp)

	layer, err := l.Load(context.Background(), tractReq)
	require.NoError(t, err)
	assert.Equal(t, "tl_2020_24_tract", layer.Name)
	assert.Equal(t, 3, layer.Len())
	assert.Equal(t, 1, s.hitCount(tractZip))

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch dir removed")
}

func TestLoader_CacheWriteThenHit(t *testing.T) {
	s := newTigerServer(t, map[string][]byte{tractZip: tractArchive(t)})
	cache := t.TempDir()
	l := newTestLoader(s, cache, t.TempDir())

	req := tractReq
	req.Cache = true
	_, err := l.Load(context.Background(), req)
	require.NoError(t, err)

	cached, err := l.CachePath(req)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cache, "TIGER2020", "TRACT", "tl_2020_24_tract", "tl_2020_24_tract.shp"), cached)
	assert.FileExists(t, cached)
	assert.FileExists(t, filepath.Join(filepath.Dir(cached), "tl_2020_24_tract.dbf"))

	// A fresh loader sharing the cache dir does not download again.
	layer, err := newTestLoader(s, cache, t.TempDir()).Load(context.Background(), tractReq)
	require.NoError(t, err)
	assert.Equal(t, 3, layer.Len())
	assert.Equal(t, 1, s.hitCount(tractZip))
}

func TestLoader_NoCacheWithoutFlag(t *testing.T) {
	s := newTigerServer(t, map[string][]byte{tractZip: tractArchive(t)})
	cache := t.TempDir()
	l := newTestLoader(s, cache, t.TempDir())

	_, err := l.Load(context.Background(), tractReq)
	require.NoError(t, err)

	entries, err := os.ReadDir(cache)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoader_CacheWithoutDir(t *testing.T) {
	s := newTigerServer(t, map[string][]byte{tractZip: tractArchive(t)})
	l := newTestLoader(s, "", t.TempDir())

	req := tractReq
	req.Cache = true
	_, err := l.Load(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoCacheDir)
	assert.Zero(t, s.hitCount(tractZip))
}

func TestLoader_NotFound(t *testing.T) {
	s := newTigerServer(t, map[string][]byte{})
	l := newTestLoader(s, "", t.TempDir())

	_, err := l.Load(context.Background(), tractReq)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShapefileNotFound)
	assert.Contains(t, err.Error(), "tl_2020_24_tract.zip")
	assert.Equal(t, 1, s.hitCount(tractZip), "404 is not retried")
}

func TestLoader_RetriesTransientFailure(t *testing.T) {
	s := newTigerServer(t, map[string][]byte{tractZip: tractArchive(t)})
	s.failures = 2
	l := newTestLoader(s, "", t.TempDir())

	layer, err := l.Load(context.Background(), tractReq)
	require.NoError(t, err)
	assert.Equal(t, 3, layer.Len())
	assert.Equal(t, 3, s.hitCount(tractZip))
}

func TestLoader_InvalidRequest(t *testing.T) {
	s := newTigerServer(t, map[string][]byte{})
	l := newTestLoader(s, "", t.TempDir())

	_, err := l.Load(context.Background(), Request{Year: 2010, StateFIPS: "24", Level: "tract"})
	assert.ErrorIs(t, err, ErrUnsupportedYear)
}

func TestLoader_LoadCounty(t *testing.T) {
	s := newTigerServer(t, map[string][]byte{tractZip: tractArchive(t)})
	l := newTestLoader(s, "", t.TempDir())

	layer, err := l.LoadCounty(context.Background(), tractReq, "031")
	require.NoError(t, err)
	require.Equal(t, 1, layer.Len())
	assert.Equal(t, "24031700101", layer.Features[0].Attributes["GEOID"])
}

func TestLoader_LoadStates(t *testing.T) {
	dir := t.TempDir()
	de := zipFiles(t, writeShapefile(t, dir, "tl_2020_10_tract", mdTracts[:1]))
	s := newTigerServer(t, map[string][]byte{
		tractZip: tractArchive(t),
		"/geo/tiger/TIGER2020/TRACT/tl_2020_10_tract.zip": de,
	})
	l := newTestLoader(s, "", t.TempDir())

	layers, err := l.LoadStates(context.Background(), tractReq, []string{"24", "10"})
	require.NoError(t, err)
	require.Len(t, layers, 2)
	assert.Equal(t, "tl_2020_24_tract", layers[0].Name)
	assert.Equal(t, 3, layers[0].Len())
	assert.Equal(t, "tl_2020_10_tract", layers[1].Name)
	assert.Equal(t, 1, layers[1].Len())
}

func TestLoader_LoadStates_Failure(t *testing.T) {
	s := newTigerServer(t, map[string][]byte{tractZip: tractArchive(t)})
	l := newTestLoader(s, "", t.TempDir())

	_, err := l.LoadStates(context.Background(), tractReq, []string{"24", "10"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShapefileNotFound)
	assert.Contains(t, err.Error(), "state 10")
}
