package census

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/census-cli/internal/fetcher"
)

// CatalogEntry is one vintage of a dataset listed in data.json.
type CatalogEntry struct {
	Name        string `json:"name" yaml:"name"`
	Year        int    `json:"year" yaml:"year"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type rawCatalog struct {
	Dataset []rawCatalogDataset `json:"dataset"`
}

type rawCatalogDataset struct {
	Vintage     *int     `json:"c_vintage"`
	Path        []string `json:"c_dataset"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// Catalog memoizes the Bureau dataset catalog. The first successful fetch is
// kept until Reset is called; failed fetches are not remembered. Concurrent
// first callers share a single request.
type Catalog struct {
	f   fetcher.Fetcher
	url string

	mu      sync.RWMutex
	entries []CatalogEntry
	loaded  bool

	group   singleflight.Group
	fetches atomic.Int64
}

// NewCatalog creates a catalog reading from the given data.json URL.
func NewCatalog(f fetcher.Fetcher, url string) *Catalog {
	return &Catalog{f: f, url: url}
}

// Datasets returns every dataset vintage in the catalog. Entries without a
// vintage (timeseries APIs) are excluded. The returned slice is shared and
// must not be modified.
func (c *Catalog) Datasets(ctx context.Context) ([]CatalogEntry, error) {
	c.mu.RLock()
	if c.loaded {
		entries := c.entries
		c.mu.RUnlock()
		zap.L().Debug("census: catalog cache hit", zap.Int("entries", len(entries)))
		return entries, nil
	}
	c.mu.RUnlock()

	// The shared fetch outlives any one caller's cancellation; each caller
	// stops waiting when its own context ends.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("catalog", func() (any, error) {
		c.mu.RLock()
		if c.loaded {
			defer c.mu.RUnlock()
			return c.entries, nil
		}
		c.mu.RUnlock()

		entries, err := c.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries = entries
		c.loaded = true
		c.mu.Unlock()
		return entries, nil
	})

	select {
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "census: fetch dataset catalog")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]CatalogEntry), nil
	}
}

// Names returns the distinct dataset names, sorted.
func (c *Catalog) Names(ctx context.Context) ([]string, error) {
	entries, err := c.Datasets(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(entries))
	var names []string
	for _, e := range entries {
		if !seen[e.Name] {
			seen[e.Name] = true
			names = append(names, e.Name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Years returns the sorted distinct vintages published for name.
func (c *Catalog) Years(ctx context.Context, name string) ([]int, error) {
	entries, err := c.Datasets(ctx)
	if err != nil {
		return nil, err
	}
	return yearsFor(entries, name), nil
}

// Reset drops the memoized catalog; the next call fetches again.
func (c *Catalog) Reset() {
	c.mu.Lock()
	c.entries = nil
	c.loaded = false
	c.mu.Unlock()
}

// Fetches reports how many times the catalog was downloaded.
func (c *Catalog) Fetches() int64 { return c.fetches.Load() }

func (c *Catalog) fetch(ctx context.Context) ([]CatalogEntry, error) {
	log := zap.L().With(zap.String("component", "census.catalog"), zap.String("url", c.url))
	c.fetches.Add(1)

	body, err := c.f.Download(ctx, c.url)
	if err != nil {
		return nil, eris.Wrap(err, "census: fetch dataset catalog")
	}
	defer body.Close() //nolint:errcheck

	raw, err := fetcher.DecodeJSONObject[rawCatalog](body)
	if err != nil {
		return nil, eris.Wrap(err, "census: parse dataset catalog")
	}

	entries := parseCatalog(raw)
	log.Debug("census: catalog loaded",
		zap.Int("datasets", len(raw.Dataset)),
		zap.Int("vintaged", len(entries)),
	)
	return entries, nil
}

func parseCatalog(raw *rawCatalog) []CatalogEntry {
	entries := make([]CatalogEntry, 0, len(raw.Dataset))
	for _, d := range raw.Dataset {
		if d.Vintage == nil || len(d.Path) == 0 {
			continue
		}
		entries = append(entries, CatalogEntry{
			Name:        strings.Join(d.Path, "/"),
			Year:        *d.Vintage,
			Title:       d.Title,
			Description: d.Description,
		})
	}
	return entries
}

func yearsFor(entries []CatalogEntry, name string) []int {
	var years []int
	for _, e := range entries {
		if e.Name == name && !slices.Contains(years, e.Year) {
			years = append(years, e.Year)
		}
	}
	slices.Sort(years)
	return years
}
