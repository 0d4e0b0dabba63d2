package tiger

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/census-cli/internal/fetcher"
	"github.com/sells-group/census-cli/internal/resilience"
)

// Options configures a Loader.
type Options struct {
	BaseURL     string // default DefaultBaseURL
	CacheDir    string // empty disables the cache
	TempDir     string // parent of per-download scratch dirs; default os.TempDir()
	Concurrency int    // parallel downloads in LoadStates; default 3
	Retry       resilience.Policy
}

// Loader fetches boundary files, reading from and writing to the cache
// directory when one is configured.
type Loader struct {
	f    fetcher.Fetcher
	opts Options
}

// NewLoader creates a Loader downloading through f.
func NewLoader(f fetcher.Fetcher, opts Options) *Loader {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.LogRetries("tiger.loader", opts.BaseURL)
	}
	return &Loader{f: f, opts: opts}
}

// CachePath returns where the request's shapefile lives in the cache, or ""
// when no cache directory is configured.
func (l *Loader) CachePath(req Request) (string, error) {
	subpath, stem, err := req.Path()
	if err != nil {
		return "", err
	}
	if l.opts.CacheDir == "" {
		return "", nil
	}
	return filepath.Join(l.opts.CacheDir, filepath.FromSlash(subpath), stem+".shp"), nil
}

// Load returns the features of the requested boundary file. A cached copy is
// used when present; otherwise the archive is downloaded, extracted and
// parsed, and moved into the cache when req.Cache is set.
func (l *Loader) Load(ctx context.Context, req Request) (*Layer, error) {
	subpath, stem, err := req.Path()
	if err != nil {
		return nil, err
	}
	log := zap.L().With(
		zap.String("component", "tiger.loader"),
		zap.String("file", stem),
	)

	cached, err := l.CachePath(req)
	if err != nil {
		return nil, err
	}
	if cached != "" {
		if _, statErr := os.Stat(cached); statErr == nil {
			log.Info("loading boundary file from cache", zap.String("path", cached))
			return ParseShapefile(cached)
		}
	}
	if req.Cache && l.opts.CacheDir == "" {
		return nil, ErrNoCacheDir
	}

	if l.opts.TempDir != "" {
		if err := os.MkdirAll(l.opts.TempDir, 0o755); err != nil {
			return nil, eris.Wrap(err, "tiger: create temp dir")
		}
	}
	tmp, err := os.MkdirTemp(l.opts.TempDir, "tiger-*")
	if err != nil {
		return nil, eris.Wrap(err, "tiger: create scratch dir")
	}
	defer os.RemoveAll(tmp) //nolint:errcheck

	url, err := req.URL(l.opts.BaseURL)
	if err != nil {
		return nil, err
	}
	zipPath := filepath.Join(tmp, stem+".zip")

	log.Info("downloading boundary file", zap.String("url", url))
	size, err := resilience.DoVal(ctx, l.opts.Retry, func(ctx context.Context) (int64, error) {
		return l.f.DownloadToFile(ctx, url, zipPath)
	})
	if err != nil {
		var se *fetcher.StatusError
		if errors.As(err, &se) && se.IsNotFound() {
			return nil, eris.Wrapf(ErrShapefileNotFound, "%s", url)
		}
		return nil, eris.Wrapf(err, "tiger: download %s", stem)
	}

	extractDir := filepath.Join(tmp, stem)
	files, err := fetcher.ExtractZIP(zipPath, extractDir)
	if err != nil {
		return nil, eris.Wrapf(err, "tiger: extract %s", stem)
	}
	shpPath, err := fetcher.FindByExt(files, ".shp")
	if err != nil {
		return nil, eris.Wrapf(err, "tiger: %s", stem)
	}

	layer, err := ParseShapefile(shpPath)
	if err != nil {
		return nil, err
	}
	log.Info("boundary file parsed",
		zap.Int64("bytes", size),
		zap.Int("features", layer.Len()),
	)

	if req.Cache {
		dest := filepath.Join(l.opts.CacheDir, filepath.FromSlash(subpath))
		if err := moveFiles(files, dest); err != nil {
			return nil, eris.Wrapf(err, "tiger: cache %s", stem)
		}
		log.Info("boundary file cached", zap.String("dir", dest))
	}
	return layer, nil
}

// LoadCounty loads the state-level file for req and keeps the features of
// one county.
func (l *Loader) LoadCounty(ctx context.Context, req Request, countyFIPS string) (*Layer, error) {
	layer, err := l.Load(ctx, req)
	if err != nil {
		return nil, err
	}
	return layer.Filter("COUNTYFP", countyFIPS), nil
}

// LoadStates loads req for each state concurrently. Layers are returned in
// the order of states; the first failure cancels the rest.
func (l *Loader) LoadStates(ctx context.Context, req Request, states []string) ([]*Layer, error) {
	layers := make([]*Layer, len(states))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)
	for i, st := range states {
		r := req
		r.StateFIPS = st
		g.Go(func() error {
			layer, err := l.Load(gctx, r)
			if err != nil {
				return eris.Wrapf(err, "tiger: state %s", st)
			}
			layers[i] = layer
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return layers, nil
}

// moveFiles moves files into dir, copying when a rename crosses devices.
func moveFiles(files []string, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "create cache dir")
	}
	for _, src := range files {
		dst := filepath.Join(dir, filepath.Base(src))
		if err := os.Rename(src, dst); err == nil {
			continue
		}
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return eris.Wrapf(err, "open %s", src)
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(dst)
	if err != nil {
		return eris.Wrapf(err, "create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return eris.Wrapf(err, "copy %s", src)
	}
	return out.Close()
}
