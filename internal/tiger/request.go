// Package tiger downloads, caches and parses Census Bureau boundary
// shapefiles: TIGER/Line files and the generalized cartographic boundary
// (500k) files.
package tiger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/census-cli/internal/census"
)

// DefaultBaseURL is the root of the boundary file tree.
const DefaultBaseURL = "https://www2.census.gov/geo/tiger/"

// MinYear is the first vintage whose file layout this package understands.
const MinYear = 2014

// Request errors.
var (
	ErrUnsupportedYear         = errors.New("tiger: boundary files before 2014 are not supported")
	ErrCartographicUnavailable = errors.New("tiger: cartographic boundary files unavailable for level")
	ErrUnknownLevel            = errors.New("tiger: unknown geography level")
	ErrShapefileNotFound       = errors.New("tiger: boundary file not found")
	ErrNoCacheDir              = errors.New("tiger: caching requested without a cache directory; set CENSUS_TIGER_CACHE_DIR")
)

// Request identifies one boundary file.
type Request struct {
	Year         int
	StateFIPS    string // ignored for national levels
	Level        string // a census level name or alias, e.g. "tract", "bg"
	Cartographic bool   // the generalized 500k file instead of full TIGER/Line
	Cache        bool   // keep the extracted files in the cache directory
}

// Validate checks the request and resolves its level.
func (r Request) Validate() (census.Level, error) {
	level, ok := census.LevelByName(r.Level)
	if !ok {
		return census.Level{}, eris.Wrapf(ErrUnknownLevel, "%q", r.Level)
	}
	if r.Year < MinYear {
		return census.Level{}, eris.Wrapf(ErrUnsupportedYear, "year %d", r.Year)
	}
	if r.Cartographic && !level.Cartographic {
		return census.Level{}, eris.Wrapf(ErrCartographicUnavailable, "%q", level.Name)
	}
	if !level.National && len(r.StateFIPS) != 2 {
		return census.Level{}, eris.Errorf("tiger: %s files need a two-digit state FIPS code, got %q", level.Name, r.StateFIPS)
	}
	return level, nil
}

// Path returns the archive path relative to the base URL, without the ".zip"
// extension, and the file stem shared by the archive's members. The cache
// stores the members of an archive under the same relative path.
//
//	GENZ2020/shp/cb_2020_24_tract_500k        cb_2020_24_tract_500k
//	TIGER2020/TABBLOCK20/tl_2020_24_tabblock20 tl_2020_24_tabblock20
func (r Request) Path() (subpath, stem string, err error) {
	level, err := r.Validate()
	if err != nil {
		return "", "", err
	}

	st := r.StateFIPS
	if level.National {
		st = "us"
	}

	if r.Cartographic {
		stem = fmt.Sprintf("cb_%d_%s_%s_500k", r.Year, st, level.FileCode)
		return fmt.Sprintf("GENZ%d/shp/%s", r.Year, stem), stem, nil
	}

	var dirSuffix, fileSuffix string
	if level.Name == "block" {
		// Block files carry their decennial vintage.
		if r.Year < 2020 {
			fileSuffix = "10"
		} else {
			dirSuffix, fileSuffix = "20", "20"
		}
	}
	stem = fmt.Sprintf("tl_%d_%s_%s%s", r.Year, st, level.FileCode, fileSuffix)
	dir := strings.ToUpper(level.FileCode) + dirSuffix
	return fmt.Sprintf("TIGER%d/%s/%s", r.Year, dir, stem), stem, nil
}

// URL returns the archive download URL below base.
func (r Request) URL(base string) (string, error) {
	subpath, _, err := r.Path()
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + subpath + ".zip", nil
}
