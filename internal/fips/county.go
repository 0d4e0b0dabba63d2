package fips

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/census-cli/internal/census"
	"github.com/sells-group/census-cli/internal/fetcher"
)

// DefaultReferenceURL is the directory holding the st{fips}_{abbr}_cou.txt files.
const DefaultReferenceURL = "https://www2.census.gov/geo/docs/reference/codes/files/"

// County is a county or county-equivalent within a State.
type County struct {
	FIPS  string `json:"fips" yaml:"fips"`
	Name  string `json:"name" yaml:"name"`
	Class string `json:"class,omitempty" yaml:"class,omitempty"`
	State State  `json:"state" yaml:"state"`
}

// FIPSMap returns the pins fixing a query to this county.
func (c County) FIPSMap() census.FIPSMap {
	return c.State.FIPSMap().With("county", c.FIPS)
}

// Registry loads county reference files and keeps them for its lifetime.
type Registry struct {
	f       fetcher.Fetcher
	baseURL string

	mu       sync.Mutex
	counties map[string][]County
}

// NewRegistry creates a Registry reading reference files below baseURL.
func NewRegistry(f fetcher.Fetcher, baseURL string) *Registry {
	if baseURL == "" {
		baseURL = DefaultReferenceURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Registry{f: f, baseURL: baseURL, counties: make(map[string][]County)}
}

// Counties returns every county of state in reference-file order.
func (r *Registry) Counties(ctx context.Context, state State) ([]County, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.counties[state.FIPS]; ok {
		return cached, nil
	}

	url := fmt.Sprintf("%sst%s_%s_cou.txt", r.baseURL, state.FIPS, strings.ToLower(state.Abbr))
	zap.L().Debug("fips: loading county reference file",
		zap.String("component", "fips"),
		zap.String("state", state.Abbr),
		zap.String("url", url),
	)

	body, err := r.f.Download(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(err, "fips: download counties for %s", state.Abbr)
	}
	defer body.Close() //nolint:errcheck

	rows, err := fetcher.ReadCSV(ctx, body, fetcher.CSVOptions{TrimSpace: true, LazyQuotes: true})
	if err != nil {
		return nil, eris.Wrapf(err, "fips: parse counties for %s", state.Abbr)
	}

	counties := make([]County, 0, len(rows))
	for _, row := range rows {
		// abbr, state fips, county fips, name, class
		if len(row) < 4 {
			continue
		}
		c := County{FIPS: row[2], Name: row[3], State: state}
		if len(row) > 4 {
			c.Class = row[4]
		}
		counties = append(counties, c)
	}
	r.counties[state.FIPS] = counties
	return counties, nil
}

// County finds the county of the given state whose name starts with name.
// Matching ignores case and accents. A full-name match wins over other
// prefix matches.
func (r *Registry) County(ctx context.Context, stateAbbr, name string) (County, error) {
	state, err := StateByAbbr(stateAbbr)
	if err != nil {
		return County{}, err
	}
	counties, err := r.Counties(ctx, state)
	if err != nil {
		return County{}, err
	}

	key := fold(name)
	var matches []County
	for _, c := range counties {
		folded := fold(c.Name)
		if folded == key {
			return c, nil
		}
		if strings.HasPrefix(folded, key) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return County{}, eris.Wrapf(ErrCountyNotFound, "no county matching %q in %s", name, state.Name)
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		return County{}, eris.Wrapf(ErrMultipleCounties, "%q in %s matches %s", name, state.Name, strings.Join(names, ", "))
	}
}

// fold normalizes s for comparison: trimmed, accents removed, case folded.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}
	return cases.Fold().String(out)
}
