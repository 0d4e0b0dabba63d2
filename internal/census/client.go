// Package census builds, validates and executes queries against the U.S.
// Census Bureau data API (api.census.gov).
//
// Every query parameter is checked against metadata fetched from the Bureau
// at request time: the dataset catalog (data.json), the per-vintage
// geography table (geography.json) and variable catalog (variables.json).
// Only the dataset catalog is memoized, by the Catalog held on a Client.
package census

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/census-cli/internal/fetcher"
)

const (
	// DefaultBaseURL is the root of the Bureau data API.
	DefaultBaseURL = "https://api.census.gov"

	catalogHTMLURL = DefaultBaseURL + "/data.html"
)

// Options configures a Client.
type Options struct {
	BaseURL string // default DefaultBaseURL
	APIKey  string // used when a Query carries no key
}

// Client is the entry point for dataset lookups. A Client is safe for
// concurrent use.
type Client struct {
	f       fetcher.Fetcher
	baseURL string
	apiKey  string
	catalog *Catalog
}

// NewClient creates a Client that issues requests through f.
func NewClient(f fetcher.Fetcher, opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		f:       f,
		baseURL: base,
		apiKey:  opts.APIKey,
		catalog: NewCatalog(f, base+"/data.json"),
	}
}

// Catalog returns the client's dataset catalog cache.
func (c *Client) Catalog() *Catalog { return c.catalog }

// resolveKey picks the per-call key, then the client default.
func (c *Client) resolveKey(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if c.apiKey != "" {
		return c.apiKey, nil
	}
	return "", &NotFoundError{Kind: KindAPIKey}
}

func (c *Client) datasetURL(year int, name string) string {
	return fmt.Sprintf("%s/data/%d/%s", c.baseURL, year, name)
}

// getMetadata downloads and decodes a per-vintage metadata document. Callers
// check the year first, so a 404 means the Bureau lists the vintage but
// publishes no such document for it.
func getMetadata[T any](ctx context.Context, c *Client, d *Dataset, year int, file string) (*T, error) {
	u := c.datasetURL(year, d.name) + "/" + file
	body, err := c.f.Download(ctx, u)
	if err != nil {
		var se *fetcher.StatusError
		if errors.As(err, &se) && se.IsNotFound() {
			return nil, &NotFoundError{
				Kind:    KindMetadata,
				Dataset: d.name,
				Year:    year,
				Invalid: []string{file},
			}
		}
		return nil, eris.Wrapf(err, "census: fetch %s", file)
	}
	defer body.Close() //nolint:errcheck

	doc, err := fetcher.DecodeJSONObject[T](body)
	if err != nil {
		return nil, eris.Wrapf(err, "census: parse %s for %s %d", file, d.name, year)
	}
	return doc, nil
}
