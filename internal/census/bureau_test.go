package census

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/census-cli/internal/fetcher"
)

const catalogJSON = `{"dataset":[
	{"c_vintage":2020,"c_dataset":["dec","pl"],"title":"Decennial Census: Redistricting Data"},
	{"c_vintage":2010,"c_dataset":["dec","pl"],"title":"Decennial Census: Redistricting Data"},
	{"c_vintage":2020,"c_dataset":["acs","acs5"],"title":"ACS 5-Year Detailed Tables"},
	{"c_vintage":2019,"c_dataset":["acs","acs5"],"title":"ACS 5-Year Detailed Tables"},
	{"c_dataset":["timeseries","eits"],"title":"Economic Indicators"}
]}`

const geographyJSON = `{"fips":[
	{"name":"us","geoLevelDisplay":"010"},
	{"name":"state","geoLevelDisplay":"040","wildcard":["us"]},
	{"name":"county","geoLevelDisplay":"050","requires":["state"],"wildcard":["state"]},
	{"name":"county subdivision","geoLevelDisplay":"060","requires":["state","county"]},
	{"name":"tract","geoLevelDisplay":"140","requires":["state","county"],"wildcard":["county"]},
	{"name":"block group","geoLevelDisplay":"150","requires":["state","county","tract"],"optionalWithWCFor":"tract"},
	{"name":"place","geoLevelDisplay":"160","requires":["state"],"wildcard":["state"]},
	{"name":"place","geoLevelDisplay":"162","requires":["state"]}
]}`

const variablesJSON = `{"variables":{
	"for":{"label":"Census API FIPS 'for' clause","concept":"Census API Geography Specification"},
	"in":{"label":"Census API FIPS 'in' clause","concept":"Census API Geography Specification"},
	"ucgid":{"label":"Uniform Census Geography Identifier clause","concept":"Census API Geography Specification"},
	"GEO_ID":{"label":"Geography","concept":"RACE"},
	"SUMLEVEL":{"label":"Summary Level"},
	"P1_001N":{"label":" !!Total:","concept":"RACE","group":"P1","predicateType":"int"},
	"P1_002N":{"label":" !!Total:!!Population of one race:","concept":"RACE","group":"P1","predicateType":"int"}
}}`

const tractResponse = `[["NAME","P1_001N","state","county","tract"],
["Census Tract 1001; Allegany County; Maryland","2973","24","001","000100"],
["Census Tract 1002; Allegany County; Maryland","3301","24","001","000200"]]`

// bureau is a fake api.census.gov serving canned metadata for dec/pl 2020.
type bureau struct {
	*httptest.Server

	mu       sync.Mutex
	hits     map[string]int
	queries  []string
	response string
	status   int
}

func newBureau(t *testing.T) *bureau {
	t.Helper()
	b := &bureau{hits: map[string]int{}, response: tractResponse, status: http.StatusOK}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Close)
	return b
}

func (b *bureau) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.hits[r.URL.Path]++
	response, status := b.response, b.status
	b.mu.Unlock()

	switch r.URL.Path {
	case "/data.json":
		w.Write([]byte(catalogJSON))
	case "/data/2020/dec/pl/geography.json":
		w.Write([]byte(geographyJSON))
	case "/data/2020/dec/pl/variables.json":
		w.Write([]byte(variablesJSON))
	case "/data/2020/dec/pl":
		b.mu.Lock()
		b.queries = append(b.queries, r.URL.RawQuery)
		b.mu.Unlock()
		w.WriteHeader(status)
		if status == http.StatusOK {
			w.Write([]byte(response))
		}
	default:
		http.NotFound(w, r)
	}
}

func (b *bureau) hitCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func (b *bureau) client(key string) *Client {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	})
	return NewClient(f, Options{BaseURL: b.URL, APIKey: key})
}

func (b *bureau) dataset(t *testing.T, name string) *Dataset {
	t.Helper()
	d, err := b.client("test-key").Dataset(context.Background(), name)
	require.NoError(t, err)
	return d
}
