package census

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestURL_Tract(t *testing.T) {
	b := newBureau(t)
	d := b.dataset(t, "dec/pl")

	u, err := d.RequestURL(context.Background(), Query{
		Year:      2020,
		Geography: "tract",
		Variables: []string{"P1_001N"},
		FIPS:      FIPSMap{{Level: "state", Code: "24"}},
	})
	require.NoError(t, err)
	assert.Equal(t, b.URL+"/data/2020/dec/pl?get=NAME,P1_001N&for=tract:*&in=state:24&in=county:*&key=test-key", u)
}

func TestRequestURL_PinnedWildcardNotRepeated(t *testing.T) {
	b := newBureau(t)
	d := b.dataset(t, "dec/pl")

	u, err := d.RequestURL(context.Background(), Query{
		Year:      2020,
		Geography: "tract",
		Variables: []string{"P1_001N", "P1_002N"},
		FIPS:      FIPSMap{{Level: "state", Code: "24"}, {Level: "county", Code: "031"}},
	})
	require.NoError(t, err)
	assert.Equal(t, b.URL+"/data/2020/dec/pl?get=NAME,P1_001N,P1_002N&for=tract:*&in=state:24&in=county:031&key=test-key", u)
}

func TestRequestURL_PinOrderPreserved(t *testing.T) {
	b := newBureau(t)
	d := b.dataset(t, "dec/pl")

	u, err := d.RequestURL(context.Background(), Query{
		Year:      2020,
		Geography: "county subdivision",
		Variables: []string{"P1_001N"},
		FIPS:      FIPSMap{{Level: "county", Code: "003"}, {Level: "state", Code: "01"}},
	})
	require.NoError(t, err)
	assert.Equal(t, b.URL+"/data/2020/dec/pl?get=NAME,P1_001N&for=county%20subdivision:*&in=county:003&in=state:01&key=test-key", u)
}

func TestRequestURL_MissingRequiredLevel(t *testing.T) {
	b := newBureau(t)
	d := b.dataset(t, "dec/pl")

	_, err := d.RequestURL(context.Background(), Query{
		Year:      2020,
		Geography: "county subdivision",
		Variables: []string{"P1_001N"},
		FIPS:      FIPSMap{{Level: "state", Code: "01"}},
	})
	require.Error(t, err)

	var ip *InvalidParamsError
	require.True(t, errors.As(err, &ip))
	assert.Equal(t, []string{"county"}, ip.Missing)
	assert.Contains(t, err.Error(), "county")
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestRequestURL_MissingLevelsInRequiresOrder(t *testing.T) {
	b := newBureau(t)
	d := b.dataset(t, "dec/pl")

	_, err := d.RequestURL(context.Background(), Query{
		Year:      2020,
		Geography: "county subdivision",
		Variables: []string{"P1_001N"},
	})

	var ip *InvalidParamsError
	require.True(t, errors.As(err, &ip))
	assert.Equal(t, []string{"state", "county"}, ip.Missing)
}

func TestRequestURL_ExplicitKeyWins(t *testing.T) {
	b := newBureau(t)
	d := b.dataset(t, "dec/pl")

	u, err := d.RequestURL(context.Background(), Query{
		Year:      2020,
		Geography: "state",
		Variables: []string{"P1_001N"},
		APIKey:    "other key",
	})
	require.NoError(t, err)
	assert.Equal(t, b.URL+"/data/2020/dec/pl?get=NAME,P1_001N&for=state:*&key=other%20key", u)
}

func TestRequestURL_NoKeyFailsBeforeFetching(t *testing.T) {
	b := newBureau(t)
	d, err := b.client("").Dataset(context.Background(), "dec/pl")
	require.NoError(t, err)

	_, err = d.RequestURL(context.Background(), Query{
		Year:      2020,
		Geography: "tract",
		Variables: []string{"P1_001N"},
	})
	require.Error(t, err)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, KindAPIKey, nf.Kind)
	assert.Contains(t, err.Error(), "CENSUS_API_KEY")
	assert.Zero(t, b.hitCount("/data/2020/dec/pl/variables.json"))
	assert.Zero(t, b.hitCount("/data/2020/dec/pl/geography.json"))
}

func TestRequestURL_InvalidYearFailsBeforeMetadata(t *testing.T) {
	b := newBureau(t)
	d := b.dataset(t, "dec/pl")

	_, err := d.RequestURL(context.Background(), Query{
		Year:      2015,
		Geography: "tract",
		Variables: []string{"P1_001N"},
	})
	require.Error(t, err)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, KindYear, nf.Kind)
	assert.Zero(t, b.hitCount("/data/2015/dec/pl/variables.json"))
}

func TestRequestURL_InvalidVariablesBeforeGeography(t *testing.T) {
	b := newBureau(t)
	d := b.dataset(t, "dec/pl")

	_, err := d.RequestURL(context.Background(), Query{
		Year:      2020,
		Geography: "county subdivision",
		Variables: []string{"BOGUS"},
	})

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, KindVariable, nf.Kind)
	assert.Zero(t, b.hitCount("/data/2020/dec/pl/geography.json"))
}

func TestRequestURL_EmptyVariables(t *testing.T) {
	b := newBureau(t)
	d := b.dataset(t, "dec/pl")

	_, err := d.RequestURL(context.Background(), Query{Year: 2020, Geography: "state"})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestRequestURL_DuplicatePin(t *testing.T) {
	b := newBureau(t)
	d := b.dataset(t, "dec/pl")

	_, err := d.RequestURL(context.Background(), Query{
		Year:      2020,
		Geography: "tract",
		Variables: []string{"P1_001N"},
		FIPS:      FIPSMap{{Level: "state", Code: "24"}, {Level: "state", Code: "01"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidParams)
	assert.Contains(t, err.Error(), "pinned more than once")
}

func TestParseFIPSPin(t *testing.T) {
	p, err := ParseFIPSPin("county:031")
	require.NoError(t, err)
	assert.Equal(t, FIPSPin{Level: "county", Code: "031"}, p)

	p, err = ParseFIPSPin(" BG : 2 ")
	require.NoError(t, err)
	assert.Equal(t, FIPSPin{Level: "block group", Code: "2"}, p)

	for _, bad := range []string{"county", ":031", "county:", ""} {
		_, err := ParseFIPSPin(bad)
		assert.ErrorIs(t, err, ErrInvalidParams, bad)
	}
}

func TestFIPSMap(t *testing.T) {
	m := FIPSMap{{Level: "state", Code: "24"}}
	m2 := m.With("county", "031")

	assert.True(t, m2.Has("county"))
	assert.False(t, m.Has("county"))
	assert.Equal(t, []string{"state", "county"}, m2.Levels())
	assert.Equal(t, "state:24", m[0].String())
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "county%20subdivision:*", escape("county subdivision:*"))
	assert.Equal(t, "NAME,P1_001N", escape("NAME,P1_001N"))
	assert.Equal(t, "a%26b", escape("a&b"))
}

func TestQuery(t *testing.T) {
	b := newBureau(t)
	d := b.dataset(t, "dec/pl")

	table, err := d.Query(context.Background(), Query{
		Year:      2020,
		Geography: "tract",
		Variables: []string{"P1_001N"},
		FIPS:      FIPSMap{{Level: "state", Code: "24"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"NAME", "P1_001N", "state", "county", "tract"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "2973", table.Rows[0][1])

	pop, ok := table.Column("P1_001N")
	require.True(t, ok)
	assert.Equal(t, []string{"2973", "3301"}, pop)

	_, ok = table.Column("missing")
	assert.False(t, ok)

	recs := table.Records()
	assert.Equal(t, "000200", recs[1]["tract"])

	require.Len(t, b.queries, 1)
	assert.Equal(t, "get=NAME,P1_001N&for=tract:*&in=state:24&in=county:*&key=test-key", b.queries[0])
}

func TestExecute_ReusesBuiltURL(t *testing.T) {
	b := newBureau(t)
	d := b.dataset(t, "dec/pl")
	ctx := context.Background()

	u, err := d.RequestURL(ctx, Query{
		Year:      2020,
		Geography: "tract",
		Variables: []string{"P1_001N"},
		FIPS:      FIPSMap{{Level: "state", Code: "24"}},
	})
	require.NoError(t, err)

	table, err := d.Execute(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 1, b.hitCount("/data/2020/dec/pl/geography.json"))
	assert.Equal(t, 1, b.hitCount("/data/2020/dec/pl/variables.json"))
	assert.Equal(t, 1, b.hitCount("/data/2020/dec/pl"))
}

func TestQuery_NoContent(t *testing.T) {
	b := newBureau(t)
	b.status = http.StatusNoContent
	d := b.dataset(t, "dec/pl")

	table, err := d.Query(context.Background(), Query{
		Year:      2020,
		Geography: "state",
		Variables: []string{"P1_001N"},
	})
	require.NoError(t, err)
	assert.Zero(t, table.Len())
	assert.Empty(t, table.Columns)
}

func TestQuery_RowWidthMismatch(t *testing.T) {
	b := newBureau(t)
	b.response = `[["NAME","P1_001N"],["Maryland"]]`
	d := b.dataset(t, "dec/pl")

	_, err := d.Query(context.Background(), Query{
		Year:      2020,
		Geography: "state",
		Variables: []string{"P1_001N"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1 has 1 values, header has 2")
}

func TestQuery_ServerError(t *testing.T) {
	b := newBureau(t)
	b.status = http.StatusInternalServerError
	d := b.dataset(t, "dec/pl")

	_, err := d.Query(context.Background(), Query{
		Year:      2020,
		Geography: "state",
		Variables: []string{"P1_001N"},
	})
	require.Error(t, err)
	assert.Len(t, b.queries, 1, "query requests are not retried")
}
