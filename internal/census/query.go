package census

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// FIPSPin fixes one geography level to a FIPS code, e.g. state=24.
type FIPSPin struct {
	Level string
	Code  string
}

func (p FIPSPin) String() string { return p.Level + ":" + p.Code }

// FIPSMap is an ordered set of pins. Pin order is preserved into the emitted
// in= clauses.
type FIPSMap []FIPSPin

// Has reports whether level is pinned.
func (m FIPSMap) Has(level string) bool {
	for _, p := range m {
		if p.Level == level {
			return true
		}
	}
	return false
}

// Levels returns the pinned levels in order.
func (m FIPSMap) Levels() []string {
	out := make([]string, len(m))
	for i, p := range m {
		out[i] = p.Level
	}
	return out
}

// With returns a copy of m with pin appended.
func (m FIPSMap) With(level, code string) FIPSMap {
	out := slices.Clone(m)
	return append(out, FIPSPin{Level: level, Code: code})
}

func (m FIPSMap) validate() error {
	seen := make(map[string]bool, len(m))
	for _, p := range m {
		if p.Level == "" || p.Code == "" {
			return &InvalidParamsError{Reason: fmt.Sprintf("FIPS pin %q needs both a level and a code", p.String())}
		}
		if seen[p.Level] {
			return &InvalidParamsError{Reason: fmt.Sprintf("geography level %q pinned more than once", p.Level)}
		}
		seen[p.Level] = true
	}
	return nil
}

// ParseFIPSPin parses "level:code" (e.g. "county:031"). Level aliases such as
// "bg" are normalized.
func ParseFIPSPin(s string) (FIPSPin, error) {
	level, code, ok := strings.Cut(s, ":")
	level = strings.TrimSpace(level)
	code = strings.TrimSpace(code)
	if !ok || level == "" || code == "" {
		return FIPSPin{}, &InvalidParamsError{Reason: fmt.Sprintf("FIPS pin %q is not of the form level:code", s)}
	}
	return FIPSPin{Level: NormalizeLevel(level), Code: code}, nil
}

// Query describes one request against a dataset.
type Query struct {
	Year      int
	Geography string
	Variables []string
	FIPS      FIPSMap
	APIKey    string // overrides the client key when set
}

// RequestURL validates q against the dataset's metadata and returns the
// request URL. Cheap checks (key, parameter shape, year) run before any
// metadata is fetched; geography requirements are checked last.
func (d *Dataset) RequestURL(ctx context.Context, q Query) (string, error) {
	key, err := d.client.resolveKey(q.APIKey)
	if err != nil {
		return "", err
	}
	if len(q.Variables) == 0 {
		return "", &InvalidParamsError{Geography: q.Geography, Reason: "at least one variable is required"}
	}
	if err := q.FIPS.validate(); err != nil {
		return "", err
	}

	if err := d.checkYear(ctx, q.Year); err != nil {
		return "", err
	}
	if err := d.ValidateVariables(ctx, q.Year, q.Variables); err != nil {
		return "", err
	}

	geo, err := d.GeographyRequires(ctx, q.Year, q.Geography)
	if err != nil {
		return "", err
	}

	var missing []string
	for _, r := range geo.Required() {
		if !q.FIPS.Has(r) {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return "", &InvalidParamsError{Geography: q.Geography, Missing: missing}
	}

	params := []string{
		"get=" + escape(strings.Join(append([]string{"NAME"}, q.Variables...), ",")),
		"for=" + escape(q.Geography+":*"),
	}
	for _, p := range q.FIPS {
		params = append(params, "in="+escape(p.String()))
	}
	for _, w := range geo.Wildcards {
		if !q.FIPS.Has(w) {
			params = append(params, "in="+escape(w+":*"))
		}
	}
	params = append(params, "key="+escape(key))

	u := d.client.datasetURL(q.Year, d.name) + "?" + strings.Join(params, "&")
	zap.L().Debug("census: built request url",
		zap.String("component", "census.query"),
		zap.String("dataset", d.name),
		zap.Int("year", q.Year),
		zap.String("geography", q.Geography),
	)
	return u, nil
}

var keepLiteral = strings.NewReplacer("%3A", ":", "%2C", ",", "%2A", "*", "+", "%20")

// escape percent-encodes a query value, leaving the API's ":", "," and "*"
// separators literal and encoding spaces as %20.
func escape(s string) string {
	return keepLiteral.Replace(url.QueryEscape(s))
}

