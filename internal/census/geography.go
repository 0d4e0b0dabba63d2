package census

import (
	"context"
	"slices"

	"go.uber.org/zap"
)

// GeographyRequirement describes how a geography level is addressed within a
// dataset-year: the parent levels that must be given, and which of those may
// be given as "*". Wildcards is always a subset of Requires.
type GeographyRequirement struct {
	Name         string   `json:"name" yaml:"name"`
	SummaryLevel string   `json:"summary_level" yaml:"summary_level"`
	Requires     []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	Wildcards    []string `json:"wildcards,omitempty" yaml:"wildcards,omitempty"`
}

// Required returns the parent levels that cannot be wildcarded, in Requires order.
func (g GeographyRequirement) Required() []string {
	var out []string
	for _, r := range g.Requires {
		if !slices.Contains(g.Wildcards, r) {
			out = append(out, r)
		}
	}
	return out
}

type rawGeography struct {
	FIPS []rawGeographyLevel `json:"fips"`
}

type rawGeographyLevel struct {
	Name              string   `json:"name"`
	GeoLevelDisplay   string   `json:"geoLevelDisplay"`
	GeoLevelID        string   `json:"geoLevelId"`
	Requires          []string `json:"requires"`
	Wildcard          []string `json:"wildcard"`
	OptionalWithWCFor string   `json:"optionalWithWCFor"`
}

// Geographies returns the requirement entries of every recognized geography
// level the dataset supports in year, in the order the Bureau lists them.
func (d *Dataset) Geographies(ctx context.Context, year int) ([]GeographyRequirement, error) {
	if err := d.checkYear(ctx, year); err != nil {
		return nil, err
	}
	raw, err := getMetadata[rawGeography](ctx, d.client, d, year, "geography.json")
	if err != nil {
		return nil, err
	}
	return parseGeographies(raw), nil
}

// GeographyRequires resolves the requirement entry for a single geography level.
// Zero matching rows yield a NotFoundError listing the supported levels; more
// than one yields an AmbiguousGeographyError.
func (d *Dataset) GeographyRequires(ctx context.Context, year int, geography string) (GeographyRequirement, error) {
	geos, err := d.Geographies(ctx, year)
	if err != nil {
		return GeographyRequirement{}, err
	}
	return d.selectGeography(geos, year, geography)
}

func (d *Dataset) selectGeography(geos []GeographyRequirement, year int, geography string) (GeographyRequirement, error) {
	var matches []GeographyRequirement
	var supported []string
	for _, g := range geos {
		if !slices.Contains(supported, g.Name) {
			supported = append(supported, g.Name)
		}
		if g.Name == geography {
			matches = append(matches, g)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return GeographyRequirement{}, &NotFoundError{
			Kind:    KindGeography,
			Dataset: d.name,
			Year:    year,
			Invalid: []string{geography},
			Valid:   supported,
		}
	default:
		levels := make([]string, len(matches))
		for i, m := range matches {
			levels[i] = m.SummaryLevel
		}
		return GeographyRequirement{}, &AmbiguousGeographyError{
			Dataset:   d.name,
			Year:      year,
			Geography: geography,
			Levels:    levels,
		}
	}
}

func parseGeographies(raw *rawGeography) []GeographyRequirement {
	var out []GeographyRequirement
	for _, r := range raw.FIPS {
		if !IsRecognizedLevel(r.Name) {
			continue
		}
		summary := r.GeoLevelDisplay
		if summary == "" {
			summary = r.GeoLevelID
		}

		wildcards := r.Wildcard
		if len(wildcards) == 0 && r.OptionalWithWCFor != "" {
			wildcards = []string{r.OptionalWithWCFor}
		}

		var kept []string
		for _, w := range wildcards {
			if slices.Contains(r.Requires, w) {
				kept = append(kept, w)
				continue
			}
			zap.L().Debug("census: dropping wildcard outside requires",
				zap.String("geography", r.Name),
				zap.String("wildcard", w),
			)
		}

		out = append(out, GeographyRequirement{
			Name:         r.Name,
			SummaryLevel: summary,
			Requires:     r.Requires,
			Wildcards:    kept,
		})
	}
	return out
}
