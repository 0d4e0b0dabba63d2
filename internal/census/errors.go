package census

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinels matched with errors.Is by every typed error of the same class.
var (
	ErrNotFound      = errors.New("census: not found")
	ErrInvalidParams = errors.New("census: invalid parameters")
)

// LookupKind names what a NotFoundError failed to find.
type LookupKind string

// Lookup kinds.
const (
	KindDataset   LookupKind = "dataset"
	KindYear      LookupKind = "year"
	KindVariable  LookupKind = "variable"
	KindGeography LookupKind = "geography"
	KindAPIKey    LookupKind = "api key"
	KindMetadata  LookupKind = "metadata"
)

// NotFoundError reports an identifier the Bureau catalog does not recognize.
// Valid carries the accepted alternatives when they are known.
type NotFoundError struct {
	Kind    LookupKind
	Dataset string
	Year    int
	Invalid []string
	Valid   []string
}

func (e *NotFoundError) Error() string {
	switch e.Kind {
	case KindDataset:
		return fmt.Sprintf("census: dataset %q not recognized; see %s for available datasets",
			strings.Join(e.Invalid, ", "), catalogHTMLURL)
	case KindYear:
		return fmt.Sprintf("census: year %s is not valid for %s; available years are %s",
			strings.Join(e.Invalid, ", "), e.Dataset, strings.Join(e.Valid, ", "))
	case KindVariable:
		return fmt.Sprintf("census: variables not found in %s %d catalog: %s",
			e.Dataset, e.Year, strings.Join(e.Invalid, ", "))
	case KindGeography:
		return fmt.Sprintf("census: geography %q not supported for %s %d; supported: %s",
			strings.Join(e.Invalid, ", "), e.Dataset, e.Year, strings.Join(e.Valid, ", "))
	case KindMetadata:
		return fmt.Sprintf("census: %s %d is listed in the catalog but publishes no %s",
			e.Dataset, e.Year, strings.Join(e.Invalid, ", "))
	case KindAPIKey:
		return "census: no API key; pass one explicitly or set CENSUS_API_KEY"
	default:
		return fmt.Sprintf("census: %s not found: %s", e.Kind, strings.Join(e.Invalid, ", "))
	}
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidParamsError reports caller parameters that are structurally invalid
// once the geography requirements are known.
type InvalidParamsError struct {
	Geography string
	Missing   []string
	Reason    string
}

func (e *InvalidParamsError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("census: geography %q requires FIPS codes for: %s",
			e.Geography, strings.Join(e.Missing, ", "))
	}
	return "census: " + e.Reason
}

// Is matches ErrInvalidParams.
func (e *InvalidParamsError) Is(target error) bool { return target == ErrInvalidParams }

// AmbiguousGeographyError reports a geography name matched by more than one
// row of a dataset's geography table. No row is preferred over another.
type AmbiguousGeographyError struct {
	Dataset   string
	Year      int
	Geography string
	Levels    []string
}

func (e *AmbiguousGeographyError) Error() string {
	return fmt.Sprintf("census: geography %q matches %d entries in %s %d (summary levels %s)",
		e.Geography, len(e.Levels), e.Dataset, e.Year, strings.Join(e.Levels, ", "))
}

func yearStrings(years []int) []string {
	out := make([]string, len(years))
	for i, y := range years {
		out[i] = strconv.Itoa(y)
	}
	return out
}
