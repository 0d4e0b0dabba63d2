// Package fips resolves state and county names to Census FIPS codes.
//
// States come from a static table. Counties are read from the Bureau's
// per-state reference files and memoized for the lifetime of a Registry.
package fips

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/census-cli/internal/census"
)

// Lookup errors.
var (
	ErrStateNotFound    = errors.New("fips: state not found")
	ErrCountyNotFound   = errors.New("fips: county not found")
	ErrMultipleCounties = errors.New("fips: multiple counties match")
)

// State is a U.S. state, DC or Puerto Rico.
type State struct {
	FIPS string `json:"fips" yaml:"fips"`
	Abbr string `json:"abbr" yaml:"abbr"`
	Name string `json:"name" yaml:"name"`
}

// FIPSMap returns the pin fixing a query to this state.
func (s State) FIPSMap() census.FIPSMap {
	return census.FIPSMap{{Level: "state", Code: s.FIPS}}
}

// States lists every state-equivalent the Bureau publishes county files for,
// ordered by FIPS code.
var States = []State{
	{"01", "AL", "Alabama"},
	{"02", "AK", "Alaska"},
	{"04", "AZ", "Arizona"},
	{"05", "AR", "Arkansas"},
	{"06", "CA", "California"},
	{"08", "CO", "Colorado"},
	{"09", "CT", "Connecticut"},
	{"10", "DE", "Delaware"},
	{"11", "DC", "District of Columbia"},
	{"12", "FL", "Florida"},
	{"13", "GA", "Georgia"},
	{"15", "HI", "Hawaii"},
	{"16", "ID", "Idaho"},
	{"17", "IL", "Illinois"},
	{"18", "IN", "Indiana"},
	{"19", "IA", "Iowa"},
	{"20", "KS", "Kansas"},
	{"21", "KY", "Kentucky"},
	{"22", "LA", "Louisiana"},
	{"23", "ME", "Maine"},
	{"24", "MD", "Maryland"},
	{"25", "MA", "Massachusetts"},
	{"26", "MI", "Michigan"},
	{"27", "MN", "Minnesota"},
	{"28", "MS", "Mississippi"},
	{"29", "MO", "Missouri"},
	{"30", "MT", "Montana"},
	{"31", "NE", "Nebraska"},
	{"32", "NV", "Nevada"},
	{"33", "NH", "New Hampshire"},
	{"34", "NJ", "New Jersey"},
	{"35", "NM", "New Mexico"},
	{"36", "NY", "New York"},
	{"37", "NC", "North Carolina"},
	{"38", "ND", "North Dakota"},
	{"39", "OH", "Ohio"},
	{"40", "OK", "Oklahoma"},
	{"41", "OR", "Oregon"},
	{"42", "PA", "Pennsylvania"},
	{"44", "RI", "Rhode Island"},
	{"45", "SC", "South Carolina"},
	{"46", "SD", "South Dakota"},
	{"47", "TN", "Tennessee"},
	{"48", "TX", "Texas"},
	{"49", "UT", "Utah"},
	{"50", "VT", "Vermont"},
	{"51", "VA", "Virginia"},
	{"53", "WA", "Washington"},
	{"54", "WV", "West Virginia"},
	{"55", "WI", "Wisconsin"},
	{"56", "WY", "Wyoming"},
	{"72", "PR", "Puerto Rico"},
}

// StateByName finds a state by its full name, ignoring case.
func StateByName(name string) (State, error) {
	key := fold(name)
	for _, s := range States {
		if fold(s.Name) == key {
			return s, nil
		}
	}
	return State{}, notFound("name", name)
}

// StateByAbbr finds a state by its postal abbreviation, ignoring case.
func StateByAbbr(abbr string) (State, error) {
	abbr = strings.ToUpper(strings.TrimSpace(abbr))
	for _, s := range States {
		if s.Abbr == abbr {
			return s, nil
		}
	}
	return State{}, notFound("abbreviation", abbr)
}

// StateByFIPS finds a state by its two-digit FIPS code. A single digit is
// zero-padded.
func StateByFIPS(code string) (State, error) {
	code = strings.TrimSpace(code)
	if len(code) == 1 {
		code = "0" + code
	}
	for _, s := range States {
		if s.FIPS == code {
			return s, nil
		}
	}
	return State{}, notFound("FIPS code", code)
}

// LookupState accepts a FIPS code, postal abbreviation or full name.
func LookupState(query string) (State, error) {
	q := strings.TrimSpace(query)
	switch {
	case q != "" && strings.Trim(q, "0123456789") == "":
		return StateByFIPS(q)
	case len(q) == 2:
		return StateByAbbr(q)
	default:
		return StateByName(q)
	}
}

func notFound(mode, value string) error {
	return eris.Wrapf(ErrStateNotFound, "no state with %s %q", mode, value)
}
