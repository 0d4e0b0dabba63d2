package census

import "strings"

// Level is a tier of the census geographic hierarchy this client knows how to
// query and fetch boundaries for.
type Level struct {
	Name         string // API name, e.g. "block group"
	SummaryLevel string // e.g. "150"
	FileCode     string // boundary file product code, e.g. "bg"
	Cartographic bool   // cartographic boundary (500k) files exist
	National     bool   // boundary file is published for the whole nation, not per state
}

// Levels lists the recognized geography levels.
var Levels = []Level{
	{Name: "state", SummaryLevel: "040", FileCode: "state", National: true},
	{Name: "county", SummaryLevel: "050", FileCode: "county", National: true},
	{Name: "county subdivision", SummaryLevel: "060", FileCode: "cousub", Cartographic: true},
	{Name: "tract", SummaryLevel: "140", FileCode: "tract", Cartographic: true},
	{Name: "block group", SummaryLevel: "150", FileCode: "bg", Cartographic: true},
	{Name: "block", SummaryLevel: "100", FileCode: "tabblock"},
	{Name: "place", SummaryLevel: "160", FileCode: "place", Cartographic: true},
}

// levelAliases maps plural and shorthand spellings accepted on the command line.
var levelAliases = map[string]string{
	"states":       "state",
	"counties":     "county",
	"tracts":       "tract",
	"block_groups": "block group",
	"block_group":  "block group",
	"bg":           "block group",
	"county_sub":   "county subdivision",
	"cousub":       "county subdivision",
	"blocks":       "block",
	"tabblock":     "block",
	"places":       "place",
}

// LevelByName returns the recognized level with the given API name or alias.
func LevelByName(name string) (Level, bool) {
	name = NormalizeLevel(name)
	for _, l := range Levels {
		if l.Name == name {
			return l, true
		}
	}
	return Level{}, false
}

// NormalizeLevel lowercases name and resolves aliases; unknown names are
// returned lowercased and trimmed.
func NormalizeLevel(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := levelAliases[n]; ok {
		return alias
	}
	return n
}

// IsRecognizedLevel reports whether name (exact API spelling) is a recognized level.
func IsRecognizedLevel(name string) bool {
	for _, l := range Levels {
		if l.Name == name {
			return true
		}
	}
	return false
}

// LevelNames returns the API names of all recognized levels.
func LevelNames() []string {
	names := make([]string, len(Levels))
	for i, l := range Levels {
		names[i] = l.Name
	}
	return names
}
