package tiger

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// Feature is one shapefile record: its attributes keyed by column name and
// its geometry.
type Feature struct {
	Attributes map[string]string
	Geometry   geom.T
}

// Layer is the parsed content of one shapefile.
type Layer struct {
	Name     string   // file stem, e.g. tl_2020_24_tract
	Columns  []string // attribute columns in file order
	Features []Feature
}

// Len returns the number of features.
func (l *Layer) Len() int { return len(l.Features) }

// Filter returns a layer holding the features whose column equals value.
func (l *Layer) Filter(column, value string) *Layer {
	out := &Layer{Name: l.Name, Columns: l.Columns}
	for _, f := range l.Features {
		if f.Attributes[column] == value {
			out.Features = append(out.Features, f)
		}
	}
	return out
}

// ParseShapefile reads every record of the shapefile at path. Column names
// lose a trailing "10" or "20" vintage suffix so that layers from different
// decades share a schema. Records without a usable geometry are skipped.
func ParseShapefile(path string) (*Layer, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tiger: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	raw := make([]string, len(fields))
	for i, f := range fields {
		raw[i] = strings.TrimRight(f.String(), "\x00")
	}

	layer := &Layer{
		Name:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Columns: stripVintageSuffixes(raw),
	}

	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		g := toGeom(shape)
		if g == nil {
			skipped++
			continue
		}

		attrs := make(map[string]string, len(layer.Columns))
		for i, col := range layer.Columns {
			attrs[col] = strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
		}
		layer.Features = append(layer.Features, Feature{Attributes: attrs, Geometry: g})
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "tiger: read shapefile %s", path)
	}

	if skipped > 0 {
		zap.L().Debug("tiger: skipped records without geometry",
			zap.String("layer", layer.Name),
			zap.Int("skipped", skipped),
		)
	}
	return layer, nil
}

// stripVintageSuffixes drops a trailing "10" or "20" from each name unless
// the result would collide with another column, original or already
// stripped. The first of two colliding columns keeps the short name.
func stripVintageSuffixes(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = name
		base, ok := strings.CutSuffix(name, "20")
		if !ok {
			base, ok = strings.CutSuffix(name, "10")
		}
		if ok && base != "" && !slices.Contains(names, base) && !slices.Contains(out[:i], base) {
			out[i] = base
		}
	}
	return out
}
