package tiger

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"
)

// SRID of TIGER/Line and cartographic boundary files (NAD83).
const SRID = 4269

// toGeom converts a shapefile record to a go-geom geometry. Unsupported or
// empty shapes return nil.
func toGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}).SetSRID(SRID)
	case *shp.PolyLine:
		return polyLineToGeom(s)
	case *shp.Polygon:
		return polygonToGeom(s)
	default:
		return nil
	}
}

func polyLineToGeom(pl *shp.PolyLine) geom.T {
	if pl == nil || len(pl.Points) == 0 {
		return nil
	}
	mls := geom.NewMultiLineString(geom.XY).SetSRID(SRID)
	for i, part := range splitParts(pl.Parts, pl.Points) {
		if err := mls.Push(geom.NewLineStringFlat(geom.XY, flatten(part))); err != nil {
			zap.L().Debug("tiger: skipping malformed line part", zap.Int("part", i), zap.Error(err))
		}
	}
	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

// polygonToGeom groups rings into polygons. Shapefile outer rings run
// clockwise and holes counter-clockwise; a hole belongs to the outer ring
// preceding it.
func polygonToGeom(p *shp.Polygon) geom.T {
	if p == nil || len(p.Points) == 0 {
		return nil
	}
	mp := geom.NewMultiPolygon(geom.XY).SetSRID(SRID)

	var current *geom.Polygon
	flush := func() {
		if current == nil {
			return
		}
		if err := mp.Push(current); err != nil {
			zap.L().Debug("tiger: skipping malformed polygon", zap.Error(err))
		}
	}

	for i, ring := range splitParts(p.Parts, p.Points) {
		if len(ring) < 4 {
			zap.L().Debug("tiger: skipping degenerate ring", zap.Int("part", i), zap.Int("points", len(ring)))
			continue
		}
		if current == nil || signedArea(ring) < 0 {
			flush()
			current = geom.NewPolygon(geom.XY)
		}
		if err := current.Push(geom.NewLinearRingFlat(geom.XY, flatten(ring))); err != nil {
			zap.L().Debug("tiger: skipping malformed ring", zap.Int("part", i), zap.Error(err))
		}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// splitParts slices points into the parts starting at each offset.
func splitParts(parts []int32, points []shp.Point) [][]shp.Point {
	out := make([][]shp.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || int(end) > len(points) {
			continue
		}
		out = append(out, points[start:end])
	}
	return out
}

// signedArea is positive for counter-clockwise rings.
func signedArea(ring []shp.Point) float64 {
	var sum float64
	for i := range len(ring) - 1 {
		sum += ring[i].X*ring[i+1].Y - ring[i+1].X*ring[i].Y
	}
	return sum / 2
}

func flatten(points []shp.Point) []float64 {
	flat := make([]float64, 0, len(points)*2)
	for _, pt := range points {
		flat = append(flat, pt.X, pt.Y)
	}
	return flat
}

// EncodeEWKB encodes g as little-endian EWKB carrying its SRID.
func EncodeEWKB(g geom.T) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "tiger: encode EWKB")
	}
	return data, nil
}
