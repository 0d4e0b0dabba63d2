package tiger

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// WriteGeoJSON writes layer as a GeoJSON FeatureCollection. Attribute values
// become string properties.
func WriteGeoJSON(w io.Writer, layer *Layer) error {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, layer.Len())}
	for _, f := range layer.Features {
		props := make(map[string]any, len(f.Attributes))
		for k, v := range f.Attributes {
			props[k] = v
		}
		feature := &geojson.Feature{Geometry: f.Geometry, Properties: props}
		if id, ok := f.Attributes["GEOID"]; ok {
			feature.ID = id
		}
		fc.Features = append(fc.Features, feature)
	}

	if err := json.NewEncoder(w).Encode(&fc); err != nil {
		return eris.Wrapf(err, "tiger: encode %s as GeoJSON", layer.Name)
	}
	return nil
}
