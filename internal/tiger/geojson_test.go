package tiger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteGeoJSON(t *testing.T) {
	files := writeShapefile(t, t.TempDir(), "tl_2020_24_tract", mdTracts)
	layer, err := ParseShapefile(files[0])
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, layer))

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			ID         string            `json:"id"`
			Properties map[string]string `json:"properties"`
			Geometry   struct {
				Type        string          `json:"type"`
				Coordinates json.RawMessage `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "FeatureCollection", doc.Type)
	require.Len(t, doc.Features, 3)
	assert.Equal(t, "24001000100", doc.Features[0].ID)
	assert.Equal(t, "001", doc.Features[0].Properties["COUNTYFP"])
	assert.Equal(t, "MultiPolygon", doc.Features[0].Geometry.Type)
	assert.NotEmpty(t, doc.Features[0].Geometry.Coordinates)
}

func TestWriteGeoJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, &Layer{Name: "empty"}))
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, buf.String())
}
