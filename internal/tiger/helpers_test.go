package tiger

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
)

type testTract struct {
	county, geoid, name string
	x, y                float64
}

var mdTracts = []testTract{
	{"001", "24001000100", "1", 0, 0},
	{"001", "24001000200", "2", 1, 0},
	{"031", "24031700101", "7001.01", 5, 5},
}

// square returns a clockwise unit ring with its lower-left corner at x, y.
func square(x, y float64) []shp.Point {
	return []shp.Point{{X: x, Y: y}, {X: x, Y: y + 1}, {X: x + 1, Y: y + 1}, {X: x + 1, Y: y}, {X: x, Y: y}}
}

// writeShapefile writes a 2020-style tract shapefile under dir and returns
// the paths of its members.
func writeShapefile(t *testing.T, dir, stem string, tracts []testTract) []string {
	t.Helper()
	base := filepath.Join(dir, stem)

	w, err := shp.Create(base+".shp", shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("STATEFP", 2),
		shp.StringField("COUNTYFP", 3),
		shp.StringField("GEOID20", 11),
		shp.StringField("NAME20", 20),
	}))
	for _, tr := range tracts {
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{square(tr.x, tr.y)}))
		row := int(w.Write(&poly))
		require.NoError(t, w.WriteAttribute(row, 0, "24"))
		require.NoError(t, w.WriteAttribute(row, 1, tr.county))
		require.NoError(t, w.WriteAttribute(row, 2, tr.geoid))
		require.NoError(t, w.WriteAttribute(row, 3, tr.name))
	}
	w.Close()

	return []string{base + ".shp", base + ".shx", base + ".dbf"}
}

// zipFiles archives files by base name.
func zipFiles(t *testing.T, files []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		fw, err := zw.Create(filepath.Base(f))
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// tractArchive builds tl_2020_24_tract.zip.
func tractArchive(t *testing.T) []byte {
	t.Helper()
	return zipFiles(t, writeShapefile(t, t.TempDir(), "tl_2020_24_tract", mdTracts))
}
