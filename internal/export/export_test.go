package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/census-cli/internal/census"
)

func sampleTable() *census.Table {
	return &census.Table{
		Columns: []string{"NAME", "P1_001N", "state"},
		Rows: [][]string{
			{"Maryland", "6177224", "24"},
			{"Delaware, \"First State\"", "989948", "10"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": CSV, "JSON": JSON, " yml ": YAML, "yaml": YAML, "xlsx": XLSX} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parquet")
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTable(), CSV))
	assert.Equal(t, "NAME,P1_001N,state\nMaryland,6177224,24\n\"Delaware, \"\"First State\"\"\",989948,10\n", buf.String())
}

func TestWrite_CSV_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &census.Table{}, CSV))
	assert.Empty(t, buf.String())
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTable(), JSON))

	var got []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, map[string]string{"NAME": "Maryland", "P1_001N": "6177224", "state": "24"}, got[0])
}

func TestWrite_YAML_KeepsColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTable(), YAML))

	assert.Contains(t, buf.String(), "- NAME: Maryland\n  P1_001N: \"6177224\"\n  state: \"24\"\n")

	var got []map[string]string
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "989948", got[1]["P1_001N"])
}

func TestWrite_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTable(), XLSX))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "P1_001N", sheet.Rows[0].Cells[1].String())
	assert.Equal(t, "6177224", sheet.Rows[1].Cells[1].String())
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, sampleTable(), Format("toml")))
}
