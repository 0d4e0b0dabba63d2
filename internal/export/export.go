// Package export writes query result tables as CSV, JSON, YAML or XLSX.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/census-cli/internal/census"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	CSV  Format = "csv"
	JSON Format = "json"
	YAML Format = "yaml"
	XLSX Format = "xlsx"
)

// Formats lists the supported formats.
var Formats = []Format{CSV, JSON, YAML, XLSX}

// ParseFormat accepts a format name case-insensitively; "yml" is YAML.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "yml" {
		f = YAML
	}
	if !slices.Contains(Formats, f) {
		return "", eris.Errorf("export: unknown format %q (want csv, json, yaml or xlsx)", s)
	}
	return f, nil
}

// SheetName is the worksheet written by XLSX output.
const SheetName = "census"

// Write encodes t to w in the given format.
func Write(w io.Writer, t *census.Table, f Format) error {
	switch f {
	case CSV:
		return writeCSV(w, t)
	case JSON:
		return writeJSON(w, t)
	case YAML:
		return writeYAML(w, t)
	case XLSX:
		return writeXLSX(w, t)
	default:
		return eris.Errorf("export: unknown format %q", f)
	}
}

func writeCSV(w io.Writer, t *census.Table) error {
	cw := csv.NewWriter(w)
	if len(t.Columns) > 0 {
		if err := cw.Write(t.Columns); err != nil {
			return eris.Wrap(err, "export: write csv header")
		}
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return eris.Wrap(err, "export: write csv rows")
	}
	return nil
}

// writeJSON emits one object per row keyed by column name.
func writeJSON(w io.Writer, t *census.Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t.Records()); err != nil {
		return eris.Wrap(err, "export: encode json")
	}
	return nil
}

// writeYAML emits a sequence of mappings whose keys keep column order.
func writeYAML(w io.Writer, t *census.Table) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range t.Rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for i, col := range t.Columns {
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: col},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: row[i]},
			)
		}
		doc.Content = append(doc.Content, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "export: encode yaml")
	}
	return eris.Wrap(enc.Close(), "export: flush yaml")
}

func writeXLSX(w io.Writer, t *census.Table) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	addRow := func(values []string) {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	if len(t.Columns) > 0 {
		addRow(t.Columns)
	}
	for _, r := range t.Rows {
		addRow(r)
	}

	if err := file.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}
