package tiger

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/census-cli/internal/db"
)

// GeomColumn is the geometry column created by CopyToPostGIS.
const GeomColumn = "geom"

// CopyToPostGIS creates schema.table when missing, with one text column per
// attribute and a geometry column, then bulk-loads the layer with COPY.
// Column names are lowercased. Returns the number of rows copied.
func CopyToPostGIS(ctx context.Context, pool db.Pool, schema, table string, layer *Layer) (int64, error) {
	log := zap.L().With(
		zap.String("component", "tiger.postgis"),
		zap.String("table", schema+"."+table),
		zap.String("layer", layer.Name),
	)

	columns := make([]string, 0, len(layer.Columns)+1)
	for _, c := range layer.Columns {
		columns = append(columns, strings.ToLower(c))
	}
	columns = append(columns, GeomColumn)

	if _, err := pool.Exec(ctx, createTableSQL(schema, table, columns)); err != nil {
		return 0, eris.Wrapf(err, "tiger: create %s.%s", schema, table)
	}

	rows := make([][]any, 0, layer.Len())
	for _, f := range layer.Features {
		row := make([]any, 0, len(columns))
		for _, c := range layer.Columns {
			if v := f.Attributes[c]; v != "" {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		wkb, err := EncodeEWKB(f.Geometry)
		if err != nil {
			return 0, err
		}
		rows = append(rows, append(row, wkb))
	}

	n, err := db.CopyFrom(ctx, pool, schema, table, columns, rows, db.DefaultBatchSize)
	if err != nil {
		return n, eris.Wrap(err, "tiger: load PostGIS table")
	}
	log.Info("boundaries loaded", zap.Int64("rows", n))
	return n, nil
}

func createTableSQL(schema, table string, columns []string) string {
	defs := make([]string, 0, len(columns))
	for _, c := range columns[:len(columns)-1] {
		defs = append(defs, pgx.Identifier{c}.Sanitize()+" text")
	}
	defs = append(defs, fmt.Sprintf("%s geometry(Geometry, %d)", pgx.Identifier{GeomColumn}.Sanitize(), SRID))
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pgx.Identifier{schema, table}.Sanitize(), strings.Join(defs, ", "))
}
