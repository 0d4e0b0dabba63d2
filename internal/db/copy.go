package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultBatchSize is the number of rows sent per COPY when none is given.
const DefaultBatchSize = 50000

// CopyFrom bulk-inserts rows into schema.table with the COPY protocol,
// batchSize rows at a time. It returns the number of rows copied before any
// failure.
func CopyFrom(ctx context.Context, pool Pool, schema, table string, columns []string, rows [][]any, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	ident := pgx.Identifier{schema, table}
	var total int64
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		n, err := pool.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(rows[start:end]))
		if err != nil {
			return total, eris.Wrapf(err, "db: COPY into %s.%s (rows %d-%d)", schema, table, start, end)
		}
		total += n
		zap.L().Debug("db: copied batch",
			zap.String("table", schema+"."+table),
			zap.Int("start", start),
			zap.Int64("rows", n),
		)
	}
	return total, nil
}
