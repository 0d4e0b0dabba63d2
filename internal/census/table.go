package census

import (
	"context"
	"io"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/census-cli/internal/fetcher"
)

// Table is a query result: the header row as Columns and the data rows in
// response order.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int { return slices.Index(t.Columns, name) }

// Column returns every value of column name. ok is false when the column does
// not exist.
func (t *Table) Column(name string) (values []string, ok bool) {
	i := t.Index(name)
	if i < 0 {
		return nil, false
	}
	values = make([]string, len(t.Rows))
	for r, row := range t.Rows {
		values[r] = row[i]
	}
	return values, true
}

// Records returns each row keyed by column name.
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, len(t.Rows))
	for r, row := range t.Rows {
		rec := make(map[string]string, len(t.Columns))
		for i, c := range t.Columns {
			rec[c] = row[i]
		}
		out[r] = rec
	}
	return out
}

// Query validates q, issues the request and returns the labelled result. A
// "no content" answer yields an empty Table.
func (d *Dataset) Query(ctx context.Context, q Query) (*Table, error) {
	u, err := d.RequestURL(ctx, q)
	if err != nil {
		return nil, err
	}
	return d.Execute(ctx, u)
}

// Execute issues a request URL built by RequestURL and returns the labelled
// result.
func (d *Dataset) Execute(ctx context.Context, u string) (*Table, error) {
	log := zap.L().With(
		zap.String("component", "census.query"),
		zap.String("dataset", d.name),
	)
	log.Info("census: executing query", zap.String("url", fetcher.RedactURL(u)))

	body, err := d.client.f.Download(ctx, u)
	if err != nil {
		return nil, eris.Wrapf(err, "census: query %s", d.name)
	}
	defer body.Close() //nolint:errcheck

	table, err := decodeTable(ctx, body)
	if err != nil {
		return nil, eris.Wrapf(err, "census: parse response for %s", d.name)
	}
	log.Debug("census: query complete", zap.Int("rows", table.Len()))
	return table, nil
}

func decodeTable(ctx context.Context, r io.Reader) (*Table, error) {
	rows, errs := fetcher.DecodeJSONArray[[]string](ctx, r)

	t := &Table{}
	first := true
	for row := range rows {
		if first {
			t.Columns = row
			first = false
			continue
		}
		if len(row) != len(t.Columns) {
			// drain so the decoder goroutine exits
			for range rows {
			}
			return nil, eris.Errorf("census: row %d has %d values, header has %d", len(t.Rows)+1, len(row), len(t.Columns))
		}
		t.Rows = append(t.Rows, row)
	}
	if err := <-errs; err != nil {
		return nil, err
	}
	return t, nil
}
