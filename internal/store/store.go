// Package store persists query results.
package store

import (
	"context"
	"time"

	"github.com/sells-group/census-cli/internal/census"
)

// Export describes one table written by WriteTable.
type Export struct {
	ID        string    `json:"id" yaml:"id"`
	Table     string    `json:"table" yaml:"table"`
	Dataset   string    `json:"dataset" yaml:"dataset"`
	Year      int       `json:"year" yaml:"year"`
	Geography string    `json:"geography" yaml:"geography"`
	URL       string    `json:"url" yaml:"url"` // key redacted
	Rows      int       `json:"rows" yaml:"rows"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Store is a sink for query result tables.
type Store interface {
	Migrate(ctx context.Context) error
	// WriteTable replaces table name with t and records the export.
	WriteTable(ctx context.Context, name string, t *census.Table, meta Export) (*Export, error)
	ListExports(ctx context.Context, limit int) ([]Export, error)
	Close() error
}
