package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/census-cli/internal/store"
)

var exportsCmd = &cobra.Command{
	Use:   "exports",
	Short: "List query results saved to SQLite with query --table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("sqlite")
		if path == "" {
			path = cfg.Store.SQLitePath
		}
		limit, _ := cmd.Flags().GetInt("limit")
		return printExports(cmd.Context(), cmd.OutOrStdout(), path, limit)
	},
}

func init() {
	exportsCmd.Flags().String("sqlite", "", "SQLite database path (default: store.sqlite_path)")
	exportsCmd.Flags().Int("limit", 20, "maximum number of exports to list (0 for all)")
	rootCmd.AddCommand(exportsCmd)
}

func printExports(ctx context.Context, w io.Writer, path string, limit int) error {
	st, err := store.NewSQLite(path)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	exports, err := st.ListExports(ctx, limit)
	if err != nil {
		return err
	}

	if len(exports) == 0 {
		fmt.Fprintln(w, "No exports yet")
		return nil
	}

	fmt.Fprintf(w, "%-20s %-16s %-6s %-12s %8s %s\n", "Table", "Dataset", "Year", "Geography", "Rows", "Created At")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, e := range exports {
		fmt.Fprintf(w, "%-20s %-16s %-6d %-12s %8d %s\n",
			e.Table, e.Dataset, e.Year, e.Geography, e.Rows, e.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
