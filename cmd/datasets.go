package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/census-cli/internal/census"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List datasets published on the Census data API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, err := newClient()
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		return printDatasets(ctx, cmd.OutOrStdout(), client, name)
	},
}

var yearsCmd = &cobra.Command{
	Use:   "years <dataset>",
	Short: "List the vintages available for a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, err := newClient()
		if err != nil {
			return err
		}
		return printYears(ctx, cmd.OutOrStdout(), client, args[0])
	},
}

func init() {
	datasetsCmd.Flags().String("name", "", "only list datasets whose name contains this substring")
	rootCmd.AddCommand(datasetsCmd)
	rootCmd.AddCommand(yearsCmd)
}

// printDatasets writes one line per catalog entry, optionally filtered by a
// name substring.
func printDatasets(ctx context.Context, w io.Writer, client *census.Client, filter string) error {
	entries, err := client.Catalog().Datasets(ctx)
	if err != nil {
		return eris.Wrap(err, "datasets")
	}

	filter = strings.ToLower(strings.TrimSpace(filter))
	fmt.Fprintf(w, "%-30s %-6s %s\n", "Dataset", "Year", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, e := range entries {
		if filter != "" && !strings.Contains(strings.ToLower(e.Name), filter) {
			continue
		}
		fmt.Fprintf(w, "%-30s %-6d %s\n", e.Name, e.Year, e.Title)
	}
	return nil
}

func printYears(ctx context.Context, w io.Writer, client *census.Client, name string) error {
	ds, err := client.Dataset(ctx, name)
	if err != nil {
		return err
	}
	years, err := ds.AvailableYears(ctx)
	if err != nil {
		return eris.Wrapf(err, "years: %s", name)
	}
	for _, y := range years {
		fmt.Fprintln(w, y)
	}
	return nil
}
