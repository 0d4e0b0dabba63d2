package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/census-cli/internal/census"
)

var variablesCmd = &cobra.Command{
	Use:   "variables <dataset>",
	Short: "List the variables a dataset publishes for a year",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, err := newClient()
		if err != nil {
			return err
		}
		year, _ := cmd.Flags().GetInt("year")
		group, _ := cmd.Flags().GetString("group")
		return printVariables(ctx, cmd.OutOrStdout(), client, args[0], year, group)
	},
}

var geographiesCmd = &cobra.Command{
	Use:   "geographies <dataset>",
	Short: "List the geography levels a dataset supports and the parents each requires",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, err := newClient()
		if err != nil {
			return err
		}
		year, _ := cmd.Flags().GetInt("year")
		return printGeographies(ctx, cmd.OutOrStdout(), client, args[0], year)
	},
}

func init() {
	variablesCmd.Flags().Int("year", 0, "dataset vintage (required)")
	variablesCmd.Flags().String("group", "", "only list variables in this group, e.g. P1")
	_ = variablesCmd.MarkFlagRequired("year")
	geographiesCmd.Flags().Int("year", 0, "dataset vintage (required)")
	_ = geographiesCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(variablesCmd)
	rootCmd.AddCommand(geographiesCmd)
}

func printVariables(ctx context.Context, w io.Writer, client *census.Client, name string, year int, group string) error {
	ds, err := client.Dataset(ctx, name)
	if err != nil {
		return err
	}
	vars, err := ds.Variables(ctx, year)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%-16s %-8s %s\n", "Code", "Group", "Label")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, v := range vars {
		if group != "" && !strings.EqualFold(v.Group, group) {
			continue
		}
		fmt.Fprintf(w, "%-16s %-8s %s\n", v.Code, v.Group, v.Label)
	}
	return nil
}

func printGeographies(ctx context.Context, w io.Writer, client *census.Client, name string, year int) error {
	ds, err := client.Dataset(ctx, name)
	if err != nil {
		return err
	}
	geos, err := ds.Geographies(ctx, year)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%-20s %-6s %-30s %s\n", "Geography", "Level", "Requires", "Wildcards")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, g := range geos {
		fmt.Fprintf(w, "%-20s %-6s %-30s %s\n",
			g.Name, g.SummaryLevel, strings.Join(g.Requires, ", "), strings.Join(g.Wildcards, ", "))
	}
	return nil
}
