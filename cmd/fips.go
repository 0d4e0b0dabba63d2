package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/census-cli/internal/fips"
)

var stateCmd = &cobra.Command{
	Use:   "state <name|abbreviation|fips>",
	Short: "Look up a state's FIPS code, abbreviation and name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := fips.LookupState(strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", st.FIPS, st.Abbr, st.Name)
		return nil
	},
}

var countiesCmd = &cobra.Command{
	Use:   "counties <state>",
	Short: "List a state's counties and their FIPS codes",
	Long: `Lists the counties and county-equivalents of a state from the Bureau's
reference files. With --name a single county is resolved by its name or a
unique name prefix, matched without regard to case or accents.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		name, _ := cmd.Flags().GetString("name")
		return printCounties(ctx, cmd.OutOrStdout(), newRegistry(), strings.Join(args, " "), name)
	},
}

func init() {
	countiesCmd.Flags().String("name", "", "resolve a single county by name or name prefix")
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(countiesCmd)
}

func printCounties(ctx context.Context, w io.Writer, reg *fips.Registry, state, name string) error {
	st, err := fips.LookupState(state)
	if err != nil {
		return err
	}

	var counties []fips.County
	if name != "" {
		c, err := reg.County(ctx, st.Abbr, name)
		if err != nil {
			return err
		}
		counties = []fips.County{c}
	} else {
		counties, err = reg.Counties(ctx, st)
		if err != nil {
			return err
		}
	}

	for _, c := range counties {
		fmt.Fprintf(w, "%s%s\t%s\n", st.FIPS, c.FIPS, c.Name)
	}
	return nil
}
