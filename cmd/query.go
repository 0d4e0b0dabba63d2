package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/census-cli/internal/census"
	"github.com/sells-group/census-cli/internal/export"
	"github.com/sells-group/census-cli/internal/fips"
	"github.com/sells-group/census-cli/internal/store"
)

var urlCmd = &cobra.Command{
	Use:   "url <dataset>",
	Short: "Validate a query and print its request URL without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, err := newClient()
		if err != nil {
			return err
		}
		ds, q, err := prepareQuery(ctx, cmd, client, args[0])
		if err != nil {
			return err
		}
		u, err := ds.RequestURL(ctx, q)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), u)
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <dataset>",
	Short: "Run a query against the Census data API",
	Long: `Validates the query against the dataset's metadata, runs it and writes the
result table as CSV, JSON, YAML or XLSX. With --table the result is also
written to the SQLite database at store.sqlite_path (or --sqlite).

Parent geographies are pinned with --state, --county or repeated --in flags:

  census-cli query dec/pl --year 2020 --geography tract --vars P1_001N --state MD
  census-cli query acs/acs5 --year 2020 --geography "block group" --vars B01001_001E \
    --state "New Mexico" --county "Dona Ana" --in tract:001100`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, err := newClient()
		if err != nil {
			return err
		}
		ds, q, err := prepareQuery(ctx, cmd, client, args[0])
		if err != nil {
			return err
		}

		formatStr, _ := cmd.Flags().GetString("format")
		format, err := export.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		outPath, _ := cmd.Flags().GetString("out")
		table, _ := cmd.Flags().GetString("table")
		sqlitePath, _ := cmd.Flags().GetString("sqlite")
		if sqlitePath == "" {
			sqlitePath = cfg.Store.SQLitePath
		}

		u, err := ds.RequestURL(ctx, q)
		if err != nil {
			return err
		}
		result, err := ds.Execute(ctx, u)
		if err != nil {
			return err
		}

		if table != "" {
			if err := saveTable(ctx, ds, q, u, result, sqlitePath, table); err != nil {
				return err
			}
		}

		return writeOutput(cmd.OutOrStdout(), outPath, func(w io.Writer) error {
			return export.Write(w, result, format)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{urlCmd, queryCmd} {
		c.Flags().Int("year", 0, "dataset vintage (required)")
		c.Flags().String("geography", "", "geography level to return rows for, e.g. tract (required)")
		c.Flags().String("vars", "", "comma-separated variable codes (required)")
		c.Flags().String("state", "", "state name, postal abbreviation or FIPS code")
		c.Flags().String("county", "", "county name or name prefix; requires --state")
		c.Flags().StringArray("in", nil, "additional parent pin as level:code (repeatable)")
		c.Flags().String("key", "", "API key (default: api.key / CENSUS_API_KEY)")
		_ = c.MarkFlagRequired("year")
		_ = c.MarkFlagRequired("geography")
		_ = c.MarkFlagRequired("vars")
	}
	queryCmd.Flags().String("format", "csv", "output format: csv, json, yaml or xlsx")
	queryCmd.Flags().String("out", "", "write output to this file instead of stdout")
	queryCmd.Flags().String("table", "", "also write the result to this SQLite table")
	queryCmd.Flags().String("sqlite", "", "SQLite database path (default: store.sqlite_path)")
	rootCmd.AddCommand(urlCmd)
	rootCmd.AddCommand(queryCmd)
}

// prepareQuery resolves the dataset and turns the query flags into a Query.
func prepareQuery(ctx context.Context, cmd *cobra.Command, client *census.Client, name string) (*census.Dataset, census.Query, error) {
	year, _ := cmd.Flags().GetInt("year")
	geography, _ := cmd.Flags().GetString("geography")
	varsStr, _ := cmd.Flags().GetString("vars")
	state, _ := cmd.Flags().GetString("state")
	county, _ := cmd.Flags().GetString("county")
	pins, _ := cmd.Flags().GetStringArray("in")
	key, _ := cmd.Flags().GetString("key")

	ds, err := client.Dataset(ctx, name)
	if err != nil {
		return nil, census.Query{}, err
	}

	var reg *fips.Registry
	if county != "" {
		reg = newRegistry()
	}
	fipsMap, err := buildFIPS(ctx, reg, state, county, pins)
	if err != nil {
		return nil, census.Query{}, err
	}

	return ds, census.Query{
		Year:      year,
		Geography: census.NormalizeLevel(geography),
		Variables: splitAndTrim(varsStr),
		FIPS:      fipsMap,
		APIKey:    key,
	}, nil
}

// buildFIPS assembles the pins in the order state, county, then each --in
// flag as given.
func buildFIPS(ctx context.Context, reg *fips.Registry, state, county string, pins []string) (census.FIPSMap, error) {
	var m census.FIPSMap

	if county != "" && state == "" {
		return nil, eris.New("--county requires --state")
	}
	if state != "" {
		st, err := fips.LookupState(state)
		if err != nil {
			return nil, err
		}
		if county != "" {
			c, err := reg.County(ctx, st.Abbr, county)
			if err != nil {
				return nil, err
			}
			m = c.FIPSMap()
		} else {
			m = st.FIPSMap()
		}
	}

	for _, p := range pins {
		pin, err := census.ParseFIPSPin(p)
		if err != nil {
			return nil, err
		}
		m = append(m, pin)
	}
	return m, nil
}

// saveTable writes result, fetched from u, to a SQLite table and logs the
// export record.
func saveTable(ctx context.Context, ds *census.Dataset, q census.Query, u string, result *census.Table, path, table string) error {
	st, err := store.NewSQLite(path)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	exp, err := st.WriteTable(ctx, table, result, store.Export{
		Dataset:   ds.Name(),
		Year:      q.Year,
		Geography: q.Geography,
		URL:       u,
	})
	if err != nil {
		return err
	}

	zap.L().Info("query result saved",
		zap.String("path", path),
		zap.String("table", exp.Table),
		zap.String("export_id", exp.ID),
		zap.Int("rows", exp.Rows),
	)
	return nil
}

// writeOutput runs write against the named file, or stdout when path is empty.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "close %s", path)
	}
	return nil
}
