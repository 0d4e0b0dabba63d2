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
	"go.uber.org/zap"

	"github.com/sells-group/census-cli/internal/census"
	"github.com/sells-group/census-cli/internal/db"
	"github.com/sells-group/census-cli/internal/fips"
	"github.com/sells-group/census-cli/internal/tiger"
)

var shpCmd = &cobra.Command{
	Use:   "shp",
	Short: "Download TIGER/Line or cartographic boundary shapefiles",
	Long: `Downloads the boundary shapefile for a geography level, year and state,
parses it and prints a summary or GeoJSON. Files are kept under
tiger.cache_dir (CENSUS_TIGER_CACHE_DIR) with --cache and read from there on
later runs. With --postgis-table the features are copied into PostGIS.

  census-cli shp --state MD --level tract --year 2020 --cb --format geojson
  census-cli shp --state "New Mexico" --county "Dona Ana" --level block --year 2020 --cache`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		statesStr, _ := cmd.Flags().GetString("state")
		county, _ := cmd.Flags().GetString("county")
		year, _ := cmd.Flags().GetInt("year")
		level, _ := cmd.Flags().GetString("level")
		cb, _ := cmd.Flags().GetBool("cb")
		cache, _ := cmd.Flags().GetBool("cache")
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")
		pgTable, _ := cmd.Flags().GetString("postgis-table")

		if format != "geojson" && format != "summary" {
			return eris.Errorf("shp: unknown format %q (want geojson or summary)", format)
		}

		loader, err := newLoader()
		if err != nil {
			return err
		}
		req := tiger.Request{Year: year, Level: level, Cartographic: cb, Cache: cache}

		layer, err := loadBoundaries(ctx, loader, newRegistry(), req, splitAndTrim(statesStr), county)
		if err != nil {
			return err
		}

		if pgTable != "" {
			if err := copyBoundaries(ctx, layer, pgTable); err != nil {
				return err
			}
		}

		return writeOutput(cmd.OutOrStdout(), outPath, func(w io.Writer) error {
			if format == "geojson" {
				return tiger.WriteGeoJSON(w, layer)
			}
			printLayerSummary(w, layer)
			return nil
		})
	},
}

func init() {
	shpCmd.Flags().String("state", "", "comma-separated state names, abbreviations or FIPS codes")
	shpCmd.Flags().String("county", "", "keep only this county (name or prefix); needs a single --state")
	shpCmd.Flags().Int("year", 0, "boundary file vintage, 2014 or later (required)")
	shpCmd.Flags().String("level", "tract", "geography level: "+strings.Join(census.LevelNames(), ", "))
	shpCmd.Flags().Bool("cb", false, "use the generalized cartographic boundary (500k) files")
	shpCmd.Flags().Bool("cache", false, "keep the downloaded files in tiger.cache_dir")
	shpCmd.Flags().String("format", "summary", "output format: summary or geojson")
	shpCmd.Flags().String("out", "", "write output to this file instead of stdout")
	shpCmd.Flags().String("postgis-table", "", "copy the features into this PostGIS table")
	_ = shpCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(shpCmd)
}

// loadBoundaries resolves the state and county arguments and loads the
// matching features. National levels ignore the states.
func loadBoundaries(ctx context.Context, loader *tiger.Loader, reg *fips.Registry, req tiger.Request, states []string, county string) (*tiger.Layer, error) {
	level, ok := census.LevelByName(req.Level)
	if !ok {
		return nil, eris.Wrapf(tiger.ErrUnknownLevel, "%q (known: %s)", req.Level, strings.Join(census.LevelNames(), ", "))
	}
	if level.National {
		if county != "" {
			return nil, eris.Errorf("shp: --county does not apply to %s files", level.Name)
		}
		return loader.Load(ctx, req)
	}

	if len(states) == 0 {
		return nil, eris.Errorf("shp: %s files are published per state; pass --state", level.Name)
	}
	resolved := make([]fips.State, len(states))
	codes := make([]string, len(states))
	for i, s := range states {
		st, err := fips.LookupState(s)
		if err != nil {
			return nil, err
		}
		resolved[i] = st
		codes[i] = st.FIPS
	}

	if county != "" {
		if len(resolved) != 1 {
			return nil, eris.New("shp: --county needs exactly one --state")
		}
		c, err := reg.County(ctx, resolved[0].Abbr, county)
		if err != nil {
			return nil, err
		}
		req.StateFIPS = resolved[0].FIPS
		return loader.LoadCounty(ctx, req, c.FIPS)
	}

	if len(codes) == 1 {
		req.StateFIPS = codes[0]
		return loader.Load(ctx, req)
	}
	layers, err := loader.LoadStates(ctx, req, codes)
	if err != nil {
		return nil, err
	}
	return mergeLayers(layers), nil
}

// mergeLayers concatenates the features of same-product layers.
func mergeLayers(layers []*tiger.Layer) *tiger.Layer {
	if len(layers) == 0 {
		return &tiger.Layer{}
	}
	names := make([]string, len(layers))
	out := &tiger.Layer{Columns: layers[0].Columns}
	for i, l := range layers {
		names[i] = l.Name
		out.Features = append(out.Features, l.Features...)
	}
	out.Name = strings.Join(names, "+")
	return out
}

func copyBoundaries(ctx context.Context, layer *tiger.Layer, table string) error {
	if err := cfg.Validate("postgis"); err != nil {
		return err
	}
	pool, err := db.Connect(ctx, cfg.PostGIS.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	n, err := tiger.CopyToPostGIS(ctx, pool, cfg.PostGIS.Schema, table, layer)
	if err != nil {
		return err
	}
	zap.L().Info("boundaries copied to PostGIS",
		zap.String("schema", cfg.PostGIS.Schema),
		zap.String("table", table),
		zap.Int64("rows", n),
	)
	return nil
}

func printLayerSummary(w io.Writer, layer *tiger.Layer) {
	fmt.Fprintf(w, "Layer:    %s\n", layer.Name)
	fmt.Fprintf(w, "Features: %d\n", layer.Len())
	fmt.Fprintf(w, "Columns:  %s\n", strings.Join(layer.Columns, ", "))
	if layer.Len() == 0 {
		return
	}

	fmt.Fprintln(w, strings.Repeat("-", 80))
	shown := min(layer.Len(), 10)
	for _, f := range layer.Features[:shown] {
		fmt.Fprintf(w, "%-20s %s\n", f.Attributes["GEOID"], f.Attributes["NAME"])
	}
	if layer.Len() > shown {
		fmt.Fprintf(w, "... %d more\n", layer.Len()-shown)
	}
}
