package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/census-cli/internal/census"
	"github.com/sells-group/census-cli/internal/config"
	"github.com/sells-group/census-cli/internal/fetcher"
	"github.com/sells-group/census-cli/internal/fips"
	"github.com/sells-group/census-cli/internal/resilience"
	"github.com/sells-group/census-cli/internal/tiger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "census-cli",
	Short: "Query the U.S. Census Bureau data API and boundary files",
	Long: `Looks up datasets, variables and geography requirements on api.census.gov,
builds validated queries, resolves state and county names to FIPS codes, and
downloads TIGER/Line and cartographic boundary shapefiles.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newAPIFetcher builds the fetcher used for api.census.gov and the FIPS
// reference files.
func newAPIFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    cfg.API.UserAgent,
		Timeout:      time.Duration(cfg.API.TimeoutSecs) * time.Second,
		MaxRetries:   cfg.API.MaxRetries,
		RateLimiters: fetcher.DefaultRateLimiters(cfg.API.RateLimit),
	})
}

// newClient builds a census client from the loaded config.
func newClient() (*census.Client, error) {
	if err := cfg.Validate("api"); err != nil {
		return nil, err
	}
	return census.NewClient(newAPIFetcher(), census.Options{
		BaseURL: cfg.API.BaseURL,
		APIKey:  cfg.API.Key,
	}), nil
}

func newRegistry() *fips.Registry {
	return fips.NewRegistry(newAPIFetcher(), cfg.FIPS.ReferenceURL)
}

// newLoader builds a boundary file loader. Retries are left to the loader's
// policy.
func newLoader() (*tiger.Loader, error) {
	if err := cfg.Validate("tiger"); err != nil {
		return nil, err
	}
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    cfg.API.UserAgent,
		Timeout:      30 * time.Minute,
		MaxRetries:   1,
		RateLimiters: fetcher.DefaultRateLimiters(cfg.API.RateLimit),
	})
	retry := resilience.DefaultPolicy()
	if cfg.Tiger.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Tiger.MaxAttempts
	}
	return tiger.NewLoader(f, tiger.Options{
		BaseURL:     cfg.Tiger.BaseURL,
		CacheDir:    cfg.Tiger.CacheDir,
		TempDir:     cfg.Tiger.TempDir,
		Concurrency: cfg.Tiger.Concurrency,
		Retry:       retry,
	}), nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
