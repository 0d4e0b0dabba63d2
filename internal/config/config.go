// Package config loads census-cli settings from config.yaml and CENSUS_* environment variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Tiger   TigerConfig   `yaml:"tiger" mapstructure:"tiger"`
	FIPS    FIPSConfig    `yaml:"fips" mapstructure:"fips"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	PostGIS PostGISConfig `yaml:"postgis" mapstructure:"postgis"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// APIConfig configures the Census Bureau data API client.
type APIConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Key         string  `yaml:"key" mapstructure:"key"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// TigerConfig configures boundary file downloads.
type TigerConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	CacheDir    string `yaml:"cache_dir" mapstructure:"cache_dir"`
	TempDir     string `yaml:"temp_dir" mapstructure:"temp_dir"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	MaxAttempts int    `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// FIPSConfig configures the county reference file source.
type FIPSConfig struct {
	ReferenceURL string `yaml:"reference_url" mapstructure:"reference_url"`
}

// StoreConfig configures the SQLite result sink.
type StoreConfig struct {
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// PostGISConfig configures the boundary export database.
type PostGISConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Schema      string `yaml:"schema" mapstructure:"schema"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment: CENSUS_API_KEY, CENSUS_TIGER_CACHE_DIR, ...
	v.SetEnvPrefix("CENSUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.base_url", "https://api.census.gov")
	v.SetDefault("api.key", "")
	v.SetDefault("api.user_agent", "census-cli/1.0")
	v.SetDefault("api.timeout_secs", 60)
	v.SetDefault("api.max_retries", 1)
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("tiger.base_url", "https://www2.census.gov/geo/tiger/")
	v.SetDefault("tiger.cache_dir", "")
	v.SetDefault("tiger.temp_dir", "/tmp/census-cli")
	v.SetDefault("tiger.concurrency", 3)
	v.SetDefault("tiger.max_attempts", 3)
	v.SetDefault("fips.reference_url", "https://www2.census.gov/geo/docs/reference/codes/files/")
	v.SetDefault("store.sqlite_path", "census.db")
	v.SetDefault("postgis.database_url", "")
	v.SetDefault("postgis.schema", "public")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Validate checks the settings required by a command mode ("api", "tiger", "postgis").
func (c *Config) Validate(mode string) error {
	var missing []string
	switch mode {
	case "api":
		if c.API.BaseURL == "" {
			missing = append(missing, "api.base_url")
		}
		if c.API.MaxRetries < 1 {
			return eris.Errorf("config: api.max_retries must be >= 1, got %d", c.API.MaxRetries)
		}
	case "tiger":
		if c.Tiger.BaseURL == "" {
			missing = append(missing, "tiger.base_url")
		}
		if c.Tiger.Concurrency < 1 || c.Tiger.Concurrency > 16 {
			return eris.Errorf("config: tiger.concurrency must be between 1 and 16, got %d", c.Tiger.Concurrency)
		}
	case "postgis":
		if c.PostGIS.DatabaseURL == "" {
			missing = append(missing, "postgis.database_url")
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings for %s: %s", mode, strings.Join(missing, ", "))
	}
	return nil
}
