package config

import (
	"flowmapper/internal/analysis"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	PostgresURL       string `mapstructure:"POSTGRES_URL"`
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	ServerPort        string `mapstructure:"SERVER_PORT"`
	LogFile           string `mapstructure:"LOG_FILE"`
	FetchWorkers      int    `mapstructure:"FETCH_WORKERS"`
	FetchTimeout      int    `mapstructure:"FETCH_TIMEOUT"`
	MaxCrawlDepth     int    `mapstructure:"MAX_CRAWL_DEPTH"`
	MaxCrawlPages     int    `mapstructure:"MAX_CRAWL_PAGES"`
	DeduplicationDays int    `mapstructure:"DEDUPLICATION_DAYS"`
	FlowCacheMinutes  int    `mapstructure:"FLOW_CACHE_MINUTES"`

	// Analysis tunables. Defaults are the calibrated production
	// values; override only for experiments.
	GlobalNavFrequency float64 `mapstructure:"GLOBAL_NAV_FREQUENCY"`
	HubPageFrequency   float64 `mapstructure:"HUB_PAGE_FREQUENCY"`
	StructuralFraction float64 `mapstructure:"STRUCTURAL_FRACTION"`
	RepetitiveFraction float64 `mapstructure:"REPETITIVE_FRACTION"`
	FallbackRatio      float64 `mapstructure:"FALLBACK_RATIO"`
	KeyPageFraction    float64 `mapstructure:"KEY_PAGE_FRACTION"`
	MinKeyPages        int     `mapstructure:"MIN_KEY_PAGES"`
	MaxKeyPages        int     `mapstructure:"MAX_KEY_PAGES"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present.
	// This allows configuration purely through environment variables.
	_ = viper.ReadInConfig()

	defaults := analysis.DefaultOptions()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_FILE", "")
	viper.SetDefault("FETCH_WORKERS", 8)
	viper.SetDefault("FETCH_TIMEOUT", 30) // in seconds
	viper.SetDefault("MAX_CRAWL_DEPTH", 3)
	viper.SetDefault("MAX_CRAWL_PAGES", 150)
	viper.SetDefault("DEDUPLICATION_DAYS", 2)
	viper.SetDefault("FLOW_CACHE_MINUTES", 30)

	viper.SetDefault("GLOBAL_NAV_FREQUENCY", defaults.Thresholds.GlobalNavFrequency)
	viper.SetDefault("HUB_PAGE_FREQUENCY", defaults.Thresholds.HubPageFrequency)
	viper.SetDefault("STRUCTURAL_FRACTION", defaults.Thresholds.StructuralFraction)
	viper.SetDefault("REPETITIVE_FRACTION", defaults.Thresholds.RepetitiveFraction)
	viper.SetDefault("FALLBACK_RATIO", defaults.Thresholds.FallbackRatio)
	viper.SetDefault("KEY_PAGE_FRACTION", defaults.Limits.TargetFraction)
	viper.SetDefault("MIN_KEY_PAGES", defaults.Limits.MinKeyPages)
	viper.SetDefault("MAX_KEY_PAGES", defaults.Limits.MaxKeyPages)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// AnalysisOptions maps the configured tunables onto pipeline options.
func (c *Config) AnalysisOptions() analysis.Options {
	opts := analysis.DefaultOptions()
	opts.Thresholds.GlobalNavFrequency = c.GlobalNavFrequency
	opts.Thresholds.HubPageFrequency = c.HubPageFrequency
	opts.Thresholds.StructuralFraction = c.StructuralFraction
	opts.Thresholds.RepetitiveFraction = c.RepetitiveFraction
	opts.Thresholds.FallbackRatio = c.FallbackRatio
	opts.Limits.TargetFraction = c.KeyPageFraction
	opts.Limits.MinKeyPages = c.MinKeyPages
	opts.Limits.MaxKeyPages = c.MaxKeyPages
	return opts
}
