package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 8, cfg.FetchWorkers)
	assert.Equal(t, 3, cfg.MaxCrawlDepth)
	assert.InDelta(t, 0.85, cfg.GlobalNavFrequency, 1e-9)
	assert.InDelta(t, 0.90, cfg.HubPageFrequency, 1e-9)
	assert.InDelta(t, 0.30, cfg.KeyPageFraction, 1e-9)
	assert.Equal(t, 10, cfg.MinKeyPages)
	assert.Equal(t, 30, cfg.MaxKeyPages)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GLOBAL_NAV_FREQUENCY", "0.5")
	t.Setenv("MIN_KEY_PAGES", "7")

	cfg, err := Load()
	require.NoError(t, err)

	opts := cfg.AnalysisOptions()
	assert.InDelta(t, 0.5, opts.Thresholds.GlobalNavFrequency, 1e-9)
	assert.Equal(t, 7, opts.Limits.MinKeyPages)
	// Untouched values stay at their defaults.
	assert.InDelta(t, 0.10, opts.Thresholds.FallbackRatio, 1e-9)
}
