package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 6*time.Second, cfg.AdapterTimeout)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 1000, cfg.CacheCapacity)
	assert.Equal(t, CacheBackendMemory, cfg.CacheBackend)
	assert.Equal(t, 168*time.Hour, cfg.ScoreWindow)
	assert.Equal(t, []string{"ethereum", "arbitrum", "optimism", "polygon", "base"}, cfg.IntermediateChains)
	assert.True(t, cfg.EstimateOnUpstreamFailure)
	assert.True(t, cfg.BridgeEnabled("across"))
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ADAPTER_TIMEOUT", "2s")
	t.Setenv("CACHE_CAPACITY", "50")
	t.Setenv("ENABLED_BRIDGES", "Across, hop ,")
	t.Setenv("INTERMEDIATE_CHAINS", "arbitrum,base")
	t.Setenv("ACROSS_API_URL", "http://localhost:9000/api/")
	t.Setenv("ESTIMATE_ON_UPSTREAM_FAILURE", "false")

	cfg := Load()

	assert.Equal(t, 2*time.Second, cfg.AdapterTimeout)
	assert.Equal(t, 50, cfg.CacheCapacity)
	assert.Equal(t, []string{"across", "hop"}, cfg.EnabledBridges)
	assert.Equal(t, []string{"arbitrum", "base"}, cfg.IntermediateChains)
	assert.False(t, cfg.EstimateOnUpstreamFailure)

	assert.True(t, cfg.BridgeEnabled("HOP"))
	assert.False(t, cfg.BridgeEnabled("stargate"))
	assert.Equal(t, "http://localhost:9000/api", cfg.BridgeAPIURL("across", "https://across.to/api"))
	assert.Equal(t, "https://api.hop.exchange/v1", cfg.BridgeAPIURL("hop", "https://api.hop.exchange/v1"))
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CACHE_TTL", "soon")
	t.Setenv("CACHE_CAPACITY", "many")

	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 1000, cfg.CacheCapacity)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SCORE_SCHEDULE=@every 10m\n"), 0o600))
	chdir(t, dir)
	t.Cleanup(func() { os.Unsetenv("SCORE_SCHEDULE") })

	cfg := Load()

	assert.Equal(t, "@every 10m", cfg.ScoreSchedule)
}

// chdir changes the working directory for the test and restores it on
// cleanup, mirroring testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
