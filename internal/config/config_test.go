package config_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/casegraph/internal/config"
)

const yamlConfig = `
version: "1"
upstream:
  base_url: http://beagle.internal:8000
  rate_per_second: 2.5
view:
  excluded_edge_types: ["Loaded"]
  sample_size: 5
`

const tomlConfig = `
version = "1"

[upstream]
base_url = "https://beagle.example.com"
breaker_failures = 3

[view]
seed_node_type = "Alert"
history_limit = 50
`

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAMLAppliesDefaults(t *testing.T) {
	l, err := config.NewLoader(write(t, "casegraph.yaml", yamlConfig))
	require.NoError(t, err)
	cfg := l.Config()

	assert.Equal(t, "http://beagle.internal:8000", cfg.Upstream.BaseURL)
	assert.Equal(t, 2.5, cfg.Upstream.RatePerSecond)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout())
	assert.Equal(t, []string{"Loaded"}, cfg.View.ExcludedEdgeTypes)
	assert.Equal(t, 5, cfg.View.SampleSize)
	assert.Equal(t, "Alert", cfg.View.SeedNodeType)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadTOML(t *testing.T) {
	l, err := config.NewLoader(write(t, "casegraph.toml", tomlConfig))
	require.NoError(t, err)
	cfg := l.Config()

	assert.Equal(t, "https://beagle.example.com", cfg.Upstream.BaseURL)
	assert.Equal(t, uint32(3), cfg.Upstream.BreakerFailures)
	assert.Equal(t, 50, cfg.View.HistoryLimit)
	assert.Equal(t, []string{"Loaded", "File Of"}, cfg.View.ExcludedEdgeTypes)
}

func TestHistoryLimitZeroKeepsEverything(t *testing.T) {
	explicit, err := config.Parse([]byte("version: '1'\nupstream:\n  base_url: http://x:1\nview:\n  history_limit: 0\n"), config.YAML)
	require.NoError(t, err)
	assert.Equal(t, 0, explicit.View.HistoryLimit)

	omitted, err := config.Parse([]byte("version: '1'\nupstream:\n  base_url: http://x:1\n"), config.YAML)
	require.NoError(t, err)
	assert.Equal(t, 0, omitted.View.HistoryLimit)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing version", "upstream:\n  base_url: http://x\n", "Version is required"},
		{"missing upstream", "version: '1'\n", "Upstream.BaseURL is required"},
		{"relative url", "version: '1'\nupstream:\n  base_url: beagle\n", "Upstream.BaseURL must be an absolute URL"},
		{"negative sample", "version: '1'\nupstream:\n  base_url: http://x\nview:\n  sample_size: -1\n", "View.SampleSize must be >= 0"},
		{"duplicate exclusion", "version: '1'\nupstream:\n  base_url: http://x\nview:\n  excluded_edge_types: [A, A]\n", "duplicate \"A\""},
		{"blank exclusion", "version: '1'\nupstream:\n  base_url: http://x\nview:\n  excluded_edge_types: ['']\n", "View.ExcludedEdgeTypes[0] is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tc.body), config.YAML)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestReloadNotifiesAndKeepsOldConfigOnError(t *testing.T) {
	path := write(t, "casegraph.yaml", yamlConfig)
	l, err := config.NewLoader(path)
	require.NoError(t, err)

	var calls atomic.Int32
	l.OnChange(func(*config.Config) { calls.Add(1) })

	require.NoError(t, os.WriteFile(path, []byte(yamlConfig+"  history_limit: 7\n"), 0o600))
	cfg, err := l.Reload()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.View.HistoryLimit)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, os.WriteFile(path, []byte("version: ''\n"), 0o600))
	_, err = l.Reload()
	require.Error(t, err)
	assert.Equal(t, 7, l.Config().View.HistoryLimit)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := write(t, "casegraph.yaml", yamlConfig)
	l, err := config.NewLoader(path)
	require.NoError(t, err)

	changed := make(chan *config.Config, 4)
	l.OnChange(func(c *config.Config) { changed <- c })
	stop, err := l.Watch()
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte(yamlConfig+"  history_limit: 9\n"), 0o600))
	select {
	case cfg := <-changed:
		assert.Equal(t, 9, cfg.View.HistoryLimit)
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
}
