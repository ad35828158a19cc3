package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.InteriorCount)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digitizer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
interior_count: 8
pixel_tolerance: 3.5
log_level: debug
export:
  driver: pgx
  dsn: postgres://localhost/plans
`), 0o644))

	t.Setenv("DIGITIZER_ELEVATION", "2.5")
	t.Setenv("DIGITIZER_MERGE_DECIMALS", "3")
	t.Setenv("DIGITIZER_TRACE_MAX_DEPTH", "not a number")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.InteriorCount)
	assert.Equal(t, 3.5, cfg.PixelTolerance)
	assert.Equal(t, 0.001, cfg.OverlapTolerance)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "pgx", cfg.Export.Driver)
	assert.Equal(t, 2.5, cfg.Elevation)
	assert.Equal(t, 3, cfg.MergeDecimals)
	assert.Equal(t, 1000, cfg.TraceMaxDepth)
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interior_count: -1\n"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "interior_count")

	require.NoError(t, os.WriteFile(path, []byte("interior_count: [\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "parse config")
}
