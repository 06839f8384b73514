package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deploymenttheory/afpack/internal/utils/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "afpack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	_, cfg, err := load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.False(t, cfg.Debug)
	assert.Equal(t, "human", cfg.LogFormat)
	assert.Equal(t, "afpack.log", filepath.Base(cfg.LogFile))
	assert.Equal(t, "10G", cfg.Pack.MaxSize)
	assert.Equal(t, "none", cfg.Pack.Compress)
	assert.Equal(t, 3*time.Second, cfg.Pack.SettleDelay)
	assert.True(t, cfg.Pack.FinalPass)
	assert.Equal(t, "lzfse", cfg.Pack.FinalPassKind)
	assert.Equal(t, RemovalTrash, cfg.Pack.Removal)
	assert.Equal(t, "diskutil", cfg.Diskutil.Path)
	assert.Equal(t, "afsctool", cfg.Compression.Tool)
	assert.Equal(t, 2, cfg.Compression.Workers)
	assert.Equal(t, 1.0, cfg.Compression.MinRatio)
	assert.True(t, cfg.Compression.SkipCompressed)
	assert.False(t, cfg.SkipOSCheck)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
log_format: json
pack:
  max_size: 20G
  compress: lzvn
  settle_delay: 500ms
  final_pass: false
  removal: delete
compression:
  workers: 8
  min_ratio: 0.9
`)

	vp, cfg, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, path, vp.ConfigFileUsed())
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "20G", cfg.Pack.MaxSize)
	assert.Equal(t, "lzvn", cfg.Pack.Compress)
	assert.Equal(t, 500*time.Millisecond, cfg.Pack.SettleDelay)
	assert.False(t, cfg.Pack.FinalPass)
	assert.Equal(t, RemovalDelete, cfg.Pack.Removal)
	assert.Equal(t, 8, cfg.Compression.Workers)
	assert.Equal(t, 0.9, cfg.Compression.MinRatio)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "pack:\n  max_size: 20G\n")
	t.Setenv("AFPACK_PACK_MAX_SIZE", "30G")
	t.Setenv("AFPACK_SKIP_OS_CHECK", "true")

	_, cfg, err := load(path)
	require.NoError(t, err)
	assert.Equal(t, "30G", cfg.Pack.MaxSize)
	assert.True(t, cfg.SkipOSCheck)
}

func TestLoadInvalid(t *testing.T) {
	t.Run("unparseable file", func(t *testing.T) {
		_, _, err := load(writeConfig(t, "pack: [unterminated"))
		assert.ErrorIs(t, err, errors.ErrConfigParseError)
	})

	t.Run("bad removal mode", func(t *testing.T) {
		_, _, err := load(writeConfig(t, "pack:\n  removal: shred\n"))
		assert.ErrorIs(t, err, errors.ErrConfigInvalid)
	})
}

func TestValidate(t *testing.T) {
	_, base, err := load(writeConfig(t, ""))
	require.NoError(t, err)
	require.NoError(t, Validate(base))

	tests := []struct {
		name   string
		mutate func(c *AppConfig)
	}{
		{"log format", func(c *AppConfig) { c.LogFormat = "xml" }},
		{"negative delay", func(c *AppConfig) { c.Pack.SettleDelay = -time.Second }},
		{"zero workers", func(c *AppConfig) { c.Compression.Workers = 0 }},
		{"zero ratio", func(c *AppConfig) { c.Compression.MinRatio = 0 }},
		{"ratio above one", func(c *AppConfig) { c.Compression.MinRatio = 1.5 }},
		{"empty diskutil", func(c *AppConfig) { c.Diskutil.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.ErrorIs(t, Validate(cfg), errors.ErrConfigInvalid)
		})
	}
}

func TestSaveConfig(t *testing.T) {
	_, cfg, err := load(writeConfig(t, ""))
	require.NoError(t, err)

	saved := Instance
	t.Cleanup(func() { Instance = saved })
	Instance = cfg
	Instance.Pack.MaxSize = "42G"

	fs := afero.NewMemMapFs()
	require.NoError(t, SaveConfig(fs, "/etc/afpack/afpack.yaml"))

	data, err := afero.ReadFile(fs, "/etc/afpack/afpack.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_size: 42G")
	assert.Contains(t, string(data), "settle_delay: 3s")
}
