package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	CacheDir string `json:"cache_dir"`
	TtlHours int    `json:"ttl_hours"`
}

func TestReadConfigMergesLocalOverride(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "nistats.json5")

	err := os.WriteFile(name, []byte(`{cache_dir: "/var/cache/nistats", ttl_hours: 24}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "nistats.local.json5"), []byte(`{ttl_hours: 1}`), 0600)
	require.NoError(t, err)

	config, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "/var/cache/nistats", config.CacheDir)
	require.Equal(t, 1, config.TtlHours)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "nistats.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigOr(t *testing.T) {
	dir := t.TempDir()
	def := testConfig{CacheDir: "~/.cache/nistats", TtlHours: 24}

	config, err := ReadConfigOr(filepath.Join(dir, "nistats.json5"), def)
	require.NoError(t, err)
	require.Equal(t, def, config)

	name := filepath.Join(dir, "nistats.json5")
	err = os.WriteFile(name, []byte(`{cache_dir: "/tmp/nistats"}`), 0600)
	require.NoError(t, err)

	config, err = ReadConfigOr(name, def)
	require.NoError(t, err)
	require.Equal(t, "/tmp/nistats", config.CacheDir)
	require.Equal(t, 24, config.TtlHours)
}
