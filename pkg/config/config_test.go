package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "src/lib.rs", cfg.CrateRoot)
	assert.Equal(t, "cpp_closures.cpp", cfg.Output)
	assert.Equal(t, ":memory:", cfg.Store)
	assert.Empty(t, cfg.Features)
}

func TestLoad(t *testing.T) {
	cfg, err := Load([]byte(`
crate:
  root: src/main.rs
  features:
    - qt
    - extra-widgets
output:
  cpp: target/cpp_closures.cpp
  store: target/inlay.db
scan:
  include_hidden: true
  max_file_size: 1048576
`))
	require.NoError(t, err)
	assert.Equal(t, "src/main.rs", cfg.CrateRoot)
	assert.Equal(t, []string{"qt", "extra-widgets"}, cfg.Features)
	assert.Equal(t, "target/cpp_closures.cpp", cfg.Output)
	assert.Equal(t, "target/inlay.db", cfg.Store)
	assert.True(t, cfg.IncludeHidden)
	assert.Equal(t, int64(1048576), cfg.MaxFileSize)
}

func TestLoadPartialFallsBackToDefaults(t *testing.T) {
	cfg, err := Load([]byte("crate:\n  features: [qt]\n"))
	require.NoError(t, err)
	assert.Equal(t, "src/lib.rs", cfg.CrateRoot)
	assert.Equal(t, "cpp_closures.cpp", cfg.Output)
	assert.Equal(t, []string{"qt"}, cfg.Features)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load([]byte("crate: ["))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  cpp: out.cpp\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "out.cpp", cfg.Output)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFeatureSet(t *testing.T) {
	cfg := &Config{Features: []string{"a", "b"}}
	set := cfg.FeatureSet()
	assert.True(t, set["a"])
	assert.True(t, set["b"])
	assert.False(t, set["c"])
}
