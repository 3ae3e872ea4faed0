package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dasherr "github.com/tristendillon/dashc/core/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadDefaultsWithoutConfig(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "dashc.yaml"), `
python: /usr/bin/python3.12
entry: app.cli:main
mode: container
readonly: true
exclude:
  - tests
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/python3.12", cfg.Python)
	assert.Equal(t, "app.cli:main", cfg.Entry)
	assert.Equal(t, "container", cfg.Mode)
	assert.True(t, cfg.Readonly)
	assert.Equal(t, []string{"tests"}, cfg.Exclude)
	// untouched keys keep defaults
	assert.Equal(t, "compressed", cfg.Compression)
	assert.Equal(t, "single", cfg.Quoting)
	assert.Equal(t, filepath.Join(dir, "dashc.yaml"), cfg.Path)
}

func TestLoadDashcTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "dashc.toml"), `
compression = "uncompressed"
quoting = "double"
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "uncompressed", cfg.Compression)
	assert.Equal(t, "double", cfg.Quoting)
	assert.Equal(t, "python3", cfg.Python)
}

func TestLoadPyproject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), `
[project]
name = "demo"

[tool.dashc]
entry = "demo"
readonly = true
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Entry)
	assert.True(t, cfg.Readonly)
	assert.Equal(t, "flat", cfg.Mode)
}

func TestLoadPyprojectWithoutTable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), "[project]\nname = \"demo\"\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "dashc.yaml"), "mode: tarball\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, dasherr.ErrConfigInvalid)
}
