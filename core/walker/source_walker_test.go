package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dasherr "github.com/tristendillon/dashc/core/errors"
	"github.com/tristendillon/dashc/core/models"
)

// writeTree creates files (slash separated paths) under a fresh temp dir
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestCollectInline(t *testing.T) {
	w := NewSourceWalker(models.Flat, nil)

	c, err := w.Collect(InlineSource("print('hi')"))
	require.NoError(t, err)
	assert.Equal(t, models.SourceInline, c.Kind)
	assert.Equal(t, []string{models.RootName}, c.Table.Names())

	_, err = w.Collect(InlineSource("  \n"))
	assert.ErrorIs(t, err, dasherr.ErrEmptySource)
}

func TestCollectFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"tool.py":     "print('tool')\n",
		"__main__.py": "print('main')\n",
		"notes.txt":   "not python",
	})
	w := NewSourceWalker(models.Flat, nil)

	tests := []struct {
		file     string
		wantName string
	}{
		{"tool.py", "tool"},
		{"__main__.py", models.RootName},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			c, err := w.Collect(PathSource(filepath.Join(root, tt.file)))
			require.NoError(t, err)
			assert.Equal(t, models.SourceFile, c.Kind)
			assert.Equal(t, []string{tt.wantName}, c.Table.Names())
		})
	}

	_, err := w.Collect(PathSource(filepath.Join(root, "notes.txt")))
	assert.ErrorIs(t, err, dasherr.ErrInvalidSource)

	_, err = w.Collect(PathSource(filepath.Join(root, "missing.py")))
	assert.ErrorIs(t, err, dasherr.ErrInvalidSource)
}

func TestCollectDirectoryNames(t *testing.T) {
	root := writeTree(t, map[string]string{
		"__main__.py":          "import pkg\n",
		"pkg/__init__.py":      "version = '1.0'\n",
		"pkg/sub/__init__.py":  "",
		"pkg/sub/utils.py":     "def f(): pass\n",
		"pkg/__pycache__/x.py": "stale",
		".hidden/secret.py":    "nope",
		"pkg/data/config.json": "{}",
		"tests/test_pkg.py":    "",
	})
	w := NewSourceWalker(models.Flat, []string{"tests"})

	c, err := w.Collect(PathSource(root))
	require.NoError(t, err)
	assert.Equal(t, models.SourceDirectory, c.Kind)
	assert.Equal(t, []string{models.RootName, "pkg", "pkg.sub", "pkg.sub.utils"}, c.Table.Names())
	assert.Equal(t, []string{"pkg", "pkg.sub"}, c.Table.PackageRoots())
	assert.Empty(t, c.Members, "flat mode keeps no archive members")

	unit, ok := c.Table.Get("pkg.sub.utils")
	require.True(t, ok)
	assert.Equal(t, "pkg/sub/utils.py", unit.RelPath)
	assert.Equal(t, "def f(): pass\n", unit.Text)
}

func TestCollectDirectoryContainerKeepsAssets(t *testing.T) {
	root := writeTree(t, map[string]string{
		"my_app/__init__.py": "",
		"my_app/__main__.py": "print('x')\n",
		"my_app/config.json": `{"setting": 1}`,
	})
	w := NewSourceWalker(models.Container, nil)

	c, err := w.Collect(PathSource(root))
	require.NoError(t, err)

	var paths []string
	for _, m := range c.Members {
		paths = append(paths, m.Path)
	}
	assert.Equal(t, []string{"my_app/__init__.py", "my_app/__main__.py", "my_app/config.json"}, paths)
	assert.Equal(t, []byte(`{"setting": 1}`), c.Members[2].Data)
	assert.Equal(t, []string{"my_app", "my_app.__main__"}, c.Table.Names())
}

func TestCollectDirectoryErrors(t *testing.T) {
	w := NewSourceWalker(models.Flat, nil)

	t.Run("empty directory", func(t *testing.T) {
		_, err := w.Collect(PathSource(t.TempDir()))
		assert.ErrorIs(t, err, dasherr.ErrEmptySource)
	})

	t.Run("only assets", func(t *testing.T) {
		root := writeTree(t, map[string]string{"README.md": "# hi"})
		_, err := w.Collect(PathSource(root))
		assert.ErrorIs(t, err, dasherr.ErrEmptySource)
	})

	t.Run("name collision", func(t *testing.T) {
		root := writeTree(t, map[string]string{
			"pkg.py":          "",
			"pkg/__init__.py": "",
		})
		_, err := w.Collect(PathSource(root))
		require.Error(t, err)
		assert.ErrorIs(t, err, dasherr.ErrNameCollision)
		assert.Contains(t, err.Error(), "pkg")
	})

	t.Run("root markers collide", func(t *testing.T) {
		root := writeTree(t, map[string]string{
			"__init__.py": "",
			"__main__.py": "print('x')\n",
		})
		_, err := w.Collect(PathSource(root))
		assert.ErrorIs(t, err, dasherr.ErrNameCollision)
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		root := writeTree(t, map[string]string{"bad.py": "\xff\xfe"})
		_, err := w.Collect(PathSource(root))
		assert.ErrorIs(t, err, dasherr.ErrEncoding)
	})
}

func TestCollectIsDeterministic(t *testing.T) {
	root := writeTree(t, map[string]string{
		"b/__init__.py": "",
		"a/__init__.py": "",
		"a/z.py":        "",
		"a/m.py":        "",
	})
	w := NewSourceWalker(models.Flat, nil)

	first, err := w.Collect(PathSource(root))
	require.NoError(t, err)
	second, err := w.Collect(PathSource(root))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "a.m", "a.z", "b"}, first.Table.Names())
	assert.Equal(t, first.Table.Names(), second.Table.Names())
}
