package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dasherr "github.com/tristendillon/dashc/core/errors"
)

func TestLogicalName(t *testing.T) {
	tests := []struct {
		relPath     string
		wantName    string
		wantPackage bool
	}{
		{"pkg/sub/__init__.py", "pkg.sub", true},
		{"pkg/sub/utils.py", "pkg.sub.utils", false},
		{"__main__.py", RootName, false},
		{"__init__.py", RootName, false},
		{"pkg/__main__.py", "pkg.__main__", false},
		{"tool.py", "tool", false},
	}

	for _, tt := range tests {
		t.Run(tt.relPath, func(t *testing.T) {
			name, pkg := LogicalName(tt.relPath)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantPackage, pkg)
		})
	}
}

func TestSourceTableRejectsCollisions(t *testing.T) {
	table := NewSourceTable()
	require.NoError(t, table.Add(SourceUnit{Name: "pkg", RelPath: "pkg.py"}))

	err := table.Add(SourceUnit{Name: "pkg", RelPath: "pkg/__init__.py", IsPackageRoot: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, dasherr.ErrNameCollision)
	assert.Contains(t, err.Error(), "pkg.py")
	assert.Contains(t, err.Error(), "pkg/__init__.py")
	assert.Equal(t, 1, table.Len())
}

func TestRootMarkersCollide(t *testing.T) {
	table := NewSourceTable()
	for _, rel := range []string{"__init__.py", "__main__.py"} {
		name, pkg := LogicalName(rel)
		assert.Equal(t, RootName, name)
		assert.False(t, pkg)

		err := table.Add(SourceUnit{Name: name, RelPath: rel})
		if rel == "__main__.py" {
			assert.ErrorIs(t, err, dasherr.ErrNameCollision)
			continue
		}
		require.NoError(t, err)
	}
}

func TestSourceTableMarshalJSONKeepsOrder(t *testing.T) {
	table := NewSourceTable()
	require.NoError(t, table.Add(SourceUnit{Name: "zeta", Text: "z = 1\n"}))
	require.NoError(t, table.Add(SourceUnit{Name: "alpha", Text: "print(\"<a & b>\")\n"}))

	data, err := table.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"z = 1\n","alpha":"print(\"<a & b>\")\n"}`, string(data))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "z = 1\n", decoded["zeta"])
}

func TestSourceUnitDir(t *testing.T) {
	assert.Equal(t, "", SourceUnit{RelPath: "__main__.py"}.Dir())
	assert.Equal(t, "pkg/sub", SourceUnit{RelPath: "pkg/sub/__init__.py"}.Dir())
}

func TestEntryPointString(t *testing.T) {
	assert.Equal(t, "pkg.cli:run", NewCallFunction("pkg.cli", "run").String())
	assert.Equal(t, "pkg", NewRunModule("pkg").String())
	assert.True(t, NewAutoDetected("pkg").RunsAsMain())
	assert.False(t, NewCallFunction("a", "b").RunsAsMain())
}

func TestParseModes(t *testing.T) {
	enc, err := ParseEncoding("Uncompressed")
	require.NoError(t, err)
	assert.Equal(t, Uncompressed, enc)

	_, err = ParseEncoding("gzip")
	assert.Error(t, err)

	mode, err := ParseArchiveMode("container")
	require.NoError(t, err)
	assert.Equal(t, Container, mode)

	_, err = ParseArchiveMode("tar")
	assert.Error(t, err)
}
