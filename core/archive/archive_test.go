package archive

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dasherr "github.com/tristendillon/dashc/core/errors"
	"github.com/tristendillon/dashc/core/models"
)

func sampleCollection(t *testing.T) *models.Collection {
	t.Helper()
	table := models.NewSourceTable()
	require.NoError(t, table.Add(models.SourceUnit{Name: "pkg", RelPath: "pkg/__init__.py", Text: "version = \"1.0\"\n", IsPackageRoot: true}))
	require.NoError(t, table.Add(models.SourceUnit{Name: "pkg.main", RelPath: "pkg/main.py", Text: "import pkg\nprint(pkg.version)\n"}))
	return &models.Collection{
		Kind:  models.SourceDirectory,
		Table: table,
		Members: []models.Member{
			{Path: "pkg/__init__.py", Data: []byte("version = \"1.0\"\n")},
			{Path: "pkg/data.bin", Data: []byte{0x00, 0xff, 0x10, '\'', '"'}},
			{Path: "pkg/main.py", Data: []byte("import pkg\nprint(pkg.version)\n")},
		},
	}
}

func TestFlat(t *testing.T) {
	c := sampleCollection(t)

	data, err := Pack(c, models.Flat)
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]string{
		"pkg":      "version = \"1.0\"\n",
		"pkg.main": "import pkg\nprint(pkg.version)\n",
	}, decoded)

	_, err = Flat(models.NewSourceTable())
	assert.ErrorIs(t, err, dasherr.ErrEmptySource)
}

func TestFlatKeepsSourceTextUnescaped(t *testing.T) {
	table := models.NewSourceTable()
	require.NoError(t, table.Add(models.SourceUnit{Name: "b", Text: "print(\"<a & b>\")\n"}))
	require.NoError(t, table.Add(models.SourceUnit{Name: "a", Text: "x = 1\n"}))

	data, err := Flat(table)
	require.NoError(t, err)
	assert.Equal(t, `{"b":"print(\"<a & b>\")\n","a":"x = 1\n"}`, string(data))
}

func TestContainerRoundTripsMembersExactly(t *testing.T) {
	c := sampleCollection(t)

	data, err := Pack(c, models.Container)
	require.NoError(t, err)

	members, err := ReadContainer(data)
	require.NoError(t, err)
	assert.Equal(t, c.Members, members)
}

func TestContainerIsDeterministic(t *testing.T) {
	c := sampleCollection(t)

	first, err := Container(c.Members)
	require.NoError(t, err)
	second, err := Container(c.Members)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestContainerRejectsDuplicateMembers(t *testing.T) {
	_, err := Container([]models.Member{
		{Path: "a.py", Data: []byte("1")},
		{Path: "a.py", Data: []byte("1")},
	})
	assert.ErrorIs(t, err, dasherr.ErrNameCollision)

	_, err = Container(nil)
	assert.ErrorIs(t, err, dasherr.ErrEmptySource)
}

func TestManifest(t *testing.T) {
	c := sampleCollection(t)

	mb := NewManifestBuilder(models.Container, models.Compressed)
	mb.AddCollection(c)
	mb.SetEntry(models.NewRunModule("pkg.main"))
	mb.SetSizes(10, 20, 30)
	m := mb.Build()

	require.Len(t, m.Files, 3)
	assert.Equal(t, 3, m.TotalFiles)
	assert.Equal(t, "pkg", m.Files[0].Module)
	assert.True(t, m.Files[0].Package)
	assert.Empty(t, m.Files[1].Module, "assets carry no module name")
	assert.Equal(t, int64(5), m.Files[1].Size)
	assert.Equal(t, "pkg.main", m.Entry)
	assert.Equal(t, "run-module", m.EntryKind)
	assert.Len(t, m.ContentHash, 64)

	again := NewManifestBuilder(models.Container, models.Compressed)
	again.AddCollection(c)
	assert.Equal(t, m.ContentHash, again.Build().ContentHash)
}

func TestContainerWritesDirectoryEntries(t *testing.T) {
	data, err := Container([]models.Member{
		{Path: "pkg/__init__.py", Data: []byte("")},
		{Path: "pkg/sub/util.py", Data: []byte("X = 1\n")},
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"pkg/", "pkg/__init__.py", "pkg/sub/", "pkg/sub/util.py"}, names)
}
