package models

import (
	"bytes"
	"encoding/json"
	"path"
	"strings"

	dasherr "github.com/tristendillon/dashc/core/errors"
)

const (
	// SourceSuffix marks files collected as Python modules
	SourceSuffix = ".py"
	// PackageMarker is the file stem that makes its directory a package
	PackageMarker = "__init__"
	// MainMarker is the file stem that makes its directory runnable
	MainMarker = "__main__"
	// RootName is the logical name of the tree root (a root level __main__.py or
	// __init__.py) and of inline programs
	RootName = "__main__"
)

// SourceUnit is a single collected Python module
type SourceUnit struct {
	// Name is the dotted logical name (e.g. "pkg.sub.utils")
	Name string `json:"name" yaml:"name"`
	// RelPath is the slash separated path relative to the source root; empty for inline code
	RelPath string `json:"path,omitempty" yaml:"path,omitempty"`
	// Text is the module source
	Text string `json:"-" yaml:"-"`
	// IsPackageRoot is true for package markers (__init__.py)
	IsPackageRoot bool `json:"package,omitempty" yaml:"package,omitempty"`
}

// Dir returns the slash separated directory holding the unit, "" for the root
func (u SourceUnit) Dir() string {
	dir := path.Dir(u.RelPath)
	if dir == "." {
		return ""
	}
	return dir
}

// LogicalName derives the dotted module name of a slash separated relative
// path. A trailing package marker collapses to its directory, or to RootName
// at the top level. The root sentinel is never a package.
func LogicalName(relPath string) (name string, isPackageRoot bool) {
	trimmed := strings.TrimSuffix(relPath, SourceSuffix)
	parts := strings.Split(trimmed, "/")
	if parts[len(parts)-1] == PackageMarker {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return RootName, false
	}
	return strings.Join(parts, "."), strings.HasSuffix(trimmed, "/"+PackageMarker)
}

// SourceTable is an ordered, name-unique set of source units
type SourceTable struct {
	units []SourceUnit
	index map[string]int
}

func NewSourceTable() *SourceTable {
	return &SourceTable{index: make(map[string]int)}
}

// Add appends a unit, failing with a NameCollision error if its logical
// name is already taken
func (t *SourceTable) Add(unit SourceUnit) error {
	if i, exists := t.index[unit.Name]; exists {
		return dasherr.Newf(dasherr.NameCollision, unit.Name,
			"both %q and %q map to the same module name", t.units[i].RelPath, unit.RelPath)
	}
	t.index[unit.Name] = len(t.units)
	t.units = append(t.units, unit)
	return nil
}

func (t *SourceTable) Len() int {
	return len(t.units)
}

// Units returns the units in insertion order
func (t *SourceTable) Units() []SourceUnit {
	out := make([]SourceUnit, len(t.units))
	copy(out, t.units)
	return out
}

func (t *SourceTable) Get(name string) (SourceUnit, bool) {
	i, ok := t.index[name]
	if !ok {
		return SourceUnit{}, false
	}
	return t.units[i], true
}

func (t *SourceTable) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Names returns logical names in insertion order
func (t *SourceTable) Names() []string {
	names := make([]string, 0, len(t.units))
	for _, u := range t.units {
		names = append(names, u.Name)
	}
	return names
}

// PackageRoots returns the names of units collected from package markers
func (t *SourceTable) PackageRoots() []string {
	var names []string
	for _, u := range t.units {
		if u.IsPackageRoot {
			names = append(names, u.Name)
		}
	}
	return names
}

// MarshalJSON writes the table as a JSON object of name to source text,
// keeping insertion order
func (t *SourceTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	encode := func(s string) ([]byte, error) {
		buf.Reset()
		if err := enc.Encode(s); err != nil {
			return nil, err
		}
		return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
	}

	out := bytes.NewBufferString("{")
	for i, u := range t.units {
		if i > 0 {
			out.WriteByte(',')
		}
		key, err := encode(u.Name)
		if err != nil {
			return nil, err
		}
		out.Write(key)
		out.WriteByte(':')
		value, err := encode(u.Text)
		if err != nil {
			return nil, err
		}
		out.Write(value)
	}
	out.WriteByte('}')
	return out.Bytes(), nil
}

// Member is a file carried verbatim in a container archive
type Member struct {
	// Path is slash separated and relative to the source root
	Path string
	Data []byte
}

// SourceKind is the shape of a collected source
type SourceKind int

const (
	SourceInline SourceKind = iota
	SourceFile
	SourceDirectory
)

func (k SourceKind) String() string {
	switch k {
	case SourceInline:
		return "inline"
	case SourceFile:
		return "file"
	case SourceDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Collection is everything the source walker found
type Collection struct {
	Kind SourceKind
	// Root is the absolute source path; empty for inline code
	Root  string
	Table *SourceTable
	// Members holds every file under Root in traversal order; only filled in
	// container mode
	Members []Member
}
