package generator

import (
	"fmt"
	"sort"
	"strings"

	dasherr "github.com/tristendillon/dashc/core/errors"
	"github.com/tristendillon/dashc/core/logger"
	"github.com/tristendillon/dashc/core/models"
	"github.com/tristendillon/dashc/core/template_engine"
)

// ModulePath maps a logical module name to its member path in a container
type ModulePath struct {
	Name string
	Path string
}

// BootstrapData is the template context of the bootstrap program
type BootstrapData struct {
	Payload    string
	Compressed bool
	Readonly   bool
	// Packages are the names imported as packages, including implicit
	// namespace packages
	Packages []string
	// Modules is only set for readonly containers, which import from memory
	Modules []ModulePath

	Module        string
	Function      string
	CallsFunction bool
	// RunsRoot is set when the entry is the root __main__ module, which
	// cannot be reached through runpy
	RunsRoot bool
}

type BootstrapGenerator struct {
	engine *template_engine.TemplateEngine
}

// NewBootstrapGenerator renders from the embedded templates, or from
// templateDir when it is set
func NewBootstrapGenerator(templateDir string) (*BootstrapGenerator, error) {
	if templateDir == "" {
		return &BootstrapGenerator{engine: template_engine.NewTemplateEngine()}, nil
	}
	engine, err := template_engine.NewTemplateEngineFromDir(templateDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("Using bootstrap templates from %s", templateDir)
	return &BootstrapGenerator{engine: engine}, nil
}

// Generate produces the Python program that decodes the payload, installs
// the importer and dispatches to the entry point.
func (bg *BootstrapGenerator) Generate(c *models.Collection, mode models.ArchiveMode, payload models.Payload, entry models.EntryPoint, readonly bool) (string, error) {
	var ref template_engine.TemplateRef
	switch mode {
	case models.Flat:
		ref = template_engine.TEMPLATES.BOOTSTRAP.FLAT_PY
	case models.Container:
		ref = template_engine.TEMPLATES.BOOTSTRAP.CONTAINER_PY
	default:
		return "", fmt.Errorf("unknown archive mode %s", mode)
	}

	data := NewBootstrapData(c.Table, mode, payload, entry, readonly)
	code, err := bg.engine.Render(ref, data)
	if err != nil {
		if dasherr.CodeOf(err) == dasherr.TemplateMissing {
			return "", err
		}
		return "", fmt.Errorf("failed to render bootstrap: %w", err)
	}

	logger.Debug("Generated %s bootstrap for %s (%d bytes)", mode, entry, len(code))
	return code, nil
}

func NewBootstrapData(table *models.SourceTable, mode models.ArchiveMode, payload models.Payload, entry models.EntryPoint, readonly bool) BootstrapData {
	data := BootstrapData{
		Payload:       payload.Text,
		Compressed:    payload.Encoding == models.Compressed,
		Readonly:      readonly,
		Packages:      PackageNames(table),
		Module:        entry.Module,
		Function:      entry.Function,
		CallsFunction: entry.Kind == models.CallFunction,
		RunsRoot:      entry.Module == models.RootName,
	}

	if mode == models.Container && readonly {
		for _, u := range table.Units() {
			path := u.RelPath
			if path == "" {
				path = models.MainMarker + models.SourceSuffix
			}
			data.Modules = append(data.Modules, ModulePath{Name: u.Name, Path: path})
		}
	}

	return data
}

// PackageNames returns the sorted names that import as packages: every
// unit backed by __init__.py and every dotted prefix of a module name.
func PackageNames(table *models.SourceTable) []string {
	seen := map[string]bool{}
	for _, u := range table.Units() {
		if u.IsPackageRoot {
			seen[u.Name] = true
		}
		parts := strings.Split(u.Name, ".")
		for i := 1; i < len(parts); i++ {
			seen[strings.Join(parts[:i], ".")] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
