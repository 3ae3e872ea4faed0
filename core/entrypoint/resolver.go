package entrypoint

import (
	"regexp"
	"sort"
	"strings"

	dasherr "github.com/tristendillon/dashc/core/errors"
	"github.com/tristendillon/dashc/core/logger"
	"github.com/tristendillon/dashc/core/models"
)

// ModuleFunctionSeparator splits "module:function" references
const ModuleFunctionSeparator = ":"

var (
	dottedNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
	identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Resolution is the outcome of resolving an entry point
type Resolution struct {
	Entry models.EntryPoint
	// Candidates lists every auto-detected option in sorted order
	Candidates []string
	// Warnings are non-fatal problems, such as an ambiguous auto-detection
	Warnings []error
}

// Parse turns an explicit reference into an entry point: "pkg.cli:run"
// calls a function, "pkg.cli" runs a module as __main__.
func Parse(ref string) (models.EntryPoint, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.EntryPoint{}, dasherr.New(dasherr.InvalidEntryReference, ref, "entry reference is empty")
	}

	if module, function, ok := strings.Cut(ref, ModuleFunctionSeparator); ok {
		if !dottedNameRegex.MatchString(module) {
			return models.EntryPoint{}, dasherr.Newf(dasherr.InvalidEntryReference, ref, "module %q is not a dotted name", module)
		}
		if !identifierRegex.MatchString(function) {
			return models.EntryPoint{}, dasherr.Newf(dasherr.InvalidEntryReference, ref, "function %q is not an identifier", function)
		}
		return models.NewCallFunction(module, function), nil
	}

	if !dottedNameRegex.MatchString(ref) {
		return models.EntryPoint{}, dasherr.New(dasherr.InvalidEntryReference, ref, "entry must be a dotted module name or module:function")
	}
	return models.NewRunModule(ref), nil
}

// Resolve picks the entry point for a collection. An explicit reference
// always wins; otherwise single-module sources run their only module and
// directories are scanned for a runnable package.
func Resolve(ref string, c *models.Collection) (*Resolution, error) {
	if strings.TrimSpace(ref) != "" {
		entry, err := Parse(ref)
		if err != nil {
			return nil, err
		}
		res := &Resolution{Entry: entry}
		if !knownModule(c.Table, entry.Module) {
			logger.Warn("Entry module %q is not part of the packaged sources; it must be importable on the target host", entry.Module)
		}
		return res, nil
	}

	if c.Kind != models.SourceDirectory {
		names := c.Table.Names()
		return &Resolution{Entry: models.NewAutoDetected(names[0]), Candidates: names[:1]}, nil
	}

	candidates := FindMainPackages(c.Table)
	if len(candidates) == 0 {
		return nil, dasherr.New(dasherr.NoEntryPointFound, c.Root,
			"no package with __main__.py found to use as default entrypoint; pass an entry reference")
	}

	res := &Resolution{
		Entry:      models.NewAutoDetected(candidates[0]),
		Candidates: candidates,
	}
	if len(candidates) > 1 {
		warning := dasherr.Newf(dasherr.AmbiguousEntryPoint, c.Root,
			"multiple packages with __main__.py found: %s; using %q, specify an entrypoint for clarity",
			strings.Join(candidates, ", "), candidates[0])
		res.Warnings = append(res.Warnings, warning)
		logger.Warn("%s", warning.Error())
	}
	logger.Info("No entrypoint specified, auto-detected %q", candidates[0])
	return res, nil
}

// FindMainPackages returns the logical names of runnable directories in
// sorted directory order: packages holding both __init__.py and
// __main__.py, and the tree root when it holds __main__.py.
func FindMainPackages(table *models.SourceTable) []string {
	hasInit := map[string]bool{}
	hasMain := map[string]bool{}
	for _, u := range table.Units() {
		if u.RelPath == "" {
			continue
		}
		switch strings.TrimSuffix(pathBase(u.RelPath), models.SourceSuffix) {
		case models.PackageMarker:
			hasInit[u.Dir()] = true
		case models.MainMarker:
			hasMain[u.Dir()] = true
		}
	}

	dirs := make([]string, 0, len(hasMain))
	for dir := range hasMain {
		if dir == "" || hasInit[dir] {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)

	names := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if dir == "" {
			names = append(names, models.RootName)
			continue
		}
		names = append(names, strings.ReplaceAll(dir, "/", "."))
	}
	return names
}

func pathBase(rel string) string {
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		return rel[i+1:]
	}
	return rel
}

// knownModule reports whether name, or the package it runs, is in the table.
// Dotted prefixes of packaged modules count as namespace packages.
func knownModule(table *models.SourceTable, name string) bool {
	if table.Has(name) || table.Has(name+"."+models.MainMarker) {
		return true
	}
	prefix := name + "."
	for _, n := range table.Names() {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}
