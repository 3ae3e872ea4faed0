package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	dasherr "github.com/tristendillon/dashc/core/errors"
	"github.com/tristendillon/dashc/core/logger"
	"github.com/tristendillon/dashc/core/models"
)

// DescriptorKind tells the walker how to interpret a Descriptor value
type DescriptorKind int

const (
	// Auto stats the value: a directory, or a file with the source suffix
	Auto DescriptorKind = iota
	// Inline treats the value as program text
	Inline
	File
	Directory
)

// Descriptor names the code to package
type Descriptor struct {
	Kind  DescriptorKind
	Value string
}

func InlineSource(code string) Descriptor {
	return Descriptor{Kind: Inline, Value: code}
}

func PathSource(path string) Descriptor {
	return Descriptor{Kind: Auto, Value: path}
}

type SourceWalker interface {
	Collect(desc Descriptor) (*models.Collection, error)
}

type SourceWalkerImpl struct {
	Mode    models.ArchiveMode
	Exclude []string
}

// DefaultExcludes are directory names never walked
var DefaultExcludes = []string{".git", "__pycache__", ".venv", "venv", "node_modules", ".mypy_cache", ".pytest_cache"}

func NewSourceWalker(mode models.ArchiveMode, exclude []string) *SourceWalkerImpl {
	ex := append([]string{}, DefaultExcludes...)
	ex = append(ex, exclude...)
	return &SourceWalkerImpl{
		Mode:    mode,
		Exclude: ex,
	}
}

func (w *SourceWalkerImpl) Collect(desc Descriptor) (*models.Collection, error) {
	switch desc.Kind {
	case Inline:
		return w.collectInline(desc.Value)
	case File:
		return w.collectFile(desc.Value)
	case Directory:
		return w.collectDirectory(desc.Value)
	case Auto:
		info, err := os.Stat(desc.Value)
		if err != nil {
			return nil, dasherr.Wrap(dasherr.InvalidSource, desc.Value, "source is neither a directory nor a .py file", err)
		}
		if info.IsDir() {
			return w.collectDirectory(desc.Value)
		}
		return w.collectFile(desc.Value)
	default:
		return nil, dasherr.Newf(dasherr.InvalidSource, desc.Value, "unknown descriptor kind %d", desc.Kind)
	}
}

func (w *SourceWalkerImpl) collectInline(code string) (*models.Collection, error) {
	if strings.TrimSpace(code) == "" {
		return nil, dasherr.New(dasherr.EmptySource, "", "inline program is empty")
	}
	if !utf8.ValidString(code) {
		return nil, dasherr.New(dasherr.EncodingError, "", "inline program is not valid UTF-8")
	}

	table := models.NewSourceTable()
	if err := table.Add(models.SourceUnit{Name: models.RootName, Text: code}); err != nil {
		return nil, err
	}
	collection := &models.Collection{Kind: models.SourceInline, Table: table}
	if w.Mode == models.Container {
		collection.Members = []models.Member{{Path: models.MainMarker + models.SourceSuffix, Data: []byte(code)}}
	}
	return collection, nil
}

func (w *SourceWalkerImpl) collectFile(path string) (*models.Collection, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, dasherr.Wrap(dasherr.InvalidSource, path, "cannot access source file", err)
	}
	if !info.Mode().IsRegular() || filepath.Ext(absPath) != models.SourceSuffix {
		return nil, dasherr.Newf(dasherr.InvalidSource, path, "expected a directory or a %s file", models.SourceSuffix)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, dasherr.Wrap(dasherr.InvalidSource, path, "failed to read source file", err)
	}
	if !utf8.Valid(data) {
		return nil, dasherr.New(dasherr.EncodingError, path, "source is not valid UTF-8")
	}

	base := filepath.Base(absPath)
	name, _ := models.LogicalName(base)

	table := models.NewSourceTable()
	if err := table.Add(models.SourceUnit{Name: name, RelPath: base, Text: string(data)}); err != nil {
		return nil, err
	}
	collection := &models.Collection{Kind: models.SourceFile, Root: filepath.Dir(absPath), Table: table}
	if w.Mode == models.Container {
		collection.Members = []models.Member{{Path: base, Data: data}}
	}
	return collection, nil
}

func (w *SourceWalkerImpl) collectDirectory(root string) (*models.Collection, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	collection := &models.Collection{
		Kind:  models.SourceDirectory,
		Root:  absRoot,
		Table: models.NewSourceTable(),
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if w.isExcluded(relPath, d.Name()) {
				logger.Debug("Skipping directory: %s", relPath)
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		isSource := strings.HasSuffix(d.Name(), models.SourceSuffix)
		if !isSource && w.Mode != models.Container {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", relPath, err)
		}

		if w.Mode == models.Container {
			collection.Members = append(collection.Members, models.Member{Path: relPath, Data: data})
		}
		if !isSource {
			logger.Debug("Collected asset: %s", relPath)
			return nil
		}

		if !utf8.Valid(data) {
			return dasherr.New(dasherr.EncodingError, relPath, "source is not valid UTF-8")
		}
		name, isPackage := models.LogicalName(relPath)
		if err := collection.Table.Add(models.SourceUnit{
			Name:          name,
			RelPath:       relPath,
			Text:          string(data),
			IsPackageRoot: isPackage,
		}); err != nil {
			return err
		}
		logger.Debug("Collected module: %s (%s)", name, relPath)
		return nil
	})
	if err != nil {
		if _, ok := err.(*dasherr.DashcError); ok {
			return nil, err
		}
		return nil, dasherr.Wrap(dasherr.InvalidSource, root, "failed to walk source directory", err)
	}

	if collection.Table.Len() == 0 {
		return nil, dasherr.Newf(dasherr.EmptySource, root, "no %s files found", models.SourceSuffix)
	}

	return collection, nil
}

func (w *SourceWalkerImpl) isExcluded(relPath, name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, ex := range w.Exclude {
		ex = strings.Trim(filepath.ToSlash(ex), "/")
		if ex == "" {
			continue
		}
		if name == ex || relPath == ex || strings.HasPrefix(relPath, ex+"/") {
			return true
		}
	}
	return false
}
