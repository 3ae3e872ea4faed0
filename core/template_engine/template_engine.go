package template_engine

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"strings"
	"text/template"

	dasherr "github.com/tristendillon/dashc/core/errors"
	"github.com/tristendillon/dashc/core/logger"
)

//go:embed all:templates
var embeddedFS embed.FS

// TemplateFS is the embedded template tree, rooted at templates/
var TemplateFS fs.FS = mustSub(embeddedFS, "templates")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

type TemplateRef struct {
	Path  string
	IsDir bool
}

func (tr TemplateRef) IsFile() bool {
	return !tr.IsDir
}

func (tr TemplateRef) IsDirectory() bool {
	return tr.IsDir
}

// TemplateEngine renders templates from the embedded tree or from a
// user supplied directory. Engines hold no shared state; build one per run.
type TemplateEngine struct {
	funcMap template.FuncMap
	fsys    fs.FS
}

func getDefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"upper":     strings.ToUpper,
		"lower":     strings.ToLower,
		"title":     toTitle,
		"trim":      strings.TrimSpace,
		"replace":   strings.ReplaceAll,
		"contains":  strings.Contains,
		"hasPrefix": strings.HasPrefix,
		"hasSuffix": strings.HasSuffix,
		"split":     strings.Split,
		"join":      strings.Join,

		"default": func(def, val interface{}) interface{} {
			if val == nil || val == "" {
				return def
			}
			return val
		},
		"len": func(v interface{}) int { return reflect.ValueOf(v).Len() },
		"not": func(b bool) bool { return !b },
		"and": func(a, b bool) bool { return a && b },
		"or":  func(a, b bool) bool { return a || b },

		"pystr":  pyString,
		"pylist": pyList,
	}
}

func toTitle(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// pyString renders s as a Python string literal. JSON string syntax is a
// subset of Python's.
func pyString(s string) (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func pyList(items []string) (string, error) {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		lit, err := pyString(item)
		if err != nil {
			return "", err
		}
		parts = append(parts, lit)
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{
		funcMap: getDefaultFuncMap(),
		fsys:    TemplateFS,
	}
}

// NewTemplateEngineFromDir renders templates from dir instead of the
// embedded tree. dir must mirror the embedded layout.
func NewTemplateEngineFromDir(dir string) (*TemplateEngine, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, dasherr.Wrap(dasherr.TemplateMissing, dir, "template directory unavailable", err)
	}
	if !info.IsDir() {
		return nil, dasherr.New(dasherr.TemplateMissing, dir, "template directory is not a directory")
	}
	engine := NewTemplateEngine()
	engine.fsys = os.DirFS(dir)
	return engine, nil
}

func (te *TemplateEngine) AddFunc(name string, fn interface{}) {
	te.funcMap[name] = fn
}

func (te *TemplateEngine) AddFuncs(funcs template.FuncMap) {
	for name, fn := range funcs {
		te.funcMap[name] = fn
	}
}

// Render executes a file template and returns its text. Sibling templates
// whose names start with "_" are parsed alongside as partials.
func (te *TemplateEngine) Render(templateRef TemplateRef, data interface{}) (string, error) {
	if templateRef.IsDirectory() {
		return "", fmt.Errorf("cannot render directory reference: %s", templateRef.Path)
	}
	if err := te.ValidateTemplate(templateRef); err != nil {
		return "", err
	}

	partials, err := fs.Glob(te.fsys, path.Join(path.Dir(templateRef.Path), "_*.tmpl"))
	if err != nil {
		return "", fmt.Errorf("failed to list partials for %s: %w", templateRef.Path, err)
	}
	files := append([]string{templateRef.Path}, partials...)

	name := path.Base(templateRef.Path)
	tmpl, err := template.New(name).Funcs(te.funcMap).Option("missingkey=error").ParseFS(te.fsys, files...)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templateRef.Path, err)
	}

	var out strings.Builder
	if err := tmpl.ExecuteTemplate(&out, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateRef.Path, err)
	}
	return out.String(), nil
}

// GenerateFolder copies a template directory to outputDir. Files ending in
// .tmpl are rendered and lose the suffix; path segments found in renames
// are replaced.
func (te *TemplateEngine) GenerateFolder(templateRef TemplateRef, outputDir string, data interface{}, renames map[string]string) error {
	if templateRef.IsFile() {
		return fmt.Errorf("cannot generate folder from file reference: %s", templateRef.Path)
	}
	if err := te.ValidateTemplate(templateRef); err != nil {
		return err
	}

	templateDir := templateRef.Path
	logger.Debug("Generating folder from template reference: %s", templateDir)

	return fs.WalkDir(te.fsys, templateDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == templateDir {
			return nil
		}

		relPath := strings.TrimPrefix(p, templateDir+"/")
		segments := strings.Split(relPath, "/")
		for i, segment := range segments {
			if renamed, ok := renames[segment]; ok {
				segments[i] = renamed
			}
		}
		outputPath := filepath.Join(outputDir, filepath.FromSlash(strings.Join(segments, "/")))

		if d.IsDir() {
			return os.MkdirAll(outputPath, os.ModePerm)
		}

		logger.Debug("Generating file from path: %s", p)
		return te.generateFileFromPath(p, outputPath, data)
	})
}

func (te *TemplateEngine) generateFileFromPath(templatePath, outputPath string, data interface{}) error {
	content, err := fs.ReadFile(te.fsys, templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template file %s: %w", templatePath, err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if !strings.HasSuffix(templatePath, ".tmpl") {
		return os.WriteFile(outputPath, content, 0644)
	}

	outputPath = strings.TrimSuffix(outputPath, ".tmpl")

	tmpl, err := template.New(path.Base(templatePath)).Funcs(te.funcMap).Parse(string(content))
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", templatePath, err)
	}

	outputFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", outputPath, err)
	}
	defer outputFile.Close()

	if err := tmpl.Execute(outputFile, data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", templatePath, err)
	}

	return nil
}

func (te *TemplateEngine) ListTemplates(templateRef TemplateRef) ([]string, error) {
	if templateRef.IsFile() {
		return []string{templateRef.Path}, nil
	}

	var templates []string
	err := fs.WalkDir(te.fsys, templateRef.Path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			templates = append(templates, p)
		}
		return nil
	})

	return templates, err
}

func (te *TemplateEngine) ValidateTemplate(templateRef TemplateRef) error {
	info, err := fs.Stat(te.fsys, templateRef.Path)
	if err != nil {
		return dasherr.Wrap(dasherr.TemplateMissing, templateRef.Path, "template not found", err)
	}

	if info.IsDir() != templateRef.IsDirectory() {
		return dasherr.Newf(dasherr.TemplateMissing, templateRef.Path,
			"template reference type mismatch: expected dir=%t, got dir=%t", templateRef.IsDirectory(), info.IsDir())
	}

	return nil
}
