package template_engine

type bootstrapTemplates struct {
	Ref          TemplateRef
	FLAT_PY      TemplateRef
	CONTAINER_PY TemplateRef
}

type initTemplates struct {
	Ref TemplateRef
}

type templateRefs struct {
	BOOTSTRAP bootstrapTemplates
	INIT      initTemplates
}

// TEMPLATES indexes the embedded template tree
var TEMPLATES = templateRefs{
	BOOTSTRAP: bootstrapTemplates{
		Ref:          TemplateRef{Path: "bootstrap", IsDir: true},
		FLAT_PY:      TemplateRef{Path: "bootstrap/flat.py.tmpl"},
		CONTAINER_PY: TemplateRef{Path: "bootstrap/container.py.tmpl"},
	},
	INIT: initTemplates{
		Ref: TemplateRef{Path: "init", IsDir: true},
	},
}

// InitPackagePlaceholder is the directory name replaced by the package name in init templates
const InitPackagePlaceholder = "_package_"
