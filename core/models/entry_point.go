package models

import "fmt"

// EntryKind selects how the bootstrap starts the packaged program
type EntryKind int

const (
	// RunModuleAsMain executes a module's top-level code as __main__
	RunModuleAsMain EntryKind = iota
	// CallFunction imports a module and calls one of its functions
	CallFunction
	// AutoDetected behaves like RunModuleAsMain for a name found by scanning the tree
	AutoDetected
)

func (k EntryKind) String() string {
	switch k {
	case RunModuleAsMain:
		return "run-module"
	case CallFunction:
		return "call-function"
	case AutoDetected:
		return "auto-detected"
	default:
		return "unknown"
	}
}

// EntryPoint is what the bootstrap dispatches to. It is built once and never mutated.
type EntryPoint struct {
	Kind     EntryKind
	Module   string
	Function string
}

func NewRunModule(name string) EntryPoint {
	return EntryPoint{Kind: RunModuleAsMain, Module: name}
}

func NewCallFunction(module, function string) EntryPoint {
	return EntryPoint{Kind: CallFunction, Module: module, Function: function}
}

func NewAutoDetected(name string) EntryPoint {
	return EntryPoint{Kind: AutoDetected, Module: name}
}

// RunsAsMain reports whether the entry executes a module as __main__
func (e EntryPoint) RunsAsMain() bool {
	return e.Kind == RunModuleAsMain || e.Kind == AutoDetected
}

// String renders the entry in reference form ("pkg.cli:run" or "pkg")
func (e EntryPoint) String() string {
	if e.Kind == CallFunction {
		return fmt.Sprintf("%s:%s", e.Module, e.Function)
	}
	return e.Module
}
