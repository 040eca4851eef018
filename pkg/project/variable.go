package project

import (
	"strings"

	"github.com/leapstack-labs/leapsim/pkg/ast"
)

// VarKind tags the kind of a model variable.
type VarKind int

const (
	// Ordinary is an auxiliary or flow computed fresh every step.
	Ordinary VarKind = iota
	// Stock is a state variable integrated over time.
	Stock
	// TableVar is a graphical lookup function.
	TableVar
	// Module is an instantiated sub-model.
	Module
	// Reference proxies a module input to an externally supplied value.
	Reference
)

// String returns the kind's lower-case name.
func (k VarKind) String() string {
	switch k {
	case Ordinary:
		return "aux"
	case Stock:
		return "stock"
	case TableVar:
		return "table"
	case Module:
		return "module"
	case Reference:
		return "reference"
	}
	return "unknown"
}

// Ref binds a module's local input name to an identifier supplied by
// the enclosing scope.
type Ref struct {
	Dst string // local name inside the instantiated model
	Ptr string // source identifier path in the parent scope
}

// Variable is a single model variable. Kind determines which of the
// kind-specific fields are meaningful. A variable's Ident is the
// canonicalized form of its declared name and unique within its model.
type Variable struct {
	Kind    VarKind
	Ident   string
	EqnText string
	Units   string
	Doc     string

	// AST is the parsed equation: the value expression for ordinaries,
	// the initial expression for stocks, the index expression for
	// tables. Nil means "no equation".
	AST    ast.Node
	Errors []error

	// Deps is the set of model-local identifiers this variable depends
	// on, excluding builtin function names and keywords.
	Deps map[string]bool

	// Stock fields.
	Inflows  []string
	Outflows []string

	// Table fields, derived from the graphical-function definition.
	X []float64
	Y []float64

	// Module fields.
	ModelName string
	Refs      map[string]*Ref

	// Reference field: the identifier this proxy points at.
	Ptr string
}

// IsConst reports whether the variable is a bare numeric constant.
func (v *Variable) IsConst() bool {
	if v.Kind != Ordinary || v.AST == nil {
		return false
	}
	_, ok := v.AST.(*ast.Constant)
	return ok
}

// Synthetic reports whether the variable was synthesized by the
// desugar pass rather than declared by the modeler.
func (v *Variable) Synthetic() bool {
	return strings.HasPrefix(v.Ident, "$·")
}

// computeDeps fills in the Deps set. Module dependencies come from the
// connection list, not from an equation body; everything else walks the
// variable's AST.
func (v *Variable) computeDeps() {
	deps := make(map[string]bool)
	switch v.Kind {
	case Module:
		for _, ref := range v.Refs {
			if root := depRoot(ref.Ptr); root != "" {
				deps[root] = true
			}
		}
	case Reference:
		if root := depRoot(v.Ptr); root != "" {
			deps[root] = true
		}
	default:
		for name := range ast.Idents(v.AST, nil) {
			if root := depRoot(name); root != "" {
				deps[root] = true
			}
		}
	}
	v.Deps = deps
}

// depRoot maps a possibly dotted identifier to the name it depends on
// within the current model: the first path segment. Time is supplied by
// the runtime, not by any variable.
func depRoot(path string) string {
	path = strings.TrimPrefix(path, ".")
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[:i]
	}
	if path == "time" {
		return ""
	}
	return path
}
