package project

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/leapsim/pkg/parser"
)

// Model is a named set of variables. Models are rebuilt wholesale from
// their declaration whenever the equation set changes; nothing mutates
// a built model in place.
type Model struct {
	Name string
	Vars map[string]*Variable

	// Derived sub-maps, filled in during build.
	Modules map[string]*Variable
	Tables  map[string]*Variable

	// Spec is an optional simulation-spec override for this model.
	Spec *SimSpec
}

// newModel builds a model from its declaration: canonicalize names,
// parse equations, desugar stdlib calls, then compute dependency sets.
func newModel(decl ModelDecl, logger *slog.Logger) (*Model, error) {
	m := &Model{
		Name:    parser.Canon(decl.Name),
		Vars:    make(map[string]*Variable),
		Modules: make(map[string]*Variable),
		Tables:  make(map[string]*Variable),
		Spec:    decl.Spec,
	}

	for _, vd := range decl.Variables {
		v, err := buildVariable(vd)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", m.Name, err)
		}
		if err := m.add(v); err != nil {
			return nil, fmt.Errorf("model %s: %w", m.Name, err)
		}
	}

	// Desugar before computing deps so that synthesized variables and
	// rewritten call sites are part of the dependency graph. Iterate in
	// sorted order for deterministic synthetic names.
	for _, ident := range m.sortedIdents() {
		if _, err := desugar(m, m.Vars[ident], logger); err != nil {
			return nil, fmt.Errorf("model %s: %w", m.Name, err)
		}
	}

	for _, v := range m.Vars {
		v.computeDeps()
	}
	return m, nil
}

// add registers a variable, enforcing ident uniqueness.
func (m *Model) add(v *Variable) error {
	if _, exists := m.Vars[v.Ident]; exists {
		return fmt.Errorf("duplicate variable %q", v.Ident)
	}
	m.Vars[v.Ident] = v
	switch v.Kind {
	case Module:
		m.Modules[v.Ident] = v
	case TableVar:
		m.Tables[v.Ident] = v
	}
	return nil
}

// Var returns a variable by canonical ident.
func (m *Model) Var(ident string) (*Variable, bool) {
	v, ok := m.Vars[ident]
	return v, ok
}

// sortedIdents returns all variable idents in sorted order for
// deterministic iteration.
func (m *Model) sortedIdents() []string {
	idents := make([]string, 0, len(m.Vars))
	for ident := range m.Vars {
		idents = append(idents, ident)
	}
	sort.Strings(idents)
	return idents
}

// VarErrors returns every equation error in the model, keyed by ident.
func (m *Model) VarErrors() map[string][]error {
	errs := make(map[string][]error)
	for ident, v := range m.Vars {
		if len(v.Errors) > 0 {
			errs[ident] = v.Errors
		}
	}
	return errs
}

// buildVariable constructs one variable from its declaration.
func buildVariable(decl VarDecl) (*Variable, error) {
	v := &Variable{
		Ident:   parser.Canon(decl.Name),
		EqnText: decl.Equation,
		Units:   decl.Units,
		Doc:     decl.Doc,
	}
	if v.Ident == "" {
		return nil, fmt.Errorf("variable with empty name")
	}

	switch decl.Kind {
	case "", "aux", "flow", "ordinary":
		v.Kind = Ordinary
	case "stock":
		v.Kind = Stock
		for _, in := range decl.Inflows {
			v.Inflows = append(v.Inflows, parser.Canon(in))
		}
		for _, out := range decl.Outflows {
			v.Outflows = append(v.Outflows, parser.Canon(out))
		}
	case "table":
		v.Kind = TableVar
		for _, pt := range decl.Points {
			v.X = append(v.X, pt.X)
			v.Y = append(v.Y, pt.Y)
		}
		// Interpolation requires strictly ascending x coordinates.
		for i := 1; i < len(v.X); i++ {
			if v.X[i] <= v.X[i-1] {
				return nil, fmt.Errorf("table %q: x coordinates must be strictly ascending (x[%d]=%g follows x[%d]=%g)",
					v.Ident, i, v.X[i], i-1, v.X[i-1])
			}
		}
		if v.EqnText == "" {
			// A table with no index expression samples at the current time.
			v.EqnText = "time"
		}
	case "module":
		v.Kind = Module
		v.ModelName = parser.Canon(decl.Model)
		if v.ModelName == "" {
			return nil, fmt.Errorf("module %q names no model", v.Ident)
		}
		v.Refs = make(map[string]*Ref, len(decl.Connections))
		for dst, src := range decl.Connections {
			dst = parser.Canon(dst)
			v.Refs[dst] = &Ref{Dst: dst, Ptr: parser.Canon(src)}
		}
	case "reference", "ref":
		// A reference's equation is the identifier path it proxies, not
		// an expression; it is never parsed.
		v.Kind = Reference
		v.Ptr = parser.Canon(decl.Equation)
		if v.Ptr == "" {
			return nil, fmt.Errorf("reference %q names no source", v.Ident)
		}
	default:
		return nil, fmt.Errorf("variable %q has unknown kind %q", v.Ident, decl.Kind)
	}

	if v.Kind != Module && v.Kind != Reference && v.EqnText != "" {
		node, errs := parser.Parse(v.EqnText)
		v.AST = node
		v.Errors = errs
	}
	return v, nil
}
