package project

import "strings"

// Context is an immutable resolution environment: the stack of models
// enclosing the current scope plus the calculation phase. Lookups with
// dotted paths walk module boundaries; a leading dot anchors resolution
// at the root model.
type Context struct {
	project *Project
	stack   []*Model // enclosing models, root first, current last
	initial bool     // resolving for the initial phase
}

// NewContext creates a resolution context rooted at the given model.
func NewContext(p *Project, root *Model, initial bool) Context {
	return Context{project: p, stack: []*Model{root}, initial: initial}
}

// Model returns the innermost model of the context.
func (c Context) Model() *Model {
	return c.stack[len(c.stack)-1]
}

// Initial reports whether the context resolves for the initial phase.
func (c Context) Initial() bool {
	return c.initial
}

// Enter returns a new context descended into an instantiated sub-model.
// The receiver is unchanged.
func (c Context) Enter(child *Model) Context {
	stack := make([]*Model, len(c.stack), len(c.stack)+1)
	copy(stack, c.stack)
	return Context{project: c.project, stack: append(stack, child), initial: c.initial}
}

// Lookup resolves a possibly dotted identifier to a variable, crossing
// module boundaries segment by segment.
func (c Context) Lookup(path string) (*Variable, bool) {
	model := c.Model()
	if strings.HasPrefix(path, ".") {
		model = c.stack[0]
		path = path[1:]
	}

	segments := strings.Split(path, ".")
	for i, seg := range segments {
		v, ok := model.Vars[seg]
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return v, true
		}
		if v.Kind != Module {
			return nil, false
		}
		child, ok := c.project.Model(v.ModelName)
		if !ok {
			return nil, false
		}
		model = child
	}
	return nil, false
}
