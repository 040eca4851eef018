package sim

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapsim/pkg/project"
)

// stmt is one resolved state-update statement of a run list.
type stmt interface {
	irStmt()
}

// assignStmt evaluates an expression into a state slot.
type assignStmt struct {
	off  int
	expr Expr
}

func (assignStmt) irStmt() {}

// stockStmt integrates a stock one step:
// next = prev + (sum(inflows) - sum(outflows)) * dt.
type stockStmt struct {
	off      int
	inflows  []int
	outflows []int
}

func (stockStmt) irStmt() {}

// Program is a compiled, instantiated simulation: flat run lists over a
// single state array, one per calculation phase.
type Program struct {
	Spec project.SimSpec

	size     int
	initials []stmt
	flows    []stmt
	stocks   []stmt

	names      map[string]int // dotted variable path -> absolute offset
	hidden     map[string]bool
	classNames []string
}

// instance is one run-time occurrence of a class within the module
// tree, anchored at a contiguous base offset in the state array.
type instance struct {
	class    *class
	base     int
	parent   *instance
	children map[string]*instance
	refs     map[string]string // reference ident -> source path in parent
}

// newInstance recursively constructs the instance tree, allocating
// each module's block at its offset within the parent.
func newInstance(cls *class, base int, parent *instance, refs map[string]string) *instance {
	in := &instance{
		class:    cls,
		base:     base,
		parent:   parent,
		children: make(map[string]*instance),
		refs:     refs,
	}
	for ident, mod := range cls.modules {
		in.children[ident] = newInstance(mod.child, base+cls.offsets[ident], in, mod.refs)
	}
	return in
}

// offsetOf resolves a possibly dotted identifier path to an absolute
// state-array offset. References hop to the parent scope; a leading
// dot anchors at the root instance.
func (in *instance) offsetOf(path string) (int, error) {
	if strings.HasPrefix(path, ".") {
		root := in
		for root.parent != nil {
			root = root.parent
		}
		return root.offsetOf(path[1:])
	}

	head, rest := path, ""
	if i := strings.IndexByte(path, '.'); i >= 0 {
		head, rest = path[:i], path[i+1:]
	}

	if head == "time" && rest == "" {
		return timeOff, nil
	}
	if src, ok := in.refs[head]; ok && in.class.inputs[head] {
		if rest != "" {
			src = src + "." + rest
		}
		return in.parent.offsetOf(src)
	}
	if child, ok := in.children[head]; ok {
		if rest == "" {
			return 0, fmt.Errorf("sim: %q names a module, not a variable", path)
		}
		return child.offsetOf(rest)
	}
	if off, ok := in.class.offsets[head]; ok && rest == "" {
		return in.base + off, nil
	}
	return 0, fmt.Errorf("sim: unresolved identifier %q in %s", path, in.class.name)
}

// emit instantiates the root class and flattens the per-class run
// lists into absolute-offset statements.
func (c *Compiler) emit(root *class, spec project.SimSpec) (*Program, error) {
	prog := &Program{
		Spec:   spec,
		size:   1 + root.size, // slot 0 is simulation time
		names:  map[string]int{"time": timeOff},
		hidden: make(map[string]bool),
	}

	classNames := make(map[string]bool)
	for _, cls := range c.classes {
		classNames[cls.name] = true
	}
	for name := range classNames {
		prog.classNames = append(prog.classNames, name)
	}
	sort.Strings(prog.classNames)

	rootInst := newInstance(root, 1, nil, nil)
	if err := prog.registerNames(rootInst, "", false); err != nil {
		return nil, err
	}
	if err := prog.emitPhase(rootInst, phaseInitial, &prog.initials); err != nil {
		return nil, err
	}
	if err := prog.emitPhase(rootInst, phaseFlow, &prog.flows); err != nil {
		return nil, err
	}
	if err := prog.emitPhase(rootInst, phaseStock, &prog.stocks); err != nil {
		return nil, err
	}
	return prog, nil
}

type phase int

const (
	phaseInitial phase = iota
	phaseFlow
	phaseStock
)

func (cls *class) phaseList(p phase) []varSpec {
	switch p {
	case phaseInitial:
		return cls.initials
	case phaseFlow:
		return cls.flows
	}
	return cls.stocks
}

// emitPhase appends the resolved statements for one phase of an
// instance, descending into sub-module instances in run-list order.
func (p *Program) emitPhase(in *instance, ph phase, out *[]stmt) error {
	for _, vs := range in.class.phaseList(ph) {
		switch vs.kind {
		case stmtModule:
			if err := p.emitPhase(in.children[vs.ident], ph, out); err != nil {
				return err
			}
		case stmtAssign:
			expr, err := resolveExpr(vs.expr, in)
			if err != nil {
				return err
			}
			*out = append(*out, assignStmt{off: in.base + in.class.offsets[vs.ident], expr: expr})
		case stmtStock:
			st := stockStmt{off: in.base + in.class.offsets[vs.ident]}
			for _, flow := range vs.inflows {
				off, err := in.offsetOf(flow)
				if err != nil {
					return err
				}
				st.inflows = append(st.inflows, off)
			}
			for _, flow := range vs.outflows {
				off, err := in.offsetOf(flow)
				if err != nil {
					return err
				}
				st.outflows = append(st.outflows, off)
			}
			*out = append(*out, st)
		}
	}
	return nil
}

// registerNames maps every instantiated variable's dotted path to its
// absolute offset. Synthesized variables and everything inside them
// are hidden from default VarNames output.
func (p *Program) registerNames(in *instance, prefix string, hidden bool) error {
	for ident, off := range in.class.offsets {
		name := prefix + ident
		h := hidden || strings.HasPrefix(ident, "$·")
		if child, ok := in.children[ident]; ok {
			if err := p.registerNames(child, name+".", h); err != nil {
				return err
			}
			continue
		}
		if _, dup := p.names[name]; dup {
			return fmt.Errorf("sim: duplicate variable path %q", name)
		}
		p.names[name] = in.base + off
		if h {
			p.hidden[name] = true
		}
	}
	return nil
}

// NSlots returns the state-array size, including the time slot.
func (p *Program) NSlots() int { return p.size }

// ClassNames returns the generated class names, one per distinct model
// monomorphization, sorted.
func (p *Program) ClassNames() []string {
	return append([]string(nil), p.classNames...)
}

// VarNames returns the dotted paths of all instantiated variables.
// Unless includeHidden is set, variables synthesized by the desugar
// pass (and their module internals) are omitted.
func (p *Program) VarNames(includeHidden bool) []string {
	names := make([]string, 0, len(p.names))
	for name := range p.names {
		if !includeHidden && p.hidden[name] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Offset returns the state-array slot of a variable path.
func (p *Program) Offset(name string) (int, bool) {
	off, ok := p.names[name]
	return off, ok
}
