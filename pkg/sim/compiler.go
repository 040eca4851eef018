package sim

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapsim/internal/dag"
	"github.com/leapstack-labs/leapsim/pkg/ast"
	"github.com/leapstack-labs/leapsim/pkg/project"
)

// timeOff is the state-array slot reserved for simulation time at the
// root model.
const timeOff = 0

// stmtKind tags a variable's role within one calculation phase.
type stmtKind int

const (
	stmtAssign stmtKind = iota
	stmtStock
	stmtModule
)

// varSpec is one phase entry of a compiled class: an assignment, a
// stock integration, or a descent into a sub-module instance.
type varSpec struct {
	kind  stmtKind
	ident string

	expr Expr // assign: value (for stocks in the initial list, the initial)

	inflows  []string // stock phase
	outflows []string
}

// moduleRef describes a module variable of a class: the child class it
// instantiates and the parent-scope identifier bound to each formal.
type moduleRef struct {
	child *class
	refs  map[string]string
}

// class is one compiled model monomorphization: a model specialized by
// the set of externally-overridden inputs. Instances with identical
// input sets share a class; differing sets never share.
type class struct {
	name      string
	modelName string
	inputs    map[string]bool // overridden inputs, compiled as references
	size      int             // state slots, including nested module blocks

	offsets  map[string]int // local ident -> relative offset
	modules  map[string]*moduleRef
	initials []varSpec
	flows    []varSpec
	stocks   []varSpec
}

// Compiler compiles every monomorphization reachable from a root model.
type Compiler struct {
	project *project.Project
	logger  *slog.Logger

	classes    map[string]*class // monomorphization key -> class
	classCount map[string]int    // model name -> classes built so far
	building   map[string]bool   // recursion guard
}

// Compile builds an executable program for the named model and its
// transitively instantiated sub-models.
func Compile(p *project.Project, modelName string, logger *slog.Logger) (*Program, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	model, ok := p.Model(modelName)
	if !ok {
		return nil, fmt.Errorf("sim: unknown model %q", modelName)
	}

	c := &Compiler{
		project:    p,
		logger:     logger,
		classes:    make(map[string]*class),
		classCount: make(map[string]int),
		building:   make(map[string]bool),
	}
	root, err := c.compileClass(model, nil)
	if err != nil {
		return nil, err
	}
	return c.emit(root, p.SpecFor(model))
}

// monoKey buckets module instances by model plus the *set* of
// overridden input names.
func monoKey(modelName string, inputs map[string]bool) string {
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return modelName + "\x00" + strings.Join(names, ",")
}

// compileClass compiles one monomorphization, reusing an existing
// class when the same model/input-set bucket was seen before.
func (c *Compiler) compileClass(m *project.Model, inputs map[string]bool) (*class, error) {
	key := monoKey(m.Name, inputs)
	if cls, ok := c.classes[key]; ok {
		return cls, nil
	}
	if c.building[key] {
		return nil, fmt.Errorf("sim: model %q instantiates itself recursively", m.Name)
	}
	c.building[key] = true
	defer delete(c.building, key)

	if errs := m.VarErrors(); len(errs) > 0 {
		idents := make([]string, 0, len(errs))
		for ident := range errs {
			idents = append(idents, ident)
		}
		sort.Strings(idents)
		first := errs[idents[0]][0]
		return nil, fmt.Errorf("sim: model %q has equation errors (%s: %w)", m.Name, idents[0], first)
	}

	n := c.classCount[m.Name]
	c.classCount[m.Name]++
	name := m.Name
	if n > 0 {
		name = fmt.Sprintf("%s$%d", m.Name, n)
	}

	cls := &class{
		name:      name,
		modelName: m.Name,
		inputs:    inputs,
		offsets:   make(map[string]int),
		modules:   make(map[string]*moduleRef),
	}

	// Compile child classes first: module instances reserve contiguous
	// offset blocks sized to their child's slot count.
	for _, ident := range sortedIdents(m) {
		v := m.Vars[ident]
		if v.Kind != project.Module {
			continue
		}
		childModel, ok := c.project.Model(v.ModelName)
		if !ok {
			return nil, fmt.Errorf("sim: model %q: module %q instantiates unknown model %q",
				m.Name, v.Ident, v.ModelName)
		}
		childInputs := make(map[string]bool, len(v.Refs))
		refs := make(map[string]string, len(v.Refs))
		for _, ref := range v.Refs {
			if _, ok := childModel.Vars[ref.Dst]; !ok {
				return nil, fmt.Errorf("sim: model %q: module %q binds unknown input %q of %q",
					m.Name, v.Ident, ref.Dst, v.ModelName)
			}
			childInputs[ref.Dst] = true
			refs[ref.Dst] = ref.Ptr
		}
		childClass, err := c.compileClass(childModel, childInputs)
		if err != nil {
			return nil, err
		}
		cls.modules[ident] = &moduleRef{child: childClass, refs: refs}
	}

	if err := c.validateRefs(m, inputs); err != nil {
		return nil, err
	}

	allDeps, err := dependencyClosure(m, inputs)
	if err != nil {
		return nil, err
	}

	if err := c.layout(m, cls); err != nil {
		return nil, err
	}
	return cls, c.emitClass(m, cls, allDeps)
}

// validateRefs checks that every identifier referenced by an equation
// or module connection resolves to a variable. Missing dependencies are
// a hard failure that aborts compilation of the model.
func (c *Compiler) validateRefs(m *project.Model, inputs map[string]bool) error {
	ctx := project.NewContext(c.project, m, false)
	for _, ident := range sortedIdents(m) {
		v := m.Vars[ident]
		if inputs[ident] {
			continue // compiled as a reference; resolved in the parent
		}
		switch v.Kind {
		case project.Module:
			for _, ref := range v.Refs {
				if !resolvable(ctx, ref.Ptr) {
					return fmt.Errorf("sim: model %q: module %q input %q references unknown %q",
						m.Name, v.Ident, ref.Dst, ref.Ptr)
				}
			}
		case project.Reference:
			if !resolvable(ctx, v.Ptr) {
				return fmt.Errorf("sim: model %q: reference %q points at unknown %q",
					m.Name, v.Ident, v.Ptr)
			}
		default:
			for path := range ast.Idents(v.AST, nil) {
				if !resolvable(ctx, path) {
					return fmt.Errorf("sim: model %q: %q references unknown %q",
						m.Name, v.Ident, path)
				}
			}
		}
	}
	return nil
}

func resolvable(ctx project.Context, path string) bool {
	if path == "time" || strings.TrimPrefix(path, ".") == "time" {
		return true
	}
	_, ok := ctx.Lookup(path)
	return ok
}

// dependencyClosure builds the variable dependency graph, rejects
// cycles, and returns each variable's transitive dependency set. The
// transitive closure is what lets a partition-based comparator sort
// produce a valid evaluation order.
func dependencyClosure(m *project.Model, inputs map[string]bool) (map[string]map[string]bool, error) {
	g := dag.New()
	for ident := range m.Vars {
		g.AddNode(ident)
	}
	for ident, v := range m.Vars {
		if inputs[ident] {
			continue // reference: reads the parent scope, no local deps
		}
		for dep := range v.Deps {
			if _, ok := m.Vars[dep]; !ok {
				continue // cross-module dependency, handled at instantiation
			}
			if err := g.AddEdge(dep, ident); err != nil {
				return nil, fmt.Errorf("sim: model %q: %w", m.Name, err)
			}
		}
	}
	if cycle := g.Cycle(); cycle != nil {
		return nil, fmt.Errorf("sim: model %q: circular dependency: %s",
			m.Name, strings.Join(cycle, " -> "))
	}

	allDeps := make(map[string]map[string]bool, len(m.Vars))
	for ident := range m.Vars {
		allDeps[ident] = g.Upstream(ident)
	}
	return allDeps, nil
}

// layout assigns a storage offset to every in-scope non-reference
// variable; module instances get a contiguous block sized to their
// child class.
func (c *Compiler) layout(m *project.Model, cls *class) error {
	next := 0
	for _, ident := range sortedIdents(m) {
		if cls.inputs[ident] {
			continue // references carry no storage
		}
		v := m.Vars[ident]
		cls.offsets[ident] = next
		if v.Kind == project.Module {
			next += cls.modules[ident].child.size
		} else {
			next++
		}
	}
	cls.size = next
	return nil
}

// emitClass partitions variables into the three calculation phases and
// emits the ordered per-variable specs.
func (c *Compiler) emitClass(m *project.Model, cls *class, allDeps map[string]map[string]bool) error {
	var initialSet = make(map[string]bool)
	var flowList, stockList []string

	isRef := func(ident string) bool { return cls.inputs[ident] }

	// Initial phase: stocks, constants, sub-modules, plus everything
	// transitively needed to compute stock initials and module inputs.
	for _, ident := range sortedIdents(m) {
		if isRef(ident) {
			continue
		}
		v := m.Vars[ident]
		switch {
		case v.Kind == project.Stock, v.Kind == project.Module, v.IsConst():
			initialSet[ident] = true
			for dep := range allDeps[ident] {
				if !isRef(dep) {
					initialSet[dep] = true
				}
			}
		}
	}

	// Flow phase: everything that changes during a step, in dependency
	// order. Stock phase: stocks and sub-modules; stocks only read
	// already-computed flows, so no internal ordering is required.
	for _, ident := range sortedIdents(m) {
		if isRef(ident) {
			continue
		}
		v := m.Vars[ident]
		switch v.Kind {
		case project.Stock:
			stockList = append(stockList, ident)
		case project.Module:
			flowList = append(flowList, ident)
			stockList = append(stockList, ident)
		case project.Ordinary, project.TableVar, project.Reference:
			if !v.IsConst() {
				flowList = append(flowList, ident)
			}
		}
	}

	initialList := make([]string, 0, len(initialSet))
	for ident := range initialSet {
		initialList = append(initialList, ident)
	}
	sort.Strings(initialList)
	sortByDeps(initialList, allDeps)
	sortByDeps(flowList, allDeps)

	for _, ident := range initialList {
		spec, err := c.initialSpec(m, m.Vars[ident])
		if err != nil {
			return err
		}
		cls.initials = append(cls.initials, spec)
	}
	for _, ident := range flowList {
		spec, err := c.flowSpec(m, m.Vars[ident])
		if err != nil {
			return err
		}
		cls.flows = append(cls.flows, spec)
	}
	for _, ident := range stockList {
		v := m.Vars[ident]
		if v.Kind == project.Module {
			cls.stocks = append(cls.stocks, varSpec{kind: stmtModule, ident: ident})
			continue
		}
		cls.stocks = append(cls.stocks, varSpec{
			kind:     stmtStock,
			ident:    ident,
			inflows:  v.Inflows,
			outflows: v.Outflows,
		})
	}
	return nil
}

// initialSpec emits a variable's initial-phase entry.
func (c *Compiler) initialSpec(m *project.Model, v *project.Variable) (varSpec, error) {
	if v.Kind == project.Module {
		return varSpec{kind: stmtModule, ident: v.Ident}, nil
	}
	// Stocks assign their initial expression; everything else its value.
	expr, err := c.compileVarExpr(m, v)
	if err != nil {
		return varSpec{}, err
	}
	return varSpec{kind: stmtAssign, ident: v.Ident, expr: expr}, nil
}

// flowSpec emits a variable's flow-phase entry.
func (c *Compiler) flowSpec(m *project.Model, v *project.Variable) (varSpec, error) {
	if v.Kind == project.Module {
		return varSpec{kind: stmtModule, ident: v.Ident}, nil
	}
	expr, err := c.compileVarExpr(m, v)
	if err != nil {
		return varSpec{}, err
	}
	return varSpec{kind: stmtAssign, ident: v.Ident, expr: expr}, nil
}

// compileVarExpr compiles a variable's equation to IR. Tables wrap
// their index expression in a lookup against the precomputed
// coordinate table.
func (c *Compiler) compileVarExpr(m *project.Model, v *project.Variable) (Expr, error) {
	if v.Kind == project.Reference {
		return RefExpr{Path: v.Ptr}, nil
	}
	if v.AST == nil {
		// No equation; evaluates to NaN so missing data is visible
		// rather than silently zero.
		return ConstExpr{Val: math.NaN()}, nil
	}
	expr, err := c.compileExpr(m, v, v.AST)
	if err != nil {
		return nil, err
	}
	if v.Kind == project.TableVar {
		return LookupExpr{X: v.X, Y: v.Y, Index: expr}, nil
	}
	return expr, nil
}

// compileExpr lowers an AST to symbolic IR: ^ becomes a power call,
// equality against NaN becomes an is-NaN test, word logic maps to
// native comparisons.
func (c *Compiler) compileExpr(m *project.Model, owner *project.Variable, n ast.Node) (Expr, error) {
	switch e := n.(type) {
	case *ast.Constant:
		return ConstExpr{Val: e.Value}, nil
	case *ast.Ident:
		if e.Name == "time" {
			return TimeExpr{}, nil
		}
		return RefExpr{Path: e.Name}, nil
	case *ast.Table:
		return nil, fmt.Errorf("sim: model %q: %q uses table %q outside lookup",
			m.Name, owner.Ident, e.Name)
	case *ast.ParenExpr:
		return c.compileExpr(m, owner, e.Inner)
	case *ast.UnaryExpr:
		x, err := c.compileExpr(m, owner, e.Operand)
		if err != nil {
			return nil, err
		}
		if e.Op == "+" {
			return x, nil
		}
		return UnaryExpr{Op: e.Op, X: x}, nil
	case *ast.BinaryExpr:
		return c.compileBinary(m, owner, e)
	case *ast.IfExpr:
		cond, err := c.compileExpr(m, owner, e.Cond)
		if err != nil {
			return nil, err
		}
		then, err := c.compileExpr(m, owner, e.Then)
		if err != nil {
			return nil, err
		}
		els, err := c.compileExpr(m, owner, e.Else)
		if err != nil {
			return nil, err
		}
		return IfExpr{Cond: cond, Then: then, Else: els}, nil
	case *ast.CallExpr:
		return c.compileCall(m, owner, e)
	}
	return nil, fmt.Errorf("sim: model %q: %q has unsupported expression %T",
		m.Name, owner.Ident, n)
}

func (c *Compiler) compileBinary(m *project.Model, owner *project.Variable, e *ast.BinaryExpr) (Expr, error) {
	x, err := c.compileExpr(m, owner, e.Left)
	if err != nil {
		return nil, err
	}
	y, err := c.compileExpr(m, owner, e.Right)
	if err != nil {
		return nil, err
	}

	if e.Op == "^" {
		return CallExpr{Fn: "pow", Args: []Expr{x, y}}, nil
	}
	if e.Op == "=" {
		if isNanConst(x) {
			return IsNanExpr{X: y}, nil
		}
		if isNanConst(y) {
			return IsNanExpr{X: x}, nil
		}
	}
	return BinaryExpr{Op: e.Op, X: x, Y: y}, nil
}

func isNanConst(e Expr) bool {
	c, ok := e.(ConstExpr)
	return ok && math.IsNaN(c.Val)
}

func (c *Compiler) compileCall(m *project.Model, owner *project.Variable, e *ast.CallExpr) (Expr, error) {
	fn, ok := e.Fn.(*ast.Ident)
	if !ok {
		return nil, fmt.Errorf("sim: model %q: %q calls a non-identifier", m.Name, owner.Ident)
	}

	switch fn.Name {
	case "time":
		return TimeExpr{}, nil
	case "pi":
		return ConstExpr{Val: math.Pi}, nil
	case "inf":
		return ConstExpr{Val: math.Inf(1)}, nil
	case "lookup":
		return c.compileLookup(m, owner, e)
	}

	if !project.IsBuiltin(fn.Name) {
		// The desugar pass rewrote every non-builtin call; reaching one
		// here means the pass did not run over this tree.
		return nil, fmt.Errorf("sim: model %q: %q calls undesugared function %q",
			m.Name, owner.Ident, fn.Name)
	}

	args := make([]Expr, len(e.Args))
	for i, a := range e.Args {
		arg, err := c.compileExpr(m, owner, a)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return CallExpr{Fn: fn.Name, Args: args}, nil
}

// compileLookup compiles lookup(table, index) by inlining the named
// table's coordinates.
func (c *Compiler) compileLookup(m *project.Model, owner *project.Variable, e *ast.CallExpr) (Expr, error) {
	if len(e.Args) != 2 {
		return nil, fmt.Errorf("sim: model %q: %q: lookup takes 2 arguments, got %d",
			m.Name, owner.Ident, len(e.Args))
	}
	tbl, ok := e.Args[0].(*ast.Table)
	if !ok {
		return nil, fmt.Errorf("sim: model %q: %q: first argument of lookup must name a table",
			m.Name, owner.Ident)
	}
	tv, ok := m.Tables[tbl.Name]
	if !ok {
		return nil, fmt.Errorf("sim: model %q: %q: lookup of unknown table %q",
			m.Name, owner.Ident, tbl.Name)
	}
	idx, err := c.compileExpr(m, owner, e.Args[1])
	if err != nil {
		return nil, err
	}
	return LookupExpr{X: tv.X, Y: tv.Y, Index: idx}, nil
}

func sortedIdents(m *project.Model) []string {
	idents := make([]string, 0, len(m.Vars))
	for ident := range m.Vars {
		idents = append(idents, ident)
	}
	sort.Strings(idents)
	return idents
}

// sortByDeps orders idents so that dependencies come before their
// dependents: A sorts before B iff B's transitive dependency set
// contains A. A partition-based sort over the closure is sufficient
// because each partition stays closed under dependencies.
func sortByDeps(idents []string, allDeps map[string]map[string]bool) {
	var sortRange func(l, r int)
	sortRange = func(l, r int) {
		if l >= r {
			return
		}
		pivotDeps := allDeps[idents[r]]
		i := l - 1
		for j := l; j < r; j++ {
			if pivotDeps[idents[j]] {
				i++
				idents[i], idents[j] = idents[j], idents[i]
			}
		}
		i++
		idents[i], idents[r] = idents[r], idents[i]
		sortRange(l, i-1)
		sortRange(i+1, r)
	}
	sortRange(0, len(idents)-1)
}
