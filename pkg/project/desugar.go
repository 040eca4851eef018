package project

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapsim/pkg/ast"
)

// The desugar pass rewrites stdlib-template calls like smth1(x, 5)
// into an implicit module instantiation plus, for each non-identifier
// argument, a synthesized auxiliary variable carrying the argument
// expression. The call site itself becomes a reference to the
// synthesized module's output.
//
// Unknown function names degrade to a literal 0 with a logged warning
// so that one bad call does not make the whole model unsimulatable.

// desugarPass holds the per-variable rewrite state. The counter is
// scoped to the owning variable and guarantees unique synthetic names.
type desugarPass struct {
	model   *Model
	owner   *Variable
	counter int
	rewrote bool
	logger  *slog.Logger
	err     error
}

// desugar rewrites one variable's AST in place (producing new nodes,
// never mutating shared ones). It reports whether any rewriting
// happened; a pass over an already-desugared tree reports false.
func desugar(m *Model, v *Variable, logger *slog.Logger) (bool, error) {
	if v.AST == nil {
		return false, nil
	}
	p := &desugarPass{model: m, owner: v, logger: logger}
	node := p.rewrite(v.AST)
	if p.err != nil {
		return false, p.err
	}
	if p.rewrote {
		v.AST = node
	}
	return p.rewrote, nil
}

// rewrite returns a desugared copy of n, setting p.rewrote when any
// rewriting happened.
func (p *desugarPass) rewrite(n ast.Node) ast.Node {
	switch e := n.(type) {
	case *ast.Ident, *ast.Table, *ast.Constant:
		return n
	case *ast.ParenExpr:
		inner := p.rewrite(e.Inner)
		if inner == e.Inner {
			return e
		}
		return &ast.ParenExpr{Inner: inner, StartPos: e.StartPos, EndPos: e.EndPos}
	case *ast.UnaryExpr:
		operand := p.rewrite(e.Operand)
		if operand == e.Operand {
			return e
		}
		return &ast.UnaryExpr{Op: e.Op, Operand: operand, StartPos: e.StartPos}
	case *ast.BinaryExpr:
		left, right := p.rewrite(e.Left), p.rewrite(e.Right)
		if left == e.Left && right == e.Right {
			return e
		}
		return &ast.BinaryExpr{Op: e.Op, Left: left, Right: right, OpPos: e.OpPos}
	case *ast.IfExpr:
		cond, then, els := p.rewrite(e.Cond), p.rewrite(e.Then), p.rewrite(e.Else)
		if cond == e.Cond && then == e.Then && els == e.Else {
			return e
		}
		return &ast.IfExpr{Cond: cond, Then: then, Else: els, StartPos: e.StartPos}
	case *ast.CallExpr:
		return p.rewriteCall(e)
	}
	return n
}

// rewriteCall handles the three call classes: primitive builtins (with
// the lookup table-marker special case), stdlib templates, and unknown
// functions.
func (p *desugarPass) rewriteCall(c *ast.CallExpr) ast.Node {
	fn, ok := c.Fn.(*ast.Ident)
	if !ok {
		p.err = fmt.Errorf("variable %q: call through non-identifier", p.owner.Ident)
		return c
	}

	if fn.Name == "lookup" {
		return p.rewriteLookup(c)
	}

	if IsBuiltin(fn.Name) {
		args, changed := p.rewriteArgs(c.Args)
		if !changed {
			return c
		}
		return &ast.CallExpr{Fn: c.Fn, Args: args, EndPos: c.EndPos}
	}

	if tmpl, ok := LookupTemplate(fn.Name); ok {
		return p.instantiate(c, fn, tmpl)
	}

	p.logger.Warn("unknown function in equation, substituting 0",
		slog.String("function", fn.Name),
		slog.String("variable", p.owner.Ident))
	p.rewrote = true
	return &ast.Constant{Value: 0, StartPos: c.Pos(), EndPos: c.End()}
}

// rewriteLookup marks a lookup call's first argument as a table
// reference. Only a plain identifier is rewritten, so the pass is
// idempotent on already-marked trees.
func (p *desugarPass) rewriteLookup(c *ast.CallExpr) ast.Node {
	args, changed := p.rewriteArgs(c.Args)
	if len(args) > 0 {
		if id, ok := args[0].(*ast.Ident); ok {
			args = append([]ast.Node(nil), args...)
			args[0] = &ast.Table{Name: id.Name, StartPos: id.StartPos, EndPos: id.EndPos}
			changed = true
		}
	}
	if !changed {
		return c
	}
	p.rewrote = true
	return &ast.CallExpr{Fn: c.Fn, Args: args, EndPos: c.EndPos}
}

// rewriteArgs desugars each argument, returning a fresh slice only if
// something changed.
func (p *desugarPass) rewriteArgs(args []ast.Node) ([]ast.Node, bool) {
	changed := false
	out := args
	for i, arg := range args {
		r := p.rewrite(arg)
		if r != arg {
			if !changed {
				out = append([]ast.Node(nil), args...)
				changed = true
			}
			out[i] = r
		}
	}
	return out, changed
}

// instantiate desugars a stdlib-template call into a synthesized
// module instance, binding each formal to an identifier argument or to
// a synthesized auxiliary holding the argument's printed equation.
func (p *desugarPass) instantiate(c *ast.CallExpr, fn *ast.Ident, tmpl Template) ast.Node {
	if len(c.Args) > len(tmpl.Formals) {
		p.err = fmt.Errorf("variable %q: %s takes at most %d arguments, got %d",
			p.owner.Ident, fn.Name, len(tmpl.Formals), len(c.Args))
		return c
	}

	n := p.counter
	p.counter++
	base := fmt.Sprintf("$·%s·%d·%s", p.owner.Ident, n, fn.Name)

	refs := make(map[string]*Ref, len(c.Args))
	for i, arg := range c.Args {
		arg = p.rewrite(arg)
		formal := tmpl.Formals[i]

		src := ""
		if id, ok := arg.(*ast.Ident); ok {
			src = id.Name
		} else {
			aux := &Variable{
				Kind:    Ordinary,
				Ident:   base + "·" + formal,
				EqnText: ast.Print(arg),
				AST:     arg,
			}
			if err := p.model.add(aux); err != nil {
				p.err = err
				return c
			}
			src = aux.Ident
		}
		refs[formal] = &Ref{Dst: formal, Ptr: src}
	}

	mod := &Variable{
		Kind:      Module,
		Ident:     base,
		ModelName: tmpl.Model,
		Refs:      refs,
	}
	if err := p.model.add(mod); err != nil {
		p.err = err
		return c
	}

	p.rewrote = true
	return &ast.Ident{Name: base + ".output", StartPos: c.Pos(), EndPos: c.End()}
}
