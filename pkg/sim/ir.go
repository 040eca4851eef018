// Package sim compiles a project's models into an executable,
// dependency-ordered simulation program and drives it through
// fixed-step Euler integration.
//
// Compilation happens in two stages. First each model
// monomorphization is compiled to a class: phase-partitioned,
// dependency-ordered variable lists whose expressions are a small
// typed IR referencing variables by name. Second, instantiation
// recursively resolves the class tree into flat run lists over a
// single state array, with every name replaced by an absolute offset.
// The same symbolic IR could be printed or emitted for a different
// backend without touching the compiler.
package sim

import "fmt"

// Expr is a node of the expression IR. The symbolic form RefExpr
// exists only between compilation and instantiation; evaluation sees
// offsets exclusively.
type Expr interface {
	irExpr()
}

// ConstExpr is a floating-point constant.
type ConstExpr struct {
	Val float64
}

func (ConstExpr) irExpr() {}

// RefExpr references a variable by (possibly dotted) path. It is
// resolved to a LoadExpr during instantiation.
type RefExpr struct {
	Path string
}

func (RefExpr) irExpr() {}

// TimeExpr reads the current simulation time.
type TimeExpr struct{}

func (TimeExpr) irExpr() {}

// LoadExpr reads an absolute state-array slot.
type LoadExpr struct {
	Off int
}

func (LoadExpr) irExpr() {}

// UnaryExpr applies "-" or "!" to an operand.
type UnaryExpr struct {
	Op string
	X  Expr
}

func (UnaryExpr) irExpr() {}

// BinaryExpr applies an arithmetic, relational or logical operator.
// Booleans are represented as 0 and 1.
type BinaryExpr struct {
	Op   string
	X, Y Expr
}

func (BinaryExpr) irExpr() {}

// IfExpr selects between two branches on a condition.
type IfExpr struct {
	Cond, Then, Else Expr
}

func (IfExpr) irExpr() {}

// CallExpr invokes a primitive builtin.
type CallExpr struct {
	Fn   string
	Args []Expr
}

func (CallExpr) irExpr() {}

// IsNanExpr tests its operand for NaN. Equality comparisons against a
// NaN literal lower to this node.
type IsNanExpr struct {
	X Expr
}

func (IsNanExpr) irExpr() {}

// LookupExpr interpolates an index into a coordinate table.
type LookupExpr struct {
	X, Y  []float64
	Index Expr
}

func (LookupExpr) irExpr() {}

// resolveExpr replaces symbolic references with absolute offsets,
// returning a tree ready for evaluation.
func resolveExpr(e Expr, in *instance) (Expr, error) {
	switch v := e.(type) {
	case ConstExpr, LoadExpr, TimeExpr:
		return e, nil
	case RefExpr:
		off, err := in.offsetOf(v.Path)
		if err != nil {
			return nil, err
		}
		return LoadExpr{Off: off}, nil
	case UnaryExpr:
		x, err := resolveExpr(v.X, in)
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: v.Op, X: x}, nil
	case BinaryExpr:
		x, err := resolveExpr(v.X, in)
		if err != nil {
			return nil, err
		}
		y, err := resolveExpr(v.Y, in)
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: v.Op, X: x, Y: y}, nil
	case IfExpr:
		cond, err := resolveExpr(v.Cond, in)
		if err != nil {
			return nil, err
		}
		then, err := resolveExpr(v.Then, in)
		if err != nil {
			return nil, err
		}
		els, err := resolveExpr(v.Else, in)
		if err != nil {
			return nil, err
		}
		return IfExpr{Cond: cond, Then: then, Else: els}, nil
	case CallExpr:
		args := make([]Expr, len(v.Args))
		for i, a := range v.Args {
			r, err := resolveExpr(a, in)
			if err != nil {
				return nil, err
			}
			args[i] = r
		}
		return CallExpr{Fn: v.Fn, Args: args}, nil
	case IsNanExpr:
		x, err := resolveExpr(v.X, in)
		if err != nil {
			return nil, err
		}
		return IsNanExpr{X: x}, nil
	case LookupExpr:
		idx, err := resolveExpr(v.Index, in)
		if err != nil {
			return nil, err
		}
		return LookupExpr{X: v.X, Y: v.Y, Index: idx}, nil
	}
	return nil, fmt.Errorf("sim: unknown IR node %T", e)
}
