// Package ast defines the abstract syntax tree for parsed equations.
//
// The node set is closed: every expression is one of Ident, Table,
// Constant, ParenExpr, UnaryExpr, BinaryExpr, IfExpr or CallExpr. Nodes
// are immutable value objects; rewrite passes build new nodes rather
// than mutating in place, so trees may be shared freely between passes.
package ast

import "github.com/leapstack-labs/leapsim/pkg/token"

// Node is the base interface for all AST nodes.
type Node interface {
	// Pos returns the location of the first character of the node.
	Pos() token.Loc
	// End returns the location immediately after the node.
	End() token.Loc
	// Walk visits the node and its children with the given visitor.
	Walk(v Visitor)

	exprNode() // closed set marker
}

// Ident is a reference to a model variable by its canonicalized name.
type Ident struct {
	Name     string
	StartPos token.Loc
	EndPos   token.Loc
}

// Pos implements Node.
func (i *Ident) Pos() token.Loc { return i.StartPos }

// End implements Node.
func (i *Ident) End() token.Loc { return i.EndPos }

func (*Ident) exprNode() {}

// Table marks an identifier that denotes a lookup table. It is produced
// only by rewriting the first argument of a lookup() call; the parser
// never creates one.
type Table struct {
	Name     string
	StartPos token.Loc
	EndPos   token.Loc
}

// Pos implements Node.
func (t *Table) Pos() token.Loc { return t.StartPos }

// End implements Node.
func (t *Table) End() token.Loc { return t.EndPos }

func (*Table) exprNode() {}

// Constant is a floating-point literal.
type Constant struct {
	Value    float64
	StartPos token.Loc
	EndPos   token.Loc
}

// Pos implements Node.
func (c *Constant) Pos() token.Loc { return c.StartPos }

// End implements Node.
func (c *Constant) End() token.Loc { return c.EndPos }

func (*Constant) exprNode() {}

// ParenExpr is a parenthesized sub-expression.
type ParenExpr struct {
	Inner    Node
	StartPos token.Loc
	EndPos   token.Loc
}

// Pos implements Node.
func (p *ParenExpr) Pos() token.Loc { return p.StartPos }

// End implements Node.
func (p *ParenExpr) End() token.Loc { return p.EndPos }

func (*ParenExpr) exprNode() {}

// UnaryExpr is a prefix operator applied to an operand.
// Op is one of "+", "-", "!".
type UnaryExpr struct {
	Op       string
	Operand  Node
	StartPos token.Loc
}

// Pos implements Node.
func (u *UnaryExpr) Pos() token.Loc { return u.StartPos }

// End implements Node.
func (u *UnaryExpr) End() token.Loc { return u.Operand.End() }

func (*UnaryExpr) exprNode() {}

// BinaryExpr is an infix operator applied to two operands.
// Op is a single glyph: + - * / % ^ & | = ≠ < > ≤ ≥.
type BinaryExpr struct {
	Op    string
	Left  Node
	Right Node
	OpPos token.Loc
}

// Pos implements Node.
func (b *BinaryExpr) Pos() token.Loc { return b.Left.Pos() }

// End implements Node.
func (b *BinaryExpr) End() token.Loc { return b.Right.End() }

func (*BinaryExpr) exprNode() {}

// IfExpr is a conditional: IF cond THEN then ELSE else.
type IfExpr struct {
	Cond     Node
	Then     Node
	Else     Node
	StartPos token.Loc
}

// Pos implements Node.
func (i *IfExpr) Pos() token.Loc { return i.StartPos }

// End implements Node.
func (i *IfExpr) End() token.Loc { return i.Else.End() }

func (*IfExpr) exprNode() {}

// CallExpr is a function application. Fn is always an *Ident in this
// language; builtin resolution happens in later passes.
type CallExpr struct {
	Fn     Node
	Args   []Node
	EndPos token.Loc // location of the closing paren
}

// Pos implements Node.
func (c *CallExpr) Pos() token.Loc { return c.Fn.Pos() }

// End implements Node.
func (c *CallExpr) End() token.Loc { return c.EndPos }

func (*CallExpr) exprNode() {}
