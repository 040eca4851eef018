package ast

// Visitor is implemented by tree-walking passes. Visit is called for a
// node; if the returned visitor is non-nil, Walk continues with it for
// each child of the node.
type Visitor interface {
	Visit(n Node) Visitor
}

// Walk implements Node for Ident.
func (i *Ident) Walk(v Visitor) { v.Visit(i) }

// Walk implements Node for Table.
func (t *Table) Walk(v Visitor) { v.Visit(t) }

// Walk implements Node for Constant.
func (c *Constant) Walk(v Visitor) { v.Visit(c) }

// Walk implements Node for ParenExpr.
func (p *ParenExpr) Walk(v Visitor) {
	if w := v.Visit(p); w != nil {
		p.Inner.Walk(w)
	}
}

// Walk implements Node for UnaryExpr.
func (u *UnaryExpr) Walk(v Visitor) {
	if w := v.Visit(u); w != nil {
		u.Operand.Walk(w)
	}
}

// Walk implements Node for BinaryExpr.
func (b *BinaryExpr) Walk(v Visitor) {
	if w := v.Visit(b); w != nil {
		b.Left.Walk(w)
		b.Right.Walk(w)
	}
}

// Walk implements Node for IfExpr.
func (i *IfExpr) Walk(v Visitor) {
	if w := v.Visit(i); w != nil {
		i.Cond.Walk(w)
		i.Then.Walk(w)
		i.Else.Walk(w)
	}
}

// Walk implements Node for CallExpr.
func (c *CallExpr) Walk(v Visitor) {
	if w := v.Visit(c); w != nil {
		c.Fn.Walk(w)
		for _, arg := range c.Args {
			arg.Walk(w)
		}
	}
}
