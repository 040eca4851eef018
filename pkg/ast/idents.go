package ast

// identCollector gathers every identifier referenced by an expression.
type identCollector struct {
	names map[string]bool
	skip  map[string]bool
}

// Visit implements Visitor.
func (c *identCollector) Visit(n Node) Visitor {
	switch e := n.(type) {
	case *Ident:
		if !c.skip[e.Name] {
			c.names[e.Name] = true
		}
	case *Table:
		if !c.skip[e.Name] {
			c.names[e.Name] = true
		}
	case *CallExpr:
		// The callee is a builtin or stdlib function, never a variable
		// dependency. Only walk the arguments.
		for _, arg := range e.Args {
			arg.Walk(c)
		}
		return nil
	}
	return c
}

// Idents returns the set of identifiers referenced by n, excluding any
// names in skip (typically builtin function names and keywords).
// A nil expression has no references.
func Idents(n Node, skip map[string]bool) map[string]bool {
	c := &identCollector{names: make(map[string]bool), skip: skip}
	if n != nil {
		n.Walk(c)
	}
	return c.names
}
