package token

import "fmt"

// Loc is a location in an equation's source text.
// It is an immutable value and safe to compare with ==.
type Loc struct {
	Line   int // 0-based line number
	Column int // 0-based column number
}

// Off returns a new location shifted n columns to the right.
// Used when synthesizing spans for rewritten subtrees.
func (l Loc) Off(n int) Loc {
	return Loc{Line: l.Line, Column: l.Column + n}
}

// Before reports whether l comes before other in the source.
func (l Loc) Before(other Loc) bool {
	if l.Line != other.Line {
		return l.Line < other.Line
	}
	return l.Column < other.Column
}

// String returns the location as "line:column".
func (l Loc) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}
