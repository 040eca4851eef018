// Package token defines the lexical tokens of the equation language.
//
// The language has a small, closed token set: numbers, identifiers,
// reserved words and operators. Multi-character relational operators are
// folded by the lexer into single internal glyphs (≥ ≤ ≠) so downstream
// consumers only ever see one rune per operator.
package token

// Kind represents the type of a lexical token.
type Kind int

const (
	// Number is a numeric literal: 123, 45.67, 1e10.
	Number Kind = iota
	// Ident is an identifier, case-folded by the lexer.
	Ident
	// Reserved is a reserved word (if, then, else).
	Reserved
	// Operator is a single-glyph operator.
	Operator
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case Number:
		return "NUMBER"
	case Ident:
		return "IDENT"
	case Reserved:
		return "RESERVED"
	case Operator:
		return "OPERATOR"
	}
	return "UNKNOWN"
}

// Token is a single lexical token with its source span.
type Token struct {
	Kind    Kind
	Literal string
	Start   Loc
	End     Loc
}

// reservedWords are words that can never be identifiers. The word
// operators (not, and, or, mod) are rewritten to operator glyphs by the
// lexer before a token is ever produced, so they are not listed here.
var reservedWords = map[string]bool{
	"if":   true,
	"then": true,
	"else": true,
}

// IsReserved reports whether word is a reserved word of the language.
// The word must already be case-folded.
func IsReserved(word string) bool {
	return reservedWords[word]
}
