// Package parser turns equation text into an abstract syntax tree.
//
// The lexer and parser never panic on malformed input: the lexer simply
// stops producing tokens, and the parser accumulates human-readable
// errors on the result instead of failing on the first problem.
package parser

import (
	"strings"

	"github.com/leapstack-labs/leapsim/pkg/token"
)

// Lexer tokenizes a single equation.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (0-based)
	col     int  // current column number (0-based)

	peeked *token.Token // single token of lookahead
}

// NewLexer creates a Lexer for the given equation text.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, col: -1}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // NUL = end of input
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++

	if l.ch == '\n' {
		l.line++
		l.col = -1
	} else {
		l.col++
	}
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// loc returns the current source location.
func (l *Lexer) loc() token.Loc {
	return token.Loc{Line: l.line, Column: l.col}
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (token.Token, bool) {
	if l.peeked == nil {
		tok, ok := l.lex()
		if !ok {
			return token.Token{}, false
		}
		l.peeked = &tok
	}
	return *l.peeked, true
}

// Next returns the next token, or false at end of input. Malformed
// input behaves like end of input: no further tokens are produced.
func (l *Lexer) Next() (token.Token, bool) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, true
	}
	return l.lex()
}

// lex scans one token from the input.
func (l *Lexer) lex() (token.Token, bool) {
	l.skipWhitespaceAndComments()

	start := l.loc()

	switch {
	case l.ch == 0:
		return token.Token{}, false
	case l.ch == '"':
		return l.lexQuotedIdent(start)
	case isIdentStart(l.ch, l.peekChar()):
		return l.lexIdentifier(start)
	case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
		return l.lexNumber(start)
	default:
		return l.lexOperator(start)
	}
}

// skipWhitespaceAndComments skips whitespace and { ... } comments,
// which may appear anywhere in the token stream.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '{' {
			for l.ch != '}' && l.ch != 0 {
				l.readChar()
			}
			if l.ch == '}' {
				l.readChar()
			}
			continue
		}
		break
	}
}

// lexOperator scans a single operator glyph, folding the two-character
// relational forms to their internal single-glyph equivalents.
func (l *Lexer) lexOperator(start token.Loc) (token.Token, bool) {
	var glyph string
	switch l.ch {
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			glyph = "≥"
		} else {
			glyph = ">"
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			glyph = "≤"
		case '>':
			l.readChar()
			glyph = "≠"
		default:
			glyph = "<"
		}
	case '+', '-', '*', '/', '^', '%', '=', '(', ')', ',', '&', '|', '!':
		glyph = string(l.ch)
	default:
		// Unrecognized character: treat the rest of the input as
		// exhausted rather than erroring.
		return token.Token{}, false
	}
	end := l.loc()
	l.readChar()
	return token.Token{Kind: token.Operator, Literal: glyph, Start: start, End: end}, true
}

// lexIdentifier scans an identifier or reserved word. Identifiers are
// case-folded, and the word operators (not, and, or, mod) are mapped to
// their operator glyphs.
func (l *Lexer) lexIdentifier(start token.Loc) (token.Token, bool) {
	from := l.pos
	for isIdentPart(l.ch) {
		l.readChar()
	}
	word := strings.ToLower(l.input[from:l.pos])
	end := start.Off(len(word) - 1)

	kind := token.Ident
	switch word {
	case "not":
		kind, word = token.Operator, "!"
	case "and":
		kind, word = token.Operator, "&"
	case "or":
		kind, word = token.Operator, "|"
	case "mod":
		kind, word = token.Operator, "%"
	default:
		if token.IsReserved(word) {
			kind = token.Reserved
		}
	}
	return token.Token{Kind: kind, Literal: word, Start: start, End: end}, true
}

// lexQuotedIdent scans a double-quoted identifier, which accepts
// arbitrary characters until the closing quote.
func (l *Lexer) lexQuotedIdent(start token.Loc) (token.Token, bool) {
	l.readChar() // skip opening quote
	from := l.pos
	for l.ch != '"' && l.ch != 0 {
		l.readChar()
	}
	word := Canon(l.input[from:l.pos])
	end := l.loc()
	if l.ch == '"' {
		l.readChar() // skip closing quote
	}
	return token.Token{Kind: token.Ident, Literal: word, Start: start, End: end}, true
}

// lexNumber scans a numeric literal: optional integer part, optional
// fractional part, optional exponent.
func (l *Lexer) lexNumber(start token.Loc) (token.Token, bool) {
	from := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	lit := l.input[from:l.pos]
	return token.Token{Kind: token.Number, Literal: lit, Start: start, End: start.Off(len(lit) - 1)}, true
}

// isIdentStart reports whether ch begins an identifier. A leading dot
// anchors resolution at the root model and is part of the identifier.
func isIdentStart(ch, next byte) bool {
	return isLetter(ch) || ch == '_' || (ch == '.' && (isLetter(next) || next == '_'))
}

// isIdentPart reports whether ch may continue an identifier. Dots join
// module-qualified paths into a single identifier token.
func isIdentPart(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_' || ch == '.'
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Canon returns the canonical form of a variable name: case-folded,
// with runs of whitespace replaced by single underscores and any
// surrounding quotes removed.
func Canon(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Trim(name, `"`)
	name = strings.Join(strings.Fields(name), "_")
	var leadingDot bool
	if strings.HasPrefix(name, ".") {
		leadingDot = true
		name = name[1:]
	}
	name = strings.ReplaceAll(name, `\n`, "_")
	name = strings.ReplaceAll(name, `\\`, "\\")
	name = strings.ToLower(name)
	if leadingDot {
		name = "." + name
	}
	return name
}
