package parser

import (
	"fmt"
	"math"
	"strconv"

	"github.com/leapstack-labs/leapsim/pkg/ast"
	"github.com/leapstack-labs/leapsim/pkg/token"
)

// Operator precedence levels, low to high. Exponentiation is the only
// right-associative operator and binds tighter than unary negation.
const (
	precNone       = 0
	precOr         = 1 // |
	precAnd        = 2 // &
	precEquality   = 3 // = ≠
	precComparison = 4 // < > ≤ ≥
	precAddition   = 5 // + -
	precMultiply   = 6 // * / %
	precUnary      = 7 // ! - +
	precExponent   = 8 // ^
)

// binaryPrecedence returns the infix precedence of an operator glyph,
// or precNone if the glyph is not a binary operator.
func binaryPrecedence(glyph string) int {
	switch glyph {
	case "|":
		return precOr
	case "&":
		return precAnd
	case "=", "≠":
		return precEquality
	case "<", ">", "≤", "≥":
		return precComparison
	case "+", "-":
		return precAddition
	case "*", "/", "%":
		return precMultiply
	case "^":
		return precExponent
	}
	return precNone
}

// Parser parses a single equation into an AST.
type Parser struct {
	lexer  *Lexer
	errors []error
}

// Parse parses an equation and returns its AST along with any syntax
// errors. An empty equation is valid and returns (nil, nil): "no
// equation" is distinct from a parse error. When errors are returned
// the AST is nil; callers must check the error list.
func Parse(input string) (ast.Node, []error) {
	p := &Parser{lexer: NewLexer(input)}

	if _, ok := p.lexer.Peek(); !ok {
		return nil, nil
	}

	expr := p.parseExpression(precOr)
	if tok, ok := p.lexer.Peek(); ok {
		p.addError(tok.Start, fmt.Sprintf(errTrailingTokens, tok.Literal))
	}
	if len(p.errors) > 0 {
		return nil, p.errors
	}
	return expr, nil
}

// addError records a parse error. Parsing continues where possible so
// that one equation can report multiple problems.
func (p *Parser) addError(pos token.Loc, msg string) {
	p.errors = append(p.errors, &ParseError{Pos: pos, Message: msg})
}

// expectOperator consumes the given operator glyph or records an error.
func (p *Parser) expectOperator(glyph string) bool {
	tok, ok := p.lexer.Peek()
	if !ok || tok.Kind != token.Operator || tok.Literal != glyph {
		pos := tok.Start
		if !ok {
			pos = token.Loc{}
		}
		p.addError(pos, fmt.Sprintf(errExpectedToken, glyph))
		return false
	}
	p.lexer.Next()
	return true
}

// expectReserved consumes the given reserved word or records an error.
func (p *Parser) expectReserved(word string) bool {
	tok, ok := p.lexer.Peek()
	if !ok || tok.Kind != token.Reserved || tok.Literal != word {
		pos := tok.Start
		if !ok {
			pos = token.Loc{}
		}
		p.addError(pos, fmt.Sprintf(errExpectedToken, word))
		return false
	}
	p.lexer.Next()
	return true
}

// parseExpression implements precedence climbing: parse a left operand
// at the next-higher level, then greedily consume operators at or above
// minPrec. Left-associativity falls out of recursing at prec+1 for the
// right operand; exponentiation recurses at the same level to stay
// right-associative.
func (p *Parser) parseExpression(minPrec int) ast.Node {
	left := p.parseUnary()
	if left == nil {
		return nil
	}

	for {
		tok, ok := p.lexer.Peek()
		if !ok || tok.Kind != token.Operator {
			return left
		}
		prec := binaryPrecedence(tok.Literal)
		if prec < minPrec {
			return left
		}
		p.lexer.Next()

		nextMin := prec + 1
		if tok.Literal == "^" {
			nextMin = prec
		}
		right := p.parseExpression(nextMin)
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{Op: tok.Literal, Left: left, Right: right, OpPos: tok.Start}
	}
}

// parseUnary handles the prefix operators +, - and not.
func (p *Parser) parseUnary() ast.Node {
	tok, ok := p.lexer.Peek()
	if ok && tok.Kind == token.Operator {
		switch tok.Literal {
		case "+", "-", "!":
			p.lexer.Next()
			operand := p.parseExpression(precUnary)
			if operand == nil {
				return nil
			}
			return &ast.UnaryExpr{Op: tok.Literal, Operand: operand, StartPos: tok.Start}
		}
	}
	return p.parseFactor()
}

// parseFactor handles the atoms of the grammar: parenthesized
// sub-expressions, numeric literals, IF/THEN/ELSE, and identifiers
// (which become calls when followed by an opening paren).
func (p *Parser) parseFactor() ast.Node {
	tok, ok := p.lexer.Peek()
	if !ok {
		p.addError(token.Loc{}, errUnexpectedEOF)
		return nil
	}

	switch tok.Kind {
	case token.Operator:
		if tok.Literal == "(" {
			return p.parseParen(tok)
		}
	case token.Number:
		p.lexer.Next()
		val, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.addError(tok.Start, fmt.Sprintf(errInvalidNumber, tok.Literal))
			return nil
		}
		return &ast.Constant{Value: val, StartPos: tok.Start, EndPos: tok.End}
	case token.Reserved:
		if tok.Literal == "if" {
			return p.parseIf(tok)
		}
	case token.Ident:
		return p.parseIdent(tok)
	}

	p.addError(tok.Start, fmt.Sprintf(errUnexpectedTok, tok.Literal))
	return nil
}

// parseParen parses a parenthesized sub-expression.
func (p *Parser) parseParen(open token.Token) ast.Node {
	p.lexer.Next() // consume (
	inner := p.parseExpression(precOr)
	if inner == nil {
		return nil
	}
	closing, ok := p.lexer.Peek()
	if !ok || closing.Kind != token.Operator || closing.Literal != ")" {
		p.addError(closing.Start, fmt.Sprintf(errExpectedToken, ")"))
		return nil
	}
	p.lexer.Next()
	return &ast.ParenExpr{Inner: inner, StartPos: open.Start, EndPos: closing.End}
}

// parseIf parses IF cond THEN t ELSE f.
func (p *Parser) parseIf(ifTok token.Token) ast.Node {
	p.lexer.Next() // consume if
	cond := p.parseExpression(precOr)
	if cond == nil {
		return nil
	}
	if !p.expectReserved("then") {
		return nil
	}
	then := p.parseExpression(precOr)
	if then == nil {
		return nil
	}
	if !p.expectReserved("else") {
		return nil
	}
	els := p.parseExpression(precOr)
	if els == nil {
		return nil
	}
	return &ast.IfExpr{Cond: cond, Then: then, Else: els, StartPos: ifTok.Start}
}

// parseIdent parses an identifier, a call, or the nan literal.
func (p *Parser) parseIdent(tok token.Token) ast.Node {
	p.lexer.Next() // consume identifier

	if next, ok := p.lexer.Peek(); ok && next.Kind == token.Operator && next.Literal == "(" {
		return p.parseCall(tok)
	}

	if tok.Literal == "nan" {
		return &ast.Constant{Value: math.NaN(), StartPos: tok.Start, EndPos: tok.End}
	}
	return &ast.Ident{Name: tok.Literal, StartPos: tok.Start, EndPos: tok.End}
}

// parseCall parses a call's argument list; the callee identifier has
// already been consumed.
func (p *Parser) parseCall(fn token.Token) ast.Node {
	p.lexer.Next() // consume (

	call := &ast.CallExpr{
		Fn: &ast.Ident{Name: fn.Literal, StartPos: fn.Start, EndPos: fn.End},
	}

	// Empty argument list
	if tok, ok := p.lexer.Peek(); ok && tok.Kind == token.Operator && tok.Literal == ")" {
		p.lexer.Next()
		call.EndPos = tok.End
		return call
	}

	for {
		arg := p.parseExpression(precOr)
		if arg == nil {
			return nil
		}
		call.Args = append(call.Args, arg)

		tok, ok := p.lexer.Peek()
		if !ok {
			p.addError(token.Loc{}, errUnexpectedEOF)
			return nil
		}
		if tok.Kind == token.Operator && tok.Literal == "," {
			p.lexer.Next()
			continue
		}
		if tok.Kind == token.Operator && tok.Literal == ")" {
			p.lexer.Next()
			call.EndPos = tok.End
			return call
		}
		p.addError(tok.Start, fmt.Sprintf(errUnexpectedTok, tok.Literal))
		return nil
	}
}
