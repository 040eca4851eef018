package parser

import (
	"fmt"

	"github.com/leapstack-labs/leapsim/pkg/token"
)

// ParseError is a syntax error with position information.
type ParseError struct {
	Pos     token.Loc
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Message)
}

// Common error messages.
const (
	errExpectedToken  = "expected %q"
	errUnexpectedTok  = "unexpected token %q"
	errUnexpectedEOF  = "unexpected end of equation"
	errInvalidNumber  = "invalid number literal %q"
	errTrailingTokens = "unexpected %q after expression"
)
