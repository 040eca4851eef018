package parser_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsim/pkg/ast"
	"github.com/leapstack-labs/leapsim/pkg/parser"
)

// mustParse parses an equation and fails the test on any error.
func mustParse(t *testing.T, input string) ast.Node {
	t.Helper()
	node, errs := parser.Parse(input)
	require.Empty(t, errs, "parse %q", input)
	require.NotNil(t, node, "parse %q", input)
	return node
}

func TestParseEmptyEquation(t *testing.T) {
	for _, input := range []string{"", "   ", "{ comment only }", "\t{a}{b}\n"} {
		node, errs := parser.Parse(input)
		assert.Nil(t, node, "input %q", input)
		assert.Nil(t, errs, "input %q", input)
	}
}

func TestParseConstants(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"0", 0},
		{"3.2", 3.2},
		{".5", 0.5},
		{"1e-3", 0.001},
		{"2E2", 200},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			node := mustParse(t, tt.input)
			c, ok := node.(*ast.Constant)
			require.True(t, ok, "got %T", node)
			assert.Equal(t, tt.want, c.Value)
		})
	}
}

func TestParseNaNLiteral(t *testing.T) {
	node := mustParse(t, "nan")
	c, ok := node.(*ast.Constant)
	require.True(t, ok, "got %T", node)
	assert.True(t, math.IsNaN(c.Value))
}

func TestParsePrecedence(t *testing.T) {
	t.Run("multiplication binds tighter on the right", func(t *testing.T) {
		node := mustParse(t, "2 + 3 * 4")
		root, ok := node.(*ast.BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, "+", root.Op)
		right, ok := root.Right.(*ast.BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, "*", right.Op)
	})

	t.Run("multiplication binds tighter on the left", func(t *testing.T) {
		node := mustParse(t, "2 * 3 + 4")
		root, ok := node.(*ast.BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, "+", root.Op)
		left, ok := root.Left.(*ast.BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, "*", left.Op)
	})

	t.Run("subtraction is left-associative", func(t *testing.T) {
		node := mustParse(t, "1 - 2 - 3")
		root, ok := node.(*ast.BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, "-", root.Op)
		left, ok := root.Left.(*ast.BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, "-", left.Op)
		_, ok = root.Right.(*ast.Constant)
		assert.True(t, ok)
	})

	t.Run("exponentiation is right-associative", func(t *testing.T) {
		node := mustParse(t, "2 ^ 3 ^ 2")
		root, ok := node.(*ast.BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, "^", root.Op)
		right, ok := root.Right.(*ast.BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, "^", right.Op)
		_, ok = root.Left.(*ast.Constant)
		assert.True(t, ok)
	})

	t.Run("exponent binds tighter than unary minus", func(t *testing.T) {
		node := mustParse(t, "-a ^ 2")
		un, ok := node.(*ast.UnaryExpr)
		require.True(t, ok, "got %T", node)
		assert.Equal(t, "-", un.Op)
		pow, ok := un.Operand.(*ast.BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, "^", pow.Op)
	})

	t.Run("comparison binds tighter than and", func(t *testing.T) {
		node := mustParse(t, "a < b and c > d")
		root, ok := node.(*ast.BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, "&", root.Op)
		left, ok := root.Left.(*ast.BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, "<", left.Op)
		right, ok := root.Right.(*ast.BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, ">", right.Op)
	})

	t.Run("and binds tighter than or", func(t *testing.T) {
		node := mustParse(t, "a or b and c")
		root, ok := node.(*ast.BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, "|", root.Op)
		right, ok := root.Right.(*ast.BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, "&", right.Op)
	})

	t.Run("mod shares a level with multiplication", func(t *testing.T) {
		node := mustParse(t, "a mod b + c")
		root, ok := node.(*ast.BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, "+", root.Op)
		left, ok := root.Left.(*ast.BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, "%", left.Op)
	})
}

func TestParseParens(t *testing.T) {
	node := mustParse(t, "(a + b) * c")
	root, ok := node.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", root.Op)
	paren, ok := root.Left.(*ast.ParenExpr)
	require.True(t, ok)
	inner, ok := paren.Inner.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", inner.Op)
}

func TestParseUnary(t *testing.T) {
	node := mustParse(t, "not ready")
	un, ok := node.(*ast.UnaryExpr)
	require.True(t, ok, "got %T", node)
	assert.Equal(t, "!", un.Op)
	id, ok := un.Operand.(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "ready", id.Name)

	node = mustParse(t, "--x")
	outer, ok := node.(*ast.UnaryExpr)
	require.True(t, ok)
	inner, ok := outer.Operand.(*ast.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, "-", inner.Op)
}

func TestParseIfExpr(t *testing.T) {
	node := mustParse(t, "if x >= 1 then y else z * 2")
	ifExpr, ok := node.(*ast.IfExpr)
	require.True(t, ok, "got %T", node)

	cond, ok := ifExpr.Cond.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "≥", cond.Op)

	then, ok := ifExpr.Then.(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "y", then.Name)

	els, ok := ifExpr.Else.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", els.Op)
}

func TestParseNestedIf(t *testing.T) {
	node := mustParse(t, "if a then if b then 1 else 2 else 3")
	outer, ok := node.(*ast.IfExpr)
	require.True(t, ok)
	_, ok = outer.Then.(*ast.IfExpr)
	assert.True(t, ok)
	_, ok = outer.Else.(*ast.Constant)
	assert.True(t, ok)
}

func TestParseCalls(t *testing.T) {
	t.Run("two arguments", func(t *testing.T) {
		node := mustParse(t, "max(births, deaths)")
		call, ok := node.(*ast.CallExpr)
		require.True(t, ok, "got %T", node)
		fn, ok := call.Fn.(*ast.Ident)
		require.True(t, ok)
		assert.Equal(t, "max", fn.Name)
		require.Len(t, call.Args, 2)
		a0, ok := call.Args[0].(*ast.Ident)
		require.True(t, ok)
		assert.Equal(t, "births", a0.Name)
	})

	t.Run("no arguments", func(t *testing.T) {
		node := mustParse(t, "pi()")
		call, ok := node.(*ast.CallExpr)
		require.True(t, ok)
		assert.Empty(t, call.Args)
	})

	t.Run("nested call argument", func(t *testing.T) {
		node := mustParse(t, "min(max(a, b), c + 1)")
		call, ok := node.(*ast.CallExpr)
		require.True(t, ok)
		require.Len(t, call.Args, 2)
		_, ok = call.Args[0].(*ast.CallExpr)
		assert.True(t, ok)
		_, ok = call.Args[1].(*ast.BinaryExpr)
		assert.True(t, ok)
	})
}

func TestParseDottedIdent(t *testing.T) {
	node := mustParse(t, "hares.population / area")
	root, ok := node.(*ast.BinaryExpr)
	require.True(t, ok)
	id, ok := root.Left.(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "hares.population", id.Name)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"unterminated paren", "(1 + 2", `expected ")"`},
		{"trailing tokens", "1 2", `unexpected "2" after expression`},
		{"dangling operator", "1 +", "unexpected end of equation"},
		{"missing else", "if 1 then 2", `expected "else"`},
		{"missing then", "if 1 2 else 3", `expected "then"`},
		{"bare operator", "* 3", `unexpected token "*"`},
		{"unterminated call", "max(1, 2", "unexpected end of equation"},
		{"empty parens", "()", `unexpected token ")"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, errs := parser.Parse(tt.input)
			assert.Nil(t, node)
			require.NotEmpty(t, errs)
			assert.Contains(t, errs[0].Error(), tt.wantMsg)
		})
	}
}

func TestParseErrorIncludesPosition(t *testing.T) {
	_, errs := parser.Parse("1 ++")
	require.NotEmpty(t, errs)
	perr, ok := errs[0].(*parser.ParseError)
	require.True(t, ok, "got %T", errs[0])
	assert.Contains(t, perr.Error(), "parse error at")
}
