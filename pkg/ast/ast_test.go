package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsim/pkg/ast"
	"github.com/leapstack-labs/leapsim/pkg/parser"
)

func parse(t *testing.T, input string) ast.Node {
	t.Helper()
	node, errs := parser.Parse(input)
	require.Empty(t, errs, "parse %q", input)
	require.NotNil(t, node, "parse %q", input)
	return node
}

func TestPrintRoundTrip(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2+3*4", "2 + 3 * 4"},
		{"(a+b)*c", "(a + b) * c"},
		{"not ready", "not ready"},
		{"a and b", "a and b"},
		{"a or b", "a or b"},
		{"a mod b", "a mod b"},
		{"x<>y", "x <> y"},
		{"x>=1", "x >= 1"},
		{"x<=1", "x <= 1"},
		{"-rate", "-rate"},
		{"max(a, b)", "max(a, b)"},
		{"pi()", "pi()"},
		{"if x > 0 then x else 0", "if x > 0 then x else 0"},
		{"hares.population", "hares.population"},
		{".5", "0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ast.Print(parse(t, tt.input))
			assert.Equal(t, tt.want, got)

			// Canonical text must parse back to the same canonical text.
			again := ast.Print(parse(t, got))
			assert.Equal(t, got, again)
		})
	}
}

func TestPrintNil(t *testing.T) {
	assert.Equal(t, "", ast.Print(nil))
}

func TestIdents(t *testing.T) {
	node := parse(t, "a + max(b, c.d) * a")
	got := ast.Idents(node, nil)
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c.d": true}, got)
}

func TestIdentsSkipsCallee(t *testing.T) {
	node := parse(t, "max(x, min(y, z))")
	got := ast.Idents(node, nil)
	assert.NotContains(t, got, "max")
	assert.NotContains(t, got, "min")
	assert.Equal(t, map[string]bool{"x": true, "y": true, "z": true}, got)
}

func TestIdentsSkipSet(t *testing.T) {
	node := parse(t, "time + rate")
	got := ast.Idents(node, map[string]bool{"time": true})
	assert.Equal(t, map[string]bool{"rate": true}, got)
}

func TestIdentsNil(t *testing.T) {
	got := ast.Idents(nil, nil)
	assert.Empty(t, got)
}
