package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/leapsim/pkg/token"
)

func TestLocOff(t *testing.T) {
	loc := token.Loc{Line: 2, Column: 5}
	assert.Equal(t, token.Loc{Line: 2, Column: 8}, loc.Off(3))
	assert.Equal(t, loc, loc.Off(0))
}

func TestLocBefore(t *testing.T) {
	tests := []struct {
		name string
		a, b token.Loc
		want bool
	}{
		{"same line earlier column", token.Loc{0, 1}, token.Loc{0, 5}, true},
		{"same line later column", token.Loc{0, 5}, token.Loc{0, 1}, false},
		{"earlier line", token.Loc{1, 9}, token.Loc{2, 0}, true},
		{"equal", token.Loc{3, 3}, token.Loc{3, 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Before(tt.b))
		})
	}
}

func TestLocString(t *testing.T) {
	assert.Equal(t, "1:12", token.Loc{Line: 1, Column: 12}.String())
}

func TestIsReserved(t *testing.T) {
	for _, word := range []string{"if", "then", "else"} {
		assert.True(t, token.IsReserved(word), word)
	}
	for _, word := range []string{"IF", "and", "or", "not", "mod", "time", "x"} {
		assert.False(t, token.IsReserved(word), word)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "NUMBER", token.Number.String())
	assert.Equal(t, "IDENT", token.Ident.String())
	assert.Equal(t, "RESERVED", token.Reserved.String())
	assert.Equal(t, "OPERATOR", token.Operator.String())
}
