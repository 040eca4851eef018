package project_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsim/internal/testutil"
	"github.com/leapstack-labs/leapsim/pkg/ast"
	"github.com/leapstack-labs/leapsim/pkg/project"
)

// popDecl is a minimal growing-population model used across tests.
func popDecl() project.ModelDecl {
	return project.ModelDecl{
		Name: "main",
		Variables: []project.VarDecl{
			{Kind: "stock", Name: "population", Equation: "100", Inflows: []string{"births"}},
			{Kind: "flow", Name: "births", Equation: "population * birth_rate"},
			{Kind: "aux", Name: "birth_rate", Equation: "0.1"},
		},
	}
}

func newProject(t *testing.T, decl project.Decl) *project.Project {
	t.Helper()
	p, err := project.New(decl, testutil.NewTestLogger(t))
	require.NoError(t, err)
	return p
}

func TestNewProject(t *testing.T) {
	p := newProject(t, project.Decl{
		Name:   "pop",
		Spec:   project.SimSpec{Start: 0, Stop: 10, DT: 1},
		Models: []project.ModelDecl{popDecl()},
	})

	m, ok := p.Model("main")
	require.True(t, ok)
	assert.Empty(t, m.VarErrors())

	births, ok := m.Var("births")
	require.True(t, ok)
	assert.Equal(t, project.Ordinary, births.Kind)
	assert.Equal(t, map[string]bool{"population": true, "birth_rate": true}, births.Deps)

	pop, ok := m.Var("population")
	require.True(t, ok)
	assert.Equal(t, project.Stock, pop.Kind)
	assert.Equal(t, []string{"births"}, pop.Inflows)
	assert.Empty(t, pop.Deps)
}

func TestProjectStdlibFallback(t *testing.T) {
	p := newProject(t, project.Decl{Models: []project.ModelDecl{popDecl()}})

	m, ok := p.Model("smth1")
	require.True(t, ok)
	_, ok = m.Var("output")
	assert.True(t, ok)

	names := p.ModelNames()
	assert.Equal(t, []string{"main"}, names)
}

func TestDuplicateModel(t *testing.T) {
	_, err := project.New(project.Decl{
		Models: []project.ModelDecl{popDecl(), popDecl()},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate model "main"`)
}

func TestDuplicateVariable(t *testing.T) {
	decl := popDecl()
	decl.Variables = append(decl.Variables, project.VarDecl{Kind: "aux", Name: "birth_rate", Equation: "0.2"})
	_, err := project.New(project.Decl{Models: []project.ModelDecl{decl}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate variable "birth_rate"`)
}

func TestVarErrorsCollected(t *testing.T) {
	p := newProject(t, project.Decl{Models: []project.ModelDecl{{
		Name: "main",
		Variables: []project.VarDecl{
			{Kind: "aux", Name: "good", Equation: "1 + 2"},
			{Kind: "aux", Name: "bad", Equation: "1 +"},
		},
	}}})

	m, _ := p.Model("main")
	errs := m.VarErrors()
	require.Len(t, errs, 1)
	require.Contains(t, errs, "bad")
	assert.Contains(t, errs["bad"][0].Error(), "unexpected end of equation")
}

func TestDesugarSmth1(t *testing.T) {
	p := newProject(t, project.Decl{Models: []project.ModelDecl{{
		Name: "main",
		Variables: []project.VarDecl{
			{Kind: "aux", Name: "input_signal", Equation: "time * 2"},
			{Kind: "aux", Name: "smoothed", Equation: "smth1(input_signal, 5)"},
		},
	}}})

	m, _ := p.Model("main")

	mod, ok := m.Var("$·smoothed·0·smth1")
	require.True(t, ok, "synthesized module missing")
	assert.Equal(t, project.Module, mod.Kind)
	assert.Equal(t, "smth1", mod.ModelName)
	require.Contains(t, mod.Refs, "input")
	assert.Equal(t, "input_signal", mod.Refs["input"].Ptr)

	// The non-identifier argument is carried by a synthesized auxiliary.
	require.Contains(t, mod.Refs, "delay_time")
	assert.Equal(t, "$·smoothed·0·smth1·delay_time", mod.Refs["delay_time"].Ptr)
	aux, ok := m.Var("$·smoothed·0·smth1·delay_time")
	require.True(t, ok)
	assert.Equal(t, "5", aux.EqnText)
	assert.True(t, aux.Synthetic())

	// The call site now reads the module's output.
	smoothed, _ := m.Var("smoothed")
	id, ok := smoothed.AST.(*ast.Ident)
	require.True(t, ok, "got %T", smoothed.AST)
	assert.Equal(t, "$·smoothed·0·smth1.output", id.Name)
	assert.Contains(t, smoothed.Deps, "$·smoothed·0·smth1")
}

func TestDesugarUnknownFunction(t *testing.T) {
	p := newProject(t, project.Decl{Models: []project.ModelDecl{{
		Name: "main",
		Variables: []project.VarDecl{
			{Kind: "aux", Name: "x", Equation: "frobnicate(1, 2)"},
		},
	}}})

	m, _ := p.Model("main")
	x, _ := m.Var("x")
	c, ok := x.AST.(*ast.Constant)
	require.True(t, ok, "got %T", x.AST)
	assert.Equal(t, 0.0, c.Value)
}

func TestDesugarLookupMarksTable(t *testing.T) {
	p := newProject(t, project.Decl{Models: []project.ModelDecl{{
		Name: "main",
		Variables: []project.VarDecl{
			{Kind: "table", Name: "price_curve", Points: []project.Point{{X: 0, Y: 1}, {X: 10, Y: 2}}},
			{Kind: "aux", Name: "price", Equation: "lookup(price_curve, time)"},
		},
	}}})

	m, _ := p.Model("main")
	price, _ := m.Var("price")
	call, ok := price.AST.(*ast.CallExpr)
	require.True(t, ok, "got %T", price.AST)
	require.Len(t, call.Args, 2)
	tbl, ok := call.Args[0].(*ast.Table)
	require.True(t, ok, "got %T", call.Args[0])
	assert.Equal(t, "price_curve", tbl.Name)
}

func TestDesugarArityError(t *testing.T) {
	_, err := project.New(project.Decl{Models: []project.ModelDecl{{
		Name: "main",
		Variables: []project.VarDecl{
			{Kind: "aux", Name: "x", Equation: "smth1(1, 2, 3, 4)"},
		},
	}}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"x": smth1 takes at most 3 arguments, got 4`)
}

func TestBuildVariableErrors(t *testing.T) {
	tests := []struct {
		name    string
		decl    project.VarDecl
		wantMsg string
	}{
		{"empty name", project.VarDecl{Kind: "aux"}, "variable with empty name"},
		{"unknown kind", project.VarDecl{Kind: "widget", Name: "x"}, `unknown kind "widget"`},
		{"module without model", project.VarDecl{Kind: "module", Name: "m"}, "names no model"},
		{"reference without source", project.VarDecl{Kind: "reference", Name: "r"}, "names no source"},
		{"table points out of order", project.VarDecl{
			Kind:   "table",
			Name:   "curve",
			Points: []project.Point{{X: 10, Y: 100}, {X: 0, Y: 0}},
		}, "strictly ascending"},
		{"table with duplicate x", project.VarDecl{
			Kind:   "table",
			Name:   "curve",
			Points: []project.Point{{X: 0, Y: 0}, {X: 0, Y: 5}, {X: 10, Y: 100}},
		}, "strictly ascending"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := project.New(project.Decl{Models: []project.ModelDecl{{
				Name:      "main",
				Variables: []project.VarDecl{tt.decl},
			}}}, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestTableDefaultsToTimeIndex(t *testing.T) {
	p := newProject(t, project.Decl{Models: []project.ModelDecl{{
		Name: "main",
		Variables: []project.VarDecl{
			{Kind: "table", Name: "seasonal", Points: []project.Point{{X: 0, Y: 0}, {X: 12, Y: 1}}},
		},
	}}})

	m, _ := p.Model("main")
	tbl, _ := m.Var("seasonal")
	assert.Equal(t, project.TableVar, tbl.Kind)
	assert.Equal(t, "time", tbl.EqnText)
	assert.Equal(t, []float64{0, 12}, tbl.X)
	assert.Equal(t, []float64{0, 1}, tbl.Y)
	assert.Empty(t, tbl.Deps, "time is supplied by the runtime")
}

func TestReferenceVariable(t *testing.T) {
	p := newProject(t, project.Decl{Models: []project.ModelDecl{{
		Name: "main",
		Variables: []project.VarDecl{
			{Kind: "aux", Name: "Population Size", Equation: "100"},
			{Kind: "reference", Name: "pop alias", Equation: "Population Size"},
		},
	}}})

	m, _ := p.Model("main")
	ref, ok := m.Var("pop_alias")
	require.True(t, ok)
	assert.Equal(t, project.Reference, ref.Kind)
	assert.Equal(t, "population_size", ref.Ptr)
	assert.Nil(t, ref.AST, "a reference's source path is not parsed")
	assert.Equal(t, map[string]bool{"population_size": true}, ref.Deps)
}

func TestContextLookup(t *testing.T) {
	p := newProject(t, project.Decl{Models: []project.ModelDecl{
		{
			Name: "habitat",
			Variables: []project.VarDecl{
				{Kind: "aux", Name: "capacity", Equation: "1000"},
			},
		},
		{
			Name: "main",
			Variables: []project.VarDecl{
				{Kind: "module", Name: "hab", Model: "habitat"},
				{Kind: "aux", Name: "crowding", Equation: "hab.capacity"},
			},
		},
	}})

	root, _ := p.Model("main")
	ctx := project.NewContext(p, root, false)

	v, ok := ctx.Lookup("hab.capacity")
	require.True(t, ok)
	assert.Equal(t, "capacity", v.Ident)

	// A leading dot anchors resolution at the root model, even from a
	// descended context.
	habitat, _ := p.Model("habitat")
	inner := ctx.Enter(habitat)
	v, ok = inner.Lookup(".hab.capacity")
	require.True(t, ok)
	assert.Equal(t, "capacity", v.Ident)

	_, ok = ctx.Lookup("hab.missing")
	assert.False(t, ok)
	_, ok = ctx.Lookup("crowding.capacity")
	assert.False(t, ok, "cannot descend through a non-module")
}

func TestNormalizeSpec(t *testing.T) {
	p := newProject(t, project.Decl{
		Spec:   project.SimSpec{Start: 0, Stop: 10, Method: "rk4"},
		Models: []project.ModelDecl{popDecl()},
	})
	assert.Equal(t, "euler", p.Spec.Method)
	assert.Equal(t, 1.0, p.Spec.DT)
}

func TestSimSpecActuals(t *testing.T) {
	spec := project.SimSpec{DT: 4, DTReciprocal: true}
	assert.Equal(t, 0.25, spec.ActualDT())
	assert.Equal(t, 0.25, spec.ActualSaveStep(), "save step defaults to dt")

	spec.SaveStep = 1
	assert.Equal(t, 1.0, spec.ActualSaveStep())
}

func TestSpecFor(t *testing.T) {
	override := &project.SimSpec{Start: 5, Stop: 6, DT: 0.5}
	p := newProject(t, project.Decl{
		Spec: project.SimSpec{Start: 0, Stop: 10, DT: 1},
		Models: []project.ModelDecl{
			{Name: "main", Spec: override, Variables: []project.VarDecl{
				{Kind: "aux", Name: "x", Equation: "1"},
			}},
			{Name: "other", Variables: []project.VarDecl{
				{Kind: "aux", Name: "x", Equation: "1"},
			}},
		},
	})

	m, _ := p.Model("main")
	assert.Equal(t, 5.0, p.SpecFor(m).Start)
	other, _ := p.Model("other")
	assert.Equal(t, 0.0, p.SpecFor(other).Start)
}

func TestVarKindString(t *testing.T) {
	assert.Equal(t, "aux", project.Ordinary.String())
	assert.Equal(t, "stock", project.Stock.String())
	assert.Equal(t, "table", project.TableVar.String())
	assert.Equal(t, "module", project.Module.String())
	assert.Equal(t, "reference", project.Reference.String())
}

func TestIsBuiltin(t *testing.T) {
	assert.True(t, project.IsBuiltin("max"))
	assert.True(t, project.IsBuiltin("safediv"))
	assert.False(t, project.IsBuiltin("smth1"), "templates are not primitives")
	assert.False(t, project.IsBuiltin("frobnicate"))
}
