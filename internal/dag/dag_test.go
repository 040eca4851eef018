package dag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsim/internal/dag"
)

// chain builds rate -> births -> population with an unrelated constant.
func chain(t *testing.T) *dag.Graph {
	t.Helper()
	g := dag.New()
	for _, ident := range []string{"rate", "births", "population", "area"} {
		g.AddNode(ident)
	}
	require.NoError(t, g.AddEdge("rate", "births"))
	require.NoError(t, g.AddEdge("births", "population"))
	return g
}

func TestAddNodeIdempotent(t *testing.T) {
	g := dag.New()
	g.AddNode("x")
	g.AddNode("x")
	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, []string{"x"}, g.Nodes())
}

func TestAddEdge(t *testing.T) {
	g := dag.New()
	g.AddNode("a")
	g.AddNode("b")

	require.NoError(t, g.AddEdge("a", "b"))
	assert.Equal(t, []string{"a"}, g.Deps("b"))
	assert.Equal(t, []string{"b"}, g.Dependents("a"))
	assert.Equal(t, 1, g.EdgeCount())

	// Duplicate edges collapse.
	require.NoError(t, g.AddEdge("a", "b"))
	assert.Equal(t, 1, g.EdgeCount())
}

func TestAddEdgeErrors(t *testing.T) {
	g := dag.New()
	g.AddNode("a")

	err := g.AddEdge("missing", "a")
	require.EqualError(t, err, `unknown dependency "missing"`)

	err = g.AddEdge("a", "missing")
	require.EqualError(t, err, `unknown variable "missing"`)

	err = g.AddEdge("a", "a")
	require.EqualError(t, err, `variable "a" depends on itself`)
}

func TestCycle(t *testing.T) {
	t.Run("acyclic", func(t *testing.T) {
		assert.Nil(t, chain(t).Cycle())
	})

	t.Run("two-node cycle", func(t *testing.T) {
		g := dag.New()
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "a"))

		cycle := g.Cycle()
		require.NotNil(t, cycle)
		assert.Equal(t, cycle[0], cycle[len(cycle)-1], "path closes on itself")
		assert.Len(t, cycle, 3)
	})

	t.Run("cycle behind a chain", func(t *testing.T) {
		g := dag.New()
		for _, ident := range []string{"a", "b", "c", "d"} {
			g.AddNode(ident)
		}
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("c", "d"))
		require.NoError(t, g.AddEdge("d", "b"))

		cycle := g.Cycle()
		require.NotNil(t, cycle)
		assert.Equal(t, cycle[0], cycle[len(cycle)-1])
		assert.NotContains(t, cycle, "a", "the lead-in is not part of the cycle")
	})
}

func TestUpstream(t *testing.T) {
	g := chain(t)
	assert.Equal(t, map[string]bool{
		"rate":   true,
		"births": true,
	}, g.Upstream("population"))
	assert.Empty(t, g.Upstream("rate"))
	assert.Empty(t, g.Upstream("area"))
}

func TestDownstream(t *testing.T) {
	g := chain(t)
	assert.Equal(t, []string{"births", "population", "rate"}, g.Downstream("rate"))
	assert.Equal(t, []string{"area"}, g.Downstream("area"))
	assert.Empty(t, g.Downstream("unknown"))
}

func TestTopoSort(t *testing.T) {
	g := dag.New()
	for _, ident := range []string{"a", "b", "c"} {
		g.AddNode(ident)
	}
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))

	order, err := g.TopoSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestTopoSortRejectsCycle(t *testing.T) {
	g := dag.New()
	g.AddNode("a")
	g.AddNode("b")
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "a"))

	_, err := g.TopoSort()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency cycle")
}

func TestLevels(t *testing.T) {
	g := dag.New()
	for _, ident := range []string{"rate", "area", "births", "density"} {
		g.AddNode(ident)
	}
	require.NoError(t, g.AddEdge("rate", "births"))
	require.NoError(t, g.AddEdge("births", "density"))
	require.NoError(t, g.AddEdge("area", "density"))

	levels, err := g.Levels()
	require.NoError(t, err)
	require.Len(t, levels, 3)
	assert.Equal(t, []string{"area", "rate"}, levels[0])
	assert.Equal(t, []string{"births"}, levels[1])
	assert.Equal(t, []string{"density"}, levels[2])
}

func TestRootsAndLeaves(t *testing.T) {
	g := chain(t)
	assert.Equal(t, []string{"area", "rate"}, g.Roots())
	assert.Equal(t, []string{"area", "population"}, g.Leaves())
}
