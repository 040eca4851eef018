// Package dag provides directed acyclic graph operations over variable
// dependencies. It supports cycle detection with path reconstruction,
// topological sorting, and upstream/downstream queries.
package dag

import (
	"fmt"
	"sort"
)

// Graph is a directed graph keyed by variable identifier. An edge from
// dep to ident means ident depends on dep.
type Graph struct {
	nodes      map[string]bool
	dependents map[string][]string // dep -> idents that use it
	deps       map[string][]string // ident -> its deps
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:      make(map[string]bool),
		dependents: make(map[string][]string),
		deps:       make(map[string][]string),
	}
}

// AddNode registers a variable. Adding the same identifier twice is a
// no-op.
func (g *Graph) AddNode(ident string) {
	if !g.nodes[ident] {
		g.nodes[ident] = true
		g.dependents[ident] = []string{}
		g.deps[ident] = []string{}
	}
}

// AddEdge records that ident depends on dep. Both ends must already be
// registered, and a variable may not depend on itself.
func (g *Graph) AddEdge(dep, ident string) error {
	if !g.nodes[dep] {
		return fmt.Errorf("unknown dependency %q", dep)
	}
	if !g.nodes[ident] {
		return fmt.Errorf("unknown variable %q", ident)
	}
	if dep == ident {
		return fmt.Errorf("variable %q depends on itself", ident)
	}

	if !contains(g.dependents[dep], ident) {
		g.dependents[dep] = append(g.dependents[dep], ident)
	}
	if !contains(g.deps[ident], dep) {
		g.deps[ident] = append(g.deps[ident], dep)
	}
	return nil
}

// Deps returns the direct dependencies of ident.
func (g *Graph) Deps(ident string) []string {
	return g.deps[ident]
}

// Dependents returns the variables that directly use ident.
func (g *Graph) Dependents(ident string) []string {
	return g.dependents[ident]
}

// Nodes returns all registered identifiers in sorted order.
func (g *Graph) Nodes() []string {
	idents := make([]string, 0, len(g.nodes))
	for ident := range g.nodes {
		idents = append(idents, ident)
	}
	sort.Strings(idents)
	return idents
}

// NodeCount returns the number of registered variables.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of dependency edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, users := range g.dependents {
		count += len(users)
	}
	return count
}

// Cycle returns one dependency cycle as a path whose first and last
// elements coincide, or nil if the graph is acyclic.
func (g *Graph) Cycle() []string {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	cameFrom := make(map[string]string)

	var cyclePath []string

	var dfs func(ident string) bool
	dfs = func(ident string) bool {
		visited[ident] = true
		onStack[ident] = true

		for _, user := range g.dependents[ident] {
			if !visited[user] {
				cameFrom[user] = ident
				if dfs(user) {
					return true
				}
			} else if onStack[user] {
				cyclePath = []string{user}
				for curr := ident; curr != user; curr = cameFrom[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{user}, cyclePath...)
				return true
			}
		}

		onStack[ident] = false
		return false
	}

	// Deterministic starting order keeps the reported cycle stable.
	for _, ident := range g.Nodes() {
		if !visited[ident] {
			if dfs(ident) {
				return cyclePath
			}
		}
	}
	return nil
}

// Upstream returns the transitive dependency closure of ident, not
// including ident itself.
func (g *Graph) Upstream(ident string) map[string]bool {
	upstream := make(map[string]bool)

	var mark func(curr string)
	mark = func(curr string) {
		for _, dep := range g.deps[curr] {
			if !upstream[dep] {
				upstream[dep] = true
				mark(dep)
			}
		}
	}
	mark(ident)

	return upstream
}

// Downstream returns every variable transitively affected by a change
// to any of the given identifiers, the identifiers themselves included,
// in sorted order.
func (g *Graph) Downstream(idents ...string) []string {
	affected := make(map[string]bool)

	var mark func(curr string)
	mark = func(curr string) {
		if affected[curr] {
			return
		}
		affected[curr] = true
		for _, user := range g.dependents[curr] {
			mark(user)
		}
	}

	for _, ident := range idents {
		if g.nodes[ident] {
			mark(ident)
		}
	}

	result := make([]string, 0, len(affected))
	for ident := range affected {
		result = append(result, ident)
	}
	sort.Strings(result)
	return result
}

// TopoSort returns all identifiers with every variable after its
// dependencies. It fails if the graph contains a cycle.
func (g *Graph) TopoSort() ([]string, error) {
	if cycle := g.Cycle(); cycle != nil {
		return nil, fmt.Errorf("dependency cycle: %v", cycle)
	}

	visited := make(map[string]bool)
	var result []string

	var visit func(ident string)
	visit = func(ident string) {
		if visited[ident] {
			return
		}
		visited[ident] = true
		for _, dep := range g.deps[ident] {
			visit(dep)
		}
		result = append(result, ident)
	}

	for _, ident := range g.Nodes() {
		visit(ident)
	}
	return result, nil
}

// Levels groups identifiers by evaluation depth: level 0 holds
// variables with no dependencies, level N holds variables whose deepest
// dependency sits at level N-1. Each level is sorted.
func (g *Graph) Levels() ([][]string, error) {
	if cycle := g.Cycle(); cycle != nil {
		return nil, fmt.Errorf("dependency cycle: %v", cycle)
	}

	assigned := make(map[string]int)

	var levelOf func(ident string) int
	levelOf = func(ident string) int {
		if level, ok := assigned[ident]; ok {
			return level
		}
		deps := g.deps[ident]
		if len(deps) == 0 {
			assigned[ident] = 0
			return 0
		}
		deepest := 0
		for _, dep := range deps {
			if l := levelOf(dep); l > deepest {
				deepest = l
			}
		}
		assigned[ident] = deepest + 1
		return deepest + 1
	}

	maxLevel := 0
	for ident := range g.nodes {
		if l := levelOf(ident); l > maxLevel {
			maxLevel = l
		}
	}

	levels := make([][]string, maxLevel+1)
	for ident, level := range assigned {
		levels[level] = append(levels[level], ident)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Roots returns variables with no dependencies, sorted.
func (g *Graph) Roots() []string {
	var roots []string
	for ident := range g.nodes {
		if len(g.deps[ident]) == 0 {
			roots = append(roots, ident)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns variables nothing else depends on, sorted.
func (g *Graph) Leaves() []string {
	var leaves []string
	for ident := range g.nodes {
		if len(g.dependents[ident]) == 0 {
			leaves = append(leaves, ident)
		}
	}
	sort.Strings(leaves)
	return leaves
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
