package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// NewDAGCommand creates the dag command.
func NewDAGCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dag [variable]",
		Short: "Show the variable dependency graph",
		Long: `Display each model's variable dependency graph grouped by evaluation
level: level 0 holds variables with no dependencies, each later level
holds variables depending only on earlier levels. With a variable
argument, show that variable's direct dependencies, its direct users,
and everything downstream of it instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runDAGVariable(cmd, args[0])
			}
			return runDAG(cmd)
		},
	}
}

func runDAG(cmd *cobra.Command) error {
	cfg := GetConfig(cmd.Context())
	logger := GetLogger(cmd.Context())
	out := cmd.OutOrStdout()

	p, err := loadProject(cfg, logger)
	if err != nil {
		return err
	}

	names := p.ModelNames()
	sort.Strings(names)

	for _, name := range names {
		m, _ := p.Model(name)
		g, err := buildGraph(m)
		if err != nil {
			return fmt.Errorf("model %s: %w", name, err)
		}

		fmt.Fprintf(out, "model %s: %d variables, %d dependencies\n",
			name, g.NodeCount(), g.EdgeCount())

		if cycle := g.Cycle(); cycle != nil {
			fmt.Fprintf(out, "  cycle: %s\n\n", strings.Join(cycle, " -> "))
			continue
		}

		levels, err := g.Levels()
		if err != nil {
			return fmt.Errorf("model %s: %w", name, err)
		}
		for i, level := range levels {
			fmt.Fprintf(out, "  level %d: %s\n", i, strings.Join(level, ", "))
		}
		fmt.Fprintf(out, "  roots: %s\n", joinIdents(g.Roots()))
		fmt.Fprintf(out, "  leaves: %s\n", joinIdents(g.Leaves()))
		fmt.Fprintln(out)
	}
	return nil
}

// runDAGVariable prints one variable's neighborhood in every model that
// declares it.
func runDAGVariable(cmd *cobra.Command, ident string) error {
	cfg := GetConfig(cmd.Context())
	logger := GetLogger(cmd.Context())
	out := cmd.OutOrStdout()

	p, err := loadProject(cfg, logger)
	if err != nil {
		return err
	}

	names := p.ModelNames()
	sort.Strings(names)

	found := false
	for _, name := range names {
		m, _ := p.Model(name)
		if _, ok := m.Var(ident); !ok {
			continue
		}
		found = true

		g, err := buildGraph(m)
		if err != nil {
			return fmt.Errorf("model %s: %w", name, err)
		}

		fmt.Fprintf(out, "model %s: variable %s\n", name, ident)
		fmt.Fprintf(out, "  depends on: %s\n", joinIdents(g.Deps(ident)))
		fmt.Fprintf(out, "  used by: %s\n", joinIdents(g.Dependents(ident)))
		fmt.Fprintf(out, "  downstream: %s\n", joinIdents(g.Downstream(ident)))
		fmt.Fprintln(out)
	}
	if !found {
		return fmt.Errorf("unknown variable %q", ident)
	}
	return nil
}

// joinIdents renders an identifier list sorted, without mutating the
// graph's backing slices.
func joinIdents(idents []string) string {
	if len(idents) == 0 {
		return "(none)"
	}
	sorted := append([]string(nil), idents...)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}
