package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsim/pkg/sim"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate all models without simulating",
		Long: `Parse every model file, report equation errors, and compile each
model to surface dependency cycles and unresolved references. Exits
nonzero when any model fails.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd)
		},
	}
}

func runCheck(cmd *cobra.Command) error {
	cfg := GetConfig(cmd.Context())
	logger := GetLogger(cmd.Context())
	out := cmd.OutOrStdout()

	p, err := loadProject(cfg, logger)
	if err != nil {
		return err
	}

	names := p.ModelNames()
	sort.Strings(names)

	failed := 0
	for _, name := range names {
		m, _ := p.Model(name)

		varErrs := m.VarErrors()
		if len(varErrs) > 0 {
			failed++
			idents := make([]string, 0, len(varErrs))
			for ident := range varErrs {
				idents = append(idents, ident)
			}
			sort.Strings(idents)
			for _, ident := range idents {
				for _, e := range varErrs[ident] {
					fmt.Fprintf(out, "%s: %s: %v\n", name, ident, e)
				}
			}
			continue
		}

		if _, err := sim.Compile(p, name, logger); err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(out, "%s: ok (%d variables)\n", name, len(m.Vars))

		g, err := buildGraph(m)
		if err != nil {
			return fmt.Errorf("model %s: %w", name, err)
		}
		order, err := g.TopoSort()
		if err != nil {
			return fmt.Errorf("model %s: %w", name, err)
		}
		fmt.Fprintf(out, "  order: %s\n", strings.Join(order, " -> "))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d models failed validation", failed, len(names))
	}
	return nil
}
