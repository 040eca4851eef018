package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all models and their variables",
		Long: `List every model with its variables: kind, equation, and the
identifiers each equation depends on. Synthesized variables are
included when running with -v.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}
}

func runList(cmd *cobra.Command) error {
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

		idents := make([]string, 0, len(m.Vars))
		for ident := range m.Vars {
			idents = append(idents, ident)
		}
		sort.Strings(idents)

		fmt.Fprintf(out, "model %s (%d variables)\n", name, len(idents))

		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Variable", "Kind", "Equation", "Depends On"})

		for _, ident := range idents {
			v := m.Vars[ident]
			if v.Synthetic() && !cfg.Verbose {
				continue
			}

			eqn := v.EqnText
			if v.Kind.String() == "module" {
				eqn = v.ModelName
			}

			deps := make([]string, 0, len(v.Deps))
			for dep := range v.Deps {
				deps = append(deps, dep)
			}
			sort.Strings(deps)

			t.AppendRow(table.Row{ident, v.Kind.String(), eqn, strings.Join(deps, ", ")})
		}
		t.Render()
		fmt.Fprintln(out)
	}
	return nil
}
