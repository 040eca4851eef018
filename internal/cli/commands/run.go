package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsim/internal/state"
	"github.com/leapstack-labs/leapsim/pkg/project"
	"github.com/leapstack-labs/leapsim/pkg/sim"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run [model]",
		Short: "Compile and simulate a model",
		Long: `Compile the named model (default "main") and integrate it from start
to stop time, writing the saved results as CSV.`,
		Example: `  # Simulate the main model, CSV to stdout
  leapsim run

  # Simulate a specific model to a file, overriding the time step
  leapsim run predator_prey --dt 0.125 -o results.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelName := project.MainModel
			if len(args) == 1 {
				modelName = args[0]
			}
			return runSimulation(cmd, modelName)
		},
	}
}

func runSimulation(cmd *cobra.Command, modelName string) error {
	cfg := GetConfig(cmd.Context())
	logger := GetLogger(cmd.Context())

	p, err := loadProject(cfg, logger)
	if err != nil {
		return err
	}

	prog, err := sim.Compile(p, modelName, logger)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", modelName, err)
	}

	store, cleanup, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	spec := prog.Spec
	run, err := store.CreateRun(p.Name, modelName, spec.Start, spec.Stop, spec.ActualDT())
	if err != nil {
		return err
	}
	logger.Debug("run started", "id", run.ID, "model", modelName,
		"start", spec.Start, "stop", spec.Stop, "dt", spec.ActualDT())

	if err := simulate(cmd, cfg.Output, prog); err != nil {
		if completeErr := store.CompleteRun(run.ID, state.RunStatusError, err.Error()); completeErr != nil {
			logger.Warn("failed to record run failure", "id", run.ID, "error", completeErr)
		}
		return err
	}

	if err := store.CompleteRun(run.ID, state.RunStatusSuccess, ""); err != nil {
		return err
	}
	logger.Debug("run completed", "id", run.ID)
	return nil
}

func simulate(cmd *cobra.Command, outPath string, prog *sim.Program) error {
	drv := sim.NewDriver(prog)
	defer drv.Close()

	ctx := cmd.Context()
	if err := drv.RunToEnd(ctx); err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return drv.WriteCSV(ctx, out)
}
