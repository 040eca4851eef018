// Package config loads leapsim configuration from file, environment,
// and command-line flags.
package config

import "fmt"

// Defaults for unconfigured installs.
const (
	DefaultModelsDir = "models"
	DefaultStateFile = ".leapsim/state.db"
)

// SimOverrides are optional overrides of the project's simulation spec.
// Nil fields leave the project value alone.
type SimOverrides struct {
	Start    *float64 `koanf:"start"`
	Stop     *float64 `koanf:"stop"`
	DT       *float64 `koanf:"dt"`
	SaveStep *float64 `koanf:"save_step"`
}

// Config is the resolved leapsim configuration.
type Config struct {
	// ModelsDir is the directory scanned for model files.
	ModelsDir string `koanf:"models_dir"`
	// StatePath is the run-history database location.
	StatePath string `koanf:"state_path"`
	// Output is the CSV destination; empty means stdout.
	Output string `koanf:"output"`
	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`

	Sim SimOverrides `koanf:"sim"`
}

// Validate checks the resolved configuration for plainly bad values.
func (c *Config) Validate() error {
	if c.ModelsDir == "" {
		return fmt.Errorf("models_dir must not be empty")
	}
	if c.Sim.DT != nil && *c.Sim.DT <= 0 {
		return fmt.Errorf("sim.dt must be positive, got %v", *c.Sim.DT)
	}
	if c.Sim.SaveStep != nil && *c.Sim.SaveStep <= 0 {
		return fmt.Errorf("sim.save_step must be positive, got %v", *c.Sim.SaveStep)
	}
	if c.Sim.Start != nil && c.Sim.Stop != nil && *c.Sim.Stop < *c.Sim.Start {
		return fmt.Errorf("sim.stop (%v) must not precede sim.start (%v)", *c.Sim.Stop, *c.Sim.Start)
	}
	return nil
}
