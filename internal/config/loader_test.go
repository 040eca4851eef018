package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsim/internal/config"
)

// newFlags mirrors the flag set the CLI registers.
func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("models-dir", config.DefaultModelsDir, "")
	fs.String("state", config.DefaultStateFile, "")
	fs.StringP("out", "o", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.Float64("start", 0, "")
	fs.Float64("stop", 0, "")
	fs.Float64("dt", 0, "")
	fs.Float64("save-step", 0, "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultModelsDir, cfg.ModelsDir)
	assert.Equal(t, config.DefaultStateFile, cfg.StatePath)
	assert.Empty(t, cfg.Output)
	assert.False(t, cfg.Verbose)
	assert.Nil(t, cfg.Sim.DT)
	assert.Empty(t, config.FileUsed())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leapsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
models_dir: custom-models
output: results.csv
verbose: true
sim:
  dt: 0.25
  stop: 50
`), 0o644))

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "custom-models", cfg.ModelsDir)
	assert.Equal(t, "results.csv", cfg.Output)
	assert.True(t, cfg.Verbose)
	require.NotNil(t, cfg.Sim.DT)
	assert.Equal(t, 0.25, *cfg.Sim.DT)
	require.NotNil(t, cfg.Sim.Stop)
	assert.Equal(t, 50.0, *cfg.Sim.Stop)
	assert.Nil(t, cfg.Sim.Start)
	assert.Equal(t, path, config.FileUsed())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leapsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models_dir: from-file\n"), 0o644))

	t.Setenv("LEAPSIM_MODELS_DIR", "from-env")
	t.Setenv("LEAPSIM_SIM__DT", "0.5")

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.ModelsDir)
	require.NotNil(t, cfg.Sim.DT)
	assert.Equal(t, 0.5, *cfg.Sim.DT)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("LEAPSIM_MODELS_DIR", "from-env")
	t.Setenv("LEAPSIM_SIM__DT", "0.5")

	fs := newFlags()
	require.NoError(t, fs.Set("models-dir", "from-flag"))
	require.NoError(t, fs.Set("dt", "0.125"))
	require.NoError(t, fs.Set("out", "flag.csv"))
	require.NoError(t, fs.Set("save-step", "1"))

	cfg, err := config.Load("", fs)
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.ModelsDir)
	assert.Equal(t, "flag.csv", cfg.Output)
	require.NotNil(t, cfg.Sim.DT)
	assert.Equal(t, 0.125, *cfg.Sim.DT)
	require.NotNil(t, cfg.Sim.SaveStep)
	assert.Equal(t, 1.0, *cfg.Sim.SaveStep)
}

func TestLoadUnchangedFlagsIgnored(t *testing.T) {
	t.Setenv("LEAPSIM_MODELS_DIR", "from-env")

	cfg, err := config.Load("", newFlags())
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ModelsDir, "default flag values do not mask lower layers")
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		cfg     config.Config
		wantMsg string
	}{
		{"ok", config.Config{ModelsDir: "models"}, ""},
		{"empty models dir", config.Config{}, "models_dir must not be empty"},
		{"zero dt", config.Config{ModelsDir: "m", Sim: config.SimOverrides{DT: f(0)}}, "sim.dt must be positive"},
		{"negative save step", config.Config{ModelsDir: "m", Sim: config.SimOverrides{SaveStep: f(-1)}}, "sim.save_step must be positive"},
		{"stop before start", config.Config{ModelsDir: "m", Sim: config.SimOverrides{Start: f(10), Stop: f(5)}}, "must not precede"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
