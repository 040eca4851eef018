// Package commands implements the leapsim subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapsim/internal/config"
	"github.com/leapstack-labs/leapsim/internal/dag"
	"github.com/leapstack-labs/leapsim/internal/loader"
	"github.com/leapstack-labs/leapsim/internal/state"
	"github.com/leapstack-labs/leapsim/pkg/project"
)

type configKey struct{}
type loggerKey struct{}

// WithConfig stores the resolved configuration in the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the configuration from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return &config.Config{
		ModelsDir: config.DefaultModelsDir,
		StatePath: config.DefaultStateFile,
	}
}

// WithLogger stores the logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// loadProject reads the models directory and builds the project, with
// any configured simulation-spec overrides applied.
func loadProject(cfg *config.Config, logger *slog.Logger) (*project.Project, error) {
	decl, err := loader.Load(cfg.ModelsDir, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Sim.Start != nil {
		decl.Spec.Start = *cfg.Sim.Start
	}
	if cfg.Sim.Stop != nil {
		decl.Spec.Stop = *cfg.Sim.Stop
	}
	if cfg.Sim.DT != nil {
		decl.Spec.DT = *cfg.Sim.DT
		decl.Spec.DTReciprocal = false
	}
	if cfg.Sim.SaveStep != nil {
		decl.Spec.SaveStep = *cfg.Sim.SaveStep
	}

	return project.New(*decl, logger)
}

// openStore opens the run-history database, creating its directory if
// needed. The returned cleanup must be called.
func openStore(cfg *config.Config) (state.Store, func(), error) {
	if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore()
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, nil, err
	}
	if err := store.InitSchema(); err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

// buildGraph assembles the dependency graph of one model's variables.
func buildGraph(m *project.Model) (*dag.Graph, error) {
	g := dag.New()
	for ident := range m.Vars {
		g.AddNode(ident)
	}
	for ident, v := range m.Vars {
		for dep := range v.Deps {
			if _, ok := m.Vars[dep]; !ok {
				continue
			}
			if err := g.AddEdge(dep, ident); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}
