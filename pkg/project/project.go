// Package project holds the variable/model/project data model the
// compiler operates on, including the builtin-desugar pass and the
// standard-library models.
package project

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapsim/pkg/parser"
)

// MainModel is the name of the root model of a simulation.
const MainModel = "main"

// Project aggregates a set of models plus the standard library and the
// base simulation spec.
type Project struct {
	Name   string
	Spec   SimSpec
	models map[string]*Model

	logger *slog.Logger
}

// New builds a project from its declaration. The standard-library
// models are always present under the stdlib namespace. Integration
// methods other than euler are substituted with euler and logged as a
// warning; this mirrors long-standing interchange-format behavior.
func New(decl Decl, logger *slog.Logger) (*Project, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &Project{
		Name:   decl.Name,
		Spec:   normalizeSpec(decl.Spec, logger),
		models: make(map[string]*Model),
		logger: logger,
	}

	for _, md := range stdlibDecls {
		m, err := newModel(md, logger)
		if err != nil {
			return nil, fmt.Errorf("stdlib: %w", err)
		}
		p.models[StdlibPrefix+m.Name] = m
	}

	for _, md := range decl.Models {
		m, err := newModel(md, logger)
		if err != nil {
			return nil, err
		}
		name := parser.Canon(md.Name)
		if _, exists := p.models[name]; exists {
			return nil, fmt.Errorf("duplicate model %q", name)
		}
		if m.Spec != nil {
			spec := normalizeSpec(*m.Spec, logger)
			m.Spec = &spec
		}
		p.models[name] = m
	}

	return p, nil
}

// Model resolves a model name, trying user models first and the
// standard library second.
func (p *Project) Model(name string) (*Model, bool) {
	name = parser.Canon(name)
	if m, ok := p.models[name]; ok {
		return m, true
	}
	m, ok := p.models[StdlibPrefix+name]
	return m, ok
}

// ModelNames returns the names of all non-stdlib models.
func (p *Project) ModelNames() []string {
	var names []string
	for name := range p.models {
		if !strings.HasPrefix(name, StdlibPrefix) {
			names = append(names, name)
		}
	}
	return names
}

// SpecFor returns the effective simulation spec for a model: its own
// override when present, the project base spec otherwise.
func (p *Project) SpecFor(m *Model) SimSpec {
	if m.Spec != nil {
		return *m.Spec
	}
	return p.Spec
}

// normalizeSpec applies defaults and the euler substitution.
func normalizeSpec(spec SimSpec, logger *slog.Logger) SimSpec {
	if spec.Method == "" {
		spec.Method = "euler"
	}
	if method := strings.ToLower(spec.Method); method != "euler" {
		logger.Warn("unsupported integration method, substituting euler",
			slog.String("method", spec.Method))
		spec.Method = "euler"
	}
	if spec.DT == 0 {
		spec.DT = 1
	}
	return spec
}
