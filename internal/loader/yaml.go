package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapsim/pkg/project"
)

// yamlDoc is the top-level shape of a YAML model file. A file either
// declares a list of models or is itself a single model document
// (top-level name + variables).
type yamlDoc struct {
	Name      string      `yaml:"name"`
	Sim       *yamlSpec   `yaml:"sim"`
	Spec      *yamlSpec   `yaml:"spec"`
	Models    []yamlModel `yaml:"models"`
	Variables []yamlVar   `yaml:"variables"`
}

type yamlModel struct {
	Name      string    `yaml:"name"`
	Spec      *yamlSpec `yaml:"spec"`
	Variables []yamlVar `yaml:"variables"`
}

type yamlSpec struct {
	Start        float64 `yaml:"start"`
	Stop         float64 `yaml:"stop"`
	DT           float64 `yaml:"dt"`
	DTReciprocal bool    `yaml:"dt_reciprocal"`
	SaveStep     float64 `yaml:"save_step"`
	Method       string  `yaml:"method"`
	TimeUnits    string  `yaml:"time_units"`
}

type yamlVar struct {
	Kind        string            `yaml:"kind"`
	Name        string            `yaml:"name"`
	Equation    string            `yaml:"equation"`
	Units       string            `yaml:"units"`
	Doc         string            `yaml:"doc"`
	Inflows     []string          `yaml:"inflows"`
	Outflows    []string          `yaml:"outflows"`
	Points      [][2]float64      `yaml:"points"`
	Model       string            `yaml:"model"`
	Connections map[string]string `yaml:"connections"`
}

func readYAML(path string) (*fragment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	frag := &fragment{path: path}
	if doc.Sim != nil {
		frag.spec = doc.Sim.decl()
	}

	if len(doc.Models) > 0 {
		for i, m := range doc.Models {
			if m.Name == "" {
				return nil, fmt.Errorf("%s: models[%d]: missing name", path, i)
			}
			decl, err := yamlModelDecl(path, m)
			if err != nil {
				return nil, err
			}
			frag.models = append(frag.models, decl)
		}
		return frag, nil
	}

	// Single-model document.
	if doc.Name == "" && len(doc.Variables) == 0 {
		return frag, nil
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("%s: missing model name", path)
	}
	decl, err := yamlModelDecl(path, yamlModel{Name: doc.Name, Spec: doc.Spec, Variables: doc.Variables})
	if err != nil {
		return nil, err
	}
	frag.models = append(frag.models, decl)
	return frag, nil
}

func yamlModelDecl(path string, m yamlModel) (project.ModelDecl, error) {
	decl := project.ModelDecl{Name: m.Name}
	if m.Spec != nil {
		decl.Spec = m.Spec.decl()
	}
	for i, v := range m.Variables {
		if v.Name == "" {
			return decl, fmt.Errorf("%s: model %q: variables[%d]: missing name", path, m.Name, i)
		}
		vd := project.VarDecl{
			Kind:        v.Kind,
			Name:        v.Name,
			Equation:    v.Equation,
			Units:       v.Units,
			Doc:         v.Doc,
			Inflows:     v.Inflows,
			Outflows:    v.Outflows,
			Model:       v.Model,
			Connections: v.Connections,
		}
		for _, p := range v.Points {
			vd.Points = append(vd.Points, project.Point{X: p[0], Y: p[1]})
		}
		decl.Variables = append(decl.Variables, vd)
	}
	return decl, nil
}

func (s *yamlSpec) decl() *project.SimSpec {
	return &project.SimSpec{
		Start:        s.Start,
		Stop:         s.Stop,
		DT:           s.DT,
		DTReciprocal: s.DTReciprocal,
		SaveStep:     s.SaveStep,
		Method:       s.Method,
		TimeUnits:    s.TimeUnits,
	}
}
