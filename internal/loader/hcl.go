package loader

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/leapstack-labs/leapsim/pkg/project"
)

// hclFile is the top-level shape of an HCL model file: an optional
// project-level sim block plus any number of model blocks.
type hclFile struct {
	Sim    *hclSpec   `hcl:"sim,block"`
	Models []hclModel `hcl:"model,block"`
}

type hclModel struct {
	Name      string   `hcl:"name,label"`
	Spec      *hclSpec `hcl:"spec,block"`
	Variables []hclVar `hcl:"variable,block"`
}

type hclSpec struct {
	Start        float64 `hcl:"start,optional"`
	Stop         float64 `hcl:"stop,optional"`
	DT           float64 `hcl:"dt,optional"`
	DTReciprocal bool    `hcl:"dt_reciprocal,optional"`
	SaveStep     float64 `hcl:"save_step,optional"`
	Method       string  `hcl:"method,optional"`
	TimeUnits    string  `hcl:"time_units,optional"`
}

type hclVar struct {
	Name     string   `hcl:"name,label"`
	Kind     string   `hcl:"kind,optional"`
	Equation string   `hcl:"equation,optional"`
	Units    string   `hcl:"units,optional"`
	Doc      string   `hcl:"doc,optional"`
	Inflows  []string `hcl:"inflows,optional"`
	Outflows []string `hcl:"outflows,optional"`

	// Graphical function samples as a list of [x, y] pairs.
	Points hcl.Expression `hcl:"points,optional"`

	Model       string            `hcl:"model,optional"`
	Connections map[string]string `hcl:"connections,optional"`
}

func readHCL(path string) (*fragment, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %s", path, diags.Error())
	}

	var doc hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %s", path, diags.Error())
	}

	frag := &fragment{path: path}
	if doc.Sim != nil {
		frag.spec = doc.Sim.decl()
	}

	for _, m := range doc.Models {
		decl := project.ModelDecl{Name: m.Name}
		if m.Spec != nil {
			decl.Spec = m.Spec.decl()
		}
		for _, v := range m.Variables {
			points, err := decodePoints(v.Points)
			if err != nil {
				return nil, fmt.Errorf("%s: model %q: variable %q: %w", path, m.Name, v.Name, err)
			}
			decl.Variables = append(decl.Variables, project.VarDecl{
				Kind:        v.Kind,
				Name:        v.Name,
				Equation:    v.Equation,
				Units:       v.Units,
				Doc:         v.Doc,
				Inflows:     v.Inflows,
				Outflows:    v.Outflows,
				Points:      points,
				Model:       v.Model,
				Connections: v.Connections,
			})
		}
		frag.models = append(frag.models, decl)
	}
	return frag, nil
}

// decodePoints evaluates a points attribute into samples. The attribute
// is a literal list of two-element [x, y] lists.
func decodePoints(expr hcl.Expression) ([]project.Point, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluating points: %s", diags.Error())
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.CanIterateElements() {
		return nil, fmt.Errorf("points must be a list of [x, y] pairs")
	}

	var points []project.Point
	for it := val.ElementIterator(); it.Next(); {
		_, pair := it.Element()
		if !pair.CanIterateElements() || pair.LengthInt() != 2 {
			return nil, fmt.Errorf("points[%d]: want an [x, y] pair", len(points))
		}
		var xy [2]float64
		i := 0
		for pit := pair.ElementIterator(); pit.Next(); i++ {
			_, elem := pit.Element()
			if elem.Type() != cty.Number {
				return nil, fmt.Errorf("points[%d]: want numbers", len(points))
			}
			f, _ := elem.AsBigFloat().Float64()
			xy[i] = f
		}
		points = append(points, project.Point{X: xy[0], Y: xy[1]})
	}
	return points, nil
}

func (s *hclSpec) decl() *project.SimSpec {
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
