package project

// Declarations are the plain-old-data input to the compiler core. They
// are produced by the interchange readers in internal/loader; the core
// never touches the on-disk representation.

// SimSpec controls the numerical integration of a simulation run.
type SimSpec struct {
	Start        float64
	Stop         float64
	DT           float64
	DTReciprocal bool // DT is stored as 1/dt
	SaveStep     float64
	Method       string
	TimeUnits    string
}

// ActualDT returns the effective integration step.
func (s SimSpec) ActualDT() float64 {
	if s.DTReciprocal && s.DT != 0 {
		return 1 / s.DT
	}
	return s.DT
}

// ActualSaveStep returns the effective save interval, defaulting to the
// integration step.
func (s SimSpec) ActualSaveStep() float64 {
	if s.SaveStep > 0 {
		return s.SaveStep
	}
	return s.ActualDT()
}

// Point is one sample of a graphical function.
type Point struct {
	X float64
	Y float64
}

// VarDecl declares a single model variable. For a "reference" the
// Equation field holds the source identifier path, not an expression.
type VarDecl struct {
	Kind     string // "aux", "flow", "stock", "table", "module", "reference"
	Name     string
	Equation string
	Units    string
	Doc      string

	// Stock
	Inflows  []string
	Outflows []string

	// Table
	Points []Point

	// Module
	Model       string
	Connections map[string]string // local input name -> source identifier
}

// ModelDecl declares a model: a named set of variables plus an optional
// simulation-spec override.
type ModelDecl struct {
	Name      string
	Spec      *SimSpec
	Variables []VarDecl
}

// Decl is a whole project as read from disk.
type Decl struct {
	Name   string
	Spec   SimSpec
	Models []ModelDecl
}
