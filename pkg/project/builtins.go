package project

// Primitive builtin functions. These compile directly to runtime
// operations and are never treated as variable dependencies.
var builtinFuncs = map[string]bool{
	"abs":     true,
	"arccos":  true,
	"arcsin":  true,
	"arctan":  true,
	"cos":     true,
	"exp":     true,
	"inf":     true,
	"int":     true,
	"ln":      true,
	"log10":   true,
	"lookup":  true,
	"max":     true,
	"min":     true,
	"pi":      true,
	"pulse":   true,
	"ramp":    true,
	"safediv": true,
	"sin":     true,
	"sqrt":    true,
	"tan":     true,
	"time":    true,
}

// IsBuiltin reports whether name is a primitive builtin function.
func IsBuiltin(name string) bool {
	return builtinFuncs[name]
}

// Template describes a standard-library model that certain function
// calls desugar into: calling smth1(a, b, c) instantiates the stdlib
// smth1 model with its formals bound positionally.
type Template struct {
	Model   string
	Formals []string
}

// stdlibTemplates is the closed registry of desugarable calls. All
// current templates share the same formal parameter list.
var stdlibTemplates = map[string]Template{
	"smth1":  {Model: "smth1", Formals: []string{"input", "delay_time", "initial_value"}},
	"smth3":  {Model: "smth3", Formals: []string{"input", "delay_time", "initial_value"}},
	"delay1": {Model: "delay1", Formals: []string{"input", "delay_time", "initial_value"}},
	"delay3": {Model: "delay3", Formals: []string{"input", "delay_time", "initial_value"}},
	"trend":  {Model: "trend", Formals: []string{"input", "delay_time", "initial_value"}},
}

// LookupTemplate returns the stdlib template for a function name.
func LookupTemplate(name string) (Template, bool) {
	t, ok := stdlibTemplates[name]
	return t, ok
}
