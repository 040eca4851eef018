package project

// StdlibPrefix namespaces the standard-library models so user models
// can never shadow them accidentally; Project.Model falls back to it.
const StdlibPrefix = "stdlib·"

// stdlibDecls defines the standard-library models that template calls
// desugar into. Each exposes the formals input, delay_time and
// initial_value, and an output variable read by the call site. They are
// plain model declarations, compiled exactly like user models.
var stdlibDecls = []ModelDecl{
	{
		Name: "smth1",
		Variables: []VarDecl{
			{Kind: "aux", Name: "input", Equation: "0"},
			{Kind: "aux", Name: "delay_time", Equation: "1"},
			{Kind: "aux", Name: "initial_value", Equation: "input"},
			{Kind: "flow", Name: "flow", Equation: "(input - output) / delay_time"},
			{Kind: "stock", Name: "output", Equation: "initial_value", Inflows: []string{"flow"}},
		},
	},
	{
		Name: "smth3",
		Variables: []VarDecl{
			{Kind: "aux", Name: "input", Equation: "0"},
			{Kind: "aux", Name: "delay_time", Equation: "1"},
			{Kind: "aux", Name: "initial_value", Equation: "input"},
			{Kind: "aux", Name: "delay_time_3", Equation: "delay_time / 3"},
			{Kind: "flow", Name: "flow_1", Equation: "(input - stock_1) / delay_time_3"},
			{Kind: "stock", Name: "stock_1", Equation: "initial_value", Inflows: []string{"flow_1"}},
			{Kind: "flow", Name: "flow_2", Equation: "(stock_1 - stock_2) / delay_time_3"},
			{Kind: "stock", Name: "stock_2", Equation: "initial_value", Inflows: []string{"flow_2"}},
			{Kind: "flow", Name: "flow_3", Equation: "(stock_2 - output) / delay_time_3"},
			{Kind: "stock", Name: "output", Equation: "initial_value", Inflows: []string{"flow_3"}},
		},
	},
	{
		Name: "delay1",
		Variables: []VarDecl{
			{Kind: "aux", Name: "input", Equation: "0"},
			{Kind: "aux", Name: "delay_time", Equation: "1"},
			{Kind: "aux", Name: "initial_value", Equation: "input"},
			{Kind: "stock", Name: "accum", Equation: "initial_value * delay_time",
				Inflows: []string{"input"}, Outflows: []string{"output"}},
			{Kind: "flow", Name: "output", Equation: "accum / delay_time"},
		},
	},
	{
		Name: "delay3",
		Variables: []VarDecl{
			{Kind: "aux", Name: "input", Equation: "0"},
			{Kind: "aux", Name: "delay_time", Equation: "1"},
			{Kind: "aux", Name: "initial_value", Equation: "input"},
			{Kind: "aux", Name: "delay_time_3", Equation: "delay_time / 3"},
			{Kind: "stock", Name: "accum_1", Equation: "initial_value * delay_time_3",
				Inflows: []string{"input"}, Outflows: []string{"flow_1"}},
			{Kind: "flow", Name: "flow_1", Equation: "accum_1 / delay_time_3"},
			{Kind: "stock", Name: "accum_2", Equation: "initial_value * delay_time_3",
				Inflows: []string{"flow_1"}, Outflows: []string{"flow_2"}},
			{Kind: "flow", Name: "flow_2", Equation: "accum_2 / delay_time_3"},
			{Kind: "stock", Name: "accum_3", Equation: "initial_value * delay_time_3",
				Inflows: []string{"flow_2"}, Outflows: []string{"output"}},
			{Kind: "flow", Name: "output", Equation: "accum_3 / delay_time_3"},
		},
	},
	{
		Name: "trend",
		Variables: []VarDecl{
			{Kind: "aux", Name: "input", Equation: "0"},
			{Kind: "aux", Name: "delay_time", Equation: "1"},
			{Kind: "aux", Name: "initial_value", Equation: "0"},
			{Kind: "stock", Name: "average_input",
				Equation: "input / (1 + initial_value * delay_time)",
				Inflows:  []string{"change_in_average_input"}},
			{Kind: "flow", Name: "change_in_average_input",
				Equation: "(input - average_input) / delay_time"},
			{Kind: "aux", Name: "output",
				Equation: "safediv(input - average_input, average_input * delay_time)"},
		},
	},
}
