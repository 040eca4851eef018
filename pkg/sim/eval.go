package sim

import (
	"fmt"
	"math"
)

// eval evaluates a fully resolved expression against the state array.
// Time lives in slot 0. Generated programs have no internal error
// recovery: an unresolved node here is a compiler defect, not a user
// error, so eval panics.
func eval(e Expr, curr []float64, dt float64) float64 {
	switch v := e.(type) {
	case ConstExpr:
		return v.Val
	case LoadExpr:
		return curr[v.Off]
	case TimeExpr:
		return curr[timeOff]
	case UnaryExpr:
		x := eval(v.X, curr, dt)
		switch v.Op {
		case "-":
			return -x
		case "!":
			return boolVal(x == 0)
		}
		return x
	case BinaryExpr:
		return evalBinary(v, curr, dt)
	case IfExpr:
		if eval(v.Cond, curr, dt) != 0 {
			return eval(v.Then, curr, dt)
		}
		return eval(v.Else, curr, dt)
	case CallExpr:
		return evalCall(v, curr, dt)
	case IsNanExpr:
		return boolVal(math.IsNaN(eval(v.X, curr, dt)))
	case LookupExpr:
		return Interpolate(v.X, v.Y, eval(v.Index, curr, dt))
	}
	panic(fmt.Sprintf("sim: eval of unresolved node %T", e))
}

func evalBinary(b BinaryExpr, curr []float64, dt float64) float64 {
	x := eval(b.X, curr, dt)
	y := eval(b.Y, curr, dt)
	switch b.Op {
	case "+":
		return x + y
	case "-":
		return x - y
	case "*":
		return x * y
	case "/":
		return x / y
	case "%":
		return math.Mod(x, y)
	case "=":
		return boolVal(x == y)
	case "≠":
		return boolVal(x != y)
	case "<":
		return boolVal(x < y)
	case ">":
		return boolVal(x > y)
	case "≤":
		return boolVal(x <= y)
	case "≥":
		return boolVal(x >= y)
	case "&":
		return boolVal(x != 0 && y != 0)
	case "|":
		return boolVal(x != 0 || y != 0)
	}
	panic(fmt.Sprintf("sim: unknown binary operator %q", b.Op))
}

func evalCall(c CallExpr, curr []float64, dt float64) float64 {
	arg := func(i int) float64 {
		if i < len(c.Args) {
			return eval(c.Args[i], curr, dt)
		}
		return 0
	}

	switch c.Fn {
	case "abs":
		return math.Abs(arg(0))
	case "arccos":
		return math.Acos(arg(0))
	case "arcsin":
		return math.Asin(arg(0))
	case "arctan":
		return math.Atan(arg(0))
	case "cos":
		return math.Cos(arg(0))
	case "exp":
		return math.Exp(arg(0))
	case "int":
		return math.Trunc(arg(0))
	case "ln":
		return math.Log(arg(0))
	case "log10":
		return math.Log10(arg(0))
	case "max":
		return math.Max(arg(0), arg(1))
	case "min":
		return math.Min(arg(0), arg(1))
	case "pow":
		return math.Pow(arg(0), arg(1))
	case "sin":
		return math.Sin(arg(0))
	case "sqrt":
		return math.Sqrt(arg(0))
	case "tan":
		return math.Tan(arg(0))
	case "safediv":
		denom := arg(1)
		if denom == 0 {
			return arg(2)
		}
		return arg(0) / denom
	case "pulse":
		return pulse(curr[timeOff], dt, arg(0), arg(1), arg(2))
	case "ramp":
		return ramp(curr[timeOff], arg(0), arg(1))
	}
	panic(fmt.Sprintf("sim: unknown builtin %q", c.Fn))
}

// pulse emits volume/dt for one dt-wide window at firstPulse and then
// every interval thereafter; interval <= 0 means a single pulse.
func pulse(time, dt, volume, firstPulse, interval float64) float64 {
	if time < firstPulse {
		return 0
	}
	next := firstPulse
	for time >= next {
		if time < next+dt {
			return volume / dt
		}
		if interval <= 0 {
			break
		}
		next += interval
	}
	return 0
}

// ramp rises at slope per time unit starting at start.
func ramp(time, slope, start float64) float64 {
	if time <= start {
		return 0
	}
	return slope * (time - start)
}

func boolVal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
