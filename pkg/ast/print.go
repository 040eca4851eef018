package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Print returns the canonical equation text for an expression. The
// output re-parses to an equivalent tree; it is used when synthesizing
// auxiliary variables that carry an argument expression by value.
func Print(n Node) string {
	if n == nil {
		return ""
	}
	switch e := n.(type) {
	case *Ident:
		return e.Name
	case *Table:
		return e.Name
	case *Constant:
		return strconv.FormatFloat(e.Value, 'g', -1, 64)
	case *ParenExpr:
		return "(" + Print(e.Inner) + ")"
	case *UnaryExpr:
		return printUnaryOp(e.Op) + Print(e.Operand)
	case *BinaryExpr:
		return Print(e.Left) + " " + printBinaryOp(e.Op) + " " + Print(e.Right)
	case *IfExpr:
		return "if " + Print(e.Cond) + " then " + Print(e.Then) + " else " + Print(e.Else)
	case *CallExpr:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = Print(a)
		}
		return Print(e.Fn) + "(" + strings.Join(args, ", ") + ")"
	}
	panic(fmt.Sprintf("ast: unknown node %T", n))
}

// printUnaryOp spells internal glyphs back as source operators.
func printUnaryOp(op string) string {
	if op == "!" {
		return "not "
	}
	return op
}

// printBinaryOp spells internal glyphs back as source operators.
func printBinaryOp(op string) string {
	switch op {
	case "&":
		return "and"
	case "|":
		return "or"
	case "%":
		return "mod"
	case "≥":
		return ">="
	case "≤":
		return "<="
	case "≠":
		return "<>"
	}
	return op
}
