// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package calc

import (
	"math"
)

// Builtin enumerates the fixed function table. All functions are pure.
// The set is closed and the evaluator matches it exhaustively; adding a
// function touches this enum, the name table, the arity table, and the
// apply switch, all in this file.
type Builtin int

const (
	// FnAbs is abs(x).
	FnAbs Builtin = iota
	// FnRound is round(x) or round(x, ndigits).
	FnRound
	// FnMin is min(a, ...), variadic with at least one argument.
	FnMin
	// FnMax is max(a, ...), variadic with at least one argument.
	FnMax
	// FnSum is sum(a, ...), variadic with at least one argument.
	FnSum
	// FnAvg is avg(a, ...), variadic with at least one argument.
	// avg() with no arguments is an ArityError, not a division by zero.
	FnAvg
	// FnGrowthRate is growth_rate(current, previous):
	// (current-previous)/previous, or 0 when previous is 0.
	FnGrowthRate
	// FnPercent is percent(value): value * 100.
	FnPercent
	// FnPercentageChange is percentage_change(current, previous):
	// ((current-previous)/previous)*100, or 0 when previous is 0.
	// Zero-base growth reports as no change by financial convention.
	FnPercentageChange
)

// builtinNames maps expression-level function names to Builtin values.
// This table is the entire set of identifiers the grammar admits.
var builtinNames = map[string]Builtin{
	"abs":               FnAbs,
	"round":             FnRound,
	"min":               FnMin,
	"max":               FnMax,
	"sum":               FnSum,
	"avg":               FnAvg,
	"growth_rate":       FnGrowthRate,
	"percent":           FnPercent,
	"percentage_change": FnPercentageChange,
}

// LookupBuiltin resolves a function name against the fixed table.
func LookupBuiltin(name string) (Builtin, bool) {
	fn, ok := builtinNames[name]
	return fn, ok
}

// BuiltinNames returns the names in the function table. Intended for
// prompt construction and diagnostics; the slice is a fresh copy.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinNames))
	for name := range builtinNames {
		names = append(names, name)
	}
	return names
}

// arity returns the declared argument count range for the function.
// max < 0 means unbounded.
func (fn Builtin) arity() (min, max int) {
	switch fn {
	case FnAbs, FnPercent:
		return 1, 1
	case FnRound:
		return 1, 2
	case FnMin, FnMax, FnSum, FnAvg:
		return 1, -1
	case FnGrowthRate, FnPercentageChange:
		return 2, 2
	default:
		return 0, -1
	}
}

// Evaluate tree-walks the AST and produces a numeric result.
//
// Literals return their value. Operator nodes dispatch on the closed
// Operator enum over the recursively evaluated operands. Call nodes
// validate the callee and the argument count against the declared arity
// before evaluating any argument, then apply the function.
//
// Failures are typed: UnknownOperatorError, UnknownFunctionError,
// ArityError, or DomainError. Evaluation is pure and side-effect free.
func Evaluate(expr Expr) (float64, error) {
	switch node := expr.(type) {
	case *NumberLit:
		return node.Value, nil

	case *UnaryExpr:
		if node.Op != OpNeg {
			return 0, &UnknownOperatorError{Op: node.Op}
		}
		operand, err := Evaluate(node.Operand)
		if err != nil {
			return 0, err
		}
		return -operand, nil

	case *BinaryExpr:
		left, err := Evaluate(node.Left)
		if err != nil {
			return 0, err
		}
		right, err := Evaluate(node.Right)
		if err != nil {
			return 0, err
		}
		return applyBinary(node.Op, left, right)

	case *CallExpr:
		if _, ok := builtinNames[node.Name]; !ok {
			return 0, &UnknownFunctionError{Name: node.Name}
		}
		min, max := node.Fn.arity()
		got := len(node.Args)
		if got < min || (max >= 0 && got > max) {
			return 0, &ArityError{Name: node.Name, Got: got, Min: min, Max: max}
		}
		args := make([]float64, got)
		for i, argExpr := range node.Args {
			arg, err := Evaluate(argExpr)
			if err != nil {
				return 0, err
			}
			args[i] = arg
		}
		return applyBuiltin(node.Fn, node.Name, args)

	default:
		return 0, &SyntaxError{Pos: 0, Msg: "unsupported AST node"}
	}
}

// applyBinary dispatches a binary operator. The switch is exhaustive
// over the Operator enum; OpNeg and out-of-range values fall through to
// UnknownOperatorError.
//
// Invariant: evaluation results are always finite. Operands here are
// finite (literals parse finite, and every intermediate passes through
// this check), so a NaN or Inf result means the operation left the
// representable domain and is reported as a DomainError instead of
// propagating.
func applyBinary(op Operator, left, right float64) (float64, error) {
	var result float64
	switch op {
	case OpAdd:
		result = left + right
	case OpSub:
		result = left - right
	case OpMul:
		result = left * right
	case OpDiv:
		if right == 0 {
			return 0, &DomainError{Op: "/", Msg: "division by zero"}
		}
		result = left / right
	case OpFloorDiv:
		if right == 0 {
			return 0, &DomainError{Op: "//", Msg: "division by zero"}
		}
		result = math.Floor(left / right)
	case OpMod:
		if right == 0 {
			return 0, &DomainError{Op: "%", Msg: "modulo by zero"}
		}
		result = floorMod(left, right)
	case OpPow:
		result = math.Pow(left, right)
	default:
		return 0, &UnknownOperatorError{Op: op}
	}

	if math.IsNaN(result) {
		return 0, &DomainError{Op: op.String(), Msg: "undefined result"}
	}
	if math.IsInf(result, 0) {
		return 0, &DomainError{Op: op.String(), Msg: "result out of range"}
	}
	return result, nil
}

// floorMod is the modulo with the sign of the divisor, so that
// -7 % 3 == 2 and 7 % -3 == -2, matching the arithmetic the stored
// metric formulas were written against. Exact for integral operands.
func floorMod(left, right float64) float64 {
	m := math.Mod(left, right)
	if m != 0 && (m < 0) != (right < 0) {
		m += right
	}
	return m
}

// applyBuiltin applies a validated function call. Arity has already
// been checked, so slices are indexed directly.
func applyBuiltin(fn Builtin, name string, args []float64) (float64, error) {
	switch fn {
	case FnAbs:
		return math.Abs(args[0]), nil

	case FnRound:
		if len(args) == 1 {
			return math.Round(args[0]), nil
		}
		shift := math.Pow(10, math.Trunc(args[1]))
		return math.Round(args[0]*shift) / shift, nil

	case FnMin:
		result := args[0]
		for _, v := range args[1:] {
			result = math.Min(result, v)
		}
		return result, nil

	case FnMax:
		result := args[0]
		for _, v := range args[1:] {
			result = math.Max(result, v)
		}
		return result, nil

	case FnSum:
		var total float64
		for _, v := range args {
			total += v
		}
		return total, nil

	case FnAvg:
		var total float64
		for _, v := range args {
			total += v
		}
		return total / float64(len(args)), nil

	case FnGrowthRate:
		current, previous := args[0], args[1]
		if previous == 0 {
			return 0, nil
		}
		return (current - previous) / previous, nil

	case FnPercent:
		return args[0] * 100, nil

	case FnPercentageChange:
		current, previous := args[0], args[1]
		if previous == 0 {
			return 0, nil
		}
		return ((current - previous) / previous) * 100, nil

	default:
		return 0, &UnknownFunctionError{Name: name}
	}
}
