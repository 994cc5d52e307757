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
	"errors"
	"math"
	"testing"
)

func TestEvaluate_Functions(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"abs(-3.5)", 3.5},
		{"abs(3.5)", 3.5},
		{"round(3.456)", 3},
		{"round(3.456, 2)", 3.46},
		{"round(-2.5)", -2}, // math.Round rounds half away from zero
		{"min(3, 1, 2)", 1},
		{"min(5)", 5},
		{"max(3, 1, 2)", 3},
		{"sum(1, 2, 3, 4)", 10},
		{"avg(1, 2, 3)", 2},
		{"avg(2, 4)", 3},
		{"percent(0.035)", 3.5},
		{"growth_rate(110, 100)", 0.1},
		{"growth_rate(90, 100)", -0.1},
		{"percentage_change(85000, 80000)", 6.25},
		{"percentage_change(80, 100)", -20},
		{"growth_rate(5, 0)", 0},        // zero base reports no change
		{"percentage_change(5, 0)", 0},  // zero base reports no change
		{"percentage_change(0, 0)", 0},
		{"percent(growth_rate(110, 100))", 10},
		{"round(percentage_change(85000, 80000), 1)", 6.3},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evalString(t, tt.expr)
			if err != nil {
				t.Fatalf("evaluate(%q) error: %v", tt.expr, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

// avg(a,b,c) must equal (a+b+c)/3 for arbitrary finite inputs.
func TestEvaluate_AvgMatchesDefinition(t *testing.T) {
	inputs := [][3]float64{
		{1, 2, 3},
		{-10, 0, 10},
		{0.1, 0.2, 0.3},
		{85000, 80000, 90000},
	}
	for _, in := range inputs {
		ast := &CallExpr{
			Fn:   FnAvg,
			Name: "avg",
			Args: []Expr{
				&NumberLit{Value: in[0]},
				&NumberLit{Value: in[1]},
				&NumberLit{Value: in[2]},
			},
		}
		got, err := Evaluate(ast)
		if err != nil {
			t.Fatalf("avg(%v) error: %v", in, err)
		}
		want := (in[0] + in[1] + in[2]) / 3
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("avg(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestEvaluate_ArityErrors(t *testing.T) {
	tests := []string{
		"avg()",
		"sum()",
		"min()",
		"max()",
		"abs()",
		"abs(1, 2)",
		"round(1, 2, 3)",
		"percent()",
		"percent(1, 2)",
		"growth_rate(1)",
		"growth_rate(1, 2, 3)",
		"percentage_change(1)",
	}
	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, err := evalString(t, expr)
			if err == nil {
				t.Fatalf("evaluate(%q) succeeded, want ArityError", expr)
			}
			if !errors.Is(err, ErrArity) {
				t.Errorf("evaluate(%q) error = %v, want ErrArity", expr, err)
			}
		})
	}
}

// Arity is validated before arguments are evaluated, so a doomed call
// never reports an argument's failure instead.
func TestEvaluate_ArityCheckedBeforeArguments(t *testing.T) {
	_, err := evalString(t, "growth_rate(1 / 0)")
	if !errors.Is(err, ErrArity) {
		t.Errorf("error = %v, want ErrArity (not the division's DomainError)", err)
	}
}

func TestEvaluate_DomainErrors(t *testing.T) {
	tests := []string{
		"100 / 0",
		"1 // 0",
		"1 % 0",
		"5 / (3 - 3)",
		"0 ** -1",
		"(-1) ** 0.5",
	}
	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			got, err := evalString(t, expr)
			if err == nil {
				t.Fatalf("evaluate(%q) = %v, want DomainError", expr, got)
			}
			if !errors.Is(err, ErrDomain) {
				t.Errorf("evaluate(%q) error = %v, want ErrDomain", expr, err)
			}
		})
	}
}

func TestEvaluate_ResultsAreFinite(t *testing.T) {
	// No expression may evaluate to Inf or NaN; those surface as
	// DomainError instead.
	exprs := []string{"1e308 * 10 / 1e308", "2 ** 2000"}
	for _, expr := range exprs {
		got, err := evalString(t, expr)
		if err == nil && (math.IsInf(got, 0) || math.IsNaN(got)) {
			t.Errorf("evaluate(%q) = %v, want finite result or DomainError", expr, got)
		}
	}
}

func TestEvaluate_UnknownOperatorOnHandBuiltAST(t *testing.T) {
	// The parser cannot produce these, but the evaluator still guards
	// against hand-built trees with out-of-range operators.
	_, err := Evaluate(&BinaryExpr{
		Op:    Operator(99),
		Left:  &NumberLit{Value: 1},
		Right: &NumberLit{Value: 2},
	})
	if !errors.Is(err, ErrUnknownOperator) {
		t.Errorf("error = %v, want ErrUnknownOperator", err)
	}

	_, err = Evaluate(&UnaryExpr{Op: OpAdd, Operand: &NumberLit{Value: 1}})
	if !errors.Is(err, ErrUnknownOperator) {
		t.Errorf("error = %v, want ErrUnknownOperator", err)
	}
}

func TestLookupBuiltin(t *testing.T) {
	for _, name := range []string{
		"abs", "round", "min", "max", "sum", "avg",
		"growth_rate", "percent", "percentage_change",
	} {
		if _, ok := LookupBuiltin(name); !ok {
			t.Errorf("LookupBuiltin(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"exec", "eval", "open", "print", ""} {
		if _, ok := LookupBuiltin(name); ok {
			t.Errorf("LookupBuiltin(%q) = true, want false", name)
		}
	}
}
