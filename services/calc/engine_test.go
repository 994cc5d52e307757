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
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestCalculator_EndToEnd(t *testing.T) {
	calc := NewCalculator(testContext())

	got, err := calc.Evaluate(context.Background(),
		"percentage_change(GA:sessions:current, GA:sessions:previous)")
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if math.Abs(got-6.25) > 1e-9 {
		t.Errorf("Evaluate = %v, want 6.25", got)
	}
}

func TestCalculator_DivisionByZeroIsTypedError(t *testing.T) {
	calc := NewCalculator(testContext())

	_, err := calc.Evaluate(context.Background(), "100 / 0")
	if !errors.Is(err, ErrDomain) {
		t.Fatalf("error = %v, want ErrDomain", err)
	}
}

func TestCalculator_EvaluateSteps(t *testing.T) {
	calc := NewCalculator(testContext())

	steps := []CalculationStep{
		{
			Expression:  "percentage_change(GA:sessions:current, GA:sessions:previous)",
			Description: "Session change vs previous period",
			ResultName:  "sessions_change",
		},
		{
			Expression:  "100 / 0",
			Description: "A doomed step",
			ResultName:  "doomed",
		},
		{
			Expression:  "GA:conversion_rate:current * 100",
			Description: "Conversion rate as a percentage",
			ResultName:  "conversion_pct",
		},
		{
			// Decomposer "no match" steps carry no expression.
			Description: "Nothing to calculate",
			ResultName:  "nothing",
		},
	}

	outcomes, err := calc.EvaluateSteps(context.Background(), steps)
	if err != nil {
		t.Fatalf("EvaluateSteps error: %v", err)
	}
	if len(outcomes) != len(steps) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(steps))
	}

	// Step 0: success, with explanation referencing the expression.
	if !outcomes[0].OK() {
		t.Fatalf("step 0 failed: %v", outcomes[0].Err)
	}
	if math.Abs(outcomes[0].Value-6.25) > 1e-9 {
		t.Errorf("step 0 value = %v, want 6.25", outcomes[0].Value)
	}
	if !strings.Contains(outcomes[0].Explanation, outcomes[0].Step.Expression) {
		t.Errorf("explanation %q does not reference the expression", outcomes[0].Explanation)
	}

	// Step 1: a typed error record, not a crash, and it must not have
	// affected its siblings.
	if outcomes[1].OK() {
		t.Error("step 1 succeeded, want DomainError")
	}
	if !errors.Is(outcomes[1].Err, ErrDomain) {
		t.Errorf("step 1 error = %v, want ErrDomain", outcomes[1].Err)
	}
	if outcomes[1].Step.Expression != "100 / 0" {
		t.Errorf("step 1 outcome lost its expression: %q", outcomes[1].Step.Expression)
	}

	// Step 2: sibling of the failed step still evaluated.
	if !outcomes[2].OK() {
		t.Fatalf("step 2 failed: %v", outcomes[2].Err)
	}
	if math.Abs(outcomes[2].Value-3.5) > 1e-9 {
		t.Errorf("step 2 value = %v, want 3.5", outcomes[2].Value)
	}

	// Step 3: empty expression, no value, no error.
	if !outcomes[3].OK() {
		t.Errorf("step 3 error = %v, want none", outcomes[3].Err)
	}
	if outcomes[3].Explanation != "" {
		t.Errorf("step 3 explanation = %q, want empty", outcomes[3].Explanation)
	}
}

func TestCalculator_UpdateContextReplacesWholesale(t *testing.T) {
	calc := NewCalculator(testContext())

	before, err := calc.Evaluate(context.Background(), "GA:sessions:current")
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if before != 85000 {
		t.Fatalf("before = %v, want 85000", before)
	}

	fresh := NewMetricContext()
	fresh.Set("google_analytics", "sessions", "current", 90000)
	calc.UpdateContext(fresh)

	after, err := calc.Evaluate(context.Background(), "GA:sessions:current")
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if after != 90000 {
		t.Errorf("after = %v, want 90000", after)
	}

	// The old context's other metrics are gone with it.
	got, err := calc.Evaluate(context.Background(), "S:revenue:current")
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if got != 0 {
		t.Errorf("stale metric = %v, want 0 (permissive substitution)", got)
	}
}

func TestCalculator_StrictMode(t *testing.T) {
	calc := NewCalculator(testContext(), WithStrictMode())

	_, err := calc.Evaluate(context.Background(), "GA:bounce_rate:current")
	if !errors.Is(err, ErrMetricNotFound) {
		t.Errorf("error = %v, want ErrMetricNotFound", err)
	}
}

func TestCalculator_DecomposeThenEvaluate(t *testing.T) {
	calc := NewCalculator(testContext())

	d := Decompose("ratio of revenue to average order value")[0]
	if d.Expression == "" {
		t.Fatal("decomposition produced no expression")
	}
	got, err := calc.Evaluate(context.Background(), d.Expression)
	if err != nil {
		t.Fatalf("Evaluate(%q) error: %v", d.Expression, err)
	}
	want := 125000.50 / 87.33
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Evaluate = %v, want %v", got, want)
	}
}

func TestCalculator_CancelledContext(t *testing.T) {
	calc := NewCalculator(testContext())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	steps := []CalculationStep{{Expression: "1 + 1", ResultName: "x"}}
	if _, err := calc.EvaluateSteps(ctx, steps); err == nil {
		t.Error("EvaluateSteps with cancelled context succeeded, want error")
	}
}

func TestExplain(t *testing.T) {
	got := Explain("2 + 2", 4)
	want := "I calculated this by evaluating the expression: 2 + 2\nThis gave us the result: 4.00"
	if got != want {
		t.Errorf("Explain = %q, want %q", got, want)
	}
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{4, "4.00"},
		{6.25, "6.25"},
		{-20, "-20.00"},
		{0, "0.00"},
		{0.0035, "0.003500"}, // small values keep their precision
		{-0.0042, "-0.004200"},
		{0.01, "0.01"},
	}
	for _, tt := range tests {
		if got := FormatResult(tt.value); got != tt.want {
			t.Errorf("FormatResult(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
