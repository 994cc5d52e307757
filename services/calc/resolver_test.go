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
	"testing"
)

func testContext() *MetricContext {
	ctx := NewMetricContext()
	ctx.Set("google_analytics", "sessions", "current", 85000)
	ctx.Set("google_analytics", "sessions", "previous", 80000)
	ctx.Set("google_analytics", "conversion_rate", "current", 0.035)
	ctx.Set("stripe", "revenue", "current", 125000.50)
	ctx.Set("stripe", "average_order_value", "current", 87.33)
	return ctx
}

func TestResolver_SubstitutesStoredValues(t *testing.T) {
	r := NewResolver(testContext())

	tests := []struct {
		expr string
		want string
	}{
		{"GA:sessions:current", "85000"},
		{"google_analytics:sessions:current", "85000"},
		{"S:revenue:current", "125000.5"},
		{"GA:conversion_rate:current * 100", "0.035 * 100"},
		{
			"percentage_change(GA:sessions:current, GA:sessions:previous)",
			"percentage_change(85000, 80000)",
		},
		{"GA:sessions:current + S:revenue:current", "85000 + 125000.5"},
		{"100 + 2", "100 + 2"}, // no references, untouched
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := r.Resolve(tt.expr)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestResolver_UnknownAliasPassesThrough(t *testing.T) {
	ctx := NewMetricContext()
	ctx.Set("custom_source", "clicks", "current", 42)

	r := NewResolver(ctx)
	got, err := r.Resolve("custom_source:clicks:current")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != "42" {
		t.Errorf("Resolve = %q, want %q", got, "42")
	}
}

func TestResolver_PermissiveMissingSubstitutesZero(t *testing.T) {
	r := NewResolver(testContext())

	got, err := r.Resolve("GA:bounce_rate:current + 1")
	if err != nil {
		t.Fatalf("permissive Resolve must not fail, got: %v", err)
	}
	if got != "0.0 + 1" {
		t.Errorf("Resolve = %q, want %q", got, "0.0 + 1")
	}
}

func TestResolver_StrictMissingReturnsTypedError(t *testing.T) {
	r := NewResolver(testContext(), WithStrictResolution())

	_, err := r.Resolve("GA:bounce_rate:current")
	if !errors.Is(err, ErrMetricNotFound) {
		t.Fatalf("error = %v, want ErrMetricNotFound", err)
	}
	var mnf *MetricNotFoundError
	if !errors.As(err, &mnf) {
		t.Fatalf("error is not *MetricNotFoundError")
	}
	if mnf.Source != "google_analytics" || mnf.Metric != "bounce_rate" || mnf.Field != "current" {
		t.Errorf("missing triple = %s:%s:%s, want google_analytics:bounce_rate:current",
			mnf.Source, mnf.Metric, mnf.Field)
	}
}

// Resolution does not short-circuit: with multiple references, a
// missing one in strict mode still reports the first missing triple.
func TestResolver_StrictReportsFirstMissing(t *testing.T) {
	r := NewResolver(testContext(), WithStrictResolution())

	_, err := r.Resolve("GA:nope_a:current + GA:nope_b:current")
	var mnf *MetricNotFoundError
	if !errors.As(err, &mnf) {
		t.Fatalf("error = %v, want *MetricNotFoundError", err)
	}
	if mnf.Metric != "nope_a" {
		t.Errorf("reported metric = %q, want %q", mnf.Metric, "nope_a")
	}
}

// Resolution is single-pass: a stored value that happens to look like a
// reference is substituted as text and never re-resolved.
func TestResolver_SinglePass(t *testing.T) {
	ctx := NewMetricContext()
	ctx.Set("a", "b", "c", 7)

	r := NewResolver(ctx)
	got, err := r.Resolve("a:b:c + a:b:c")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != "7 + 7" {
		t.Errorf("Resolve = %q, want %q", got, "7 + 7")
	}
}

func TestResolver_NilContext(t *testing.T) {
	r := NewResolver(nil)
	got, err := r.Resolve("GA:sessions:current")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != "0.0" {
		t.Errorf("Resolve = %q, want %q", got, "0.0")
	}
}

func TestCanonicalSource(t *testing.T) {
	tests := []struct {
		alias string
		want  string
	}{
		{"GA", "google_analytics"},
		{"S", "stripe"},
		{"SF", "shopify"},
		{"google_analytics", "google_analytics"},
		{"snowflake", "snowflake"},
	}
	for _, tt := range tests {
		if got := CanonicalSource(tt.alias); got != tt.want {
			t.Errorf("CanonicalSource(%q) = %q, want %q", tt.alias, got, tt.want)
		}
	}
}
