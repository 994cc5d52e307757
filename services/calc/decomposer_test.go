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
	"testing"
)

func TestDecompose_Patterns(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantRule string
		wantExpr string
	}{
		{
			name:     "compared to",
			query:    "How did my sessions from google analytics compared to last month?",
			wantRule: "compared_to",
			wantExpr: "percentage_change(google_analytics:sessions:current, google_analytics:sessions:previous)",
		},
		{
			name:     "average of",
			query:    "What is the average of sessions and users?",
			wantRule: "average_of",
			wantExpr: "avg(google_analytics:sessions:current, google_analytics:users:current)",
		},
		{
			name:     "mean of",
			query:    "Show me the mean of page views and sessions",
			wantRule: "average_of",
			wantExpr: "avg(google_analytics:page_views:current, google_analytics:sessions:current)",
		},
		{
			name:     "total of",
			query:    "What's the total of revenue and subscriptions?",
			wantRule: "total_of",
			wantExpr: "sum(stripe:revenue:current, stripe:subscriptions:current)",
		},
		{
			name:     "ratio of",
			query:    "ratio of revenue to average order value",
			wantRule: "ratio_of",
			wantExpr: "stripe:revenue:current / stripe:average_order_value:current",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decompose(tt.query)
			if len(got) != 1 {
				t.Fatalf("Decompose returned %d decompositions, want 1", len(got))
			}
			d := got[0]
			if d.Rule != tt.wantRule {
				t.Errorf("Rule = %q, want %q", d.Rule, tt.wantRule)
			}
			if d.Expression != tt.wantExpr {
				t.Errorf("Expression = %q, want %q", d.Expression, tt.wantExpr)
			}
			if d.SubQuery == "" {
				t.Error("SubQuery is empty")
			}
		})
	}
}

// Synthesized expressions must round-trip through the parser: the
// decomposer may only emit text the grammar accepts (after resolution).
func TestDecompose_ExpressionsParse(t *testing.T) {
	queries := []string{
		"sessions from google analytics compared to last month",
		"average of sessions and users",
		"total of revenue and subscriptions",
		"ratio of revenue to average order value",
	}
	for _, query := range queries {
		d := Decompose(query)[0]
		if d.Expression == "" {
			t.Fatalf("Decompose(%q) produced no expression", query)
		}
		resolved, err := NewResolver(NewMetricContext()).Resolve(d.Expression)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", d.Expression, err)
		}
		if _, err := Parse(resolved); err != nil {
			t.Errorf("Parse(Resolve(%q)) error: %v", d.Expression, err)
		}
	}
}

func TestDecompose_NoMatchIsNotAnError(t *testing.T) {
	got := Decompose("Tell me about my business")
	if len(got) != 1 {
		t.Fatalf("Decompose returned %d decompositions, want 1", len(got))
	}
	d := got[0]
	if d.Expression != "" {
		t.Errorf("Expression = %q, want empty (no decomposition possible)", d.Expression)
	}
	if d.SubQuery != "Tell me about my business" {
		t.Errorf("SubQuery = %q, want original query", d.SubQuery)
	}
	if d.Rule != "none" {
		t.Errorf("Rule = %q, want %q", d.Rule, "none")
	}
}

// Only the first matching rule contributes output, even when several
// rules would match.
func TestDecompose_FirstRuleWins(t *testing.T) {
	query := "sessions from google analytics compared to the average of users and sessions"
	got := Decompose(query)
	if len(got) != 1 {
		t.Fatalf("Decompose returned %d decompositions, want 1", len(got))
	}
	if got[0].Rule != "compared_to" {
		t.Errorf("Rule = %q, want %q (first in priority order)", got[0].Rule, "compared_to")
	}
}

func TestMetricName(t *testing.T) {
	tests := []struct {
		phrase string
		want   string
	}{
		{"conversion rate", "conversion_rate"},
		{"What was my conversion rate", "conversion_rate"},
		{"  Page Views ", "page_views"},
		{"the average order value", "average_order_value"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := metricName(tt.phrase); got != tt.want {
			t.Errorf("metricName(%q) = %q, want %q", tt.phrase, got, tt.want)
		}
	}
}
