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
	"fmt"
	"regexp"
	"strings"
)

// Decomposition is the outcome of heuristic query decomposition: a
// sub-question and, when one of the rules matched, a synthesized
// expression to evaluate. An empty Expression means "nothing to
// calculate" and is a normal outcome, not an error.
type Decomposition struct {
	// SubQuery is the rephrased sub-question the expression answers,
	// or the original query when no rule matched.
	SubQuery string

	// Expression is the synthesized metric expression, empty when no
	// rule matched.
	Expression string

	// Rule names the pattern that fired ("compared_to", "average_of",
	// "total_of", "ratio_of") or "none".
	Rule string
}

// calculationRule is one ordered natural-language pattern and its
// expression synthesizer.
type calculationRule struct {
	name    string
	pattern *regexp.Regexp
	build   func(groups []string, source string) (subQuery, expression string)
}

// calculationRules is the fixed, ordered rule list. Rules are tried in
// order and the first hit wins; a single query never yields more than
// one calculation. This is a best-effort heuristic over free-form text,
// not a parser, and it is kept deliberately small.
var calculationRules = []calculationRule{
	{
		name:    "compared_to",
		pattern: regexp.MustCompile(`(?i)([\w\s]+?) from ([\w\s]+?) compared to`),
		build: func(groups []string, _ string) (string, string) {
			metric := metricName(groups[1])
			source := sourceName(groups[2])
			sub := fmt.Sprintf("Get %s from %s", strings.TrimSpace(groups[1]), strings.TrimSpace(groups[2]))
			expr := fmt.Sprintf("percentage_change(%s:%s:current, %s:%s:previous)",
				source, metric, source, metric)
			return sub, expr
		},
	},
	{
		name:    "average_of",
		pattern: regexp.MustCompile(`(?i)\b(?:average|mean) of ([\w\s]+?) and ([\w\s]+)`),
		build: func(groups []string, source string) (string, string) {
			a, b := metricName(groups[1]), metricName(groups[2])
			sub := fmt.Sprintf("Get the average of %s and %s",
				strings.TrimSpace(groups[1]), strings.TrimSpace(groups[2]))
			expr := fmt.Sprintf("avg(%s:%s:current, %s:%s:current)", source, a, source, b)
			return sub, expr
		},
	},
	{
		name:    "total_of",
		pattern: regexp.MustCompile(`(?i)\b(?:total|sum) of ([\w\s]+?) and ([\w\s]+)`),
		build: func(groups []string, source string) (string, string) {
			a, b := metricName(groups[1]), metricName(groups[2])
			sub := fmt.Sprintf("Get the total of %s and %s",
				strings.TrimSpace(groups[1]), strings.TrimSpace(groups[2]))
			expr := fmt.Sprintf("sum(%s:%s:current, %s:%s:current)", source, a, source, b)
			return sub, expr
		},
	},
	{
		name:    "ratio_of",
		pattern: regexp.MustCompile(`(?i)\bratio of ([\w\s]+?) to ([\w\s]+)`),
		build: func(groups []string, source string) (string, string) {
			a, b := metricName(groups[1]), metricName(groups[2])
			sub := fmt.Sprintf("Get the ratio of %s to %s",
				strings.TrimSpace(groups[1]), strings.TrimSpace(groups[2]))
			expr := fmt.Sprintf("%s:%s:current / %s:%s:current", source, a, source, b)
			return sub, expr
		},
	},
}

// Decompose matches free-form query text against the ordered rule list
// and synthesizes an expression from the first rule that matches.
//
// The returned slice always has exactly one element. When no rule
// matches it carries the original query with an empty Expression;
// callers must treat that as "nothing to calculate". Decompose never
// fails.
func Decompose(query string) []Decomposition {
	source := inferSource(query)

	for _, rule := range calculationRules {
		groups := rule.pattern.FindStringSubmatch(query)
		if groups == nil {
			continue
		}
		sub, expr := rule.build(groups, source)
		decomposeTotal.WithLabelValues(rule.name).Inc()
		return []Decomposition{{SubQuery: sub, Expression: expr, Rule: rule.name}}
	}

	decomposeTotal.WithLabelValues("none").Inc()
	return []Decomposition{{SubQuery: query, Rule: "none"}}
}

// queryStopwords are leading filler words stripped from a captured
// metric phrase ("What was my conversion rate" -> "conversion rate").
var queryStopwords = map[string]bool{
	"what": true, "was": true, "is": true, "are": true, "were": true,
	"how": true, "did": true, "do": true, "does": true,
	"my": true, "our": true, "the": true, "a": true, "an": true,
	"show": true, "me": true, "of": true, "for": true,
}

// metricName normalizes a captured metric phrase to a snake_case metric
// identifier.
func metricName(phrase string) string {
	words := strings.Fields(strings.ToLower(phrase))
	for len(words) > 0 && queryStopwords[words[0]] {
		words = words[1:]
	}
	if len(words) == 0 {
		return ""
	}
	return strings.Join(words, "_")
}

// sourceName normalizes a captured source phrase to a canonical source
// name ("Google Analytics" -> "google_analytics").
func sourceName(phrase string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(phrase)), "_")
	return CanonicalSource(normalized)
}

// inferSource guesses the data source a query is about from keyword
// hits; google_analytics is the default when nothing matches, since it
// carries the traffic metrics most questions are about.
func inferSource(query string) string {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "stripe") ||
		strings.Contains(lower, "revenue") ||
		strings.Contains(lower, "subscription") ||
		strings.Contains(lower, "order value"):
		return "stripe"
	case strings.Contains(lower, "shopify"):
		return "shopify"
	default:
		return "google_analytics"
	}
}
