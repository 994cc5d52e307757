// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agents implements the insight pipeline stages: query
// analysis, data fetching, context building, and answer generation.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/AleutianInsights/services/insights/datatypes"
	"github.com/AleutianAI/AleutianInsights/services/llm"
)

var tracer = otel.Tracer("aleutian.insights.agents")

// analyzerPrompt instructs the model to emit a bare JSON object. The
// response is parsed leniently (first object in the text), and junk
// falls through to the keyword heuristic.
const analyzerPrompt = `You are a business analytics assistant that helps analyze business data.

Analyze the following user query and determine:
1. Which data sources are needed (google_analytics, stripe, or both)
2. What specific metrics are required (snake_case names)
3. The time period for the analysis
4. The comparison period, if the query compares against one

User Query: %s

Respond with ONLY a JSON object in this exact shape:
{"data_sources": ["google_analytics"], "metrics": ["sessions"], "time_period": "last_month", "comparison_period": ""}`

// QueryAnalyzer turns a free-form question into a structured
// QueryAnalysis. It prefers the LLM and falls back to keyword
// heuristics when the model is unavailable or returns junk.
type QueryAnalyzer struct {
	llm    llm.LLMClient
	logger *slog.Logger
}

// NewQueryAnalyzer creates an analyzer. A nil client means
// heuristic-only operation.
func NewQueryAnalyzer(client llm.LLMClient, logger *slog.Logger) *QueryAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryAnalyzer{llm: client, logger: logger}
}

// Analyze produces the structured reading of a query. It never fails:
// the heuristic path always yields a usable analysis.
func (a *QueryAnalyzer) Analyze(ctx context.Context, query string) datatypes.QueryAnalysis {
	ctx, span := tracer.Start(ctx, "QueryAnalyzer.Analyze")
	defer span.End()

	if a.llm != nil {
		analysis, err := a.analyzeWithLLM(ctx, query)
		if err == nil {
			span.SetAttributes(attribute.String("analyzer.path", "llm"))
			return analysis
		}
		a.logger.Warn("LLM query analysis failed, falling back to heuristics",
			"error", err)
	}

	span.SetAttributes(attribute.String("analyzer.path", "heuristic"))
	return heuristicAnalyze(query)
}

func (a *QueryAnalyzer) analyzeWithLLM(ctx context.Context, query string) (datatypes.QueryAnalysis, error) {
	temp := float32(0.0)
	raw, err := a.llm.Generate(ctx, fmt.Sprintf(analyzerPrompt, query),
		llm.GenerationParams{Temperature: &temp})
	if err != nil {
		return datatypes.QueryAnalysis{}, err
	}

	jsonText := extractJSONObject(raw)
	if jsonText == "" {
		return datatypes.QueryAnalysis{}, fmt.Errorf("no JSON object in LLM response")
	}

	var analysis datatypes.QueryAnalysis
	if err := json.Unmarshal([]byte(jsonText), &analysis); err != nil {
		return datatypes.QueryAnalysis{}, fmt.Errorf("failed to parse analysis JSON: %w", err)
	}
	if len(analysis.DataSources) == 0 || len(analysis.Metrics) == 0 {
		return datatypes.QueryAnalysis{}, fmt.Errorf("analysis missing data sources or metrics")
	}
	for i, source := range analysis.DataSources {
		analysis.DataSources[i] = normalizeSource(source)
	}
	if analysis.TimePeriod == "" {
		analysis.TimePeriod = "last_30_days"
	}
	return analysis, nil
}

// extractJSONObject returns the first balanced {...} block in text, to
// tolerate models that wrap JSON in prose or code fences.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// metricKeywords maps query phrases to (source, metric) pairs, in
// match order. The heuristic path depends only on this table.
var metricKeywords = []struct {
	phrase string
	source string
	metric string
}{
	{"conversion rate", "google_analytics", "conversion_rate"},
	{"conversion", "google_analytics", "conversion_rate"},
	{"page views", "google_analytics", "page_views"},
	{"pageviews", "google_analytics", "page_views"},
	{"sessions", "google_analytics", "sessions"},
	{"users", "google_analytics", "users"},
	{"visitors", "google_analytics", "users"},
	{"traffic", "google_analytics", "sessions"},
	{"average order value", "stripe", "average_order_value"},
	{"order value", "stripe", "average_order_value"},
	{"revenue", "stripe", "revenue"},
	{"sales", "stripe", "revenue"},
	{"new customers", "stripe", "new_customers"},
	{"customers", "stripe", "new_customers"},
	{"churn", "stripe", "churn_rate"},
}

// periodKeywords maps query phrases to canonical time periods, in
// match order.
var periodKeywords = []struct {
	phrase string
	period string
}{
	{"last month", "last_month"},
	{"last week", "last_week"},
	{"last 30 days", "last_30_days"},
	{"year to date", "year_to_date"},
	{"ytd", "year_to_date"},
	{"q1", "q1"},
}

// heuristicAnalyze is the LLM-free fallback: keyword scan for metrics,
// sources derived from the metrics, period keywords with a 30-day
// default.
func heuristicAnalyze(query string) datatypes.QueryAnalysis {
	lower := strings.ToLower(query)

	analysis := datatypes.QueryAnalysis{TimePeriod: "last_30_days"}

	seenMetric := make(map[string]bool)
	seenSource := make(map[string]bool)
	for _, kw := range metricKeywords {
		if !strings.Contains(lower, kw.phrase) || seenMetric[kw.metric] {
			continue
		}
		seenMetric[kw.metric] = true
		analysis.Metrics = append(analysis.Metrics, kw.metric)
		if !seenSource[kw.source] {
			seenSource[kw.source] = true
			analysis.DataSources = append(analysis.DataSources, kw.source)
		}
	}
	// A question with no recognizable metric still gets the default
	// traffic picture, so the pipeline has something to talk about.
	if len(analysis.Metrics) == 0 {
		analysis.DataSources = []string{"google_analytics"}
		analysis.Metrics = []string{"sessions", "conversion_rate"}
	}

	for _, kw := range periodKeywords {
		if strings.Contains(lower, kw.phrase) {
			analysis.TimePeriod = kw.period
			break
		}
	}

	if strings.Contains(lower, "compared to") ||
		strings.Contains(lower, " vs ") ||
		strings.Contains(lower, "previous") {
		analysis.ComparisonPeriod = "previous_period"
	}

	if strings.Contains(lower, "by product") || strings.Contains(lower, "product category") {
		analysis.Dimensions = append(analysis.Dimensions, "product_category")
	}

	return analysis
}

// normalizeSource maps LLM spellings onto canonical source names.
func normalizeSource(source string) string {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(source)), " ", "_")
	switch normalized {
	case "ga", "ga4", "analytics", "google":
		return "google_analytics"
	default:
		return normalized
	}
}
