// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides request and response structures for the
// insights service.
package datatypes

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/AleutianInsights/pkg/validation"
	"github.com/AleutianAI/AleutianInsights/services/calc"
	"github.com/AleutianAI/AleutianInsights/services/connectors"
)

const (
	// MaxQueryBytes caps a free-form question. Queries are forwarded to
	// an LLM prompt, so unbounded input is a cost and memory problem.
	MaxQueryBytes = 4 * 1024

	// MaxExpressionBytes caps a metric expression. Real expressions are
	// a few hundred bytes at most.
	MaxExpressionBytes = 8 * 1024

	// MaxStepsPerRequest caps a calculation batch.
	MaxStepsPerRequest = 50
)

// insightsValidate is the shared validator instance for this package.
var insightsValidate = validator.New()

// QueryAnalysis is the structured reading of a user question: which
// sources to hit, which metrics to pull, and over what period.
type QueryAnalysis struct {
	DataSources      []string `json:"data_sources"`
	Metrics          []string `json:"metrics"`
	Dimensions       []string `json:"dimensions,omitempty"`
	TimePeriod       string   `json:"time_period"`
	ComparisonPeriod string   `json:"comparison_period,omitempty"`
	Filters          []string `json:"filters,omitempty"`
}

// FetchResult aggregates per-source connector payloads for one
// analyzed query.
type FetchResult struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	// Sources maps canonical source name to its fetched data.
	Sources map[string]*connectors.SourceData `json:"sources"`

	// Errors records sources that failed wholesale, keyed by source.
	Errors map[string]string `json:"errors,omitempty"`
}

// AskRequest is a free-form business question.
type AskRequest struct {
	Query string `json:"query" validate:"required,min=1"`
}

// Validate checks the request after JSON binding.
func (r *AskRequest) Validate() error {
	if len(r.Query) > MaxQueryBytes {
		return fmt.Errorf("query exceeds %d bytes", MaxQueryBytes)
	}
	return insightsValidate.Struct(r)
}

// CalculationResult is one evaluated step in an answer.
type CalculationResult struct {
	ResultName  string  `json:"result_metric_name,omitempty"`
	Description string  `json:"description,omitempty"`
	Expression  string  `json:"expression,omitempty"`
	Value       float64 `json:"value"`
	Formatted   string  `json:"formatted"`
	Explanation string  `json:"explanation,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// AskResponse is the assistant's answer plus the work behind it.
type AskResponse struct {
	RequestID         string              `json:"request_id"`
	Answer            string              `json:"answer"`
	FollowUpQuestions []string            `json:"follow_up_questions,omitempty"`
	Analysis          QueryAnalysis       `json:"analysis"`
	Calculations      []CalculationResult `json:"calculations,omitempty"`
}

// MetricValues is the wire shape of a metric context:
// source -> metric -> field -> value.
type MetricValues map[string]map[string]map[string]float64

// EvaluateRequest evaluates a single expression against a caller
// supplied metric context.
type EvaluateRequest struct {
	Expression string       `json:"expression" validate:"required,min=1"`
	Context    MetricValues `json:"context,omitempty"`
	Strict     bool         `json:"strict,omitempty"`
}

// Validate checks the request after JSON binding.
func (r *EvaluateRequest) Validate() error {
	if len(r.Expression) > MaxExpressionBytes {
		return fmt.Errorf("expression exceeds %d bytes", MaxExpressionBytes)
	}
	if err := r.Context.Validate(); err != nil {
		return err
	}
	return insightsValidate.Struct(r)
}

// EvaluateResponse carries one evaluated expression.
type EvaluateResponse struct {
	RequestID   string  `json:"request_id"`
	Expression  string  `json:"expression"`
	Value       float64 `json:"value"`
	Formatted   string  `json:"formatted"`
	Explanation string  `json:"explanation"`
}

// CalculateRequest evaluates a batch of calculation steps against a
// caller supplied metric context.
type CalculateRequest struct {
	Steps   []calc.CalculationStep `json:"steps" validate:"required,min=1"`
	Context MetricValues           `json:"context,omitempty"`
	Strict  bool                   `json:"strict,omitempty"`
}

// Validate checks the request after JSON binding.
func (r *CalculateRequest) Validate() error {
	if len(r.Steps) > MaxStepsPerRequest {
		return fmt.Errorf("request exceeds %d steps", MaxStepsPerRequest)
	}
	for i, step := range r.Steps {
		if len(step.Expression) > MaxExpressionBytes {
			return fmt.Errorf("step %d expression exceeds %d bytes", i, MaxExpressionBytes)
		}
	}
	if err := r.Context.Validate(); err != nil {
		return err
	}
	return insightsValidate.Struct(r)
}

// CalculateResponse carries one result per requested step, in order.
type CalculateResponse struct {
	RequestID string              `json:"request_id"`
	Results   []CalculationResult `json:"results"`
}

// Validate checks that every key in the supplied context is a legal
// identifier; context keys become resolver lookup segments.
func (m MetricValues) Validate() error {
	for source, metricsBySource := range m {
		if err := validation.ValidateIdentifier(source); err != nil {
			return fmt.Errorf("context source: %w", err)
		}
		for metric, fields := range metricsBySource {
			if err := validation.ValidateIdentifier(metric); err != nil {
				return fmt.Errorf("context metric under %q: %w", source, err)
			}
			for field := range fields {
				if err := validation.ValidateIdentifier(field); err != nil {
					return fmt.Errorf("context field under %q.%q: %w", source, metric, err)
				}
			}
		}
	}
	return nil
}

// ToMetricContext converts wire-shape values into a calc context.
func (m MetricValues) ToMetricContext() *calc.MetricContext {
	ctx := calc.NewMetricContext()
	for source, metricsBySource := range m {
		for metric, fields := range metricsBySource {
			for field, value := range fields {
				ctx.Set(source, metric, field, value)
			}
		}
	}
	return ctx
}
