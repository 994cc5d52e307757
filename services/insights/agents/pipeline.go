// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agents

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/AleutianInsights/services/calc"
	"github.com/AleutianAI/AleutianInsights/services/insights/datatypes"
)

// InsightPipeline runs the full question-answering flow: analyze the
// query, fetch the data it needs, decompose it into calculations,
// evaluate them, and generate the answer. Every number in the answer
// comes from the connectors or the calculation engine.
type InsightPipeline struct {
	analyzer  *QueryAnalyzer
	fetcher   *DataFetcher
	responder *ResponseGenerator
	logger    *slog.Logger
}

// NewInsightPipeline wires the pipeline stages together.
func NewInsightPipeline(analyzer *QueryAnalyzer, fetcher *DataFetcher,
	responder *ResponseGenerator, logger *slog.Logger) *InsightPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &InsightPipeline{
		analyzer:  analyzer,
		fetcher:   fetcher,
		responder: responder,
		logger:    logger,
	}
}

// Ask answers one free-form business question.
func (p *InsightPipeline) Ask(ctx context.Context, query string) (*datatypes.AskResponse, error) {
	ctx, span := tracer.Start(ctx, "InsightPipeline.Ask")
	defer span.End()

	requestID := uuid.NewString()
	span.SetAttributes(attribute.String("insights.request_id", requestID))
	p.logger.Info("answering query", "request_id", requestID)

	analysis := p.analyzer.Analyze(ctx, query)

	fetchResult, err := p.fetcher.Fetch(ctx, analysis)
	if err != nil {
		return nil, err
	}

	metricCtx := BuildMetricContext(fetchResult)
	calculator := calc.NewCalculator(metricCtx, calc.WithLogger(p.logger))

	// One decomposition per query: the first matching pattern wins.
	var steps []calc.CalculationStep
	for _, d := range calc.Decompose(query) {
		steps = append(steps, calc.CalculationStep{
			Expression:  d.Expression,
			Description: d.SubQuery,
			ResultName:  d.Rule,
		})
	}
	outcomes, err := calculator.EvaluateSteps(ctx, steps)
	if err != nil {
		return nil, err
	}
	calculations := OutcomesToResults(outcomes)

	promptContext := BuildPromptContext(query, analysis, fetchResult)
	answer, err := p.responder.GenerateAnswer(ctx, query, promptContext, calculations)
	if err != nil {
		return nil, err
	}
	followUps := p.responder.GenerateFollowUps(ctx, query, promptContext, answer)

	return &datatypes.AskResponse{
		RequestID:         requestID,
		Answer:            answer,
		FollowUpQuestions: followUps,
		Analysis:          analysis,
		Calculations:      calculations,
	}, nil
}

// OutcomesToResults converts engine outcomes into wire results,
// dropping no-op steps that carried no expression.
func OutcomesToResults(outcomes []calc.StepOutcome) []datatypes.CalculationResult {
	var results []datatypes.CalculationResult
	for _, o := range outcomes {
		if o.Step.Expression == "" {
			continue
		}
		result := datatypes.CalculationResult{
			ResultName:  o.Step.ResultName,
			Description: o.Step.Description,
			Expression:  o.Step.Expression,
		}
		if o.OK() {
			result.Value = o.Value
			result.Formatted = calc.FormatResult(o.Value)
			result.Explanation = o.Explanation
		} else {
			result.Error = o.Err.Error()
		}
		results = append(results, result)
	}
	return results
}

// StepError reports whether err is one of the engine's typed
// evaluation failures, which map to a client error rather than a
// server one.
func StepError(err error) bool {
	return errors.Is(err, calc.ErrSyntax) ||
		errors.Is(err, calc.ErrUnknownFunction) ||
		errors.Is(err, calc.ErrUnknownOperator) ||
		errors.Is(err, calc.ErrArity) ||
		errors.Is(err, calc.ErrDomain) ||
		errors.Is(err, calc.ErrMetricNotFound)
}
