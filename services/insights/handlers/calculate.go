// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianInsights/services/calc"
	"github.com/AleutianAI/AleutianInsights/services/insights/agents"
	"github.com/AleutianAI/AleutianInsights/services/insights/datatypes"
)

// newCalculator builds a per-request engine over the caller-supplied
// context. Requests never share mutable state.
func newCalculator(values datatypes.MetricValues, strict bool, logger *slog.Logger) *calc.Calculator {
	opts := []calc.CalculatorOption{calc.WithLogger(logger)}
	if strict {
		opts = append(opts, calc.WithStrictMode())
	}
	return calc.NewCalculator(values.ToMetricContext(), opts...)
}

// HandleEvaluate evaluates a single expression against the metric
// context supplied with the request.
func HandleEvaluate() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleEvaluate")
		defer span.End()

		var req datatypes.EvaluateRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the evaluate request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		calculator := newCalculator(req.Context, req.Strict, slog.Default())
		value, err := calculator.Evaluate(ctx, req.Expression)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			status := http.StatusInternalServerError
			if agents.StepError(err) {
				status = http.StatusUnprocessableEntity
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, datatypes.EvaluateResponse{
			RequestID:   uuid.NewString(),
			Expression:  req.Expression,
			Value:       value,
			Formatted:   calc.FormatResult(value),
			Explanation: calc.Explain(req.Expression, value),
		})
	}
}

// HandleCalculate evaluates a batch of calculation steps. Step
// failures come back as per-step error records with a 200; only a
// broken request or a cancelled context fails the call.
func HandleCalculate() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleCalculate")
		defer span.End()

		var req datatypes.CalculateRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the calculate request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		calculator := newCalculator(req.Context, req.Strict, slog.Default())
		outcomes, err := calculator.EvaluateSteps(ctx, req.Steps)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Step evaluation failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// Keep one result per step, in order, including no-op steps, so
		// batch callers can index results against their request.
		results := make([]datatypes.CalculationResult, 0, len(outcomes))
		for _, o := range outcomes {
			result := datatypes.CalculationResult{
				ResultName:  o.Step.ResultName,
				Description: o.Step.Description,
				Expression:  o.Step.Expression,
			}
			if o.OK() {
				result.Value = o.Value
				if o.Step.Expression != "" {
					result.Formatted = calc.FormatResult(o.Value)
				}
				result.Explanation = o.Explanation
			} else {
				result.Error = o.Err.Error()
			}
			results = append(results, result)
		}

		c.JSON(http.StatusOK, datatypes.CalculateResponse{
			RequestID: uuid.NewString(),
			Results:   results,
		})
	}
}
