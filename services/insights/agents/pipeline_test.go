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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianInsights/services/calc"
)

// heuristicPipeline wires the full pipeline without any model: keyword
// analysis, fake connectors, data-only answers.
func heuristicPipeline() *InsightPipeline {
	return NewInsightPipeline(
		NewQueryAnalyzer(nil, nil),
		NewDataFetcher(testConnectors(), nil),
		NewResponseGenerator(nil, nil),
		nil,
	)
}

func TestInsightPipeline_AskWithCalculation(t *testing.T) {
	pipeline := heuristicPipeline()

	resp, err := pipeline.Ask(context.Background(),
		"How did my sessions from google analytics compared to last month?")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.RequestID)
	assert.Contains(t, resp.Analysis.Metrics, "sessions")

	require.Len(t, resp.Calculations, 1)
	c := resp.Calculations[0]
	assert.Equal(t, "percentage_change(google_analytics:sessions:current, google_analytics:sessions:previous)",
		c.Expression)
	assert.Empty(t, c.Error)
	assert.InDelta(t, 6.25, c.Value, 1e-9)
	assert.Equal(t, "6.25", c.Formatted)

	// The data-only answer carries both fetched values and the computed
	// result.
	assert.Contains(t, resp.Answer, "GOOGLE_ANALYTICS DATA:")
	assert.Contains(t, resp.Answer, "6.25")
}

func TestInsightPipeline_AskWithoutCalculation(t *testing.T) {
	pipeline := heuristicPipeline()

	resp, err := pipeline.Ask(context.Background(), "Show me my revenue for last month")
	require.NoError(t, err)

	// No decomposition rule matches, so there is nothing to calculate
	// and the answer rests on fetched data alone.
	assert.Empty(t, resp.Calculations)
	assert.Contains(t, resp.Answer, "STRIPE DATA:")
}

func TestInsightPipeline_CancelledContext(t *testing.T) {
	pipeline := heuristicPipeline()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Ask(ctx, "Show me my revenue")
	assert.Error(t, err)
}

func TestOutcomesToResults(t *testing.T) {
	outcomes := []calc.StepOutcome{
		{
			Step:        calc.CalculationStep{Expression: "1 + 1", ResultName: "two"},
			Value:       2,
			Explanation: calc.Explain("1 + 1", 2),
		},
		{
			Step: calc.CalculationStep{Description: "nothing to calculate"},
		},
		{
			Step: calc.CalculationStep{Expression: "100 / 0", ResultName: "bad"},
			Err:  &calc.DomainError{Op: "/", Msg: "division by zero"},
		},
	}

	results := OutcomesToResults(outcomes)
	require.Len(t, results, 2)

	assert.Equal(t, "two", results[0].ResultName)
	assert.Equal(t, "2.00", results[0].Formatted)
	assert.Empty(t, results[0].Error)

	assert.Equal(t, "bad", results[1].ResultName)
	assert.NotEmpty(t, results[1].Error)
}

func TestStepError(t *testing.T) {
	assert.True(t, StepError(&calc.DomainError{Op: "/", Msg: "division by zero"}))
	assert.True(t, StepError(&calc.SyntaxError{Pos: 0, Msg: "unexpected token"}))
	assert.False(t, StepError(context.Canceled))
}
