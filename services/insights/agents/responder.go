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
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/AleutianInsights/services/insights/datatypes"
	"github.com/AleutianAI/AleutianInsights/services/llm"
)

// answerPrompt grounds the model in fetched data and engine-computed
// results. The instruction to use only given numbers is the guard
// against the model inventing figures.
const answerPrompt = `You are a business analytics assistant that helps users understand their business data.

Use the following data to answer the user's question.

%s

%s

User question: %s

Provide a helpful, concise response in a professional tone. Include key numbers and percentage changes.
Break down complex information into easily understandable points.
Highlight significant trends or insights from the data.
Use ONLY numbers that appear in the data or calculated results above; never invent figures.

If there are notable percentage changes (positive or negative), suggest possible explanations or implications.
When relevant, offer actionable recommendations based on the data.

YOUR RESPONSE (be direct and professional):`

// followUpPrompt asks for three JSON-formatted follow-up questions.
const followUpPrompt = `Based on the following user question, data context, and your response,
suggest 3 follow-up questions the user might want to ask next.

Original question: %s

Data context summary:
%s

Your response to the user:
%s

Generate 3 useful follow-up questions that would provide additional insights
or explore related aspects of the data. These should be logical next questions
that probe deeper into the current topic or explore related metrics.

Format your response as a JSON list like:
["Question 1?", "Question 2?", "Question 3?"]

FOLLOW-UP QUESTIONS:`

// ResponseGenerator produces the final prose answer and follow-up
// suggestions from the assembled context and calculation results.
type ResponseGenerator struct {
	llm    llm.LLMClient
	logger *slog.Logger
}

// NewResponseGenerator creates a generator. A nil client degrades to a
// data-only textual answer, keeping the service usable without a
// model.
func NewResponseGenerator(client llm.LLMClient, logger *slog.Logger) *ResponseGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResponseGenerator{llm: client, logger: logger}
}

// GenerateAnswer renders the answer to a question given the prompt
// context and the engine's calculation results.
func (r *ResponseGenerator) GenerateAnswer(ctx context.Context, query, promptContext string,
	calculations []datatypes.CalculationResult) (string, error) {

	ctx, span := tracer.Start(ctx, "ResponseGenerator.GenerateAnswer")
	defer span.End()

	calcBlock := formatCalculations(calculations)

	if r.llm == nil {
		// No model configured: the context plus computed results is
		// still a correct, if dry, answer.
		answer := promptContext
		if calcBlock != "" {
			answer += "\n" + calcBlock
		}
		return answer, nil
	}

	prompt := fmt.Sprintf(answerPrompt, promptContext, calcBlock, query)
	answer, err := r.llm.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// GenerateFollowUps suggests next questions. Failures degrade to no
// suggestions; they never fail the request.
func (r *ResponseGenerator) GenerateFollowUps(ctx context.Context, query, promptContext, answer string) []string {
	if r.llm == nil {
		return nil
	}
	ctx, span := tracer.Start(ctx, "ResponseGenerator.GenerateFollowUps")
	defer span.End()

	prompt := fmt.Sprintf(followUpPrompt, query, promptContext, answer)
	raw, err := r.llm.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		r.logger.Warn("follow-up generation failed", "error", err)
		return nil
	}

	jsonText := extractJSONArray(raw)
	if jsonText == "" {
		r.logger.Warn("follow-up response carried no JSON list")
		return nil
	}
	var questions []string
	if err := json.Unmarshal([]byte(jsonText), &questions); err != nil {
		r.logger.Warn("failed to parse follow-up questions", "error", err)
		return nil
	}
	if len(questions) > 3 {
		questions = questions[:3]
	}
	return questions
}

// formatCalculations renders engine results as a prompt block. Failed
// steps are shown as failed so the model does not paper over them.
func formatCalculations(calculations []datatypes.CalculationResult) string {
	if len(calculations) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("CALCULATED RESULTS:\n")
	for _, c := range calculations {
		label := c.Description
		if label == "" {
			label = c.ResultName
		}
		if label == "" {
			label = c.Expression
		}
		if c.Error != "" {
			fmt.Fprintf(&b, "- %s: calculation failed (%s)\n", label, c.Error)
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", label, c.Formatted)
	}
	return b.String()
}

// extractJSONArray returns the first balanced [...] block in text.
func extractJSONArray(text string) string {
	start := strings.Index(text, "[")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
