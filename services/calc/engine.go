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
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("aleutian.insights.calc")

// stepConcurrency bounds parallel step evaluation within one batch.
// Steps are CPU-trivial; the bound mostly keeps log output coherent.
const stepConcurrency = 4

// CalculationStep is one unit of requested computation produced by
// upstream query analysis: an expression over metric references, a
// human-readable description, and the name the result should be
// reported under.
type CalculationStep struct {
	// Expression is the metric expression to evaluate. An empty
	// expression marks a step with nothing to calculate (the
	// decomposer's "no match" outcome) and produces no result.
	Expression string `json:"expression"`

	// Description says what the step computes, for the answer prompt.
	Description string `json:"description"`

	// ResultName is the metric name the result is reported under.
	ResultName string `json:"result_metric_name"`
}

// StepOutcome is the per-step result record. Exactly one of Err or the
// value fields is meaningful: a failed step carries Err and no
// explanation, a successful one carries Value and Explanation.
type StepOutcome struct {
	Step        CalculationStep
	Value       float64
	Explanation string
	Err         error
}

// OK reports whether the step evaluated successfully.
func (o StepOutcome) OK() bool { return o.Err == nil }

// Calculator is the metric-expression evaluation engine: it owns the
// current MetricContext and runs the resolve -> parse -> evaluate
// pipeline over expressions and calculation steps.
//
// The context is replaced wholesale per analysis cycle via
// UpdateContext and is read-only during evaluation, so one Calculator
// may evaluate steps concurrently. The pipeline itself is synchronous
// and pure per expression.
type Calculator struct {
	mu     sync.RWMutex
	ctx    *MetricContext
	strict bool
	logger *slog.Logger
}

// CalculatorOption configures a Calculator.
type CalculatorOption func(*Calculator)

// WithStrictMode makes missing metric references fail the step with a
// MetricNotFoundError instead of substituting zero.
func WithStrictMode() CalculatorOption {
	return func(c *Calculator) { c.strict = true }
}

// WithLogger overrides the calculator's logger. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) CalculatorOption {
	return func(c *Calculator) { c.logger = logger }
}

// NewCalculator creates a Calculator over the given context. A nil
// context is valid: every reference is then a missing reference and the
// configured missing-metric policy applies.
func NewCalculator(metricCtx *MetricContext, opts ...CalculatorOption) *Calculator {
	c := &Calculator{
		ctx:    metricCtx,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UpdateContext replaces the metric context wholesale. The old context
// keeps serving evaluations already in flight; new evaluations see the
// new one.
func (c *Calculator) UpdateContext(metricCtx *MetricContext) {
	c.mu.Lock()
	c.ctx = metricCtx
	c.mu.Unlock()
}

func (c *Calculator) currentContext() *MetricContext {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ctx
}

// Evaluate runs the full pipeline on one expression: reference
// resolution against the current context, parsing, and evaluation.
//
// This is also the direct entry point for ad hoc calculation requests
// (CLI eval, tests) that bypass calculation steps.
func (c *Calculator) Evaluate(ctx context.Context, expression string) (float64, error) {
	_, span := tracer.Start(ctx, "Calculator.Evaluate",
		trace.WithAttributes(attribute.String("calc.expression", expression)))
	defer span.End()

	start := time.Now()
	value, err := c.evaluate(expression)
	evaluationDuration.Observe(time.Since(start).Seconds())
	evaluationsTotal.WithLabelValues(outcomeLabel(err)).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("expression evaluation failed",
			"expression", expression,
			"error", err)
		return 0, err
	}
	span.SetAttributes(attribute.Float64("calc.result", value))
	return value, nil
}

func (c *Calculator) evaluate(expression string) (float64, error) {
	resolver := c.resolver()
	resolved, err := resolver.Resolve(expression)
	if err != nil {
		return 0, err
	}
	ast, err := Parse(resolved)
	if err != nil {
		return 0, err
	}
	return Evaluate(ast)
}

func (c *Calculator) resolver() *Resolver {
	opts := []ResolverOption{WithResolverLogger(c.logger)}
	if c.strict {
		opts = append(opts, WithStrictResolution())
	}
	return NewResolver(c.currentContext(), opts...)
}

// EvaluateSteps evaluates a batch of calculation steps and returns one
// outcome per input step, in input order.
//
// Steps are independent: they share the read-only context, run
// concurrently up to stepConcurrency, and a failure in one step never
// affects its siblings. Errors are captured in the outcome's Err field;
// EvaluateSteps itself only fails if ctx is cancelled before the batch
// completes.
func (c *Calculator) EvaluateSteps(ctx context.Context, steps []CalculationStep) ([]StepOutcome, error) {
	ctx, span := tracer.Start(ctx, "Calculator.EvaluateSteps",
		trace.WithAttributes(attribute.Int("calc.steps", len(steps))))
	defer span.End()

	stepBatchSize.Observe(float64(len(steps)))

	outcomes := make([]StepOutcome, len(steps))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(stepConcurrency)

	for i, step := range steps {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcomes[i] = c.evaluateStep(ctx, step)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return outcomes, nil
}

func (c *Calculator) evaluateStep(ctx context.Context, step CalculationStep) StepOutcome {
	outcome := StepOutcome{Step: step}
	if step.Expression == "" {
		// Decomposer "no match": nothing to calculate is not an error.
		return outcome
	}

	value, err := c.Evaluate(ctx, step.Expression)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Value = value
	outcome.Explanation = Explain(step.Expression, value)
	return outcome
}

// outcomeLabel maps an evaluation error to its metrics label.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSyntax):
		return "syntax"
	case errors.Is(err, ErrUnknownFunction):
		return "unknown_function"
	case errors.Is(err, ErrUnknownOperator):
		return "unknown_operator"
	case errors.Is(err, ErrArity):
		return "arity"
	case errors.Is(err, ErrDomain):
		return "domain"
	case errors.Is(err, ErrMetricNotFound):
		return "metric_not_found"
	default:
		return "other"
	}
}
