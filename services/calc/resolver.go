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
	"log/slog"
	"regexp"
	"strconv"
)

// referencePattern matches a textual metric reference ALIAS:METRIC:FIELD.
// Identifiers start with a letter or underscore and continue with
// alphanumerics or underscores, so numeric literals around a reference
// are never swallowed into it.
var referencePattern = regexp.MustCompile(
	`([A-Za-z_][A-Za-z0-9_]*):([A-Za-z_][A-Za-z0-9_]*):([A-Za-z_][A-Za-z0-9_]*)`)

// sourceAliases maps short source aliases to canonical source names.
// Unknown aliases pass through unchanged as literal source names.
var sourceAliases = map[string]string{
	"GA": "google_analytics",
	"S":  "stripe",
	"SF": "shopify",
}

// CanonicalSource maps a source alias to its canonical name. Names that
// are not aliases are returned unchanged.
func CanonicalSource(alias string) string {
	if full, ok := sourceAliases[alias]; ok {
		return full
	}
	return alias
}

// Resolver rewrites metric references in expression text into numeric
// literals looked up in a MetricContext.
//
// Resolution is single-pass and non-recursive: substituted literals are
// never re-scanned, so a stored value can never smuggle a further
// reference (or anything else) into the expression. Multiple references
// are resolved independently left to right.
//
// Missing references follow one of two policies:
//
//   - permissive (default): substitute 0.0 and log a warning. Resolve
//     never fails in this mode.
//   - strict: Resolve returns a MetricNotFoundError naming the missing
//     (source, metric, field) triple. The first missing reference wins.
type Resolver struct {
	ctx    *MetricContext
	strict bool
	logger *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithStrictResolution makes missing references a MetricNotFoundError
// instead of a zero substitution.
func WithStrictResolution() ResolverOption {
	return func(r *Resolver) { r.strict = true }
}

// WithResolverLogger overrides the logger used for missing-reference
// warnings. Defaults to slog.Default().
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver creates a Resolver over the given context.
func NewResolver(ctx *MetricContext, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		ctx:    ctx,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve replaces every ALIAS:METRIC:FIELD reference in the expression
// with the decimal representation of the value stored in the context.
//
// The returned string contains only numeric literals where references
// used to be; it is the input for Parse. In permissive mode the error is
// always nil. In strict mode the original expression is returned
// alongside the error so callers can attach it to the failing step.
func (r *Resolver) Resolve(expression string) (string, error) {
	var missing *MetricNotFoundError

	resolved := referencePattern.ReplaceAllStringFunc(expression, func(match string) string {
		groups := referencePattern.FindStringSubmatch(match)
		source := CanonicalSource(groups[1])
		metric, field := groups[2], groups[3]

		value, ok := r.ctx.Lookup(source, metric, field)
		if !ok {
			resolverMissingTotal.Inc()
			if r.strict && missing == nil {
				missing = &MetricNotFoundError{Source: source, Metric: metric, Field: field}
			}
			r.logger.Warn("metric reference not found in context",
				"source", source,
				"metric", metric,
				"field", field,
				"strict", r.strict)
			return "0.0"
		}
		return formatValue(value)
	})

	if missing != nil {
		return expression, missing
	}
	return resolved, nil
}

// formatValue renders a looked-up value as an expression literal.
// The shortest round-trippable decimal form keeps resolved expressions
// readable in logs and explanations.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
