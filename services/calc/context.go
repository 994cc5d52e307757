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

// MetricContext is the per-request hierarchical store of fetched metric
// values, indexed by source, metric name, and field
// (e.g. "google_analytics" -> "sessions" -> "current" -> 85000).
//
// A context is built once from an upstream fetch result and is read-only
// for the duration of an evaluation pass. It is never mutated
// incrementally; a new analysis cycle replaces it wholesale via
// Calculator.UpdateContext. Because all access after construction is
// read-only, one context is safely shareable across concurrently
// evaluated calculation steps.
type MetricContext struct {
	values map[string]map[string]map[string]float64
}

// NewMetricContext creates an empty metric context.
func NewMetricContext() *MetricContext {
	return &MetricContext{
		values: make(map[string]map[string]map[string]float64),
	}
}

// Set records a value for the (source, metric, field) triple.
// Set is only meant for the construction phase; callers must not mutate
// a context that is already visible to an evaluator.
func (c *MetricContext) Set(source, metric, field string, value float64) {
	metrics, ok := c.values[source]
	if !ok {
		metrics = make(map[string]map[string]float64)
		c.values[source] = metrics
	}
	fields, ok := metrics[metric]
	if !ok {
		fields = make(map[string]float64)
		metrics[metric] = fields
	}
	fields[field] = value
}

// Lookup returns the value stored for the triple. A missing key at any
// level yields (0, false); lookups never panic and never invent values.
func (c *MetricContext) Lookup(source, metric, field string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	metrics, ok := c.values[source]
	if !ok {
		return 0, false
	}
	fields, ok := metrics[metric]
	if !ok {
		return 0, false
	}
	v, ok := fields[field]
	return v, ok
}

// Sources returns the source names present in the context.
// Intended for logging and diagnostics.
func (c *MetricContext) Sources() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.values))
	for s := range c.values {
		out = append(out, s)
	}
	return out
}

// Len returns the number of (source, metric, field) triples stored.
func (c *MetricContext) Len() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, metrics := range c.values {
		for _, fields := range metrics {
			n += len(fields)
		}
	}
	return n
}
