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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insights_calc_evaluations_total",
		Help: "Expression evaluations by outcome",
	}, []string{"result"}) // "ok", "syntax", "unknown_function", "arity", "domain", "metric_not_found"

	evaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "insights_calc_evaluation_duration_seconds",
		Help:    "Time spent resolving, parsing and evaluating one expression",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
	})

	decomposeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insights_calc_decompose_total",
		Help: "Query decompositions by matched rule",
	}, []string{"rule"})

	resolverMissingTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "insights_calc_resolver_missing_total",
		Help: "Metric references not found in the context",
	})

	stepBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "insights_calc_step_batch_size",
		Help:    "Calculation steps per evaluated batch",
		Buckets: []float64{1, 2, 3, 5, 8, 13},
	})
)
