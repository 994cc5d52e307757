// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package connectors provides data-source connectors for the insights
// pipeline. Each connector fetches metric data for one external source
// (Google Analytics, Stripe) over a requested time period.
//
// The connectors here are mock-backed: they return realistic fixture
// payloads in the exact shape a live integration would, so the rest of
// the pipeline (context building, calculation, answer generation) is
// exercised end to end without credentials. Swapping in a live client
// only touches the connector internals, not the interface.
package connectors

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DateLayout is the wire format for period boundaries.
const DateLayout = "2006-01-02"

// FetchRequest describes one data fetch against a single source.
type FetchRequest struct {
	// Metrics to fetch (e.g. "sessions", "revenue").
	Metrics []string

	// Dimensions to segment by, when the source supports it.
	Dimensions []string

	// StartDate and EndDate bound the period, in DateLayout format.
	// Empty dates default to the last 30 days.
	StartDate string
	EndDate   string

	// Filters are source-specific key/value constraints.
	Filters map[string]string
}

// MetricData holds one metric's values for a fetched period.
type MetricData struct {
	// Fields maps field names ("current", "previous", "change") to
	// values. This is the shape the metric context is built from.
	Fields map[string]float64 `json:"fields"`

	// Dimensions optionally breaks the metric down by a dimension,
	// e.g. revenue by product category.
	Dimensions map[string]map[string]float64 `json:"dimensions,omitempty"`
}

// SourceData is the result of one connector fetch.
type SourceData struct {
	// Source is the canonical source name.
	Source string `json:"source"`

	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	// Metrics holds the successfully fetched metrics.
	Metrics map[string]MetricData `json:"metrics"`

	// Errors records metrics the source could not provide, keyed by
	// metric name. A missing metric is not a fetch failure.
	Errors map[string]string `json:"errors,omitempty"`
}

// Connector is a data-source connector. Implementations must be safe
// for concurrent FetchData calls after a successful Connect.
type Connector interface {
	// Name returns the canonical source name ("google_analytics").
	Name() string

	// Connect establishes or verifies the connection to the source.
	Connect(ctx context.Context) error

	// FetchData fetches the requested metrics for the period.
	// Metrics the source does not carry are reported in
	// SourceData.Errors, not as a fetch failure.
	FetchData(ctx context.Context, req FetchRequest) (*SourceData, error)
}

var fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "insights_connector_fetch_duration_seconds",
	Help:    "Connector fetch durations by source",
	Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
}, []string{"source"})
