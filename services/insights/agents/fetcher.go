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
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianInsights/services/calc"
	"github.com/AleutianAI/AleutianInsights/services/connectors"
	"github.com/AleutianAI/AleutianInsights/services/insights/datatypes"
)

// fetchConcurrency bounds the connector fan-out.
const fetchConcurrency = 4

// DataFetcher fans an analyzed query out to the connectors it needs
// and assembles the combined result.
type DataFetcher struct {
	connectors map[string]connectors.Connector
	logger     *slog.Logger
}

// NewDataFetcher creates a fetcher over the given connectors, keyed by
// canonical source name.
func NewDataFetcher(conns map[string]connectors.Connector, logger *slog.Logger) *DataFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataFetcher{connectors: conns, logger: logger}
}

// Fetch pulls the metrics the analysis asks for from every required
// source. Per-source failures are recorded in the result, not
// returned: a dead connector must not take down the whole answer. The
// only error returned is context cancellation.
func (f *DataFetcher) Fetch(ctx context.Context, analysis datatypes.QueryAnalysis) (*datatypes.FetchResult, error) {
	ctx, span := tracer.Start(ctx, "DataFetcher.Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.StringSlice("fetch.sources", analysis.DataSources),
		attribute.StringSlice("fetch.metrics", analysis.Metrics),
	)

	startDate, endDate := connectors.ParsePeriod(analysis.TimePeriod, time.Now())

	filters := make(map[string]string)
	for _, filterStr := range analysis.Filters {
		if key, value, ok := strings.Cut(filterStr, ":"); ok {
			filters[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}

	result := &datatypes.FetchResult{
		StartDate: startDate,
		EndDate:   endDate,
		Sources:   make(map[string]*connectors.SourceData),
		Errors:    make(map[string]string),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for _, source := range analysis.DataSources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			conn, ok := f.connectors[source]
			if !ok {
				mu.Lock()
				result.Errors[source] = "connector not available"
				mu.Unlock()
				f.logger.Warn("no connector for requested source", "source", source)
				return nil
			}
			data, err := conn.FetchData(gctx, connectors.FetchRequest{
				Metrics:    analysis.Metrics,
				Dimensions: analysis.Dimensions,
				StartDate:  startDate,
				EndDate:    endDate,
				Filters:    filters,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors[source] = err.Error()
				f.logger.Error("connector fetch failed", "source", source, "error", err)
				return nil
			}
			result.Sources[source] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// BuildMetricContext flattens a fetch result into the metric context
// the calculation engine resolves references against. Only scalar
// fields are carried over; dimension breakdowns stay in the fetch
// result for the context builder.
func BuildMetricContext(result *datatypes.FetchResult) *calc.MetricContext {
	ctx := calc.NewMetricContext()
	if result == nil {
		return ctx
	}
	for source, data := range result.Sources {
		if data == nil {
			continue
		}
		for metric, metricData := range data.Metrics {
			for field, value := range metricData.Fields {
				ctx.Set(source, metric, field, value)
			}
		}
	}
	return ctx
}
