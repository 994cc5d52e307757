// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// GoogleAnalyticsCredentials configures the Google Analytics connector.
type GoogleAnalyticsCredentials struct {
	// KeyFile is the path to a service-account key file.
	KeyFile string `yaml:"key_file"`

	// PropertyID is the GA4 property to query.
	PropertyID string `yaml:"property_id"`
}

// GoogleAnalyticsConnector fetches traffic metrics from Google
// Analytics. The current implementation serves fixture data in the
// live payload shape; Connect still validates credentials so the
// failure mode matches a real integration.
type GoogleAnalyticsConnector struct {
	creds     GoogleAnalyticsCredentials
	logger    *slog.Logger
	connected bool
}

// NewGoogleAnalyticsConnector creates the connector. Connect must be
// called before FetchData.
func NewGoogleAnalyticsConnector(creds GoogleAnalyticsCredentials, logger *slog.Logger) *GoogleAnalyticsConnector {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleAnalyticsConnector{creds: creds, logger: logger}
}

// Name implements Connector.
func (g *GoogleAnalyticsConnector) Name() string { return "google_analytics" }

// Connect implements Connector. It verifies that a credential source is
// configured and readable.
func (g *GoogleAnalyticsConnector) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.creds.KeyFile == "" {
		return fmt.Errorf("google analytics: no key file configured")
	}
	if _, err := os.Stat(g.creds.KeyFile); err != nil {
		return fmt.Errorf("google analytics: key file %s: %w", g.creds.KeyFile, err)
	}
	g.logger.Info("connected to Google Analytics",
		"property_id", g.creds.PropertyID,
		"key_file", g.creds.KeyFile)
	g.connected = true
	return nil
}

// gaFixtures is the mock metric table served by FetchData.
var gaFixtures = map[string]MetricData{
	"conversion_rate": {
		Fields: map[string]float64{"current": 0.035, "previous": 0.032, "change": 0.094},
	},
	"page_views": {
		Fields: map[string]float64{"current": 250000, "previous": 230000, "change": 0.087},
	},
	"sessions": {
		Fields: map[string]float64{"current": 85000, "previous": 80000, "change": 0.0625},
	},
	"users": {
		Fields: map[string]float64{"current": 45000, "previous": 42000, "change": 0.071},
	},
}

// FetchData implements Connector.
func (g *GoogleAnalyticsConnector) FetchData(ctx context.Context, req FetchRequest) (*SourceData, error) {
	start := time.Now()
	defer func() {
		fetchDuration.WithLabelValues(g.Name()).Observe(time.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !g.connected {
		if err := g.Connect(ctx); err != nil {
			return nil, err
		}
	}

	startDate, endDate := req.StartDate, req.EndDate
	if startDate == "" || endDate == "" {
		startDate, endDate = ParsePeriod("last_30_days", time.Now())
	}

	g.logger.Debug("fetching Google Analytics data",
		"start_date", startDate,
		"end_date", endDate,
		"metrics", req.Metrics)

	result := &SourceData{
		Source:    g.Name(),
		StartDate: startDate,
		EndDate:   endDate,
		Metrics:   make(map[string]MetricData),
		Errors:    make(map[string]string),
	}
	for _, metric := range req.Metrics {
		data, ok := gaFixtures[metric]
		if !ok {
			result.Errors[metric] = fmt.Sprintf("metric %q not available", metric)
			continue
		}
		result.Metrics[metric] = data
	}
	return result, nil
}
