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
	"strings"
	"time"
)

// StripeCredentials configures the Stripe connector.
type StripeCredentials struct {
	// APIKey is a Stripe secret key ("sk_...").
	APIKey string `yaml:"api_key"`
}

// StripeConnector fetches payment metrics from Stripe. Like the other
// connectors it serves fixture data in the live payload shape; Connect
// validates the key format so misconfiguration fails fast.
type StripeConnector struct {
	creds     StripeCredentials
	logger    *slog.Logger
	connected bool
}

// NewStripeConnector creates the connector. Connect must be called
// before FetchData.
func NewStripeConnector(creds StripeCredentials, logger *slog.Logger) *StripeConnector {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeConnector{creds: creds, logger: logger}
}

// Name implements Connector.
func (s *StripeConnector) Name() string { return "stripe" }

// Connect implements Connector.
func (s *StripeConnector) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.creds.APIKey == "" {
		return fmt.Errorf("stripe: no API key configured")
	}
	if !strings.HasPrefix(s.creds.APIKey, "sk_") {
		return fmt.Errorf("stripe: API key must start with sk_")
	}
	s.logger.Info("connected to Stripe")
	s.connected = true
	return nil
}

// stripeFixtures is the mock metric table served by FetchData. Revenue
// carries a product-category breakdown that is only included when the
// request asks for that dimension.
var stripeFixtures = map[string]MetricData{
	"revenue": {
		Fields: map[string]float64{"current": 125000, "previous": 115000, "change": 0.087},
		Dimensions: map[string]map[string]float64{
			"product_category": {
				"subscription": 75000,
				"one_time":     35000,
				"add_ons":      15000,
			},
		},
	},
	"average_order_value": {
		Fields: map[string]float64{"current": 85.50, "previous": 82.75, "change": 0.033},
	},
	"new_customers": {
		Fields: map[string]float64{"current": 750, "previous": 680, "change": 0.103},
	},
	"churn_rate": {
		Fields: map[string]float64{"current": 0.045, "previous": 0.05, "change": -0.1},
	},
}

// FetchData implements Connector.
func (s *StripeConnector) FetchData(ctx context.Context, req FetchRequest) (*SourceData, error) {
	start := time.Now()
	defer func() {
		fetchDuration.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.connected {
		if err := s.Connect(ctx); err != nil {
			return nil, err
		}
	}

	startDate, endDate := req.StartDate, req.EndDate
	if startDate == "" || endDate == "" {
		startDate, endDate = ParsePeriod("last_30_days", time.Now())
	}

	s.logger.Debug("fetching Stripe data",
		"start_date", startDate,
		"end_date", endDate,
		"metrics", req.Metrics,
		"dimensions", req.Dimensions)

	wantDimension := make(map[string]bool, len(req.Dimensions))
	for _, d := range req.Dimensions {
		wantDimension[d] = true
	}

	result := &SourceData{
		Source:    s.Name(),
		StartDate: startDate,
		EndDate:   endDate,
		Metrics:   make(map[string]MetricData),
		Errors:    make(map[string]string),
	}
	for _, metric := range req.Metrics {
		data, ok := stripeFixtures[metric]
		if !ok {
			result.Errors[metric] = fmt.Sprintf("metric %q not available", metric)
			continue
		}
		out := MetricData{Fields: data.Fields}
		for name, breakdown := range data.Dimensions {
			if wantDimension[name] {
				if out.Dimensions == nil {
					out.Dimensions = make(map[string]map[string]float64)
				}
				out.Dimensions[name] = breakdown
			}
		}
		result.Metrics[metric] = out
	}
	return result, nil
}
