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
	"os"
	"path/filepath"
	"testing"
)

func gaTestConnector(t *testing.T) *GoogleAnalyticsConnector {
	t.Helper()
	keyFile := filepath.Join(t.TempDir(), "sa-key.json")
	if err := os.WriteFile(keyFile, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	return NewGoogleAnalyticsConnector(GoogleAnalyticsCredentials{
		KeyFile:    keyFile,
		PropertyID: "properties/123",
	}, nil)
}

func TestGoogleAnalytics_FetchData(t *testing.T) {
	conn := gaTestConnector(t)
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect error: %v", err)
	}

	data, err := conn.FetchData(context.Background(), FetchRequest{
		Metrics:   []string{"sessions", "conversion_rate", "bounce_rate"},
		StartDate: "2026-07-01",
		EndDate:   "2026-07-31",
	})
	if err != nil {
		t.Fatalf("FetchData error: %v", err)
	}

	if data.Source != "google_analytics" {
		t.Errorf("Source = %q, want google_analytics", data.Source)
	}
	if got := data.Metrics["sessions"].Fields["current"]; got != 85000 {
		t.Errorf("sessions current = %v, want 85000", got)
	}
	if got := data.Metrics["conversion_rate"].Fields["previous"]; got != 0.032 {
		t.Errorf("conversion_rate previous = %v, want 0.032", got)
	}
	if _, ok := data.Metrics["bounce_rate"]; ok {
		t.Error("bounce_rate present in Metrics, want it in Errors")
	}
	if _, ok := data.Errors["bounce_rate"]; !ok {
		t.Error("bounce_rate missing from Errors")
	}
	if data.StartDate != "2026-07-01" || data.EndDate != "2026-07-31" {
		t.Errorf("period = %s..%s, want requested dates", data.StartDate, data.EndDate)
	}
}

func TestGoogleAnalytics_ConnectRequiresKeyFile(t *testing.T) {
	conn := NewGoogleAnalyticsConnector(GoogleAnalyticsCredentials{}, nil)
	if err := conn.Connect(context.Background()); err == nil {
		t.Error("Connect with no key file succeeded, want error")
	}

	conn = NewGoogleAnalyticsConnector(GoogleAnalyticsCredentials{
		KeyFile: filepath.Join(t.TempDir(), "missing.json"),
	}, nil)
	if err := conn.Connect(context.Background()); err == nil {
		t.Error("Connect with missing key file succeeded, want error")
	}
}

func TestStripe_FetchData(t *testing.T) {
	conn := NewStripeConnector(StripeCredentials{APIKey: "sk_test_abc"}, nil)
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect error: %v", err)
	}

	data, err := conn.FetchData(context.Background(), FetchRequest{
		Metrics: []string{"revenue", "churn_rate"},
	})
	if err != nil {
		t.Fatalf("FetchData error: %v", err)
	}

	if got := data.Metrics["revenue"].Fields["current"]; got != 125000 {
		t.Errorf("revenue current = %v, want 125000", got)
	}
	if got := data.Metrics["churn_rate"].Fields["change"]; got != -0.1 {
		t.Errorf("churn_rate change = %v, want -0.1", got)
	}
	// No dimensions were requested, so none are returned.
	if data.Metrics["revenue"].Dimensions != nil {
		t.Error("revenue carries dimensions without a dimension request")
	}
	// Empty dates default to a 30-day window.
	if data.StartDate == "" || data.EndDate == "" {
		t.Error("default period not filled in")
	}
}

func TestStripe_RevenueByProductCategory(t *testing.T) {
	conn := NewStripeConnector(StripeCredentials{APIKey: "sk_test_abc"}, nil)

	data, err := conn.FetchData(context.Background(), FetchRequest{
		Metrics:    []string{"revenue"},
		Dimensions: []string{"product_category"},
	})
	if err != nil {
		t.Fatalf("FetchData error: %v", err)
	}

	breakdown := data.Metrics["revenue"].Dimensions["product_category"]
	if breakdown == nil {
		t.Fatal("product_category breakdown missing")
	}
	want := map[string]float64{"subscription": 75000, "one_time": 35000, "add_ons": 15000}
	for category, value := range want {
		if breakdown[category] != value {
			t.Errorf("%s = %v, want %v", category, breakdown[category], value)
		}
	}
}

func TestStripe_ConnectRejectsBadKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"wrong prefix", "pk_live_abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := NewStripeConnector(StripeCredentials{APIKey: tt.key}, nil)
			if err := conn.Connect(context.Background()); err == nil {
				t.Error("Connect succeeded, want error")
			}
		})
	}
}

func TestFetchData_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn := NewStripeConnector(StripeCredentials{APIKey: "sk_test_abc"}, nil)
	if _, err := conn.FetchData(ctx, FetchRequest{Metrics: []string{"revenue"}}); err == nil {
		t.Error("FetchData with cancelled context succeeded, want error")
	}
}
