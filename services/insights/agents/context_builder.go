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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianInsights/services/connectors"
	"github.com/AleutianAI/AleutianInsights/services/insights/datatypes"
)

// currencyMetrics render with a dollar sign; everything in cents-land
// at Stripe comes back pre-converted.
var currencyMetrics = map[string]bool{
	"revenue":             true,
	"average_order_value": true,
}

// BuildPromptContext renders the fetched data into the grounding block
// of the answer prompt. Rates render as percentages, money as
// currency, everything else as plain counts. The model sees only text
// produced here and by the calculation engine.
func BuildPromptContext(query string, analysis datatypes.QueryAnalysis, result *datatypes.FetchResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "USER QUERY: %s\n", query)
	b.WriteString("\nQUERY METADATA:\n")
	fmt.Fprintf(&b, "- Time period: %s\n", analysis.TimePeriod)
	if analysis.ComparisonPeriod != "" {
		fmt.Fprintf(&b, "- Comparison period: %s\n", analysis.ComparisonPeriod)
	}
	if result != nil && result.StartDate != "" && result.EndDate != "" {
		fmt.Fprintf(&b, "- Date range: %s to %s\n",
			displayDate(result.StartDate), displayDate(result.EndDate))
	}

	b.WriteString("\nDATASOURCE RESULTS:\n")
	if result == nil {
		b.WriteString("(no data fetched)\n")
		return b.String()
	}

	for _, source := range sortedKeys(result.Sources) {
		data := result.Sources[source]
		fmt.Fprintf(&b, "\n%s DATA:\n", strings.ToUpper(source))
		for _, metric := range sortedKeys(data.Metrics) {
			writeMetric(&b, metric, data.Metrics[metric])
		}
		for _, metric := range sortedKeys(data.Errors) {
			fmt.Fprintf(&b, "- %s: Error - %s\n", metric, data.Errors[metric])
		}
	}
	for _, source := range sortedKeys(result.Errors) {
		fmt.Fprintf(&b, "\n%s ERROR: %s\n", strings.ToUpper(source), result.Errors[source])
	}

	return b.String()
}

func writeMetric(b *strings.Builder, metric string, data connectors.MetricData) {
	fmt.Fprintf(b, "- %s:\n", titleCase(metric))

	if current, ok := data.Fields["current"]; ok {
		fmt.Fprintf(b, "  * Current value: %s\n", formatMetricValue(metric, current))
	}
	if previous, ok := data.Fields["previous"]; ok {
		fmt.Fprintf(b, "  * Previous value: %s\n", formatMetricValue(metric, previous))
	}
	if change, ok := data.Fields["change"]; ok {
		direction := "increase"
		if change < 0 {
			direction = "decrease"
		}
		fmt.Fprintf(b, "  * Change: %.2f%% %s\n", abs(change)*100, direction)
	}

	for _, dim := range sortedKeys(data.Dimensions) {
		fmt.Fprintf(b, "  * By %s:\n", strings.ReplaceAll(dim, "_", " "))
		breakdown := data.Dimensions[dim]
		for _, category := range sortedKeys(breakdown) {
			fmt.Fprintf(b, "    - %s: %s\n",
				titleCase(category), formatMetricValue(metric, breakdown[category]))
		}
	}
}

// formatMetricValue picks a display format from the metric name:
// percentage for rates in [0,1], currency for money metrics, count
// otherwise.
func formatMetricValue(metric string, value float64) string {
	switch {
	case value >= 0 && value <= 1 &&
		(strings.HasSuffix(metric, "rate") || strings.HasSuffix(metric, "percentage")):
		return fmt.Sprintf("%.2f%%", value*100)
	case currencyMetrics[metric]:
		return fmt.Sprintf("$%s", groupThousands(value, 2))
	default:
		return groupThousands(value, 0)
	}
}

// groupThousands formats value with comma-grouped digits and the given
// number of decimals. Counts with a fractional part keep two decimals
// so nothing silently truncates.
func groupThousands(value float64, decimals int) string {
	if decimals == 0 && value != float64(int64(value)) {
		decimals = 2
	}
	s := fmt.Sprintf("%.*f", decimals, value)

	intPart := s
	fracPart := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot:]
	}
	negative := strings.HasPrefix(intPart, "-")
	if negative {
		intPart = intPart[1:]
	}

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ",") + fracPart
	if negative {
		out = "-" + out
	}
	return out
}

// displayDate converts a wire date into a readable one; unparseable
// input passes through unchanged.
func displayDate(wire string) string {
	t, err := time.Parse(connectors.DateLayout, wire)
	if err != nil {
		return wire
	}
	return t.Format("January 2, 2006")
}

// titleCase renders a snake_case identifier as words.
func titleCase(ident string) string {
	words := strings.Split(ident, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// sortedKeys returns map keys in sorted order so prompt text is
// deterministic across runs.
func sortedKeys[M map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
