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
	"strings"
	"time"
)

// ParsePeriod converts a named time period into concrete start and end
// dates relative to now, formatted with DateLayout.
//
// Recognized periods: "last_month", "last_week", "last_30_days",
// "year_to_date", "q1". Period names are matched case-insensitively
// with spaces treated as underscores, so query-analyzer output like
// "last month" works unchanged. Anything unrecognized defaults to the
// last 30 days, which keeps the pipeline moving on vague questions.
func ParsePeriod(period string, now time.Time) (start, end string) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(period)), " ", "_")

	var startT, endT time.Time
	switch normalized {
	case "last_month":
		firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		endT = firstOfThisMonth.AddDate(0, 0, -1)
		startT = time.Date(endT.Year(), endT.Month(), 1, 0, 0, 0, 0, now.Location())
	case "last_week":
		startT = now.AddDate(0, 0, -7)
		endT = now
	case "last_30_days":
		startT = now.AddDate(0, 0, -30)
		endT = now
	case "year_to_date":
		startT = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		endT = now
	case "q1":
		startT = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		endT = time.Date(now.Year(), time.March, 31, 0, 0, 0, 0, now.Location())
	default:
		startT = now.AddDate(0, 0, -30)
		endT = now
	}

	return startT.Format(DateLayout), endT.Format(DateLayout)
}
