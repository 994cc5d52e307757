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
	"fmt"
	"math"
)

// smallResultThreshold is the magnitude below which results are shown
// with extra precision, so conversion rates like 0.0035 do not render
// as 0.00.
const smallResultThreshold = 0.01

// Explain renders a human-readable justification for a computed result.
// Purely presentational; the output feeds the answer prompt and the CLI.
func Explain(expression string, result float64) string {
	return fmt.Sprintf(
		"I calculated this by evaluating the expression: %s\nThis gave us the result: %s",
		expression, FormatResult(result))
}

// FormatResult formats a numeric result for display. Values are fixed
// to two decimal places except small non-zero magnitudes, which get six.
func FormatResult(v float64) string {
	if v != 0 && math.Abs(v) < smallResultThreshold {
		return fmt.Sprintf("%.6f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
