// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided identifiers that
// end up as metric-context keys and reference segments. Using these
// validators keeps arbitrary text out of the expression pipeline.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxIdentifierLength bounds a single source, metric, or field name.
const MaxIdentifierLength = 64

// identifierPattern matches metric identifiers: a letter or underscore
// followed by letters, digits, or underscores. The same shape the
// reference resolver recognizes.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier validates one source, metric, or field name.
//
// Valid identifiers:
//   - 1-64 characters
//   - Letters, digits, underscores
//   - Must not start with a digit
//
// Returns an error if the identifier is invalid.
//
// Example:
//
//	if err := validation.ValidateIdentifier(metric); err != nil {
//	    return fmt.Errorf("invalid metric name: %w", err)
//	}
func ValidateIdentifier(ident string) error {
	if ident == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(ident) > MaxIdentifierLength {
		return fmt.Errorf("identifier %q exceeds %d characters", ident, MaxIdentifierLength)
	}
	if !identifierPattern.MatchString(ident) {
		return fmt.Errorf("invalid identifier format: %q (letters, digits, underscores; must not start with a digit)", ident)
	}
	return nil
}

// ValidateReference validates a SOURCE:METRIC:FIELD metric reference.
// Each of the three segments must be a valid identifier.
func ValidateReference(ref string) error {
	parts := strings.Split(ref, ":")
	if len(parts) != 3 {
		return fmt.Errorf("invalid reference %q: want SOURCE:METRIC:FIELD", ref)
	}
	for _, part := range parts {
		if err := ValidateIdentifier(part); err != nil {
			return fmt.Errorf("invalid reference %q: %w", ref, err)
		}
	}
	return nil
}

// SanitizeIdentifier normalizes and validates an identifier. Returns
// the lowercase identifier if valid, or an error if invalid.
func SanitizeIdentifier(ident string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(ident))
	if err := ValidateIdentifier(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
