// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package calc is the metric-expression evaluation engine.
//
// It turns textual metric expressions, possibly proposed by a language
// model, into numbers looked up and computed from a per-request
// MetricContext:
//
//	decompose (optional) -> resolve references -> parse -> evaluate -> explain
//
// The expression language is deliberately closed: numeric literals,
// arithmetic operators (+ - * / // % **), unary minus, parentheses, and
// a fixed table of named functions. There is no control flow, no
// strings, no user-defined identifiers, and no bridge to any
// general-purpose evaluation facility. Metric references of the form
// ALIAS:METRIC:FIELD are rewritten to numeric literals by the Resolver
// before parsing, so the AST never contains a lookup node.
//
// Every failure mode is a typed, inspectable error (SyntaxError,
// UnknownFunctionError, ArityError, DomainError, MetricNotFoundError);
// nothing in this package panics on malformed or adversarial input.
package calc
