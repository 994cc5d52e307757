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
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks across package boundaries.
// The typed errors below wrap these so callers can branch on the
// failure class without inspecting the concrete type.
var (
	// ErrSyntax indicates the expression text does not conform to the
	// restricted arithmetic grammar.
	ErrSyntax = errors.New("syntax error")

	// ErrUnknownFunction indicates a call to a name outside the fixed
	// function table.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrUnknownOperator indicates an operator outside the fixed operator set.
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrArity indicates a function call with a wrong argument count.
	ErrArity = errors.New("wrong argument count")

	// ErrDomain indicates a mathematically undefined operation,
	// such as division by zero.
	ErrDomain = errors.New("domain error")

	// ErrMetricNotFound indicates a metric reference that is absent from
	// the metric context. Only surfaced by a strict-mode resolver.
	ErrMetricNotFound = errors.New("metric not found")
)

// SyntaxError reports a malformed expression with the byte offset of the
// offending token. Expressions may originate from a language model, so a
// SyntaxError is an expected, recoverable outcome rather than a bug.
type SyntaxError struct {
	// Pos is the byte offset in the expression where parsing failed.
	Pos int

	// Msg describes what the parser expected or rejected.
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

// Unwrap makes errors.Is(err, ErrSyntax) work.
func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// UnknownFunctionError reports a call to a name that is not in the
// function table. This is the security boundary for expressions such as
// "exec(...)": the name is rejected by the parser, never executed.
type UnknownFunctionError struct {
	// Name is the rejected callee.
	Name string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function %q", e.Name)
}

func (e *UnknownFunctionError) Unwrap() error { return ErrUnknownFunction }

// UnknownOperatorError reports an operator the evaluator does not
// dispatch. With the closed Operator enum this can only happen if a
// caller constructs an AST node by hand with an invalid Operator value.
type UnknownOperatorError struct {
	Op Operator
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown operator %q", e.Op)
}

func (e *UnknownOperatorError) Unwrap() error { return ErrUnknownOperator }

// ArityError reports a function called with the wrong number of
// arguments. Min and Max describe the declared arity; Max < 0 means
// unbounded (variadic).
type ArityError struct {
	Name string
	Got  int
	Min  int
	Max  int
}

func (e *ArityError) Error() string {
	switch {
	case e.Max < 0:
		return fmt.Sprintf("%s expects at least %d argument(s), got %d", e.Name, e.Min, e.Got)
	case e.Min == e.Max:
		return fmt.Sprintf("%s expects %d argument(s), got %d", e.Name, e.Min, e.Got)
	default:
		return fmt.Sprintf("%s expects %d to %d arguments, got %d", e.Name, e.Min, e.Max, e.Got)
	}
}

func (e *ArityError) Unwrap() error { return ErrArity }

// DomainError reports a mathematically undefined operation such as
// division by zero. growth_rate and percentage_change deliberately do
// NOT produce this for a zero base; they report zero change instead
// (financial convention).
type DomainError struct {
	// Op names the operation that failed ("/", "//", "%", "**", ...).
	Op string

	// Msg describes the undefined input.
	Msg string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("domain error in %q: %s", e.Op, e.Msg)
}

func (e *DomainError) Unwrap() error { return ErrDomain }

// MetricNotFoundError identifies the missing (source, metric, field)
// triple when a strict-mode resolver cannot find a reference.
type MetricNotFoundError struct {
	Source string
	Metric string
	Field  string
}

func (e *MetricNotFoundError) Error() string {
	return fmt.Sprintf("metric %s:%s:%s not found in context", e.Source, e.Metric, e.Field)
}

func (e *MetricNotFoundError) Unwrap() error { return ErrMetricNotFound }
