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

// Expr is a node in the expression AST. The node set is deliberately
// tiny: numeric literals, unary negation, binary arithmetic, and calls
// to built-in functions. There is no variable node. Metric references
// are rewritten to literals by the Resolver before parsing, so a
// well-formed tree can never look anything up at evaluation time.
type Expr interface {
	// Pos returns the byte offset of the node in the source expression.
	Pos() int

	exprNode()
}

// Operator enumerates the arithmetic operators. The set is closed; the
// evaluator matches it exhaustively, so adding an operator is a
// compile-time-visible change in exactly two places (here and the
// evaluator switch).
type Operator int

const (
	// OpAdd is binary addition.
	OpAdd Operator = iota
	// OpSub is binary subtraction.
	OpSub
	// OpMul is multiplication.
	OpMul
	// OpDiv is IEEE-754 float division. Division by zero is a
	// DomainError, never an Inf/NaN result.
	OpDiv
	// OpFloorDiv is floor division, exact when both operands are integral.
	OpFloorDiv
	// OpMod is the modulo operation with the sign of the divisor,
	// matching the semantics metric formulas were written against.
	OpMod
	// OpPow is exponentiation, right-associative.
	OpPow
	// OpNeg is unary negation.
	OpNeg
)

func (op Operator) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpFloorDiv:
		return "//"
	case OpMod:
		return "%"
	case OpPow:
		return "**"
	case OpNeg:
		return "-(unary)"
	default:
		return "invalid"
	}
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value    float64
	ValuePos int
}

func (n *NumberLit) Pos() int  { return n.ValuePos }
func (n *NumberLit) exprNode() {}

// UnaryExpr is a unary operation. The grammar only produces OpNeg.
type UnaryExpr struct {
	Op      Operator
	Operand Expr
	OpPos   int
}

func (u *UnaryExpr) Pos() int  { return u.OpPos }
func (u *UnaryExpr) exprNode() {}

// BinaryExpr is a binary arithmetic operation.
type BinaryExpr struct {
	Op    Operator
	Left  Expr
	Right Expr
	OpPos int
}

func (b *BinaryExpr) Pos() int  { return b.Left.Pos() }
func (b *BinaryExpr) exprNode() {}

// CallExpr is a call to a built-in function. Fn is resolved against the
// function table at parse time, so an unknown name never produces a
// CallExpr at all.
type CallExpr struct {
	Fn      Builtin
	Name    string
	Args    []Expr
	NamePos int
}

func (c *CallExpr) Pos() int  { return c.NamePos }
func (c *CallExpr) exprNode() {}
