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
	"strconv"
)

// Parse converts a resolved expression string into an AST.
//
// The grammar is a strict allow-list. It admits exactly: decimal
// literals, unary minus, the binary operators + - * / // % **,
// parenthesized grouping, and calls name(arg, ...) where name is in the
// function table. Everything else fails with a SyntaxError (or an
// UnknownFunctionError for a call to a name outside the table).
//
// This restriction is a security boundary, not a convenience: the
// expression text may come straight out of a language model, and there
// is intentionally no path from here to any general-purpose evaluation
// facility.
//
// Precedence, loosest to tightest: + -, then * / // %, then unary
// minus, then ** (right-associative). So "-2 ** 2" is -(2**2) and
// "2 ** -3" parses with the negated exponent.
func Parse(expression string) (Expr, error) {
	tokens, err := tokenize(expression)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected %s", tok.kind)}
	}
	return expr, nil
}

type parser struct {
	tokens []token
	index  int
}

func (p *parser) peek() token {
	return p.tokens[p.index]
}

func (p *parser) advance() token {
	tok := p.tokens[p.index]
	if tok.kind != tokenEOF {
		p.index++
	}
	return tok
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.peek()
	if tok.kind != kind {
		return token{}, &SyntaxError{
			Pos: tok.pos,
			Msg: fmt.Sprintf("expected %s, got %s", kind, tok.kind),
		}
	}
	return p.advance(), nil
}

// parseExpr handles the additive level: term (('+'|'-') term)*.
func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		var op Operator
		switch tok.kind {
		case tokenPlus:
			op = OpAdd
		case tokenMinus:
			op = OpSub
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right, OpPos: tok.pos}
	}
}

// parseTerm handles the multiplicative level:
// unary (('*'|'/'|'//'|'%') unary)*.
func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		var op Operator
		switch tok.kind {
		case tokenStar:
			op = OpMul
		case tokenSlash:
			op = OpDiv
		case tokenFloorDiv:
			op = OpFloorDiv
		case tokenPercent:
			op = OpMod
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right, OpPos: tok.pos}
	}
}

// parseUnary handles unary minus. Unary plus is not part of the grammar.
func (p *parser) parseUnary() (Expr, error) {
	if tok := p.peek(); tok.kind == tokenMinus {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: OpNeg, Operand: operand, OpPos: tok.pos}, nil
	}
	return p.parsePower()
}

// parsePower handles exponentiation. ** binds tighter than unary minus
// and is right-associative; the exponent is parsed at the unary level so
// "2 ** -3" works without parentheses.
func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind == tokenPower {
		p.advance()
		exponent, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: OpPow, Left: base, Right: exponent, OpPos: tok.pos}, nil
	}
	return base, nil
}

// parsePrimary handles literals, grouping, and function calls.
func (p *parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.kind {
	case tokenNumber:
		p.advance()
		value, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("malformed number %q", tok.text)}
		}
		return &NumberLit{Value: value, ValuePos: tok.pos}, nil

	case tokenLParen:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen); err != nil {
			return nil, err
		}
		return expr, nil

	case tokenIdent:
		return p.parseCall()

	default:
		return nil, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected %s", tok.kind)}
	}
}

// parseCall handles name(arg, ...). The name must be in the function
// table and must be immediately called; a bare identifier has no meaning
// in this grammar because references are already resolved to literals.
func (p *parser) parseCall() (Expr, error) {
	nameTok := p.advance()

	if p.peek().kind != tokenLParen {
		return nil, &SyntaxError{
			Pos: nameTok.pos,
			Msg: fmt.Sprintf("unexpected identifier %q (bare names are not allowed)", nameTok.text),
		}
	}

	fn, ok := LookupBuiltin(nameTok.text)
	if !ok {
		return nil, &UnknownFunctionError{Name: nameTok.text}
	}

	p.advance() // consume '('

	var args []Expr
	if p.peek().kind != tokenRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokenComma {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(tokenRParen); err != nil {
		return nil, err
	}

	return &CallExpr{Fn: fn, Name: nameTok.text, Args: args, NamePos: nameTok.pos}, nil
}
