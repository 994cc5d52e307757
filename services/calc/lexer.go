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
	"strings"
)

// tokenKind enumerates the lexical tokens of the expression grammar.
// The set is closed: anything the lexer cannot classify is a
// SyntaxError, which is the first line of defense against expression
// text trying to reach constructs the grammar does not have (strings,
// assignment, attribute access).
type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenIdent
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenFloorDiv
	tokenPercent
	tokenPower
	tokenLParen
	tokenRParen
	tokenComma
)

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of expression"
	case tokenNumber:
		return "number"
	case tokenIdent:
		return "identifier"
	case tokenPlus:
		return "'+'"
	case tokenMinus:
		return "'-'"
	case tokenStar:
		return "'*'"
	case tokenSlash:
		return "'/'"
	case tokenFloorDiv:
		return "'//'"
	case tokenPercent:
		return "'%'"
	case tokenPower:
		return "'**'"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenComma:
		return "','"
	default:
		return "unknown token"
	}
}

// token is a lexical token with its byte offset in the input.
type token struct {
	kind tokenKind
	text string
	pos  int
}

// lexer scans expression text into tokens.
type lexer struct {
	input string
	pos   int
}

// tokenize scans the whole input eagerly. The expressions this engine
// sees are short (one formula), so there is no benefit to streaming.
func tokenize(input string) ([]token, error) {
	l := &lexer{input: input}
	var tokens []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokenEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]

	switch {
	case c == '+':
		l.pos++
		return token{kind: tokenPlus, text: "+", pos: start}, nil
	case c == '-':
		l.pos++
		return token{kind: tokenMinus, text: "-", pos: start}, nil
	case c == '*':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '*' {
			l.pos++
			return token{kind: tokenPower, text: "**", pos: start}, nil
		}
		return token{kind: tokenStar, text: "*", pos: start}, nil
	case c == '/':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '/' {
			l.pos++
			return token{kind: tokenFloorDiv, text: "//", pos: start}, nil
		}
		return token{kind: tokenSlash, text: "/", pos: start}, nil
	case c == '%':
		l.pos++
		return token{kind: tokenPercent, text: "%", pos: start}, nil
	case c == '(':
		l.pos++
		return token{kind: tokenLParen, text: "(", pos: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokenRParen, text: ")", pos: start}, nil
	case c == ',':
		l.pos++
		return token{kind: tokenComma, text: ",", pos: start}, nil
	case isDigit(c) || (c == '.' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])):
		return l.scanNumber(), nil
	case isIdentStart(c):
		return l.scanIdent(), nil
	default:
		return token{}, &SyntaxError{
			Pos: start,
			Msg: fmt.Sprintf("unexpected character %q", string(c)),
		}
	}
}

// scanNumber scans a decimal literal with an optional fractional part
// and exponent. Signs are not part of the literal; unary minus is a
// parser concern.
func (l *lexer) scanNumber() token {
	start := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		// Only consume the exponent if it is well-formed; otherwise leave
		// the 'e' for the identifier scanner and let the parser reject it.
		rest := l.input[l.pos+1:]
		rest = strings.TrimPrefix(strings.TrimPrefix(rest, "+"), "-")
		if len(rest) > 0 && isDigit(rest[0]) {
			l.pos++
			if l.input[l.pos] == '+' || l.input[l.pos] == '-' {
				l.pos++
			}
			for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
				l.pos++
			}
		}
	}
	return token{kind: tokenNumber, text: l.input[start:l.pos], pos: start}
}

func (l *lexer) scanIdent() token {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	return token{kind: tokenIdent, text: l.input[start:l.pos], pos: start}
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
