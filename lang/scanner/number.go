package scanner

import (
	"errors"
	"strconv"

	"github.com/atjhc/sif-sub001/lang/token"
)

// number scans an integer or float literal. Per spec §4.1, a leading '-' is
// never part of a number literal — that's the parser's job (unary minus) —
// so this only ever sees a digit or a '.' followed by a digit.
func (s *Scanner) number(startPos token.Pos, start int) token.Token {
	isFloat := false

	if s.cur == '.' {
		isFloat = true
		s.advance()
	}
	for isDecimal(s.cur) {
		s.advance()
	}
	if !isFloat && s.cur == '.' && isDecimal(rune(s.peek())) {
		isFloat = true
		s.advance()
		for isDecimal(s.cur) {
			s.advance()
		}
	}
	if s.cur == 'e' || s.cur == 'E' {
		isFloat = true
		s.advance()
		if s.cur == '+' || s.cur == '-' {
			s.advance()
		}
		if !isDecimal(s.cur) {
			msg := "malformed floating-point literal: missing exponent digits"
			s.errorAt(startPos, msg)
			return token.Token{Kind: token.ERROR, Span: token.Range{Start: startPos, End: s.pos()}, Text: msg}
		}
		for isDecimal(s.cur) {
			s.advance()
		}
	}

	lit := string(s.src[start:s.off])
	if isFloat {
		v, err := strconv.ParseFloat(lit, 64)
		if err != nil && errors.Is(err, strconv.ErrRange) {
			s.errorAt(startPos, "float literal value out of range")
		}
		return token.Token{Kind: token.FLOAT, Span: token.Range{Start: startPos, End: s.pos()}, Text: lit, Float: v}
	}

	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil && errors.Is(err, strconv.ErrRange) {
		s.errorAt(startPos, "integer literal value out of range")
	}
	return token.Token{Kind: token.INT, Span: token.Range{Start: startPos, End: s.pos()}, Text: lit, Int: v}
}
