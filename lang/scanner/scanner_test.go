package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atjhc/sif-sub001/lang/scanner"
	"github.com/atjhc/sif-sub001/lang/token"
)

func scanAll(t *testing.T, src string) ([]token.Token, []string) {
	t.Helper()

	var errs []string
	var s scanner.Scanner
	s.Reset([]byte(src), func(pos token.Pos, msg string) {
		errs = append(errs, msg)
	})

	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks, errs
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func TestScanTokenSequence(t *testing.T) {
	toks, errs := scanAll(t, `this is a 100 list of + tokens - if else (then) -- cmt`)
	require.Empty(t, errs)
	require.Equal(t, []token.Kind{
		token.WORD, token.IS, token.WORD, token.INT, token.WORD, token.WORD,
		token.PLUS, token.WORD, token.MINUS, token.IF, token.ELSE,
		token.LPAREN, token.THEN, token.RPAREN, token.COMMENT, token.EOF,
	}, kinds(toks))
}

func TestScanInterpolation(t *testing.T) {
	toks, errs := scanAll(t, `print "Hello, {name}!"`)
	require.Empty(t, errs)
	require.Equal(t, []token.Kind{
		token.WORD, token.OPEN_INTERPOLATION, token.WORD, token.CLOSED_INTERPOLATION, token.EOF,
	}, kinds(toks))

	require.Equal(t, "print", toks[0].Text)
	require.Equal(t, "Hello, ", toks[1].Str)
	require.Equal(t, "name", toks[2].Text)
	require.Equal(t, "!", toks[3].Str)
}

func TestScanInterpolationMultipleSplices(t *testing.T) {
	var s scanner.Scanner
	s.Reset([]byte(`"a{x}b{y}c"`), func(token.Pos, string) {
		t.Fatalf("unexpected lexical error")
	})

	open := s.Scan()
	require.Equal(t, token.OPEN_INTERPOLATION, open.Kind)
	require.Equal(t, "a", open.Str)

	x := s.Scan()
	require.Equal(t, token.WORD, x.Kind)
	require.Equal(t, "x", x.Text)

	s.Interpolating = true
	mid := s.Scan()
	require.Equal(t, token.INTERPOLATION, mid.Kind)
	require.Equal(t, "b", mid.Str)

	y := s.Scan()
	require.Equal(t, token.WORD, y.Kind)
	require.Equal(t, "y", y.Text)

	s.Interpolating = true
	closed := s.Scan()
	require.Equal(t, token.CLOSED_INTERPOLATION, closed.Kind)
	require.Equal(t, "c", closed.Str)
}

func TestScanNumbers(t *testing.T) {
	toks, errs := scanAll(t, `100 3.14 .5 1e3 1.5e-2`)
	require.Empty(t, errs)
	require.Equal(t, []token.Kind{
		token.INT, token.FLOAT, token.FLOAT, token.FLOAT, token.FLOAT, token.EOF,
	}, kinds(toks))
	require.Equal(t, int64(100), toks[0].Int)
	require.InDelta(t, 3.14, toks[1].Float, 1e-9)
	require.InDelta(t, 0.5, toks[2].Float, 1e-9)
	require.InDelta(t, 1000.0, toks[3].Float, 1e-9)
	require.InDelta(t, 0.015, toks[4].Float, 1e-9)
}

func TestScanStringEscapes(t *testing.T) {
	toks, errs := scanAll(t, `"a\nb\tc\\d\"e"`)
	require.Empty(t, errs)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, "a\nb\tc\\d\"e", toks[0].Str)
}

func TestScanUnterminatedString(t *testing.T) {
	_, errs := scanAll(t, `"oops`)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "not terminated")
}

func TestScanKeywordsCaseInsensitive(t *testing.T) {
	toks, errs := scanAll(t, `IF If if`)
	require.Empty(t, errs)
	require.Equal(t, []token.Kind{token.IF, token.IF, token.IF, token.EOF}, kinds(toks))
	require.Equal(t, "IF", toks[0].Text)
}

func TestScanRangeOperators(t *testing.T) {
	toks, errs := scanAll(t, `1...10 1..<10`)
	require.Empty(t, errs)
	require.Equal(t, []token.Kind{
		token.INT, token.DOTDOTDOT, token.INT, token.INT, token.DOTDOTLT, token.INT, token.EOF,
	}, kinds(toks))
}

func TestScanIgnoreNewLines(t *testing.T) {
	var s scanner.Scanner
	s.Reset([]byte("1\n2"), func(token.Pos, string) {
		t.Fatalf("unexpected lexical error")
	})
	s.IgnoreNewLines = true

	first := s.Scan()
	require.Equal(t, token.INT, first.Kind)
	second := s.Scan()
	require.Equal(t, token.INT, second.Kind, "newline should have been skipped")
}

func TestScanComparisonOperators(t *testing.T) {
	toks, errs := scanAll(t, `< > <= >= = <>`)
	require.Empty(t, errs)
	require.Equal(t, []token.Kind{
		token.LT, token.GT, token.LE, token.GE, token.EQ, token.NEQ, token.EOF,
	}, kinds(toks))
}
