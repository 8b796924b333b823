// Package scanner turns source bytes into a stream of tokens for the parser.
//
// The byte-at-a-time advance/peek/error shape follows the Go standard
// library's own scanner (go/scanner).
package scanner

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/atjhc/sif-sub001/lang/token"
)

// Scanner tokenizes a source buffer. It holds two mode flags that the parser
// toggles to implement the string-interpolation protocol described in spec
// §4.1.
type Scanner struct {
	// IgnoreNewLines, when true, makes Scan skip over NEWLINE tokens. The
	// parser sets this while inside brackets/parens so that list and
	// dictionary literals (and call argument lists) may freely span lines.
	IgnoreNewLines bool

	// Interpolating, when true, makes the next Scan resume inside a string
	// literal rather than lexing a fresh token, continuing until the matching
	// StringTerminal quote or another '{' splice.
	Interpolating bool

	// StringTerminal is the quote byte ('"' or '\'') that closes the string
	// currently being interpolated.
	StringTerminal byte

	src []byte
	err func(pos token.Pos, msg string)

	sb strings.Builder

	cur       rune
	off, roff int
	line, col int
}

// Reset initializes (or reinitializes) the scanner to tokenize src. errFn,
// if non-nil, is invoked for every lexical error encountered.
func (s *Scanner) Reset(src []byte, errFn func(pos token.Pos, msg string)) {
	s.src = src
	s.err = errFn
	s.IgnoreNewLines = false
	s.Interpolating = false
	s.StringTerminal = 0
	s.sb.Reset()
	s.off, s.roff = 0, 0
	s.line, s.col = 0, 0
	s.cur = ' '
	s.advance()
}

// Extend appends more bytes to the source buffer and, if the scanner had
// already reached end-of-input, resumes scanning from the new bytes. This
// supports the Reader read-ahead protocol for multi-line constructs typed
// interactively (spec §4.3).
func (s *Scanner) Extend(more []byte) {
	atEOF := s.cur == -1
	s.src = append(s.src, more...)
	if atEOF {
		s.advance()
	}
}

func (s *Scanner) pos() token.Pos {
	return token.Pos{Offset: s.off, Line: s.line, Column: s.col}
}

func (s *Scanner) advance() {
	if s.cur == '\n' {
		s.line++
		s.col = 0
	} else if s.roff > 0 {
		s.col++
	}

	if s.roff >= len(s.src) {
		s.off = len(s.src)
		s.cur = -1
		return
	}

	s.off = s.roff
	r, w := rune(s.src[s.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(s.src[s.roff:])
		if r == utf8.RuneError && w == 1 {
			s.errorAt(s.pos(), "illegal UTF-8 encoding")
		}
	}
	s.roff += w
	s.cur = r
}

func (s *Scanner) peek() byte {
	if s.roff < len(s.src) {
		return s.src[s.roff]
	}
	return 0
}

func (s *Scanner) advanceIf(b byte) bool {
	if s.cur == rune(b) {
		s.advance()
		return true
	}
	return false
}

func (s *Scanner) errorAt(pos token.Pos, msg string) {
	if s.err != nil {
		s.err(pos, msg)
	}
}

func (s *Scanner) errorfAt(pos token.Pos, format string, args ...any) {
	s.errorAt(pos, fmt.Sprintf(format, args...))
}

// Scan returns the next token. When Interpolating is true, it resumes inside
// a string literal instead of lexing a new token (spec §4.1).
func (s *Scanner) Scan() token.Token {
	if s.Interpolating {
		s.Interpolating = false
		return s.resumeString()
	}

	s.skipWhitespace()

	startPos := s.pos()
	start := s.off

	switch cur := s.cur; {
	case isLetter(cur):
		lit := s.ident()
		kind := token.WORD
		if len(lit) > 1 {
			kind = token.LookupKeyword(strings.ToLower(lit))
		}
		return token.Token{Kind: kind, Span: token.Range{Start: startPos, End: s.pos()}, Text: lit}

	case isDecimal(cur) || (cur == '.' && isDecimal(rune(s.peek()))):
		return s.number(startPos, start)

	case cur == '"' || cur == '\'':
		s.advance()
		return s.beginString(byte(cur), startPos, start)

	case cur == '-' && s.peek() == '-':
		s.advance()
		s.advance()
		return s.lineComment(startPos, start)

	case cur == -1:
		return token.Token{Kind: token.EOF, Span: token.Range{Start: startPos, End: startPos}}

	case cur == '\n':
		s.advance()
		tok := token.Token{Kind: token.NEWLINE, Span: token.Range{Start: startPos, End: s.pos()}, Text: "\n"}
		if s.IgnoreNewLines {
			return s.Scan()
		}
		return tok

	default:
		return s.punct(startPos, start)
	}
}

func (s *Scanner) skipWhitespace() {
	for {
		for s.cur == ' ' || s.cur == '\t' || s.cur == '\r' {
			s.advance()
		}
		if s.IgnoreNewLines && s.cur == '\n' {
			s.advance()
			continue
		}
		break
	}
}

func (s *Scanner) ident() string {
	start := s.off
	for isLetter(s.cur) || isDigit(s.cur) {
		s.advance()
	}
	return string(s.src[start:s.off])
}

func (s *Scanner) punct(startPos token.Pos, start int) token.Token {
	cur := s.cur
	s.advance()

	mk := func(k token.Kind) token.Token {
		return token.Token{Kind: k, Span: token.Range{Start: startPos, End: s.pos()}, Text: string(s.src[start:s.off])}
	}

	switch cur {
	case '+':
		return mk(token.PLUS)
	case '-':
		return mk(token.MINUS)
	case '*':
		return mk(token.STAR)
	case '/':
		return mk(token.SLASH)
	case '%':
		return mk(token.PERCENT)
	case '^':
		return mk(token.CARET)
	case '&':
		return mk(token.AMP)
	case '(':
		return mk(token.LPAREN)
	case ')':
		return mk(token.RPAREN)
	case '[':
		return mk(token.LBRACK)
	case ']':
		return mk(token.RBRACK)
	case '{':
		return mk(token.LBRACE)
	case '}':
		return mk(token.RBRACE)
	case ',':
		return mk(token.COMMA)
	case ':':
		return mk(token.COLON)
	case '=':
		return mk(token.EQ)
	case '<':
		if s.advanceIf('=') {
			return mk(token.LE)
		}
		if s.advanceIf('>') {
			return mk(token.NEQ)
		}
		return mk(token.LT)
	case '>':
		if s.advanceIf('=') {
			return mk(token.GE)
		}
		return mk(token.GT)
	case '.':
		if s.advanceIf('.') {
			if s.advanceIf('.') {
				return mk(token.DOTDOTDOT)
			}
			if s.advanceIf('<') {
				return mk(token.DOTDOTLT)
			}
			msg := "illegal punctuation '..'"
			s.errorAt(startPos, msg)
			return token.Token{Kind: token.ERROR, Span: token.Range{Start: startPos, End: s.pos()}, Text: msg}
		}
		msg := fmt.Sprintf("illegal character %#U", cur)
		s.errorAt(startPos, msg)
		return token.Token{Kind: token.ERROR, Span: token.Range{Start: startPos, End: s.pos()}, Text: msg}
	default:
		msg := fmt.Sprintf("illegal character %#U", cur)
		s.errorAt(startPos, msg)
		return token.Token{Kind: token.ERROR, Span: token.Range{Start: startPos, End: s.pos()}, Text: msg}
	}
}

func (s *Scanner) lineComment(startPos token.Pos, start int) token.Token {
	for s.cur != '\n' && s.cur != -1 {
		s.advance()
	}
	return token.Token{Kind: token.COMMENT, Span: token.Range{Start: startPos, End: s.pos()}, Text: string(s.src[start:s.off])}
}

func isLetter(rn rune) bool {
	return 'a' <= rn && rn <= 'z' || 'A' <= rn && rn <= 'Z' || rn == '_' ||
		rn >= utf8.RuneSelf && unicode.IsLetter(rn)
}

func isDigit(rn rune) bool {
	return isDecimal(rn) || rn >= utf8.RuneSelf && unicode.IsDigit(rn)
}

func isDecimal(rn rune) bool { return '0' <= rn && rn <= '9' }
