package scanner

import (
	"github.com/atjhc/sif-sub001/lang/token"
)

// beginString lexes a string literal starting right after its opening quote
// was consumed. If a '{' splice is found before the matching quote, it emits
// an OPEN_INTERPOLATION token (resumeString emits INTERPOLATION instead) and
// sets Interpolating/StringTerminal; the parser clears Interpolating before
// scanning the embedded expression (spec §4.1). Otherwise it emits a plain
// STRING token.
func (s *Scanner) beginString(quote byte, startPos token.Pos, start int) token.Token {
	return s.scanStringBody(quote, startPos, start, token.STRING, token.OPEN_INTERPOLATION)
}

// resumeString is called by Scan when Interpolating was set by the parser
// after it finished parsing an embedded `{ ... }` expression and consumed the
// closing '}'. It resumes lexing the string body using StringTerminal as the
// closing quote.
func (s *Scanner) resumeString() token.Token {
	startPos := s.pos()
	start := s.off
	quote := s.StringTerminal
	return s.scanStringBody(quote, startPos, start, token.CLOSED_INTERPOLATION, token.INTERPOLATION)
}

// scanStringBody consumes bytes up to (and including) either the matching
// quote or a '{' splice, applying escapes. plainKind is the token kind to
// emit if the string ends in the matching quote; spliceKind is the token
// kind to emit if a '{' splice is found first.
func (s *Scanner) scanStringBody(quote byte, startPos token.Pos, start int, plainKind, spliceKind token.Kind) token.Token {
	s.sb.Reset()

	for {
		cur := s.cur
		if cur == '\n' || cur == -1 {
			msg := "string literal not terminated"
			s.errorAt(startPos, msg)
			return token.Token{Kind: token.ERROR, Span: token.Range{Start: startPos, End: s.pos()}, Text: msg}
		}

		if cur == rune(quote) {
			s.advance()
			return token.Token{Kind: plainKind, Span: token.Range{Start: startPos, End: s.pos()}, Text: string(s.src[start:s.off]), Str: s.sb.String()}
		}

		if cur == '{' {
			s.advance()
			s.Interpolating = true
			s.StringTerminal = quote
			return token.Token{Kind: spliceKind, Span: token.Range{Start: startPos, End: s.pos()}, Text: string(s.src[start:s.off]), Str: s.sb.String()}
		}

		if cur == '\\' {
			s.advance()
			s.escape(startPos)
			continue
		}

		s.sb.WriteRune(cur)
		s.advance()
	}
}

// escape parses one of the escapes permitted by spec §4.1 (\n \t \\ \" \').
// The leading backslash has already been consumed.
func (s *Scanner) escape(startPos token.Pos) {
	switch s.cur {
	case 'n':
		s.sb.WriteByte('\n')
		s.advance()
	case 't':
		s.sb.WriteByte('\t')
		s.advance()
	case '\\':
		s.sb.WriteByte('\\')
		s.advance()
	case '"':
		s.sb.WriteByte('"')
		s.advance()
	case '\'':
		s.sb.WriteByte('\'')
		s.advance()
	case -1, '\n':
		s.errorAt(startPos, "string literal not terminated")
	default:
		s.errorfAt(startPos, "illegal escape sequence %#U", s.cur)
		s.sb.WriteRune(s.cur)
		s.advance()
	}
}
