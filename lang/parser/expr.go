package parser

import (
	"strings"

	"github.com/atjhc/sif-sub001/lang/ast"
	"github.com/atjhc/sif-sub001/lang/grammar"
	"github.com/atjhc/sif-sub001/lang/token"
)

// parseExpr parses a full expression at the loosest precedence (spec §4.3's
// ladder: or/and -> equality -> comparison -> list -> range -> term ->
// factor -> exponent -> unary -> call -> subscript -> primary).
func (p *Parser) parseExpr() ast.Expr {
	return p.parseOrExpr()
}

func (p *Parser) parseOrExpr() ast.Expr {
	left := p.parseAndExpr()
	for p.cur().Kind == token.OR {
		opPos := p.advance().Span.Start
		right := p.parseAndExpr()
		left = &ast.BinaryExpr{Left: left, Op: ast.Or, OpPos: opPos, Right: right}
	}
	return left
}

func (p *Parser) parseAndExpr() ast.Expr {
	left := p.parseEqualityExpr()
	for p.cur().Kind == token.AND {
		opPos := p.advance().Span.Start
		right := p.parseEqualityExpr()
		left = &ast.BinaryExpr{Left: left, Op: ast.And, OpPos: opPos, Right: right}
	}
	return left
}

func (p *Parser) parseEqualityExpr() ast.Expr {
	left := p.parseComparisonExpr()
	for {
		switch p.cur().Kind {
		case token.EQ:
			opPos := p.advance().Span.Start
			left = &ast.BinaryExpr{Left: left, Op: ast.Equal, OpPos: opPos, Right: p.parseComparisonExpr()}
		case token.NEQ:
			opPos := p.advance().Span.Start
			left = &ast.BinaryExpr{Left: left, Op: ast.NotEqual, OpPos: opPos, Right: p.parseComparisonExpr()}
		case token.IS:
			opPos := p.advance().Span.Start
			op := ast.Equal
			if p.cur().Kind == token.NOT {
				p.advance()
				op = ast.NotEqual
			}
			left = &ast.BinaryExpr{Left: left, Op: op, OpPos: opPos, Right: p.parseComparisonExpr()}
		default:
			return left
		}
	}
}

func (p *Parser) parseComparisonExpr() ast.Expr {
	left := p.parseListExpr()
	for {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case token.LT:
			op = ast.LessThan
		case token.GT:
			op = ast.GreaterThan
		case token.LE:
			op = ast.LessThanOrEqual
		case token.GE:
			op = ast.GreaterThanOrEqual
		default:
			return left
		}
		opPos := p.advance().Span.Start
		left = &ast.BinaryExpr{Left: left, Op: op, OpPos: opPos, Right: p.parseListExpr()}
	}
}

// parseListExpr folds a comma-separated run of range-level expressions into
// a ListLiteral, e.g. `return 1, 2, 3` (spec §4.3).
func (p *Parser) parseListExpr() ast.Expr {
	first := p.parseRangeExpr()
	if p.cur().Kind != token.COMMA {
		return first
	}
	items := []ast.Expr{first}
	for p.cur().Kind == token.COMMA {
		p.advance()
		items = append(items, p.parseRangeExpr())
	}
	return &ast.ListLiteral{
		Lbrack: first.Span().Start,
		Items:  items,
		Rbrack: items[len(items)-1].Span().End,
	}
}

func (p *Parser) parseRangeExpr() ast.Expr {
	left := p.parseTermExpr()
	switch p.cur().Kind {
	case token.DOTDOTDOT:
		opPos := p.advance().Span.Start
		right := p.parseTermExpr()
		return &ast.RangeLiteral{Start: left, OpPos: opPos, Closed: true, End: right}
	case token.DOTDOTLT:
		opPos := p.advance().Span.Start
		right := p.parseTermExpr()
		return &ast.RangeLiteral{Start: left, OpPos: opPos, Closed: false, End: right}
	default:
		return left
	}
}

func (p *Parser) parseTermExpr() ast.Expr {
	left := p.parseFactorExpr()
	for {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case token.PLUS, token.AMP:
			// & is an alternate spelling of + (spec §8: `"hi " & who`),
			// sharing its precedence and its Add opcode's string-concat case.
			op = ast.Plus
		case token.MINUS:
			op = ast.Minus
		default:
			return left
		}
		opPos := p.advance().Span.Start
		left = &ast.BinaryExpr{Left: left, Op: op, OpPos: opPos, Right: p.parseFactorExpr()}
	}
}

func (p *Parser) parseFactorExpr() ast.Expr {
	left := p.parseExponentExpr()
	for {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case token.STAR:
			op = ast.Multiply
		case token.SLASH:
			op = ast.Divide
		case token.PERCENT:
			op = ast.Modulo
		default:
			return left
		}
		opPos := p.advance().Span.Start
		left = &ast.BinaryExpr{Left: left, Op: op, OpPos: opPos, Right: p.parseExponentExpr()}
	}
}

// parseExponentExpr is right-associative: `2 ^ 3 ^ 2` is `2 ^ (3 ^ 2)`.
func (p *Parser) parseExponentExpr() ast.Expr {
	left := p.parseUnaryExpr()
	if p.cur().Kind == token.CARET {
		opPos := p.advance().Span.Start
		right := p.parseExponentExpr()
		return &ast.BinaryExpr{Left: left, Op: ast.Exponent, OpPos: opPos, Right: right}
	}
	return left
}

func (p *Parser) parseUnaryExpr() ast.Expr {
	switch p.cur().Kind {
	case token.MINUS:
		opPos := p.advance().Span.Start
		return &ast.UnaryExpr{Op: ast.Negate, OpPos: opPos, Right: p.parseUnaryExpr()}
	case token.NOT:
		opPos := p.advance().Span.Start
		return &ast.UnaryExpr{Op: ast.Not, OpPos: opPos, Right: p.parseUnaryExpr()}
	default:
		return p.parseCallExpr()
	}
}

// parseCallExpr attempts to match a multi-word call signature from the
// grammar trie at the current position (spec §4.2/§4.3); on failure it
// rewinds and falls through to subscript/primary parsing, so a bare word
// that isn't a registered signature reads as a variable reference.
func (p *Parser) parseCallExpr() ast.Expr {
	if p.cur().Kind == token.WORD {
		if call, ok := p.tryCall(); ok {
			return call
		}
	}
	return p.parseSubscriptExpr()
}

type callSnapshot struct {
	pos       int
	end       token.Pos
	words     []token.Token
	args      []ast.Expr
	argRanges []token.Range
	sig       grammar.Signature
}

func (p *Parser) tryCall() (*ast.CallExpr, bool) {
	start := p.cur().Span.Start
	p.checkpoint()

	cursor := p.grammar.Root()
	var words []token.Token
	var args []ast.Expr
	var argRanges []token.Range
	var best *callSnapshot

	for {
		advanced := false

		if p.cur().Kind == token.WORD {
			lowered := strings.ToLower(p.cur().Text)
			if next, ok := cursor.Keyword(lowered); ok {
				tok := p.advance()
				words = append(words, tok)
				cursor = next
				advanced = true
				if sig, ok := cursor.Terminal(); ok {
					best = p.snapshot(words, args, argRanges, sig, tok.Span.End)
				}
			}
		}

		if !advanced && cursor.HasArgument() {
			argCursor := cursor.Argument()
			argStart := p.cur().Span.Start
			p.checkpoint()
			arg := p.parseRangeExpr()
			p.commit()
			args = append(args, arg)
			argRanges = append(argRanges, token.Range{Start: argStart, End: arg.Span().End})
			cursor = argCursor
			advanced = true
			if sig, ok := cursor.Terminal(); ok {
				best = p.snapshot(words, args, argRanges, sig, arg.Span().End)
			}
		}

		if !advanced {
			break
		}
	}

	if best == nil {
		p.rewind()
		return nil, false
	}

	p.pos = best.pos
	p.commit()
	return &ast.CallExpr{
		Name:      best.sig.NormalizedName(),
		Words:     best.words,
		Args:      best.args,
		ArgRanges: best.argRanges,
		Start:     start,
		End:       best.end,
	}, true
}

func (p *Parser) snapshot(words []token.Token, args []ast.Expr, argRanges []token.Range, sig grammar.Signature, end token.Pos) *callSnapshot {
	return &callSnapshot{
		pos:       p.pos,
		end:       end,
		words:     append([]token.Token(nil), words...),
		args:      append([]ast.Expr(nil), args...),
		argRanges: append([]token.Range(nil), argRanges...),
		sig:       sig,
	}
}

func (p *Parser) parseSubscriptExpr() ast.Expr {
	left := p.parsePrimary()
	for p.cur().Kind == token.LBRACK {
		lbrack := p.advance()
		p.ignoreNewLines(true)
		index := p.parseExpr()
		p.ignoreNewLines(false)
		p.expect(token.RBRACK)
		left = &ast.BinaryExpr{Left: left, Op: ast.Subscript, OpPos: lbrack.Span.Start, Right: index}
	}
	return left
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Kind {
	case token.INT:
		p.advance()
		return &ast.Literal{TokenKind: token.INT, StartPos: tok.Span.Start, Raw: tok.Text, Value: tok.Int}
	case token.FLOAT:
		p.advance()
		return &ast.Literal{TokenKind: token.FLOAT, StartPos: tok.Span.Start, Raw: tok.Text, Value: tok.Float}
	case token.STRING:
		p.advance()
		return &ast.Literal{TokenKind: token.STRING, StartPos: tok.Span.Start, Raw: tok.Text, Value: tok.Str}
	case token.OPEN_INTERPOLATION:
		return p.parseStringInterpolation()
	case token.LPAREN:
		p.advance()
		p.ignoreNewLines(true)
		inner := p.parseExpr()
		p.ignoreNewLines(false)
		rparen, _ := p.expect(token.RPAREN)
		return &ast.GroupingExpr{Lparen: tok.Span.Start, Expr: inner, Rparen: rparen.Span.End}
	case token.LBRACK:
		return p.parseListLiteral()
	case token.LBRACE:
		return p.parseDictionaryLiteral()
	case token.GLOBAL, token.LOCAL:
		return p.parseVariableExpr()
	case token.WORD:
		lowered := strings.ToLower(tok.Text)
		switch lowered {
		case "true":
			p.advance()
			return &ast.Literal{TokenKind: token.WORD, StartPos: tok.Span.Start, Raw: tok.Text, Value: true}
		case "false":
			p.advance()
			return &ast.Literal{TokenKind: token.WORD, StartPos: tok.Span.Start, Raw: tok.Text, Value: false}
		case "empty":
			p.advance()
			return &ast.Literal{TokenKind: token.WORD, StartPos: tok.Span.Start, Raw: tok.Text, Value: nil}
		default:
			return p.parseVariableExpr()
		}
	default:
		p.errorExpected(tok, "expression")
		p.advance()
		return &ast.BadExpr{Start: tok.Span.Start, End: tok.Span.End}
	}
}

func (p *Parser) parseVariableExpr() *ast.VariableExpr {
	scope := ast.ScopeNone
	switch p.cur().Kind {
	case token.GLOBAL:
		scope = ast.Global
		p.advance()
	case token.LOCAL:
		scope = ast.Local
		p.advance()
	}
	nameTok, _ := p.expect(token.WORD)
	return &ast.VariableExpr{NamePos: nameTok.Span.Start, Name: nameTok.Text, Scope: scope}
}

func (p *Parser) parseListLiteral() *ast.ListLiteral {
	lbrack := p.advance()
	p.ignoreNewLines(true)
	lit := &ast.ListLiteral{Lbrack: lbrack.Span.Start}
	for p.cur().Kind != token.RBRACK && p.cur().Kind != token.EOF {
		lit.Items = append(lit.Items, p.parseRangeExpr())
		if p.cur().Kind != token.COMMA {
			break
		}
		p.advance()
	}
	p.ignoreNewLines(false)
	rbrack, _ := p.expect(token.RBRACK)
	lit.Rbrack = rbrack.Span.End
	return lit
}

func (p *Parser) parseDictionaryLiteral() *ast.DictionaryLiteral {
	lbrace := p.advance()
	p.ignoreNewLines(true)
	lit := &ast.DictionaryLiteral{Lbrace: lbrace.Span.Start}
	for p.cur().Kind != token.RBRACE && p.cur().Kind != token.EOF {
		key := p.parseRangeExpr()
		p.expect(token.COLON)
		value := p.parseRangeExpr()
		lit.Items = append(lit.Items, ast.DictionaryEntry{Key: key, Value: value})
		if p.cur().Kind != token.COMMA {
			break
		}
		p.advance()
	}
	p.ignoreNewLines(false)
	rbrace, _ := p.expect(token.RBRACE)
	lit.Rbrace = rbrace.Span.End
	return lit
}

// parseStringInterpolation assembles a StringInterpolation from the
// OPEN_INTERPOLATION/INTERPOLATION/CLOSED_INTERPOLATION token protocol (spec
// §4.1), toggling the scanner's Interpolating flag around each embedded
// expression so the scanner knows whether to lex code or resume the string
// body.
func (p *Parser) parseStringInterpolation() *ast.StringInterpolation {
	open := p.cur()
	result := &ast.StringInterpolation{StartPos: open.Span.Start, Fragments: []string{open.Str}}

	// The scanner set Interpolating=true as a side effect of emitting this
	// token; clear it so the token after it is lexed as ordinary code, not as
	// a resumed string body.
	p.scanner.Interpolating = false
	p.advance()

	for {
		expr := p.parseExpr()
		result.Exprs = append(result.Exprs, expr)

		cur := p.cur()
		if cur.Kind != token.RBRACE {
			p.errorExpected(cur, "}")
		}
		// Flip Interpolating before consuming the closing brace: the scan
		// triggered by that advance must resume the string body.
		p.scanner.Interpolating = true
		p.advance()

		next := p.cur()
		result.Fragments = append(result.Fragments, next.Str)
		if next.Kind == token.CLOSED_INTERPOLATION {
			result.EndPos = next.Span.End
			p.advance()
			return result
		}
		if next.Kind != token.INTERPOLATION {
			p.errorExpected(next, "interpolation fragment")
			result.EndPos = next.Span.End
			return result
		}
		p.scanner.Interpolating = false
		p.advance()
	}
}
