package parser

import (
	"strings"

	"github.com/atjhc/sif-sub001/lang/ast"
	"github.com/atjhc/sif-sub001/lang/grammar"
	"github.com/atjhc/sif-sub001/lang/token"
)

// parseBlock parses a sequence of NEWLINE-separated statements until the
// current token is one of end, or EOF.
func (p *Parser) parseBlock(end ...token.Kind) *ast.Block {
	p.parsingDepth++
	defer func() { p.parsingDepth-- }()

	block := &ast.Block{Start: p.cur().Span.Start}
	p.skipNewLines()
	for !p.atBlockEnd(end) {
		stmt := p.parseStmt()
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
		if p.atBlockEnd(end) {
			break
		}
		if p.cur().Kind == token.NEWLINE {
			p.advance()
		} else {
			p.errorExpected(p.cur(), "newline")
			p.synchronize()
		}
		p.skipNewLines()
	}
	block.End = p.cur().Span.Start
	return block
}

func (p *Parser) atBlockEnd(end []token.Kind) bool {
	cur := p.cur().Kind
	if cur == token.EOF {
		return true
	}
	for _, k := range end {
		if cur == k {
			return true
		}
	}
	return false
}

// parseEnd consumes the `end` keyword that closes a block form, along with
// its optional trailing keyword (e.g. `end if`, or bare `end`).
func (p *Parser) parseEnd(optional token.Kind) token.Pos {
	end, _ := p.expect(token.END)
	if p.cur().Kind == optional {
		end = p.advance()
	}
	return end.Span.End
}

// parseStmt parses a single statement. It returns nil (after reporting an
// error and synchronizing) when the current token cannot start a statement.
func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur().Kind {
	case token.FUNCTION:
		return p.parseFunctionDecl()
	case token.IF:
		return p.parseIf()
	case token.TRY:
		return p.parseTry()
	case token.USE:
		return p.parseUse()
	case token.USING:
		return p.parseUsing()
	case token.REPEAT:
		return p.parseRepeat()
	case token.SET:
		return p.parseAssignment()
	case token.EXIT:
		return p.parseExitRepeat()
	case token.NEXT:
		return p.parseNextRepeat()
	case token.RETURN:
		return p.parseReturn()
	case token.EOF, token.NEWLINE:
		return nil
	default:
		return p.parseSimpleStmt()
	}
}

// parseSimpleStmt parses the statement forms allowed in the single-line
// bodies of `if`/`try` (anything but another block-form construct), and the
// bare-expression-statement fallback used at block level.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	switch p.cur().Kind {
	case token.SET:
		return p.parseAssignment()
	case token.EXIT:
		return p.parseExitRepeat()
	case token.NEXT:
		return p.parseNextRepeat()
	case token.RETURN:
		return p.parseReturn()
	default:
		expr := p.parseExpr()
		return &ast.ExpressionStmt{Expr: expr}
	}
}

func (p *Parser) parseFunctionDecl() *ast.FunctionDecl {
	fnPos, _ := p.expect(token.FUNCTION)

	p.pushScope()
	words, params, sig := p.parseSignature()
	// Declared before the body is parsed so a function may call itself
	// recursively by its own signature.
	p.declareSignature(sig)
	body := p.parseBlock(token.END)
	p.popScope()

	end := p.parseEnd(token.FUNCTION)

	return &ast.FunctionDecl{
		Function: fnPos.Span.Start,
		Name:     sig.NormalizedName(),
		Words:    words,
		Params:   params,
		Body:     body,
		End:      end,
	}
}

// parseSignature parses the keyword/choice/argument terms of a function
// declaration's call signature (spec §4.2), declaring each argument's
// parameter name(s) as locals visible in the body.
func (p *Parser) parseSignature() ([]token.Token, []*ast.Param, grammar.Signature) {
	var words []token.Token
	var params []*ast.Param
	var terms []grammar.Term

	for {
		switch p.cur().Kind {
		case token.WORD:
			tok := p.advance()
			words = append(words, tok)
			terms = append(terms, grammar.Term{Kind: grammar.KeywordTerm, Keyword: lowerToken(tok)})
		case token.LPAREN:
			param, targets := p.parseSignatureArgument()
			params = append(params, param)
			terms = append(terms, grammar.Term{Kind: grammar.ArgumentTerm, Targets: targets})
		case token.LBRACE:
			param, targets := p.parseSignatureArgumentBrace()
			params = append(params, param)
			terms = append(terms, grammar.Term{Kind: grammar.ArgumentTerm, Targets: targets})
		case token.LBRACK:
			p.advance()
			param, targets := p.parseSignatureArgumentNames()
			p.expect(token.RBRACK)
			params = append(params, param)
			terms = append(terms, grammar.Term{Kind: grammar.ArgumentTerm, Targets: targets})
		default:
			if p.isSignatureDone() {
				return words, params, grammar.Signature{Terms: terms}
			}
			p.errorExpected(p.cur(), "signature word or argument")
			p.advance()
		}
	}
}

func (p *Parser) isSignatureDone() bool {
	switch p.cur().Kind {
	case token.NEWLINE, token.EOF:
		return true
	}
	return false
}

func lowerToken(tok token.Token) string {
	return strings.ToLower(tok.Text)
}

// parseSignatureArgument parses an argument slot written as `(name)`,
// optionally typed `(name: Type)`.
func (p *Parser) parseSignatureArgument() (*ast.Param, []grammar.ArgumentTarget) {
	lparen, _ := p.expect(token.LPAREN)
	nameTok, _ := p.expect(token.WORD)
	p.declareVariable(nameTok.Text)
	param := &ast.Param{Names: []string{nameTok.Text}, Pos: lparen.Span.Start}
	target := grammar.ArgumentTarget{Name: nameTok.Text}
	if p.cur().Kind == token.COLON {
		p.advance()
		typeTok, _ := p.expect(token.WORD)
		target.TypeName = typeTok.Text
	}
	p.expect(token.RPAREN)
	return param, []grammar.ArgumentTarget{target}
}

// parseSignatureArgumentBrace parses an argument slot written as `{name}`,
// the brace-delimited alternative to `(name)` used throughout spec §8's
// examples; it binds identically to the paren form.
func (p *Parser) parseSignatureArgumentBrace() (*ast.Param, []grammar.ArgumentTarget) {
	lbrace, _ := p.expect(token.LBRACE)
	nameTok, _ := p.expect(token.WORD)
	p.declareVariable(nameTok.Text)
	param := &ast.Param{Names: []string{nameTok.Text}, Pos: lbrace.Span.Start}
	target := grammar.ArgumentTarget{Name: nameTok.Text}
	if p.cur().Kind == token.COLON {
		p.advance()
		typeTok, _ := p.expect(token.WORD)
		target.TypeName = typeTok.Text
	}
	p.expect(token.RBRACE)
	return param, []grammar.ArgumentTarget{target}
}

// parseSignatureArgumentNames parses a destructuring argument slot written
// as `[a, b, c]`, binding each name as a separate local.
func (p *Parser) parseSignatureArgumentNames() (*ast.Param, []grammar.ArgumentTarget) {
	var names []string
	var targets []grammar.ArgumentTarget
	pos := p.cur().Span.Start
	for {
		nameTok, _ := p.expect(token.WORD)
		p.declareVariable(nameTok.Text)
		names = append(names, nameTok.Text)
		targets = append(targets, grammar.ArgumentTarget{Name: nameTok.Text})
		if p.cur().Kind != token.COMMA {
			break
		}
		p.advance()
	}
	return &ast.Param{Names: names, Pos: pos}, targets
}

func (p *Parser) parseIf() *ast.IfStmt {
	ifPos, _ := p.expect(token.IF)
	cond := p.parseExpr()
	thenPos, _ := p.expect(token.THEN)

	stmt := &ast.IfStmt{If: ifPos.Span.Start, Cond: cond, Then: thenPos.Span.Start}

	if p.cur().Kind == token.NEWLINE {
		p.advance()
		stmt.Body = p.parseBlock(token.END, token.ELSE)
		if p.cur().Kind == token.ELSE {
			elsePos := p.advance()
			stmt.Else = elsePos.Span.Start
			if p.cur().Kind == token.IF {
				stmt.ElseIf = p.parseIf()
			} else {
				if p.cur().Kind == token.NEWLINE {
					p.advance()
				}
				stmt.ElseBody = p.parseBlock(token.END)
			}
		}
		stmt.End = p.parseEnd(token.IF)
		return stmt
	}

	simple := p.parseSimpleStmt()
	stmt.Body = &ast.Block{Stmts: []ast.Stmt{simple}}
	if p.cur().Kind == token.ELSE {
		elsePos := p.advance()
		stmt.Else = elsePos.Span.Start
		if p.cur().Kind == token.IF {
			stmt.ElseIf = p.parseIf()
		} else {
			other := p.parseSimpleStmt()
			stmt.ElseBody = &ast.Block{Stmts: []ast.Stmt{other}}
		}
	}
	return stmt
}

func (p *Parser) parseTry() *ast.TryStmt {
	tryPos, _ := p.expect(token.TRY)
	stmt := &ast.TryStmt{Try: tryPos.Span.Start}

	if p.cur().Kind == token.NEWLINE {
		p.advance()
		stmt.Body = p.parseBlock(token.END)
		stmt.End = p.parseEnd(token.TRY)
		return stmt
	}

	simple := p.parseSimpleStmt()
	stmt.Body = &ast.Block{Stmts: []ast.Stmt{simple}}
	stmt.End = simple.Span().End
	return stmt
}

// parseUse parses `use path` (path is a single word), which imports path's
// exported signatures for the rest of the file (spec §6).
func (p *Parser) parseUse() *ast.UseStmt {
	usePos, _ := p.expect(token.USE)
	nameTok, _ := p.expect(token.WORD)
	p.importModule(nameTok.Text, nameTok.Span.Start)
	return &ast.UseStmt{Use: usePos.Span.Start, Path: nameTok.Text, End: nameTok.Span.End}
}

// parseUsing parses a `using path ... end using` block, importing path's
// exported signatures before Body is parsed. They go into the shared trie,
// so they stay parseable after `end using` as well.
func (p *Parser) parseUsing() *ast.UsingStmt {
	usingPos, _ := p.expect(token.USING)
	nameTok, _ := p.expect(token.WORD)
	if p.cur().Kind == token.NEWLINE {
		p.advance()
	}
	p.pushScope()
	p.importModule(nameTok.Text, nameTok.Span.Start)
	body := p.parseBlock(token.END)
	p.popScope()
	end := p.parseEnd(token.USING)
	return &ast.UsingStmt{Using: usingPos.Span.Start, Path: nameTok.Text, Body: body, End: end}
}

func (p *Parser) parseRepeat() ast.Stmt {
	repeatPos, _ := p.expect(token.REPEAT)

	switch p.cur().Kind {
	case token.WHILE, token.UNTIL:
		until := p.cur().Kind == token.UNTIL
		p.advance()
		cond := p.parseExpr()
		if p.cur().Kind == token.NEWLINE {
			p.advance()
		}
		body := p.parseBlock(token.END)
		end := p.parseEnd(token.REPEAT)
		return &ast.RepeatConditionStmt{Repeat: repeatPos.Span.Start, Until: until, Cond: cond, Body: body, End: end}

	case token.FOR:
		p.advance()
		vars := []*ast.VariableTarget{p.parseVariableTarget()}
		for p.cur().Kind == token.COMMA {
			p.advance()
			vars = append(vars, p.parseVariableTarget())
		}
		inPos, _ := p.expect(token.IN)
		src := p.parseExpr()
		if p.cur().Kind == token.NEWLINE {
			p.advance()
		}
		body := p.parseBlock(token.END)
		end := p.parseEnd(token.REPEAT)
		return &ast.RepeatForStmt{Repeat: repeatPos.Span.Start, Vars: vars, In: inPos.Span.Start, Source: src, Body: body, End: end}

	default:
		if p.cur().Kind == token.FOREVER {
			p.advance()
		}
		if p.cur().Kind == token.NEWLINE {
			p.advance()
		}
		body := p.parseBlock(token.END)
		end := p.parseEnd(token.REPEAT)
		return &ast.RepeatStmt{Repeat: repeatPos.Span.Start, Body: body, End: end}
	}
}

func (p *Parser) parseVariableTarget() *ast.VariableTarget {
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
	p.declareVariable(nameTok.Text)
	return &ast.VariableTarget{NamePos: nameTok.Span.Start, Name: nameTok.Text, Scope: scope}
}

func (p *Parser) parseExitRepeat() *ast.ExitRepeatStmt {
	start, _ := p.expect(token.EXIT)
	end, _ := p.expect(token.REPEAT)
	return &ast.ExitRepeatStmt{Start: start.Span.Start, End: end.Span.End}
}

func (p *Parser) parseNextRepeat() *ast.NextRepeatStmt {
	start, _ := p.expect(token.NEXT)
	end, _ := p.expect(token.REPEAT)
	return &ast.NextRepeatStmt{Start: start.Span.Start, End: end.Span.End}
}

func (p *Parser) parseReturn() *ast.ReturnStmt {
	retPos, _ := p.expect(token.RETURN)
	stmt := &ast.ReturnStmt{Return: retPos.Span.Start}
	if !p.atExprEnd() {
		stmt.Value = p.parseExpr()
	}
	return stmt
}

func (p *Parser) atExprEnd() bool {
	switch p.cur().Kind {
	case token.NEWLINE, token.EOF, token.END, token.ELSE:
		return true
	}
	return false
}

func (p *Parser) parseAssignment() *ast.AssignmentStmt {
	setPos, _ := p.expect(token.SET)
	targets := []ast.Target{p.parseTarget()}
	for p.cur().Kind == token.COMMA {
		p.advance()
		targets = append(targets, p.parseTarget())
	}
	toPos, _ := p.expect(token.TO)
	value := p.parseExpr()
	return &ast.AssignmentStmt{Set: setPos.Span.Start, Targets: targets, To: toPos.Span.Start, Value: value}
}

func (p *Parser) parseTarget() ast.Target {
	if p.cur().Kind == token.LPAREN {
		lparen := p.advance()
		targets := []ast.Target{p.parseTarget()}
		for p.cur().Kind == token.COMMA {
			p.advance()
			targets = append(targets, p.parseTarget())
		}
		rparen, _ := p.expect(token.RPAREN)
		return &ast.StructuredTarget{Lparen: lparen.Span.Start, Targets: targets, Rparen: rparen.Span.End}
	}

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
	p.declareVariable(nameTok.Text)

	target := &ast.VariableTarget{NamePos: nameTok.Span.Start, Name: nameTok.Text, Scope: scope}
	if p.cur().Kind == token.COLON {
		p.advance()
		typeTok, _ := p.expect(token.WORD)
		target.TypeName = typeTok.Text
	}
	for p.cur().Kind == token.LBRACK {
		p.advance()
		p.ignoreNewLines(true)
		idx := p.parseExpr()
		p.ignoreNewLines(false)
		p.expect(token.RBRACK)
		target.Subscripts = append(target.Subscripts, idx)
	}
	return target
}
