// Package parser implements the signature-directed Pratt parser that turns a
// token stream into the ast package's tree, per spec §4.3.
package parser

import (
	"strings"

	"github.com/atjhc/sif-sub001/lang/ast"
	"github.com/atjhc/sif-sub001/lang/grammar"
	"github.com/atjhc/sif-sub001/lang/module"
	"github.com/atjhc/sif-sub001/lang/scanner"
	"github.com/atjhc/sif-sub001/lang/token"
)

// Reader supplies additional source when the parser runs out of buffered
// input but is still inside an open block — e.g. a REPL waiting for the
// rest of a multi-line "if" (spec §4.3, "Read-ahead for multi-line
// constructs").
type Reader interface {
	// Readable reports whether more input may become available.
	Readable() bool

	// ReadMore returns the next chunk of source. depth is the parser's
	// current scope nesting, for prompt rendering.
	ReadMore(depth int) ([]byte, error)
}

// Reporter receives parse errors as they are found.
type Reporter interface {
	Report(rang token.Range, message string)
}

type scope struct {
	signatures map[string]grammar.Signature
	variables  map[string]bool
}

func newScope() *scope {
	return &scope{signatures: make(map[string]grammar.Signature), variables: make(map[string]bool)}
}

// Parser consumes a token stream and produces an *ast.Program.
type Parser struct {
	scanner  scanner.Scanner
	grammar  *grammar.Trie
	reporter Reporter
	reader   Reader
	filename string

	buf   []token.Token
	pos   int
	marks []int

	comments []*ast.Comment

	scopes       []*scope
	parsingDepth int
	failed       bool

	modules module.Provider
}

// New creates a Parser over src. gram is the grammar trie of call signatures
// visible at the top level (built-ins plus any the driver pre-declares);
// reader may be nil, in which case the parser never asks for more input.
func New(filename string, src []byte, gram *grammar.Trie, reporter Reporter, reader Reader) *Parser {
	p := &Parser{
		grammar:  gram,
		reporter: reporter,
		reader:   reader,
		filename: filename,
		scopes:   []*scope{newScope()},
	}
	p.scanner.Reset(src, p.onScanError)
	p.fillTo(0)
	return p
}

func (p *Parser) onScanError(pos token.Pos, msg string) {
	p.failed = true
	if p.reporter != nil {
		p.reporter.Report(token.Range{Start: pos, End: pos}, msg)
	}
}

// Failed reports whether any parse or lexical error occurred. Per spec
// §4.3, a failed parse's AST (even if returned) must not be compiled.
func (p *Parser) Failed() bool { return p.failed }

// Comments returns the line comments collected while parsing, in source
// order, for the annotator.
func (p *Parser) Comments() []*ast.Comment { return p.comments }

func (p *Parser) scanOne() token.Token {
	for {
		tok := p.scanner.Scan()
		switch tok.Kind {
		case token.COMMENT:
			p.comments = append(p.comments, &ast.Comment{Start: tok.Span.Start, Raw: tok.Text})
			continue
		case token.ERROR:
			p.error(tok.Span, tok.Text)
			continue
		default:
			return tok
		}
	}
}

func (p *Parser) fillTo(i int) {
	for len(p.buf) <= i {
		if i >= len(p.buf) && len(p.buf) > 0 && p.buf[len(p.buf)-1].Kind == token.EOF {
			p.tryReadMore()
		}
		if len(p.buf) <= i {
			p.buf = append(p.buf, p.scanOne())
		}
	}
}

func (p *Parser) tryReadMore() {
	if p.reader == nil || p.parsingDepth == 0 || !p.reader.Readable() {
		return
	}
	more, err := p.reader.ReadMore(p.parsingDepth)
	if err != nil || len(more) == 0 {
		return
	}
	p.scanner.Extend(more)
	// Drop the EOF token we were about to return; more input follows it.
	p.buf = p.buf[:len(p.buf)-1]
}

func (p *Parser) cur() token.Token {
	p.fillTo(p.pos)
	return p.buf[p.pos]
}

func (p *Parser) peek(n int) token.Token {
	p.fillTo(p.pos + n)
	return p.buf[p.pos+n]
}

func (p *Parser) advance() token.Token {
	tok := p.cur()
	p.pos++
	p.fillTo(p.pos)
	return tok
}

// checkpoint begins recording so a later rewind can restore the current
// position.
func (p *Parser) checkpoint() {
	p.marks = append(p.marks, p.pos)
}

// rewind restores the position saved by the most recent checkpoint.
func (p *Parser) rewind() {
	n := len(p.marks) - 1
	p.pos = p.marks[n]
	p.marks = p.marks[:n]
}

// commit accepts the progress made since the most recent checkpoint. When
// the outermost checkpoint commits, the buffer is trimmed to the tokens
// still reachable from the current position.
func (p *Parser) commit() {
	p.marks = p.marks[:len(p.marks)-1]
	if len(p.marks) == 0 && p.pos > 0 {
		p.buf = append([]token.Token(nil), p.buf[p.pos:]...)
		p.pos = 0
	}
}

func (p *Parser) ignoreNewLines(ignore bool) {
	p.scanner.IgnoreNewLines = ignore
}

func (p *Parser) error(rang token.Range, msg string) {
	p.failed = true
	if p.reporter != nil {
		p.reporter.Report(rang, msg)
	}
}

func (p *Parser) errorAt(pos token.Pos, msg string) {
	p.error(token.Range{Start: pos, End: pos}, msg)
}

func (p *Parser) errorExpected(tok token.Token, want string) {
	got := tok.Kind.String()
	if tok.Text != "" {
		got = tok.Text
	}
	p.error(tok.Span, "expected "+want+", found "+got)
}

// expect consumes the current token if its Kind is one of kinds, reporting
// an error and leaving the token stream unconsumed otherwise.
func (p *Parser) expect(kinds ...token.Kind) (token.Token, bool) {
	cur := p.cur()
	for _, k := range kinds {
		if cur.Kind == k {
			return p.advance(), true
		}
	}

	var names []string
	for _, k := range kinds {
		names = append(names, k.String())
	}
	p.errorExpected(cur, strings.Join(names, " or "))
	return cur, false
}

// synchronize advances past the next NEWLINE (or EOF), the parser's error
// recovery point (spec §4.3).
func (p *Parser) synchronize() {
	for p.cur().Kind != token.NEWLINE && p.cur().Kind != token.EOF {
		p.advance()
	}
	if p.cur().Kind == token.NEWLINE {
		p.advance()
	}
}

func (p *Parser) skipNewLines() {
	for p.cur().Kind == token.NEWLINE {
		p.advance()
	}
}

func (p *Parser) pushScope() {
	p.scopes = append(p.scopes, newScope())
}

func (p *Parser) popScope() {
	p.scopes = p.scopes[:len(p.scopes)-1]
}

func (p *Parser) declareVariable(name string) {
	p.scopes[len(p.scopes)-1].variables[strings.ToLower(name)] = true
}

func (p *Parser) declareSignature(sig grammar.Signature) {
	name := sig.NormalizedName()
	p.scopes[len(p.scopes)-1].signatures[name] = sig
	if err := p.grammar.Insert(sig); err != nil {
		p.errorAt(p.cur().Span.Start, err.Error())
	}
}

// SetModuleProvider wires a module.Provider into the parser so a `use` or
// `using` statement can pre-register its target's exported signatures into
// the shared grammar trie, letting later statements in scope call them.
// A nil provider (the default) leaves `use`/`using` parseable as bare
// statements but unable to introduce new call forms.
func (p *Parser) SetModuleProvider(provider module.Provider) {
	p.modules = provider
}

// importModule resolves path through the configured module.Provider and
// declares each of its exported signatures into the current scope, so the
// rest of the enclosing block can call them. Resolution failures are
// reported as parse errors rather than deferred to compile/run time, since
// a `use`/`using` target must be known before its calls can be parsed.
func (p *Parser) importModule(path string, pos token.Pos) {
	if p.modules == nil {
		return
	}
	mod, err := p.modules.Module(path)
	if err != nil {
		p.errorAt(pos, "cannot import \""+path+"\": "+err.Error())
		return
	}
	for _, sig := range mod.Signatures {
		p.declareSignature(sig)
	}
}

// isKnownVariable reports whether name was declared in the current scope or
// any enclosing one.
func (p *Parser) isKnownVariable(name string) bool {
	lowered := strings.ToLower(name)
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if p.scopes[i].variables[lowered] {
			return true
		}
	}
	return false
}

// Parse parses a full program: a sequence of statements until EOF.
func (p *Parser) Parse() *ast.Program {
	block := p.parseBlock(token.EOF)
	eof, _ := p.expect(token.EOF)
	return &ast.Program{Name: p.filename, Block: block, EOF: eof.Span.Start}
}
