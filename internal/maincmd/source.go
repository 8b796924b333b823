package maincmd

import (
	"errors"
	"io"
	"os"

	"github.com/mna/mainer"

	"github.com/atjhc/sif-sub001/lang/ast"
	"github.com/atjhc/sif-sub001/lang/compiler"
	"github.com/atjhc/sif-sub001/lang/grammar"
	"github.com/atjhc/sif-sub001/lang/module"
	"github.com/atjhc/sif-sub001/lang/parser"
	"github.com/atjhc/sif-sub001/lang/reporter"
)

var errParseFailed = errors.New("parse failed")
var errCompileFailed = errors.New("compile failed")

// readSource returns the named file's contents, or stdin's if path is "".
func readSource(stdio mainer.Stdio, path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(stdio.Stdin)
	}
	return os.ReadFile(path)
}

// builtinTrie returns the grammar trie every sif program is parsed against:
// just the `print {}` call form the compiler special-cases into the Show
// opcode (spec §6's "Core/System builtin function implementations" are out
// of scope, but `print` is language syntax, not a stdlib function, so it is
// always registered — matching every parser/compiler test's own printTrie
// helper).
func builtinTrie() *grammar.Trie {
	trie := grammar.NewTrie()
	_ = trie.Insert(grammar.Signature{Terms: []grammar.Term{
		{Kind: grammar.KeywordTerm, Keyword: "print"},
		{Kind: grammar.ArgumentTerm, Targets: []grammar.ArgumentTarget{{Name: "value"}}},
	}})
	return trie
}

// noModuleProvider rejects every `use`/`using` path: the module loader's
// file-system search strategy is an out-of-scope external collaborator
// (spec §1 Non-goals). Wiring it here still exercises the parser's
// module.Provider pre-registration path (lang/parser's importModule) end
// to end; a host embedding this CLI's pieces would supply a real Provider
// in its place.
type noModuleProvider struct{}

func (noModuleProvider) Module(name string) (*module.Module, error) {
	return nil, module.ErrModuleNotFound
}

// parseSource parses src, streaming any diagnostics to stderr immediately
// (spec §4.3: a failed parse's AST must not be compiled, so the caller
// must check the returned error before doing anything else with prog).
func parseSource(stderr io.Writer, filename string, src []byte) (*ast.Program, error) {
	rep := &reporter.Streaming{Output: stderr, Filename: filename}
	p := parser.New(filename, src, builtinTrie(), rep, nil)
	p.SetModuleProvider(noModuleProvider{})
	prog := p.Parse()
	if p.Failed() {
		return nil, errParseFailed
	}
	return prog, nil
}

// compileSource lowers prog to bytecode, streaming any diagnostics to
// stderr immediately.
func compileSource(stderr io.Writer, filename string, prog *ast.Program) (*compiler.Function, error) {
	rep := &reporter.Streaming{Output: stderr, Filename: filename}
	c := compiler.New(filename, rep)
	fn := c.Compile(prog)
	if c.Failed() {
		return nil, errCompileFailed
	}
	return fn, nil
}
