package compiler_test

import (
	"testing"

	"github.com/atjhc/sif-sub001/lang/compiler"
	"github.com/atjhc/sif-sub001/lang/grammar"
	"github.com/atjhc/sif-sub001/lang/parser"
	"github.com/atjhc/sif-sub001/lang/token"
	"github.com/stretchr/testify/require"
)

type collectingReporter struct {
	messages []string
}

func (r *collectingReporter) Report(rang token.Range, message string) {
	r.messages = append(r.messages, message)
}

// printTrie returns a grammar trie with the `print {}` built-in already
// registered, the way a host driver must before parsing any source that
// calls it (spec §6).
func printTrie(t *testing.T) *grammar.Trie {
	t.Helper()
	trie := grammar.NewTrie()
	err := trie.Insert(grammar.Signature{Terms: []grammar.Term{
		{Kind: grammar.KeywordTerm, Keyword: "print"},
		{Kind: grammar.ArgumentTerm, Targets: []grammar.ArgumentTarget{{Name: "value"}}},
	}})
	require.NoError(t, err)
	return trie
}

func compile(t *testing.T, src string) (*compiler.Function, *collectingReporter) {
	t.Helper()
	reporter := &collectingReporter{}
	p := parser.New("test.sif", []byte(src), printTrie(t), reporter, nil)
	prog := p.Parse()
	require.Empty(t, reporter.messages, "parse errors")

	c := compiler.New("test.sif", reporter)
	fn := c.Compile(prog)
	require.False(t, c.Failed(), "compile errors: %v", reporter.messages)
	return fn, reporter
}

func TestCompilePrintArithmetic(t *testing.T) {
	fn, _ := compile(t, "print 10 + 5\n")
	out := compiler.Disassemble(fn)
	require.Contains(t, out, "short")
	require.Contains(t, out, "add")
	require.Contains(t, out, "show")
	require.Contains(t, out, "set-it")
}

func TestCompileAssignmentAndVariableRead(t *testing.T) {
	fn, _ := compile(t, "set x to 5\nprint x\n")
	require.Equal(t, []string{"", "x"}, fn.Locals)
	out := compiler.Disassemble(fn)
	require.Contains(t, out, "get-local")
	require.Contains(t, out, "show")
}

func TestCompileRepeatForOverRange(t *testing.T) {
	fn, _ := compile(t, "repeat for i in 1...3\nprint i\nend repeat\n")
	out := compiler.Disassemble(fn)
	require.Contains(t, out, "closed-range")
	require.Contains(t, out, "get-enumerator")
	require.Contains(t, out, "jump-if-at-end")
	require.Contains(t, out, "enumerate")
	require.Contains(t, out, "repeat")
}

func TestCompileIfElse(t *testing.T) {
	fn, _ := compile(t, "if 1 > 0 then\nprint 1\nelse\nprint 2\nend if\n")
	out := compiler.Disassemble(fn)
	require.Contains(t, out, "greater-than")
	require.Contains(t, out, "jump-if-false")
}

func TestCompileTry(t *testing.T) {
	fn, _ := compile(t, "try\nprint 1\nend try\n")
	out := compiler.Disassemble(fn)
	require.Contains(t, out, "push-jump")
	require.Contains(t, out, "pop-jump")
}

func TestCompileFunctionDeclAndCall(t *testing.T) {
	reporter := &collectingReporter{}
	trie := printTrie(t)
	p := parser.New("test.sif", []byte("function greet {who}\nprint \"hi\"\nend function\ngreet 1\n"), trie, reporter, nil)
	prog := p.Parse()
	require.Empty(t, reporter.messages)

	c := compiler.New("test.sif", reporter)
	fn := c.Compile(prog)
	require.False(t, c.Failed())

	require.Len(t, fn.Constants, 2) // nested *Function + the "greet {}" global name string
	var nested *compiler.Function
	for _, k := range fn.Constants {
		if nf, ok := k.(*compiler.Function); ok {
			nested = nf
		}
	}
	require.NotNil(t, nested)
	require.Equal(t, "greet {}", nested.Name)
	require.Equal(t, 1, nested.NumParams)

	out := compiler.Disassemble(fn)
	require.Contains(t, out, "make-closure")
	require.Contains(t, out, "set-global")
	require.Contains(t, out, "call")
}

func TestCompileDestructuringAssignment(t *testing.T) {
	fn, _ := compile(t, "set (a, b) to 1, 2\nprint a\n")
	out := compiler.Disassemble(fn)
	require.Contains(t, out, "unpack-list")
}

func TestCompileStringInterpolation(t *testing.T) {
	fn, _ := compile(t, "set name to \"world\"\nprint \"hello {name}\"\n")
	out := compiler.Disassemble(fn)
	require.Contains(t, out, "to-string")
}

func TestCompileExitRepeatOutsideLoopIsError(t *testing.T) {
	reporter := &collectingReporter{}
	p := parser.New("test.sif", []byte("exit repeat\n"), printTrie(t), reporter, nil)
	prog := p.Parse()
	require.Empty(t, reporter.messages)

	c := compiler.New("test.sif", reporter)
	c.Compile(prog)
	require.True(t, c.Failed())
	require.NotEmpty(t, reporter.messages)
}
