package machine_test

import (
	"bytes"
	"testing"

	"github.com/atjhc/sif-sub001/lang/compiler"
	"github.com/atjhc/sif-sub001/lang/grammar"
	"github.com/atjhc/sif-sub001/lang/machine"
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

// runSource compiles and runs src on a fresh VM, matching spec §8's
// end-to-end scenarios table, and returns what was printed.
func runSource(t *testing.T, src string) (string, error) {
	t.Helper()
	reporter := &collectingReporter{}
	p := parser.New("test.sif", []byte(src), printTrie(t), reporter, nil)
	prog := p.Parse()
	require.Empty(t, reporter.messages, "parse errors")

	c := compiler.New("test.sif", reporter)
	fn := c.Compile(prog)
	require.False(t, c.Failed(), "compile errors: %v", reporter.messages)

	var out bytes.Buffer
	vm := machine.New(nil, nil, &out)
	_, err := vm.Run(fn)
	return out.String(), err
}

func TestPrintArithmetic(t *testing.T) {
	out, err := runSource(t, "print 10 + 5\n")
	require.NoError(t, err)
	require.Equal(t, "15\n", out)
}

func TestStringInterpolation(t *testing.T) {
	out, err := runSource(t, "set name to \"Ada\"\nprint \"Hi, {name}!\"\n")
	require.NoError(t, err)
	require.Equal(t, "Hi, Ada!\n", out)
}

func TestRepeatForOverClosedRange(t *testing.T) {
	out, err := runSource(t, "repeat for i in 1...3\nprint i\nend repeat\n")
	require.NoError(t, err)
	require.Equal(t, "1\n2\n3\n", out)
}

func TestDivideByZero(t *testing.T) {
	out, err := runSource(t, "print 1/0\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "divide by zero")
	require.Empty(t, out)
}

func TestUnpackListMismatch(t *testing.T) {
	out, err := runSource(t, "set (a, b) to [1, 2, 3]\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected 2 values but got 3")
	require.Empty(t, out)
}

func TestFunctionCallAndConcat(t *testing.T) {
	out, err := runSource(t, "function greet {who}\nreturn \"hi \" & who\nend function\nprint greet \"bob\"\n")
	require.NoError(t, err)
	require.Equal(t, "hi bob\n", out)
}

func TestListAndDictionaryLiterals(t *testing.T) {
	out, err := runSource(t, "set xs to [1, 2, 3]\nprint xs[1]\nset d to {\"a\": 1}\nprint d[\"a\"]\n")
	require.NoError(t, err)
	require.Equal(t, "2\n1\n", out)
}

func TestTryRecoversFromError(t *testing.T) {
	out, err := runSource(t, "try\nprint 1/0\nend try\nprint \"after\"\n")
	require.NoError(t, err)
	require.Equal(t, "after\n", out)
}

func TestRepeatWhile(t *testing.T) {
	out, err := runSource(t, "set i to 0\nrepeat while i < 3\nprint i\nset i to i + 1\nend repeat\n")
	require.NoError(t, err)
	require.Equal(t, "0\n1\n2\n", out)
}
