package annotate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atjhc/sif-sub001/lang/annotate"
	"github.com/atjhc/sif-sub001/lang/grammar"
	"github.com/atjhc/sif-sub001/lang/parser"
	"github.com/atjhc/sif-sub001/lang/token"
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

func annotateSource(t *testing.T, src string) ([]byte, []annotate.Annotation) {
	t.Helper()
	reporter := &collectingReporter{}
	p := parser.New("test.sif", []byte(src), printTrie(t), reporter, nil)
	prog := p.Parse()
	require.Empty(t, reporter.messages, "parse errors")
	return []byte(src), annotate.Annotate(prog, p.Comments())
}

func findKind(anns []annotate.Annotation, k annotate.Kind) []annotate.Annotation {
	var out []annotate.Annotation
	for _, a := range anns {
		if a.Kind == k {
			out = append(out, a)
		}
	}
	return out
}

func TestAnnotateLiteralsAndVariables(t *testing.T) {
	_, anns := annotateSource(t, "set x to 1 + 2.5\nprint x\n")

	require.NotEmpty(t, findKind(anns, annotate.Variable))
	require.NotEmpty(t, findKind(anns, annotate.Number))
	require.NotEmpty(t, findKind(anns, annotate.Operator))
	require.NotEmpty(t, findKind(anns, annotate.Function))
}

func TestAnnotateStringAndComment(t *testing.T) {
	_, anns := annotateSource(t, "-- a greeting\nprint \"hi\"\n")

	strs := findKind(anns, annotate.String)
	require.Len(t, strs, 1)

	comments := findKind(anns, annotate.Comment)
	require.Len(t, comments, 1)
	require.True(t, comments[0].Range.Start.Line < strs[0].Range.Start.Line)
}

func TestAnnotateUseStmtIsNamespace(t *testing.T) {
	_, anns := annotateSource(t, "use greeter\n")

	ns := findKind(anns, annotate.Namespace)
	require.Len(t, ns, 1)
	require.Equal(t, 4, ns[0].Range.Start.Column, "path starts right after \"use \"")
}

func TestAnnotateSortedBySourceOrder(t *testing.T) {
	_, anns := annotateSource(t, "set x to 1\nset y to 2\n")

	for i := 1; i < len(anns); i++ {
		prev, cur := anns[i-1].Range.Start, anns[i].Range.Start
		require.False(t, cur.Line < prev.Line || (cur.Line == prev.Line && cur.Column < prev.Column))
	}
}

func TestEncodeSemanticTokensDeltaEncodes(t *testing.T) {
	src, anns := annotateSource(t, "set x to 1\nprint x\n")
	tokens := annotate.EncodeSemanticTokens(src, anns)
	require.Equal(t, len(anns)*5, len(tokens))

	// Reconstruct absolute (line, col) from the deltas and check it matches
	// each annotation's own Range.Start exactly.
	line, col := 0, 0
	for i, a := range anns {
		deltaLine, deltaCol, length := tokens[i*5], tokens[i*5+1], tokens[i*5+2]
		if deltaLine > 0 {
			col = 0
		}
		line += int(deltaLine)
		col += int(deltaCol)
		require.Equal(t, a.Range.Start.Line, line)
		require.Equal(t, a.Range.Start.Column, col, "ASCII source: byte column == rune column")
		require.Equal(t, a.Range.End.Offset-a.Range.Start.Offset, int(length))
	}
}
