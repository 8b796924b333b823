package reporter_test

import (
	"bytes"
	"testing"

	"github.com/atjhc/sif-sub001/lang/reporter"
	"github.com/atjhc/sif-sub001/lang/token"
	"github.com/stretchr/testify/require"
)

func rangeAt(line, col int) token.Range {
	pos := token.Pos{Offset: 0, Line: line, Column: col}
	return token.Range{Start: pos, End: pos}
}

func TestCapturingAccumulatesInOrder(t *testing.T) {
	var c reporter.Capturing
	require.False(t, c.Failed())

	c.Report(rangeAt(0, 0), "unexpected token")
	c.Report(rangeAt(1, 4), "undefined variable: x")
	require.True(t, c.Failed())
	require.Len(t, c.Diagnostics, 2)
	require.Equal(t, "unexpected token", c.Diagnostics[0].Message)
	require.Equal(t, "undefined variable: x", c.Diagnostics[1].Message)
}

func TestCapturingReset(t *testing.T) {
	var c reporter.Capturing
	c.Report(rangeAt(0, 0), "boom")
	require.True(t, c.Failed())

	c.Reset()
	require.False(t, c.Failed())
	require.Empty(t, c.Diagnostics)
}

func TestStreamingWritesEachDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	s := reporter.Streaming{Output: &buf, Filename: "test.sif"}

	s.Report(rangeAt(0, 0), "unexpected token")
	s.Report(rangeAt(1, 4), "undefined variable: x")

	require.True(t, s.Failed())
	require.Equal(t, 2, s.Count)
	require.Equal(t, "test.sif:1:1: unexpected token\ntest.sif:2:5: undefined variable: x\n", buf.String())
}
