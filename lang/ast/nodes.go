package ast

import (
	"github.com/atjhc/sif-sub001/lang/token"
)

// Comment represents a `--` line comment. Comments are not attached to the
// tree; the parser keeps their ranges separately for the annotator (spec
// §4.1: comments are discarded by the parser but their ranges are kept for
// semantic highlighting).
type Comment struct {
	Start token.Pos
	Raw   string
}

func (n *Comment) Span() token.Range {
	return token.Range{Start: n.Start, End: token.Pos{
		Offset: n.Start.Offset + len(n.Raw),
		Line:   n.Start.Line,
		Column: n.Start.Column + len(n.Raw),
	}}
}
func (n *Comment) Walk(_ Visitor) {}
func (n *Comment) String() string { return "comment" }
