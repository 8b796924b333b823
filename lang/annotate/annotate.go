// Package annotate walks a parsed program and produces the semantic
// annotations an editor's syntax highlighting needs (spec §3, §6's LSP
// surface). The LSP server itself — the JSON-RPC wrapper that would send
// these over the wire — is an out-of-scope external collaborator (spec
// §1); only the annotation model and its walk live here.
package annotate

import (
	"sort"
	"unicode/utf8"

	"github.com/atjhc/sif-sub001/lang/ast"
	"github.com/atjhc/sif-sub001/lang/token"
)

// Kind is the semantic category of an Annotation, per spec §6's closed set.
type Kind uint8

//nolint:revive
const (
	Keyword Kind = iota
	Function
	Variable
	Operator
	String
	Number
	Comment
	Namespace
)

// Annotation marks one source range with a semantic Kind, e.g. for syntax
// highlighting. Modifiers is a bitmask the producer leaves to the caller's
// convention (spec §6 names the field but not a fixed bit layout); this
// package never sets it.
type Annotation struct {
	Range     token.Range
	Kind      Kind
	Modifiers uint32
}

// Annotate walks prog and returns every Annotation in source order,
// including comments (which the parser discards from the tree but keeps
// the ranges of, per spec §4.1, for exactly this purpose).
func Annotate(prog *ast.Program, comments []*ast.Comment) []Annotation {
	var anns []Annotation

	var visit ast.VisitorFunc
	visit = func(n ast.Node, dir ast.VisitDirection) ast.Visitor {
		if dir != ast.VisitEnter {
			return visit
		}
		switch t := n.(type) {
		case *ast.VariableExpr:
			anns = append(anns, Annotation{Range: t.Span(), Kind: Variable})
		case *ast.VariableTarget:
			anns = append(anns, Annotation{Range: nameRange(t.NamePos, t.Name), Kind: Variable})
		case *ast.CallExpr:
			for _, w := range t.Words {
				anns = append(anns, Annotation{Range: w.Span, Kind: Function})
			}
		case *ast.FunctionDecl:
			for _, w := range t.Words {
				anns = append(anns, Annotation{Range: w.Span, Kind: Function})
			}
		case *ast.Literal:
			switch t.TokenKind {
			case token.STRING:
				anns = append(anns, Annotation{Range: t.Span(), Kind: String})
			case token.INT, token.FLOAT:
				anns = append(anns, Annotation{Range: t.Span(), Kind: Number})
			case token.WORD:
				// true, false, empty — literal keywords, not identifiers.
				anns = append(anns, Annotation{Range: t.Span(), Kind: Keyword})
			}
		case *ast.StringInterpolation:
			anns = append(anns, Annotation{Range: t.Span(), Kind: String})
		case *ast.BinaryExpr:
			anns = append(anns, Annotation{Range: opRange(t.OpPos, t.Op.String()), Kind: Operator})
		case *ast.UnaryExpr:
			anns = append(anns, Annotation{Range: opRange(t.OpPos, t.Op.String()), Kind: Operator})
		case *ast.UseStmt:
			anns = append(anns, Annotation{Range: nameRange(endMinusLen(t.End, t.Path), t.Path), Kind: Namespace})
		case *ast.UsingStmt:
			anns = append(anns, Annotation{Range: nameRange(endMinusLen(t.Using, t.Path), t.Path), Kind: Namespace})
		}
		return visit
	}

	ast.Walk(visit, prog)

	for _, c := range comments {
		anns = append(anns, Annotation{Range: c.Span(), Kind: Comment})
	}

	sort.Slice(anns, func(i, j int) bool {
		a, b := anns[i].Range.Start, anns[j].Range.Start
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})

	return anns
}

// nameRange builds the range of a fixed-width, single-line token given its
// start position and text, the same reconstruction VariableExpr.Span and
// Literal.Span already do for nodes that only store a start position.
func nameRange(start token.Pos, name string) token.Range {
	return token.Range{Start: start, End: token.Pos{
		Offset: start.Offset + len(name),
		Line:   start.Line,
		Column: start.Column + len(name),
	}}
}

func opRange(pos token.Pos, op string) token.Range {
	return nameRange(pos, op)
}

// endMinusLen reconstructs a token's start position from its end position
// and text length. UseStmt/UsingStmt keep only the module path's end
// position (the WORD token's Span.End); its start follows the same single-
// line byte arithmetic nameRange uses in the other direction.
func endMinusLen(end token.Pos, text string) token.Pos {
	return token.Pos{
		Offset: end.Offset - len(text),
		Line:   end.Line,
		Column: end.Column - len(text),
	}
}

// EncodeSemanticTokens delta-encodes anns (assumed already in source order)
// per the LSP semantic-tokens wire format: five uint32s per token (Δline,
// Δcol, length, type, modifiers), with the UTF-8 byte offsets Annotation
// carries converted to code-point counts (spec §6). src is the original
// source the annotations were computed against.
func EncodeSemanticTokens(src []byte, anns []Annotation) []uint32 {
	lines := splitLines(src)

	out := make([]uint32, 0, len(anns)*5)
	prevLine, prevCol := 0, 0
	for _, a := range anns {
		line := a.Range.Start.Line
		col := runeColumn(lines, line, a.Range.Start.Column)
		length := utf8.RuneCount(sliceRange(src, a.Range))

		deltaLine := line - prevLine
		deltaCol := col
		if deltaLine == 0 {
			deltaCol = col - prevCol
		}

		out = append(out, uint32(deltaLine), uint32(deltaCol), uint32(length), uint32(a.Kind), a.Modifiers)
		prevLine, prevCol = line, col
	}
	return out
}

func splitLines(src []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range src {
		if b == '\n' {
			lines = append(lines, src[start:i])
			start = i + 1
		}
	}
	lines = append(lines, src[start:])
	return lines
}

// runeColumn converts a 0-based byte column on the given 0-based line to a
// 0-based code-point column.
func runeColumn(lines [][]byte, line, byteCol int) int {
	if line < 0 || line >= len(lines) {
		return 0
	}
	l := lines[line]
	if byteCol > len(l) {
		byteCol = len(l)
	}
	return utf8.RuneCount(l[:byteCol])
}

func sliceRange(src []byte, r token.Range) []byte {
	start, end := r.Start.Offset, r.End.Offset
	if start < 0 || end > len(src) || start > end {
		return nil
	}
	return src[start:end]
}
