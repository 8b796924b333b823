package ast

import (
	"strings"

	"github.com/atjhc/sif-sub001/lang/token"
)

// BinaryOp is the operator of a BinaryExpr.
type BinaryOp uint8

//nolint:revive
const (
	And BinaryOp = iota
	Or
	Equal
	NotEqual
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	Plus
	Minus
	Multiply
	Divide
	Modulo
	Exponent
	Subscript
)

var binaryOpNames = [...]string{
	And: "and", Or: "or", Equal: "=", NotEqual: "<>",
	LessThan: "<", GreaterThan: ">", LessThanOrEqual: "<=", GreaterThanOrEqual: ">=",
	Plus: "+", Minus: "-", Multiply: "*", Divide: "/", Modulo: "%", Exponent: "^",
	Subscript: "[]",
}

func (op BinaryOp) String() string { return binaryOpNames[op] }

// UnaryOp is the operator of a UnaryExpr.
type UnaryOp uint8

//nolint:revive
const (
	Negate UnaryOp = iota
	Not
)

func (op UnaryOp) String() string {
	if op == Negate {
		return "-"
	}
	return "not"
}

// Scope disambiguates a Variable reference forced to a particular scope by
// an explicit "global"/"local" keyword; ScopeNone means the compiler must
// resolve it by the usual lexical search.
type Scope uint8

//nolint:revive
const (
	ScopeNone Scope = iota
	Local
	Global
)

type (
	// BadExpr represents an expression that failed to parse.
	BadExpr struct {
		Start, End token.Pos
	}

	// BinaryExpr represents a binary expression, e.g. x + y or list[i].
	BinaryExpr struct {
		Left  Expr
		Op    BinaryOp
		OpPos token.Pos
		Right Expr
	}

	// UnaryExpr represents a unary expression, e.g. -x or not x.
	UnaryExpr struct {
		Op    UnaryOp
		OpPos token.Pos
		Right Expr
	}

	// GroupingExpr represents a parenthesized expression.
	GroupingExpr struct {
		Lparen token.Pos
		Expr   Expr
		Rparen token.Pos
	}

	// VariableExpr represents a reference to a named variable, optionally
	// forced to a scope by an explicit "global"/"local" keyword.
	VariableExpr struct {
		NamePos token.Pos
		Name    string
		Scope   Scope
	}

	// RangeLiteral represents a `...` (closed) or `..<` (open) range
	// expression.
	RangeLiteral struct {
		Start  Expr
		OpPos  token.Pos
		Closed bool
		End    Expr
	}

	// ListLiteral represents a `[a, b, c]` list literal.
	ListLiteral struct {
		Lbrack token.Pos
		Items  []Expr
		Rbrack token.Pos
	}

	// DictionaryEntry is one `key: value` pair of a DictionaryLiteral.
	DictionaryEntry struct {
		Key   Expr
		Value Expr
	}

	// DictionaryLiteral represents a `{k: v, ...}` dictionary literal.
	DictionaryLiteral struct {
		Lbrace token.Pos
		Items  []DictionaryEntry
		Rbrace token.Pos
	}

	// Literal represents a literal int, float, string, bool, or empty value.
	Literal struct {
		TokenKind token.Kind // INT, FLOAT, STRING, or WORD (for true/false/empty)
		StartPos  token.Pos
		Raw       string      // original spelling
		Value     interface{} // int64 | float64 | string | bool | nil (Empty)
	}

	// StringInterpolation represents a string literal containing one or more
	// `{expr}` splices. Fragments holds the string pieces around the splices
	// (possibly empty, with one before the first and one after the last
	// splice), interleaved with Exprs.
	StringInterpolation struct {
		StartPos token.Pos
		Fragments []string // len(Fragments) == len(Exprs)+1
		Exprs     []Expr
		EndPos    token.Pos
	}

	// CallExpr represents a call matched against a signature from the
	// grammar trie, e.g. `put x into y` or `the length of s`.
	CallExpr struct {
		// Name is the normalized signature name (grammar.Signature's
		// NormalizedName, e.g. "put {} into {}"), used to look up the compiled
		// function/native.
		Name string

		// Words holds the literal keyword/choice tokens of the call, in
		// signature order, for diagnostics and the annotator.
		Words []token.Token

		Args      []Expr
		ArgRanges []token.Range // one per Args entry, for native call diagnostics
		Start     token.Pos
		End       token.Pos
	}
)

func (n *BadExpr) Span() token.Range      { return token.Range{Start: n.Start, End: n.End} }
func (n *BadExpr) Walk(v Visitor)         {}
func (n *BadExpr) String() string         { return "<bad expr>" }
func (n *BadExpr) expr()                  {}

func (n *BinaryExpr) Span() token.Range {
	start := n.Left.Span().Start
	end := n.Right.Span().End
	return token.Range{Start: start, End: end}
}
func (n *BinaryExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *BinaryExpr) String() string { return "binary " + n.Op.String() }
func (n *BinaryExpr) expr()          {}

func (n *UnaryExpr) Span() token.Range {
	return token.Range{Start: n.OpPos, End: n.Right.Span().End}
}
func (n *UnaryExpr) Walk(v Visitor) { Walk(v, n.Right) }
func (n *UnaryExpr) String() string { return "unary " + n.Op.String() }
func (n *UnaryExpr) expr()          {}

func (n *GroupingExpr) Span() token.Range { return token.Range{Start: n.Lparen, End: n.Rparen} }
func (n *GroupingExpr) Walk(v Visitor)    { Walk(v, n.Expr) }
func (n *GroupingExpr) String() string    { return "(expr)" }
func (n *GroupingExpr) expr()             {}

func (n *VariableExpr) Span() token.Range {
	return token.Range{Start: n.NamePos, End: token.Pos{
		Offset: n.NamePos.Offset + len(n.Name),
		Line:   n.NamePos.Line,
		Column: n.NamePos.Column + len(n.Name),
	}}
}
func (n *VariableExpr) Walk(v Visitor) {}
func (n *VariableExpr) String() string { return n.Name }
func (n *VariableExpr) expr()          {}

func (n *RangeLiteral) Span() token.Range {
	return token.Range{Start: n.Start.Span().Start, End: n.End.Span().End}
}
func (n *RangeLiteral) Walk(v Visitor) {
	Walk(v, n.Start)
	Walk(v, n.End)
}
func (n *RangeLiteral) String() string {
	if n.Closed {
		return "range ..."
	}
	return "range ..<"
}
func (n *RangeLiteral) expr() {}

func (n *ListLiteral) Span() token.Range { return token.Range{Start: n.Lbrack, End: n.Rbrack} }
func (n *ListLiteral) Walk(v Visitor) {
	for _, e := range n.Items {
		Walk(v, e)
	}
}
func (n *ListLiteral) String() string { return "list" }
func (n *ListLiteral) expr()          {}

func (n *DictionaryLiteral) Span() token.Range {
	return token.Range{Start: n.Lbrace, End: n.Rbrace}
}
func (n *DictionaryLiteral) Walk(v Visitor) {
	for _, e := range n.Items {
		Walk(v, e.Key)
		Walk(v, e.Value)
	}
}
func (n *DictionaryLiteral) String() string { return "dictionary" }
func (n *DictionaryLiteral) expr()          {}

func (n *Literal) Span() token.Range {
	return token.Range{Start: n.StartPos, End: token.Pos{
		Offset: n.StartPos.Offset + len(n.Raw),
		Line:   n.StartPos.Line,
		Column: n.StartPos.Column + len(n.Raw),
	}}
}
func (n *Literal) Walk(v Visitor) {}
func (n *Literal) String() string { return n.TokenKind.String() + " " + n.Raw }
func (n *Literal) expr()          {}

func (n *StringInterpolation) Span() token.Range {
	return token.Range{Start: n.StartPos, End: n.EndPos}
}
func (n *StringInterpolation) Walk(v Visitor) {
	for _, e := range n.Exprs {
		Walk(v, e)
	}
}
func (n *StringInterpolation) String() string { return "interpolated string" }
func (n *StringInterpolation) expr()           {}

func (n *CallExpr) Span() token.Range { return token.Range{Start: n.Start, End: n.End} }
func (n *CallExpr) Walk(v Visitor) {
	for _, e := range n.Args {
		Walk(v, e)
	}
}
func (n *CallExpr) String() string { return "call " + n.Name }
func (n *CallExpr) expr()          {}

// NormalizeSignatureName lowercases and joins keyword words with a single
// space, the same normalization the grammar trie uses for signature names.
func NormalizeSignatureName(words []string) string {
	lowered := make([]string, len(words))
	for i, w := range words {
		lowered[i] = strings.ToLower(w)
	}
	return strings.Join(lowered, " ")
}
