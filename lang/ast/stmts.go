package ast

import (
	"github.com/atjhc/sif-sub001/lang/token"
)

type (
	// VariableTarget is an assignable variable, optionally subscripted (e.g.
	// `x`, `local x`, `list[0]`).
	VariableTarget struct {
		NamePos    token.Pos
		Name       string
		Scope      Scope
		TypeName   string // optional type annotation, "" if absent
		Subscripts []Expr // zero or more chained `[expr]`
	}

	// StructuredTarget is a destructuring target, e.g. `(a, b, c)`.
	StructuredTarget struct {
		Lparen  token.Pos
		Targets []Target
		Rparen  token.Pos
	}

	// Param is one parameter of a function signature's argument slot. More
	// than one Name means the argument destructures into several locals.
	Param struct {
		Names []string
		Pos   token.Pos
	}

	// AssignmentStmt represents `set target[, target...] to expr`.
	AssignmentStmt struct {
		Set     token.Pos
		Targets []Target
		To      token.Pos
		Value   Expr
	}

	// ExpressionStmt is an expression used as a statement (a bare call); its
	// value becomes the new value of the implicit `it` register.
	ExpressionStmt struct {
		Expr Expr
	}

	// ReturnStmt represents `return [expr]`.
	ReturnStmt struct {
		Return token.Pos
		Value  Expr // may be nil
	}

	// ExitRepeatStmt represents `exit repeat`.
	ExitRepeatStmt struct {
		Start token.Pos
		End   token.Pos
	}

	// NextRepeatStmt represents `next repeat`.
	NextRepeatStmt struct {
		Start token.Pos
		End   token.Pos
	}

	// IfStmt represents `if cond then ... [else ...] end if`, in both its
	// block form and single-statement form.
	IfStmt struct {
		If       token.Pos
		Cond     Expr
		Then     token.Pos
		Body     *Block    // nil when the single-statement form is used
		Else     token.Pos // zero if no else clause
		ElseIf   *IfStmt   // set for "else if" chains, mutually exclusive with ElseBody
		ElseBody *Block
		End      token.Pos
	}

	// TryStmt represents `try ... end try` (or the single-statement form
	// `try simpleStmt`). Errors raised in Body are caught; the VM exposes the
	// caught error via the frame's error register rather than a bound name.
	TryStmt struct {
		Try  token.Pos
		Body *Block
		End  token.Pos
	}

	// UseStmt represents `use <module path>`, importing a module by name.
	UseStmt struct {
		Use  token.Pos
		Path string
		End  token.Pos
	}

	// UsingStmt represents `using <module path> ... end using`, an import
	// followed by Body. The imported bindings stay visible after the block.
	UsingStmt struct {
		Using token.Pos
		Path  string
		Body  *Block
		End   token.Pos
	}

	// RepeatStmt represents `repeat [forever] ... end repeat`.
	RepeatStmt struct {
		Repeat token.Pos
		Body   *Block
		End    token.Pos
	}

	// RepeatConditionStmt represents `repeat while/until cond ... end
	// repeat`.
	RepeatConditionStmt struct {
		Repeat token.Pos
		Until  bool // false => while
		Cond   Expr
		Body   *Block
		End    token.Pos
	}

	// RepeatForStmt represents `repeat for var[, var...] in expr ... end
	// repeat`.
	RepeatForStmt struct {
		Repeat token.Pos
		Vars   []*VariableTarget
		In     token.Pos
		Source Expr
		Body   *Block
		End    token.Pos
	}

	// FunctionDecl represents `function <signature terms> ... end function`.
	FunctionDecl struct {
		Function token.Pos
		Name     string // normalized signature name
		Words    []token.Token
		Params   []*Param
		Body     *Block
		End      token.Pos
	}
)

func (n *VariableTarget) Span() token.Range {
	end := n.NamePos
	if len(n.Subscripts) > 0 {
		end = n.Subscripts[len(n.Subscripts)-1].Span().End
	}
	return token.Range{Start: n.NamePos, End: end}
}
func (n *VariableTarget) Walk(v Visitor) {
	for _, s := range n.Subscripts {
		Walk(v, s)
	}
}
func (n *VariableTarget) String() string { return "target " + n.Name }
func (n *VariableTarget) target()        {}

func (n *StructuredTarget) Span() token.Range { return token.Range{Start: n.Lparen, End: n.Rparen} }
func (n *StructuredTarget) Walk(v Visitor) {
	for _, t := range n.Targets {
		Walk(v, t)
	}
}
func (n *StructuredTarget) String() string { return "destructuring target" }
func (n *StructuredTarget) target()        {}

func (n *AssignmentStmt) Span() token.Range {
	return token.Range{Start: n.Set, End: n.Value.Span().End}
}
func (n *AssignmentStmt) Walk(v Visitor) {
	for _, t := range n.Targets {
		Walk(v, t)
	}
	Walk(v, n.Value)
}
func (n *AssignmentStmt) String() string    { return "assignment" }
func (n *AssignmentStmt) BlockEnding() bool { return false }

func (n *ExpressionStmt) Span() token.Range { return n.Expr.Span() }
func (n *ExpressionStmt) Walk(v Visitor)    { Walk(v, n.Expr) }
func (n *ExpressionStmt) String() string    { return "expr stmt" }
func (n *ExpressionStmt) BlockEnding() bool { return false }

func (n *ReturnStmt) Span() token.Range {
	end := n.Return
	if n.Value != nil {
		end = n.Value.Span().End
	}
	return token.Range{Start: n.Return, End: end}
}
func (n *ReturnStmt) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}
func (n *ReturnStmt) String() string    { return "return" }
func (n *ReturnStmt) BlockEnding() bool { return true }

func (n *ExitRepeatStmt) Span() token.Range { return token.Range{Start: n.Start, End: n.End} }
func (n *ExitRepeatStmt) Walk(v Visitor)    {}
func (n *ExitRepeatStmt) String() string    { return "exit repeat" }
func (n *ExitRepeatStmt) BlockEnding() bool { return true }

func (n *NextRepeatStmt) Span() token.Range { return token.Range{Start: n.Start, End: n.End} }
func (n *NextRepeatStmt) Walk(v Visitor)    {}
func (n *NextRepeatStmt) String() string    { return "next repeat" }
func (n *NextRepeatStmt) BlockEnding() bool { return true }

func (n *IfStmt) Span() token.Range {
	end := n.End
	if !end.IsValid() {
		switch {
		case n.ElseIf != nil:
			return token.Range{Start: n.If, End: n.ElseIf.Span().End}
		case n.ElseBody != nil:
			end = n.ElseBody.Span().End
		case n.Body != nil:
			end = n.Body.Span().End
		}
	}
	return token.Range{Start: n.If, End: end}
}
func (n *IfStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	if n.Body != nil {
		Walk(v, n.Body)
	}
	if n.ElseIf != nil {
		Walk(v, n.ElseIf)
	}
	if n.ElseBody != nil {
		Walk(v, n.ElseBody)
	}
}
func (n *IfStmt) String() string    { return "if" }
func (n *IfStmt) BlockEnding() bool { return false }

func (n *TryStmt) Span() token.Range { return token.Range{Start: n.Try, End: n.End} }
func (n *TryStmt) Walk(v Visitor)    { Walk(v, n.Body) }
func (n *TryStmt) String() string    { return "try" }
func (n *TryStmt) BlockEnding() bool { return false }

func (n *UseStmt) Span() token.Range { return token.Range{Start: n.Use, End: n.End} }
func (n *UseStmt) Walk(v Visitor)    {}
func (n *UseStmt) String() string    { return "use " + n.Path }
func (n *UseStmt) BlockEnding() bool { return false }

func (n *UsingStmt) Span() token.Range { return token.Range{Start: n.Using, End: n.End} }
func (n *UsingStmt) Walk(v Visitor)    { Walk(v, n.Body) }
func (n *UsingStmt) String() string    { return "using " + n.Path }
func (n *UsingStmt) BlockEnding() bool { return false }

func (n *RepeatStmt) Span() token.Range { return token.Range{Start: n.Repeat, End: n.End} }
func (n *RepeatStmt) Walk(v Visitor)    { Walk(v, n.Body) }
func (n *RepeatStmt) String() string    { return "repeat forever" }
func (n *RepeatStmt) BlockEnding() bool { return false }

func (n *RepeatConditionStmt) Span() token.Range {
	return token.Range{Start: n.Repeat, End: n.End}
}
func (n *RepeatConditionStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Body)
}
func (n *RepeatConditionStmt) String() string {
	if n.Until {
		return "repeat until"
	}
	return "repeat while"
}
func (n *RepeatConditionStmt) BlockEnding() bool { return false }

func (n *RepeatForStmt) Span() token.Range { return token.Range{Start: n.Repeat, End: n.End} }
func (n *RepeatForStmt) Walk(v Visitor) {
	Walk(v, n.Source)
	Walk(v, n.Body)
}
func (n *RepeatForStmt) String() string    { return "repeat for" }
func (n *RepeatForStmt) BlockEnding() bool { return false }

func (n *FunctionDecl) Span() token.Range {
	return token.Range{Start: n.Function, End: n.End}
}
func (n *FunctionDecl) Walk(v Visitor)    { Walk(v, n.Body) }
func (n *FunctionDecl) String() string    { return "function " + n.Name }
func (n *FunctionDecl) BlockEnding() bool { return false }
