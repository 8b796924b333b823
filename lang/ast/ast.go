// Package ast defines the abstract syntax tree produced by the parser: the
// statement and expression node set described by the language's grammar.
package ast

import (
	"github.com/atjhc/sif-sub001/lang/token"
)

// Node is any node of the AST.
type Node interface {
	// Span reports the source range spanned by the node.
	Span() token.Range

	// Walk enters each child node to implement the Visitor pattern.
	Walk(v Visitor)

	// String returns a short one-line label describing the node, used by the
	// pretty-printer and by debug disassembly.
	String() string
}

// Expr is an expression node.
type Expr interface {
	Node
	expr()
}

// Stmt is a statement node.
type Stmt interface {
	Node

	// BlockEnding reports whether the statement may only appear as the last
	// statement of a block (return, exit repeat, next repeat).
	BlockEnding() bool
}

// Target is the left-hand side of an assignment: either a VariableTarget or
// a StructuredTarget (destructuring).
type Target interface {
	Node
	target()
}

// Program is the root of a parsed chunk of source.
type Program struct {
	Name  string // filename, may be empty
	Block *Block
	EOF   token.Pos
}

func (n *Program) Span() token.Range {
	if n.Block != nil {
		return n.Block.Span()
	}
	return token.Range{Start: n.EOF, End: n.EOF}
}
func (n *Program) Walk(v Visitor) {
	if n.Block != nil {
		Walk(v, n.Block)
	}
}
func (n *Program) String() string { return "program" }

// Block is a sequence of statements, e.g. the body of a function or the
// branch of an if.
type Block struct {
	Start, End token.Pos
	Stmts      []Stmt
}

func (n *Block) Span() token.Range { return token.Range{Start: n.Start, End: n.End} }
func (n *Block) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}
func (n *Block) String() string { return "block" }
