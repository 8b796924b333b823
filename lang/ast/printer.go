package ast

import (
	"fmt"
	"io"
	"strings"

	"github.com/atjhc/sif-sub001/lang/token"
)

// Printer pretty-prints a tree of Nodes, one per line, indented by depth.
// It backs the CLI's --pretty-print flag (spec §6).
type Printer struct {
	Output   io.Writer
	Filename string

	// WithPositions includes each node's source range in the output.
	WithPositions bool
}

// Print walks n and writes one indented line per node.
func (p *Printer) Print(n Node) error {
	pp := &printer{w: p.Output, filename: p.Filename, withPos: p.WithPositions}
	Walk(pp, n)
	return pp.err
}

type printer struct {
	w        io.Writer
	filename string
	withPos  bool
	depth    int
	err      error
}

func (p *printer) Visit(n Node, dir VisitDirection) Visitor {
	if dir == VisitExit || p.err != nil {
		p.depth--
		return nil
	}
	p.depth++
	p.printNode(n, p.depth-1)
	return p
}

func (p *printer) printNode(n Node, indent int) {
	if p.err != nil {
		return
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(". ", indent))
	if p.withPos {
		b.WriteString("[")
		b.WriteString(token.RangeString(p.filename, n.Span()))
		b.WriteString("] ")
	}
	b.WriteString(n.String())

	_, p.err = fmt.Fprintln(p.w, b.String())
}
