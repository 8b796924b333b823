package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/atjhc/sif-sub001/lang/ast"
)

// Parse runs only the parser phase and prints the resulting AST, one node
// per indented line (spec §6, "--pretty-print emits reformatted source" —
// here, the AST dump the teacher's own ast.Printer produces, since source
// regeneration proper is an explicit Non-goal, spec §1).
func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	src, err := readSource(stdio, path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	prog, err := parseSource(stdio.Stderr, path, src)
	if err != nil {
		return err
	}

	printer := ast.Printer{Output: stdio.Stdout, Filename: path, WithPositions: c.PrettyPrint}
	return printer.Print(prog)
}
