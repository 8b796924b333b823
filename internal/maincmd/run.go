package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/atjhc/sif-sub001/lang/ast"
	"github.com/atjhc/sif-sub001/lang/machine"
)

// Run parses, compiles and executes the named file (or stdin), per spec §6's
// "CLI (bytecode runner)". This is the command that runs when no <command>
// is given.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
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

	if c.TraceParse {
		printer := ast.Printer{Output: stdio.Stderr, Filename: path, WithPositions: true}
		_ = printer.Print(prog)
	}
	if c.PrettyPrint {
		printer := ast.Printer{Output: stdio.Stdout, Filename: path}
		if err := printer.Print(prog); err != nil {
			return err
		}
	}

	fn, err := compileSource(stdio.Stderr, path, prog)
	if err != nil {
		return err
	}

	vm := machine.New(nil, nil, stdio.Stdout)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.RequestHalt()
		case <-done:
		}
	}()

	if _, err := vm.Run(fn); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &runtimeError{cause: err}
	}
	return nil
}
