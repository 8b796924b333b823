package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/atjhc/sif-sub001/lang/scanner"
	"github.com/atjhc/sif-sub001/lang/token"
)

// Tokenize runs only the scanner phase and prints each token, one per line.
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	src, err := readSource(stdio, path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	var sc scanner.Scanner
	var failed bool
	sc.Reset(src, func(pos token.Pos, msg string) {
		failed = true
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", token.RangeString(path, token.Range{Start: pos, End: pos}), msg)
	})

	for {
		tok := sc.Scan()
		fmt.Fprintf(stdio.Stdout, "%s: %s", token.RangeString(path, tok.Span), tok.Kind)
		if tok.Text != "" && tok.Text != tok.Kind.String() {
			fmt.Fprintf(stdio.Stdout, " %q", tok.Text)
		}
		fmt.Fprintln(stdio.Stdout)
		if tok.Kind == token.EOF {
			break
		}
	}
	if failed {
		return errParseFailed
	}
	return nil
}
