// Package maincmd wires the lang/{scanner,parser,compiler,machine} phases
// together into the sif command-line bytecode runner (spec §6: "CLI
// (bytecode runner). Reads a file or stdin; parses; compiles; runs.").
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "sif"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<command>] [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<command>] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Bytecode compiler and runner for the %[1]s scripting language.

The <command> can be one of (default: run):
       run                       Parse, compile and execute <path> (or
                                 stdin, if <path> is omitted).
       parse                     Run only the parser phase and print the
                                 resulting abstract syntax tree.
       tokenize                  Run only the scanner phase and print the
                                 resulting tokens.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --pretty-print            For "run", print the parsed AST to stdout
                                 before executing; for "parse", the default.
       --trace-parse             Print the parsed AST to stderr before
                                 compiling (debug builds).

More information on the %[1]s language:
       https://github.com/atjhc/sif-sub001
`, binName)
)

// Exit codes, per spec §6: "0 success, 1 runtime error, 2 parse or compile
// error, 130 halted by signal."
const (
	ExitSuccess      mainer.ExitCode = 0
	ExitRuntimeError mainer.ExitCode = 1
	ExitCompileError mainer.ExitCode = 2
	ExitHalted       mainer.ExitCode = 130
)

// runtimeError marks an error as having occurred during VM execution
// (exit code 1) rather than during parsing/compiling (exit code 2).
type runtimeError struct{ cause error }

func (e *runtimeError) Error() string { return e.cause.Error() }
func (e *runtimeError) Unwrap() error { return e.cause }

// Cmd is mainer's entry point: its public fields are the CLI's flags, and
// its Run/Parse/Tokenize methods (found via reflection in buildCmds, the
// mechanism the teacher's own CLI uses to dispatch subcommands) are the
// CLI's commands.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	PrettyPrint bool `flag:"pretty-print"`
	TraceParse  bool `flag:"trace-parse"`

	args []string

	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	commands := buildCmds(c)

	cmdName := "run"
	rest := c.args
	if len(c.args) > 0 {
		if _, ok := commands[strings.ToLower(c.args[0])]; ok {
			cmdName = strings.ToLower(c.args[0])
			rest = c.args[1:]
		}
	}

	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}
	if len(rest) > 1 {
		return errors.New("at most one source path may be given")
	}

	c.args = rest
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: strings.ToUpper(binName) + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return ExitCompileError
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return ExitSuccess

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return ExitSuccess
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	err := c.cmdFn(ctx, stdio, c.args)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled):
		return ExitHalted
	case isRuntimeError(err):
		return ExitRuntimeError
	default:
		return ExitCompileError
	}
}

func isRuntimeError(err error) bool {
	var re *runtimeError
	return errors.As(err, &re)
}

// buildCmds finds every method on v with the (ctx, stdio, args) -> error
// shape and exposes it as a subcommand keyed by its lowercased name,
// unchanged from the teacher's own internal/maincmd dispatch mechanism.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
