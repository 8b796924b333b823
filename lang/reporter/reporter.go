// Package reporter implements the Reporter contract shared by lang/parser
// and lang/compiler (spec §4.3, §4.4): a sink that receives a source Range
// and a message every time either phase finds a problem, rather than
// returning a single accumulated error. This lets a driver keep parsing or
// compiling past the first mistake and report everything it finds in one
// pass, and lets a REPL surface each diagnostic the moment it is produced.
package reporter

import (
	"fmt"
	"io"

	"github.com/atjhc/sif-sub001/lang/token"
)

// Diagnostic is one reported problem, with enough information to render it
// without holding a reference to the reporter that produced it.
type Diagnostic struct {
	Range   token.Range
	Message string
}

// String renders the diagnostic the way Streaming does, without a filename.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", token.RangeString("", d.Range), d.Message)
}

// Capturing accumulates every reported diagnostic in source order instead
// of acting on it immediately. This is the formalized shape of the
// collectingReporter test helper duplicated across the parser and compiler
// test suites; drivers that want to print diagnostics only after a whole
// file has been processed (or want to assert on them, as the tests do)
// should use this instead of hand-rolling the same struct again.
type Capturing struct {
	Diagnostics []Diagnostic
}

// Report implements parser.Reporter and compiler.Reporter.
func (c *Capturing) Report(rang token.Range, message string) {
	c.Diagnostics = append(c.Diagnostics, Diagnostic{Range: rang, Message: message})
}

// Failed reports whether any diagnostic was captured.
func (c *Capturing) Failed() bool { return len(c.Diagnostics) > 0 }

// Reset discards every captured diagnostic, so a single Capturing value can
// be reused across several parse/compile calls.
func (c *Capturing) Reset() { c.Diagnostics = nil }

// Streaming writes each diagnostic to Output as it is reported, prefixed
// with Filename, matching the teacher's scanner.PrintError("%s: %s\n")
// one-error-per-line convention (mna-nenuphar/lang/scanner/scanner.go's
// re-exported PrintError). Count tracks how many diagnostics were written,
// so a driver can still decide on an exit code afterward.
type Streaming struct {
	Output   io.Writer
	Filename string
	Count    int
}

// Report implements parser.Reporter and compiler.Reporter.
func (s *Streaming) Report(rang token.Range, message string) {
	s.Count++
	fmt.Fprintf(s.Output, "%s: %s\n", token.RangeString(s.Filename, rang), message)
}

// Failed reports whether any diagnostic was streamed.
func (s *Streaming) Failed() bool { return s.Count > 0 }
