// Package reader implements parser.Reader (spec §4.3, "Read-ahead for
// multi-line constructs"): something the parser can ask for more source
// from when it runs out of buffered input but is still inside an open
// block. StringReader serves a fixed, already-known buffer; LineReader
// drives an interactive terminal for a REPL.
package reader

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// StringReader hands out a single fixed buffer of source the first time
// it's asked, then reports no more is available. This covers drivers that
// already hold a whole file's bytes but still construct the parser
// incrementally (e.g. streaming a large file in from disk one read() at a
// time before handing it to the parser).
type StringReader struct {
	remaining []byte
	consumed  bool
}

// NewStringReader wraps src as a one-shot Reader.
func NewStringReader(src []byte) *StringReader {
	return &StringReader{remaining: src}
}

// Readable reports whether the buffer has not yet been handed out.
func (r *StringReader) Readable() bool {
	return !r.consumed && len(r.remaining) > 0
}

// ReadMore returns the wrapped buffer once; depth is ignored since there is
// no prompt to render.
func (r *StringReader) ReadMore(depth int) ([]byte, error) {
	r.consumed = true
	return r.remaining, nil
}

// LineReader reads one line at a time from an interactive terminal, using
// golang.org/x/term for raw-mode input and history editing, rendering a
// continuation prompt ("... ", repeated per nesting depth) while a
// multi-line construct (if/try/repeat/function) is still open.
type LineReader struct {
	fd       int
	oldState *term.State
	terminal *term.Terminal
}

// NewLineReader puts fd (typically os.Stdin's descriptor) into raw mode and
// wires rw (typically stdin+stdout) as the terminal's read/write pair.
// Callers must call Close to restore the terminal's prior state.
func NewLineReader(rw io.ReadWriter, fd int) (*LineReader, error) {
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("reader: put terminal in raw mode: %w", err)
	}
	return &LineReader{
		fd:       fd,
		oldState: oldState,
		terminal: term.NewTerminal(rw, ""),
	}, nil
}

// Readable always reports true: an interactive terminal can always be asked
// for one more line.
func (r *LineReader) Readable() bool { return true }

// ReadMore prompts for and reads one line, rendering "... " once per depth
// of currently-open block so the user can see how deeply nested they are.
func (r *LineReader) ReadMore(depth int) ([]byte, error) {
	r.terminal.SetPrompt(strings.Repeat("... ", depth))
	line, err := r.terminal.ReadLine()
	if err != nil {
		return nil, err
	}
	return []byte(line + "\n"), nil
}

// Close restores the terminal's prior (non-raw) mode.
func (r *LineReader) Close() error {
	return term.Restore(r.fd, r.oldState)
}
