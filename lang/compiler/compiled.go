package compiler

import (
	"encoding/binary"

	"github.com/atjhc/sif-sub001/lang/token"
)

// CaptureDesc describes one upvalue a Function closes over: either a slot in
// the immediately enclosing frame's locals (IsLocal) or a slot already
// captured by the enclosing frame (chained upwards), per spec §3's
// "Captures reference either an enclosing frame's local index... or an
// enclosing frame's capture index" invariant.
type CaptureDesc struct {
	Name    string
	IsLocal bool
	Index   int
}

// Function is the compiled form of a function body (or of a whole program,
// treated as an argument-less top-level function): bytecode, its constant
// pool, per-instruction source locations, and the capture template used to
// materialize a closure value at a MakeClosure site (spec §4.4/§9).
type Function struct {
	Name       string
	ParamNames []string // in signature order; a destructured slot is one "(a, b)" entry
	NumParams  int      // number of argument-slot locals reserved (destructuring counts as one slot)

	Code      []byte
	Locations []token.Pos // one entry per byte of Code, for diagnostics (spec §3)

	// Constants holds interned literal values deduplicated by equality.
	// Entries are int64, float64, string, bool, nil (Empty), or *Function for
	// nested function prototypes referenced by MakeClosure.
	Constants []interface{}

	// Locals holds the name of every local slot (parameters first, then
	// block-scoped locals in declaration order), for disassembly and the
	// "unused local variable" diagnostic.
	Locals []string

	Captures []CaptureDesc

	// ArgRanges maps the byte offset of a Call instruction to the source
	// range of each of its arguments, for precise native-call diagnostics
	// (spec §3).
	ArgRanges map[int][]token.Range

	// Imports lists, in source order, every module path this function's
	// `use`/`using` statements name (informational only — resolution and
	// merging happens at run time through the import-magic global).
	Imports []string
}

// PutOp appends op (and, if it takes one, its 16-bit big-endian operand arg)
// to code, returning the extended slice.
func PutOp(code []byte, op Op, arg uint16) []byte {
	code = append(code, byte(op))
	if op.hasOperand() {
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], arg)
		code = append(code, buf[0], buf[1])
	}
	return code
}

// ReadOp decodes the instruction at code[pc], returning its Op, its operand
// (0 if it has none), and the pc of the following instruction.
func ReadOp(code []byte, pc int) (Op, uint16, int) {
	op := Op(code[pc])
	if !op.hasOperand() {
		return op, 0, pc + 1
	}
	arg := binary.BigEndian.Uint16(code[pc+1 : pc+3])
	return op, arg, pc + 3
}
