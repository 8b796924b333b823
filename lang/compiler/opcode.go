package compiler

import "fmt"

// Op is a single bytecode instruction tag. Per spec §3, most opcodes are
// followed by a 16-bit big-endian operand encoded in the two bytes after the
// tag; the rest (see hasOperand) stand alone.
type Op uint8

//nolint:revive
const (
	NOP Op = iota

	// Control flow.
	Jump
	JumpIfFalse
	JumpIfTrue
	JumpIfAtEnd
	Repeat // backwards jump: target = codesize - arg + 3.
	PushJump
	PopJump

	// Stack/constant plumbing.
	Pop
	Constant
	Short // immediate small integer, carried directly in the operand.
	Empty
	True
	False

	// Aggregates.
	OpenRange
	ClosedRange
	List
	UnpackList // pops a list of length n, pushes its n elements, element 0 deepest and element n-1 on top.
	Dictionary
	MakeClosure

	// Arithmetic and comparison.
	Negate
	Not
	Increment
	Add
	Subtract
	Multiply
	Divide
	Exponent
	Modulo
	Equal
	NotEqual
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual

	// Containers.
	Subscript
	SetSubscript
	Enumerate
	GetEnumerator

	// Variables.
	SetGlobal
	GetGlobal
	SetLocal
	GetLocal
	SetCapture
	GetCapture
	GetIt
	SetIt

	// Calls and I/O.
	Call
	Return
	Show
	ToString

	maxOp
)

var opNames = [...]string{
	NOP:                "nop",
	Jump:               "jump",
	JumpIfFalse:        "jump-if-false",
	JumpIfTrue:         "jump-if-true",
	JumpIfAtEnd:        "jump-if-at-end",
	Repeat:             "repeat",
	PushJump:           "push-jump",
	PopJump:            "pop-jump",
	Pop:                "pop",
	Constant:           "constant",
	Short:              "short",
	Empty:              "empty",
	True:               "true",
	False:              "false",
	OpenRange:          "open-range",
	ClosedRange:        "closed-range",
	List:               "list",
	UnpackList:         "unpack-list",
	Dictionary:         "dictionary",
	MakeClosure:        "make-closure",
	Negate:             "negate",
	Not:                "not",
	Increment:          "increment",
	Add:                "add",
	Subtract:           "subtract",
	Multiply:           "multiply",
	Divide:             "divide",
	Exponent:           "exponent",
	Modulo:             "modulo",
	Equal:              "equal",
	NotEqual:           "not-equal",
	LessThan:           "less-than",
	GreaterThan:        "greater-than",
	LessThanOrEqual:    "less-than-or-equal",
	GreaterThanOrEqual: "greater-than-or-equal",
	Subscript:          "subscript",
	SetSubscript:       "set-subscript",
	Enumerate:          "enumerate",
	GetEnumerator:      "get-enumerator",
	SetGlobal:          "set-global",
	GetGlobal:          "get-global",
	SetLocal:           "set-local",
	GetLocal:           "get-local",
	SetCapture:         "set-capture",
	GetCapture:         "get-capture",
	GetIt:              "get-it",
	SetIt:              "set-it",
	Call:               "call",
	Return:             "return",
	Show:               "show",
	ToString:           "to-string",
}

func (op Op) String() string {
	if op < maxOp {
		if s := opNames[op]; s != "" {
			return s
		}
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// hasOperand reports whether op is followed by a 16-bit big-endian operand.
// The exceptions to spec §3's "most take a 16-bit... argument" are the
// zero-operand opcodes enumerated here.
func (op Op) hasOperand() bool {
	switch op {
	case NOP, PopJump, Pop, Empty, True, False, OpenRange, ClosedRange,
		Negate, Not, Increment, Add, Subtract, Multiply, Divide, Exponent, Modulo,
		Equal, NotEqual, LessThan, GreaterThan, LessThanOrEqual, GreaterThanOrEqual,
		Subscript, SetSubscript, Enumerate, GetEnumerator, GetIt, SetIt,
		Return, Show, ToString:
		return false
	default:
		return true
	}
}

// Size returns the number of bytes op occupies in the instruction stream,
// including its tag byte.
func (op Op) Size() int {
	if op.hasOperand() {
		return 3
	}
	return 1
}
