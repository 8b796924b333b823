package machine

import (
	"github.com/atjhc/sif-sub001/lang/compiler"
	"github.com/atjhc/sif-sub001/lang/token"
)

// Frame is one call-stack activation record (spec §4.5: "A call-frame stack
// of records {bytecode, ip, captures, sp, jumps, sps, error, it}").
type Frame struct {
	proto    *compiler.Function
	captures []Value

	ip int
	sp int // index into vm.stack where this frame's locals begin

	// jumps/sps form the parallel try-handler stack manipulated by
	// PushJump/PopJump: jumps holds the handler's bytecode offset, sps the
	// operand-stack height to restore before jumping there (spec §4.4: "try:
	// PushJump handler; body; PopJump; ...").
	jumps []int
	sps   []int

	it  Value
	err Value
}

// Position returns the source position of the frame's current instruction,
// for runtime error messages (spec §7).
func (fr *Frame) Position() token.Pos {
	if fr.ip < 0 || fr.ip >= len(fr.proto.Locations) {
		return token.NoPos
	}
	return fr.proto.Locations[fr.ip]
}
