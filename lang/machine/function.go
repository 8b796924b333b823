package machine

import (
	"fmt"

	"github.com/atjhc/sif-sub001/lang/compiler"
)

// Function is the Function Object kind: a compiled prototype paired with
// the upvalues it closed over (spec §3: "Function (bytecode + captures)").
// It is immutable once built by MakeClosure and, like String/Native/Range,
// is never registered with the GC.
type Function struct {
	Proto    *compiler.Function
	Captures []Value
}

var _ Object = (*Function)(nil)

func (fn *Function) Type() string { return "function" }
func (fn *Function) String() string {
	name := fn.Proto.Name
	if name == "" {
		name = "<anonymous>"
	}
	return fmt.Sprintf("function %s", name)
}

// NewClosure materializes a Function value from a constant-pool prototype
// and the resolved upvalue Values gathered at its MakeClosure site (spec
// §9's chosen resolution of the closure-emission Open Question: "make every
// Function constant carry its own capture resolution template" — captures
// are copied by value at closure-creation time, not shared live with the
// enclosing frame).
func NewClosure(proto *compiler.Function, captures []Value) Value {
	return FromObject(&Function{Proto: proto, Captures: captures})
}
