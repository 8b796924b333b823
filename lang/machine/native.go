package machine

import "github.com/atjhc/sif-sub001/lang/token"

// NativeFunc is the host-native function contract (spec §6, SPEC_FULL
// "Native function contract": "func(*NativeCallContext) (Value, error)").
// The evaluated arguments travel inside the context (NativeCallContext.Args)
// rather than as a separate parameter, so the signature matches the host
// registration contract exactly.
type NativeFunc func(ctx *NativeCallContext) (Value, error)

// NativeCallContext is passed to every NativeFunc invocation.
type NativeCallContext struct {
	VM             *VM
	Args           []Value
	Location       token.Range
	ArgumentRanges []token.Range
}

// Native is the Native Object kind: a host-provided callable with a fixed
// arity, invoked by the Call opcode exactly like a compiled Function (spec
// §4.5: "if a Native, invoke with a view over the n arguments").
type Native struct {
	Name  string
	Arity int
	Fn    NativeFunc
}

var _ Object = (*Native)(nil)

func (n *Native) Type() string   { return "native" }
func (n *Native) String() string { return "native " + n.Name }

// NewNative builds a Native Object.
func NewNative(name string, arity int, fn NativeFunc) *Native {
	return &Native{Name: name, Arity: arity, Fn: fn}
}
