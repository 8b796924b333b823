// Package machine implements the stack virtual machine described in spec
// §4.5: a single operand stack, a call-frame stack with lexical captures
// and a per-frame `it` register, structured try/PushJump error handling,
// and cooperation with the tracing collector in gc.go.
package machine

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync/atomic"

	"github.com/atjhc/sif-sub001/lang/compiler"
	"github.com/atjhc/sif-sub001/lang/module"
	"github.com/atjhc/sif-sub001/lang/token"
)

// importGlobalName mirrors lang/compiler's unexported importMagicGlobal
// constant: the global binding name a `use`/`using` statement compiles to a
// lookup-and-call against (spec §6, SPEC_FULL "Reader / Reporter / Module
// provider").
const importGlobalName = "!import"

// ErrProgramHalted is returned by Run when execution stops because
// RequestHalt was called (spec §4.5 "Halt", §5 "Cancellation").
var ErrProgramHalted = fmt.Errorf("program halted")

// VM is one instance of the virtual machine. All of its state — operand
// stack, call stack, globals, exports, `it`, and the tracked-container map —
// is private to the instance; there is no process-wide mutable state (spec
// §5: "Shared resources... Inside one VM the operand stack, call stack,
// global table... are all owned by the VM").
type VM struct {
	stack  []Value
	frames []*Frame

	globals map[string]Value
	exports map[string]Value

	gc       *GC
	modules  module.Provider
	stdout   io.Writer

	haltRequested atomic.Bool
}

// New creates a VM. universe seeds the initial globals table (SPEC_FULL
// "Native function contract / stdlib registration"); modules, if non-nil,
// is wired to the `!import` global so `use`/`using` statements can resolve
// (may be nil, in which case any `use` fails at run time); stdout defaults
// to os.Stdout when nil.
func New(universe Universe, modules module.Provider, stdout io.Writer) *VM {
	if stdout == nil {
		stdout = os.Stdout
	}
	vm := &VM{
		globals: universe.Clone(),
		exports: make(map[string]Value),
		modules: modules,
		stdout:  stdout,
	}
	vm.gc = NewGC(vm.roots)
	vm.globals[importGlobalName] = FromObject(NewNative(importGlobalName, 1, vm.importNative))
	return vm
}

// RequestHalt asks the VM to stop at the next dispatch step. Safe to call
// from another goroutine (spec §5: "It must be safe to invoke from another
// thread").
func (vm *VM) RequestHalt() { vm.haltRequested.Store(true) }

// Exports returns the VM's top-level exported bindings, for a host that
// wants to expose this program as a module to another VM.
func (vm *VM) Exports() map[string]Value { return vm.exports }

// Export binds name in the exports table, reachable from GC roots (spec
// §4.6, SPEC_FULL: "the VM keeps a single globals() map plus a separate
// exports() map reachable from GC roots").
func (vm *VM) Export(name string, v Value) { vm.exports[name] = v }

// roots returns every Value the collector must treat as reachable (spec
// §4.6 "Roots").
func (vm *VM) roots() []Value {
	out := make([]Value, 0, len(vm.stack)+len(vm.globals)+len(vm.exports)+2*len(vm.frames))
	out = append(out, vm.stack...)
	for _, v := range vm.globals {
		out = append(out, v)
	}
	for _, v := range vm.exports {
		out = append(out, v)
	}
	for _, fr := range vm.frames {
		out = append(out, fr.it, fr.err)
		out = append(out, fr.captures...)
	}
	return out
}

// NewList allocates and registers a tracked List Value.
func (vm *VM) NewList(elems []Value) Value {
	l := &List{elems: elems}
	vm.gc.Register(l)
	return FromObject(l)
}

// NewDictionary allocates and registers a tracked Dictionary Value.
func (vm *VM) NewDictionary(size int) *Dictionary {
	d := NewDictionary(size)
	vm.gc.Register(d)
	return d
}

// vmError is the runtime error representation: a source range and the
// Value propagated through `try` handlers (spec §7: "Runtime errors...
// carry a SourceRange and a Value").
type vmError struct {
	rang token.Range
	val  Value
}

func (e *vmError) Error() string {
	return fmt.Sprintf("%s: %s", token.RangeString("", e.rang), e.val.String())
}

func rangeAt(pos token.Pos) token.Range { return token.Range{Start: pos, End: pos} }

// Run executes proto as the program's top-level function and returns its
// final result.
func (vm *VM) Run(proto *compiler.Function) (Value, error) {
	// As for a Call, the callee sits in the slot just below the frame's
	// locals, so the final Return drops it along with them.
	vm.push(NewClosure(proto, nil))
	fr := &Frame{proto: proto, sp: len(vm.stack)}
	vm.frames = append(vm.frames, fr)
	return vm.dispatch()
}

// Call invokes fn (a Function or Native Value) with args from Go code —
// used by the import native and, potentially, by host-native functions that
// need to call back into script-defined functions.
func (vm *VM) Call(fn Value, args []Value, loc token.Range, argRanges []token.Range) (Value, error) {
	if fn.Kind != ObjectKind {
		return Empty, fmt.Errorf("attempt to call non-callable value of type %s", fn.Type())
	}
	switch callee := fn.Obj.(type) {
	case *Native:
		return callee.Fn(&NativeCallContext{VM: vm, Args: args, Location: loc, ArgumentRanges: argRanges})
	case *Function:
		if len(args) != callee.Proto.NumParams {
			return Empty, fmt.Errorf("function %s expects %d argument(s), got %d", callee.Proto.Name, callee.Proto.NumParams, len(args))
		}
		base := len(vm.stack)
		vm.push(fn)
		vm.stack = append(vm.stack, args...)
		vm.frames = append(vm.frames, &Frame{proto: callee.Proto, captures: callee.Captures, sp: base + 1})
		return vm.dispatch()
	default:
		return Empty, fmt.Errorf("attempt to call non-callable value of type %s", fn.Type())
	}
}

func (vm *VM) importNative(ctx *NativeCallContext) (Value, error) {
	if vm.modules == nil {
		return Empty, fmt.Errorf("no module provider configured")
	}
	path, ok := AsString(ctx.Args[0])
	if !ok {
		return Empty, fmt.Errorf("expected a string module path")
	}
	mod, err := vm.modules.Module(path)
	if err != nil {
		return Empty, err
	}
	for name, boxed := range mod.Values {
		if v, ok := boxed.(Value); ok {
			vm.globals[name] = v
		}
	}
	return Empty, nil
}

// dispatch runs the fetch-decode-execute loop until the frame stack that
// existed when dispatch was entered unwinds by one (a Return with no
// matching inner frame left to return to, relative to the call depth at
// entry), or a halt/unhandled error ends execution.
func (vm *VM) dispatch() (Value, error) {
	baseDepth := len(vm.frames) - 1

	for {
		fr := vm.frames[len(vm.frames)-1]
		if vm.haltRequested.Load() {
			return Empty, ErrProgramHalted
		}

		code := fr.proto.Code
		if fr.ip >= len(code) {
			return Empty, fmt.Errorf("internal error: instruction pointer ran off the end of %s", fr.proto.Name)
		}
		instrPC := fr.ip
		op, arg, nextIP := compiler.ReadOp(code, fr.ip)
		fr.ip = nextIP

		var opErr error

		switch op {
		case compiler.NOP:
			// no-op

		case compiler.Jump:
			fr.ip = int(arg)

		case compiler.JumpIfFalse:
			if !Truth(vm.peek()) {
				fr.ip = int(arg)
			}

		case compiler.JumpIfTrue:
			if Truth(vm.peek()) {
				fr.ip = int(arg)
			}

		case compiler.JumpIfAtEnd:
			en, ok := vm.peek().Obj.(*Enumerator)
			if !ok {
				opErr = fmt.Errorf("internal error: jump-if-at-end on non-enumerator")
				break
			}
			if en.AtEnd() {
				fr.ip = int(arg)
			}

		case compiler.Repeat:
			fr.ip = nextIP - int(arg) + 3

		case compiler.PushJump:
			fr.jumps = append(fr.jumps, int(arg))
			fr.sps = append(fr.sps, len(vm.stack))

		case compiler.PopJump:
			if len(fr.jumps) > 0 {
				fr.jumps = fr.jumps[:len(fr.jumps)-1]
				fr.sps = fr.sps[:len(fr.sps)-1]
			}

		case compiler.Pop:
			vm.stack = vm.stack[:len(vm.stack)-1]

		case compiler.Constant:
			v, err := vm.materialize(fr.proto, int(arg))
			if err != nil {
				opErr = err
				break
			}
			vm.push(v)

		case compiler.Short:
			vm.push(Int(int64(int16(arg))))

		case compiler.Empty:
			vm.push(Empty)

		case compiler.True:
			vm.push(Bool(true))

		case compiler.False:
			vm.push(Bool(false))

		case compiler.OpenRange, compiler.ClosedRange:
			upper := vm.pop()
			lower := vm.pop()
			if lower.Kind != IntKind || upper.Kind != IntKind {
				opErr = fmt.Errorf("range bounds must be integers")
				break
			}
			v, err := NewRange(lower.i, upper.i, op == compiler.ClosedRange)
			if err != nil {
				opErr = err
				break
			}
			vm.push(v)

		case compiler.List:
			n := int(arg)
			elems := append([]Value(nil), vm.stack[len(vm.stack)-n:]...)
			vm.stack = vm.stack[:len(vm.stack)-n]
			vm.push(vm.NewList(elems))

		case compiler.UnpackList:
			n := int(arg)
			v := vm.pop()
			l, ok := v.Obj.(*List)
			if !ok {
				opErr = fmt.Errorf("expected a list to unpack, got %s", v.Type())
				break
			}
			if len(l.elems) != n {
				opErr = fmt.Errorf("expected %d values but got %d", n, len(l.elems))
				break
			}
			for i := 0; i < n; i++ {
				vm.push(l.elems[i])
			}

		case compiler.Dictionary:
			n := int(arg)
			base := len(vm.stack) - 2*n
			d := vm.NewDictionary(n)
			for i := 0; i < n; i++ {
				k := vm.stack[base+2*i]
				val := vm.stack[base+2*i+1]
				if err := d.SetKey(k, val); err != nil {
					opErr = err
					break
				}
			}
			vm.stack = vm.stack[:base]
			if opErr == nil {
				vm.gc.Notify(d)
				vm.push(FromObject(d))
			}

		case compiler.MakeClosure:
			proto, ok := fr.proto.Constants[arg].(*compiler.Function)
			if !ok {
				opErr = fmt.Errorf("internal error: make-closure operand is not a function prototype")
				break
			}
			captures := make([]Value, len(proto.Captures))
			for i, cd := range proto.Captures {
				if cd.IsLocal {
					captures[i] = vm.stack[fr.sp+cd.Index]
				} else {
					captures[i] = fr.captures[cd.Index]
				}
			}
			vm.push(NewClosure(proto, captures))

		case compiler.Negate:
			x := vm.pop()
			switch x.Kind {
			case IntKind:
				vm.push(Int(-x.i))
			case FloatKind:
				vm.push(Float(-x.f))
			default:
				opErr = fmt.Errorf("expected a number, got %s", x.Type())
			}

		case compiler.Not:
			x := vm.pop()
			vm.push(Bool(!Truth(x)))

		case compiler.Increment:
			// Reserved for a future increment-assignment form; not currently
			// emitted by the compiler.
			x := vm.pop()
			switch x.Kind {
			case IntKind:
				vm.push(Int(x.i + 1))
			case FloatKind:
				vm.push(Float(x.f + 1))
			default:
				opErr = fmt.Errorf("expected a number, got %s", x.Type())
			}

		case compiler.Add, compiler.Subtract, compiler.Multiply, compiler.Modulo, compiler.Exponent:
			y := vm.pop()
			x := vm.pop()
			v, err := binaryArith(op, x, y)
			if err != nil {
				opErr = err
				break
			}
			vm.push(v)

		case compiler.Divide:
			y := vm.pop()
			x := vm.pop()
			v, err := divide(x, y)
			if err != nil {
				opErr = err
				break
			}
			vm.push(v)

		case compiler.Equal:
			y := vm.pop()
			x := vm.pop()
			vm.push(Bool(Equal(x, y)))

		case compiler.NotEqual:
			y := vm.pop()
			x := vm.pop()
			vm.push(Bool(!Equal(x, y)))

		case compiler.LessThan, compiler.GreaterThan, compiler.LessThanOrEqual, compiler.GreaterThanOrEqual:
			y := vm.pop()
			x := vm.pop()
			cmp, err := Compare(x, y)
			if err != nil {
				opErr = err
				break
			}
			var b bool
			switch op {
			case compiler.LessThan:
				b = cmp < 0
			case compiler.GreaterThan:
				b = cmp > 0
			case compiler.LessThanOrEqual:
				b = cmp <= 0
			case compiler.GreaterThanOrEqual:
				b = cmp >= 0
			}
			vm.push(Bool(b))

		case compiler.Subscript:
			idx := vm.pop()
			recv := vm.pop()
			v, err := subscriptGet(recv, idx)
			if err != nil {
				opErr = err
				break
			}
			vm.push(v)

		case compiler.SetSubscript:
			val := vm.pop()
			idx := vm.pop()
			recv := vm.pop()
			if err := subscriptSet(vm, recv, idx, val); err != nil {
				opErr = err
				break
			}

		case compiler.GetEnumerator:
			src := vm.pop()
			en, err := NewEnumerator(src)
			if err != nil {
				opErr = err
				break
			}
			vm.push(FromObject(en))

		case compiler.Enumerate:
			v := vm.pop()
			en, ok := v.Obj.(*Enumerator)
			if !ok {
				opErr = fmt.Errorf("internal error: enumerate on non-enumerator")
				break
			}
			next, err := en.Next(vm)
			if err != nil {
				opErr = err
				break
			}
			vm.push(next)

		case compiler.SetGlobal:
			name, _ := fr.proto.Constants[arg].(string)
			vm.globals[name] = vm.pop()

		case compiler.GetGlobal:
			name, _ := fr.proto.Constants[arg].(string)
			v, ok := vm.globals[name]
			if !ok {
				v = Empty
			}
			vm.push(v)

		case compiler.SetLocal:
			vm.stack[fr.sp+int(arg)] = vm.pop()

		case compiler.GetLocal:
			vm.push(vm.stack[fr.sp+int(arg)])

		case compiler.SetCapture:
			fr.captures[int(arg)] = vm.pop()

		case compiler.GetCapture:
			vm.push(fr.captures[int(arg)])

		case compiler.GetIt:
			vm.push(fr.it)

		case compiler.SetIt:
			fr.it = vm.pop()

		case compiler.ToString:
			v := vm.pop()
			vm.push(NewString(v.String()))

		case compiler.Show:
			fmt.Fprintln(vm.stdout, vm.peek().String())

		case compiler.Call:
			n := int(arg)
			calleeIdx := len(vm.stack) - n - 1
			callee := vm.stack[calleeIdx]
			args := append([]Value(nil), vm.stack[calleeIdx+1:]...)

			if callee.Kind != ObjectKind {
				opErr = fmt.Errorf("attempt to call non-callable value of type %s", callee.Type())
				break
			}
			switch c := callee.Obj.(type) {
			case *Native:
				if c.Arity >= 0 && n != c.Arity {
					opErr = fmt.Errorf("%s expects %d argument(s), got %d", c.Name, c.Arity, n)
					break
				}
				loc := rangeAt(fr.proto.Locations[instrPC])
				argRanges := fr.proto.ArgRanges[instrPC]
				result, err := c.Fn(&NativeCallContext{VM: vm, Args: args, Location: loc, ArgumentRanges: argRanges})
				if err != nil {
					opErr = err
					break
				}
				vm.stack = vm.stack[:calleeIdx]
				vm.push(result)
			case *Function:
				if n != c.Proto.NumParams {
					opErr = fmt.Errorf("function %s expects %d argument(s), got %d", c.Proto.Name, c.Proto.NumParams, n)
					break
				}
				vm.frames = append(vm.frames, &Frame{proto: c.Proto, captures: c.Captures, sp: calleeIdx + 1})
			default:
				opErr = fmt.Errorf("attempt to call non-callable value of type %s", callee.Type())
			}

		case compiler.Return:
			result := vm.pop()
			calleeIdx := fr.sp - 1
			vm.stack = vm.stack[:calleeIdx]
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) <= baseDepth {
				return result, nil
			}
			vm.push(result)

		default:
			opErr = fmt.Errorf("internal error: unimplemented opcode %s", op)
		}

		if opErr != nil {
			verr := &vmError{rang: rangeAt(fr.proto.Locations[instrPC]), val: valueFromError(opErr)}
			result, done, err := vm.raise(baseDepth, verr)
			if done {
				return result, err
			}
		}
	}
}

// valueFromError turns a Go error into the Value a `try` handler would see
// in its frame's error register.
func valueFromError(err error) Value {
	if ve, ok := err.(*vmError); ok {
		return ve.val
	}
	return NewString(err.Error())
}

// raise searches outward from the current frame for a try handler. If one
// is found, execution resumes there and raise reports !done so dispatch
// continues. Otherwise frames are popped (each abandoned call unwinds) down
// to baseDepth; if even the base frame has no handler, the error is final.
func (vm *VM) raise(baseDepth int, verr *vmError) (Value, bool, error) {
	for {
		fr := vm.frames[len(vm.frames)-1]
		if len(fr.jumps) > 0 {
			target := fr.jumps[len(fr.jumps)-1]
			sp := fr.sps[len(fr.sps)-1]
			fr.jumps = fr.jumps[:len(fr.jumps)-1]
			fr.sps = fr.sps[:len(fr.sps)-1]
			vm.stack = vm.stack[:sp]
			fr.err = verr.val
			fr.ip = target
			return Empty, false, nil
		}
		if len(vm.frames) <= baseDepth+1 {
			return Empty, true, verr
		}
		vm.frames = vm.frames[:len(vm.frames)-1]
	}
}

func (vm *VM) push(v Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek() Value { return vm.stack[len(vm.stack)-1] }

func (vm *VM) materialize(proto *compiler.Function, idx int) (Value, error) {
	switch c := proto.Constants[idx].(type) {
	case int64:
		return Int(c), nil
	case float64:
		return Float(c), nil
	case string:
		return NewString(c), nil
	case bool:
		return Bool(c), nil
	case nil:
		return Empty, nil
	default:
		return Empty, fmt.Errorf("internal error: unexpected constant of type %T", c)
	}
}

func binaryArith(op compiler.Op, x, y Value) (Value, error) {
	if op == compiler.Add {
		if x.Kind == IntKind && y.Kind == IntKind {
			return Int(x.i + y.i), nil
		}
		if isNumeric(x) && isNumeric(y) {
			return Float(asFloat(x) + asFloat(y)), nil
		}
		if _, ok := AsString(x); ok {
			return NewString(x.String() + y.String()), nil
		}
		if _, ok := AsString(y); ok {
			return NewString(x.String() + y.String()), nil
		}
		return Empty, fmt.Errorf("mismatched types: cannot add %s and %s", x.Type(), y.Type())
	}

	if !isNumeric(x) || !isNumeric(y) {
		return Empty, fmt.Errorf("mismatched types: expected numbers, got %s and %s", x.Type(), y.Type())
	}

	bothInt := x.Kind == IntKind && y.Kind == IntKind

	switch op {
	case compiler.Subtract:
		if bothInt {
			return Int(x.i - y.i), nil
		}
		return Float(asFloat(x) - asFloat(y)), nil
	case compiler.Multiply:
		if bothInt {
			return Int(x.i * y.i), nil
		}
		return Float(asFloat(x) * asFloat(y)), nil
	case compiler.Modulo:
		if bothInt {
			if y.i == 0 {
				return Empty, fmt.Errorf("divide by zero")
			}
			return Int(x.i % y.i), nil
		}
		return Float(math.Mod(asFloat(x), asFloat(y))), nil
	case compiler.Exponent:
		// Exponent on mixed Integer/Integer is always computed as Float
		// (spec §9, Open Question, preserved deliberately).
		return Float(math.Pow(asFloat(x), asFloat(y))), nil
	default:
		return Empty, fmt.Errorf("internal error: unexpected arithmetic opcode %s", op)
	}
}

func divide(x, y Value) (Value, error) {
	if !isNumeric(x) || !isNumeric(y) {
		return Empty, fmt.Errorf("mismatched types: expected numbers, got %s and %s", x.Type(), y.Type())
	}
	if x.Kind == IntKind && y.Kind == IntKind {
		if y.i == 0 {
			return Empty, fmt.Errorf("divide by zero")
		}
		return Int(x.i / y.i), nil
	}
	yf := asFloat(y)
	if yf == 0 {
		return Empty, fmt.Errorf("divide by zero")
	}
	return Float(asFloat(x) / yf), nil
}

func subscriptGet(recv, idx Value) (Value, error) {
	if recv.Kind == ObjectKind {
		switch o := recv.Obj.(type) {
		case *List:
			if idx.Kind != IntKind {
				return Empty, fmt.Errorf("expected an integer index, got %s", idx.Type())
			}
			return o.Get(int(idx.i))
		case *Dictionary:
			v, _, err := o.Get(idx)
			if err != nil {
				return Empty, err
			}
			return v, nil
		}
	}
	if s, ok := AsString(recv); ok {
		if idx.Kind != IntKind {
			return Empty, fmt.Errorf("expected an integer index, got %s", idx.Type())
		}
		i := int(idx.i)
		if i < 0 {
			i += len(s)
		}
		if i < 0 || i >= len(s) {
			return Empty, fmt.Errorf("index %d out of range for string of length %d", idx.i, len(s))
		}
		return NewString(string(s[i])), nil
	}
	return Empty, fmt.Errorf("value of type %s is not subscriptable", recv.Type())
}

func subscriptSet(vm *VM, recv, idx, val Value) error {
	if recv.Kind == ObjectKind {
		switch o := recv.Obj.(type) {
		case *List:
			if idx.Kind != IntKind {
				return fmt.Errorf("expected an integer index, got %s", idx.Type())
			}
			if err := o.Set(int(idx.i), val); err != nil {
				return err
			}
			vm.gc.Notify(o)
			return nil
		case *Dictionary:
			if err := o.SetKey(idx, val); err != nil {
				return err
			}
			vm.gc.Notify(o)
			return nil
		}
	}
	return fmt.Errorf("value of type %s does not support index assignment", recv.Type())
}
