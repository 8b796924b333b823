// Package machine implements the stack virtual machine that executes
// lang/compiler's bytecode: the Value/Object runtime model, the tracing
// garbage collector over mutable containers, and the dispatch loop itself
// (spec §3, §4.5, §4.6).
package machine

import (
	"fmt"
	"math"
)

// Kind tags the discriminated union a Value represents (spec §3: "A tagged
// union of Empty (unit), Integer (64-bit signed), Float (double), Bool, and
// Object").
type Kind uint8

const (
	EmptyKind Kind = iota
	IntKind
	FloatKind
	BoolKind
	ObjectKind
)

func (k Kind) String() string {
	switch k {
	case EmptyKind:
		return "empty"
	case IntKind:
		return "integer"
	case FloatKind:
		return "float"
	case BoolKind:
		return "boolean"
	case ObjectKind:
		return "object"
	default:
		return "unknown"
	}
}

// Object is a heap value held behind a Value's Obj field. It is always
// accessed through a Value of ObjectKind; Value.Type() delegates to it.
type Object interface {
	Type() string
	String() string
}

// Value is the VM's universal operand type: a small tagged union copied by
// value everywhere except through its Obj field, which is a shared handle
// (spec §3: "Values are copied by value; Object handles are shared").
type Value struct {
	Kind Kind
	i    int64
	f    float64
	Obj  Object
}

// Empty is the unit value, the default zero Value.
var Empty = Value{Kind: EmptyKind}

// Int returns an Integer Value.
func Int(n int64) Value { return Value{Kind: IntKind, i: n} }

// Float returns a Float Value.
func Float(f float64) Value { return Value{Kind: FloatKind, f: f} }

// Bool returns a Bool Value.
func Bool(b bool) Value {
	var i int64
	if b {
		i = 1
	}
	return Value{Kind: BoolKind, i: i}
}

// FromObject wraps o in an ObjectKind Value.
func FromObject(o Object) Value { return Value{Kind: ObjectKind, Obj: o} }

// AsInt returns v's integer payload. Valid only when v.Kind == IntKind.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns v's float payload. Valid only when v.Kind == FloatKind.
func (v Value) AsFloat() float64 { return v.f }

// AsBool returns v's boolean payload. Valid only when v.Kind == BoolKind.
func (v Value) AsBool() bool { return v.i != 0 }

// Type names the Value's dynamic type for diagnostics, mirroring the Object
// kinds named in spec §3.
func (v Value) Type() string {
	switch v.Kind {
	case EmptyKind:
		return "empty"
	case IntKind:
		return "integer"
	case FloatKind:
		return "float"
	case BoolKind:
		return "boolean"
	case ObjectKind:
		if v.Obj == nil {
			return "empty"
		}
		return v.Obj.Type()
	default:
		return "unknown"
	}
}

func (v Value) String() string {
	switch v.Kind {
	case EmptyKind:
		return ""
	case IntKind:
		return fmt.Sprintf("%d", v.i)
	case FloatKind:
		return formatFloat(v.f)
	case BoolKind:
		if v.i != 0 {
			return "true"
		}
		return "false"
	case ObjectKind:
		if v.Obj == nil {
			return ""
		}
		return v.Obj.String()
	default:
		return "?"
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	return fmt.Sprintf("%g", f)
}

// Truth reports v's truthiness, used by JumpIfFalse/JumpIfTrue and the Not
// opcode: Empty, the integer/float zero, false, the empty string, and an
// empty List/Dictionary are falsy; everything else is truthy.
func Truth(v Value) bool {
	switch v.Kind {
	case EmptyKind:
		return false
	case IntKind:
		return v.i != 0
	case FloatKind:
		return v.f != 0
	case BoolKind:
		return v.i != 0
	case ObjectKind:
		switch o := v.Obj.(type) {
		case *stringObject:
			return *o != ""
		case *List:
			return len(o.elems) != 0
		case *Dictionary:
			return o.m.Count() != 0
		default:
			return true
		}
	default:
		return false
	}
}

// isNumeric reports whether v is an Integer or Float.
func isNumeric(v Value) bool { return v.Kind == IntKind || v.Kind == FloatKind }

// asFloat widens an Integer or Float Value to float64.
func asFloat(v Value) float64 {
	if v.Kind == IntKind {
		return float64(v.i)
	}
	return v.f
}

// stringObject is the String Object kind: an immutable, reference-counted
// (by Go's own GC) wrapper around a Go string. Never tracked (spec §3: "never
// String, Native, or Function").
type stringObject string

func (s *stringObject) Type() string   { return "string" }
func (s *stringObject) String() string { return string(*s) }

// NewString returns a String Value.
func NewString(s string) Value {
	so := stringObject(s)
	return FromObject(&so)
}

// AsString reports whether v is a String Object and, if so, its content.
// Per spec §3 ("The empty string equals Empty for comparison"), Empty also
// yields ("", true) so callers doing display/concat need not special-case it.
func AsString(v Value) (string, bool) {
	if v.Kind == EmptyKind {
		return "", true
	}
	if v.Kind != ObjectKind {
		return "", false
	}
	so, ok := v.Obj.(*stringObject)
	if !ok {
		return "", false
	}
	return string(*so), true
}

// Equal implements Value equality (spec §3: "The empty string equals Empty
// for comparison; numeric Integer and Float compare by float value when
// types differ").
func Equal(a, b Value) bool {
	if as, aok := AsString(a); aok {
		if bs, bok := AsString(b); bok {
			return as == bs
		}
	}
	if isNumeric(a) && isNumeric(b) {
		if a.Kind == IntKind && b.Kind == IntKind {
			return a.i == b.i
		}
		return asFloat(a) == asFloat(b)
	}
	if a.Kind == BoolKind && b.Kind == BoolKind {
		return a.i == b.i
	}
	if a.Kind == EmptyKind || b.Kind == EmptyKind {
		return a.Kind == b.Kind
	}
	if a.Kind != ObjectKind || b.Kind != ObjectKind {
		return false
	}
	switch ao := a.Obj.(type) {
	case *List:
		bo, ok := b.Obj.(*List)
		if !ok || len(ao.elems) != len(bo.elems) {
			return false
		}
		for i := range ao.elems {
			if !Equal(ao.elems[i], bo.elems[i]) {
				return false
			}
		}
		return true
	default:
		return a.Obj == b.Obj
	}
}

// Compare implements the Ordered relation used by LessThan/GreaterThan/etc.
// Only numeric values and strings are ordered; anything else is an error
// (spec §7: MismatchedTypes).
func Compare(a, b Value) (int, error) {
	if as, aok := AsString(a); aok {
		if bs, bok := AsString(b); bok {
			switch {
			case as < bs:
				return -1, nil
			case as > bs:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if isNumeric(a) && isNumeric(b) {
		if a.Kind == IntKind && b.Kind == IntKind {
			switch {
			case a.i < b.i:
				return -1, nil
			case a.i > b.i:
				return 1, nil
			default:
				return 0, nil
			}
		}
		x, y := asFloat(a), asFloat(b)
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, fmt.Errorf("mismatched types: cannot compare %s and %s", a.Type(), b.Type())
}
