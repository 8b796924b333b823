package machine

import (
	"fmt"
	"strings"
)

// List is the List Object kind: a mutable, ordered, tracked container (spec
// §3). Every List is registered with the collector where it is allocated
// (VM.NewList, or the enumerator when it builds a pair).
type List struct {
	h     trackHeader
	elems []Value
}

var (
	_ Object  = (*List)(nil)
	_ Tracked = (*List)(nil)
)

func (l *List) Type() string { return "list" }

func (l *List) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range l.elems {
		if i > 0 {
			b.WriteString(", ")
		}
		if _, ok := AsString(v); ok && v.Kind == ObjectKind {
			fmt.Fprintf(&b, "%q", v.String())
		} else {
			b.WriteString(v.String())
		}
	}
	b.WriteByte(']')
	return b.String()
}

func (l *List) header() *trackHeader { return &l.h }

func (l *List) trace(visit func(Value)) {
	for _, v := range l.elems {
		visit(v)
	}
}

func (l *List) clear() { l.elems = nil }

// Len returns the number of elements in the list.
func (l *List) Len() int { return len(l.elems) }

// Get returns the element at i, or an error if i is out of bounds (spec §7:
// BoundsMismatch). Negative indices count from the end.
func (l *List) Get(i int) (Value, error) {
	idx, err := l.normalize(i)
	if err != nil {
		return Empty, err
	}
	return l.elems[idx], nil
}

// Set assigns the element at i, or an error if i is out of bounds.
func (l *List) Set(i int, v Value) error {
	idx, err := l.normalize(i)
	if err != nil {
		return err
	}
	l.elems[idx] = v
	return nil
}

// Append adds v to the end of the list.
func (l *List) Append(v Value) { l.elems = append(l.elems, v) }

// Elems returns the list's backing slice. Callers must not retain it past a
// mutation.
func (l *List) Elems() []Value { return l.elems }

func (l *List) normalize(i int) (int, error) {
	idx := i
	if idx < 0 {
		idx += len(l.elems)
	}
	if idx < 0 || idx >= len(l.elems) {
		return 0, fmt.Errorf("index %d out of range for list of length %d", i, len(l.elems))
	}
	return idx, nil
}
