package machine

import "fmt"

// Enumerator is the Enumerator Object kind: the cursor state driving a
// `repeat for` loop over a List, Dictionary or Range (spec §3: "Enumerator
// (state for `for` loops)"). It is not itself a Tracked container — it is a
// transient, stack/local-resident cursor — but it keeps its backing
// container reachable for the GC (see GC.Collect's Enumerator special case)
// so the container cannot be swept out from under an in-progress loop.
type Enumerator struct {
	src Value

	idx     int
	entries []DictEntry // Dictionary snapshot, captured once at creation

	cur    int64 // Range cursor
	upper  int64
	closed bool
	isRange bool

	done bool
}

var _ Object = (*Enumerator)(nil)

func (e *Enumerator) Type() string   { return "enumerator" }
func (e *Enumerator) String() string { return "enumerator" }

// backing returns the Value the enumerator iterates over, so the collector
// can keep tracing through it even though Enumerator is not Tracked.
func (e *Enumerator) backing() Value { return e.src }

// NewEnumerator builds an Enumerator over src, which must be a List,
// Dictionary or Range Object.
func NewEnumerator(src Value) (*Enumerator, error) {
	if src.Kind != ObjectKind {
		return nil, fmt.Errorf("expected list, dictionary or range, got %s", src.Type())
	}
	switch o := src.Obj.(type) {
	case *List:
		return &Enumerator{src: src, done: len(o.elems) == 0}, nil
	case *Dictionary:
		entries := o.Entries()
		return &Enumerator{src: src, entries: entries, done: len(entries) == 0}, nil
	case *rangeObject:
		return &Enumerator{src: src, isRange: true, cur: o.lower, upper: o.upper, closed: o.closed, done: o.length() <= 0}, nil
	default:
		return nil, fmt.Errorf("expected list, dictionary or range, got %s", src.Type())
	}
}

// AtEnd reports whether the enumerator has no more elements (spec §4.5:
// JumpIfAtEnd).
func (e *Enumerator) AtEnd() bool { return e.done }

// Next advances the enumerator and returns the next element (spec §4.5:
// Enumerate). For a List or Range it yields each element directly; for a
// Dictionary it yields a 2-element List `[key, value]`, since the language
// exposes only a single bound variable per `repeat for` clause unless the
// user destructures it. vm registers any List allocated along the way with
// the collector.
func (e *Enumerator) Next(vm *VM) (Value, error) {
	if e.done {
		return Empty, fmt.Errorf("enumerator exhausted")
	}
	if e.isRange {
		v := Int(e.cur)
		e.cur++
		limit := e.upper
		if e.closed {
			limit++
		}
		e.done = e.cur >= limit
		return v, nil
	}
	if e.entries != nil {
		entry := e.entries[e.idx]
		e.idx++
		e.done = e.idx >= len(e.entries)
		pair := &List{elems: []Value{entry.Key, entry.Value}}
		vm.gc.Register(pair)
		return FromObject(pair), nil
	}
	l := e.src.Obj.(*List)
	v, err := l.Get(e.idx)
	if err != nil {
		return Empty, err
	}
	e.idx++
	e.done = e.idx >= len(l.elems)
	return v, nil
}
