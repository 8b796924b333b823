package machine

import (
	"fmt"
	"strings"

	"github.com/dolthub/swiss"
)

// dictKey is the hashable, comparable projection of a Value used as the
// swiss-table key: Object kinds other than String (which collapses to its
// content, so two distinct String objects with the same text hash and
// compare equal, matching Value equality) are not hashable and are rejected
// when building a Dictionary key (spec §7: the mutable containers List and
// Dictionary cannot themselves be used as keys).
type dictKey struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

func makeDictKey(v Value) (dictKey, error) {
	if s, ok := AsString(v); ok && v.Kind != EmptyKind {
		return dictKey{kind: ObjectKind, s: s}, nil
	}
	switch v.Kind {
	case EmptyKind:
		return dictKey{kind: EmptyKind}, nil
	case IntKind:
		return dictKey{kind: IntKind, i: v.i}, nil
	case FloatKind:
		return dictKey{kind: FloatKind, f: v.f}, nil
	case BoolKind:
		return dictKey{kind: BoolKind, i: v.i}, nil
	default:
		return dictKey{}, fmt.Errorf("unhashable type used as dictionary key: %s", v.Type())
	}
}

// Dictionary is the Dictionary Object kind: a mutable, tracked key/value
// container (spec §3) backed by a swiss-table, the same data structure the
// teacher uses for its own map type.
type Dictionary struct {
	h trackHeader
	m *swiss.Map[dictKey, dictEntry]
}

type dictEntry struct {
	key   Value
	value Value
}

var (
	_ Object  = (*Dictionary)(nil)
	_ Tracked = (*Dictionary)(nil)
)

// NewDictionary returns an empty Dictionary with room for size entries.
func NewDictionary(size int) *Dictionary {
	return &Dictionary{m: swiss.NewMap[dictKey, dictEntry](uint32(size))}
}

func (d *Dictionary) Type() string { return "dictionary" }

func (d *Dictionary) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	d.m.Iter(func(_ dictKey, e dictEntry) bool {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%s: %s", e.key, e.value)
		return false
	})
	b.WriteByte('}')
	return b.String()
}

func (d *Dictionary) header() *trackHeader { return &d.h }

func (d *Dictionary) trace(visit func(Value)) {
	d.m.Iter(func(_ dictKey, e dictEntry) bool {
		visit(e.key)
		visit(e.value)
		return false
	})
}

func (d *Dictionary) clear() { d.m = swiss.NewMap[dictKey, dictEntry](0) }

// Len returns the number of entries.
func (d *Dictionary) Len() int { return d.m.Count() }

// Get looks up k, reporting whether it was present.
func (d *Dictionary) Get(k Value) (Value, bool, error) {
	key, err := makeDictKey(k)
	if err != nil {
		return Empty, false, err
	}
	e, ok := d.m.Get(key)
	if !ok {
		return Empty, false, nil
	}
	return e.value, true, nil
}

// SetKey inserts or overwrites the entry for k.
func (d *Dictionary) SetKey(k, v Value) error {
	key, err := makeDictKey(k)
	if err != nil {
		return err
	}
	d.m.Put(key, dictEntry{key: k, value: v})
	return nil
}

// Entries returns a snapshot of the dictionary's (key, value) pairs.
// Iteration order is unspecified (spec §9, Open Question: resolved as
// non-deterministic rather than insertion order, matching the swiss table's
// own bucket order).
func (d *Dictionary) Entries() []DictEntry {
	out := make([]DictEntry, 0, d.m.Count())
	d.m.Iter(func(_ dictKey, e dictEntry) bool {
		out = append(out, DictEntry{Key: e.key, Value: e.value})
		return false
	})
	return out
}

// DictEntry is one exported (key, value) pair of a Dictionary snapshot.
type DictEntry struct {
	Key   Value
	Value Value
}
