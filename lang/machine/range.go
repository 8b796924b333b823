package machine

import "fmt"

// rangeObject is the Range Object kind: an immutable integer interval
// produced by the OpenRange/ClosedRange opcodes. Immutable, so — like
// String, Function and Native — it is rc-managed by Go's own collector and
// never registered with the GC (spec §3).
type rangeObject struct {
	lower, upper int64
	closed       bool
}

var _ Object = (*rangeObject)(nil)

func (r *rangeObject) Type() string { return "range" }

func (r *rangeObject) String() string {
	op := "..<"
	if r.closed {
		op = "..."
	}
	return fmt.Sprintf("%d%s%d", r.lower, op, r.upper)
}

// NewRange allocates a Range Value over [lower, upper], inclusive iff
// closed, returning an error if lower > upper (spec §4.5: "OpenRange /
// ClosedRange → pop two integers; check lower ≤ upper").
func NewRange(lower, upper int64, closed bool) (Value, error) {
	if lower > upper {
		return Empty, fmt.Errorf("invalid range: lower bound %d is greater than upper bound %d", lower, upper)
	}
	return FromObject(&rangeObject{lower: lower, upper: upper, closed: closed}), nil
}

// Bounds returns the range's lower and upper bounds and whether it is
// closed (upper inclusive).
func (r *rangeObject) Bounds() (int64, int64, bool) { return r.lower, r.upper, r.closed }

// length returns the number of integers the range enumerates.
func (r *rangeObject) length() int64 {
	if r.closed {
		return r.upper - r.lower + 1
	}
	return r.upper - r.lower
}
