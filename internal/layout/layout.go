package layout

import (
	"errors"
	"math"
	"math/bits"
	"sort"
)

var (
	// ErrOverflow is returned when a layout computation would exceed the
	// addressable size limit. Capacity is caller-controlled, so this is
	// checked before any allocator is involved.
	ErrOverflow = errors.New("layout: size overflows addressable space")
	// ErrInvalidAlign is returned for a field alignment that is zero or
	// not a power of two.
	ErrInvalidAlign = errors.New("layout: alignment must be a non-zero power of two")
	// ErrNegativeCapacity is returned for capacities below zero.
	ErrNegativeCapacity = errors.New("layout: capacity must not be negative")
)

// Field describes one record field independent of any instance: the byte
// size and alignment of a single element of that field's column.
type Field struct {
	Size  uintptr
	Align uintptr
}

// Plan is the computed layout of one allocation holding every field's
// column at a given capacity.
//
// Invariants (for fields f and capacity c):
//   - Offsets[0] == 0 and Offsets[i] is aligned to f[i].Align
//   - Offsets[i] + f[i].Size*c <= Size for every i
//   - Align == max(f[i].Align), Size is a multiple of Align
//
// The plan for capacity 0 is valid to compute (Size == 0) but must never
// be dereferenced.
type Plan struct {
	Size    uintptr
	Align   uintptr
	Offsets []uintptr
}

// maxSize caps every computed size so the result is always usable as an
// int (allocation lengths, slice bounds).
const maxSize = uintptr(math.MaxInt)

// Compute folds the per-field column layouts for the given capacity into a
// single allocation plan: each field's column is size*capacity bytes, placed
// at the running size rounded up to the field's alignment, with the final
// size rounded up to the maximum alignment.
func Compute(fields []Field, capacity int) (Plan, error) {
	if capacity < 0 {
		return Plan{}, ErrNegativeCapacity
	}

	plan := Plan{
		Align:   1,
		Offsets: make([]uintptr, len(fields)),
	}

	for i, f := range fields {
		if f.Align == 0 || f.Align&(f.Align-1) != 0 {
			return Plan{}, ErrInvalidAlign
		}

		column, err := mulChecked(f.Size, uintptr(capacity))
		if err != nil {
			return Plan{}, err
		}

		offset, err := alignUp(plan.Size, f.Align)
		if err != nil {
			return Plan{}, err
		}
		plan.Offsets[i] = offset

		plan.Size, err = addChecked(offset, column)
		if err != nil {
			return Plan{}, err
		}
		if f.Align > plan.Align {
			plan.Align = f.Align
		}
	}

	size, err := alignUp(plan.Size, plan.Align)
	if err != nil {
		return Plan{}, err
	}
	plan.Size = size

	return plan, nil
}

// MoveOrder returns the field indices in the order their columns must be
// relocated when the layout changes from old to new within a single block.
//
// The order is derived from the actual offsets, not from declaration order:
// when offsets grow, the column with the highest destination moves first so
// it vacates any region an earlier column's destination overlaps; when
// offsets shrink, the lowest destination moves first for the mirror-image
// reason. Both plans must describe the same field set.
func MoveOrder(old, new Plan) []int {
	order := make([]int, len(new.Offsets))
	for i := range order {
		order[i] = i
	}

	forward := false
	for i := range new.Offsets {
		if new.Offsets[i] > old.Offsets[i] {
			forward = true
			break
		}
	}

	if forward {
		sort.Slice(order, func(a, b int) bool {
			return new.Offsets[order[a]] > new.Offsets[order[b]]
		})
	} else {
		sort.Slice(order, func(a, b int) bool {
			return new.Offsets[order[a]] < new.Offsets[order[b]]
		})
	}
	return order
}

func mulChecked(a, b uintptr) (uintptr, error) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 || uintptr(lo) > maxSize {
		return 0, ErrOverflow
	}
	return uintptr(lo), nil
}

func addChecked(a, b uintptr) (uintptr, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 || uintptr(sum) > maxSize {
		return 0, ErrOverflow
	}
	return uintptr(sum), nil
}

func alignUp(n, align uintptr) (uintptr, error) {
	sum, err := addChecked(n, align-1)
	if err != nil {
		return 0, err
	}
	return sum &^ (align - 1), nil
}
