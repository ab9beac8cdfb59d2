package rawstore

import (
	"errors"
	"unsafe"

	"github.com/hupe1980/soa/internal/layout"
	"github.com/hupe1980/soa/internal/mem"
)

// ErrBlockMismatch is returned by FromBlock when the supplied block cannot
// hold the layout for the requested capacity.
var ErrBlockMismatch = errors.New("rawstore: block does not fit the layout for the given capacity")

// Field describes one record field: the size and alignment of a single
// column element, plus the field's byte offset inside the record struct.
// RecOffset is what lets Write and Read scatter/gather a record without
// knowing its Go type.
type Field struct {
	Size      uintptr
	Align     uintptr
	RecOffset uintptr
}

// Store keeps every field of a record type in its own contiguous column,
// with all columns packed into a single allocation.
//
// A Store is either Empty (no allocation) or Allocated at some capacity.
// It does not track capacity or length itself: callers pass the exact
// current capacity to Grow and Shrink, and guarantee index bounds on the
// per-element operations, which deliberately carry no checks. Misusing the
// cold entry points (growing to a smaller capacity, operating on an Empty
// store) panics; misusing the hot per-element paths is undefined behavior.
//
// Any call that relocates the allocation (Grow, Shrink) invalidates every
// pointer and byte slice previously obtained from the store.
type Store struct {
	fields []Field
	lay    []layout.Field
	alloc  mem.Allocator
	block  *mem.Block
	bases  []unsafe.Pointer
}

// New creates an empty store for the given field set. No memory is
// allocated until Alloc is called.
func New(fields []Field, alloc mem.Allocator) *Store {
	lay := make([]layout.Field, len(fields))
	for i, f := range fields {
		lay[i] = layout.Field{Size: f.Size, Align: f.Align}
	}
	return &Store{
		fields: fields,
		lay:    lay,
		alloc:  alloc,
		bases:  make([]unsafe.Pointer, len(fields)),
	}
}

// FromBlock rebuilds a store handle around an existing block that already
// holds column data for the given capacity. The block must be at least as
// large as the layout requires and aligned to it; ownership of the block
// passes to the store.
func FromBlock(fields []Field, alloc mem.Allocator, block *mem.Block, capacity int) (*Store, error) {
	s := New(fields, alloc)

	plan, err := layout.Compute(s.lay, capacity)
	if err != nil {
		return nil, err
	}
	if plan.Size == 0 {
		return s, nil
	}
	if block == nil || block.Size() < plan.Size || uintptr(block.Ptr())%plan.Align != 0 {
		return nil, ErrBlockMismatch
	}

	s.block = block
	s.bind(plan)
	return s, nil
}

// PlanSize returns the allocation size the store would need at the given
// capacity. Used by owners for memory accounting before committing to a
// resize.
func (s *Store) PlanSize(capacity int) (uintptr, error) {
	plan, err := layout.Compute(s.lay, capacity)
	if err != nil {
		return 0, err
	}
	return plan.Size, nil
}

// Alloc transitions the store from Empty to Allocated at the given
// capacity. Zero-size layouts (no fields, or all fields zero-size) need no
// backing allocation and leave the store Empty on purpose.
func (s *Store) Alloc(capacity int) error {
	if s.block != nil {
		panic("soa: allocate on non-empty storage")
	}
	if capacity <= 0 {
		panic("soa: allocate requires a positive capacity")
	}

	plan, err := layout.Compute(s.lay, capacity)
	if err != nil {
		return err
	}
	if plan.Size == 0 {
		return nil
	}

	block, err := s.alloc.Alloc(plan.Size, plan.Align)
	if err != nil {
		return err
	}
	s.block = block
	s.bind(plan)
	return nil
}

// Grow resizes the allocation from oldCap to newCap and relocates the
// first length elements of every column to their new offsets. The move
// happens inside the single resized block; the per-field order comes from
// the actual offset deltas (highest destination first when offsets grow),
// so a column's write never clobbers a column that has not moved yet.
func (s *Store) Grow(oldCap, newCap, length int) error {
	if newCap <= oldCap {
		panic("soa: grow requires a larger capacity")
	}
	if length < 0 || length > oldCap {
		panic("soa: grow length exceeds old capacity")
	}
	return s.resize(oldCap, newCap, length)
}

// Shrink is the mirror image of Grow: it relocates the first length
// elements of every column to their smaller offsets while the block still
// has its old size (new offsets may precede data that has not moved yet),
// then truncates the allocation.
func (s *Store) Shrink(oldCap, newCap, length int) error {
	if newCap >= oldCap {
		panic("soa: shrink requires a smaller capacity")
	}
	if newCap <= 0 {
		panic("soa: shrink to zero must go through Dealloc")
	}
	if length < 0 || length > newCap {
		panic("soa: shrink length exceeds new capacity")
	}
	return s.resize(oldCap, newCap, length)
}

func (s *Store) resize(oldCap, newCap, length int) error {
	oldPlan, err := layout.Compute(s.lay, oldCap)
	if err != nil {
		return err
	}
	newPlan, err := layout.Compute(s.lay, newCap)
	if err != nil {
		return err
	}
	if newPlan.Size == 0 {
		return nil
	}
	if s.block == nil {
		panic("soa: resize on empty storage")
	}

	growing := newPlan.Size >= oldPlan.Size
	if growing {
		block, err := s.alloc.Realloc(s.block, newPlan.Size, newPlan.Align)
		if err != nil {
			return err
		}
		s.block = block
		s.relocate(oldPlan, newPlan, length)
	} else {
		s.relocate(oldPlan, newPlan, length)
		block, err := s.alloc.Realloc(s.block, newPlan.Size, newPlan.Align)
		if err != nil {
			// The columns already sit at their smaller offsets. Move them
			// back before surfacing the error, so the store never serves
			// data through a plan it no longer matches.
			s.relocate(newPlan, oldPlan, length)
			return err
		}
		s.block = block
	}

	s.bind(newPlan)
	return nil
}

// relocate moves the first length elements of every column from its old
// offset to its new offset within the current block.
func (s *Store) relocate(oldPlan, newPlan layout.Plan, length int) {
	base := s.block.Ptr()
	for _, i := range layout.MoveOrder(oldPlan, newPlan) {
		if oldPlan.Offsets[i] == newPlan.Offsets[i] {
			continue
		}
		n := int(s.fields[i].Size) * length
		if n == 0 {
			continue
		}
		src := unsafe.Slice((*byte)(unsafe.Add(base, oldPlan.Offsets[i])), n)
		dst := unsafe.Slice((*byte)(unsafe.Add(base, newPlan.Offsets[i])), n)
		copy(dst, src)
	}
}

// Dealloc releases the allocation, if any, and returns the store to the
// Empty state. Calling it on an Empty store is a no-op, so zero-size
// layouts and double-close guards fall out naturally.
func (s *Store) Dealloc() error {
	if s.block == nil {
		return nil
	}
	err := s.alloc.Free(s.block)
	s.block = nil
	for i := range s.bases {
		s.bases[i] = nil
	}
	return err
}

// Empty reports whether the store currently owns no allocation.
func (s *Store) Empty() bool {
	return s.block == nil
}

// Raw returns the base address of the allocation, or nil when Empty.
// Advanced callers only; the address is invalidated by Grow and Shrink.
func (s *Store) Raw() unsafe.Pointer {
	if s.block == nil {
		return nil
	}
	return s.block.Ptr()
}

// bind derives the per-column base pointers from the current block and
// plan. Bases are a cache, never the source of truth: they are recomputed
// here on every allocate and resize.
func (s *Store) bind(plan layout.Plan) {
	base := s.block.Ptr()
	for i := range s.bases {
		s.bases[i] = unsafe.Add(base, plan.Offsets[i])
	}
}

// FieldPtr returns the address of column i's element at index. No bounds
// checks; the caller guarantees index < capacity and a non-Empty store
// (nil for zero-size columns).
func (s *Store) FieldPtr(i, index int) unsafe.Pointer {
	if s.bases[i] == nil {
		return nil
	}
	return unsafe.Add(s.bases[i], s.fields[i].Size*uintptr(index))
}

// FieldBytes returns column i's raw bytes for the element range
// [start, end). The slice aliases the allocation and is invalidated by any
// relocation.
func (s *Store) FieldBytes(i, start, end int) []byte {
	n := int(s.fields[i].Size) * (end - start)
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(s.FieldPtr(i, start)), n)
}

// CopyWithin moves count elements from index src to index dst in every
// column, with overlap-safe move semantics per column. Columns are
// disjoint, so there is no ordering requirement between fields.
func (s *Store) CopyWithin(src, dst, count int) {
	for i := range s.fields {
		n := int(s.fields[i].Size) * count
		if n == 0 {
			continue
		}
		from := unsafe.Slice((*byte)(s.FieldPtr(i, src)), n)
		to := unsafe.Slice((*byte)(s.FieldPtr(i, dst)), n)
		copy(to, from)
	}
}

// Write scatters the record at rec into the columns at index, overwriting
// the slot's previous contents.
func (s *Store) Write(index int, rec unsafe.Pointer) {
	for i, f := range s.fields {
		if f.Size == 0 {
			continue
		}
		src := unsafe.Slice((*byte)(unsafe.Add(rec, f.RecOffset)), f.Size)
		dst := unsafe.Slice((*byte)(s.FieldPtr(i, index)), f.Size)
		copy(dst, src)
	}
}

// Read gathers the columns at index into the record at rec. Field types
// are plain data, so this is a bit copy; the slot keeps its bytes and the
// caller decides whether the slot is still logically occupied.
func (s *Store) Read(index int, rec unsafe.Pointer) {
	for i, f := range s.fields {
		if f.Size == 0 {
			continue
		}
		src := unsafe.Slice((*byte)(s.FieldPtr(i, index)), f.Size)
		dst := unsafe.Slice((*byte)(unsafe.Add(rec, f.RecOffset)), f.Size)
		copy(dst, src)
	}
}

// NumFields returns the number of columns.
func (s *Store) NumFields() int {
	return len(s.fields)
}

// FieldSize returns the element size of column i.
func (s *Store) FieldSize(i int) uintptr {
	return s.fields[i].Size
}

// FieldAlign returns the element alignment of column i.
func (s *Store) FieldAlign(i int) uintptr {
	return s.fields[i].Align
}
