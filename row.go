package soa

import (
	"fmt"
	"unsafe"
)

// Row is a read-only view of one record. It borrows the container's
// current allocation: any relocating operation invalidates it.
type Row[T any] struct {
	s     *Slice[T]
	index int
}

// Row returns a view of the record at index i.
func (s *Slice[T]) Row(i int) (Row[T], bool) {
	if s.closed || i < 0 || i >= s.len {
		return Row[T]{}, false
	}
	return Row[T]{s: s, index: i}, true
}

// Index returns the record index this view refers to.
func (r Row[T]) Index() int {
	return r.index
}

// Value gathers the record's fields into a value of T. The result is an
// independent copy and stays valid after the view is invalidated.
func (r Row[T]) Value() T {
	var v T
	if !r.s.zeroSize {
		r.s.store.Read(r.index, unsafe.Pointer(&v))
	}
	return v
}

// FieldPtr returns the address of field i of this record inside the
// columnar storage. The pointer is invalidated by relocation.
func (r Row[T]) FieldPtr(i int) unsafe.Pointer {
	return r.s.store.FieldPtr(i, r.index)
}

func (r Row[T]) String() string {
	return fmt.Sprintf("%+v", r.Value())
}

// RowMut is a mutable view of one record.
type RowMut[T any] struct {
	Row[T]
}

// RowMut returns a mutable view of the record at index i.
func (s *Slice[T]) RowMut(i int) (RowMut[T], bool) {
	r, ok := s.Row(i)
	return RowMut[T]{Row: r}, ok
}

// Set scatters v's fields into this record's column slots.
func (r RowMut[T]) Set(v T) {
	if !r.s.zeroSize {
		r.s.store.Write(r.index, unsafe.Pointer(&v))
	}
}
