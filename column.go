package soa

import (
	"reflect"
	"unsafe"

	"github.com/hupe1980/soa/schema"
)

// Column returns the whole run of field fi as a typed slice. The slice
// aliases the container's allocation; it is invalidated by relocation.
//
// F must have exactly the stored field's size and alignment and must be
// plain data, otherwise *ErrColumnTypeMismatch is returned.
func Column[F any, T any](s *Slice[T], fi int) ([]F, error) {
	return ColumnRange[F](s, fi, 0, s.len)
}

// ColumnByName is Column addressing the field by its struct name.
func ColumnByName[F any, T any](s *Slice[T], name string) ([]F, error) {
	fi, ok := s.schema.FieldIndex(name)
	if !ok {
		return nil, ErrUnknownField
	}
	return Column[F](s, fi)
}

// ColumnRange returns the [start, end) window of field fi as a typed
// slice, aliasing the container's allocation.
func ColumnRange[F any, T any](s *Slice[T], fi int, start, end int) ([]F, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if fi < 0 || fi >= s.schema.NumFields() {
		return nil, ErrUnknownField
	}
	if start < 0 || end < start || end > s.len {
		return nil, ErrOutOfBounds
	}

	desc := s.schema.Field(fi)
	elem := reflect.TypeOf((*F)(nil)).Elem()
	if elem.Size() != desc.Size || uintptr(elem.Align()) != desc.Align || !schema.PlainData(elem) {
		return nil, &ErrColumnTypeMismatch{
			Field: desc.Name,
			Elem:  elem,
			Size:  desc.Size,
			Align: desc.Align,
		}
	}

	n := end - start
	if n == 0 {
		return nil, nil
	}
	if desc.Size == 0 {
		// No storage behind zero-size fields; a fresh slice has the same
		// observable content.
		return make([]F, n), nil
	}
	return unsafe.Slice((*F)(s.store.FieldPtr(fi, start)), n), nil
}
