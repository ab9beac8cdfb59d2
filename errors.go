package soa

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrOutOfBounds is returned when an index or range does not fit the
	// container's current length.
	ErrOutOfBounds = errors.New("soa: index out of bounds")
	// ErrClosed is returned when operating on a closed container.
	ErrClosed = errors.New("soa: container is closed")
	// ErrUnknownField is returned when a field name does not exist in the
	// record type.
	ErrUnknownField = errors.New("soa: unknown field")
)

// ErrColumnTypeMismatch indicates that a typed column view was requested
// with an element type that does not match the field's storage layout.
type ErrColumnTypeMismatch struct {
	Field string
	Elem  reflect.Type
	Size  uintptr
	Align uintptr
}

func (e *ErrColumnTypeMismatch) Error() string {
	return fmt.Sprintf("soa: column %q (size %d, align %d) cannot be viewed as %s",
		e.Field, e.Size, e.Align, e.Elem)
}
