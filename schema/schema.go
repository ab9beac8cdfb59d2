// Package schema derives per-field storage descriptors from Go record
// types.
//
// A schema is the bridge between a plain Go struct and its columnar
// storage: it captures, per field and in declaration order, the element
// size, alignment and the field's offset inside the struct. Columnar
// storage keeps field values in untyped memory that the garbage collector
// does not scan, so only plain-data record types are admissible: any field
// that contains a Go pointer (pointers, maps, slices, strings, channels,
// functions, interfaces) is rejected at schema construction.
package schema

import (
	"fmt"
	"reflect"
)

// Field describes one record field, independent of any instance.
type Field struct {
	// Name is the struct field name.
	Name string
	// Size and Align are the byte size and alignment of one element of
	// the field's column.
	Size  uintptr
	Align uintptr
	// Offset is the field's byte offset inside the record struct.
	Offset uintptr
}

// ErrUnsupportedType indicates a record type that cannot live in columnar
// storage.
type ErrUnsupportedType struct {
	Type   reflect.Type
	Reason string
}

func (e *ErrUnsupportedType) Error() string {
	return fmt.Sprintf("schema: unsupported record type %s: %s", e.Type, e.Reason)
}

// Schema is the immutable field layout of one record type.
type Schema struct {
	typ    reflect.Type
	fields []Field
	byName map[string]int
}

// Of derives the schema for the record type T. T must be a struct whose
// fields are all plain data; a struct with no fields yields a valid,
// degenerate schema.
func Of[T any]() (*Schema, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct {
		return nil, &ErrUnsupportedType{Type: typ, Reason: "record types must be structs"}
	}

	n := typ.NumField()
	s := &Schema{
		typ:    typ,
		fields: make([]Field, 0, n),
		byName: make(map[string]int, n),
	}

	for i := 0; i < n; i++ {
		f := typ.Field(i)
		if err := checkPlainData(f.Type); err != nil {
			return nil, &ErrUnsupportedType{
				Type:   typ,
				Reason: fmt.Sprintf("field %s: %v", f.Name, err),
			}
		}
		s.byName[f.Name] = len(s.fields)
		s.fields = append(s.fields, Field{
			Name:   f.Name,
			Size:   f.Type.Size(),
			Align:  uintptr(f.Type.Align()),
			Offset: f.Offset,
		})
	}

	return s, nil
}

// checkPlainData rejects any type the garbage collector would need to
// scan. Duplicating such values as bit patterns in untyped memory would
// hide live pointers from the runtime.
func checkPlainData(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return nil
	case reflect.Array:
		return checkPlainData(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if err := checkPlainData(t.Field(i).Type); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%s contains Go pointers", t)
	}
}

// Type returns the record's reflect type.
func (s *Schema) Type() reflect.Type {
	return s.typ
}

// NumFields returns the number of fields, in declaration order.
func (s *Schema) NumFields() int {
	return len(s.fields)
}

// Fields returns the field descriptors in declaration order. The returned
// slice must not be modified.
func (s *Schema) Fields() []Field {
	return s.fields
}

// Field returns the descriptor of field i.
func (s *Schema) Field(i int) Field {
	return s.fields[i]
}

// FieldIndex returns the ordinal of the named field.
func (s *Schema) FieldIndex(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// ZeroSize reports whether a record occupies no column bytes at all
// (no fields, or only zero-size fields). Such records need no backing
// allocation; a container only tracks their count.
func (s *Schema) ZeroSize() bool {
	for _, f := range s.fields {
		if f.Size != 0 {
			return false
		}
	}
	return true
}

// PlainData reports whether t is admissible as a column element type.
// Exposed for typed column views, which must apply the same rule to their
// element type as the schema applies to record fields.
func PlainData(t reflect.Type) bool {
	return checkPlainData(t) == nil
}
