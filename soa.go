package soa

import (
	"context"
	"unsafe"

	"github.com/hupe1980/soa/internal/conv"
	"github.com/hupe1980/soa/internal/rawstore"
	"github.com/hupe1980/soa/resource"
	"github.com/hupe1980/soa/schema"
)

// minCapacity is the smallest non-zero capacity a container grows to.
const minCapacity = 4

// Slice is a growable struct-of-arrays container for records of type T.
//
// Logical length and capacity are tracked here; the columnar storage
// underneath is unaware of how many slots are occupied. Not safe for
// concurrent use.
type Slice[T any] struct {
	schema   *schema.Schema
	store    *rawstore.Store
	len      int
	cap      int
	zeroSize bool

	acquirer resource.MemoryAcquirer
	logger   *Logger
	reserved int64 // bytes currently charged to the acquirer
	closed   bool
}

// New creates an empty container for records of type T. T must be a plain
// data struct; see the package documentation for the admissible field
// types.
func New[T any](opts ...Option) (*Slice[T], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sch, err := schema.Of[T]()
	if err != nil {
		return nil, err
	}

	fields := make([]rawstore.Field, sch.NumFields())
	for i, f := range sch.Fields() {
		fields[i] = rawstore.Field{Size: f.Size, Align: f.Align, RecOffset: f.Offset}
	}

	s := &Slice[T]{
		schema:   sch,
		store:    rawstore.New(fields, cfg.allocator),
		zeroSize: sch.ZeroSize(),
		acquirer: cfg.acquirer,
		logger:   cfg.logger.WithRecordType(sch.Type().String()),
	}

	if cfg.capacity > 0 {
		if err := s.ReserveContext(context.Background(), cfg.capacity); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Len returns the number of stored records.
func (s *Slice[T]) Len() int {
	return s.len
}

// Cap returns the number of records the container can hold without
// growing.
func (s *Slice[T]) Cap() int {
	return s.cap
}

// Push appends a record, growing the backing allocation if needed.
func (s *Slice[T]) Push(v T) error {
	return s.PushContext(context.Background(), v)
}

// PushContext appends a record; ctx bounds the memory budget acquisition
// when an acquirer is configured.
func (s *Slice[T]) PushContext(ctx context.Context, v T) error {
	if s.closed {
		return ErrClosed
	}
	if err := s.ensure(ctx, s.len+1); err != nil {
		return err
	}
	if !s.zeroSize {
		s.store.Write(s.len, unsafe.Pointer(&v))
	}
	s.len++
	return nil
}

// Pop removes and returns the last record. It reports false when the
// container is empty. Capacity is unchanged.
func (s *Slice[T]) Pop() (T, bool) {
	var v T
	if s.closed || s.len == 0 {
		return v, false
	}
	s.len--
	if !s.zeroSize {
		s.store.Read(s.len, unsafe.Pointer(&v))
	}
	return v, true
}

// Get returns the record at index i.
func (s *Slice[T]) Get(i int) (T, bool) {
	var v T
	if s.closed || i < 0 || i >= s.len {
		return v, false
	}
	if !s.zeroSize {
		s.store.Read(i, unsafe.Pointer(&v))
	}
	return v, true
}

// Set overwrites the record at index i.
func (s *Slice[T]) Set(i int, v T) error {
	if s.closed {
		return ErrClosed
	}
	if i < 0 || i >= s.len {
		return ErrOutOfBounds
	}
	if !s.zeroSize {
		s.store.Write(i, unsafe.Pointer(&v))
	}
	return nil
}

// Insert places a record at index i, shifting later records one slot to
// the right. i == Len() appends.
func (s *Slice[T]) Insert(i int, v T) error {
	return s.InsertContext(context.Background(), i, v)
}

// InsertContext is Insert with a context bounding budget acquisition.
func (s *Slice[T]) InsertContext(ctx context.Context, i int, v T) error {
	if s.closed {
		return ErrClosed
	}
	if i < 0 || i > s.len {
		return ErrOutOfBounds
	}
	if err := s.ensure(ctx, s.len+1); err != nil {
		return err
	}
	if !s.zeroSize {
		s.store.CopyWithin(i, i+1, s.len-i)
		s.store.Write(i, unsafe.Pointer(&v))
	}
	s.len++
	return nil
}

// Remove deletes and returns the record at index i, shifting later
// records one slot to the left. Capacity is unchanged.
func (s *Slice[T]) Remove(i int) (T, error) {
	var v T
	if s.closed {
		return v, ErrClosed
	}
	if i < 0 || i >= s.len {
		return v, ErrOutOfBounds
	}
	if !s.zeroSize {
		s.store.Read(i, unsafe.Pointer(&v))
		s.store.CopyWithin(i+1, i, s.len-i-1)
	}
	s.len--
	return v, nil
}

// Reserve grows the container so at least n records fit without further
// allocation. It never shrinks.
func (s *Slice[T]) Reserve(n int) error {
	return s.ReserveContext(context.Background(), n)
}

// ReserveContext is Reserve with a context bounding budget acquisition.
func (s *Slice[T]) ReserveContext(ctx context.Context, n int) error {
	if s.closed {
		return ErrClosed
	}
	if n <= s.cap {
		return nil
	}
	return s.setCapacity(ctx, n)
}

// ShrinkToFit reduces the backing allocation to exactly Len() records,
// releasing the slack. An empty container drops its allocation entirely.
func (s *Slice[T]) ShrinkToFit() error {
	if s.closed {
		return ErrClosed
	}
	if s.zeroSize || s.cap == s.len {
		return nil
	}

	if s.len == 0 {
		if err := s.store.Dealloc(); err != nil {
			return err
		}
		s.release(s.reserved)
		s.reserved = 0
		s.cap = 0
		s.logger.Debug("released allocation")
		return nil
	}

	if err := s.store.Shrink(s.cap, s.len, s.len); err != nil {
		return err
	}
	size, err := s.store.PlanSize(s.len)
	if err != nil {
		return err
	}
	bytes, err := conv.UintptrToInt64(size)
	if err != nil {
		return err
	}
	s.release(s.reserved - bytes)
	s.reserved = bytes
	s.logger.Debug("shrink", "old_capacity", s.cap, "new_capacity", s.len)
	s.cap = s.len
	return nil
}

// Iterate calls fn for each record in index order. Return false from fn
// to stop iteration. fn receives a copy; use Set or RowMut to mutate.
func (s *Slice[T]) Iterate(fn func(i int, v T) bool) {
	for i := 0; i < s.len; i++ {
		v, ok := s.Get(i)
		if !ok || !fn(i, v) {
			return
		}
	}
}

// Close releases the backing allocation and returns any reserved budget.
// The container is unusable afterwards; Close is idempotent.
func (s *Slice[T]) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.store.Dealloc()
	s.release(s.reserved)
	s.reserved = 0
	s.len = 0
	s.cap = 0
	s.logger.Debug("closed")
	return err
}

// Raw returns the base address of the backing allocation, or nil when
// none exists. Advanced callers only: the address is invalidated by any
// growth, shrink or Close.
func (s *Slice[T]) Raw() unsafe.Pointer {
	return s.store.Raw()
}

// Schema returns the record type's field layout.
func (s *Slice[T]) Schema() *schema.Schema {
	return s.schema
}

// ensure grows capacity so at least n records fit, doubling the current
// capacity (standard amortized dynamic-array growth).
func (s *Slice[T]) ensure(ctx context.Context, n int) error {
	if n <= s.cap {
		return nil
	}
	if s.zeroSize {
		s.cap = n
		return nil
	}

	newCap := s.cap * 2
	if newCap < n {
		newCap = n
	}
	if newCap < minCapacity {
		newCap = minCapacity
	}
	return s.setCapacity(ctx, newCap)
}

// setCapacity moves the storage to newCap > cap, charging the byte delta
// to the acquirer first so a denied budget never leaves a half-resized
// allocation behind.
func (s *Slice[T]) setCapacity(ctx context.Context, newCap int) error {
	if s.zeroSize {
		s.cap = newCap
		return nil
	}

	size, err := s.store.PlanSize(newCap)
	if err != nil {
		return err
	}
	bytes, err := conv.UintptrToInt64(size)
	if err != nil {
		return err
	}

	delta := bytes - s.reserved
	if s.acquirer != nil && delta > 0 {
		if err := s.acquirer.AcquireMemory(ctx, delta); err != nil {
			return err
		}
	}

	if s.cap == 0 {
		err = s.store.Alloc(newCap)
	} else {
		err = s.store.Grow(s.cap, newCap, s.len)
	}
	if err != nil {
		if s.acquirer != nil && delta > 0 {
			s.acquirer.ReleaseMemory(delta)
		}
		return err
	}

	s.logger.Debug("grow", "old_capacity", s.cap, "new_capacity", newCap, "bytes", bytes)
	s.reserved = bytes
	s.cap = newCap
	return nil
}

func (s *Slice[T]) release(bytes int64) {
	if s.acquirer != nil && bytes > 0 {
		s.acquirer.ReleaseMemory(bytes)
	}
}
