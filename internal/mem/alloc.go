package mem

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/hupe1980/soa/internal/mmap"
)

var (
	// ErrAllocationFailed is returned when the platform denies a memory
	// request. The storage that asked for it is left untouched.
	ErrAllocationFailed = errors.New("mem: allocation failed")
	// ErrInvalidSize is returned for non-positive allocation sizes.
	ErrInvalidSize = errors.New("mem: size must be positive")
	// ErrInvalidAlign is returned for an alignment that is zero or not a
	// power of two.
	ErrInvalidAlign = errors.New("mem: alignment must be a non-zero power of two")
)

// Block is one owned allocation. Its base address is stable for the
// lifetime of the block; only the allocator that produced it may free it.
type Block struct {
	data []byte // aligned view, len == requested size
	free func() error
}

// Ptr returns the base address of the block.
func (b *Block) Ptr() unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(b.data))
}

// Bytes returns the block's bytes. The slice aliases the allocation and is
// valid only until the block is freed or reallocated.
func (b *Block) Bytes() []byte {
	return b.data
}

// Size returns the usable size of the block in bytes.
func (b *Block) Size() uintptr {
	return uintptr(len(b.data))
}

// Allocator hands out single blocks of aligned memory.
type Allocator interface {
	// Alloc returns a zeroed block of exactly size bytes whose base
	// address is aligned to align. size must be positive.
	Alloc(size, align uintptr) (*Block, error)

	// Realloc returns a block of newSize bytes whose leading
	// min(oldSize, newSize) bytes match b's content. The base address may
	// differ from b's; b is consumed and must not be used afterwards.
	Realloc(b *Block, newSize, align uintptr) (*Block, error)

	// Free releases the block. The block and every pointer derived from
	// it are invalid afterwards.
	Free(b *Block) error
}

func checkRequest(size, align uintptr) error {
	if size == 0 {
		return ErrInvalidSize
	}
	if align == 0 || align&(align-1) != 0 {
		return ErrInvalidAlign
	}
	// The over-allocation size+align-1 must still fit in an int.
	if uint64(size)+uint64(align) > uint64(math.MaxInt) {
		return ErrInvalidSize
	}
	return nil
}

// alignedView slices buf down to size bytes starting at the first
// align-aligned address. buf must be at least size+align-1 bytes.
func alignedView(buf []byte, size, align uintptr) []byte {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	offset := (align - addr&(align-1)) & (align - 1)
	return buf[offset : offset+size : offset+size]
}

// reallocate implements Realloc generically: allocate, copy the
// overlapping prefix, free the old block. On any failure the old block is
// left intact and no new block escapes.
func reallocate(a Allocator, b *Block, newSize, align uintptr) (*Block, error) {
	nb, err := a.Alloc(newSize, align)
	if err != nil {
		return nil, err
	}
	copy(nb.data, b.data)
	if err := a.Free(b); err != nil {
		_ = a.Free(nb)
		return nil, err
	}
	return nb, nil
}

// Heap allocates garbage-collected memory. It over-allocates by the
// requested alignment and keeps the backing array alive through the
// returned view.
type Heap struct{}

// NewHeap creates the default heap-backed allocator.
func NewHeap() *Heap {
	return &Heap{}
}

// Alloc implements Allocator.
func (h *Heap) Alloc(size, align uintptr) (*Block, error) {
	if err := checkRequest(size, align); err != nil {
		return nil, err
	}
	buf := make([]byte, size+align-1)
	return &Block{data: alignedView(buf, size, align)}, nil
}

// Realloc implements Allocator.
func (h *Heap) Realloc(b *Block, newSize, align uintptr) (*Block, error) {
	return reallocate(h, b, newSize, align)
}

// Free implements Allocator. Heap memory is reclaimed by the garbage
// collector once the block's view is dropped.
func (h *Heap) Free(b *Block) error {
	b.data = nil
	return nil
}

// Mmap allocates off-heap memory via anonymous mappings. Freed blocks are
// returned to the operating system immediately.
type Mmap struct{}

// NewMmap creates the off-heap allocator.
func NewMmap() *Mmap {
	return &Mmap{}
}

// Alloc implements Allocator.
func (m *Mmap) Alloc(size, align uintptr) (*Block, error) {
	if err := checkRequest(size, align); err != nil {
		return nil, err
	}

	mapping, err := mmap.MapAnon(int(size + align - 1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}

	return &Block{
		data: alignedView(mapping.Bytes(), size, align),
		free: mapping.Close,
	}, nil
}

// Realloc implements Allocator.
func (m *Mmap) Realloc(b *Block, newSize, align uintptr) (*Block, error) {
	return reallocate(m, b, newSize, align)
}

// Free implements Allocator. The block is invalidated only once the pages
// are actually unmapped, so a denied unmap leaves it usable.
func (m *Mmap) Free(b *Block) error {
	if b.free != nil {
		if err := b.free(); err != nil {
			return err
		}
	}
	b.data = nil
	b.free = nil
	return nil
}
