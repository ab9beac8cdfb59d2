// Package soa provides a growable struct-of-arrays container for Go.
//
// A Slice[T] stores records of a fixed struct type in columnar layout:
// every field lives in its own contiguous run, and all runs are packed
// into one allocation. Callers keep array-like ergonomics (push, pop,
// insert, remove, index, iterate) while per-field traversals touch only
// the bytes of that field, which is what vectorized and cache-friendly
// access wants.
//
// # Quick Start
//
//	type Particle struct {
//	    X, Y, Z float32
//	    Mass    float32
//	}
//
//	s, _ := soa.New[Particle]()
//	defer s.Close()
//
//	_ = s.Push(Particle{X: 1, Mass: 2.5})
//	_ = s.Push(Particle{X: 2, Mass: 0.5})
//
//	// Typed view of one whole column.
//	xs, _ := soa.ColumnByName[float32](s, "X")
//	for i := range xs {
//	    xs[i] *= 2
//	}
//
// # Record Types
//
// Record structs must be plain data: fields may be booleans, integers,
// floats, complex numbers, and arrays or structs thereof. Fields holding
// Go pointers (pointers, maps, slices, strings, channels, functions,
// interfaces) are rejected by New, because columns live in untyped memory
// the garbage collector does not scan.
//
// # Views and Relocation
//
// Rows, column slices and raw pointers borrow the container's current
// allocation. Any operation that can relocate it (Push past capacity,
// Reserve, Insert, ShrinkToFit, Close) invalidates every outstanding
// view; do not hold views across such calls.
//
// # Memory Backends
//
// The default backend is garbage-collected heap memory. WithOffHeap
// switches a container to anonymous mmap pages, which bypass the GC
// entirely and return to the operating system on Close. An optional
// resource.MemoryAcquirer puts all containers under one byte budget.
//
// Slice is not safe for concurrent use; exactly one goroutine may mutate
// it at a time.
package soa
