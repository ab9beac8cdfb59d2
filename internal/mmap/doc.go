// Package mmap provides anonymous memory mappings for off-heap storage.
//
// Columns backed by an anonymous mapping live outside the Go heap: the
// garbage collector never scans or moves them, and Close returns the pages
// to the operating system immediately. This is the backend of choice for
// very large containers where GC pressure matters.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE
//   - Other platforms: falls back to garbage-collected heap memory
package mmap
