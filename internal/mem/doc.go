// Package mem provides single-block memory allocators.
//
// A container owns at most one Block at a time; growing or shrinking it
// goes through Realloc, which preserves the byte content of the
// overlapping prefix at identical offsets. The base address may change on
// every Realloc, so callers must rebind any derived pointers afterwards.
package mem
