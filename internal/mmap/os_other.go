//go:build !unix

package mmap

// Fallback for platforms without anonymous mmap support: plain heap memory,
// released by the garbage collector instead of munmap.
func osMapAnon(size int) ([]byte, func([]byte) error, error) {
	return make([]byte, size), nil, nil
}
