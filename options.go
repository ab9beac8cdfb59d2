package soa

import (
	"github.com/hupe1980/soa/internal/mem"
	"github.com/hupe1980/soa/resource"
)

type config struct {
	allocator mem.Allocator
	capacity  int
	acquirer  resource.MemoryAcquirer
	logger    *Logger
}

func defaultConfig() config {
	return config{
		allocator: mem.NewHeap(),
		logger:    NoopLogger(),
	}
}

// Option is a configuration option for a container.
type Option func(*config)

// WithCapacity pre-allocates room for at least n records.
func WithCapacity(n int) Option {
	return func(c *config) {
		c.capacity = n
	}
}

// WithOffHeap backs the container with anonymous mmap pages instead of
// garbage-collected memory. The pages are returned to the operating
// system on Close.
func WithOffHeap() Option {
	return func(c *config) {
		c.allocator = mem.NewMmap()
	}
}

// WithAcquirer charges every allocation and growth of the container's
// backing block against the given memory budget.
func WithAcquirer(a resource.MemoryAcquirer) Option {
	return func(c *config) {
		c.acquirer = a
	}
}

// WithLogger sets the logger for the container.
func WithLogger(l *Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
