package cache

import (
	"reflect"
	"sync"
)

// Backing holds the tables of a Cache and serializes access to them.
type Backing interface {
	// with runs fn with exclusive access to the tables.
	with(fn func(tables map[reflect.Type]any))
}

type localBacking struct {
	tables   map[reflect.Type]any
	borrowed bool
}

// Local returns a backing for a cache used from a single goroutine. It
// takes no lock and panics when a table is accessed while another access is
// in progress.
func Local() Backing {
	return &localBacking{tables: map[reflect.Type]any{}}
}

func (b *localBacking) with(fn func(map[reflect.Type]any)) {
	if b.borrowed {
		panic("cache: table accessed while already borrowed")
	}
	b.borrowed = true
	defer func() { b.borrowed = false }()
	fn(b.tables)
}

type sharedBacking struct {
	mu     sync.Mutex
	tables map[reflect.Type]any
}

// Shared returns a backing safe for concurrent use.
func Shared() Backing {
	return &sharedBacking{tables: map[reflect.Type]any{}}
}

func (b *sharedBacking) with(fn func(map[reflect.Type]any)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.tables)
}
