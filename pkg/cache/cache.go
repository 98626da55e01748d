// Package cache is a client side store of entities keyed by type and record
// id. Each entity type gets its own strongly typed table; the first GetAll
// of a type loads every row of it through a Fetcher, later calls are served
// from memory.
package cache

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/schema"
)

// Fetcher loads every row of a table visible to the caller.
type Fetcher interface {
	FetchAll(ctx context.Context, table string) ([]models.Document, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, table string) ([]models.Document, error)

func (f FetcherFunc) FetchAll(ctx context.Context, table string) ([]models.Document, error) {
	return f(ctx, table)
}

type Cache struct {
	backing Backing
	fetcher Fetcher
	loads   singleflight.Group

	mu   sync.Mutex
	keys map[reflect.Type]string
}

// New returns a cache over backing. A nil backing means Shared.
func New(backing Backing, fetcher Fetcher) *Cache {
	if backing == nil {
		backing = Shared()
	}
	return &Cache{backing: backing, fetcher: fetcher, keys: map[reflect.Type]string{}}
}

// flightKey names the fetch of typ in loads. Distinct types never share a
// key, even when their names print the same.
func (c *Cache) flightKey(typ reflect.Type) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	k, ok := c.keys[typ]
	if !ok {
		k = strconv.Itoa(len(c.keys))
		c.keys[typ] = k
	}
	return k
}

type rows[T any] struct {
	byID        map[models.ID]*T
	initialized bool
}

// Table is the view of a cache holding entities of type T.
type Table[T schema.Tabler] struct {
	c   *Cache
	key reflect.Type
}

// For returns the table of T in c.
func For[T schema.Tabler](c *Cache) *Table[T] {
	return &Table[T]{c: c, key: reflect.TypeFor[T]()}
}

// Name is the database table T is fetched from.
func (t *Table[T]) Name() string {
	var zero T
	return zero.TableName()
}

// with runs fn on the rows of T, creating them on first use.
func (t *Table[T]) with(fn func(r *rows[T])) {
	t.c.backing.with(func(tables map[reflect.Type]any) {
		r, ok := tables[t.key].(*rows[T])
		if !ok {
			r = &rows[T]{byID: map[models.ID]*T{}}
			tables[t.key] = r
		}
		fn(r)
	})
}

// Set stores v under its id, replacing any previous value.
func (t *Table[T]) Set(v models.WithID[T]) {
	data := v.Data
	t.with(func(r *rows[T]) { r.byID[v.ID] = &data })
}

// Get returns the stored value. The pointer is shared with other readers.
func (t *Table[T]) Get(id models.ID) (*T, bool) {
	var (
		v  *T
		ok bool
	)
	t.with(func(r *rows[T]) { v, ok = r.byID[id] })
	return v, ok
}

// Delete removes id and returns the value it held.
func (t *Table[T]) Delete(id models.ID) (*T, bool) {
	var (
		v  *T
		ok bool
	)
	t.with(func(r *rows[T]) {
		if v, ok = r.byID[id]; ok {
			delete(r.byID, id)
		}
	})
	return v, ok
}

func (t *Table[T]) Len() int {
	var n int
	t.with(func(r *rows[T]) { n = len(r.byID) })
	return n
}

// Reset drops every value of T and forgets that T was fetched.
func (t *Table[T]) Reset() {
	t.with(func(r *rows[T]) {
		r.byID = map[models.ID]*T{}
		r.initialized = false
	})
}

// GetAll returns every value of T ordered by id. The first call fetches the
// table; concurrent first calls share one fetch, which is not canceled with
// the context of the caller that started it. A failed fetch is returned and
// the next call tries again.
func (t *Table[T]) GetAll(ctx context.Context) ([]models.WithID[*T], error) {
	if !t.initialized() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		shared := context.WithoutCancel(ctx)
		if _, err, _ := t.c.loads.Do(t.c.flightKey(t.key), func() (any, error) {
			return nil, t.load(shared)
		}); err != nil {
			return nil, err
		}
	}

	var out []models.WithID[*T]
	t.with(func(r *rows[T]) {
		out = make([]models.WithID[*T], 0, len(r.byID))
		for id, v := range r.byID {
			out = append(out, models.WithID[*T]{ID: id, Data: v})
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (t *Table[T]) initialized() bool {
	var done bool
	t.with(func(r *rows[T]) { done = r.initialized })
	return done
}

func (t *Table[T]) load(ctx context.Context) error {
	if t.initialized() {
		return nil
	}
	if t.c.fetcher == nil {
		return fmt.Errorf("cache: no fetcher for %s", t.Name())
	}
	docs, err := t.c.fetcher.FetchAll(ctx, t.Name())
	if err != nil {
		return fmt.Errorf("cache: fetch %s: %w", t.Name(), err)
	}

	fetched := make([]models.WithID[T], len(docs))
	for i, d := range docs {
		if err := models.FromDocument(d, &fetched[i]); err != nil {
			return fmt.Errorf("cache: decode %s: %w", t.Name(), err)
		}
		if fetched[i].ID.IsZero() {
			return fmt.Errorf("cache: %s row without id", t.Name())
		}
	}
	t.with(func(r *rows[T]) {
		for _, w := range fetched {
			data := w.Data
			r.byID[w.ID] = &data
		}
		r.initialized = true
	})
	return nil
}
