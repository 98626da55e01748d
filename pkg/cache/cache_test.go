package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealcrud/surrealcrud/pkg/cache"
	"github.com/surrealcrud/surrealcrud/pkg/models"
)

type note struct {
	Title string `json:"title"`
}

func (note) TableName() string { return "notes" }

type label struct {
	Name string `json:"name"`
}

func (label) TableName() string { return "labels" }

type countingFetcher struct {
	calls atomic.Int32
	rows  map[string][]models.Document
	err   error
}

func (f *countingFetcher) FetchAll(_ context.Context, table string) ([]models.Document, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[table], nil
}

func newFetcher() *countingFetcher {
	return &countingFetcher{rows: map[string][]models.Document{
		"notes": {
			{"id": "notes:b", "title": "second"},
			{"id": "notes:a", "title": "first"},
		},
		"labels": {
			{"id": "labels:x", "name": "red"},
		},
	}}
}

func TestTable_setGetDelete(t *testing.T) {
	for name, backing := range map[string]cache.Backing{"local": cache.Local(), "shared": cache.Shared()} {
		t.Run(name, func(t *testing.T) {
			c := cache.New(backing, nil)
			notes := cache.For[note](c)
			id := models.NewID("notes", "n1")

			_, ok := notes.Get(id)
			assert.False(t, ok)

			notes.Set(models.WithID[note]{ID: id, Data: note{Title: "v1"}})
			v, ok := notes.Get(id)
			require.True(t, ok)
			assert.Equal(t, "v1", v.Title)

			notes.Set(models.WithID[note]{ID: id, Data: note{Title: "v2"}})
			again, _ := notes.Get(id)
			assert.Equal(t, "v2", again.Title)
			assert.Equal(t, "v1", v.Title, "earlier readers keep their value")

			shared, _ := notes.Get(id)
			assert.Same(t, again, shared)

			removed, ok := notes.Delete(id)
			require.True(t, ok)
			assert.Equal(t, "v2", removed.Title)
			_, ok = notes.Delete(id)
			assert.False(t, ok)
			assert.Zero(t, notes.Len())
		})
	}
}

func TestTable_typesAreIsolated(t *testing.T) {
	c := cache.New(cache.Shared(), nil)
	id := models.NewID("x", "1")
	cache.For[note](c).Set(models.WithID[note]{ID: id, Data: note{Title: "n"}})

	_, ok := cache.For[label](c).Get(id)
	assert.False(t, ok)
	v, ok := cache.For[note](c).Get(id)
	require.True(t, ok)
	assert.Equal(t, "n", v.Title)
}

func TestTable_getAllFetchesOnce(t *testing.T) {
	f := newFetcher()
	c := cache.New(cache.Local(), f)
	notes := cache.For[note](c)
	ctx := context.Background()

	first, err := notes.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, models.NewID("notes", "a"), first[0].ID)
	assert.Equal(t, "first", first[0].Data.Title)

	second, err := notes.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, f.calls.Load())

	_, err = cache.For[label](c).GetAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestTable_getAllKeepsLocalWrites(t *testing.T) {
	f := newFetcher()
	c := cache.New(cache.Shared(), f)
	notes := cache.For[note](c)
	ctx := context.Background()

	_, err := notes.GetAll(ctx)
	require.NoError(t, err)
	notes.Set(models.WithID[note]{ID: models.NewID("notes", "c"), Data: note{Title: "third"}})
	notes.Delete(models.NewID("notes", "a"))

	all, err := notes.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Data.Title)
	assert.Equal(t, "third", all[1].Data.Title)
	assert.EqualValues(t, 1, f.calls.Load())

	notes.Reset()
	all, err = notes.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestTable_getAllRetriesAfterFailure(t *testing.T) {
	f := newFetcher()
	f.err = errors.New("offline")
	notes := cache.For[note](cache.New(cache.Shared(), f))
	ctx := context.Background()

	_, err := notes.GetAll(ctx)
	require.ErrorIs(t, err, f.err)

	f.err = nil
	all, err := notes.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestTable_getAllConcurrent(t *testing.T) {
	f := newFetcher()
	notes := cache.For[note](cache.New(cache.Shared(), f))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			all, err := notes.GetAll(context.Background())
			assert.NoError(t, err)
			assert.Len(t, all, 2)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestTable_getAllSharedFetchOutlivesStarter(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	f := cache.FetcherFunc(func(ctx context.Context, _ string) ([]models.Document, error) {
		calls.Add(1)
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []models.Document{{"id": "notes:a", "title": "first"}}, nil
	})
	notes := cache.For[note](cache.New(cache.Shared(), f))

	ctx, cancel := context.WithCancel(context.Background())
	starter := make(chan error, 1)
	go func() {
		_, err := notes.GetAll(ctx)
		starter <- err
	}()
	<-started

	waiter := make(chan error, 1)
	go func() {
		all, err := notes.GetAll(context.Background())
		if err == nil && len(all) != 1 {
			err = errors.New("unexpected rows")
		}
		waiter <- err
	}()

	cancel()
	close(release)
	assert.NoError(t, <-starter)
	assert.NoError(t, <-waiter)
	assert.EqualValues(t, 1, calls.Load())

	_, err := notes.GetAll(ctx)
	assert.NoError(t, err, "initialized tables are served without the context")
}

func TestTable_badRows(t *testing.T) {
	f := &countingFetcher{rows: map[string][]models.Document{
		"notes": {{"title": "no id"}},
	}}
	notes := cache.For[note](cache.New(nil, f))
	_, err := notes.GetAll(context.Background())
	assert.Error(t, err)

	_, err = cache.For[note](cache.New(nil, nil)).GetAll(context.Background())
	assert.Error(t, err)
}

func TestFetcherFunc(t *testing.T) {
	var asked string
	f := cache.FetcherFunc(func(_ context.Context, table string) ([]models.Document, error) {
		asked = table
		return nil, nil
	})
	all, err := cache.For[label](cache.New(cache.Local(), f)).GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, "labels", asked)
}
