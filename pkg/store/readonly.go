package store

import (
	"context"
	"fmt"

	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/surrealql"
)

// ReadOnlyStore wraps a Store and rejects write statements while
// isReadOnly returns true. The state is read on every statement so it can be
// toggled without recreating the store, for example during maintenance.
type ReadOnlyStore struct {
	Store
	isReadOnly func() bool
}

// NewReadOnlyStore creates a new read-only wrapper for a store
func NewReadOnlyStore(store Store, isReadOnly func() bool) *ReadOnlyStore {
	return &ReadOnlyStore{
		Store:      store,
		isReadOnly: isReadOnly,
	}
}

// Unwrap returns the underlying store
func (r *ReadOnlyStore) Unwrap() Store {
	return r.Store
}

func (r *ReadOnlyStore) Exec(ctx context.Context, stmt surrealql.Statement) ([]models.Document, error) {
	if IsWrite(stmt.Op) && r.isReadOnly() {
		return nil, fmt.Errorf("%s %s: %w", stmt.Op, stmt.Table, ErrReadOnly)
	}
	return r.Store.Exec(ctx, stmt)
}
