package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/store"
	"github.com/surrealcrud/surrealcrud/pkg/store/memstore"
	"github.com/surrealcrud/surrealcrud/pkg/surrealql"
)

func TestReadOnlyStore(t *testing.T) {
	ctx := context.Background()
	user := models.NewID("user", "alice")
	mem := memstore.New()
	mem.Put(models.NewID("metadata", "m1"), models.Document{"user_id": user})

	readOnly := true
	s := store.NewReadOnlyStore(mem, func() bool { return readOnly })

	qb, err := surrealql.NewQueryBuilder(surrealql.Spec{Table: "metadata", Paths: []string{"user_id"}})
	require.NoError(t, err)
	all, _ := qb.SelectAll()
	ins, _ := qb.Insert()

	rows, err := s.Exec(ctx, all.Bind(map[string]any{surrealql.VarUser: user}))
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	insert := ins.Bind(map[string]any{surrealql.VarValue: models.Document{"user_id": user}})
	_, err = s.Exec(ctx, insert)
	assert.ErrorIs(t, err, store.ErrReadOnly)

	readOnly = false
	rows, err = s.Exec(ctx, insert)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 2, mem.Len("metadata"))
	assert.Same(t, mem, s.Unwrap())
}

func TestIsWrite(t *testing.T) {
	assert.False(t, store.IsWrite(surrealql.OpSelect))
	assert.False(t, store.IsWrite(surrealql.OpSelectByFkey))
	assert.True(t, store.IsWrite(surrealql.OpInsert))
	assert.True(t, store.IsWrite(surrealql.OpUnbind))
}
