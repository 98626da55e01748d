package crudclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealcrud/surrealcrud"
	"github.com/surrealcrud/surrealcrud/contrib/crudclient"
	"github.com/surrealcrud/surrealcrud/contrib/crudhttp"
	"github.com/surrealcrud/surrealcrud/internal/finance"
	"github.com/surrealcrud/surrealcrud/pkg/cache"
	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/store/memstore"
	"github.com/surrealcrud/surrealcrud/pkg/validation"
)

var (
	alice = models.NewID("user", "alice")
	bob   = models.NewID("user", "bob")
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	e, err := surrealcrud.New(finance.MustRegistry(), memstore.New())
	require.NoError(t, err)
	srv := httptest.NewServer(crudhttp.New(e).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_CRUD(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	c := crudclient.New(srv.URL, crudclient.WithUser("X-User-Id", alice))

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health["status"])

	node, err := c.Insert(ctx, "metadata", finance.Metadata{Title: "Rent"})
	require.NoError(t, err)
	assert.Equal(t, "metadata", node.ID.Table)

	doc, err := c.Get(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rent", doc["title"])

	_, err = c.Update(ctx, node.ID, map[string]any{"title": "Mortgage"})
	require.NoError(t, err)

	rows, err := c.GetAll(ctx, "metadata")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mortgage", rows[0]["title"])

	removed, err := c.Delete(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mortgage", removed["title"])

	_, err = c.Get(ctx, node.ID)
	var missing *surrealcrud.MissingRecordError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, node.ID, missing.ID)
	assert.True(t, surrealcrud.IsClientError(err))
}

func TestClient_errors(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	c := crudclient.New(srv.URL, crudclient.WithUser("X-User-Id", alice))

	_, err := c.Insert(ctx, "tags", map[string]any{"title": ""})
	var invalid *surrealcrud.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []validation.Error{{Code: validation.StringIsEmpty}}, invalid.Report.Field("title"))

	_, err = c.Insert(ctx, "currencies", map[string]any{"code": "EUR", "name": "Euro"})
	assert.ErrorIs(t, err, surrealcrud.ErrReadOnly)

	rep, err := c.Validate(ctx, "tags", map[string]any{"title": "x"})
	require.NoError(t, err)
	assert.Equal(t, []validation.Error{{Code: validation.ValueIsNone}}, rep.Field("metadata_id"))

	_, err = crudclient.New(srv.URL).GetAll(ctx, "metadata")
	assert.ErrorIs(t, err, crudhttp.ErrUnauthenticated)

	_, err = c.GetAll(ctx, "nope")
	var serverErr *crudclient.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusNotFound, serverErr.Status)
}

func TestClient_relationships(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	c := crudclient.New(srv.URL, crudclient.WithUser("X-User-Id", alice))

	meta, err := c.Insert(ctx, "metadata", map[string]any{})
	require.NoError(t, err)

	otm, err := c.ApplyOneToMany(ctx, "tags", "metadata_id", meta.ID, []surrealcrud.OtmChange{
		surrealcrud.BindChild(models.Document{"title": "food"}),
	})
	require.NoError(t, err)
	require.Len(t, otm, 1)
	assert.Equal(t, surrealcrud.Created, otm[0].Kind)
	tag := otm[0].ID

	tags, err := c.GetAllByFkey(ctx, "tags", "metadata_id", meta.ID)
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	mtm, err := c.ApplyManyToMany(ctx, "metadata_tags", "metadata_id", meta.ID, []surrealcrud.MtmChange{
		surrealcrud.Bind(models.Ref[models.Document](tag), models.Document{"exception": false}),
		surrealcrud.Bind(models.Inline(models.Document{"title": "travel", "metadata_id": meta.ID}), models.Document{"exception": true}),
	})
	require.NoError(t, err)
	require.Len(t, mtm, 2)
	assert.Equal(t, surrealcrud.Bound, mtm[0].Kind)
	assert.Equal(t, surrealcrud.Created, mtm[1].Kind)
	assert.Equal(t, "tags", mtm[1].Node.ID.Table)
}

func TestClient_fillsCache(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	c := crudclient.New(srv.URL, crudclient.WithUser("X-User-Id", alice))

	_, err := c.Insert(ctx, "metadata", finance.Metadata{Title: "one"})
	require.NoError(t, err)
	_, err = crudclient.New(srv.URL, crudclient.WithUser("X-User-Id", bob)).Insert(ctx, "metadata", finance.Metadata{Title: "bob's"})
	require.NoError(t, err)

	metas := cache.For[finance.Metadata](cache.New(cache.Shared(), c))
	all, err := metas.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "one", all[0].Data.Title)
	assert.Equal(t, alice, all[0].Data.UserID)
}
