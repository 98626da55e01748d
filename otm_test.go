package surrealcrud_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealcrud/surrealcrud"
	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/validation"
)

func TestApplyOneToMany(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()
	meta := insert(t, e, alice, "metadata", models.Document{})

	out, err := e.ApplyOneToMany(ctx, alice, "tags", "metadata_id", meta, []surrealcrud.OtmChange{
		surrealcrud.BindChild(models.Document{"title": "a"}),
		surrealcrud.BindChild(models.Document{"title": "b", "metadata_id": models.NewID("metadata", "elsewhere")}),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, o := range out {
		assert.Equal(t, surrealcrud.Created, o.Kind)
		assert.Equal(t, meta, o.Node.Data["metadata_id"])
		assert.Equal(t, o.Node.ID, o.ID)
	}

	rows, err := e.GetAllByFkey(ctx, alice, "tags", "metadata_id", meta)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	out, err = e.ApplyOneToMany(ctx, alice, "tags", "metadata_id", meta, []surrealcrud.OtmChange{
		surrealcrud.RemoveChild(out[0].ID),
		surrealcrud.BindChild(models.Document{"title": "c"}),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, surrealcrud.Removed, out[0].Kind)
	assert.Equal(t, surrealcrud.Created, out[1].Kind)
	assert.Equal(t, 2, st.Len("tags"))
}

func TestApplyOneToMany_removeChecksOwner(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()
	meta := insert(t, e, alice, "metadata", models.Document{})
	tag := insert(t, e, alice, "tags", models.Document{"title": "a", "metadata_id": meta})

	_, err := e.ApplyOneToMany(ctx, bob, "tags", "metadata_id", meta, []surrealcrud.OtmChange{
		surrealcrud.RemoveChild(tag),
	})
	var missing *surrealcrud.MissingRecordError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, tag, missing.ID)
	assert.Equal(t, 1, st.Len("tags"))
}

func TestApplyOneToMany_validatesFirst(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()
	meta := insert(t, e, alice, "metadata", models.Document{})

	_, err := e.ApplyOneToMany(ctx, alice, "tags", "metadata_id", meta, []surrealcrud.OtmChange{
		surrealcrud.BindChild(models.Document{"title": "ok"}),
		surrealcrud.BindChild(models.Document{"title": ""}),
	})
	var invalid *surrealcrud.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []validation.Error{{Code: validation.StringIsEmpty}}, invalid.Report.Child("1").Field("title"))
	assert.Zero(t, st.Len("tags"))
}

func TestApplyOneToMany_errors(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	meta := models.NewID("metadata", "m")

	tests := []struct {
		name    string
		table   string
		fkey    string
		self    models.ID
		changes []surrealcrud.OtmChange
	}{
		{"scalar field", "tags", "title", meta, nil},
		{"unknown field", "tags", "nope", meta, nil},
		{"parent of wrong table", "tags", "metadata_id", models.NewID("accounts", "a"), nil},
		{"remove from another table", "tags", "metadata_id", meta, []surrealcrud.OtmChange{surrealcrud.RemoveChild(meta)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ApplyOneToMany(ctx, alice, tt.table, tt.fkey, tt.self, tt.changes)
			var docErr *surrealcrud.DocumentError
			assert.ErrorAs(t, err, &docErr)
		})
	}

	_, err := e.ApplyOneToMany(ctx, alice, "accounts", "currency_id", usd, nil)
	require.NoError(t, err)
}

func TestOtm_JSON(t *testing.T) {
	var c surrealcrud.OtmChange
	require.NoError(t, json.Unmarshal([]byte(`{"Bind":{"title":"a"}}`), &c))
	assert.True(t, c.IsBind())
	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Bind":{"title":"a"}}`, string(raw))

	require.NoError(t, json.Unmarshal([]byte(`{"Remove":"tags:t"}`), &c))
	assert.False(t, c.IsBind())
	assert.Error(t, json.Unmarshal([]byte(`{}`), &c))

	removed := surrealcrud.OtmOutcome{Kind: surrealcrud.Removed, ID: models.NewID("tags", "t")}
	raw, err = json.Marshal(removed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Removed":"tags:t"}`, string(raw))

	var back surrealcrud.OtmOutcome
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, removed, back)

	created := surrealcrud.OtmOutcome{Kind: surrealcrud.Created, ID: models.NewID("tags", "t"), Node: &surrealcrud.Node{ID: models.NewID("tags", "t"), Data: models.Document{"title": "a"}}}
	raw, err = json.Marshal(created)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Created":{"id":"tags:t","title":"a"}}`, string(raw))
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, created.ID, back.ID)
}
